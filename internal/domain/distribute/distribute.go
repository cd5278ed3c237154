// Package distribute derives the per-slot assignment table from the
// external resource system's role assignments.
package distribute

import (
	"github.com/google/go-cmp/cmp"

	"github.com/topcoder-platform/work-manager-sub000/internal/domain/model"
	"github.com/topcoder-platform/work-manager-sub000/internal/domain/role"
)

// Table maps a slot index to the ordered list of members assigned to
// that slot's positions.
type Table map[int][]model.AssignedMember

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for idx, members := range t {
		cp := make([]model.AssignedMember, len(members))
		copy(cp, members)
		out[idx] = cp
	}
	return out
}

// Equal reports deep structural equality with another table. An empty
// entry and a missing entry are distinct.
func (t Table) Equal(other Table) bool {
	// Compare via the underlying map type so cmp does not dispatch
	// back to this method and recurse.
	type table map[int][]model.AssignedMember
	return cmp.Equal(table(t), table(other))
}

// Distribute fans the external role assignments out into slot indices.
//
// Distribution is phase-scoped, not slot-scoped: the external system
// has no concept of "slot", so a role assignment lands in every slot
// whose phase resolves to that role's phase, in slot order. One hire
// can therefore transiently appear across multiple same-phase slots
// until headcount reconciliation narrows it; callers must not assume
// positions are exclusive.
func Distribute(assignments []model.RoleAssignment, slots []model.ReviewerSlot, challenge model.Challenge) Table {
	// Group slot indices by their normalized phase display name.
	slotsByPhase := make(map[string][]int)
	for i, s := range slots {
		p, ok := challenge.PhaseByID(s.PhaseID)
		if !ok {
			continue
		}
		key := role.Normalize(p.Name)
		slotsByPhase[key] = append(slotsByPhase[key], i)
	}

	table := make(Table)
	for _, a := range assignments {
		r, ok := role.FromName(a.RoleName)
		if !ok {
			continue // not a reviewer role on this challenge
		}
		key := role.Normalize(r.PhaseName())
		for _, idx := range slotsByPhase[key] {
			table[idx] = append(table[idx], model.AssignedMember{
				Handle: a.MemberHandle,
				UserID: a.MemberID,
			})
		}
	}
	return table
}
