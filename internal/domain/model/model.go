// Package model contains domain types passed between layers.
package model

// ReviewerKind distinguishes how a reviewer slot is scored.
type ReviewerKind string

// Reviewer slot kinds.
const (
	MemberReview ReviewerKind = "MEMBER"
	AIReview     ReviewerKind = "AI"
)

// ReviewerSlot is one configured review requirement on a challenge:
// a phase, a scoring mechanism and a headcount.
type ReviewerSlot struct {
	Kind    ReviewerKind
	PhaseID string // nullable until chosen; empty means not yet selected

	// Member review path.
	ScorecardID           string
	MemberReviewerCount   int // positive, defaults to 1
	ReviewType            string
	ShouldOpenOpportunity bool // open competition; slot must carry no direct assignments

	// AI review path. ScorecardID is derived from the workflow and
	// recomputed whenever AIWorkflowID changes.
	AIWorkflowID string

	// Payment parameters, seeded from a matching default reviewer
	// template on creation or phase change.
	FixedAmount            float64
	BaseCoefficient        float64
	IncrementalCoefficient float64
}

// Phase is one configured phase of a challenge.
type Phase struct {
	ID   string
	Name string
}

// Prize is a single prize amount within a prize set.
type Prize struct {
	Type  string
	Value float64
}

// PrizeSet groups prizes by purpose, e.g. "PLACEMENT".
type PrizeSet struct {
	Type   string
	Prizes []Prize
}

// PlacementPrizeSet is the prize set type holding placement payouts.
const PlacementPrizeSet = "PLACEMENT"

// MarathonMatchType marks challenge types exempt from the review
// phase protocol.
const MarathonMatchType = "Marathon Match"

// Challenge carries the subset of challenge data the engine needs.
type Challenge struct {
	ID        string
	TrackID   string
	TypeID    string
	TypeName  string // display name, e.g. "Challenge", "Marathon Match"
	Phases    []Phase
	PrizeSets []PrizeSet
}

// IsMarathonMatch reports whether the challenge type is exempt from
// review phase requirements.
func (c Challenge) IsMarathonMatch() bool {
	return c.TypeName == MarathonMatchType
}

// PhaseByID returns the configured phase with the given id.
func (c Challenge) PhaseByID(id string) (Phase, bool) {
	for _, p := range c.Phases {
		if p.ID == id {
			return p, true
		}
	}
	return Phase{}, false
}

// AssignedMember is a concrete person occupying one numbered position
// within a slot. Position is implied by placement in the assignment
// table.
type AssignedMember struct {
	Handle string // display identity
	UserID string // stable identity
}

// RoleAssignment mirrors the external resource system's record of a
// member occupying a named role on a challenge. Read-only to this
// service.
type RoleAssignment struct {
	ChallengeID  string
	RoleID       string
	RoleName     string
	MemberHandle string
	MemberID     string
}

// ReviewerTemplate is a default reviewer definition matched by
// (track, type, phase); it seeds payment fields and the scoring
// mechanism of new slots.
type ReviewerTemplate struct {
	TrackID string
	TypeID  string
	PhaseID string

	ScorecardID    string
	AIWorkflowID   string
	IsMemberReview bool

	FixedAmount            float64
	BaseCoefficient        float64
	IncrementalCoefficient float64
}

// Workflow is an AI review workflow; its scorecard drives the derived
// ScorecardID of AI slots.
type Workflow struct {
	ID          string
	Name        string
	ScorecardID string
}
