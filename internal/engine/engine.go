// Package engine reconciles configured reviewer slots with the external
// resource system's role assignments for one challenge edit session.
package engine

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/topcoder-platform/work-manager-sub000/internal/domain/cost"
	"github.com/topcoder-platform/work-manager-sub000/internal/domain/distribute"
	"github.com/topcoder-platform/work-manager-sub000/internal/domain/model"
	"github.com/topcoder-platform/work-manager-sub000/internal/domain/phase"
	"github.com/topcoder-platform/work-manager-sub000/internal/domain/role"
	"github.com/topcoder-platform/work-manager-sub000/pkg/logger"
	"github.com/topcoder-platform/work-manager-sub000/pkg/metrics"
)

// DefaultSettleWindow is how long externally driven re-derivation stays
// suppressed after a user-initiated assignment mutation.
const DefaultSettleWindow = time.Second

// ResourceService is the external system of record for role
// assignments. Both calls are idempotent from this engine's view:
// re-creating an existing assignment or deleting an absent one is not a
// hard failure upstream.
type ResourceService interface {
	CreateAssignment(ctx context.Context, challengeID, roleID, memberHandle string) error
	DeleteAssignment(ctx context.Context, challengeID, roleID, memberHandle string) error
}

// RoleDirectory resolves role display names to resource role ids.
type RoleDirectory interface {
	LookupRoleID(ctx context.Context, roleName string) (string, error)
}

// TemplateStore finds default reviewer templates by challenge track,
// type and optionally phase. A nil template with nil error means no
// match.
type TemplateStore interface {
	FindDefaultReviewer(ctx context.Context, trackID, typeID, phaseID string) (*model.ReviewerTemplate, error)
}

// WorkflowDirectory resolves AI review workflows.
type WorkflowDirectory interface {
	LookupWorkflow(ctx context.Context, workflowID string) (*model.Workflow, error)
}

// Engine owns the in-memory assignment table for one challenge and
// keeps it reconciled with the resource system. Operations serialize on
// an internal mutex; external calls happen under it so the per-member
// ordering of migration and removal loops holds even with concurrent
// HTTP callers.
type Engine struct {
	mu sync.Mutex

	challenge model.Challenge
	slots     []model.ReviewerSlot
	table     distribute.Table

	// generation is bumped by every user-initiated mutation;
	// re-derivations computed against an older generation are
	// discarded. suppressUntil additionally drops derivations that
	// race within the settle window.
	generation    uint64
	suppressUntil time.Time
	settleWindow  time.Duration
	now           func() time.Time

	resources ResourceService
	roles     RoleDirectory
	templates TemplateStore
	workflows WorkflowDirectory

	log     logger.Logger
	metrics *metrics.Manager
}

// New builds an engine session for the given challenge. The slot list
// seeds the session and is copied; callers read it back via Snapshot.
func New(challenge model.Challenge, slots []model.ReviewerSlot,
	resources ResourceService, roles RoleDirectory,
	templates TemplateStore, workflows WorkflowDirectory,
	opts ...Option,
) *Engine {
	e := &Engine{
		challenge:    challenge,
		slots:        append([]model.ReviewerSlot(nil), slots...),
		table:        make(distribute.Table),
		settleWindow: DefaultSettleWindow,
		now:          time.Now,
		resources:    resources,
		roles:        roles,
		templates:    templates,
		workflows:    workflows,
		metrics:      metrics.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.Get().Named("engine")
	}
	return e
}

// Snapshot returns copies of the slot list and assignment table for
// rendering.
func (e *Engine) Snapshot() ([]model.ReviewerSlot, distribute.Table) {
	e.mu.Lock()
	defer e.mu.Unlock()
	slots := append([]model.ReviewerSlot(nil), e.slots...)
	return slots, e.table.Clone()
}

// Generation returns the current mutation generation. Callers fetching
// external assignment data record it before the fetch and pass it to
// Resync so stale derivations can be dropped.
func (e *Engine) Generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}

// Resync re-derives the assignment table from externally fetched role
// assignments. The derivation is discarded when it was computed against
// an older generation, when a user mutation is still inside its settle
// window, or when the result matches the current table.
func (e *Engine) Resync(ctx context.Context, assignments []model.RoleAssignment, observedGeneration uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if observedGeneration < e.generation {
		e.metrics.RecordResyncDiscarded("stale_generation")
		return
	}
	if e.now().Before(e.suppressUntil) {
		e.metrics.RecordResyncDiscarded("settle_window")
		return
	}

	next := distribute.Distribute(assignments, e.slots, e.challenge)
	if next.Equal(e.table) {
		e.metrics.RecordResyncDiscarded("unchanged")
		return
	}
	e.table = next
	e.metrics.RecordResyncApplied()
	e.log.Debug(ctx, "assignment table re-derived",
		logger.String("challengeId", e.challenge.ID),
		logger.Int("slots", len(e.slots)),
	)
}

// AddSlot appends a reviewer slot seeded from a matching default
// reviewer template. Phases whose name contains "review" are preferred
// as the default target, falling back to the first configured phase.
// Returns the index of the new slot.
func (e *Engine) AddSlot(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.challenge.ID == "" {
		return 0, ErrNoChallenge
	}

	phaseID := e.defaultPhaseID()
	slot := model.ReviewerSlot{
		Kind:                model.MemberReview,
		PhaseID:             phaseID,
		MemberReviewerCount: 1,
	}

	tpl, err := e.templates.FindDefaultReviewer(ctx, e.challenge.TrackID, e.challenge.TypeID, phaseID)
	if err != nil {
		e.log.Warn(ctx, "default reviewer lookup failed",
			logger.String("challengeId", e.challenge.ID), logger.Error(err))
		tpl = nil
	}
	if tpl != nil {
		slot.FixedAmount = tpl.FixedAmount
		slot.BaseCoefficient = tpl.BaseCoefficient
		slot.IncrementalCoefficient = tpl.IncrementalCoefficient
		slot.ScorecardID = tpl.ScorecardID
		if tpl.AIWorkflowID != "" || !tpl.IsMemberReview {
			slot.Kind = model.AIReview
			slot.AIWorkflowID = tpl.AIWorkflowID
			slot.ScorecardID = e.workflowScorecard(ctx, tpl.AIWorkflowID)
		}
	}

	e.slots = append(e.slots, slot)
	e.generation++
	return len(e.slots) - 1, nil
}

// RemoveSlot deletes the slot at index; later slots shift down one
// index, and the local table shifts with them. No resource deletions
// are issued here: cleanup is deferred to the next save-triggered full
// reconciliation. TODO(product): confirm whether removal should purge
// the removed slot's role assignments immediately.
func (e *Engine) RemoveSlot(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 0 || index >= len(e.slots) {
		return ErrSlotIndex
	}
	e.slots = append(e.slots[:index], e.slots[index+1:]...)

	shifted := make(distribute.Table, len(e.table))
	for idx, members := range e.table {
		switch {
		case idx < index:
			shifted[idx] = members
		case idx > index:
			shifted[idx-1] = members
		}
	}
	e.table = shifted
	e.generation++
	return nil
}

// SlotField names a mutable ReviewerSlot field for UpdateSlot.
type SlotField string

// Updatable slot fields.
const (
	FieldPhaseID                SlotField = "phaseId"
	FieldScorecardID            SlotField = "scorecardId"
	FieldAIWorkflowID           SlotField = "aiWorkflowId"
	FieldMemberReviewerCount    SlotField = "memberReviewerCount"
	FieldReviewType             SlotField = "reviewType"
	FieldFixedAmount            SlotField = "fixedAmount"
	FieldBaseCoefficient        SlotField = "baseCoefficient"
	FieldIncrementalCoefficient SlotField = "incrementalCoefficient"
)

// UpdateSlot sets one field on the slot at index. Phase changes migrate
// existing assignments to the new role and re-seed payment parameters
// from a matching template; workflow changes recompute the derived
// scorecard; headcount changes reconcile assignment list length against
// the resource system. The returned report carries per-member outcomes
// of any reconciliation loop the update triggered.
func (e *Engine) UpdateSlot(ctx context.Context, index int, field SlotField, value interface{}) (BatchReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 0 || index >= len(e.slots) {
		return nil, ErrSlotIndex
	}

	switch field {
	case FieldPhaseID:
		newPhaseID, ok := value.(string)
		if !ok {
			return nil, ErrInvalidValue
		}
		report := e.migrateOnPhaseChange(ctx, index, newPhaseID)
		e.slots[index].PhaseID = newPhaseID
		e.seedPaymentFromTemplate(ctx, index, newPhaseID)
		e.generation++
		return report, nil

	case FieldAIWorkflowID:
		workflowID, ok := value.(string)
		if !ok {
			return nil, ErrInvalidValue
		}
		e.slots[index].AIWorkflowID = workflowID
		e.slots[index].ScorecardID = e.workflowScorecard(ctx, workflowID)
		e.generation++
		return nil, nil

	case FieldMemberReviewerCount:
		count, err := coerceCount(value)
		if err != nil {
			return nil, err
		}
		e.slots[index].MemberReviewerCount = count
		report := e.reconcileHeadcount(ctx, index, count)
		e.generation++
		return report, nil

	case FieldScorecardID:
		s, ok := value.(string)
		if !ok {
			return nil, ErrInvalidValue
		}
		e.slots[index].ScorecardID = s
	case FieldReviewType:
		s, ok := value.(string)
		if !ok {
			return nil, ErrInvalidValue
		}
		e.slots[index].ReviewType = s
	case FieldFixedAmount:
		f, err := coerceFloat(value)
		if err != nil {
			return nil, err
		}
		e.slots[index].FixedAmount = f
	case FieldBaseCoefficient:
		f, err := coerceFloat(value)
		if err != nil {
			return nil, err
		}
		e.slots[index].BaseCoefficient = f
	case FieldIncrementalCoefficient:
		f, err := coerceFloat(value)
		if err != nil {
			return nil, err
		}
		e.slots[index].IncrementalCoefficient = f
	default:
		return nil, ErrUnknownField
	}

	e.generation++
	return nil, nil
}

// AssignMember places member at [slotIndex][position], or clears the
// position when member is nil. The local table updates synchronously
// before any network call so the caller sees the change immediately;
// the resource system is then brought in line with one logical replace
// (create the new assignment, delete the displaced one). A failed
// replace is not retried; the next full resync reconciles to whatever
// the external system actually holds.
//
// Openly competed slots carry no direct assignments; the mutation is
// rejected with ErrSlotOpen. Positions are bounded by the slot's
// headcount.
func (e *Engine) AssignMember(ctx context.Context, slotIndex, position int, member *model.AssignedMember) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.challenge.ID == "" {
		return nil // no challenge identity; nothing to reconcile against
	}
	if slotIndex < 0 || slotIndex >= len(e.slots) {
		return ErrSlotIndex
	}
	if position < 0 || position >= e.slots[slotIndex].MemberReviewerCount {
		return ErrSlotIndex
	}
	if e.slots[slotIndex].ShouldOpenOpportunity {
		return ErrSlotOpen
	}

	r := e.roleForSlot(slotIndex)

	var previous model.AssignedMember
	if members := e.table[slotIndex]; position < len(members) {
		previous = members[position]
	}
	var next model.AssignedMember
	if member != nil {
		next = *member
	}

	// Optimistic update: guard resyncs, then commit locally before the
	// network call resolves.
	e.generation++
	e.suppressUntil = e.now().Add(e.settleWindow)

	members := e.table[slotIndex]
	for len(members) <= position {
		members = append(members, model.AssignedMember{})
	}
	members[position] = next
	e.table[slotIndex] = members

	roleID, ok := e.roleID(ctx, r)
	if !ok {
		return nil // resolution miss: decline to call the resource service
	}

	if next.Handle != "" {
		e.call(ctx, "create", roleID, r, next.Handle)
	}
	if previous.Handle != "" && previous.Handle != next.Handle {
		e.call(ctx, "delete", roleID, r, previous.Handle)
	}
	return nil
}

// ToggleOpenOpportunity switches a slot between directly staffed and
// openly competed. Opening deletes every existing role assignment for
// the slot and clears its local list; an openly competed slot must
// start with no pre-assigned members. Closing performs no automatic
// action.
func (e *Engine) ToggleOpenOpportunity(ctx context.Context, index int, makingOpen bool) (BatchReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 0 || index >= len(e.slots) {
		return nil, ErrSlotIndex
	}

	e.slots[index].ShouldOpenOpportunity = makingOpen
	e.generation++
	if !makingOpen {
		return nil, nil
	}

	r := e.roleForSlot(index)
	var report BatchReport
	if roleID, ok := e.roleID(ctx, r); ok {
		for _, m := range e.table[index] {
			if m.Handle == "" {
				continue
			}
			report = append(report, e.call(ctx, "delete", roleID, r, m.Handle))
		}
	}
	delete(e.table, index)
	return report, nil
}

// EstimateCost computes the estimated review budget for the current
// slot configuration.
func (e *Engine) EstimateCost(submissionCount int) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cost.Estimate(e.slots, cost.FirstPlacePrize(e.challenge), submissionCount)
}

// MissingReviewPhases reports configured review phases still lacking a
// scored reviewer slot.
func (e *Engine) MissingReviewPhases() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return phase.MissingReviewPhases(e.challenge, e.slots)
}

// migrateOnPhaseChange moves the slot's assigned members from the old
// role to the role implied by newPhaseID: per member, delete then
// create, sequentially, continuing past individual failures. Equal
// roles make the whole migration a no-op.
func (e *Engine) migrateOnPhaseChange(ctx context.Context, index int, newPhaseID string) BatchReport {
	slot := e.slots[index]
	oldRole := e.roleForPhaseID(slot.PhaseID, slot.Kind == model.AIReview)
	newRole := e.roleForPhaseID(newPhaseID, slot.Kind == model.AIReview)
	if oldRole == newRole {
		return nil
	}

	oldID, okOld := e.roleID(ctx, oldRole)
	newID, okNew := e.roleID(ctx, newRole)
	if !okOld || !okNew {
		return nil
	}

	var report BatchReport
	for _, m := range e.table[index] {
		if m.Handle == "" {
			continue
		}
		del := e.call(ctx, "delete", oldID, oldRole, m.Handle)
		cre := e.call(ctx, "create", newID, newRole, m.Handle)
		report = append(report, del, cre)
		e.metrics.RecordMigration(del.Err != nil || cre.Err != nil)
	}
	return report
}

// reconcileHeadcount shrinks the slot's assignment list to newCount,
// deleting the displaced members' role assignments. Growing issues no
// resource calls; new positions stay empty until filled.
func (e *Engine) reconcileHeadcount(ctx context.Context, index, newCount int) BatchReport {
	members := e.table[index]
	if len(members) <= newCount {
		return nil
	}

	r := e.roleForSlot(index)
	var report BatchReport
	if roleID, ok := e.roleID(ctx, r); ok {
		for _, m := range members[newCount:] {
			if m.Handle == "" {
				continue
			}
			report = append(report, e.call(ctx, "delete", roleID, r, m.Handle))
		}
	}
	e.table[index] = members[:newCount]
	return report
}

// seedPaymentFromTemplate copies payment parameters from a default
// reviewer template matching the new phase, when one exists.
func (e *Engine) seedPaymentFromTemplate(ctx context.Context, index int, phaseID string) {
	tpl, err := e.templates.FindDefaultReviewer(ctx, e.challenge.TrackID, e.challenge.TypeID, phaseID)
	if err != nil || tpl == nil {
		return
	}
	e.slots[index].FixedAmount = tpl.FixedAmount
	e.slots[index].BaseCoefficient = tpl.BaseCoefficient
	e.slots[index].IncrementalCoefficient = tpl.IncrementalCoefficient
}

// workflowScorecard derives a slot's scorecard from its AI workflow, or
// clears it when the workflow cannot be resolved.
func (e *Engine) workflowScorecard(ctx context.Context, workflowID string) string {
	if workflowID == "" {
		return ""
	}
	wf, err := e.workflows.LookupWorkflow(ctx, workflowID)
	if err != nil || wf == nil {
		return ""
	}
	return wf.ScorecardID
}

// defaultPhaseID prefers the first phase whose name contains "review",
// falling back to the first configured phase.
func (e *Engine) defaultPhaseID() string {
	for _, p := range e.challenge.Phases {
		if strings.Contains(strings.ToLower(p.Name), "review") {
			return p.ID
		}
	}
	if len(e.challenge.Phases) > 0 {
		return e.challenge.Phases[0].ID
	}
	return ""
}

func (e *Engine) roleForSlot(index int) role.Role {
	slot := e.slots[index]
	return e.roleForPhaseID(slot.PhaseID, slot.Kind == model.AIReview)
}

func (e *Engine) roleForPhaseID(phaseID string, isAI bool) role.Role {
	p, ok := e.challenge.PhaseByID(phaseID)
	if !ok {
		return role.Resolve("", isAI)
	}
	return role.Resolve(p.Name, isAI)
}

// roleID resolves a role to its resource system id. A directory miss
// is a silent decline, not an error.
func (e *Engine) roleID(ctx context.Context, r role.Role) (string, bool) {
	id, err := e.roles.LookupRoleID(ctx, r.Name())
	if err != nil || id == "" {
		e.metrics.RecordResourceCall("lookup_role", "miss", 0)
		e.log.Warn(ctx, "role id not found; skipping resource call",
			logger.String("role", r.Name()),
			logger.String("challengeId", e.challenge.ID),
		)
		return "", false
	}
	return id, true
}

// call issues one best-effort create or delete against the resource
// service and records the outcome.
func (e *Engine) call(ctx context.Context, op, roleID string, r role.Role, handle string) OpResult {
	start := e.now()
	var err error
	switch op {
	case "create":
		err = e.resources.CreateAssignment(ctx, e.challenge.ID, roleID, handle)
	case "delete":
		err = e.resources.DeleteAssignment(ctx, e.challenge.ID, roleID, handle)
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		e.log.Warn(ctx, "resource call failed",
			logger.String("op", op),
			logger.String("role", r.Name()),
			logger.String("handle", handle),
			logger.String("challengeId", e.challenge.ID),
			logger.Error(err),
		)
	}
	e.metrics.RecordResourceCall(op, outcome, e.now().Sub(start))
	return OpResult{Op: op, Role: r, Handle: handle, Err: err}
}

func coerceCount(value interface{}) (int, error) {
	n, err := coerceFloat(value)
	if err != nil {
		return 0, err
	}
	count := int(n)
	if count < 1 {
		count = 1
	}
	return count, nil
}

func coerceFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, ErrInvalidValue
		}
		return f, nil
	default:
		return 0, ErrInvalidValue
	}
}
