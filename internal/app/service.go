// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/topcoder-platform/work-manager-sub000/internal/adapters/catalog"
	"github.com/topcoder-platform/work-manager-sub000/internal/adapters/repository"
	"github.com/topcoder-platform/work-manager-sub000/internal/adapters/resource"
	"github.com/topcoder-platform/work-manager-sub000/internal/domain/distribute"
	"github.com/topcoder-platform/work-manager-sub000/internal/domain/model"
	"github.com/topcoder-platform/work-manager-sub000/internal/engine"
	"github.com/topcoder-platform/work-manager-sub000/pkg/logger"
	"github.com/topcoder-platform/work-manager-sub000/pkg/metrics"
)

// ErrSessionNotFound indicates no edit session is open for a challenge.
var ErrSessionNotFound = repository.ErrSessionNotFound

// Service owns the session store and the shared backend clients, and
// exposes the reviewer slot operations to the HTTP layer.
type Service struct {
	mu sync.Mutex

	sessions *repository.SessionStore

	// Collaborators shared by every session.
	resources engine.ResourceService
	roles     engine.RoleDirectory
	templates engine.TemplateStore
	workflows engine.WorkflowDirectory
	lister    AssignmentLister

	// Configuration.
	resourceAPIURL  string
	catalogAPIURL   string
	authToken       string
	settleWindow    time.Duration
	submissionCount int

	started bool
	logger  logger.Logger
	metrics *metrics.Manager
}

// AssignmentLister fetches the current external role assignments for a
// challenge; used to drive resyncs.
type AssignmentLister interface {
	ListAssignments(ctx context.Context, challengeID string) ([]model.RoleAssignment, error)
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		settleWindow:    engine.DefaultSettleWindow,
		submissionCount: 2,
		metrics:         metrics.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the backend clients and the session store.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.sessions = repository.NewSessionStore(repository.WithMetrics(s.metrics))

	// Injected collaborators (tests) win over HTTP clients.
	if s.resources == nil || s.roles == nil || s.lister == nil {
		rc := resource.NewClient(s.resourceAPIURL,
			resource.WithToken(s.authToken),
			resource.WithLogger(s.logger.Named("resource")),
		)
		if s.resources == nil {
			s.resources = rc
		}
		if s.roles == nil {
			s.roles = rc
		}
		if s.lister == nil {
			s.lister = rc
		}
	}
	if s.templates == nil || s.workflows == nil {
		cc := catalog.NewClient(s.catalogAPIURL,
			catalog.WithToken(s.authToken),
			catalog.WithLogger(s.logger.Named("catalog")),
		)
		if s.templates == nil {
			s.templates = cc
		}
		if s.workflows == nil {
			s.workflows = cc
		}
	}

	s.started = true
	s.logger.Info(ctx, "reviewer service started",
		logger.String("resourceApi", s.resourceAPIURL),
		logger.String("catalogApi", s.catalogAPIURL),
		logger.Int64("settleWindowMs", s.settleWindow.Milliseconds()),
	)
	return nil
}

// Stop shuts the service down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "reviewer service stopped")
}

// OpenSession opens (or replaces) the edit session for a challenge.
// The slot list seeds the session; the engine owns the assignment
// table from here on. An immediate resync primes the table from the
// resource system.
func (s *Service) OpenSession(ctx context.Context, challenge model.Challenge, slots []model.ReviewerSlot) {
	eng := engine.New(challenge, slots,
		s.resources, s.roles, s.templates, s.workflows,
		engine.WithSettleWindow(s.settleWindow),
		engine.WithLogger(s.logger.Named("engine")),
		engine.WithMetrics(s.metrics),
	)
	s.sessions.Close(challenge.ID)
	s.sessions.GetOrCreate(challenge.ID, func() *engine.Engine { return eng })
	s.Resync(ctx, challenge.ID)
}

// CloseSession drops a challenge's session.
func (s *Service) CloseSession(challengeID string) {
	s.sessions.Close(challengeID)
}

// Resync fetches external assignments and re-derives the session's
// table. Fetch failures leave the current table untouched.
func (s *Service) Resync(ctx context.Context, challengeID string) {
	eng, ok := s.sessions.Get(challengeID)
	if !ok {
		return
	}
	observed := eng.Generation()
	assignments, err := s.lister.ListAssignments(ctx, challengeID)
	if err != nil {
		s.logger.Warn(ctx, "assignment fetch failed; keeping current table",
			logger.String("challengeId", challengeID), logger.Error(err))
		return
	}
	eng.Resync(ctx, assignments, observed)
}

// AddSlot appends a reviewer slot to the session.
func (s *Service) AddSlot(ctx context.Context, challengeID string) (int, error) {
	eng, ok := s.sessions.Get(challengeID)
	if !ok {
		return 0, ErrSessionNotFound
	}
	return eng.AddSlot(ctx)
}

// RemoveSlot deletes the slot at index.
func (s *Service) RemoveSlot(ctx context.Context, challengeID string, index int) error {
	eng, ok := s.sessions.Get(challengeID)
	if !ok {
		return ErrSessionNotFound
	}
	return eng.RemoveSlot(index)
}

// UpdateSlot updates one slot field.
func (s *Service) UpdateSlot(ctx context.Context, challengeID string, index int, field engine.SlotField, value interface{}) (engine.BatchReport, error) {
	eng, ok := s.sessions.Get(challengeID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return eng.UpdateSlot(ctx, index, field, value)
}

// AssignMember places or clears a member at a slot position.
func (s *Service) AssignMember(ctx context.Context, challengeID string, slotIndex, position int, member *model.AssignedMember) error {
	eng, ok := s.sessions.Get(challengeID)
	if !ok {
		return ErrSessionNotFound
	}
	return eng.AssignMember(ctx, slotIndex, position, member)
}

// ToggleOpenOpportunity flips a slot's open-competition mode.
func (s *Service) ToggleOpenOpportunity(ctx context.Context, challengeID string, index int, makingOpen bool) (engine.BatchReport, error) {
	eng, ok := s.sessions.Get(challengeID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return eng.ToggleOpenOpportunity(ctx, index, makingOpen)
}

// Snapshot returns the session's slot list and assignment table.
func (s *Service) Snapshot(ctx context.Context, challengeID string) ([]model.ReviewerSlot, distribute.Table, error) {
	eng, ok := s.sessions.Get(challengeID)
	if !ok {
		return nil, nil, ErrSessionNotFound
	}
	slots, table := eng.Snapshot()
	return slots, table, nil
}

// EstimateCost computes the session's estimated review budget.
func (s *Service) EstimateCost(ctx context.Context, challengeID string) (float64, error) {
	eng, ok := s.sessions.Get(challengeID)
	if !ok {
		return 0, ErrSessionNotFound
	}
	return eng.EstimateCost(s.submissionCount), nil
}

// MissingReviewPhases reports configured review phases without a
// scored reviewer slot.
func (s *Service) MissingReviewPhases(ctx context.Context, challengeID string) ([]string, error) {
	eng, ok := s.sessions.Get(challengeID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return eng.MissingReviewPhases(), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := map[string]interface{}{
		"started":         s.started,
		"settleWindowMs":  s.settleWindow.Milliseconds(),
		"submissionCount": s.submissionCount,
	}
	if s.sessions != nil {
		stats["openSessions"] = s.sessions.Len()
	}
	return stats
}
