// Package repository keeps the open challenge edit sessions. Each
// session owns one reconciliation engine; the store hands the same
// engine back for the same challenge until the session closes.
package repository

import (
	"sync"

	"github.com/topcoder-platform/work-manager-sub000/internal/engine"
	"github.com/topcoder-platform/work-manager-sub000/pkg/metrics"
)

// SessionStore maps challenge ids to live engine sessions.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*engine.Engine
	metrics  *metrics.Manager
}

// Option applies a configuration option to the SessionStore.
type Option func(*SessionStore)

// WithMetrics sets a custom metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *SessionStore) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewSessionStore builds an empty store.
func NewSessionStore(opts ...Option) *SessionStore {
	s := &SessionStore{
		sessions: make(map[string]*engine.Engine),
		metrics:  metrics.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the session for a challenge, if one is open.
func (s *SessionStore) Get(challengeID string) (*engine.Engine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[challengeID]
	return e, ok
}

// GetOrCreate returns the open session for a challenge, building one
// via factory when absent. The factory runs at most once per challenge
// while the session stays open.
func (s *SessionStore) GetOrCreate(challengeID string, factory func() *engine.Engine) *engine.Engine {
	s.mu.RLock()
	e, ok := s.sessions[challengeID]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.sessions[challengeID]; ok {
		return e
	}
	e = factory()
	s.sessions[challengeID] = e
	s.metrics.SetActiveSessions(len(s.sessions))
	return e
}

// Close drops a challenge's session. Closing an absent session is a
// no-op.
func (s *SessionStore) Close(challengeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, challengeID)
	s.metrics.SetActiveSessions(len(s.sessions))
}

// Len returns the number of open sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
