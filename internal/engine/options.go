package engine

import (
	"time"

	"github.com/topcoder-platform/work-manager-sub000/pkg/logger"
	"github.com/topcoder-platform/work-manager-sub000/pkg/metrics"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithSettleWindow overrides the delay during which externally driven
// re-derivation is suppressed after a user-initiated mutation.
func WithSettleWindow(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.settleWindow = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMetrics sets a custom metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}
