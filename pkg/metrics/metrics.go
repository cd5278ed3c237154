// Package metrics provides Prometheus metrics for the reviewer
// assignment service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Manager owns every metric and the registry they live in.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         *prometheus.Registry

	// Reconciliation metrics.
	resourceCalls        *prometheus.CounterVec
	resourceCallDuration *prometheus.HistogramVec
	migrationsTotal      prometheus.Counter
	migrationFailures    prometheus.Counter
	resyncsApplied       prometheus.Counter
	resyncsDiscarded     *prometheus.CounterVec

	// Session bookkeeping.
	activeSessions prometheus.Gauge

	// HTTP metrics.
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager builds a Manager with its own registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "work_manager",
		subsystem:        "reviewers",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	factory := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      name,
			Help:      help,
		}
	}

	m.resourceCalls = prometheus.NewCounterVec(
		factory("resource_calls_total", "Resource service calls by operation and outcome."),
		[]string{"operation", "outcome"},
	)
	m.resourceCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "resource_call_duration_ms",
			Help:      "Resource service call latency in milliseconds.",
			Buckets:   m.histogramBuckets,
		},
		[]string{"operation"},
	)
	m.migrationsTotal = prometheus.NewCounter(
		factory("assignment_migrations_total", "Members migrated between roles on phase change."))
	m.migrationFailures = prometheus.NewCounter(
		factory("assignment_migration_failures_total", "Per-member migration failures (best effort, not retried)."))
	m.resyncsApplied = prometheus.NewCounter(
		factory("resyncs_applied_total", "Externally driven table re-derivations applied."))
	m.resyncsDiscarded = prometheus.NewCounterVec(
		factory("resyncs_discarded_total", "Re-derivations dropped, by reason."),
		[]string{"reason"},
	)
	m.activeSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_sessions",
		Help:      "Open challenge edit sessions.",
	})
	m.httpRequests = prometheus.NewCounterVec(
		factory("http_requests_total", "HTTP requests by endpoint, method and status."),
		[]string{"endpoint", "method", "status"},
	)
	m.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method"},
	)

	m.registry.MustRegister(
		m.resourceCalls,
		m.resourceCallDuration,
		m.migrationsTotal,
		m.migrationFailures,
		m.resyncsApplied,
		m.resyncsDiscarded,
		m.activeSessions,
		m.httpRequests,
		m.httpRequestDuration,
	)
	return m
}

// Registry exposes the manager's registry for serving.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// RecordResourceCall counts one resource service call.
func (m *Manager) RecordResourceCall(operation, outcome string, took time.Duration) {
	if !m.enabled {
		return
	}
	m.resourceCalls.WithLabelValues(operation, outcome).Inc()
	m.resourceCallDuration.WithLabelValues(operation).Observe(float64(took.Milliseconds()))
}

// RecordMigration counts one migrated member, failed or not.
func (m *Manager) RecordMigration(failed bool) {
	if !m.enabled {
		return
	}
	m.migrationsTotal.Inc()
	if failed {
		m.migrationFailures.Inc()
	}
}

// RecordResyncApplied counts an applied table re-derivation.
func (m *Manager) RecordResyncApplied() {
	if m.enabled {
		m.resyncsApplied.Inc()
	}
}

// RecordResyncDiscarded counts a dropped re-derivation with its reason
// (settle_window, stale_generation, unchanged).
func (m *Manager) RecordResyncDiscarded(reason string) {
	if m.enabled {
		m.resyncsDiscarded.WithLabelValues(reason).Inc()
	}
}

// SetActiveSessions updates the open session gauge.
func (m *Manager) SetActiveSessions(n int) {
	if m.enabled {
		m.activeSessions.Set(float64(n))
	}
}

// RecordHTTPRequest counts one HTTP request.
func (m *Manager) RecordHTTPRequest(endpoint, method, status string, took time.Duration) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, status).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method).Observe(float64(took.Milliseconds()))
}

var defaultManager = NewManager()

// Default returns the process-wide manager.
func Default() *Manager { return defaultManager }

// GetRegistry returns the default manager's registry.
func GetRegistry() *prometheus.Registry { return defaultManager.Registry() }

// Package-level helpers against the default manager.
func RecordResourceCall(operation, outcome string, took time.Duration) {
	defaultManager.RecordResourceCall(operation, outcome, took)
}
func RecordMigration(failed bool)              { defaultManager.RecordMigration(failed) }
func RecordResyncApplied()                     { defaultManager.RecordResyncApplied() }
func RecordResyncDiscarded(reason string)      { defaultManager.RecordResyncDiscarded(reason) }
func SetActiveSessions(n int)                  { defaultManager.SetActiveSessions(n) }
func RecordHTTPRequest(endpoint, method, status string, took time.Duration) {
	defaultManager.RecordHTTPRequest(endpoint, method, status, took)
}
