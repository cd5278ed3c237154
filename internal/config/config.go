// Package config defines service configuration structures and loading.
//
// Conventions:
// - Provide New() defaults and Load(ctx) layering defaults -> file -> env.
// - External errors are wrapped via this package's sentinel kinds.
package config

import "time"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ResourceAPIURL is the base URL of the resource API (role
	// assignments and role directory).
	ResourceAPIURL string `koanf:"resource_api_url"`

	// CatalogAPIURL is the base URL for default reviewer templates and
	// AI workflows.
	CatalogAPIURL string `koanf:"catalog_api_url"`

	// AuthToken is the bearer token sent to backend APIs.
	AuthToken string `koanf:"auth_token"`

	// SettleWindowMS suppresses background re-derivation for this long
	// after a user-initiated assignment change.
	SettleWindowMS int `koanf:"settle_window_ms"`

	// SubmissionCount is the assumed submission count used by cost
	// estimation.
	SubmissionCount int `koanf:"submission_count"`

	// MetricsEnabled toggles Prometheus metric recording.
	MetricsEnabled bool `koanf:"metrics_enabled"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":9080",
		ResourceAPIURL:  "http://localhost:8081/v5",
		CatalogAPIURL:   "http://localhost:8082/v5",
		SettleWindowMS:  1000,
		SubmissionCount: 2,
		MetricsEnabled:  true,
	}
}

// SettleWindow returns the settle window as a duration.
func (c *Config) SettleWindow() time.Duration {
	return time.Duration(c.SettleWindowMS) * time.Millisecond
}
