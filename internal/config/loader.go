package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if WM_CONFIG is set
//  3. env (prefix WM_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("WM_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Env keys like WM_SETTLE_WINDOW_MS map to settle_window_ms;
	// underscores are preserved to match the koanf tags.
	envProvider := env.Provider("WM_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "wm_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	switch {
	case cfg.Addr == "":
		return nil, fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case cfg.ResourceAPIURL == "":
		return nil, fmt.Errorf("%w: resource_api_url must not be empty", ErrInvalidConfig)
	case cfg.CatalogAPIURL == "":
		return nil, fmt.Errorf("%w: catalog_api_url must not be empty", ErrInvalidConfig)
	case cfg.SettleWindowMS < 0:
		return nil, fmt.Errorf("%w: settle_window_ms must not be negative", ErrInvalidConfig)
	case cfg.SubmissionCount < 0:
		return nil, fmt.Errorf("%w: submission_count must not be negative", ErrInvalidConfig)
	}
	return &cfg, nil
}
