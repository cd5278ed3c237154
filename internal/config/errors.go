package config

import "errors"

// Sentinel kinds for the service configuration surface. ErrLoadConfig
// wraps failures reading the WM_CONFIG file or the WM_* environment;
// ErrInvalidConfig wraps validation failures on the loaded values.
// Callers branch with errors.Is.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
