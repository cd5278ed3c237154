package resource

import "errors"

// Sentinel kinds for resource API errors.
var (
	ErrRoleNotFound = errors.New("resource role not found")
)
