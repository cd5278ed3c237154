package engine

import (
	"github.com/topcoder-platform/work-manager-sub000/internal/domain/role"
)

// OpResult records the outcome of one external create or delete issued
// during a reconciliation loop. Failures are collected, not propagated;
// one member's failure must not block the rest of the batch.
type OpResult struct {
	Op     string // "create" or "delete"
	Role   role.Role
	Handle string
	Err    error
}

// OK reports whether the call succeeded.
func (r OpResult) OK() bool { return r.Err == nil }

// BatchReport aggregates per-item results of a migration, headcount or
// purge loop.
type BatchReport []OpResult

// Failed returns only the results that carry an error.
func (b BatchReport) Failed() BatchReport {
	var out BatchReport
	for _, r := range b {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
