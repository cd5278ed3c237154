package engine

import "errors"

// Sentinel kinds for engine validation errors. Reconciliation failures
// against the resource system are never returned as errors; they land
// in the batch report instead.
var (
	ErrSlotIndex    = errors.New("slot index out of range")
	ErrSlotOpen     = errors.New("slot is openly competed")
	ErrInvalidValue = errors.New("invalid field value")
	ErrUnknownField = errors.New("unknown slot field")
	ErrNoChallenge  = errors.New("challenge identity missing")
)
