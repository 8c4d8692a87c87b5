package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure, with no infrastructure dependency. Only irrecoverable
// failures live here; business rejections travel as Result values.

var (
	// Persistence errors
	ErrPersistence  = errors.New("persistence failure")
	ErrCorruptState = errors.New("persisted state failed to decode")
)
