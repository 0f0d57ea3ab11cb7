package domain

import "errors"

// Domain errors represent error conditions in the loadgate domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrGateClosed is returned when work is submitted to a gate that has
	// been stopped or is draining.
	ErrGateClosed = errors.New("loadgate: gate closed")

	// ErrResourceUnavailable is returned when a bounded wait for a slot
	// expires before the host frees up. Distinct from the task's own errors;
	// callers decide whether to retry.
	ErrResourceUnavailable = errors.New("loadgate: resources unavailable")

	// ErrAlreadyRunning is returned when Start() is called on a running gate.
	ErrAlreadyRunning = errors.New("loadgate: already running")

	// ErrNotRunning is returned when work is submitted before Start() or
	// when Stop() is called on a stopped gate.
	ErrNotRunning = errors.New("loadgate: not running")

	// ErrShutdownTimeout is returned when graceful drain times out.
	ErrShutdownTimeout = errors.New("loadgate: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("loadgate: invalid configuration")
)
