package engine

import "errors"

// Request-level failures. Transient, rate-limited, and permanent
// provider errors are handled internally by retry and fallback; only
// these three (plus cancellation) surface to the caller, each carried
// alongside a Result holding the full attempt history.
var (
	// ErrCapabilityMismatch means no configured provider satisfied the
	// request's required capabilities; nothing was attempted.
	ErrCapabilityMismatch = errors.New("no provider satisfies the required capabilities")

	// ErrExhausted means every eligible provider was tried and failed.
	ErrExhausted = errors.New("all eligible providers failed")

	// ErrTimeout means the request's overall deadline elapsed.
	ErrTimeout = errors.New("fetch deadline exceeded")

	// ErrCancelled means the caller cancelled the request.
	ErrCancelled = errors.New("fetch cancelled")
)
