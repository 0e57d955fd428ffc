package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pagewell-hq/courier/pkg/fetch"
)

// TransientError represents a failure that is safe to retry against the
// same provider: network errors, upstream 5xx, poll timeouts.
type TransientError struct {
	// Provider is the name of the provider that failed.
	Provider string

	// Message describes the failure.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *TransientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider %q transient error: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("provider %q transient error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *TransientError) Unwrap() error {
	return e.Cause
}

// RateLimitError represents a refused call: either the provider returned
// HTTP 429 or the adapter's local token bucket had no token and the call
// was never made.
type RateLimitError struct {
	// Provider is the name of the rate-limited provider.
	Provider string

	// RetryAfter is the wait suggested by the provider or computed
	// from the local bucket refill rate (0 if unknown).
	RetryAfter time.Duration

	// Local is true when the adapter refused the call before sending
	// it, to avoid wasting quota on a call expected to fail.
	Local bool
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	origin := "provider"
	if e.Local {
		origin = "local bucket"
	}
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider %q rate limited by %s (retry after %s)", e.Provider, origin, e.RetryAfter)
	}
	return fmt.Sprintf("provider %q rate limited by %s", e.Provider, origin)
}

// PermanentError represents a target-level failure: the target is
// unreachable or blocked through this provider, or the provider rejected
// the credentials. Fall back, do not retry.
type PermanentError struct {
	// Provider is the name of the provider that failed.
	Provider string

	// StatusCode is the upstream HTTP status, 0 when not applicable.
	StatusCode int

	// Message describes the failure.
	Message string
}

// Error implements the error interface.
func (e *PermanentError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q permanent error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %q permanent error: %s", e.Provider, e.Message)
}

// CapabilityError means an adapter was invoked for a request it cannot
// serve. Routing filters by capability before invocation, so seeing this
// at runtime indicates a configuration bug.
type CapabilityError struct {
	// Provider is the name of the mismatched provider.
	Provider string

	// Missing is the capability the provider lacks.
	Missing fetch.Capability
}

// Error implements the error interface.
func (e *CapabilityError) Error() string {
	return fmt.Sprintf("provider %q lacks required capability %q", e.Provider, e.Missing)
}

// Classify maps an invocation error to the attempt outcome taxonomy.
// Context cancellation and deadline expiry classify as abandoned so the
// engine can distinguish them from provider-side failures.
func Classify(err error) fetch.AttemptOutcome {
	if err == nil {
		return fetch.AttemptSuccess
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fetch.AttemptAbandoned
	}
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return fetch.AttemptRateLimited
	}
	var pe *PermanentError
	if errors.As(err, &pe) {
		return fetch.AttemptPermanent
	}
	var ce *CapabilityError
	if errors.As(err, &ce) {
		return fetch.AttemptCapabilityMismatch
	}
	// Unknown errors are treated as transient: safest default given the
	// retry bound caps the damage.
	return fetch.AttemptTransient
}
