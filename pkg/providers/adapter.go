package providers

import (
	"context"

	"pagewell-hq/courier/pkg/fetch"
)

// Adapter is the uniform contract every external provider is wrapped in.
//
// Fetch performs one provider invocation for the request and either
// returns the payload or a classified error (see errors.go and
// Classify). Implementations must respect context cancellation and
// return promptly when the context is done; the engine derives the
// context deadline from the request's overall timeout.
//
// Implementations meter every invocation against the provider's declared
// rate limit before calling out: when the local token bucket is empty
// the adapter returns *RateLimitError with Local set, without performing
// the call.
type Adapter interface {
	// Fetch performs one invocation and returns the payload or a
	// classified error.
	Fetch(ctx context.Context, req *fetch.Request) (*fetch.Payload, error)

	// Name returns the provider identifier, matching Profile.Name.
	Name() string

	// Profile returns the provider's static descriptor.
	Profile() Profile

	// Health returns a snapshot of the adapter's health tracking.
	Health() Health

	// Close releases the adapter's resources (idle connections,
	// background pollers).
	Close() error
}
