package providers

import (
	"time"

	"pagewell-hq/courier/pkg/fetch"
)

// Profile is the static descriptor of one provider: what it can do, what
// it costs, and how fast it may be called. Profiles are loaded from
// configuration at startup and treated as immutable for the lifetime of
// the adapter; a config reload builds new adapters rather than mutating
// profiles in place.
type Profile struct {
	// Name is the provider identifier referenced by routing rules
	// (e.g. "actorrun", "unlocker", "resproxy").
	Name string

	// Capabilities lists the capability flags this provider declares.
	Capabilities []fetch.Capability

	// CostUnits is the relative cost of one invocation, used for
	// metering and journal records. Unitless; only ratios between
	// providers matter.
	CostUnits float64

	// RateLimit is the declared request budget: Burst requests
	// immediately, refilling at PerSecond.
	RateLimit RateLimit

	// Weight is the priority used for tie-breaking between providers
	// matched by the same routing rule. Higher wins.
	Weight int
}

// RateLimit declares a provider's request budget as a token bucket.
type RateLimit struct {
	// Burst is the bucket capacity (maximum requests back to back).
	Burst int64

	// PerSecond is the sustained refill rate in requests per second.
	PerSecond float64
}

// HasCapability reports whether the profile declares the capability.
func (p *Profile) HasCapability(c fetch.Capability) bool {
	for _, have := range p.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// Satisfies reports whether the profile declares every capability the
// request requires.
func (p *Profile) Satisfies(req *fetch.Request) bool {
	for _, c := range req.Capabilities {
		if !p.HasCapability(c) {
			return false
		}
	}
	return true
}

// Config carries the per-provider settings an adapter needs at
// construction time. Credentials are read from here once and never
// logged.
type Config struct {
	// Name is the provider identifier, matching Profile.Name.
	Name string

	// BaseURL is the provider's API endpoint base URL.
	BaseURL string

	// Token is the provider credential. Adapters fail closed when it
	// is empty rather than attempting an unauthenticated call.
	Token string

	// Timeout caps a single invocation. The engine further caps every
	// invocation by the request's overall deadline.
	Timeout time.Duration

	// PollInterval is how often async adapters poll for job
	// completion. Ignored by synchronous adapters.
	PollInterval time.Duration

	// MaxIdleConns and IdleConnTimeout tune the shared HTTP transport.
	MaxIdleConns    int
	IdleConnTimeout time.Duration
}

// Health is a snapshot of an adapter's request-level health tracking.
type Health struct {
	// Healthy is false after ConsecutiveFailures reaches the circuit
	// threshold.
	Healthy bool

	// ConsecutiveFailures counts sequential failed invocations.
	ConsecutiveFailures int

	// LastError is the most recent invocation error, nil when healthy.
	LastError error

	// LastSuccess is the time of the last successful invocation.
	LastSuccess time.Time

	// TotalRequests and FailedRequests count invocations over the
	// adapter's lifetime.
	TotalRequests  int64
	FailedRequests int64
}
