package fetch

import (
	"time"

	"github.com/google/uuid"
)

// ContentClass is a coarse category of fetch target. It selects the cache
// TTL and participates in routing rule matching.
type ContentClass string

// Known content classes. The set is open: configuration may introduce
// additional classes, which fall back to the default TTL.
const (
	ClassSocialProfile  ContentClass = "social-profile"
	ClassSocialTimeline ContentClass = "social-timeline"
	ClassArticle        ContentClass = "article"
	ClassGenericPage    ContentClass = "generic-page"
)

// Capability is a boolean requirement a request may impose on providers.
// A provider lacking any required capability is never eligible for the
// request.
type Capability string

// Capability flags understood by the built-in adapters.
const (
	CapJavaScriptRender Capability = "javascript-render"
	CapGeoTargeting     Capability = "geo-targeting"
	CapSessionAffinity  Capability = "session-affinity"
	CapStructuredData   Capability = "structured-data"
)

// Request is an immutable description of one logical fetch. It is created
// once per fetch and never mutated; the engine copies whatever it needs.
type Request struct {
	// ID uniquely identifies this request. Assigned by NewRequest.
	ID string

	// Target is the URL or logical resource key to fetch.
	Target string

	// Class is the content class of the target.
	Class ContentClass

	// Capabilities lists the capability flags every serving provider
	// must declare. Empty means any provider is eligible.
	Capabilities []Capability

	// Timeout is the overall deadline for the whole request, enforced
	// across cache check, routing, and every provider attempt combined.
	// Zero means the engine default applies.
	Timeout time.Duration

	// BypassCache skips the cache read (the result is still written
	// back on success).
	BypassCache bool

	// GeoCountry is an optional ISO country code hint passed to
	// adapters that support geo targeting.
	GeoCountry string
}

// NewRequest creates a Request with a generated ID.
func NewRequest(target string, class ContentClass) *Request {
	return &Request{
		ID:     uuid.NewString(),
		Target: target,
		Class:  class,
	}
}

// Requires reports whether the request demands the given capability.
func (r *Request) Requires(c Capability) bool {
	for _, have := range r.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// AttemptOutcome classifies a single provider invocation.
type AttemptOutcome string

const (
	// AttemptSuccess means the provider returned a usable payload.
	AttemptSuccess AttemptOutcome = "success"

	// AttemptTransient means the provider failed in a way that is safe
	// to retry against the same provider (network error, 5xx).
	AttemptTransient AttemptOutcome = "transient-error"

	// AttemptRateLimited means the provider (or its local token bucket)
	// refused the call; the same provider must not be retried
	// immediately.
	AttemptRateLimited AttemptOutcome = "rate-limited"

	// AttemptPermanent means the target is genuinely unreachable or
	// blocked through this provider; fall back but do not retry.
	AttemptPermanent AttemptOutcome = "permanent-error"

	// AttemptCapabilityMismatch should never occur after routing
	// filtered correctly; it indicates a configuration bug and is
	// logged at warning severity.
	AttemptCapabilityMismatch AttemptOutcome = "capability-mismatch"

	// AttemptAbandoned means the overall request deadline or a caller
	// cancellation cut the invocation off while in flight.
	AttemptAbandoned AttemptOutcome = "abandoned"
)

// Attempt records one provider invocation, successful or not.
type Attempt struct {
	// Provider is the identifier of the invoked provider.
	Provider string

	// StartedAt and EndedAt bound the invocation.
	StartedAt time.Time
	EndedAt   time.Time

	// Outcome classifies how the invocation ended.
	Outcome AttemptOutcome

	// Err holds the raw error detail for failed attempts, empty on
	// success.
	Err string
}

// Duration returns the wall time the attempt took.
func (a *Attempt) Duration() time.Duration {
	return a.EndedAt.Sub(a.StartedAt)
}

// Outcome is the terminal state of a whole request.
type Outcome string

const (
	// OutcomeSuccess means a provider (or the cache) produced a payload.
	OutcomeSuccess Outcome = "success"

	// OutcomeCapabilityMismatch means no configured provider satisfied
	// the request's required capabilities; nothing was attempted.
	OutcomeCapabilityMismatch Outcome = "capability-mismatch"

	// OutcomeExhausted means every eligible provider was tried and
	// failed.
	OutcomeExhausted Outcome = "exhausted"

	// OutcomeTimeout means the overall request deadline elapsed before
	// any provider succeeded.
	OutcomeTimeout Outcome = "timeout"

	// OutcomeCancelled means the caller cancelled the request.
	OutcomeCancelled Outcome = "cancelled"
)

// Payload is the fetched content plus provider-reported metadata.
type Payload struct {
	// Body is the raw fetched content.
	Body []byte

	// ContentType is the MIME type reported by the provider, if any.
	ContentType string

	// StatusCode is the upstream HTTP status observed by the provider,
	// zero when not applicable (e.g. dataset retrieval).
	StatusCode int
}

// Result aggregates the full history of one request: every attempt in
// start order plus, on success, the payload and winning provider.
type Result struct {
	// RequestID echoes the originating request's ID.
	RequestID string

	// Target and Class echo the originating request.
	Target string
	Class  ContentClass

	// Outcome is the terminal state of the request.
	Outcome Outcome

	// Payload is non-nil only when Outcome is OutcomeSuccess.
	Payload *Payload

	// Provider is the winning provider id, empty when the result came
	// from the cache or the request failed.
	Provider string

	// FromCache is true when the payload was served from the cache
	// layer without any provider invocation.
	FromCache bool

	// Attempts is the ordered invocation history. Cache hits have an
	// empty history.
	Attempts []Attempt

	// StartedAt and EndedAt bound the whole request.
	StartedAt time.Time
	EndedAt   time.Time

	// CostUnits is the sum of the relative cost units of every provider
	// invocation performed, successful or not.
	CostUnits float64
}

// Duration returns the total wall time of the request.
func (r *Result) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// Fallbacks returns how many providers were abandoned before the winning
// one, i.e. the number of distinct providers tried minus one, floored at
// zero.
func (r *Result) Fallbacks() int {
	seen := make(map[string]struct{})
	for _, a := range r.Attempts {
		seen[a.Provider] = struct{}{}
	}
	if len(seen) <= 1 {
		return 0
	}
	return len(seen) - 1
}
