package journal

import (
	"time"

	"github.com/google/uuid"

	"pagewell-hq/courier/pkg/fetch"
)

// Record is one append-only row per completed fetch request. It is
// written once when the request reaches a terminal state and never
// mutated afterwards.
type Record struct {
	// ID is the journal row identifier.
	ID string

	// RequestID echoes the originating request's ID.
	RequestID string

	// Target and Class echo the originating request.
	Target string
	Class  fetch.ContentClass

	// Outcome is the request's terminal state.
	Outcome fetch.Outcome

	// Provider is the winning provider, empty on failure or cache hit.
	Provider string

	// FromCache is true when the payload came from the cache layer.
	FromCache bool

	// Attempts is the ordered invocation history.
	Attempts []fetch.Attempt

	// TotalLatency is the wall time of the whole request.
	TotalLatency time.Duration

	// CostUnits is the estimated cost consumed across all attempts.
	CostUnits float64

	// StartedAt is when the request began; RecordedAt when the row was
	// written.
	StartedAt  time.Time
	RecordedAt time.Time
}

// NewRecord builds a Record from a completed fetch result.
func NewRecord(result *fetch.Result) *Record {
	return &Record{
		ID:           uuid.NewString(),
		RequestID:    result.RequestID,
		Target:       result.Target,
		Class:        result.Class,
		Outcome:      result.Outcome,
		Provider:     result.Provider,
		FromCache:    result.FromCache,
		Attempts:     result.Attempts,
		TotalLatency: result.Duration(),
		CostUnits:    result.CostUnits,
		StartedAt:    result.StartedAt,
		RecordedAt:   time.Now(),
	}
}

// ProviderStats is a read-only projection: one provider's attempt
// outcomes over a time window.
type ProviderStats struct {
	// Provider is the provider identifier.
	Provider string

	// Attempts is the total number of invocations.
	Attempts int64

	// Successes is the number of invocations that returned a payload.
	Successes int64

	// RateLimited counts refused invocations (local or upstream).
	RateLimited int64
}

// SuccessRate returns Successes/Attempts, or 0 with no attempts.
func (s ProviderStats) SuccessRate() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Attempts)
}

// Summary is a read-only projection over whole requests.
type Summary struct {
	// Requests is the number of recorded requests in the window.
	Requests int64

	// Successes counts requests with outcome success.
	Successes int64

	// CacheHits counts requests served from the cache.
	CacheHits int64

	// Fallbacks counts requests that needed more than one provider.
	Fallbacks int64

	// CostUnits is the total estimated cost consumed.
	CostUnits float64
}
