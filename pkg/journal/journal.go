package journal

import (
	"context"
	"log/slog"
	"time"

	"pagewell-hq/courier/pkg/fetch"
)

// Store is the journal backend contract. Append is the only write;
// everything else reads.
type Store interface {
	// Append persists one record.
	Append(ctx context.Context, record *Record) error

	// ProviderStats aggregates attempt outcomes per provider for
	// records recorded at or after since.
	ProviderStats(ctx context.Context, since time.Time) ([]ProviderStats, error)

	// Summarize aggregates whole-request outcomes for records recorded
	// at or after since.
	Summarize(ctx context.Context, since time.Time) (*Summary, error)

	// Prune deletes records recorded before the cutoff and returns how
	// many were removed. This is the retention path, not part of the
	// write path's responsibility.
	Prune(ctx context.Context, before time.Time) (int64, error)

	// Close releases backend resources.
	Close() error
}

// Recorder writes one journal record per completed fetch request.
// Recording failures are logged, never propagated: a journal outage must
// not fail fetches.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

// NewRecorder creates a recorder over the given store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{
		store:  store,
		logger: slog.Default().With("component", "journal"),
	}
}

// Record appends the result's history to the journal.
func (r *Recorder) Record(ctx context.Context, result *fetch.Result) {
	record := NewRecord(result)
	if err := r.store.Append(ctx, record); err != nil {
		r.logger.Error("failed to append journal record",
			"request_id", result.RequestID,
			"outcome", result.Outcome,
			"error", err,
		)
		return
	}

	r.logger.Debug("journal record appended",
		"request_id", result.RequestID,
		"outcome", result.Outcome,
		"attempts", len(result.Attempts),
	)
}
