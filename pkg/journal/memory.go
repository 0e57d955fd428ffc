package journal

import (
	"context"
	"sync"
	"time"

	"pagewell-hq/courier/pkg/fetch"
)

// MemoryStore keeps journal records in process memory. Used in tests
// and in deployments that only need the Prometheus view.
type MemoryStore struct {
	records []*Record
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty in-memory journal backend.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append persists one record.
func (s *MemoryStore) Append(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *record
	s.records = append(s.records, &cp)
	return nil
}

// ProviderStats aggregates attempt outcomes per provider.
func (s *MemoryStore) ProviderStats(_ context.Context, since time.Time) ([]ProviderStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byProvider := make(map[string]*ProviderStats)
	for _, record := range s.records {
		if record.RecordedAt.Before(since) {
			continue
		}
		for _, attempt := range record.Attempts {
			stats, ok := byProvider[attempt.Provider]
			if !ok {
				stats = &ProviderStats{Provider: attempt.Provider}
				byProvider[attempt.Provider] = stats
			}
			stats.Attempts++
			switch attempt.Outcome {
			case fetch.AttemptSuccess:
				stats.Successes++
			case fetch.AttemptRateLimited:
				stats.RateLimited++
			}
		}
	}

	out := make([]ProviderStats, 0, len(byProvider))
	for _, stats := range byProvider {
		out = append(out, *stats)
	}
	return out, nil
}

// Summarize aggregates whole-request outcomes.
func (s *MemoryStore) Summarize(_ context.Context, since time.Time) (*Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := &Summary{}
	for _, record := range s.records {
		if record.RecordedAt.Before(since) {
			continue
		}
		summary.Requests++
		if record.Outcome == fetch.OutcomeSuccess {
			summary.Successes++
		}
		if record.FromCache {
			summary.CacheHits++
		}
		if fallbackCount(record.Attempts) > 0 {
			summary.Fallbacks++
		}
		summary.CostUnits += record.CostUnits
	}
	return summary, nil
}

// Prune deletes records recorded before the cutoff.
func (s *MemoryStore) Prune(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var removed int64
	for _, record := range s.records {
		if record.RecordedAt.Before(before) {
			removed++
			continue
		}
		kept = append(kept, record)
	}
	s.records = kept
	return removed, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close is a no-op for the memory backend.
func (s *MemoryStore) Close() error {
	return nil
}

// fallbackCount counts distinct providers beyond the first.
func fallbackCount(attempts []fetch.Attempt) int {
	seen := make(map[string]struct{})
	for _, a := range attempts {
		seen[a.Provider] = struct{}{}
	}
	if len(seen) <= 1 {
		return 0
	}
	return len(seen) - 1
}
