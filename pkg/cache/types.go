package cache

import (
	"context"
	"time"

	"pagewell-hq/courier/pkg/fetch"
)

// Entry is one cached payload keyed by (target, content class).
type Entry struct {
	// Target and Class form the cache key.
	Target string
	Class  fetch.ContentClass

	// Payload is the cached fetch result.
	Payload fetch.Payload

	// InsertedAt and ExpiresAt bound the entry's freshness window.
	InsertedAt time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the entry is past its expiry at the given
// instant.
func (e *Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Store is the backend contract. Implementations return entries as
// stored, including expired ones; the Cache wrapper owns the
// authoritative read-time expiry check.
type Store interface {
	// Get returns the entry for the key, or (nil, nil) on miss.
	Get(ctx context.Context, target string, class fetch.ContentClass) (*Entry, error)

	// Put inserts or replaces the entry for its key.
	Put(ctx context.Context, entry *Entry) error

	// Sweep removes entries expired at the given instant and returns
	// how many were evicted.
	Sweep(ctx context.Context, now time.Time) (int, error)

	// Close releases backend resources.
	Close() error
}
