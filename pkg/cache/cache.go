package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"pagewell-hq/courier/pkg/fetch"
)

// TTLTable maps content classes to freshness windows. Classes without
// an explicit entry use the default TTL.
type TTLTable struct {
	// ByClass holds the per-class TTLs.
	ByClass map[fetch.ContentClass]time.Duration

	// Default applies to classes not present in ByClass.
	Default time.Duration
}

// TTLFor returns the freshness window for a content class.
func (t *TTLTable) TTLFor(class fetch.ContentClass) time.Duration {
	if d, ok := t.ByClass[class]; ok {
		return d
	}
	return t.Default
}

// Cache is the content-class-keyed cache layer. It wraps a Store with
// TTL selection and the authoritative read-time expiry check, and runs
// a background sweep that evicts expired entries.
type Cache struct {
	store  Store
	logger *slog.Logger
	stopCh chan struct{}

	mu  sync.RWMutex
	ttl TTLTable
}

// New creates a cache over the given backend and starts the background
// sweep. sweepInterval <= 0 disables the sweep; reads still never
// return expired entries.
func New(store Store, ttl TTLTable, sweepInterval time.Duration) *Cache {
	c := &Cache{
		store:  store,
		ttl:    ttl,
		logger: slog.Default().With("component", "cache"),
		stopCh: make(chan struct{}),
	}
	if sweepInterval > 0 {
		go c.sweepLoop(sweepInterval)
	}
	return c
}

// Get returns the cached payload for the key, or (nil, nil) on miss.
// Expired entries are misses regardless of sweep timing.
func (c *Cache) Get(ctx context.Context, target string, class fetch.ContentClass) (*Entry, error) {
	entry, err := c.store.Get(ctx, target, class)
	if err != nil {
		return nil, err
	}
	if entry == nil || entry.Expired(time.Now()) {
		return nil, nil
	}
	return entry, nil
}

// Put stores the payload under the TTL selected by content class.
func (c *Cache) Put(ctx context.Context, target string, class fetch.ContentClass, payload *fetch.Payload) error {
	c.mu.RLock()
	ttl := c.ttl.TTLFor(class)
	c.mu.RUnlock()

	now := time.Now()
	return c.store.Put(ctx, &Entry{
		Target:     target,
		Class:      class,
		Payload:    *payload,
		InsertedAt: now,
		ExpiresAt:  now.Add(ttl),
	})
}

// SetTTL replaces the TTL table. Existing entries keep the expiry they
// were written with; only new writes see the updated windows.
func (c *Cache) SetTTL(ttl TTLTable) {
	c.mu.Lock()
	c.ttl = ttl
	c.mu.Unlock()
}

// Close stops the sweep and closes the backend.
func (c *Cache) Close() error {
	close(c.stopCh)
	return c.store.Close()
}

// sweepLoop evicts expired entries periodically until Close.
func (c *Cache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			evicted, err := c.store.Sweep(context.Background(), time.Now())
			if err != nil {
				c.logger.Error("cache sweep failed", "error", err)
				continue
			}
			if evicted > 0 {
				c.logger.Debug("cache sweep evicted entries", "count", evicted)
			}
		case <-c.stopCh:
			return
		}
	}
}
