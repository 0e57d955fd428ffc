package cache

import (
	"context"
	"sync"
	"time"

	"pagewell-hq/courier/pkg/fetch"
)

// MemoryStore is the default in-process cache backend. Concurrent reads
// take a shared lock; writes are per-map, last-writer-wins.
type MemoryStore struct {
	entries map[memoryKey]*Entry
	mu      sync.RWMutex
}

type memoryKey struct {
	target string
	class  fetch.ContentClass
}

// NewMemoryStore creates an empty in-memory backend.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[memoryKey]*Entry),
	}
}

// Get returns the stored entry for the key, expired or not.
func (s *MemoryStore) Get(_ context.Context, target string, class fetch.ContentClass) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[memoryKey{target, class}]
	if !ok {
		return nil, nil
	}
	cp := *entry
	return &cp, nil
}

// Put inserts or replaces the entry for its key.
func (s *MemoryStore) Put(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *entry
	s.entries[memoryKey{entry.Target, entry.Class}] = &cp
	return nil
}

// Sweep removes entries expired at the given instant.
func (s *MemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for key, entry := range s.entries {
		if entry.Expired(now) {
			delete(s.entries, key)
			evicted++
		}
	}
	return evicted, nil
}

// Len returns the number of stored entries, expired included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close is a no-op for the memory backend.
func (s *MemoryStore) Close() error {
	return nil
}
