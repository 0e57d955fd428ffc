// Package cache serves previously fetched payloads within a
// content-class-specific freshness window.
//
// The read-time expiry check is authoritative: an expired entry is a
// miss regardless of whether the background sweep has evicted it yet.
// Writes for the same (target, class) key are last-writer-wins; payloads
// for the same key are expected to be equivalent within a TTL window, so
// no cross-key locking is needed.
//
// Two backends implement Store: an in-memory map (default) and a SQLite
// file for durability across restarts.
package cache
