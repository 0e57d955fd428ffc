package cache

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"pagewell-hq/courier/pkg/fetch"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	target       TEXT NOT NULL,
	class        TEXT NOT NULL,
	body         BLOB NOT NULL,
	content_type TEXT NOT NULL DEFAULT '',
	status_code  INTEGER NOT NULL DEFAULT 0,
	inserted_at  INTEGER NOT NULL,
	expires_at   INTEGER NOT NULL,
	PRIMARY KEY (target, class)
);

CREATE INDEX IF NOT EXISTS idx_cache_expires ON cache_entries(expires_at);
`

// SQLiteStore is the durable cache backend. It keeps cached payloads
// across process restarts; correctness does not depend on it, since the
// Cache wrapper re-checks expiry on every read.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (creating if needed) the cache database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db %q: %w", path, err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL on cache db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}

	logger := slog.Default().With("component", "cache.sqlite")
	logger.Info("sqlite cache store opened", "path", path)

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Get returns the stored entry for the key, expired or not.
func (s *SQLiteStore) Get(ctx context.Context, target string, class fetch.ContentClass) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT body, content_type, status_code, inserted_at, expires_at
		 FROM cache_entries WHERE target = ? AND class = ?`,
		target, string(class),
	)

	var (
		entry             Entry
		inserted, expires int64
	)
	entry.Target = target
	entry.Class = class
	err := row.Scan(&entry.Payload.Body, &entry.Payload.ContentType, &entry.Payload.StatusCode, &inserted, &expires)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache entry: %w", err)
	}

	entry.InsertedAt = time.UnixMilli(inserted)
	entry.ExpiresAt = time.UnixMilli(expires)
	return &entry, nil
}

// Put inserts or replaces the entry for its key.
func (s *SQLiteStore) Put(ctx context.Context, entry *Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO cache_entries
		 (target, class, body, content_type, status_code, inserted_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.Target, string(entry.Class),
		entry.Payload.Body, entry.Payload.ContentType, entry.Payload.StatusCode,
		entry.InsertedAt.UnixMilli(), entry.ExpiresAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// Sweep deletes entries expired at the given instant.
func (s *SQLiteStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE expires_at < ?`, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("sweep cache: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
