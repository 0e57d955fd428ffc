package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"pagewell-hq/courier/pkg/fetch"
)

// SchemaVersion is bumped on incompatible schema changes.
const SchemaVersion = 1

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS fetch_records (
	id            TEXT PRIMARY KEY,
	request_id    TEXT NOT NULL,
	target        TEXT NOT NULL,
	class         TEXT NOT NULL,
	outcome       TEXT NOT NULL,
	provider      TEXT NOT NULL DEFAULT '',
	from_cache    INTEGER NOT NULL DEFAULT 0,
	attempt_count INTEGER NOT NULL,
	latency_ms    INTEGER NOT NULL,
	cost_units    REAL NOT NULL DEFAULT 0,
	started_at    INTEGER NOT NULL,
	recorded_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS fetch_attempts (
	record_id  TEXT NOT NULL REFERENCES fetch_records(id),
	seq        INTEGER NOT NULL,
	provider   TEXT NOT NULL,
	outcome    TEXT NOT NULL,
	error      TEXT NOT NULL DEFAULT '',
	started_at INTEGER NOT NULL,
	ended_at   INTEGER NOT NULL,
	PRIMARY KEY (record_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_records_recorded ON fetch_records(recorded_at);
CREATE INDEX IF NOT EXISTS idx_attempts_provider ON fetch_attempts(provider);
`

// SQLiteConfig contains configuration for the SQLite journal backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns bounds the connection pool. Default: 10.
	MaxOpenConns int

	// BusyTimeout is how long to wait when the database is locked.
	// Default: 5s.
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default journal storage configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/journal.db",
		MaxOpenConns: 10,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStore is the durable journal backend. Records and their attempt
// rows are inserted in one transaction and never updated.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens the journal database and initializes the schema.
func NewSQLiteStore(cfg *SQLiteConfig) (*SQLiteStore, error) {
	if cfg == nil {
		cfg = DefaultSQLiteConfig()
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open journal db %q: %w", cfg.Path, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", cfg.BusyTimeout.Milliseconds())); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}
	if _, err := db.Exec("INSERT OR IGNORE INTO schema_version (version) VALUES (?)", SchemaVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("record schema version: %w", err)
	}

	logger := slog.Default().With("component", "journal.sqlite")
	logger.Info("journal storage initialized", "path", cfg.Path)

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Append persists one record and its attempt rows transactionally.
func (s *SQLiteStore) Append(ctx context.Context, record *Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO fetch_records
		 (id, request_id, target, class, outcome, provider, from_cache,
		  attempt_count, latency_ms, cost_units, started_at, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.RequestID, record.Target, string(record.Class),
		string(record.Outcome), record.Provider, record.FromCache,
		len(record.Attempts), record.TotalLatency.Milliseconds(), record.CostUnits,
		record.StartedAt.UnixMilli(), record.RecordedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}

	for i, attempt := range record.Attempts {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO fetch_attempts
			 (record_id, seq, provider, outcome, error, started_at, ended_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			record.ID, i, attempt.Provider, string(attempt.Outcome), attempt.Err,
			attempt.StartedAt.UnixMilli(), attempt.EndedAt.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("insert attempt %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// ProviderStats aggregates attempt outcomes per provider.
func (s *SQLiteStore) ProviderStats(ctx context.Context, since time.Time) ([]ProviderStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.provider,
		        COUNT(*),
		        SUM(CASE WHEN a.outcome = ? THEN 1 ELSE 0 END),
		        SUM(CASE WHEN a.outcome = ? THEN 1 ELSE 0 END)
		 FROM fetch_attempts a
		 JOIN fetch_records r ON r.id = a.record_id
		 WHERE r.recorded_at >= ?
		 GROUP BY a.provider`,
		string(fetch.AttemptSuccess), string(fetch.AttemptRateLimited), since.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("query provider stats: %w", err)
	}
	defer rows.Close()

	var out []ProviderStats
	for rows.Next() {
		var stats ProviderStats
		if err := rows.Scan(&stats.Provider, &stats.Attempts, &stats.Successes, &stats.RateLimited); err != nil {
			return nil, fmt.Errorf("scan provider stats: %w", err)
		}
		out = append(out, stats)
	}
	return out, rows.Err()
}

// Summarize aggregates whole-request outcomes.
func (s *SQLiteStore) Summarize(ctx context.Context, since time.Time) (*Summary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),
		        SUM(CASE WHEN from_cache THEN 1 ELSE 0 END),
		        COALESCE(SUM(cost_units), 0)
		 FROM fetch_records
		 WHERE recorded_at >= ?`,
		string(fetch.OutcomeSuccess), since.UnixMilli(),
	)

	summary := &Summary{}
	var successes, cacheHits sql.NullInt64
	if err := row.Scan(&summary.Requests, &successes, &cacheHits, &summary.CostUnits); err != nil {
		return nil, fmt.Errorf("scan summary: %w", err)
	}
	summary.Successes = successes.Int64
	summary.CacheHits = cacheHits.Int64

	// Fallbacks need the attempt rows: more than one distinct provider
	// per record.
	row = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM (
		    SELECT a.record_id
		    FROM fetch_attempts a
		    JOIN fetch_records r ON r.id = a.record_id
		    WHERE r.recorded_at >= ?
		    GROUP BY a.record_id
		    HAVING COUNT(DISTINCT a.provider) > 1
		 )`,
		since.UnixMilli(),
	)
	if err := row.Scan(&summary.Fallbacks); err != nil {
		return nil, fmt.Errorf("scan fallback count: %w", err)
	}

	return summary, nil
}

// Prune deletes records (and their attempts) recorded before the cutoff.
func (s *SQLiteStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin prune: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM fetch_attempts WHERE record_id IN
		 (SELECT id FROM fetch_records WHERE recorded_at < ?)`,
		before.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("prune attempts: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM fetch_records WHERE recorded_at < ?`, before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune records: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	removed, _ := res.RowsAffected()
	return removed, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
