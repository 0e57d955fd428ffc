package journal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// RetentionConfig controls scheduled journal pruning.
type RetentionConfig struct {
	// Days is how long records are kept. 0 disables pruning.
	Days int

	// Schedule is a standard cron expression for when pruning runs
	// (e.g. "0 3 * * *" for daily at 3 AM). Empty disables the
	// scheduler.
	Schedule string
}

// RetentionScheduler prunes old journal records on a cron schedule.
// Pruning is the journal's only deletion path; the write path never
// deletes.
type RetentionScheduler struct {
	store   Store
	config  RetentionConfig
	cron    *cron.Cron
	logger  *slog.Logger
	mu      sync.Mutex
	running bool
}

// NewRetentionScheduler creates a scheduler over the given store.
func NewRetentionScheduler(store Store, config RetentionConfig) *RetentionScheduler {
	return &RetentionScheduler{
		store:  store,
		config: config,
		cron:   cron.New(),
		logger: slog.Default().With("component", "journal.retention"),
	}
}

// Start begins scheduled pruning. A missing schedule or zero retention
// leaves the scheduler idle.
func (s *RetentionScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config.Schedule == "" || s.config.Days <= 0 {
		s.logger.Info("journal retention not configured, scheduler idle")
		return nil
	}

	if _, err := cron.ParseStandard(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", s.config.Schedule, err)
	}

	_, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.runPrune(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule journal pruning: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("journal retention scheduler started",
		"schedule", s.config.Schedule,
		"retention_days", s.config.Days,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop halts the scheduler. A pruning cycle already in progress
// completes.
func (s *RetentionScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.cron.Stop()
	s.running = false
	s.logger.Info("journal retention scheduler stopped")
}

// runPrune executes one pruning cycle.
func (s *RetentionScheduler) runPrune(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -s.config.Days)

	removed, err := s.store.Prune(ctx, cutoff)
	if err != nil {
		s.logger.Error("scheduled journal pruning failed", "error", err)
		return
	}
	if removed > 0 {
		s.logger.Info("journal pruning completed",
			"removed", removed,
			"cutoff", cutoff,
		)
	}
}
