package kv

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// SweeperConfig contains configuration for changelog retention.
type SweeperConfig struct {
	// Schedule is a cron expression for scheduled pruning.
	// If empty, the sweeper does nothing.
	Schedule string

	// RetentionDays is how long audit rows are kept.
	// Default: 90
	RetentionDays int
}

// Sweeper prunes the kv_changelog audit table on a schedule
// (e.g., daily at 3 AM) using cron syntax.
type Sweeper struct {
	store   *SQLiteStore
	config  SweeperConfig
	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool
}

// NewSweeper creates a new changelog retention sweeper.
func NewSweeper(store *SQLiteStore, config SweeperConfig) *Sweeper {
	if config.RetentionDays <= 0 {
		config.RetentionDays = 90
	}
	return &Sweeper{
		store:  store,
		config: config,
		cron:   cron.New(),
		logger: slog.Default().With("component", "kv.sweeper"),
	}
}

// Start begins scheduled pruning based on the configured cron expression.
//
// Common cron expressions:
//   - "0 3 * * *"    - Daily at 3 AM
//   - "0 */6 * * *"  - Every 6 hours
//
// If Schedule is empty, Start does nothing.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config.Schedule == "" {
		s.logger.Info("prune schedule not configured, skipping sweeper")
		return nil
	}

	if _, err := cron.ParseStandard(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.config.Schedule, err)
	}

	_, err := s.cron.AddFunc(s.config.Schedule, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("scheduled changelog prune failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("retention sweeper started",
		"schedule", s.config.Schedule,
		"retention_days", s.config.RetentionDays,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop halts scheduled pruning. Safe to call when not running.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.cron.Stop()
	s.running = false
	s.logger.Info("retention sweeper stopped")
}

// RunOnce prunes audit rows older than the retention window and returns the
// number of rows removed.
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -s.config.RetentionDays)
	n, err := s.store.PruneChangelog(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("pruned changelog rows", "removed", n, "cutoff", cutoff)
	}
	return n, nil
}
