package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/jsamuelsen/quotebook/internal/domain"
)

// DefaultSyncInterval is the period between scheduled reconciliations.
const DefaultSyncInterval = 30 * time.Second

// Scheduler runs the reconciler once immediately and then on a fixed period.
type Scheduler struct {
	reconciler *Reconciler
	interval   time.Duration
	push       bool
	logger     *slog.Logger
}

// SchedulerConfig contains the settings of a Scheduler.
type SchedulerConfig struct {
	Reconciler *Reconciler
	Interval   time.Duration

	// PushAfterSync also pushes local quotes after every successful run.
	PushAfterSync bool

	Logger *slog.Logger
}

// NewScheduler creates a scheduler. A non-positive interval uses DefaultSyncInterval.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.Reconciler == nil {
		panic("app: Scheduler requires a reconciler")
	}

	if cfg.Interval <= 0 {
		cfg.Interval = DefaultSyncInterval
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Scheduler{
		reconciler: cfg.Reconciler,
		interval:   cfg.Interval,
		push:       cfg.PushAfterSync,
		logger:     cfg.Logger,
	}
}

// Run blocks until ctx is cancelled. Run failures are logged and never end the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "sync scheduler started", slog.Duration("interval", s.interval))

	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "sync scheduler stopped")

			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	_, err := s.reconciler.Reconcile(ctx)

	switch {
	case domain.IsConflict(err):
		s.logger.DebugContext(ctx, "previous sync still running, skipping tick")

		return
	case err != nil:
		// Already announced by the reconciler; the next tick retries.
		return
	}

	if s.push {
		_ = s.reconciler.Push(ctx)
	}
}
