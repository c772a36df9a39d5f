package scheduler

import (
	"context"
	"log/slog"
	"time"

	"mention_tracker/internal/domain"
)

// Cycler defines the interface for check cycle operations.
type Cycler interface {
	Run(ctx context.Context) (*domain.CycleStats, error)
}

type Scheduler struct {
	cycler   Cycler
	interval time.Duration
	logger   *slog.Logger
}

func NewScheduler(cycler Cycler, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cycler:   cycler,
		interval: interval,
		logger:   logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runCycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	cycleCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	if _, err := s.cycler.Run(cycleCtx); err != nil {
		s.logger.Error("check cycle failed", "error", err)
	}
}
