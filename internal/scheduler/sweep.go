// Package scheduler runs the nightly grading sweep on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/SAP-F-2025/module-grading-service/internal/services"
)

type SweepScheduler struct {
	cron    *cron.Cron
	sync    services.SyncService
	logger  *slog.Logger
	timeout time.Duration
}

// NewSweepScheduler wires the sweep onto a cron schedule. A sweep that
// is still running when the next tick fires is skipped, never stacked.
func NewSweepScheduler(syncService services.SyncService, logger *slog.Logger, timeout time.Duration) *SweepScheduler {
	if timeout <= 0 {
		timeout = 4 * time.Hour
	}
	return &SweepScheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		sync:    syncService,
		logger:  logger,
		timeout: timeout,
	}
}

func (s *SweepScheduler) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.runSweep); err != nil {
		return fmt.Errorf("failed to register sweep schedule %q: %w", schedule, err)
	}

	s.cron.Start()
	s.logger.Info("Sweep scheduler started", "schedule", schedule)
	return nil
}

func (s *SweepScheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.logger.Info("Scheduled sweep starting")
	if err := s.sync.SweepPrograms(ctx); err != nil {
		s.logger.Error("Scheduled sweep failed", "error", err)
	}
}

// Stop halts the schedule and waits for an in-flight sweep for as long
// as ctx allows.
func (s *SweepScheduler) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		s.logger.Info("Sweep scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("sweep scheduler stop timed out: %w", ctx.Err())
	}
}
