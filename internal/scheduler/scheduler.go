// Package scheduler runs periodic full recomputes on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/seenimoa/valuemetrics/internal/pipeline"
)

// RunFunc performs one recompute.
type RunFunc func(ctx context.Context) (*pipeline.Result, error)

// Scheduler handles periodic recomputation. At most one recompute runs at a
// time, whether started by a cron tick or by RunNow.
type Scheduler struct {
	run     RunFunc
	cron    *cron.Cron
	logger  *zap.Logger
	ctx     context.Context
	running atomic.Bool
}

// New creates a scheduler for run.
func New(run RunFunc, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		run:    run,
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: logger,
		ctx:    context.Background(),
	}
}

// Start begins scheduled runs using a standard 5-field cron expression. Runs
// receive ctx.
func (s *Scheduler) Start(ctx context.Context, schedule string) error {
	s.ctx = ctx
	if _, err := s.cron.AddFunc(schedule, func() { s.RunNow() }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	s.cron.Start()
	s.logger.Info("recompute scheduler started", zap.String("schedule", schedule))
	return nil
}

// Stop stops the scheduler and waits for a running recompute to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("recompute scheduler stopped")
}

// Next returns when the next run is due, or the zero time when nothing is
// scheduled.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// RunNow performs one recompute synchronously and logs its outcome. It
// returns false without running when another recompute is in progress.
func (s *Scheduler) RunNow() bool {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("recompute already running, skipping")
		return false
	}
	defer s.running.Store(false)

	s.logger.Info("starting scheduled recompute")

	res, err := s.run(s.ctx)
	if err != nil {
		s.logger.Error("scheduled recompute failed", zap.Error(err))
	}
	if res == nil {
		return true
	}

	s.logger.Info("scheduled recompute completed",
		zap.String("run_id", res.RunID),
		zap.Int("companies", res.Companies),
		zap.Int("records", res.Records),
		zap.Int("failed", len(res.Failed)),
		zap.Duration("duration", res.Duration),
	)
	return true
}
