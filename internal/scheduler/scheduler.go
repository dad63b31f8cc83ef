// Package scheduler runs the periodic location maintenance pass: linking
// listings to Location rows and recomputing job counts.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/justsurfingit/jobboard/internal/services"
)

// Maintainer is the work the scheduler triggers.
type Maintainer interface {
	AssignMissingLocations(ctx context.Context) (*services.BackfillResult, error)
}

// Scheduler wraps robfig/cron. Overlapping ticks are skipped.
type Scheduler struct {
	cron       *cron.Cron
	chain      cron.Chain
	maintainer Maintainer
	log        *zap.Logger
	schedule   string // cron expression, e.g. "@every 1h"
}

func New(m Maintainer, schedule string, log *zap.Logger) *Scheduler {
	stdLog, err := zap.NewStdLogAt(log.Named("cron"), zap.ErrorLevel)
	if err != nil {
		stdLog = zap.NewStdLog(log.Named("cron"))
	}
	cronLog := cron.PrintfLogger(stdLog)
	return &Scheduler{
		cron:       cron.New(cron.WithLogger(cronLog)),
		chain:      cron.NewChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		maintainer: m,
		log:        log,
		schedule:   schedule,
	}
}

// Start registers the job and starts the cron loop. One pass also runs
// immediately so counts are fresh after a deploy; it shares the job's
// chain, so it never overlaps a tick and a panic is only logged.
func (s *Scheduler) Start(ctx context.Context) error {
	job := s.chain.Then(cron.FuncJob(func() { s.RunOnce(ctx) }))
	if _, err := s.cron.AddJob(s.schedule, job); err != nil {
		return fmt.Errorf("cron.AddJob(%q): %w", s.schedule, err)
	}
	s.cron.Start()
	s.log.Info("maintenance scheduler started", zap.String("schedule", s.schedule))

	go job.Run()
	return nil
}

// Stop halts the cron loop and waits for a running pass to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("maintenance scheduler stopped")
}

func (s *Scheduler) RunOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	res, err := s.maintainer.AssignMissingLocations(ctx)
	if err != nil {
		s.log.Error("location maintenance failed", zap.Error(err))
		return
	}
	s.log.Info("location maintenance complete",
		zap.Int("pairs", res.Pairs),
		zap.Int64("linked", res.ListingsLinked),
		zap.Int64("recounted", res.Recounted))
}
