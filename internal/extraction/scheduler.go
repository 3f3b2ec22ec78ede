package extraction

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner is one extraction pass; *Worker satisfies it.
type Runner interface {
	RunOnce(ctx context.Context) (Result, error)
}

// Scheduler wraps robfig/cron and runs extraction passes on a schedule.
// Overlapping passes are skipped rather than queued.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	spec   string // cron spec, e.g. "@every 10m"
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewScheduler creates a Scheduler for the given cron spec.
func NewScheduler(runner Runner, spec string, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{logger.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runner: runner,
		spec:   spec,
		logger: logger,
	}
}

// Start registers the job and starts the scheduler. One pass also runs
// immediately so postings stored while the service was down are picked up.
func (s *Scheduler) Start(ctx context.Context) error {
	id, err := s.cron.AddFunc(s.spec, func() { s.run(ctx) })
	if err != nil {
		return fmt.Errorf("invalid extraction schedule %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info("extraction scheduler started", zap.String("schedule", s.spec))

	// The wrapped job shares the skip-if-running guard with the cron ticks.
	job := s.cron.Entry(id).WrappedJob
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		job.Run()
	}()
	return nil
}

// Stop halts the schedule and waits for any running pass to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("extraction scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.runner.RunOnce(ctx); err != nil {
		s.logger.Error("extraction pass failed", zap.Error(err))
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
