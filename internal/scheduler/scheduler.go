package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	applogger "PriceCast/pkg/logger"
)

// Collector is the job the scheduler drives every hour.
type Collector interface {
	CollectAll(ctx context.Context) error
}

// Scheduler runs hourly bar collection on a cron spec.
type Scheduler struct {
	cron      *cron.Cron
	collector Collector
	timeout   time.Duration
	log       *applogger.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Scheduler. Specs use the standard five-field format in UTC.
func New(collector Collector, timeout time.Duration, log *applogger.Logger) *Scheduler {
	if log == nil {
		log = applogger.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		collector: collector,
		timeout:   timeout,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Register adds the collection task.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.collectTask); err != nil {
		return fmt.Errorf("register collect task %q: %w", spec, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", applogger.Int("jobs", len(s.cron.Entries())))
}

// Stop cancels any running task and waits for it to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunNow executes the collection task immediately.
func (s *Scheduler) RunNow() {
	s.collectTask()
}

func (s *Scheduler) collectTask() {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	if err := s.collector.CollectAll(ctx); err != nil {
		s.log.Error("scheduled collection failed", applogger.Error(err))
		return
	}
	s.log.Info("scheduled collection done", applogger.Duration("duration_ms", time.Since(start)))
}
