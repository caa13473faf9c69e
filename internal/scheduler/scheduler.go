// Package scheduler triggers ingestion runs on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/applyflow/pkg/logger"
	"github.com/okian/applyflow/pkg/metrics"
)

// ErrInvalidSchedule is returned by Start when the cron spec does not parse.
var ErrInvalidSchedule = errors.New("invalid schedule")

// Job is the work triggered on each tick. trigger is "cron" or "startup".
type Job func(ctx context.Context, trigger string)

// Scheduler wraps robfig/cron.
type Scheduler struct {
	spec       string
	runOnStart bool
	job        Job
	log        logger.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	wg      sync.WaitGroup
	started bool
	lastRun time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithRunOnStart also fires the job once, in the background, on Start.
func WithRunOnStart(v bool) Option {
	return func(s *Scheduler) { s.runOnStart = v }
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a scheduler firing job per spec (e.g. "@every 6h"). An empty
// spec disables periodic runs.
func New(spec string, job Job, opts ...Option) *Scheduler {
	s := &Scheduler{spec: spec, job: job}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Named("scheduler")
	}
	return s
}

// Enabled reports whether periodic runs are configured.
func (s *Scheduler) Enabled() bool { return s.spec != "" }

// LastRun returns when the job last started, zero if never.
func (s *Scheduler) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

// Start registers the job and starts the cron loop. Overlapping ticks are
// skipped while a run is in progress.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	if s.spec != "" {
		cl := cronLogger{log: s.log, ctx: ctx}
		c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
		if _, err := c.AddFunc(s.spec, func() { s.fire(ctx, "cron") }); err != nil {
			return fmt.Errorf("%w %q: %w", ErrInvalidSchedule, s.spec, err)
		}
		c.Start()
		s.cron = c
		s.log.Info(ctx, "cron started", logger.String("spec", s.spec))
	} else {
		s.log.Info(ctx, "periodic ingestion disabled")
	}
	s.started = true

	if s.runOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.fire(ctx, "startup")
		}()
	}
	return nil
}

// Stop halts the cron loop and waits for running jobs or ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.started = false
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		if c != nil {
			<-c.Stop().Done()
		}
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info(ctx, "scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

func (s *Scheduler) fire(ctx context.Context, trigger string) {
	if ctx.Err() != nil {
		return
	}
	s.mu.Lock()
	s.lastRun = time.Now()
	s.mu.Unlock()

	metrics.RecordSchedulerTrigger(trigger)
	s.log.Info(ctx, "ingestion triggered", logger.String("trigger", trigger))
	s.job(ctx, trigger)
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	log logger.Logger
	ctx context.Context //nolint:containedctx // cron.Logger has no context parameter
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(l.ctx, msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(l.ctx, msg, append(kvFields(keysAndValues), logger.Error(err))...)
}

func kvFields(kv []interface{}) []logger.Field {
	fields := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, logger.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return fields
}
