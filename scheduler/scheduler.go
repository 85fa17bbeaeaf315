// Package scheduler drives periodic runs of a job, the daily penalty sweep of
// the ledger: one run after a startup delay, then one run per interval, plus
// manual triggers.
//
// Runs never overlap. A trigger arriving while a run is in flight is
// coalesced into it and dropped.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Defaults of the scheduler.
const (
	DefaultDelay    = 2 * time.Second
	DefaultInterval = 24 * time.Hour
)

// RunFunc is the scheduled job. now is the instant the run was triggered.
type RunFunc func(ctx context.Context, now time.Time) error

// Scheduler runs a RunFunc periodically.
type Scheduler struct {
	run      RunFunc
	delay    time.Duration
	interval time.Duration
	clock    func() time.Time
	log      *zap.SugaredLogger

	mu        sync.Mutex // held by wg.Add and wg.Wait callers
	stopped   bool
	running   atomic.Bool
	wg        sync.WaitGroup
	runs      atomic.Int64
	coalesced atomic.Int64
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithDelay sets the delay before the first run.
func WithDelay(d time.Duration) Option { return func(s *Scheduler) { s.delay = d } }

// WithInterval sets the period between runs.
func WithInterval(d time.Duration) Option { return func(s *Scheduler) { s.interval = d } }

// WithClock sets the source of the instant passed to the job.
func WithClock(clock func() time.Time) Option { return func(s *Scheduler) { s.clock = clock } }

// WithLogger sets the logger.
func WithLogger(log *zap.SugaredLogger) Option { return func(s *Scheduler) { s.log = log } }

// New returns a scheduler of run.
func New(run RunFunc, opts ...Option) *Scheduler {
	s := &Scheduler{
		run:      run,
		delay:    DefaultDelay,
		interval: DefaultInterval,
		clock:    time.Now,
		log:      zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs the job after the delay and then at every interval, until ctx
// is done. It waits for the run in flight before returning, and triggers
// received after that are refused.
func (s *Scheduler) Start(ctx context.Context) error {
	defer s.stop()
	s.log.Infow("scheduler started", "delay", s.delay, "interval", s.interval)

	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil
	case <-timer.C:
		s.Trigger(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Infow("scheduler stopped", "runs", s.runs.Load(), "coalesced", s.coalesced.Load())
			return nil
		case <-ticker.C:
			s.Trigger(ctx)
		}
	}
}

// stop refuses new runs and waits for the one in flight.
func (s *Scheduler) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.wg.Wait()
}

// Trigger starts a run in the background. It returns false, and does
// nothing, when a run is already in flight or the scheduler is stopped.
func (s *Scheduler) Trigger(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		s.log.Infow("scheduler stopped, trigger refused")
		return false
	}
	if !s.running.CompareAndSwap(false, true) {
		s.coalesced.Add(1)
		s.log.Infow("run in flight, trigger coalesced")
		return false
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		s.execute(ctx)
	}()
	return true
}

// RunNow runs the job synchronously. It returns false, without running,
// when a run is already in flight or the scheduler is stopped.
func (s *Scheduler) RunNow(ctx context.Context) bool {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}
	if !s.running.CompareAndSwap(false, true) {
		s.mu.Unlock()
		s.coalesced.Add(1)
		return false
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()
	defer s.running.Store(false)
	s.execute(ctx)
	return true
}

func (s *Scheduler) execute(ctx context.Context) {
	now := s.clock()
	s.runs.Add(1)
	if err := s.run(ctx, now); err != nil {
		s.log.Errorw("scheduled run failed", "at", now, "error", err)
		return
	}
	s.log.Debugw("scheduled run done", "at", now)
}

// Wait blocks until the run in flight, if any, is done. Triggers wait
// meanwhile.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wg.Wait()
}

// Runs returns the number of runs started so far.
func (s *Scheduler) Runs() int64 { return s.runs.Load() }

// Coalesced returns the number of triggers dropped because a run was in flight.
func (s *Scheduler) Coalesced() int64 { return s.coalesced.Load() }
