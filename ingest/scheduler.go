package ingest

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Runner executes one ingestion cycle. Syncer.Run satisfies it.
type Runner func(ctx context.Context) *CycleResult

// Scheduler runs one cycle at startup and then one every day at a fixed
// hour. At most one cycle runs at a time; a manual trigger while a cycle
// is in flight is a no-op.
type Scheduler struct {
	run    Runner
	hour   int
	logger *slog.Logger
	now    func() time.Time

	running atomic.Bool

	mu   sync.Mutex
	last *CycleResult
}

// NewScheduler creates a Scheduler firing daily at the given hour.
func NewScheduler(run Runner, hour int, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		run:    run,
		hour:   hour,
		logger: logger,
		now:    time.Now,
	}
}

// Run executes a cycle immediately, then once per day at the configured
// hour. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.trigger(ctx)

	for {
		next := nextRunTime(s.now(), s.hour)
		s.logger.Info("ingest: next scheduled cycle", "at", next.Format(time.RFC3339))

		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.trigger(ctx)
		}
	}
}

// TriggerNow starts a cycle in the calling goroutine unless one is
// already in flight, in which case it returns nil immediately.
func (s *Scheduler) TriggerNow(ctx context.Context) *CycleResult {
	return s.trigger(ctx)
}

// LastResult returns the most recent cycle result, or nil before the
// first cycle completes.
func (s *Scheduler) LastResult() *CycleResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Scheduler) trigger(ctx context.Context) *CycleResult {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Info("ingest: cycle already in flight, skipping")
		return nil
	}
	defer s.running.Store(false)

	res := s.run(ctx)

	s.mu.Lock()
	s.last = res
	s.mu.Unlock()
	return res
}

// nextRunTime returns the next occurrence of the given hour strictly
// after now, in now's location.
func nextRunTime(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
