package scheduler

import (
	"context"
	"time"

	"stockai/internal/logger"
)

// IntervalScheduler runs a task on a fixed cadence until its context is
// cancelled. Ticks that land while the task is still running are not
// queued; the next run waits for the next tick.
type IntervalScheduler struct {
	Name           string
	Interval       time.Duration
	RunImmediately bool

	ctx   context.Context
	nowFn func() time.Time
}

func NewIntervalScheduler(ctx context.Context, name string, interval time.Duration) *IntervalScheduler {
	if ctx == nil {
		ctx = context.Background()
	}
	return &IntervalScheduler{
		Name:     name,
		Interval: interval,
		ctx:      ctx,
		nowFn:    time.Now,
	}
}

// Start blocks, executing the task every interval. It returns when the
// context is done.
func (s *IntervalScheduler) Start(task func()) {
	if s == nil || task == nil {
		return
	}
	if s.Interval <= 0 {
		logger.Warnf("scheduler %s: invalid interval=%s, exit", s.Name, s.Interval)
		return
	}
	if s.nowFn == nil {
		s.nowFn = time.Now
	}

	logger.Infof("scheduler %s: started interval=%s run_immediately=%v", s.Name, s.Interval, s.RunImmediately)

	if s.RunImmediately {
		task()
	}

	nextAt := s.nowFn().Add(s.Interval)
	for {
		if !s.waitUntil(nextAt) {
			logger.Infof("scheduler %s: context done, exit", s.Name)
			return
		}
		task()
		nextAt = nextAt.Add(s.Interval)
		if now := s.nowFn(); nextAt.Before(now) {
			// The task overran one or more ticks; realign to now.
			nextAt = now.Add(s.Interval)
		}
	}
}

func (s *IntervalScheduler) waitUntil(target time.Time) bool {
	wait := target.Sub(s.nowFn())
	if wait <= 0 {
		return s.ctx.Err() == nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-s.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
