package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"HackNewsBot/internal/ports"
)

// IntervalScheduler runs a job immediately and then once per interval. Jobs
// run on a single goroutine, so a slow job delays the next tick instead of
// overlapping with it.
type IntervalScheduler struct {
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// NewIntervalScheduler builds a scheduler firing every interval.
func NewIntervalScheduler(interval time.Duration) *IntervalScheduler {
	return &IntervalScheduler{interval: interval, now: time.Now}
}

// Start begins ticking until ctx ends or Stop is called.
func (s *IntervalScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}
	if s.interval <= 0 {
		return errors.New("scheduler interval must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return nil
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	s.stop, s.done = stop, done

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		job(s.now())
		for {
			select {
			case <-ticker.C:
				job(s.now())
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine and waits for a running job to return.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
