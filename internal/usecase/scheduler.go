package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"HackNewsBot/internal/domain"
	"HackNewsBot/internal/ports"
)

// Cycle is the unit of work the scheduler repeats.
type Cycle interface {
	RunCycle(ctx context.Context, now time.Time) (domain.PublishResult, error)
}

// Scheduler wires the interval driver with the pipeline use case.
type Scheduler struct {
	driver ports.Scheduler
	cycle  Cycle
	log    *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring cycles.
func NewScheduler(driver ports.Scheduler, cycle Cycle, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{driver: driver, cycle: cycle, log: log}
}

// Start registers the cycle with the provided driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.cycle == nil {
		return nil
	}

	return s.driver.Start(ctx, func(trigger time.Time) {
		_ = s.RunOnce(ctx, trigger)
	})
}

// RunOnce runs a single cycle and logs its outcome. Panics are converted
// into errors so the process keeps serving future triggers.
func (s *Scheduler) RunOnce(ctx context.Context, trigger time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panicked: %v", r)
			s.log.Error("cycle panicked", "panic", r)
		}
	}()

	res, err := s.cycle.RunCycle(ctx, trigger)
	switch {
	case errors.Is(err, domain.ErrLockHeld):
		s.log.Warn("cycle skipped, document locked elsewhere", "path", res.Path)
	case err != nil:
		s.log.Error("cycle failed", "path", res.Path, "error", err)
	}
	return err
}

// Stop gracefully tears down the underlying driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
