package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestIntervalSchedulerRunsImmediatelyAndRepeats(t *testing.T) {
	s := NewIntervalScheduler(10 * time.Millisecond)

	var runs atomic.Int32
	if err := s.Start(context.Background(), func(time.Time) { runs.Add(1) }); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if got := runs.Load(); got < 3 {
		t.Fatalf("expected at least 3 runs, got %d", got)
	}

	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	if runs.Load() != after {
		t.Fatalf("job ran after Stop")
	}
}

func TestIntervalSchedulerNeverOverlaps(t *testing.T) {
	s := NewIntervalScheduler(time.Millisecond)

	var (
		mu      sync.Mutex
		active  int
		overlap bool
		runs    int
	)
	job := func(time.Time) {
		mu.Lock()
		active++
		if active > 1 {
			overlap = true
		}
		runs++
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()
	}

	if err := s.Start(context.Background(), job); err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if overlap {
		t.Fatal("jobs overlapped")
	}
	if runs < 2 {
		t.Fatalf("expected several runs, got %d", runs)
	}
}

func TestIntervalSchedulerStopsWithContext(t *testing.T) {
	s := NewIntervalScheduler(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	if err := s.Start(ctx, func(time.Time) { close(started) }); err != nil {
		t.Fatalf("start: %v", err)
	}
	<-started
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestIntervalSchedulerRejectsZeroInterval(t *testing.T) {
	s := NewIntervalScheduler(0)
	if err := s.Start(context.Background(), func(time.Time) {}); err == nil {
		t.Fatal("expected error for zero interval")
	}
}
