package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestIntervalSchedulerFiresImmediately(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(time.Hour)
	fired := make(chan struct{})
	var once sync.Once
	if err := s.Start(context.Background(), func() {
		once.Do(func() { close(fired) })
	}); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop(context.Background())

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not fire on start")
	}
}

func TestIntervalSchedulerStopIsIdempotent(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(time.Hour)
	if err := s.Start(context.Background(), func() {}); err != nil {
		t.Fatalf("start: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := s.Stop(context.Background()); err != nil {
			t.Fatalf("stop: %v", err)
		}
	}
}

func TestIntervalSchedulerConcurrentStop(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(time.Millisecond)
	var runs atomic.Int64
	if err := s.Start(context.Background(), func() { runs.Add(1) }); err != nil {
		t.Fatalf("start: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Stop(context.Background()); err != nil {
				t.Errorf("stop: %v", err)
			}
		}()
	}
	wg.Wait()

	// The goroutine saw the close; the count settles.
	time.Sleep(20 * time.Millisecond)
	settled := runs.Load()
	time.Sleep(20 * time.Millisecond)
	if runs.Load() != settled {
		t.Fatal("job kept firing after stop")
	}
}

func TestIntervalSchedulerRestartAfterStop(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(time.Hour)
	ctx := context.Background()
	if err := s.Start(ctx, func() {}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	fired := make(chan struct{})
	var once sync.Once
	if err := s.Start(ctx, func() {
		once.Do(func() { close(fired) })
	}); err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer s.Stop(ctx)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not fire after restart")
	}
}
