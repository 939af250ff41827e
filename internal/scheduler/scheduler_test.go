package scheduler

import (
	"context"
	"testing"
	"time"
)

func TestNextRunLaterToday(t *testing.T) {
	s := New(21, 0, nil)
	now := time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC)
	next := s.nextRun(now)
	want := time.Date(2026, 3, 15, 21, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("nextRun = %v, want %v", next, want)
	}
}

func TestNextRunRollsToTomorrow(t *testing.T) {
	s := New(21, 0, nil)
	now := time.Date(2026, 3, 15, 21, 30, 0, 0, time.UTC)
	next := s.nextRun(now)
	want := time.Date(2026, 3, 16, 21, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("nextRun = %v, want %v", next, want)
	}
}

func TestNextRunAtExactBoundary(t *testing.T) {
	s := New(21, 0, nil)
	now := time.Date(2026, 3, 15, 21, 0, 0, 0, time.UTC)
	next := s.nextRun(now)
	if !next.After(now) {
		t.Errorf("nextRun at boundary should roll forward, got %v", next)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := New(21, 0, func(ctx context.Context, day time.Time) error { return nil })
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
