package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestInFlightLimiterImmediateAcquire(t *testing.T) {
	l := NewInFlightLimiter(2)
	ctx := context.Background()

	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if got := l.InFlight(); got != 2 {
		t.Errorf("InFlight = %d, want 2", got)
	}

	l.Release()
	l.Release()
	if got := l.InFlight(); got != 0 {
		t.Errorf("InFlight after release = %d, want 0", got)
	}
}

func TestInFlightLimiterFIFOOrder(t *testing.T) {
	l := NewInFlightLimiter(1)
	ctx := context.Background()

	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	const waiters = 3
	order := make(chan int, waiters)
	started := make(chan struct{}, waiters)
	for i := 0; i < waiters; i++ {
		i := i
		go func() {
			// Stagger arrival so the queue order is deterministic.
			for l.Waiting() != i {
				time.Sleep(time.Millisecond)
			}
			started <- struct{}{}
			if err := l.Acquire(ctx); err != nil {
				t.Errorf("waiter %d: %v", i, err)
				return
			}
			order <- i
			l.Release()
		}()
		<-started
	}

	for l.Waiting() != waiters {
		time.Sleep(time.Millisecond)
	}
	l.Release()

	for want := 0; want < waiters; want++ {
		select {
		case got := <-order:
			if got != want {
				t.Fatalf("waiter %d admitted before %d", got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for waiter %d", want)
		}
	}
}

func TestInFlightLimiterCancelledWaiter(t *testing.T) {
	l := NewInFlightLimiter(1)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Acquire(ctx) }()

	for l.Waiting() != 1 {
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Fatalf("Acquire returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled waiter never returned")
	}
	if got := l.Waiting(); got != 0 {
		t.Errorf("Waiting = %d after cancellation, want 0", got)
	}

	// The held slot must still be usable by the next caller.
	l.Release()
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire after cancellation: %v", err)
	}
}

func TestInFlightLimiterMinimumCeiling(t *testing.T) {
	l := NewInFlightLimiter(0)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire with zero ceiling: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := l.Acquire(ctx); err == nil {
		t.Fatal("second acquire should block at the floor of 1")
	}
}

func TestRateLimiterWindows(t *testing.T) {
	rl := NewRateLimiter(2, 0, 0, true)
	if !rl.AllowRequest() || !rl.AllowRequest() {
		t.Fatal("first two requests should pass")
	}
	if rl.AllowRequest() {
		t.Error("third request within the minute should be rejected")
	}

	stats := rl.GetStats()
	if !stats.Enabled || stats.RequestsLastMinute != 2 {
		t.Errorf("stats = %+v", stats)
	}

	rl.Reset()
	if !rl.AllowRequest() {
		t.Error("request after reset should pass")
	}
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, 2, 0, true)
	rl.now = func() time.Time { return now }

	if !rl.AllowRequest() || !rl.AllowRequest() {
		t.Fatal("first two requests should pass")
	}
	if rl.AllowRequest() {
		t.Error("third request should be rejected")
	}

	// The minute rolls over but both hits still count against the hour.
	now = now.Add(61 * time.Second)
	if rl.AllowRequest() {
		t.Error("hour window should still be full")
	}
	stats := rl.GetStats()
	if stats.RequestsLastMinute != 0 || stats.RequestsLastHour != 2 || stats.RemainingThisHour != 0 {
		t.Errorf("stats = %+v", stats)
	}

	now = now.Add(time.Hour)
	if !rl.AllowRequest() {
		t.Error("request after the hour rolled over should pass")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(1, 1, 1, false)
	for i := 0; i < 10; i++ {
		if !rl.AllowRequest() {
			t.Fatal("disabled limiter rejected a request")
		}
	}
	if stats := rl.GetStats(); stats.Enabled {
		t.Errorf("stats should report disabled: %+v", stats)
	}
}
