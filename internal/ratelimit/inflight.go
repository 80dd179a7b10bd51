package ratelimit

import (
	"context"
	"sync"
)

// InFlightLimiter bounds the number of concurrent outbound calls to the
// lookup service across all callers, foreground and background. Waiters are
// released strictly in arrival order.
type InFlightLimiter struct {
	maxInFlight int
	inFlight    int
	waiters     []chan struct{}
	mu          sync.Mutex
}

// NewInFlightLimiter creates a limiter with the given concurrency ceiling.
func NewInFlightLimiter(maxInFlight int) *InFlightLimiter {
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	return &InFlightLimiter{maxInFlight: maxInFlight}
}

// Acquire blocks until a slot is free or ctx is done. Callers queued while
// the ceiling is reached are admitted FIFO.
func (l *InFlightLimiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	if l.inFlight < l.maxInFlight && len(l.waiters) == 0 {
		l.inFlight++
		l.mu.Unlock()
		return nil
	}

	ready := make(chan struct{})
	l.waiters = append(l.waiters, ready)
	l.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		// Remove ourselves from the queue unless we were already admitted.
		for i, w := range l.waiters {
			if w == ready {
				l.waiters = append(l.waiters[:i], l.waiters[i+1:]...)
				l.mu.Unlock()
				return ctx.Err()
			}
		}
		// Admitted concurrently with cancellation: give the slot back.
		l.releaseLocked()
		l.mu.Unlock()
		return ctx.Err()
	}
}

// Release frees a slot and admits the oldest waiter, if any.
func (l *InFlightLimiter) Release() {
	l.mu.Lock()
	l.releaseLocked()
	l.mu.Unlock()
}

func (l *InFlightLimiter) releaseLocked() {
	if len(l.waiters) > 0 {
		next := l.waiters[0]
		l.waiters = l.waiters[1:]
		close(next)
		return
	}
	if l.inFlight > 0 {
		l.inFlight--
	}
}

// InFlight returns the current in-flight count (for stats endpoints).
func (l *InFlightLimiter) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight
}

// Waiting returns the number of queued callers.
func (l *InFlightLimiter) Waiting() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.waiters)
}
