// Package ratelimit admits at most N operations per sliding time window.
//
// Callers reserve admission slots in call order under a mutex. The slot for
// the k-th reservation is the later of the current time and the slot of
// reservation k-N plus the window, so any half-open window contains at most
// N slots and slots never decrease.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/fwojciec/websum"
)

// Limiter is a sliding-window rate limiter safe for concurrent use.
type Limiter struct {
	max    int
	window time.Duration

	mu     sync.Mutex
	slots  []time.Time // ring of the last max reserved slots
	next   int         // index of the oldest slot in the ring
	closed bool

	admitted int64
	waited   time.Duration
}

// Stats summarizes limiter activity.
type Stats struct {
	Admitted int64
	Waited   time.Duration
}

// New returns a limiter that admits at most maxRequests operations per window.
func New(maxRequests int, window time.Duration) (*Limiter, error) {
	if maxRequests <= 0 {
		return nil, websum.Errorf(websum.EINVALID, "rate limit must allow at least one request, got %d", maxRequests)
	}
	if window <= 0 {
		return nil, websum.Errorf(websum.EINVALID, "rate limit window must be positive, got %s", window)
	}
	return &Limiter{
		max:    maxRequests,
		window: window,
		slots:  make([]time.Time, maxRequests),
	}, nil
}

// Wait blocks until the caller may begin an operation.
// A cancelled context returns ctx.Err(); the reserved slot is not reused.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	at, err := l.reserve(time.Now())
	if err != nil {
		return err
	}

	d := time.Until(at)
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (l *Limiter) reserve(now time.Time) (time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return time.Time{}, websum.Errorf(websum.ERESOURCE, "rate limiter closed")
	}

	at := now
	if oldest := l.slots[l.next]; !oldest.IsZero() {
		if free := oldest.Add(l.window); free.After(at) {
			at = free
		}
	}
	l.slots[l.next] = at
	l.next = (l.next + 1) % l.max

	l.admitted++
	l.waited += at.Sub(now)
	return at, nil
}

// Stats returns a snapshot of admissions and cumulative scheduled wait.
func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{Admitted: l.admitted, Waited: l.waited}
}

// Close makes later Wait calls fail with ERESOURCE.
func (l *Limiter) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

// Execute waits for admission and then runs op. A nil limiter runs op
// immediately. The operation's own failure does not affect later callers.
func Execute[T any](ctx context.Context, l *Limiter, op func(context.Context) (T, error)) (T, error) {
	if l != nil {
		if err := l.Wait(ctx); err != nil {
			var zero T
			return zero, err
		}
	}
	return op(ctx)
}
