package pipeline

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultURLDelay is the default spacing between page navigations.
const DefaultURLDelay = time.Second

// Pacer enforces a minimum spacing between the starts of successive
// navigations. It uses a token bucket with a burst of one, so the first
// Wait returns immediately and each later one waits out the remainder
// of the delay.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer returns a pacer spacing calls delay apart.
// A non-positive delay disables pacing.
func NewPacer(delay time.Duration) *Pacer {
	if delay <= 0 {
		return &Pacer{}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(delay), 1)}
}

// Wait blocks until the next navigation may start.
// Returns an error if the context is canceled before the wait completes.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return ctx.Err()
	}
	return p.limiter.Wait(ctx)
}
