// Package retry runs operations under a bounded retry policy with
// exponential or linear backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fwojciec/websum"
)

// Strategy selects how the delay grows between attempts.
type Strategy int

const (
	// Exponential waits BaseDelay * 2^i after failed attempt i.
	Exponential Strategy = iota

	// Linear waits BaseDelay * (i+1) after failed attempt i.
	Linear
)

// ParseStrategy converts a configuration value into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "", "exponential":
		return Exponential, nil
	case "linear":
		return Linear, nil
	}
	return 0, websum.Errorf(websum.EINVALID, "invalid backoff strategy %q: must be exponential or linear", s)
}

// Event describes a failed attempt that is about to be retried.
type Event struct {
	Operation string
	Attempt   int
	Delay     time.Duration
	Err       error
}

// Policy configures retries. The zero value makes a single attempt.
type Policy struct {
	// MaxRetries is the total number of attempts. Values below one
	// still make a single attempt.
	MaxRetries int

	BaseDelay time.Duration

	// MaxDelay caps a single delay. Zero means uncapped.
	MaxDelay time.Duration

	Strategy Strategy

	// OnRetry observes each retry. It cannot alter control flow.
	OnRetry func(Event)

	// Timer drives the waits between attempts. Nil uses a real timer.
	Timer backoff.Timer
}

// DefaultPolicy returns three attempts with exponential backoff starting
// at one second.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		Strategy:   Exponential,
	}
}

// Attempts returns the number of times an always-failing operation runs.
func (p Policy) Attempts() int {
	return max(1, p.MaxRetries)
}

// WithMaxRetries returns a copy of p with MaxRetries set to n.
func (p Policy) WithMaxRetries(n int) Policy {
	p.MaxRetries = n
	return p
}

func (p Policy) backOff() backoff.BackOff {
	if p.Strategy == Linear {
		return &linearBackOff{base: p.BaseDelay, max: p.MaxDelay}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	b.MaxInterval = p.MaxDelay
	if b.MaxInterval <= 0 {
		b.MaxInterval = 24 * time.Hour
	}
	b.Reset()
	return b
}

// Do runs op until it succeeds, fails with a non-retryable error, or the
// policy's attempts are used up. It returns op's value, the number of
// retries performed, and the final error.
//
// Non-retryable errors (see websum.IsRetryable) are returned unchanged.
// Exhaustion returns a *websum.Error that keeps the last cause's code and
// records the operation label and attempt count in Details.
func Do[T any](ctx context.Context, p Policy, label string, op func(ctx context.Context) (T, error)) (T, int, error) {
	var (
		result   T
		attempts int
		lastErr  error
	)

	operation := func() error {
		attempts++
		v, err := op(ctx)
		if err == nil {
			result = v
			return nil
		}
		lastErr = err
		if !websum.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, d time.Duration) {
		if p.OnRetry != nil {
			p.OnRetry(Event{Operation: label, Attempt: attempts, Delay: d, Err: err})
		}
	}

	b := backoff.WithContext(backoff.WithMaxRetries(p.backOff(), uint64(p.Attempts()-1)), ctx)
	err := backoff.RetryNotifyWithTimer(operation, b, notify, p.Timer)
	retries := max(0, attempts-1)
	if err == nil {
		return result, retries, nil
	}

	var zero T
	if lastErr == nil || !websum.IsRetryable(lastErr) {
		return zero, retries, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) && !errors.Is(lastErr, ctxErr) {
		return zero, retries, ctxErr
	}
	return zero, retries, exhausted(label, attempts, lastErr)
}

func exhausted(label string, attempts int, cause error) error {
	details := map[string]any{}
	maps.Copy(details, websum.ErrorDetails(cause))
	details["operation"] = label
	details["attempts"] = attempts
	return &websum.Error{
		Code:    websum.ErrorCode(cause),
		Message: fmt.Sprintf("%s failed after %d attempt(s): %s", label, attempts, websum.ErrorMessage(cause)),
		Details: details,
		Err:     cause,
	}
}

type linearBackOff struct {
	base, max time.Duration
	n         int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	d := b.base * time.Duration(b.n)
	if b.max > 0 && d > b.max {
		d = b.max
	}
	return d
}

func (b *linearBackOff) Reset() { b.n = 0 }
