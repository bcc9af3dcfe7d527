// Package retry runs an operation under an explicit attempt budget with
// capped exponential backoff
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	perr "gscsync/internal/platform/errors"
)

// ErrExhausted marks an error returned after the last allowed attempt failed
var ErrExhausted = errors.New("retries exhausted")

// Policy is an attempt budget: Attempts total tries, waits Base, 2*Base, 4*Base ... capped at Max
type Policy struct {
	Attempts int
	Base     time.Duration
	Max      time.Duration
}

// Backoff returns the wait after the given failed attempt (1-based)
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.Base
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.Max > 0 && d >= p.Max {
			return p.Max
		}
	}
	if p.Max > 0 && d > p.Max {
		return p.Max
	}
	return d
}

func (p Policy) attempts() int { return max(p.Attempts, 1) }

// Sleeper waits d or returns early with ctx.Err()
type Sleeper func(ctx context.Context, d time.Duration) error

type settings struct {
	sleep     Sleeper
	retryable func(error) bool
	onRetry   func(attempt int, wait time.Duration, err error)
}

// Option customizes a Do call
type Option func(*settings)

// WithSleep swaps the sleeper, tests use it to avoid real waits
func WithSleep(s Sleeper) Option { return func(c *settings) { c.sleep = s } }

// WithRetryable sets the predicate deciding whether an error is worth another try
func WithRetryable(fn func(error) bool) Option { return func(c *settings) { c.retryable = fn } }

// OnRetry is called before each backoff wait
func OnRetry(fn func(attempt int, wait time.Duration, err error)) Option {
	return func(c *settings) { c.onRetry = fn }
}

type permanent struct{ err error }

func (p permanent) Error() string { return p.err.Error() }
func (p permanent) Unwrap() error { return p.err }

// Permanent marks err as not retryable regardless of the predicate
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanent{err: err}
}

// Do calls op until it succeeds, returns a non-retryable error, or the budget runs out.
// Exhaustion returns an error matching ErrExhausted that still wraps the last failure.
// A server Retry-After hint longer than the computed backoff is honored up to Policy.Max.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error, opts ...Option) error {
	_, err := DoValue(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, opts...)
	return err
}

// DoValue is Do for operations that produce a value
func DoValue[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	s := settings{sleep: SleepCtx, retryable: perr.IsTransient}
	for _, o := range opts {
		o(&s)
	}

	var zero T
	n := p.attempts()
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}

		var pe permanent
		if errors.As(err, &pe) {
			return zero, pe.err
		}
		if !s.retryable(err) {
			return zero, err
		}
		if attempt >= n {
			return zero, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, n, err)
		}

		wait := p.Backoff(attempt)
		if hint := perr.RetryAfter(err); hint > wait {
			wait = hint
			if p.Max > 0 && wait > p.Max {
				wait = p.Max
			}
		}
		if s.onRetry != nil {
			s.onRetry(attempt, wait, err)
		}
		if serr := s.sleep(ctx, wait); serr != nil {
			return zero, serr
		}
	}
}

// SleepCtx waits d unless ctx is done first
func SleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
