// Package upsert writes records idempotently: lookup by key, then update or create
package upsert

import (
	"context"
	"errors"
	"time"

	"gscsync/internal/platform/logger"
	"gscsync/internal/platform/metrics"
	"gscsync/internal/platform/retry"
	"gscsync/internal/platform/throttle"
	"gscsync/internal/services/searchsync/domain"

	gobreaker "github.com/sony/gobreaker/v2"
)

// DefaultPolicy retries each call 5 times, 1s doubling to 30s
var DefaultPolicy = retry.Policy{Attempts: 5, Base: time.Second, Max: 30 * time.Second}

// DefaultRate is the destination budget in calls per second
const DefaultRate = 3.0

// Options configures a Client
type Options struct {
	// Name labels the breaker and logs, usually the destination kind
	Name string
	// RatePerSec defaults to DefaultRate; negative disables limiting
	RatePerSec float64
	Policy     retry.Policy
	Breaker    BreakerSettings
	Metrics    *metrics.Sync
	Sleep      retry.Sleeper
}

// Client owns its rate budget; parallel runs need separate clients.
// Concurrent upserts of the same key may both create.
type Client struct {
	dst     domain.Destination
	thr     *throttle.Throttle
	policy  retry.Policy
	sleep   retry.Sleeper
	cb      *gobreaker.CircuitBreaker[any]
	metrics *metrics.Sync
}

// New builds a Client over dst
func New(dst domain.Destination, o Options) *Client {
	if o.RatePerSec == 0 {
		o.RatePerSec = DefaultRate
	}
	if o.Policy.Attempts == 0 {
		o.Policy = DefaultPolicy
	}
	if o.Sleep == nil {
		o.Sleep = retry.SleepCtx
	}
	if o.Name == "" {
		o.Name = "destination"
	}
	return &Client{
		dst:     dst,
		thr:     throttle.New(o.RatePerSec),
		policy:  o.Policy,
		sleep:   o.Sleep,
		cb:      newBreaker(o.Name, o.Breaker, o.Metrics),
		metrics: o.Metrics,
	}
}

// Upsert writes rec into table, overwriting every property of an existing record
func (c *Client) Upsert(ctx context.Context, table string, rec domain.Record) (domain.Outcome, error) {
	var (
		id    string
		found bool
	)
	err := c.call(ctx, "lookup", func(ctx context.Context) error {
		var err error
		id, found, err = c.dst.Lookup(ctx, table, rec.Key)
		return err
	})
	if err != nil {
		c.metrics.IncUpsert(table, metrics.OutcomeFailed)
		return "", err
	}

	if found {
		err = c.call(ctx, "update", func(ctx context.Context) error {
			return c.dst.Update(ctx, table, id, rec)
		})
		return c.done(ctx, table, rec.Key, domain.OutcomeUpdated, err)
	}
	err = c.call(ctx, "create", func(ctx context.Context) error {
		_, err := c.dst.Create(ctx, table, rec)
		return err
	})
	return c.done(ctx, table, rec.Key, domain.OutcomeCreated, err)
}

// Validate checks table against the record schema for mode under the same
// throttle, retry budget and breaker as writes
func (c *Client) Validate(ctx context.Context, table string, mode domain.Mode) error {
	return c.call(ctx, "validate", func(ctx context.Context) error {
		return c.dst.Validate(ctx, table, mode)
	})
}

func (c *Client) done(ctx context.Context, table, key string, o domain.Outcome, err error) (domain.Outcome, error) {
	if err != nil {
		c.metrics.IncUpsert(table, metrics.OutcomeFailed)
		return "", err
	}
	c.metrics.IncUpsert(table, string(o))
	logger.C(ctx).Debug().Str("table", table).Str("key", key).Str("outcome", string(o)).Msg("upserted")
	return o, nil
}

// call spends one throttle slot per attempt, retries included
func (c *Client) call(ctx context.Context, op string, fn func(context.Context) error) error {
	return retry.Do(ctx, c.policy, func(ctx context.Context) error {
		if err := c.thr.Wait(ctx); err != nil {
			return retry.Permanent(err)
		}
		if c.cb == nil {
			return fn(ctx)
		}
		_, err := c.cb.Execute(func() (any, error) { return nil, fn(ctx) })
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return retry.Permanent(err)
		}
		return err
	},
		retry.WithSleep(c.sleep),
		retry.OnRetry(func(attempt int, wait time.Duration, err error) {
			c.metrics.IncRetry(op)
			logger.C(ctx).Warn().Err(err).Str("op", op).Int("attempt", attempt).Dur("wait", wait).
				Msg("destination call failed, retrying")
		}),
	)
}
