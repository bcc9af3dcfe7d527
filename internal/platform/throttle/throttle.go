// Package throttle enforces a minimum interval between outbound calls
package throttle

import (
	"context"

	"golang.org/x/time/rate"
)

// Throttle spaces calls at most perSec per second with no burst.
// Each client owns its own Throttle; there is no shared package state.
type Throttle struct {
	lim *rate.Limiter
}

// New builds a Throttle; perSec <= 0 disables limiting
func New(perSec float64) *Throttle {
	if perSec <= 0 {
		return &Throttle{lim: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Throttle{lim: rate.NewLimiter(rate.Limit(perSec), 1)}
}

// Wait blocks until the next call is allowed or ctx is done. A nil Throttle never blocks.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil {
		return ctx.Err()
	}
	return t.lim.Wait(ctx)
}
