// Package fetch pages through search analytics results
package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	perr "gscsync/internal/platform/errors"
	"gscsync/internal/platform/logger"
	"gscsync/internal/platform/metrics"
	"gscsync/internal/platform/retry"
	tim "gscsync/internal/platform/time"
	"gscsync/internal/services/searchsync/domain"
)

// MaxPageSize is the provider row limit per request
const MaxPageSize = 25000

// DefaultPolicy retries a page 5 times, 1s doubling to 60s
var DefaultPolicy = retry.Policy{Attempts: 5, Base: time.Second, Max: 60 * time.Second}

// Stats counts what a pagination pass saw
type Stats struct {
	Pages     int
	Rows      int
	Malformed int
}

// Paginator advances startRow until a short or empty page
type Paginator struct {
	src      domain.SearchAnalytics
	policy   retry.Policy
	pageSize int
	sleep    retry.Sleeper
	metrics  *metrics.Sync
	label    string
}

// Option configures a Paginator
type Option func(*Paginator)

// WithPageSize sets rows per request, clamped to [1, MaxPageSize]
func WithPageSize(n int) Option {
	return func(p *Paginator) { p.pageSize = min(max(n, 1), MaxPageSize) }
}

// WithPolicy overrides the per-page retry budget
func WithPolicy(pol retry.Policy) Option { return func(p *Paginator) { p.policy = pol } }

// WithSleep swaps the backoff sleeper
func WithSleep(s retry.Sleeper) Option { return func(p *Paginator) { p.sleep = s } }

// WithMetrics records pages under the given mode label
func WithMetrics(m *metrics.Sync, mode string) Option {
	return func(p *Paginator) { p.metrics, p.label = m, mode }
}

// New builds a Paginator over src
func New(src domain.SearchAnalytics, opts ...Option) *Paginator {
	p := &Paginator{
		src:      src,
		policy:   DefaultPolicy,
		pageSize: MaxPageSize,
		sleep:    retry.SleepCtx,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// PageSize is the effective rows per request
func (p *Paginator) PageSize() int { return p.pageSize }

// Each calls fn for every well formed row of q, page after page.
// Rows whose key count does not match q.Dimensions are dropped and counted.
// A page that keeps failing ends the pass with an error wrapping domain.ErrFetchExhausted;
// an error from fn ends it as is.
func (p *Paginator) Each(ctx context.Context, q domain.Query, fn func(domain.Row) error) (Stats, error) {
	var st Stats
	log := logger.C(ctx)
	q.RowLimit = p.pageSize
	q.StartRow = 0

	for {
		rows, err := retry.DoValue(ctx, p.policy, func(ctx context.Context) ([]domain.Row, error) {
			return p.src.Query(ctx, q)
		},
			retry.WithSleep(p.sleep),
			retry.OnRetry(func(attempt int, wait time.Duration, err error) {
				p.metrics.IncRetry("fetch")
				log.Warn().Err(err).Int("attempt", attempt).Dur("wait", wait).
					Int("start_row", q.StartRow).Msg("search analytics page failed, retrying")
			}),
		)
		if err != nil {
			if errors.Is(err, retry.ErrExhausted) {
				err = fmt.Errorf("%w: %s start_row=%d: %w", domain.ErrFetchExhausted, windowOf(q), q.StartRow, err)
			}
			return st, perr.WithOp(err, "fetch")
		}

		st.Pages++
		malformed := 0
		for _, r := range rows {
			if len(r.Keys) != len(q.Dimensions) {
				malformed++
				log.Debug().Strs("keys", r.Keys).Int("want", len(q.Dimensions)).Msg("dropping malformed row")
				continue
			}
			st.Rows++
			if err := fn(r); err != nil {
				st.Malformed += malformed
				return st, err
			}
		}
		st.Malformed += malformed
		p.metrics.AddPage(p.label, len(rows)-malformed, malformed)

		if len(rows) < p.pageSize {
			return st, nil
		}
		q.StartRow += len(rows)
	}
}

func windowOf(q domain.Query) string {
	return tim.FormatDate(q.Start) + ".." + tim.FormatDate(q.End)
}
