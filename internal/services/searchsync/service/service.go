// Package service runs a sync: window, fetch, key or aggregate, then upsert
package service

import (
	"context"
	"sync"
	"time"

	perr "gscsync/internal/platform/errors"
	"gscsync/internal/platform/logger"
	"gscsync/internal/platform/metrics"
	"gscsync/internal/platform/retry"
	tim "gscsync/internal/platform/time"
	"gscsync/internal/services/searchsync/aggregate"
	"gscsync/internal/services/searchsync/domain"
	"gscsync/internal/services/searchsync/fetch"
	"gscsync/internal/services/searchsync/upsert"

	"github.com/google/uuid"
)

// Upserter writes one record and checks destination tables; upsert.Client implements it
type Upserter interface {
	Upsert(ctx context.Context, table string, rec domain.Record) (domain.Outcome, error)
	Validate(ctx context.Context, table string, mode domain.Mode) error
}

// Config holds the run independent settings
type Config struct {
	Router              upsert.Router
	RouteDetailByDevice bool
	SkipSchemaCheck     bool
	FetchPolicy         retry.Policy
	FetchSleep          retry.Sleeper
}

// Service is the sync orchestrator
type Service struct {
	src     domain.SearchAnalytics
	up      Upserter
	cfg     Config
	metrics *metrics.Sync
	newID   func() string
	now     func() time.Time

	mu        sync.Mutex
	validated map[string]bool
}

// Option customizes a Service
type Option func(*Service)

// WithMetrics records run metrics
func WithMetrics(m *metrics.Sync) Option { return func(s *Service) { s.metrics = m } }

// WithClock swaps the clock, tests use it
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// New wires the orchestrator
func New(src domain.SearchAnalytics, up Upserter, cfg Config, opts ...Option) *Service {
	s := &Service{
		src:       src,
		up:        up,
		cfg:       cfg,
		newID:     uuid.NewString,
		now:       time.Now,
		validated: map[string]bool{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ListSites returns the properties visible to the credentials
func (s *Service) ListSites(ctx context.Context) ([]domain.Site, error) {
	return s.src.ListSites(ctx)
}

// Run syncs the window. Per record failures are collected in the report;
// only configuration, fetch exhaustion and cancellation fail the run.
func (s *Service) Run(ctx context.Context, p domain.Params) (rep domain.Report, err error) {
	if p.SiteURL == "" {
		return rep, perr.Configf("site-url", "site-url is required")
	}
	if p.Mode == "" {
		p.Mode = domain.ModeDetail
	}

	start := s.now()
	rep = domain.Report{RunID: s.newID(), SiteURL: p.SiteURL, Mode: p.Mode, Window: p.Window, DryRun: p.DryRun}
	ctx = logger.WithRun(ctx, rep.RunID, p.SiteURL, string(p.Mode))
	log := logger.C(ctx)
	defer func() {
		rep.Duration = s.now().Sub(start)
		s.metrics.FinishRun(err == nil, rep.Duration)
	}()

	router := s.routerFor(p.Mode)
	if !p.DryRun && !s.cfg.SkipSchemaCheck {
		if err := s.validate(ctx, router, p.Mode); err != nil {
			return rep, err
		}
	}

	log.Info().
		Str("start", tim.FormatDate(p.Window.Start)).
		Str("end", tim.FormatDate(p.Window.End)).
		Int("days", p.Window.Len()).
		Bool("dry_run", p.DryRun).
		Msg("Sync window")

	r := run{Service: s, p: p, router: router, rep: &rep}
	if p.Mode == domain.ModeWeeklyDevice {
		err = r.weekly(ctx)
	} else {
		err = r.detail(ctx)
	}
	if err != nil {
		log.Error().Err(err).Msg("sync failed")
		return rep, err
	}
	log.Info().
		Int("created", rep.Counts.Created).
		Int("updated", rep.Counts.Updated).
		Int("failed", rep.Counts.Failed).
		Msg("sync done")
	return rep, nil
}

func (s *Service) routerFor(m domain.Mode) upsert.Router {
	if m == domain.ModeDetail && !s.cfg.RouteDetailByDevice {
		return s.cfg.Router.DefaultOnly()
	}
	return s.cfg.Router
}

// validate checks each routed table once per process
func (s *Service) validate(ctx context.Context, r upsert.Router, m domain.Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range r.Tables() {
		k := string(m) + "|" + t
		if s.validated[k] {
			continue
		}
		if err := s.up.Validate(ctx, t, m); err != nil {
			return err
		}
		s.validated[k] = true
		logger.C(ctx).Debug().Str("table", t).Msg("destination schema ok")
	}
	return nil
}

func (s *Service) paginator(m domain.Mode, rowLimit int) *fetch.Paginator {
	opts := []fetch.Option{fetch.WithMetrics(s.metrics, string(m))}
	if rowLimit > 0 {
		opts = append(opts, fetch.WithPageSize(rowLimit))
	}
	if s.cfg.FetchPolicy.Attempts > 0 {
		opts = append(opts, fetch.WithPolicy(s.cfg.FetchPolicy))
	}
	if s.cfg.FetchSleep != nil {
		opts = append(opts, fetch.WithSleep(s.cfg.FetchSleep))
	}
	return fetch.New(s.src, opts...)
}

// run is the state of one Run call
type run struct {
	*Service
	p      domain.Params
	router upsert.Router
	rep    *domain.Report
}

func (r *run) detail(ctx context.Context) error {
	log := logger.C(ctx)
	pag := r.paginator(domain.ModeDetail, r.p.RowLimit)

	for day := range r.p.Window.Days() {
		dr := domain.DateReport{Date: day}
		q := domain.Query{
			SiteURL:    r.p.SiteURL,
			Start:      day,
			End:        day,
			Dimensions: domain.ModeDetail.Dimensions(),
			Filters:    r.p.Filters,
		}
		st, err := pag.Each(ctx, q, func(row domain.Row) error {
			k, err := domain.DetailKeyFromRow(row)
			if err != nil {
				dr.Malformed++
				log.Debug().Err(err).Strs("keys", row.Keys).Msg("dropping malformed row")
				return nil
			}
			dr.Rows++
			return r.write(ctx, domain.DetailRecord(k, row.Metrics), &dr.Counts)
		})
		dr.Malformed += st.Malformed
		r.rep.Rows += dr.Rows
		r.rep.Malformed += dr.Malformed
		r.rep.Dates = append(r.rep.Dates, dr)
		addCounts(&r.rep.Counts, dr.Counts)
		if err != nil {
			return err
		}

		ev := log.Info().
			Str("date", tim.FormatDate(day)).
			Int("rows", dr.Rows).
			Int("created", dr.Created).
			Int("updated", dr.Updated).
			Int("failed", dr.Failed)
		if dr.Malformed > 0 {
			ev = ev.Int("malformed", dr.Malformed)
		}
		ev.Msg("rows processed")
	}
	return nil
}

func (r *run) weekly(ctx context.Context) error {
	log := logger.C(ctx)
	agg := aggregate.New()
	q := domain.Query{
		SiteURL:    r.p.SiteURL,
		Start:      r.p.Window.Start,
		End:        r.p.Window.End,
		Dimensions: domain.ModeWeeklyDevice.Dimensions(),
		Filters:    r.p.Filters,
	}
	st, err := r.paginator(domain.ModeWeeklyDevice, r.p.RowLimit).Each(ctx, q, func(row domain.Row) error {
		d, err := tim.ParseDate(row.Keys[0])
		if err != nil {
			r.rep.Malformed++
			log.Debug().Strs("keys", row.Keys).Msg("dropping malformed row")
			return nil
		}
		return agg.Add(aggregate.Sample{Date: d, Device: row.Keys[1], Metrics: row.Metrics})
	})
	r.rep.Malformed += st.Malformed
	r.rep.Rows = agg.Samples()
	if err != nil {
		return err
	}

	entries, err := agg.Finalize()
	if err != nil {
		return err
	}
	r.rep.Buckets = len(entries)
	for _, e := range entries {
		if err := r.write(ctx, domain.WeeklyRecord(e.Key, e.Metrics), &r.rep.Counts); err != nil {
			return err
		}
	}
	log.Info().
		Int("buckets", len(entries)).
		Int("rows", r.rep.Rows).
		Int("created", r.rep.Counts.Created).
		Int("updated", r.rep.Counts.Updated).
		Int("failed", r.rep.Counts.Failed).
		Msg("buckets synced")
	return nil
}

// write upserts one record. A failed record is logged and counted; only
// cancellation is returned so the run stops at the next record.
func (r *run) write(ctx context.Context, rec domain.Record, c *domain.Counts) error {
	log := logger.C(ctx)
	table, err := r.router.Resolve(rec.Device)
	if err != nil {
		r.fail(ctx, c, rec.Key, "", err)
		return nil
	}
	if r.p.DryRun {
		c.Add(domain.OutcomeSkipped)
		r.metrics.IncUpsert(table, metrics.OutcomeSkipped)
		log.Info().Str("table", table).Str("key", rec.Key).
			Float64("clicks", rec.Clicks).Float64("impressions", rec.Impressions).
			Msg("dry run, would upsert")
		return nil
	}
	o, err := r.up.Upsert(ctx, table, rec)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		r.fail(ctx, c, rec.Key, table, err)
		return nil
	}
	c.Add(o)
	return nil
}

func (r *run) fail(ctx context.Context, c *domain.Counts, key, table string, err error) {
	c.Failed++
	r.rep.Failures = append(r.rep.Failures, domain.Failure{Key: key, Table: table, Err: err})
	ev := logger.C(ctx).Error().Err(err).Str("key", key).Str("table", table)
	if st := perr.HTTPStatusOf(err); st != 0 {
		ev = ev.Int("status", st)
	}
	ev.Msg("upsert failed")
}

func addCounts(dst *domain.Counts, c domain.Counts) {
	dst.Created += c.Created
	dst.Updated += c.Updated
	dst.Skipped += c.Skipped
	dst.Failed += c.Failed
}
