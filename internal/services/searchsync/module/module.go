// Package module wires the search analytics sync from config and shared deps
package module

import (
	"context"

	"gscsync/internal/adapters/notion"
	"gscsync/internal/adapters/searchconsole"
	"gscsync/internal/modkit"
	perr "gscsync/internal/platform/errors"
	phttp "gscsync/internal/platform/net/http"
	"gscsync/internal/services/searchsync/domain"
	"gscsync/internal/services/searchsync/repo"
	"gscsync/internal/services/searchsync/service"
	"gscsync/internal/services/searchsync/upsert"
)

// Ports defines the sync module ports
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements the sync module
type Module struct {
	deps  modkit.Deps
	opts  Options
	ports Ports
}

// New builds the analytics client, the destination and the orchestrator.
// Configuration problems surface here, before any remote call.
func New(ctx context.Context, deps modkit.Deps, opts Options) (*Module, error) {
	sc, err := searchconsole.NewFromServiceAccount(ctx, opts.ServiceAccount, deps.HTTP,
		searchconsole.Options{Metrics: deps.Metrics})
	if err != nil {
		return nil, err
	}
	return NewWithSource(deps, opts, repo.NewAnalytics(sc))
}

// NewWithSource is New with an already built analytics source
func NewWithSource(deps modkit.Deps, opts Options, src domain.SearchAnalytics) (*Module, error) {
	schema, err := domain.DefaultSchema(opts.Props)
	if err != nil {
		return nil, err
	}
	dst, rate, err := destination(deps, opts, schema)
	if err != nil {
		return nil, err
	}
	router, err := upsert.NewRouter(opts.Table, opts.ByDevice)
	if err != nil {
		return nil, err
	}

	up := upsert.New(dst, upsert.Options{
		Name:       opts.Destination,
		RatePerSec: rate,
		Breaker:    opts.Breaker,
		Metrics:    deps.Metrics,
	})
	svc := service.New(src, up, service.Config{
		Router:              router,
		RouteDetailByDevice: opts.RouteDetailByDevice,
		SkipSchemaCheck:     opts.SkipSchemaCheck,
	}, service.WithMetrics(deps.Metrics))

	return &Module{deps: deps, opts: opts, ports: Ports{Runner: svc}}, nil
}

// destination picks the store; SQL destinations are not rate limited
func destination(deps modkit.Deps, o Options, schema domain.Schema) (domain.Destination, float64, error) {
	switch o.Destination {
	case DestPostgres:
		if deps.PG == nil {
			return nil, 0, perr.Configf("SERVICE_PGSQL_DBURL", "postgres destination needs SERVICE_PGSQL_DBURL")
		}
		return repo.NewPG(deps.PG, schema), -1, nil
	case DestClickhouse:
		if deps.CH == nil {
			return nil, 0, perr.Configf("SERVICE_CLICKHOUSE_DBURL", "clickhouse destination needs SERVICE_CLICKHOUSE_DBURL")
		}
		return repo.NewCH(deps.CH, schema), -1, nil
	default:
		nc, err := notion.New(notion.Options{
			Token:   o.NotionToken,
			BaseURL: o.NotionBaseURL,
			Version: o.NotionVersion,
			HTTP:    deps.HTTP,
			Metrics: deps.Metrics,
		})
		if err != nil {
			return nil, 0, err
		}
		return repo.NewNotion(nc, schema), o.RatePerSec, nil
	}
}

// Name returns the module name
func (m *Module) Name() string { return "searchsync" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Options returns the options the module was built with
func (m *Module) Options() Options { return m.opts }

// MountRoutes is a no-op, the sync has no routes
func (m *Module) MountRoutes(_ phttp.Router) {}
