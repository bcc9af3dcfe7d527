// Package module mounts the ops endpoints
package module

import (
	"time"

	"gscsync/internal/modkit"
	phttp "gscsync/internal/platform/net/http"
	"gscsync/internal/platform/net/middleware"
	"gscsync/internal/platform/store"
	opshttp "gscsync/internal/services/ops/http"
)

// Checks are readiness probes by name; inject with modkit.WithPorts to override the store ones
type Checks map[string]store.Pinger

// Module implements modkit.Module for the ops routes
type Module struct {
	deps      modkit.Deps
	name      string
	checks    Checks
	startedAt time.Time
}

// New constructs the ops module
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("ops")}, opts...)...)
	checks, ok := modkit.Injected[Checks](b)
	if !ok {
		checks = Checks{}
		if p, ok := deps.PG.(store.Pinger); ok {
			checks["pg"] = p
		}
		if p, ok := deps.CH.(store.Pinger); ok {
			checks["ch"] = p
		}
	}
	return &Module{deps: deps, name: b.Name, checks: checks, startedAt: time.Now()}
}

// MountRoutes mounts /healthz, /readyz and /metrics at the root.
// It installs middleware, so r must not have routes yet.
func (m *Module) MountRoutes(r phttp.Router) {
	cfg := m.deps.Cfg.Prefix("METRICS_")
	r.Use(
		middleware.CORS(middleware.CORSOptions{
			AllowedOrigins: cfg.MayCSV("CORS_ORIGINS", nil),
			MaxAge:         300,
		}),
		middleware.RateLimitByIP(cfg.MayInt("RATE_LIMIT", 0), cfg.MayDuration("RATE_WINDOW", time.Minute)),
	)
	opshttp.Register(r, opshttp.Deps{
		ServiceName: "gscsync",
		StartedAt:   m.startedAt,
		Metrics:     m.deps.Metrics.Handler(),
		Checks:      m.checks,
	})
}

// Name returns the module name
func (m *Module) Name() string { return m.name }

// Ports returns the readiness checks
func (m *Module) Ports() any { return m.checks }
