// Package http serves the ops endpoints of a running sync
package http

import (
	"context"
	"net/http"
	"time"

	"gscsync/internal/core/version"
	phttp "gscsync/internal/platform/net/http"
	"gscsync/internal/platform/store"
)

// Deps are the handler dependencies; nil checks are reported as skipped
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	Metrics     http.Handler
	Checks      map[string]store.Pinger
	Now         func() time.Time
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Started string `json:"started"`
	Uptime  int64  `json:"uptime"`

	Build version.BuildInfo `json:"build"`
}

// ReadyCheck is one dependency probe
type ReadyCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // ok fail skipped
	Error  string `json:"error,omitempty"`
}

// ReadyResponse summarizes readiness
type ReadyResponse struct {
	Status string       `json:"status"` // ok fail
	Checks []ReadyCheck `json:"checks"`
}

type handlers struct{ deps Deps }

// Register mounts /healthz, /readyz and /metrics
func Register(r phttp.Router, d Deps) {
	if d.Now == nil {
		d.Now = time.Now
	}
	h := &handlers{deps: d}
	r.Get("/healthz", h.health)
	r.Get("/readyz", h.ready)
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics)
	}
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	phttp.JSON(w, http.StatusOK, HealthResponse{
		OK:      true,
		Service: h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(h.deps.Now().Sub(h.deps.StartedAt) / time.Second),
		Build:   version.Info(),
	})
}

func (h *handlers) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := ReadyResponse{Status: "ok", Checks: []ReadyCheck{}}
	for _, name := range []string{"pg", "ch"} {
		c := ReadyCheck{Name: name, Status: "skipped"}
		if p := h.deps.Checks[name]; p != nil {
			c.Status = "ok"
			if err := p.Ping(ctx); err != nil {
				c.Status, c.Error = "fail", err.Error()
				resp.Status = "fail"
			}
		}
		resp.Checks = append(resp.Checks, c)
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	phttp.JSON(w, status, resp)
}
