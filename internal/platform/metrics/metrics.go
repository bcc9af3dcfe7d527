// Package metrics holds the Prometheus collectors for sync runs.
// All helpers are nil-safe so callers can run without metrics.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "gscsync"

// Upsert outcomes used as label values
const (
	OutcomeCreated = "created"
	OutcomeUpdated = "updated"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Sync bundles the collectors on a dedicated registry
type Sync struct {
	Registry *prometheus.Registry

	Pages       *prometheus.CounterVec
	Rows        *prometheus.CounterVec
	Malformed   *prometheus.CounterVec
	Upserts     *prometheus.CounterVec
	Retries     *prometheus.CounterVec
	APIDuration *prometheus.HistogramVec
	Breaker     *prometheus.GaugeVec
	LastRun     *prometheus.GaugeVec
	RunSeconds  prometheus.Gauge
}

// New constructs and registers all collectors
func New() *Sync {
	reg := prometheus.NewRegistry()
	m := &Sync{
		Registry: reg,
		Pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "fetch_pages_total",
			Help: "Search analytics pages fetched.",
		}, []string{"mode"}),
		Rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "fetch_rows_total",
			Help: "Search analytics rows accepted.",
		}, []string{"mode"}),
		Malformed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "fetch_malformed_rows_total",
			Help: "Rows dropped because their key arity did not match the requested dimensions.",
		}, []string{"mode"}),
		Upserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "upserts_total",
			Help: "Destination upserts by table and outcome.",
		}, []string{"table", "outcome"}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "retries_total",
			Help: "Retry attempts scheduled by operation.",
		}, []string{"op"}),
		APIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "api_request_duration_seconds",
			Help:    "Latency of remote API calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "op"}),
		Breaker: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open).",
		}, []string{"name"}),
		LastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "last_run_timestamp_seconds",
			Help: "Unix time of the last finished run by result.",
		}, []string{"result"}),
		RunSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "last_run_duration_seconds",
			Help: "Wall time of the last run.",
		}),
	}
	reg.MustRegister(m.Pages, m.Rows, m.Malformed, m.Upserts, m.Retries, m.APIDuration, m.Breaker, m.LastRun, m.RunSeconds)
	return m
}

// AddPage counts one fetched page with its accepted and malformed rows
func (m *Sync) AddPage(mode string, rows, malformed int) {
	if m == nil {
		return
	}
	m.Pages.WithLabelValues(mode).Inc()
	m.Rows.WithLabelValues(mode).Add(float64(rows))
	if malformed > 0 {
		m.Malformed.WithLabelValues(mode).Add(float64(malformed))
	}
}

// IncUpsert counts one upsert outcome
func (m *Sync) IncUpsert(table, outcome string) {
	if m == nil {
		return
	}
	m.Upserts.WithLabelValues(table, outcome).Inc()
}

// IncRetry counts one scheduled retry
func (m *Sync) IncRetry(op string) {
	if m == nil {
		return
	}
	m.Retries.WithLabelValues(op).Inc()
}

// ObserveAPI records the latency of one remote call
func (m *Sync) ObserveAPI(service, op string, d time.Duration) {
	if m == nil {
		return
	}
	m.APIDuration.WithLabelValues(service, op).Observe(d.Seconds())
}

// SetBreaker records a circuit breaker state
func (m *Sync) SetBreaker(name string, state float64) {
	if m == nil {
		return
	}
	m.Breaker.WithLabelValues(name).Set(state)
}

// FinishRun stamps the run result and duration
func (m *Sync) FinishRun(ok bool, d time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.LastRun.WithLabelValues(result).SetToCurrentTime()
	m.RunSeconds.Set(d.Seconds())
}

// Handler serves the registry in the Prometheus text format
func (m *Sync) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Push sends the registry to a Pushgateway; a batch job is gone before any scrape
func (m *Sync) Push(ctx context.Context, gatewayURL, job string, grouping map[string]string) error {
	if m == nil || gatewayURL == "" {
		return nil
	}
	p := push.New(gatewayURL, job).Gatherer(m.Registry)
	for k, v := range grouping {
		p = p.Grouping(k, v)
	}
	return p.PushContext(ctx)
}
