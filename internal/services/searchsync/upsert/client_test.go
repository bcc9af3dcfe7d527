package upsert

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	perr "gscsync/internal/platform/errors"
	"gscsync/internal/platform/metrics"
	"gscsync/internal/platform/retry"
	kit "gscsync/internal/platform/testkit"
	"gscsync/internal/services/searchsync/domain"

	"github.com/prometheus/client_golang/prometheus/testutil"
	gobreaker "github.com/sony/gobreaker/v2"
)

// memDest is an in-memory destination with per-op failure injection
type memDest struct {
	mu     sync.Mutex
	tables map[string]map[string]domain.Record // table -> id -> record
	seq    int
	calls  map[string]int
	fail   map[string][]error // op -> errors returned by successive calls
}

func newMem() *memDest {
	return &memDest{tables: map[string]map[string]domain.Record{}, calls: map[string]int{}, fail: map[string][]error{}}
}

func (m *memDest) next(op string) error {
	m.calls[op]++
	if q := m.fail[op]; len(q) > 0 {
		m.fail[op] = q[1:]
		return q[0]
	}
	return nil
}

func (m *memDest) Lookup(_ context.Context, table, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.next("lookup"); err != nil {
		return "", false, err
	}
	for id, r := range m.tables[table] {
		if r.Key == key {
			return id, true, nil
		}
	}
	return "", false, nil
}

func (m *memDest) Create(_ context.Context, table string, rec domain.Record) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.next("create"); err != nil {
		return "", err
	}
	if m.tables[table] == nil {
		m.tables[table] = map[string]domain.Record{}
	}
	m.seq++
	id := fmt.Sprintf("id-%d", m.seq)
	m.tables[table][id] = rec
	return id, nil
}

func (m *memDest) Update(_ context.Context, table, id string, rec domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.next("update"); err != nil {
		return err
	}
	if _, ok := m.tables[table][id]; !ok {
		return perr.ErrNotFound
	}
	m.tables[table][id] = rec
	return nil
}

func (m *memDest) Validate(context.Context, string, domain.Mode) error { return nil }

func newClient(dst domain.Destination, sl *kit.Sleeps, m *metrics.Sync) *Client {
	return New(dst, Options{RatePerSec: -1, Sleep: sl.Sleep, Metrics: m})
}

func rec(key, country string, clicks float64) domain.Record {
	return domain.Record{Mode: domain.ModeDetail, Key: key, Country: country, Metrics: domain.Metrics{Clicks: clicks}}
}

func TestUpsert_Idempotent(t *testing.T) {
	dst := newMem()
	c := newClient(dst, &kit.Sleeps{}, nil)
	ctx := context.Background()

	o1, err := c.Upsert(ctx, "db", rec("k", "fra", 1))
	if err != nil || o1 != domain.OutcomeCreated {
		t.Fatalf("first = %q, %v", o1, err)
	}
	last := rec("k", "", 7)
	o2, err := c.Upsert(ctx, "db", last)
	if err != nil || o2 != domain.OutcomeUpdated {
		t.Fatalf("second = %q, %v", o2, err)
	}
	if n := len(dst.tables["db"]); n != 1 {
		t.Fatalf("records = %d", n)
	}
	for _, got := range dst.tables["db"] {
		if got != last {
			t.Fatalf("stored %+v, want the last record with no merge %+v", got, last)
		}
	}
}

func TestUpsert_RetriesTransient(t *testing.T) {
	dst := newMem()
	busy := perr.FromHTTPStatus("notion", 503, "", 0)
	dst.fail["create"] = []error{busy, busy}
	sl := &kit.Sleeps{}
	m := metrics.New()
	c := newClient(dst, sl, m)

	o, err := c.Upsert(context.Background(), "db", rec("k", "fra", 1))
	if err != nil || o != domain.OutcomeCreated {
		t.Fatalf("Upsert = %q, %v", o, err)
	}
	if dst.calls["create"] != 3 {
		t.Fatalf("create calls = %d", dst.calls["create"])
	}
	if len(sl.Waits()) != 2 || sl.Waits()[0] != time.Second || sl.Waits()[1] != 2*time.Second {
		t.Fatalf("waits = %v", sl.Waits())
	}
	if got := testutil.ToFloat64(m.Retries.WithLabelValues("create")); got != 2 {
		t.Fatalf("retry metric = %v", got)
	}
}

func TestUpsert_RetryAfterHonoredUpToCap(t *testing.T) {
	dst := newMem()
	dst.fail["lookup"] = []error{
		perr.FromHTTPStatus("notion", 429, "", 5*time.Second),
		perr.FromHTTPStatus("notion", 429, "", 2*time.Minute),
	}
	sl := &kit.Sleeps{}
	if _, err := newClient(dst, sl, nil).Upsert(context.Background(), "db", rec("k", "", 0)); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if len(sl.Waits()) != 2 || sl.Waits()[0] != 5*time.Second || sl.Waits()[1] != 30*time.Second {
		t.Fatalf("waits = %v", sl.Waits())
	}
}

func TestUpsert_ExhaustedFails(t *testing.T) {
	dst := newMem()
	busy := perr.FromHTTPStatus("notion", 502, "", 0)
	dst.fail["update"] = []error{busy, busy, busy, busy, busy}
	m := metrics.New()
	c := newClient(dst, &kit.Sleeps{}, m)
	ctx := context.Background()
	if _, err := c.Upsert(ctx, "db", rec("k", "", 1)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := c.Upsert(ctx, "db", rec("k", "", 2))
	if !errors.Is(err, retry.ErrExhausted) {
		t.Fatalf("want exhausted, got %v", err)
	}
	if dst.calls["update"] != 5 {
		t.Fatalf("update calls = %d", dst.calls["update"])
	}
	if got := testutil.ToFloat64(m.Upserts.WithLabelValues("db", metrics.OutcomeFailed)); got != 1 {
		t.Fatalf("failed metric = %v", got)
	}
	if got := testutil.ToFloat64(m.Upserts.WithLabelValues("db", metrics.OutcomeCreated)); got != 1 {
		t.Fatalf("created metric = %v", got)
	}
}

func TestUpsert_PermanentNotRetried(t *testing.T) {
	dst := newMem()
	dst.fail["create"] = []error{perr.FromHTTPStatus("notion", 400, "validation_error", 0)}
	_, err := newClient(dst, &kit.Sleeps{}, nil).Upsert(context.Background(), "db", rec("k", "", 0))
	if perr.HTTPStatusOf(err) != 400 || dst.calls["create"] != 1 {
		t.Fatalf("err = %v calls = %d", err, dst.calls["create"])
	}
}

func TestUpsert_ThrottleCoversEveryCall(t *testing.T) {
	dst := newMem()
	c := New(dst, Options{RatePerSec: 50}) // 20ms spacing
	ctx := context.Background()
	start := time.Now()
	for i := range 3 {
		if _, err := c.Upsert(ctx, "db", rec(fmt.Sprint(i), "", 0)); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}
	// 6 calls: 3 lookups and 3 creates, five waits
	if el := time.Since(start); el < 90*time.Millisecond {
		t.Fatalf("6 calls at 50/s took %v", el)
	}
}

func TestUpsert_CanceledWhileThrottled(t *testing.T) {
	dst := newMem()
	c := New(dst, Options{RatePerSec: 0.5}) // the lookup spends the only slot for 2s
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.Upsert(ctx, "db", rec("b", "", 0)); err == nil {
		t.Fatalf("expected the create to fail waiting on the throttle")
	}
	if dst.calls["lookup"] != 1 || dst.calls["create"] != 0 {
		t.Fatalf("calls = %v", dst.calls)
	}
}

func TestUpsert_BreakerOpens(t *testing.T) {
	dst := newMem()
	busy := perr.FromHTTPStatus("notion", 503, "", 0)
	dst.fail["lookup"] = []error{busy, busy, busy, busy, busy}
	m := metrics.New()
	c := New(dst, Options{
		Name:       "notion",
		RatePerSec: -1,
		Sleep:      (&kit.Sleeps{}).Sleep,
		Metrics:    m,
		Breaker:    BreakerSettings{Failures: 2, Timeout: time.Hour},
	})

	_, err := c.Upsert(context.Background(), "db", rec("k", "", 0))
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("want open breaker, got %v", err)
	}
	if dst.calls["lookup"] != 2 {
		t.Fatalf("lookup calls = %d", dst.calls["lookup"])
	}
	if got := testutil.ToFloat64(m.Breaker.WithLabelValues("notion")); got != 2 {
		t.Fatalf("breaker gauge = %v", got)
	}
}

func TestUpsert_BreakerIgnoresPermanentErrors(t *testing.T) {
	dst := newMem()
	bad := perr.FromHTTPStatus("notion", 400, "", 0)
	dst.fail["create"] = []error{bad, bad, bad}
	c := New(dst, Options{RatePerSec: -1, Breaker: BreakerSettings{Failures: 1}})
	for i := range 3 {
		_, err := c.Upsert(context.Background(), "db", rec(fmt.Sprint(i), "", 0))
		if errors.Is(err, gobreaker.ErrOpenState) {
			t.Fatalf("rejected records must not open the breaker")
		}
	}
	if _, err := c.Upsert(context.Background(), "db", rec("ok", "", 0)); err != nil {
		t.Fatalf("Upsert after rejections: %v", err)
	}
}
