package repo

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	perr "gscsync/internal/platform/errors"
	kit "gscsync/internal/platform/testkit"
	"gscsync/internal/services/searchsync/domain"
)

func schema(t *testing.T) domain.Schema {
	t.Helper()
	s, err := domain.DefaultSchema(nil)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	return s
}

func detailRec() domain.Record {
	d := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	return domain.DetailRecord(domain.DetailKey{Date: d, Query: "q", Page: "https://x.test/", Country: "", Device: "MOBILE"},
		domain.Metrics{Clicks: 3, Impressions: 10, CTR: 0.3, Position: 2})
}

func TestPG_Lookup(t *testing.T) {
	q := &fakeQ{results: [][][]any{{{"42"}}, nil}}
	p := NewPG(q, schema(t))
	ctx := context.Background()

	id, found, err := p.Lookup(ctx, "public.gsc_detail", "k1")
	if err != nil || !found || id != "42" {
		t.Fatalf("Lookup = %q %v %v", id, found, err)
	}
	kit.MustContain(t, q.calls[0].sql, `FROM "public"."gsc_detail" WHERE "key" = $1 LIMIT 1`)
	if q.calls[0].args[0] != "k1" {
		t.Fatalf("args = %v", q.calls[0].args)
	}

	_, found, err = p.Lookup(ctx, "gsc_detail", "missing")
	if err != nil || found {
		t.Fatalf("missing key: found=%v err=%v", found, err)
	}
}

func TestPG_Create(t *testing.T) {
	q := &fakeQ{results: [][][]any{{{"7"}}}}
	id, err := NewPG(q, schema(t)).Create(context.Background(), "gsc_detail", detailRec())
	if err != nil || id != "7" {
		t.Fatalf("Create = %q, %v", id, err)
	}
	c := q.calls[0]
	kit.MustContain(t, c.sql, `INSERT INTO "gsc_detail" ("key", "date", "query", "page", "country", "device", "clicks", "impressions", "ctr", "position")`)
	kit.MustContain(t, c.sql, `VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id::text`)
	if len(c.args) != 10 || c.args[4] != nil || c.args[6] != 3.0 {
		t.Fatalf("args = %#v", c.args)
	}
}

func TestPG_UpdateWeekly(t *testing.T) {
	q := &fakeQ{affected: 1}
	rec := domain.WeeklyRecord(domain.WeeklyKey{WeekStart: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), Device: "MOBILE"},
		domain.Metrics{Clicks: 1})
	if err := NewPG(q, schema(t)).Update(context.Background(), "gsc_weekly", "9", rec); err != nil {
		t.Fatalf("Update: %v", err)
	}
	c := q.calls[0]
	kit.MustContain(t, c.sql, `UPDATE "gsc_weekly" SET "key" = $1, "date" = $2, "device" = $3`)
	kit.MustContain(t, c.sql, `WHERE id::text = $8`)
	if strings.Contains(c.sql, `"query"`) {
		t.Fatalf("weekly update must not touch detail columns: %s", c.sql)
	}
	if c.args[len(c.args)-1] != "9" {
		t.Fatalf("id arg = %v", c.args)
	}

	q.affected = 0
	if err := NewPG(q, schema(t)).Update(context.Background(), "gsc_weekly", "9", rec); err == nil {
		t.Fatalf("update of a vanished row should fail")
	}
}

func TestPG_Validate(t *testing.T) {
	cols := [][]any{
		{"id", "bigint"}, {"key", "text"}, {"date", "date"}, {"query", "text"}, {"page", "text"},
		{"country", "character varying"}, {"device", "text"}, {"clicks", "double precision"},
		{"impressions", "double precision"}, {"ctr", "double precision"}, {"position", "numeric"},
	}
	q := &fakeQ{results: [][][]any{cols}}
	p := NewPG(q, schema(t))
	if err := p.Validate(context.Background(), "analytics.gsc_detail", domain.ModeDetail); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if q.calls[0].args[0] != "analytics" || q.calls[0].args[1] != "gsc_detail" {
		t.Fatalf("args = %v", q.calls[0].args)
	}

	q.results = [][][]any{nil}
	if err := p.Validate(context.Background(), "nope", domain.ModeDetail); !perr.IsConfig(err) {
		t.Fatalf("missing table: %v", err)
	}

	q.results = [][][]any{{{"id", "bigint"}, {"key", "text"}, {"date", "text"}}}
	if err := p.Validate(context.Background(), "bad", domain.ModeWeeklyDevice); !perr.IsConfig(err) {
		t.Fatalf("wrong kind: %v", err)
	}

	q.results = [][][]any{cols[1:]}
	if err := p.Validate(context.Background(), "noid", domain.ModeDetail); !perr.IsConfig(err) {
		t.Fatalf("missing id: %v", err)
	}
}

func TestPG_QueryError(t *testing.T) {
	q := &fakeQ{err: errors.New("conn closed")}
	if _, _, err := NewPG(q, schema(t)).Lookup(context.Background(), "t", "k"); !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("err = %v", err)
	}
}

func TestPGTableDDL(t *testing.T) {
	ddl := PGTableDDL("gsc_detail", schema(t))
	for _, want := range []string{`"key" text NOT NULL UNIQUE`, `"date" date`, `"ctr" double precision`, "id bigserial PRIMARY KEY"} {
		kit.MustContain(t, ddl, want)
	}
}

func TestSQLKind(t *testing.T) {
	cases := map[string]domain.Kind{
		"text": domain.KindText, "character varying": domain.KindText, "LowCardinality(String)": domain.KindText,
		"Nullable(String)": domain.KindText, "date": domain.KindDate, "Date32": domain.KindDate,
		"timestamp with time zone": domain.KindDate, "Float64": domain.KindNumber, "double precision": domain.KindNumber,
		"UInt32": domain.KindNumber, "Nullable(Float64)": domain.KindNumber, "jsonb": domain.Kind("jsonb"),
	}
	for in, want := range cases {
		if got := sqlKind(in); got != want {
			t.Errorf("sqlKind(%q) = %q want %q", in, got, want)
		}
	}
}
