//go:build integration_pg

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	perr "gscsync/internal/platform/errors"
	kit "gscsync/internal/platform/testkit"
)

func TestOpen_PG_TxAndHelpers_Integration(t *testing.T) {
	dsn := kit.StartPostgres(t)
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	s, err := Open(ctx, Config{
		AppName: "gscsync-it",
		PG:      PGConfig{Enabled: true, URL: dsn, MaxConns: 2, LogSQL: true, SlowQueryMs: 500},
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	if err := s.Guard(ctx); err != nil {
		t.Fatalf("Guard: %v", err)
	}

	app, err := Scalar[string](ctx, s.PG, `select current_setting('application_name')`)
	if err != nil || app != "gscsync-it" {
		t.Fatalf("application_name = %q, %v", app, err)
	}

	if _, err := Exec(ctx, s.PG, `create table kv (k text primary key, v int not null)`); err != nil {
		t.Fatalf("create: %v", err)
	}

	// rollback on error
	rollback := errors.New("rollback")
	err = s.PG.Tx(ctx, func(q RowQuerier) error {
		if err := ExecOne(ctx, q, `insert into kv (k, v) values ($1, $2)`, "a", 1); err != nil {
			return err
		}
		return rollback
	})
	if !errors.Is(err, rollback) {
		t.Fatalf("Tx error = %v", err)
	}
	if n, _ := Scalar[int64](ctx, s.PG, `select count(*) from kv`); n != 0 {
		t.Fatalf("rolled back insert is visible: %d", n)
	}

	// commit path
	if err := s.PG.Tx(ctx, func(q RowQuerier) error {
		return ExecOne(ctx, q, `insert into kv (k, v) values ($1, $2)`, "a", 1)
	}); err != nil {
		t.Fatalf("Tx commit: %v", err)
	}

	_, err = Exec(ctx, s.PG, `insert into kv (k, v) values ($1, $2)`, "a", 2)
	if !perr.IsDuplicateKey(err) {
		t.Fatalf("want duplicate key, got %v", err)
	}

	_, err = One(ctx, s.PG, func(r Row) (int, error) {
		var v int
		return v, r.Scan(&v)
	}, `select v from kv where k = $1`, "missing")
	if !errors.Is(err, perr.ErrNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}
