package repo

import (
	"context"
	"fmt"
	"reflect"

	"gscsync/internal/platform/store"
)

type call struct {
	sql  string
	args []any
}

// fakeRows yields fixed rows; Scan assigns positionally through reflection
type fakeRows struct {
	data [][]any
	i    int
}

func (r *fakeRows) Next() bool        { r.i++; return r.i <= len(r.data) }
func (r *fakeRows) Err() error        { return nil }
func (r *fakeRows) Close()            {}
func (r *fakeRows) Columns() []string { return nil }
func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.i-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: %d dest for %d cols", len(dest), len(row))
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(row[i]))
	}
	return nil
}

type fakeRow struct{ rows *fakeRows }

func (r fakeRow) Scan(dest ...any) error {
	if !r.rows.Next() {
		return fmt.Errorf("no rows")
	}
	return r.rows.Scan(dest...)
}

type fakeTag int64

func (t fakeTag) String() string      { return "UPDATE" }
func (t fakeTag) RowsAffected() int64 { return int64(t) }

// fakeQ records statements and answers queries from a queue
type fakeQ struct {
	calls    []call
	results  [][][]any
	affected int64
	err      error
}

func (q *fakeQ) pop() *fakeRows {
	if len(q.results) == 0 {
		return &fakeRows{}
	}
	r := q.results[0]
	q.results = q.results[1:]
	return &fakeRows{data: r}
}

func (q *fakeQ) Exec(_ context.Context, sql string, args ...any) (store.CommandTag, error) {
	q.calls = append(q.calls, call{sql, args})
	return fakeTag(q.affected), q.err
}

func (q *fakeQ) Query(_ context.Context, sql string, args ...any) (store.Rows, error) {
	q.calls = append(q.calls, call{sql, args})
	if q.err != nil {
		return nil, q.err
	}
	return q.pop(), nil
}

func (q *fakeQ) QueryRow(_ context.Context, sql string, args ...any) store.Row {
	q.calls = append(q.calls, call{sql, args})
	return fakeRow{rows: q.pop()}
}

// fakeCH records inserts and answers queries from a queue
type fakeCH struct {
	fakeQ
	table   string
	columns []string
	rows    [][]any
}

func (c *fakeCH) Exec(context.Context, string, ...any) error { return nil }
func (c *fakeCH) Close() error                               { return nil }
func (c *fakeCH) Insert(_ context.Context, table string, columns []string, rows [][]any) error {
	c.table, c.columns, c.rows = table, columns, append(c.rows, rows...)
	return c.err
}
