package repo

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	perr "gscsync/internal/platform/errors"
	"gscsync/internal/platform/store"
	"gscsync/internal/services/searchsync/domain"
)

// VersionColumn orders row versions in the ReplacingMergeTree
const VersionColumn = "synced_at"

var chTableRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// CH stores records in a ReplacingMergeTree ordered by key. An update inserts
// a newer version, so the id of a record is its key.
type CH struct {
	c      store.Clickhouse
	schema domain.Schema
	now    func() time.Time
}

// NewCH binds c to schema; column names are the field names
func NewCH(c store.Clickhouse, schema domain.Schema) *CH {
	return &CH{c: c, schema: columnSchema(schema), now: time.Now}
}

func checkCHTable(table string) error {
	if !chTableRe.MatchString(table) {
		return perr.Configf(table, "invalid clickhouse table name %q", table)
	}
	return nil
}

// Lookup reads the latest version of key
func (c *CH) Lookup(ctx context.Context, table, key string) (string, bool, error) {
	if err := checkCHTable(table); err != nil {
		return "", false, err
	}
	keyCol := c.schema.Name(domain.FieldKey)
	ids, err := store.Strings(ctx, c.c,
		fmt.Sprintf("SELECT %s FROM %s FINAL WHERE %s = ? LIMIT 1", keyCol, table, keyCol), key)
	if err != nil {
		return "", false, perr.Wrapf(err, perr.ErrorCodeDB, "clickhouse lookup in %s", table)
	}
	if len(ids) == 0 {
		return "", false, nil
	}
	return ids[0], true, nil
}

// Create inserts the first version of rec
func (c *CH) Create(ctx context.Context, table string, rec domain.Record) (string, error) {
	if err := c.insert(ctx, table, rec); err != nil {
		return "", err
	}
	return rec.Key, nil
}

// Update inserts a newer version carrying every column
func (c *CH) Update(ctx context.Context, table, _ string, rec domain.Record) error {
	return c.insert(ctx, table, rec)
}

func (c *CH) insert(ctx context.Context, table string, rec domain.Record) error {
	if err := checkCHTable(table); err != nil {
		return err
	}
	vals := c.schema.ForMode(rec.Mode).Project(rec)
	row := make([]any, 0, len(vals)+1)
	for _, v := range vals {
		switch v.Kind {
		case domain.KindNumber:
			row = append(row, v.Number)
		case domain.KindDate:
			row = append(row, v.Date)
		default:
			row = append(row, v.Text)
		}
	}
	row = append(row, c.now().UTC())
	cols := append(columnNames(vals), VersionColumn)
	if err := c.c.Insert(ctx, table, cols, [][]any{row}); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "clickhouse insert into %s", table)
	}
	return nil
}

// Validate compares system.columns with the mode's columns plus the version column
func (c *CH) Validate(ctx context.Context, table string, mode domain.Mode) error {
	if err := checkCHTable(table); err != nil {
		return err
	}
	db, name := "", table
	if i := strings.IndexByte(table, '.'); i >= 0 {
		db, name = table[:i], table[i+1:]
	}
	rows, err := c.c.Query(ctx, `SELECT name, type FROM system.columns
		WHERE database = if(? = '', currentDatabase(), ?) AND table = ?`, db, db, name)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "describe %s", table)
	}
	defer rows.Close()
	remote := map[string]domain.Kind{}
	for rows.Next() {
		var n, t string
		if err := rows.Scan(&n, &t); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeDB, "describe %s", table)
		}
		remote[n] = sqlKind(t)
	}
	if err := rows.Err(); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "describe %s", table)
	}
	if len(remote) == 0 {
		return perr.Configf(table, "clickhouse table %s does not exist", table)
	}
	if _, ok := remote[VersionColumn]; !ok {
		return perr.Configf(table, "clickhouse table %s has no %s column", table, VersionColumn)
	}
	return c.schema.ForMode(mode).Validate(remote)
}

// CHTableDDL returns a CREATE TABLE statement matching the column schema
func CHTableDDL(table string, schema domain.Schema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (", table)
	keyCol := ""
	for i, prop := range columnSchema(schema).Properties() {
		typ := "String"
		switch prop.Kind {
		case domain.KindNumber:
			typ = "Float64"
		case domain.KindDate:
			typ = "Date"
		case domain.KindTitle:
			keyCol = prop.Name
		}
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, "\n  %s %s", prop.Name, typ)
	}
	fmt.Fprintf(&b, ",\n  %s DateTime64(3, 'UTC')\n) ENGINE = ReplacingMergeTree(%s)\nORDER BY %s", VersionColumn, VersionColumn, keyCol)
	return b.String()
}
