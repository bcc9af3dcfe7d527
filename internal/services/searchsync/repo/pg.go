package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	perr "gscsync/internal/platform/errors"
	"gscsync/internal/platform/store"
	str "gscsync/internal/platform/strings"
	"gscsync/internal/services/searchsync/domain"

	"github.com/jackc/pgx/v5"
)

// PG stores records as rows keyed by a unique "key" column; ids are the id column as text
type PG struct {
	q      store.RowQuerier
	schema domain.Schema
}

// NewPG binds q to schema; column names are the field names
func NewPG(q store.RowQuerier, schema domain.Schema) *PG {
	return &PG{q: q, schema: columnSchema(schema)}
}

func pgIdent(table string) string {
	return pgx.Identifier(strings.Split(table, ".")).Sanitize()
}

// Lookup selects the id of the row holding key
func (p *PG) Lookup(ctx context.Context, table, key string) (string, bool, error) {
	sql := fmt.Sprintf(`SELECT id::text FROM %s WHERE %s = $1 LIMIT 1`,
		pgIdent(table), pgIdent(p.schema.Name(domain.FieldKey)))
	id, err := store.One(ctx, p.q, func(r store.Row) (string, error) {
		var s string
		return s, r.Scan(&s)
	}, sql, key)
	if errors.Is(err, perr.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, perr.FromPostgresf(err, "lookup %s", table)
	}
	return id, true, nil
}

// Create inserts rec and returns the new id
func (p *PG) Create(ctx context.Context, table string, rec domain.Record) (string, error) {
	vals := p.schema.ForMode(rec.Mode).Project(rec)
	cols := make([]string, len(vals))
	marks := make([]string, len(vals))
	for i, v := range vals {
		cols[i] = pgIdent(v.Name)
		marks[i] = fmt.Sprintf("$%d", i+1)
	}
	sql := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING id::text`,
		pgIdent(table), strings.Join(cols, ", "), strings.Join(marks, ", "))
	id, err := store.Scalar[string](ctx, p.q, sql, sqlArgs(vals)...)
	if err != nil {
		return "", perr.FromPostgresf(err, "create in %s", table)
	}
	return id, nil
}

// Update rewrites every mode column of the row
func (p *PG) Update(ctx context.Context, table, id string, rec domain.Record) error {
	vals := p.schema.ForMode(rec.Mode).Project(rec)
	sets := make([]string, len(vals))
	for i, v := range vals {
		sets[i] = fmt.Sprintf("%s = $%d", pgIdent(v.Name), i+1)
	}
	sql := fmt.Sprintf(`UPDATE %s SET %s WHERE id::text = $%d`,
		pgIdent(table), strings.Join(sets, ", "), len(vals)+1)
	if err := store.ExecOne(ctx, p.q, sql, append(sqlArgs(vals), id)...); err != nil {
		return perr.FromPostgresf(err, "update %s in %s", id, table)
	}
	return nil
}

// Validate compares information_schema.columns with the mode's columns
func (p *PG) Validate(ctx context.Context, table string, mode domain.Mode) error {
	schemaName, name := "", table
	if i := strings.LastIndex(table, "."); i >= 0 {
		schemaName, name = table[:i], table[i+1:]
	}
	type col struct{ name, typ string }
	cols, err := store.Many(ctx, p.q, func(r store.Row) (col, error) {
		var c col
		return c, r.Scan(&c.name, &c.typ)
	}, `SELECT column_name, data_type FROM information_schema.columns
		WHERE table_schema = COALESCE(NULLIF($1, ''), current_schema()) AND table_name = $2`, schemaName, name)
	if err != nil {
		return perr.FromPostgresf(err, "describe %s", table)
	}
	if len(cols) == 0 {
		return perr.Configf(table, "postgres table %s does not exist", table)
	}
	remote := map[string]domain.Kind{}
	hasID := false
	for _, c := range cols {
		remote[c.name] = sqlKind(c.typ)
		hasID = hasID || c.name == "id"
	}
	if !hasID {
		return perr.Configf(table, "postgres table %s has no id column", table)
	}
	return p.schema.ForMode(mode).Validate(remote)
}

func sqlArgs(vals []domain.Value) []any {
	args := make([]any, len(vals))
	for i, v := range vals {
		switch v.Kind {
		case domain.KindNumber:
			args[i] = v.Number
		case domain.KindDate:
			if v.Date.IsZero() {
				args[i] = nil
			} else {
				args[i] = v.Date
			}
		default:
			args[i] = str.SQLNull(v.Text)
		}
	}
	return args
}

// PGTableDDL returns a CREATE TABLE statement matching the column schema
func PGTableDDL(table string, schema domain.Schema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n  id bigserial PRIMARY KEY", pgIdent(table))
	for _, prop := range columnSchema(schema).Properties() {
		typ := "text"
		switch prop.Kind {
		case domain.KindNumber:
			typ = "double precision NOT NULL DEFAULT 0"
		case domain.KindDate:
			typ = "date"
		case domain.KindTitle:
			typ = "text NOT NULL UNIQUE"
		}
		fmt.Fprintf(&b, ",\n  %s %s", pgIdent(prop.Name), typ)
	}
	b.WriteString("\n)")
	return b.String()
}
