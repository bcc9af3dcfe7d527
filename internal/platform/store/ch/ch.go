// Package ch provides a clickhouse client on top of clickhouse-go
package ch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gscsync/internal/platform/logger"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Config configures clickhouse client
type Config struct {
	URL        string
	ClientName string
	ClientTag  string

	// Log traces every statement when set
	Log *logger.Logger
}

// Rows is the minimal result set iteration for ch
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
	Columns() []string
}

// CH wraps a native clickhouse connection
type CH struct {
	conn driver.Conn
	log  *logger.Logger
}

var openConn = clickhouse.Open

// Options parses the DSN and stamps client info
func Options(cfg Config) (*clickhouse.Options, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("ch: empty url")
	}
	opt, err := clickhouse.ParseDSN(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("ch: parse dsn: %w", err)
	}
	if cfg.ClientName != "" || cfg.ClientTag != "" {
		opt.ClientInfo = BuildClientInfo(cfg.ClientName, cfg.ClientTag)
	}
	if opt.DialTimeout == 0 {
		opt.DialTimeout = 5 * time.Second
	}
	return opt, nil
}

// Open dials clickhouse and pings it once
func Open(ctx context.Context, cfg Config) (*CH, error) {
	opt, err := Options(cfg)
	if err != nil {
		return nil, err
	}
	conn, err := openConn(opt)
	if err != nil {
		return nil, fmt.Errorf("ch: open: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ch: ping: %w", err)
	}
	return &CH{conn: conn, log: cfg.Log}, nil
}

// Exec runs a statement that returns no rows
func (c *CH) Exec(ctx context.Context, sql string, args ...any) error {
	start := time.Now()
	err := c.conn.Exec(ctx, sql, args...)
	c.trace(sql, start, err)
	return err
}

// Insert sends rows to table as a single native batch
func (c *CH) Insert(ctx context.Context, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	stmt := "INSERT INTO " + table
	if len(columns) > 0 {
		stmt += " (" + strings.Join(columns, ", ") + ")"
	}
	start := time.Now()
	batch, err := c.conn.PrepareBatch(ctx, stmt)
	if err != nil {
		c.trace(stmt, start, err)
		return err
	}
	for _, r := range rows {
		if err := batch.Append(r...); err != nil {
			_ = batch.Abort()
			c.trace(stmt, start, err)
			return err
		}
	}
	err = batch.Send()
	c.trace(stmt, start, err)
	return err
}

// Query runs a query and returns ch.Rows
func (c *CH) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	r, err := c.conn.Query(ctx, sql, args...)
	c.trace(sql, start, err)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Ping checks connectivity
func (c *CH) Ping(ctx context.Context) error { return c.conn.Ping(ctx) }

// Close closes resources
func (c *CH) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *CH) trace(sql string, start time.Time, err error) {
	if c.log == nil {
		return
	}
	c.log.Info().
		Str("component", "ch").
		Float64("elapsed_ms", float64(time.Since(start).Microseconds())/1000.0).
		Str("sql", sql).
		Err(err).
		Msg("ch query")
}
