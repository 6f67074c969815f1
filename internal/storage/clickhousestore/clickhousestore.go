// Package clickhousestore keeps each table as a ClickHouse MergeTree table.
// Every column is Nullable so that missing values survive; a hidden _row
// column preserves row order.
package clickhousestore

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/specialistvlad/flightgrid/internal/ctxlog"
	"github.com/specialistvlad/flightgrid/internal/etlerr"
	"github.com/specialistvlad/flightgrid/internal/retry"
	"github.com/specialistvlad/flightgrid/internal/table"
)

// DefaultDatabase is used when Config.Database is empty.
const DefaultDatabase = "default"

// rowColumn orders rows and is never exposed as a table column.
const rowColumn = "_row"

// Config holds connection settings.
type Config struct {
	Addr     string
	Database string
	Username string
	Password string
	// Secure enables TLS (ClickHouse Cloud, port 9440).
	Secure bool
	Retry  retry.Config
}

// Store implements storage.Store on ClickHouse.
type Store struct {
	conn  driver.Conn
	retry retry.Config
}

// Open connects and pings the server.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.DefaultConfig()
	}
	options := &clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
	}
	if cfg.Secure {
		options.TLS = &tls.Config{}
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open ClickHouse connection: %w", err)
	}
	err = retry.Do(ctx, cfg.Retry, "clickhouse ping", func(ctx context.Context) error {
		return conn.Ping(ctx)
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	ctxlog.FromContext(ctx).Info("ClickHouse client initialized", "addr", cfg.Addr, "database", cfg.Database, "secure", cfg.Secure)
	return &Store{conn: conn, retry: cfg.Retry}, nil
}

// syncInsert makes inserted rows visible to the next read.
func syncInsert(ctx context.Context) context.Context {
	return clickhouse.Context(ctx, clickhouse.WithSettings(clickhouse.Settings{
		"async_insert":          0,
		"wait_for_async_insert": 1,
		"insert_deduplicate":    0,
	}))
}

func quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "\\`") + "`"
}

func columnType(t table.Type) string {
	if t == table.Int64 {
		return "Nullable(Int64)"
	}
	return "Nullable(String)"
}

func parseColumnType(s string) table.Type {
	s = strings.TrimSuffix(strings.TrimPrefix(s, "Nullable("), ")")
	switch s {
	case "Int64", "Int32", "Int16", "Int8", "UInt32", "UInt16", "UInt8":
		return table.Int64
	}
	return table.String
}

// CreateTableSQL returns the DDL for a table with the given schema.
func CreateTableSQL(name string, schema table.Schema) string {
	cols := make([]string, 0, len(schema)+1)
	cols = append(cols, quote(rowColumn)+" UInt64")
	for _, c := range schema {
		cols = append(cols, quote(c.Name)+" "+columnType(c.Type))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s) ENGINE = MergeTree ORDER BY %s",
		quote(name), strings.Join(cols, ", "), quote(rowColumn))
}

// InsertSQL returns the batch insert statement for a table.
func InsertSQL(name string, schema table.Schema) string {
	cols := make([]string, 0, len(schema)+1)
	cols = append(cols, quote(rowColumn))
	for _, c := range schema {
		cols = append(cols, quote(c.Name))
	}
	return fmt.Sprintf("INSERT INTO %s (%s)", quote(name), strings.Join(cols, ", "))
}

// SelectSQL returns the ordered read statement for a table.
func SelectSQL(name string, schema table.Schema) string {
	cols := make([]string, len(schema))
	for i, c := range schema {
		cols[i] = quote(c.Name)
	}
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", strings.Join(cols, ", "), quote(name), quote(rowColumn))
}

func (s *Store) Write(ctx context.Context, name string, t *table.Table) error {
	err := retry.Do(ctx, s.retry, "clickhouse write "+name, func(ctx context.Context) error {
		return s.write(ctx, name, t)
	})
	if err != nil {
		return etlerr.WriteFailure(name, err)
	}
	return nil
}

func (s *Store) write(ctx context.Context, name string, t *table.Table) error {
	schema := t.Schema()
	if err := s.conn.Exec(ctx, "DROP TABLE IF EXISTS "+quote(name)); err != nil {
		return err
	}
	if err := s.conn.Exec(ctx, CreateTableSQL(name, schema)); err != nil {
		return err
	}
	if t.Len() == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(syncInsert(ctx), InsertSQL(name, schema))
	if err != nil {
		return err
	}
	args := make([]any, len(schema)+1)
	for r := 0; r < t.Len(); r++ {
		args[0] = uint64(r)
		for j := range schema {
			args[j+1] = toNullable(t.Cell(r, j), schema[j].Type)
		}
		if err := batch.Append(args...); err != nil {
			batch.Abort()
			return fmt.Errorf("append row %d: %w", r, err)
		}
	}
	return batch.Send()
}

func toNullable(v table.Value, t table.Type) any {
	if t == table.Int64 {
		if n, ok := v.AsInt64(); ok {
			return &n
		}
		return (*int64)(nil)
	}
	if s, ok := v.AsString(); ok {
		return &s
	}
	return (*string)(nil)
}

func (s *Store) Read(ctx context.Context, name string) (*table.Table, error) {
	var out *table.Table
	err := retry.Do(ctx, s.retry, "clickhouse read "+name, func(ctx context.Context) error {
		var err error
		out, err = s.read(ctx, name)
		return err
	})
	return out, err
}

func (s *Store) read(ctx context.Context, name string) (*table.Table, error) {
	var exists uint8
	if err := s.conn.QueryRow(ctx, "EXISTS TABLE "+quote(name)).Scan(&exists); err != nil {
		return nil, fmt.Errorf("exists %s: %w", name, err)
	}
	if exists == 0 {
		return nil, etlerr.NotFound(name, nil)
	}

	schema, err := s.schema(ctx, name)
	if err != nil {
		return nil, err
	}

	rows, err := s.conn.Query(ctx, SelectSQL(name, schema))
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", name, err)
	}
	defer rows.Close()

	var data [][]table.Value
	for rows.Next() {
		dest := make([]any, len(schema))
		for j, c := range schema {
			if c.Type == table.Int64 {
				dest[j] = new(*int64)
			} else {
				dest[j] = new(*string)
			}
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, etlerr.MalformedErr(name, err)
		}
		row := make([]table.Value, len(schema))
		for j, d := range dest {
			switch d := d.(type) {
			case **int64:
				if *d != nil {
					row[j] = table.Int(**d)
				}
			case **string:
				if *d != nil {
					row[j] = table.Str(**d)
				}
			}
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select %s: %w", name, err)
	}

	t, err := table.New(schema, data)
	if err != nil {
		return nil, etlerr.WithTable(err, name)
	}
	return t, nil
}

func (s *Store) schema(ctx context.Context, name string) (table.Schema, error) {
	rows, err := s.conn.Query(ctx,
		"SELECT name, type FROM system.columns WHERE database = currentDatabase() AND table = ? ORDER BY position", name)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", name, err)
	}
	defer rows.Close()

	var schema table.Schema
	for rows.Next() {
		var col, typ string
		if err := rows.Scan(&col, &typ); err != nil {
			return nil, fmt.Errorf("describe %s: %w", name, err)
		}
		if col == rowColumn {
			continue
		}
		schema = append(schema, table.Column{Name: col, Type: parseColumnType(typ)})
	}
	return schema, rows.Err()
}

func (s *Store) Close() error {
	return s.conn.Close()
}
