// Package sqlitestore keeps each table as a SQLite table in a single
// database file. Column types survive the round trip: int64 columns are
// INTEGER, string columns TEXT. Row order is insertion order.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/specialistvlad/flightgrid/internal/etlerr"
	"github.com/specialistvlad/flightgrid/internal/table"

	_ "modernc.org/sqlite"
)

// Store implements storage.Store on SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path. ":memory:" is
// accepted for tests.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One connection: SQLite serialises writers anyway, and ":memory:" is
	// per connection.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func sqlType(t table.Type) string {
	if t == table.Int64 {
		return "INTEGER"
	}
	return "TEXT"
}

// CreateTableSQL returns the DDL for a table with the given schema.
func CreateTableSQL(name string, schema table.Schema) string {
	cols := make([]string, len(schema))
	for i, c := range schema {
		cols[i] = quote(c.Name) + " " + sqlType(c.Type)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quote(name), strings.Join(cols, ", "))
}

func (s *Store) Write(ctx context.Context, name string, t *table.Table) error {
	if err := s.write(ctx, name, t); err != nil {
		return etlerr.WriteFailure(name, err)
	}
	return nil
}

func (s *Store) write(ctx context.Context, name string, t *table.Table) error {
	schema := t.Schema()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quote(name)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, CreateTableSQL(name, schema)); err != nil {
		return err
	}

	cols := make([]string, len(schema))
	marks := make([]string, len(schema))
	for i, c := range schema {
		cols[i] = quote(c.Name)
		marks[i] = "?"
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(name), strings.Join(cols, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(schema))
	for r := 0; r < t.Len(); r++ {
		for j := range schema {
			args[j] = toSQL(t.Cell(r, j))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert row %d: %w", r, err)
		}
	}
	return tx.Commit()
}

func toSQL(v table.Value) any {
	if s, ok := v.AsString(); ok {
		return s
	}
	if n, ok := v.AsInt64(); ok {
		return n
	}
	return nil
}

func (s *Store) Read(ctx context.Context, name string) (*table.Table, error) {
	schema, err := s.schema(ctx, name)
	if err != nil {
		return nil, err
	}

	cols := make([]string, len(schema))
	for i, c := range schema {
		cols[i] = quote(c.Name)
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid",
		strings.Join(cols, ", "), quote(name)))
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", name, err)
	}
	defer rows.Close()

	var out [][]table.Value
	for rows.Next() {
		dest := make([]any, len(schema))
		for j, c := range schema {
			if c.Type == table.Int64 {
				dest[j] = new(sql.NullInt64)
			} else {
				dest[j] = new(sql.NullString)
			}
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, etlerr.MalformedErr(name, err)
		}
		row := make([]table.Value, len(schema))
		for j, d := range dest {
			switch d := d.(type) {
			case *sql.NullInt64:
				if d.Valid {
					row[j] = table.Int(d.Int64)
				}
			case *sql.NullString:
				if d.Valid {
					row[j] = table.Str(d.String)
				}
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select %s: %w", name, err)
	}

	t, err := table.New(schema, out)
	if err != nil {
		return nil, etlerr.WithTable(err, name)
	}
	return t, nil
}

// schema reads the declared column types of name, or reports NotFound.
func (s *Store) schema(ctx context.Context, name string) (table.Schema, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&n)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", name, err)
	}
	if n == 0 {
		return nil, etlerr.NotFound(name, nil)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT name, type FROM pragma_table_info(?) ORDER BY cid", name)
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
		ct := table.String
		if strings.EqualFold(typ, "INTEGER") {
			ct = table.Int64
		}
		schema = append(schema, table.Column{Name: col, Type: ct})
	}
	return schema, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
