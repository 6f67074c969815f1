package table

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/flightgrid/internal/etlerr"
)

// Column is a named, typed column.
type Column struct {
	Name string
	Type Type
}

// Schema is an ordered list of columns with unique names.
type Schema []Column

// Validate checks that every column has a non-empty, unique name.
func (s Schema) Validate() error {
	seen := make(map[string]struct{}, len(s))
	for i, c := range s {
		if c.Name == "" {
			return fmt.Errorf("column %d has an empty name", i)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("duplicate column %q", c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

// Index returns the position of the named column, or -1.
func (s Schema) Index(name string) int {
	for i, c := range s {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Names returns the column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// Equal reports whether both schemas have the same columns in the same order.
func (s Schema) Equal(o Schema) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

func (s Schema) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = c.Name + " " + c.Type.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Table is an immutable, ordered collection of rows sharing a schema.
// Operations never modify a table; they return a new one. Row slices may be
// shared between tables because nothing writes to them after construction.
type Table struct {
	schema Schema
	rows   [][]Value
}

// New builds a table, validating row width and cell types.
func New(schema Schema, rows [][]Value) (*Table, error) {
	if err := schema.Validate(); err != nil {
		return nil, etlerr.MalformedErr("", err)
	}
	for i, row := range rows {
		if len(row) != len(schema) {
			return nil, &etlerr.Error{
				Kind: etlerr.ErrMalformedInput,
				Row:  i,
				Msg:  fmt.Sprintf("row has %d fields, schema has %d", len(row), len(schema)),
			}
		}
		for j, v := range row {
			if !v.Is(schema[j].Type) {
				return nil, &etlerr.Error{
					Kind:   etlerr.ErrMalformedInput,
					Column: schema[j].Name,
					Row:    i,
					Msg:    fmt.Sprintf("value %s does not fit %s column", v, schema[j].Type),
				}
			}
		}
	}
	return &Table{schema: append(Schema(nil), schema...), rows: rows}, nil
}

// MustNew is New for statically known tables; it panics on error.
func MustNew(schema Schema, rows [][]Value) *Table {
	t, err := New(schema, rows)
	if err != nil {
		panic(err)
	}
	return t
}

// Schema returns a copy of the table's schema.
func (t *Table) Schema() Schema { return append(Schema(nil), t.schema...) }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Row returns a copy of row i.
func (t *Table) Row(i int) []Value { return append([]Value(nil), t.rows[i]...) }

// Cell returns the value at row i, column j.
func (t *Table) Cell(i, j int) Value { return t.rows[i][j] }

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int { return t.schema.Index(name) }

// DropColumns removes the named columns. Names that are not present are
// ignored.
func (t *Table) DropColumns(names ...string) *Table {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	var keep []int
	for i, c := range t.schema {
		if _, ok := drop[c.Name]; !ok {
			keep = append(keep, i)
		}
	}
	if len(keep) == len(t.schema) {
		return t
	}
	return t.pick(keep)
}

// Project returns a table with exactly the named columns, in that order.
func (t *Table) Project(names ...string) (*Table, error) {
	idx := make([]int, len(names))
	for i, n := range names {
		j := t.schema.Index(n)
		if j < 0 {
			return nil, etlerr.Malformed("", "column %q not present in %s", n, t.schema)
		}
		idx[i] = j
	}
	return t.pick(idx), nil
}

func (t *Table) pick(idx []int) *Table {
	schema := make(Schema, len(idx))
	for i, j := range idx {
		schema[i] = t.schema[j]
	}
	rows := make([][]Value, len(t.rows))
	for r, row := range t.rows {
		out := make([]Value, len(idx))
		for i, j := range idx {
			out[i] = row[j]
		}
		rows[r] = out
	}
	return &Table{schema: schema, rows: rows}
}

// Filter keeps the rows for which keep returns true.
func (t *Table) Filter(keep func(row []Value) bool) *Table {
	rows := make([][]Value, 0, len(t.rows))
	for _, row := range t.rows {
		if keep(row) {
			rows = append(rows, row)
		}
	}
	return &Table{schema: t.schema, rows: rows}
}

// Conform projects the table onto schema and casts every column to its
// declared type. Cast errors are CastFailure errors naming the column and
// row; a missing column is MalformedInput.
func (t *Table) Conform(schema Schema) (*Table, error) {
	projected, err := t.Project(schema.Names()...)
	if err != nil {
		return nil, err
	}
	rows := make([][]Value, len(projected.rows))
	for r, row := range projected.rows {
		out := make([]Value, len(schema))
		for j, v := range row {
			cast, err := v.Cast(schema[j].Type)
			if err != nil {
				return nil, etlerr.CastFailure("", schema[j].Name, r, v.Text(), unwrapNum(err))
			}
			out[j] = cast
		}
		rows[r] = out
	}
	return &Table{schema: append(Schema(nil), schema...), rows: rows}, nil
}

// unwrapNum strips strconv's repetition of the input from parse errors.
func unwrapNum(err error) error {
	var ne interface{ Unwrap() error }
	if errors.As(err, &ne) {
		if inner := ne.Unwrap(); inner != nil {
			return inner
		}
	}
	return err
}

// Equal reports whether both tables have the same schema and identical rows
// in the same order.
func (t *Table) Equal(o *Table) bool {
	if !t.schema.Equal(o.schema) || len(t.rows) != len(o.rows) {
		return false
	}
	for i := range t.rows {
		for j := range t.rows[i] {
			if !t.rows[i][j].Identical(o.rows[i][j]) {
				return false
			}
		}
	}
	return true
}

// Records returns the table as text records, header first. It is mostly
// useful in tests and logs.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.rows)+1)
	out = append(out, t.schema.Names())
	for _, row := range t.rows {
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = v.Text()
		}
		out = append(out, rec)
	}
	return out
}
