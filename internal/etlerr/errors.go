// Package etlerr defines the error taxonomy shared by storage adapters,
// transforms and the executor. Every error carries one of the sentinel kinds
// so callers can branch with errors.Is regardless of how deeply it was wrapped.
package etlerr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound means an input table does not exist.
	ErrNotFound = errors.New("not found")
	// ErrMalformedInput means stored data could not be parsed into rows with a
	// consistent column set, or a table does not have the expected columns.
	ErrMalformedInput = errors.New("malformed input")
	// ErrCastFailure means a value could not be coerced to its declared type.
	ErrCastFailure = errors.New("cast failure")
	// ErrWriteFailure means the sink was unavailable or rejected a write.
	ErrWriteFailure = errors.New("write failure")
	// ErrDependencyFailed means a predecessor task did not succeed.
	ErrDependencyFailed = errors.New("dependency failed")
)

// NoRow marks an Error that is not tied to a specific row.
const NoRow = -1

// Error is a classified failure with as much location detail as is known.
type Error struct {
	Kind   error
	Task   string
	Table  string
	Column string
	// Row is the zero-based data row index, or NoRow.
	Row int
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	var where []string
	if e.Task != "" {
		where = append(where, "task="+e.Task)
	}
	if e.Table != "" {
		where = append(where, "table="+e.Table)
	}
	if e.Column != "" {
		where = append(where, "column="+e.Column)
	}
	if e.Row != NoRow {
		where = append(where, fmt.Sprintf("row=%d", e.Row))
	}
	if len(where) > 0 {
		sb.WriteString(" [")
		sb.WriteString(strings.Join(where, " "))
		sb.WriteString("]")
	}
	if e.Msg != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Msg)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap exposes both the kind and the underlying cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NotFound reports a missing table.
func NotFound(table string, err error) error {
	return &Error{Kind: ErrNotFound, Table: table, Row: NoRow, Err: err}
}

// Malformed reports unparseable or structurally invalid table data.
func Malformed(table string, format string, args ...any) error {
	return &Error{Kind: ErrMalformedInput, Table: table, Row: NoRow, Msg: fmt.Sprintf(format, args...)}
}

// MalformedErr is Malformed with an underlying cause.
func MalformedErr(table string, err error) error {
	return &Error{Kind: ErrMalformedInput, Table: table, Row: NoRow, Err: err}
}

// CastFailure reports a value that cannot be coerced to its column type.
func CastFailure(table, column string, row int, value string, err error) error {
	return &Error{
		Kind:   ErrCastFailure,
		Table:  table,
		Column: column,
		Row:    row,
		Msg:    fmt.Sprintf("cannot cast %q", value),
		Err:    err,
	}
}

// WriteFailure reports a sink error.
func WriteFailure(table string, err error) error {
	return &Error{Kind: ErrWriteFailure, Table: table, Row: NoRow, Err: err}
}

// DependencyFailed is synthesized by the scheduler for a task whose
// predecessor did not succeed.
func DependencyFailed(task, dependency string) error {
	return &Error{
		Kind: ErrDependencyFailed,
		Task: task,
		Row:  NoRow,
		Msg:  fmt.Sprintf("predecessor %q did not succeed", dependency),
	}
}

// WithTable fills in the table name of a classified error when it is unset.
// Unclassified errors are returned unchanged.
func WithTable(err error, table string) error {
	var e *Error
	if errors.As(err, &e) && e.Table == "" {
		cp := *e
		cp.Table = table
		return &cp
	}
	return err
}
