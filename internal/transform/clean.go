package transform

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/flightgrid/internal/etlerr"
	"github.com/specialistvlad/flightgrid/internal/table"
)

// CleanSpec describes how one raw entity becomes its cleaned form.
type CleanSpec struct {
	Entity string
	// Drop lists obsolete columns. Absent columns are ignored.
	Drop []string
	// SentinelChecked columns lose every row whose value equals Sentinel.
	SentinelChecked []string
	// NullChecked columns lose every row whose value is missing.
	NullChecked []string
	// Sentinel is the literal null marker used in raw text.
	Sentinel string
	// Schema is the cleaned output schema, in output column order.
	Schema table.Schema
}

// Stats summarises one Clean call.
type Stats struct {
	RowsIn          int
	RowsOut         int
	DroppedSentinel int
	DroppedMissing  int
}

// Clean applies spec to raw: drop, sentinel filter, missing-value filter,
// projection and cast, in that order. A row failing both filters is counted
// once, under the sentinel filter that removed it first.
func Clean(raw *table.Table, spec CleanSpec) (*table.Table, Stats, error) {
	stats := Stats{RowsIn: raw.Len()}

	t := raw.DropColumns(spec.Drop...)

	sentinelIdx, err := indexes(t, spec.SentinelChecked)
	if err != nil {
		return nil, stats, err
	}
	nullIdx, err := indexes(t, spec.NullChecked)
	if err != nil {
		return nil, stats, err
	}

	// origin maps each surviving row to its position in raw, so cast
	// failures name the row as it appears in the input.
	origin := make([]int, 0, t.Len())
	next := 0
	t = t.Filter(func(row []table.Value) bool {
		pos := next
		next++
		for _, i := range sentinelIdx {
			if s, ok := row[i].AsString(); ok && s == spec.Sentinel {
				return false
			}
		}
		origin = append(origin, pos)
		return true
	})
	stats.DroppedSentinel = stats.RowsIn - t.Len()

	afterSentinel := t.Len()
	kept := make([]int, 0, len(origin))
	next = 0
	t = t.Filter(func(row []table.Value) bool {
		pos := origin[next]
		next++
		for _, i := range nullIdx {
			if row[i].IsNull() {
				return false
			}
		}
		kept = append(kept, pos)
		return true
	})
	stats.DroppedMissing = afterSentinel - t.Len()

	out, err := t.Conform(spec.Schema)
	if err != nil {
		return nil, stats, rawRow(err, kept)
	}
	stats.RowsOut = out.Len()
	return out, stats, nil
}

// rawRow rewrites the row of a cast failure from its filtered position to
// its position in the raw table.
func rawRow(err error, origin []int) error {
	var e *etlerr.Error
	if !errors.As(err, &e) || e.Row < 0 || e.Row >= len(origin) {
		return err
	}
	cp := *e
	cp.Row = origin[e.Row]
	return &cp
}

func indexes(t *table.Table, names []string) ([]int, error) {
	idx := make([]int, 0, len(names))
	for _, n := range names {
		i := t.ColumnIndex(n)
		if i < 0 {
			return nil, etlerr.Malformed("", "checked column %q not present", n)
		}
		idx = append(idx, i)
	}
	return idx, nil
}

// Validate checks the spec for internal consistency.
func (s CleanSpec) Validate() error {
	if s.Entity == "" {
		return fmt.Errorf("clean spec has no entity")
	}
	if s.Sentinel == "" && len(s.SentinelChecked) > 0 {
		return fmt.Errorf("clean spec %q: sentinel-checked columns without a sentinel", s.Entity)
	}
	if len(s.Schema) == 0 {
		return fmt.Errorf("clean spec %q has an empty schema", s.Entity)
	}
	return s.Schema.Validate()
}
