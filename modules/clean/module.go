// Package clean implements the `clean` task kind: it reads an entity's raw
// (bronze) table, removes sentinel and missing values, enforces the silver
// schema and writes the result.
package clean

import (
	"context"

	"github.com/specialistvlad/flightgrid/internal/ctxlog"
	"github.com/specialistvlad/flightgrid/internal/etlerr"
	"github.com/specialistvlad/flightgrid/internal/flights"
	"github.com/specialistvlad/flightgrid/internal/handlers"
	"github.com/specialistvlad/flightgrid/internal/metrics"
	"github.com/specialistvlad/flightgrid/internal/transform"
)

// Kind is the task kind this module handles.
const Kind = "clean"

// Module implements the handlers.Module interface for this package.
type Module struct{}

// Input defines the arguments for a clean task. Source and Target default
// to the entity's bronze and silver tables.
type Input struct {
	Entity string `cty:"entity,required"`
	Source string `cty:"source"`
	Target string `cty:"target"`
}

// Output summarises what the task did.
type Output struct {
	Table           string `cty:"table"`
	RowsIn          int    `cty:"rows_in"`
	RowsOut         int    `cty:"rows_out"`
	DroppedSentinel int    `cty:"dropped_sentinel"`
	DroppedMissing  int    `cty:"dropped_missing"`
}

// resolve looks up the entity and fills in default table names.
func resolve(input *Input) (flights.Entity, string, string, error) {
	entity, err := flights.LookupEntity(input.Entity)
	if err != nil {
		return flights.Entity{}, "", "", err
	}
	source, target := input.Source, input.Target
	if source == "" {
		source = entity.Bronze
	}
	if target == "" {
		target = entity.Silver
	}
	return entity, source, target, nil
}

// Run reads the source table, cleans it and overwrites the target table.
// Nothing is written when reading or cleaning fails.
func Run(ctx context.Context, deps *handlers.Deps, input *Input) (*Output, error) {
	entity, source, target, err := resolve(input)
	if err != nil {
		return nil, err
	}
	logger := ctxlog.FromContext(ctx).With("entity", entity.Name, "source", source, "target", target)

	raw, err := deps.Store.Read(ctx, source)
	if err != nil {
		return nil, err
	}
	metrics.RowsProcessed.WithLabelValues(source, "read").Add(float64(raw.Len()))

	cleaned, stats, err := transform.Clean(raw, entity.Clean)
	if err != nil {
		return nil, etlerr.WithTable(err, source)
	}

	if err := deps.Store.Write(ctx, target, cleaned); err != nil {
		return nil, err
	}
	metrics.RowsProcessed.WithLabelValues(target, "write").Add(float64(cleaned.Len()))

	logger.Info("Cleaned table",
		"rows_in", stats.RowsIn,
		"rows_out", stats.RowsOut,
		"dropped_sentinel", stats.DroppedSentinel,
		"dropped_missing", stats.DroppedMissing,
	)
	return &Output{
		Table:           target,
		RowsIn:          stats.RowsIn,
		RowsOut:         stats.RowsOut,
		DroppedSentinel: stats.DroppedSentinel,
		DroppedMissing:  stats.DroppedMissing,
	}, nil
}

// Produces names the table a clean task writes.
func Produces(input any) []string {
	_, _, target, err := resolve(input.(*Input))
	if err != nil {
		return nil
	}
	return []string{target}
}

// CheckInput rejects unknown entities before a run starts.
func CheckInput(input any) error {
	_, _, _, err := resolve(input.(*Input))
	return err
}

// Register registers the handler with the engine.
func (m *Module) Register(r *handlers.Handlers) {
	r.RegisterHandler(Kind, &handlers.RegisteredHandler{
		NewInput:   func() any { return new(Input) },
		Fn:         Run,
		Produces:   Produces,
		CheckInput: CheckInput,
	})
}
