// Package join implements the `join` task kind: it reads two silver tables
// concurrently, inner-joins them, counts rows per group and writes the gold
// table.
package join

import (
	"context"

	"github.com/specialistvlad/flightgrid/internal/ctxlog"
	"github.com/specialistvlad/flightgrid/internal/flights"
	"github.com/specialistvlad/flightgrid/internal/handlers"
	"github.com/specialistvlad/flightgrid/internal/metrics"
	"github.com/specialistvlad/flightgrid/internal/table"
	"github.com/specialistvlad/flightgrid/internal/transform"
	"golang.org/x/sync/errgroup"
)

// Kind is the task kind this module handles.
const Kind = "join"

// Module implements the handlers.Module interface for this package.
type Module struct{}

// Input defines the arguments for a join task. Left, Right and Target
// default to the silver tables of the aggregate's entities and its gold
// table.
type Input struct {
	Aggregate string `cty:"aggregate,required"`
	Left      string `cty:"left"`
	Right     string `cty:"right"`
	Target    string `cty:"target"`
}

// Output summarises what the task did.
type Output struct {
	Table      string `cty:"table"`
	JoinedRows int    `cty:"joined_rows"`
	Groups     int    `cty:"groups"`
}

type plan struct {
	agg                 flights.Aggregate
	left, right, target string
}

func resolve(input *Input) (plan, error) {
	agg, err := flights.LookupAggregate(input.Aggregate)
	if err != nil {
		return plan{}, err
	}
	p := plan{agg: agg, left: input.Left, right: input.Right, target: input.Target}
	if p.left == "" {
		e, err := flights.LookupEntity(agg.Left)
		if err != nil {
			return plan{}, err
		}
		p.left = e.Silver
	}
	if p.right == "" {
		e, err := flights.LookupEntity(agg.Right)
		if err != nil {
			return plan{}, err
		}
		p.right = e.Silver
	}
	if p.target == "" {
		p.target = agg.Gold
	}
	return p, nil
}

// Run reads both inputs, joins and aggregates them and overwrites the
// target table. Nothing is written when any step fails.
func Run(ctx context.Context, deps *handlers.Deps, input *Input) (*Output, error) {
	p, err := resolve(input)
	if err != nil {
		return nil, err
	}
	logger := ctxlog.FromContext(ctx).With("aggregate", p.agg.Name, "left", p.left, "right", p.right, "target", p.target)

	var left, right *table.Table
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := deps.Store.Read(gctx, p.left)
		left = t
		return err
	})
	g.Go(func() error {
		t, err := deps.Store.Read(gctx, p.right)
		right = t
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	metrics.RowsProcessed.WithLabelValues(p.left, "read").Add(float64(left.Len()))
	metrics.RowsProcessed.WithLabelValues(p.right, "read").Add(float64(right.Len()))

	gold, stats, err := transform.JoinAggregate(left, right, p.agg.Join)
	if err != nil {
		return nil, err
	}

	if err := deps.Store.Write(ctx, p.target, gold); err != nil {
		return nil, err
	}
	metrics.RowsProcessed.WithLabelValues(p.target, "write").Add(float64(gold.Len()))

	logger.Info("Aggregated table", "joined_rows", stats.JoinedRows, "groups", stats.Groups)
	return &Output{Table: p.target, JoinedRows: stats.JoinedRows, Groups: stats.Groups}, nil
}

// Produces names the table a join task writes.
func Produces(input any) []string {
	p, err := resolve(input.(*Input))
	if err != nil {
		return nil
	}
	return []string{p.target}
}

// CheckInput rejects unknown aggregates before a run starts.
func CheckInput(input any) error {
	_, err := resolve(input.(*Input))
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
