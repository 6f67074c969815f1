package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/flightgrid/internal/config"
	"github.com/specialistvlad/flightgrid/internal/ctxlog"
	"github.com/specialistvlad/flightgrid/internal/node"
	"github.com/specialistvlad/flightgrid/internal/nodeid"
	"github.com/specialistvlad/flightgrid/internal/nodestore"
	"github.com/specialistvlad/flightgrid/internal/topologystore"
)

// ErrInvalidPipeline wraps every error Build reports about the pipeline
// definition itself.
var ErrInvalidPipeline = errors.New("invalid pipeline")

// Build populates ts from the pipeline definition, seals it and returns a
// graph over ts and ns. Nodes are added first so that dependency
// declarations may refer to tasks declared later in the file.
func Build(ctx context.Context, p *config.Pipeline, ts topologystore.Store, ns nodestore.Store) (*Manager, error) {
	if p == nil || len(p.Tasks) == 0 {
		return nil, fmt.Errorf("%w: no tasks defined", ErrInvalidPipeline)
	}
	logger := ctxlog.FromContext(ctx)

	nodes := make([]*node.Node, 0, len(p.Tasks))
	for _, task := range p.Tasks {
		id, err := nodeid.New(task.Kind, task.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: task %q: %w", ErrInvalidPipeline, task.ID(), err)
		}
		n := &node.Node{ID: id, Arguments: task.Arguments}
		for _, raw := range task.DependsOn {
			dep, err := nodeid.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: task %s: depends_on: %w", ErrInvalidPipeline, id, err)
			}
			n.DependsOn = append(n.DependsOn, dep)
		}
		if err := ts.AddNode(ctx, n); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPipeline, err)
		}
		nodes = append(nodes, n)
	}

	for _, n := range nodes {
		for _, dep := range n.DependsOn {
			if err := ts.AddDependency(ctx, dep, n.ID); err != nil {
				return nil, fmt.Errorf("%w: task %s: %w", ErrInvalidPipeline, n.ID, err)
			}
		}
	}

	if err := ts.Seal(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPipeline, err)
	}
	logger.Debug("Graph built", "pipeline", p.Name, "nodes", len(nodes))
	return New(ts, ns), nil
}
