// Package localsession provides a concrete implementation of the session.Session
// and session.SessionFactory interfaces for local, in-process execution.
package localsession

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/flightgrid/internal/ctxlog"
	"github.com/specialistvlad/flightgrid/internal/executor"
	"github.com/specialistvlad/flightgrid/internal/graph"
	"github.com/specialistvlad/flightgrid/internal/inmemorystore"
	"github.com/specialistvlad/flightgrid/internal/inmemorytopology"
	"github.com/specialistvlad/flightgrid/internal/localexecutor"
	"github.com/specialistvlad/flightgrid/internal/scheduler"
	"github.com/specialistvlad/flightgrid/internal/session"
)

// ErrInvalidTask is wrapped by every task-level validation error.
var ErrInvalidTask = errors.New("invalid task")

// SessionFactory implements session.SessionFactory for local runs.
type SessionFactory struct{}

var _ session.SessionFactory = (*SessionFactory)(nil)

// NewSession builds the graph, validates every task against its handler and
// wires the scheduler and executor.
func (f *SessionFactory) NewSession(ctx context.Context, cfg *session.Config) (session.Session, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Creating local session.", "pipeline", cfg.Pipeline.Name)

	topoStore := inmemorytopology.New()
	nodeStore := inmemorystore.New()
	g, err := graph.Build(ctx, cfg.Pipeline, topoStore, nodeStore)
	if err != nil {
		return nil, err
	}
	if err := validateTasks(ctx, g, cfg); err != nil {
		return nil, err
	}

	sched := scheduler.New(g, scheduler.Options{FailFast: cfg.FailFast})
	exec := localexecutor.New(sched, g, cfg.Handlers, cfg.Converter, cfg.Deps, localexecutor.Options{
		Workers: cfg.Workers,
		Clock:   cfg.Clock,
	})

	logger.Debug("Local session ready.", "tasks", len(g.AllNodes(ctx)), "workers", cfg.Workers, "fail_fast", cfg.FailFast)
	return &Session{executor: exec, graph: g}, nil
}

// validateTasks checks that every task kind has a handler and that every
// task's arguments decode into its handler's input. All problems are
// reported together.
func validateTasks(ctx context.Context, g graph.Graph, cfg *session.Config) error {
	var errs []error
	for _, n := range g.AllNodes(ctx) {
		h, ok := cfg.Handlers.Get(n.ID.Kind)
		if !ok {
			errs = append(errs, fmt.Errorf("%w %s: no handler for task kind %q (known: %v)", ErrInvalidTask, n.ID, n.ID.Kind, cfg.Handlers.Kinds()))
			continue
		}
		input := h.NewInput()
		if err := cfg.Converter.Decode(ctx, n.Arguments, input); err != nil {
			errs = append(errs, fmt.Errorf("%w %s: %w", ErrInvalidTask, n.ID, err))
			continue
		}
		if h.CheckInput != nil {
			if err := h.CheckInput(input); err != nil {
				errs = append(errs, fmt.Errorf("%w %s: %w", ErrInvalidTask, n.ID, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Session implements session.Session for local runs.
type Session struct {
	executor executor.Executor
	graph    graph.Graph
}

// GetExecutor returns the executor that was created and wired up by the factory.
func (s *Session) GetExecutor() (executor.Executor, error) {
	return s.executor, nil
}

// Graph returns the run's execution graph.
func (s *Session) Graph() graph.Graph {
	return s.graph
}

// Close releases the session. The in-memory stores need no cleanup.
func (s *Session) Close(ctx context.Context) error {
	ctxlog.FromContext(ctx).Debug("Local session closed.")
	return nil
}
