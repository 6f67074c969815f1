// Package session defines the core interfaces for creating and managing an
// execution session. It abstracts away the details of local vs. remote execution.
package session

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/specialistvlad/flightgrid/internal/config"
	"github.com/specialistvlad/flightgrid/internal/executor"
	"github.com/specialistvlad/flightgrid/internal/graph"
	"github.com/specialistvlad/flightgrid/internal/handlers"
)

// Config is everything a session needs to run one pipeline.
type Config struct {
	Pipeline  *config.Pipeline
	Handlers  *handlers.Handlers
	Converter config.Converter
	Deps      *handlers.Deps

	// Workers is the executor's worker pool size.
	Workers int
	// FailFast stops launching tasks after the first failure.
	FailFast bool
	// Clock is optional; the real clock is used when nil.
	Clock clockwork.Clock
}

// SessionFactory creates an execution Session. Different implementations can
// support various backends, such as local or distributed execution.
type SessionFactory interface {
	// NewSession builds and validates the run. A pipeline that cannot run
	// (bad graph, unknown task kinds, undecodable arguments) is rejected
	// here, before any task starts.
	NewSession(ctx context.Context, cfg *Config) (Session, error)
}

// Session represents a single execution run and manages its lifecycle.
type Session interface {
	GetExecutor() (executor.Executor, error)
	// Graph exposes per-task state, during and after the run.
	Graph() graph.Graph
	// Close releases any resources held by the session. It accepts a context
	// to allow for graceful cleanup operations.
	Close(ctx context.Context) error
}
