// Package localexecutor provides a concrete, in-process implementation of the
// executor.Executor interface: a fixed pool of worker goroutines consuming the
// scheduler's ready channel.
package localexecutor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/specialistvlad/flightgrid/internal/config"
	"github.com/specialistvlad/flightgrid/internal/ctxlog"
	"github.com/specialistvlad/flightgrid/internal/etlerr"
	"github.com/specialistvlad/flightgrid/internal/executor"
	"github.com/specialistvlad/flightgrid/internal/graph"
	"github.com/specialistvlad/flightgrid/internal/handlers"
	"github.com/specialistvlad/flightgrid/internal/metrics"
	"github.com/specialistvlad/flightgrid/internal/node"
	"github.com/specialistvlad/flightgrid/internal/nodeid"
	"github.com/specialistvlad/flightgrid/internal/scheduler"
	"github.com/zclconf/go-cty/cty"
)

// Options configures an Executor.
type Options struct {
	// Workers is the size of the worker pool; values below 1 mean 1.
	Workers int
	// Clock measures task durations. Defaults to the real clock.
	Clock clockwork.Clock
}

// Executor implements the executor.Executor interface for local execution.
type Executor struct {
	sched     scheduler.Scheduler
	graph     graph.Graph
	handlers  *handlers.Handlers
	converter config.Converter
	deps      *handlers.Deps
	workers   int
	clock     clockwork.Clock
}

var _ executor.Executor = (*Executor)(nil)

// New creates a new local executor.
func New(
	sch scheduler.Scheduler,
	g graph.Graph,
	reg *handlers.Handlers,
	conv config.Converter,
	deps *handlers.Deps,
	opts Options,
) *Executor {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Executor{
		sched:     sch,
		graph:     g,
		handlers:  reg,
		converter: conv,
		deps:      deps,
		workers:   opts.Workers,
		clock:     opts.Clock,
	}
}

// Execute runs the graph to completion. Cancelling ctx stops new tasks from
// starting; tasks already running finish with a context that is no longer
// cancellable. It returns nil if every task succeeded, otherwise a
// *executor.RunError.
func (e *Executor) Execute(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Info("🚀 Starting concurrent execution...", "workers", e.workers)

	ready := e.sched.ReadyNodes(ctx)
	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			e.worker(ctx, ready, workerID)
		}(i + 1)
	}
	wg.Wait()

	logger.Info("🏁 Execution finished.")
	return e.report(ctx)
}

// worker is the core processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, ready <-chan *node.Node, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for n := range ready {
		e.runNode(ctx, n, workerID)
		e.sched.Done(n.ID)
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

func (e *Executor) runNode(ctx context.Context, n *node.Node, workerID int) {
	taskCtx := ctxlog.With(context.WithoutCancel(ctx), "task", n.ID.String(), "workerID", workerID)
	logger := ctxlog.FromContext(taskCtx)

	if err := e.graph.MarkRunning(taskCtx, n.ID); err != nil {
		logger.Error("Could not start task", "error", err)
		return
	}
	logger.Info("▶️ Starting task")

	start := e.clock.Now()
	output, err := e.invoke(taskCtx, n)
	elapsed := e.clock.Since(start)
	metrics.TaskDuration.WithLabelValues(n.ID.Kind).Observe(elapsed.Seconds())

	if err != nil {
		metrics.TaskRunsTotal.WithLabelValues(n.ID.Kind, metrics.StatusError).Inc()
		logger.Error("❌ Task failed", "error", err, "duration", elapsed)
		if markErr := e.graph.MarkFailed(taskCtx, n.ID, err); markErr != nil {
			logger.Error("Could not record task failure", "error", markErr)
		}
		return
	}

	metrics.TaskRunsTotal.WithLabelValues(n.ID.Kind, metrics.StatusSuccess).Inc()
	if markErr := e.graph.MarkSucceeded(taskCtx, n.ID, output); markErr != nil {
		logger.Error("Could not record task success", "error", markErr)
		return
	}
	logger.Info("✅ Finished task", "duration", elapsed)
}

// invoke decodes the task's arguments and calls its handler. A panic inside
// the handler becomes the task's error.
func (e *Executor) invoke(ctx context.Context, n *node.Node) (output cty.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			ctxlog.FromContext(ctx).Debug("Recovered handler panic", "stack", string(debug.Stack()))
			err = fmt.Errorf("task %s panicked: %v", n.ID, r)
		}
	}()

	h, ok := e.handlers.Get(n.ID.Kind)
	if !ok {
		return cty.NilVal, fmt.Errorf("no handler registered for task kind %q", n.ID.Kind)
	}
	input := h.NewInput()
	if err := e.converter.Decode(ctx, n.Arguments, input); err != nil {
		return cty.NilVal, fmt.Errorf("failed to decode arguments for task %s: %w", n.ID, err)
	}
	ctxlog.FromContext(ctx).Debug("Task input decoded", "input", fmt.Sprintf("%+v", input))

	native, err := h.Call(ctx, e.deps, input)
	if err != nil {
		return cty.NilVal, err
	}
	output, err = e.converter.ToCtyValue(native)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to convert output of task %s: %w", n.ID, err)
	}
	return output, nil
}

// report turns the final graph state into the run result.
func (e *Executor) report(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	runErr := &executor.RunError{}

	for _, st := range e.graph.Snapshot(ctx) {
		id := st.ID.String()
		switch st.Status {
		case node.StatusSucceeded:
			continue
		case node.StatusFailed:
			if errors.Is(st.Err, etlerr.ErrDependencyFailed) {
				runErr.DependencyFailed = append(runErr.DependencyFailed, id)
			} else {
				runErr.Failed = append(runErr.Failed, executor.TaskFailure{Task: id, Err: st.Err})
			}
		default:
			runErr.NotStarted = append(runErr.NotStarted, id)
		}
		for _, table := range e.produces(ctx, st.ID) {
			if !slices.Contains(runErr.MissingTables, table) {
				runErr.MissingTables = append(runErr.MissingTables, table)
			}
		}
	}

	if runErr.OK() {
		metrics.RunsTotal.WithLabelValues(metrics.StatusSuccess).Inc()
		return nil
	}
	metrics.RunsTotal.WithLabelValues(metrics.StatusError).Inc()
	logger.Error("Run finished with failures",
		"failed", len(runErr.Failed),
		"dependency_failed", runErr.DependencyFailed,
		"not_started", runErr.NotStarted,
		"tables_not_produced", runErr.MissingTables,
	)
	return runErr
}

// produces lists the tables a task would have written, or nothing if that
// cannot be determined.
func (e *Executor) produces(ctx context.Context, id nodeid.Address) []string {
	h, ok := e.handlers.Get(id.Kind)
	if !ok || h.Produces == nil {
		return nil
	}
	n, ok := e.graph.Node(ctx, id)
	if !ok {
		return nil
	}
	input := h.NewInput()
	if err := e.converter.Decode(ctx, n.Arguments, input); err != nil {
		return nil
	}
	return h.Produces(input)
}
