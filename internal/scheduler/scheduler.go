package scheduler

import (
	"context"
	"sync"

	"github.com/specialistvlad/flightgrid/internal/ctxlog"
	"github.com/specialistvlad/flightgrid/internal/etlerr"
	"github.com/specialistvlad/flightgrid/internal/graph"
	"github.com/specialistvlad/flightgrid/internal/node"
	"github.com/specialistvlad/flightgrid/internal/nodeid"
)

// Options tunes the scheduling policy.
type Options struct {
	// FailFast stops emitting new nodes after the first failure.
	FailFast bool
}

// DefaultScheduler is the reference implementation of Scheduler.
type DefaultScheduler struct {
	graph graph.Graph
	opts  Options

	ready chan *node.Node
	done  chan nodeid.Address
	once  sync.Once

	// stopped is owned by the loop goroutine.
	stopped bool
}

// New creates a scheduler for g. The done buffer holds one notification per
// node, so Done never blocks even after the scheduler has stopped.
func New(g graph.Graph, opts Options) *DefaultScheduler {
	return &DefaultScheduler{
		graph: g,
		opts:  opts,
		ready: make(chan *node.Node),
		done:  make(chan nodeid.Address, len(g.AllNodes(context.Background()))),
	}
}

// ReadyNodes starts the scheduling loop once and returns its output channel.
func (s *DefaultScheduler) ReadyNodes(ctx context.Context) <-chan *node.Node {
	s.once.Do(func() {
		go s.loop(ctx)
	})
	return s.ready
}

// Done records that an emitted node finished.
func (s *DefaultScheduler) Done(id nodeid.Address) {
	s.done <- id
}

func (s *DefaultScheduler) loop(ctx context.Context) {
	defer close(s.ready)
	logger := ctxlog.FromContext(ctx)

	inFlight := 0
	for {
		emitted, ok := s.scan(ctx)
		inFlight += emitted
		if !ok {
			logger.Info("Run cancelled, no further tasks will be started", "in_flight", inFlight)
			return
		}
		if inFlight == 0 {
			logger.Debug("Scheduler finished, nothing left in flight")
			return
		}

		select {
		case <-s.done:
			inFlight--
		case <-ctx.Done():
			logger.Info("Run cancelled, no further tasks will be started", "in_flight", inFlight)
			return
		}
	}
}

// scan walks the graph once, propagating failures and, unless stopped,
// emitting newly ready nodes. It reports how many nodes were emitted and
// false if the context was cancelled while emitting.
func (s *DefaultScheduler) scan(ctx context.Context) (int, bool) {
	logger := ctxlog.FromContext(ctx)
	emitted := 0

	for _, n := range s.graph.AllNodes(ctx) {
		if ctx.Err() != nil {
			return emitted, false
		}
		if s.graph.NodeStatus(ctx, n.ID) != node.StatusPending {
			continue
		}

		deps, err := s.graph.DependenciesOf(ctx, n.ID)
		if err != nil {
			logger.Error("Could not resolve dependencies", "id", n.ID.String(), "error", err)
			continue
		}

		failedDep, satisfied := nodeid.Address{}, true
		for _, dep := range deps {
			switch s.graph.NodeStatus(ctx, dep) {
			case node.StatusSucceeded:
			case node.StatusFailed:
				failedDep = dep
			default:
				satisfied = false
			}
			if !failedDep.IsZero() {
				break
			}
		}

		if !failedDep.IsZero() {
			cause := etlerr.DependencyFailed(n.ID.String(), failedDep.String())
			if err := s.graph.MarkDependencyFailed(ctx, n.ID, cause); err != nil {
				logger.Error("Could not mark dependency failure", "id", n.ID.String(), "error", err)
				continue
			}
			logger.Warn("⏭️ Task will not run, a predecessor failed", "id", n.ID.String(), "predecessor", failedDep.String())
			continue
		}
		if !satisfied || s.stopped {
			continue
		}
		if s.opts.FailFast && s.anyFailed(ctx) {
			s.stopped = true
			logger.Warn("Fail-fast: no further tasks will be started")
			continue
		}

		if err := s.graph.MarkReady(ctx, n.ID); err != nil {
			logger.Error("Could not mark node ready", "id", n.ID.String(), "error", err)
			continue
		}
		if ctx.Err() != nil {
			return emitted, false
		}
		select {
		case s.ready <- n:
			emitted++
		case <-ctx.Done():
			return emitted, false
		}
	}
	return emitted, true
}

func (s *DefaultScheduler) anyFailed(ctx context.Context) bool {
	for _, n := range s.graph.AllNodes(ctx) {
		if s.graph.NodeStatus(ctx, n.ID) == node.StatusFailed {
			return true
		}
	}
	return false
}
