package graph

import (
	"context"

	"github.com/specialistvlad/flightgrid/internal/node"
	"github.com/specialistvlad/flightgrid/internal/nodeid"
)

// Graph is a unified interface for interacting with the execution DAG,
// combining static topology queries with dynamic state updates.
//
// # Usage Patterns
//
// **Scheduler** uses Graph to:
//   - Walk nodes in topological order: AllNodes()
//   - Check predecessors: DependenciesOf(), NodeStatus()
//   - Promote or fail pending nodes: MarkReady(), MarkDependencyFailed()
//
// **Executor** uses Graph to:
//   - Look up nodes for execution: Node()
//   - Record results: MarkRunning(), MarkSucceeded(), MarkFailed()
//   - Report the run: Snapshot()
//
// # Thread-Safety
//
// Implementations MUST be thread-safe: workers update the graph in parallel
// while the scheduler scans it.
type Graph interface {
	// Node retrieves a node by its address.
	Node(ctx context.Context, id nodeid.Address) (*node.Node, bool)

	// AllNodes returns every node in deterministic topological order.
	AllNodes(ctx context.Context) []*node.Node

	// DependenciesOf returns the direct predecessors of a node.
	DependenciesOf(ctx context.Context, id nodeid.Address) ([]nodeid.Address, error)

	// DependentsOf returns the direct successors of a node.
	DependentsOf(ctx context.Context, id nodeid.Address) ([]nodeid.Address, error)

	// NodeStatus returns the current status of a node. Unknown nodes report
	// StatusPending.
	NodeStatus(ctx context.Context, id nodeid.Address) node.Status

	// MarkReady moves a node from Pending to Ready.
	MarkReady(ctx context.Context, id nodeid.Address) error

	// MarkRunning moves a node from Ready to Running.
	MarkRunning(ctx context.Context, id nodeid.Address) error

	// MarkSucceeded moves a node from Running to Succeeded and records its
	// output.
	MarkSucceeded(ctx context.Context, id nodeid.Address, output any) error

	// MarkFailed moves a node from Running to Failed and records the error.
	MarkFailed(ctx context.Context, id nodeid.Address, nodeErr error) error

	// MarkDependencyFailed moves a node from Pending to Failed without it
	// ever running, recording why.
	MarkDependencyFailed(ctx context.Context, id nodeid.Address, nodeErr error) error

	// Output returns the recorded output of a succeeded node, or nil.
	Output(ctx context.Context, id nodeid.Address) any

	// Err returns the recorded error of a failed node, or nil.
	Err(ctx context.Context, id nodeid.Address) error

	// Snapshot returns the state of every node in topological order.
	Snapshot(ctx context.Context) []NodeState
}

// NodeState is a point-in-time view of one node.
type NodeState struct {
	ID     nodeid.Address
	Status node.Status
	Err    error
}
