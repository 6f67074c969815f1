package graph

import (
	"context"
	"fmt"

	"github.com/specialistvlad/flightgrid/internal/ctxlog"
	"github.com/specialistvlad/flightgrid/internal/node"
	"github.com/specialistvlad/flightgrid/internal/nodeid"
	"github.com/specialistvlad/flightgrid/internal/nodestore"
	"github.com/specialistvlad/flightgrid/internal/topologystore"
)

// Manager provides a high-level, thread-safe interface to the execution graph
// by composing lower-level storage backends.
type Manager struct {
	topology  topologystore.Store
	nodeState nodestore.Store
}

// New creates a new graph manager over already populated stores.
func New(ts topologystore.Store, ns nodestore.Store) *Manager {
	return &Manager{topology: ts, nodeState: ns}
}

// Node retrieves a node by its address.
func (m *Manager) Node(ctx context.Context, id nodeid.Address) (*node.Node, bool) {
	return m.topology.GetNode(ctx, id)
}

// AllNodes returns every node in topological order.
func (m *Manager) AllNodes(ctx context.Context) []*node.Node {
	return m.topology.AllNodes(ctx)
}

// DependenciesOf returns the direct predecessors of a node.
func (m *Manager) DependenciesOf(ctx context.Context, id nodeid.Address) ([]nodeid.Address, error) {
	return m.topology.DependenciesOf(ctx, id)
}

// DependentsOf returns the direct successors of a node.
func (m *Manager) DependentsOf(ctx context.Context, id nodeid.Address) ([]nodeid.Address, error) {
	return m.topology.DependentsOf(ctx, id)
}

// NodeStatus returns the current status of a node.
func (m *Manager) NodeStatus(ctx context.Context, id nodeid.Address) node.Status {
	status, err := m.nodeState.GetStatus(ctx, id)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Could not read node status", "id", id.String(), "error", err)
		return node.StatusPending
	}
	return status
}

// MarkReady moves a node from Pending to Ready.
func (m *Manager) MarkReady(ctx context.Context, id nodeid.Address) error {
	return m.transition(ctx, id, node.StatusPending, node.StatusReady)
}

// MarkRunning moves a node from Ready to Running.
func (m *Manager) MarkRunning(ctx context.Context, id nodeid.Address) error {
	return m.transition(ctx, id, node.StatusReady, node.StatusRunning)
}

// MarkSucceeded records the output, then moves the node to Succeeded. The
// output is stored first so that anyone observing Succeeded can read it.
func (m *Manager) MarkSucceeded(ctx context.Context, id nodeid.Address, output any) error {
	if err := m.nodeState.SetOutput(ctx, id, output); err != nil {
		return fmt.Errorf("failed to record output of %s: %w", id, err)
	}
	return m.transition(ctx, id, node.StatusRunning, node.StatusSucceeded)
}

// MarkFailed records the error, then moves a running node to Failed.
func (m *Manager) MarkFailed(ctx context.Context, id nodeid.Address, nodeErr error) error {
	return m.fail(ctx, id, node.StatusRunning, nodeErr)
}

// MarkDependencyFailed records the error, then moves a pending node to
// Failed.
func (m *Manager) MarkDependencyFailed(ctx context.Context, id nodeid.Address, nodeErr error) error {
	return m.fail(ctx, id, node.StatusPending, nodeErr)
}

func (m *Manager) fail(ctx context.Context, id nodeid.Address, from node.Status, nodeErr error) error {
	if err := m.nodeState.SetError(ctx, id, nodeErr); err != nil {
		return fmt.Errorf("failed to record error of %s: %w", id, err)
	}
	return m.transition(ctx, id, from, node.StatusFailed)
}

func (m *Manager) transition(ctx context.Context, id nodeid.Address, from, to node.Status) error {
	if _, ok := m.topology.GetNode(ctx, id); !ok {
		return fmt.Errorf("%w: %s", topologystore.ErrUnknownNode, id)
	}
	if err := m.nodeState.TransitionStatus(ctx, id, from, to); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Node status changed", "id", id.String(), "from", from.String(), "to", to.String())
	return nil
}

// Output returns the recorded output of a node, or nil.
func (m *Manager) Output(ctx context.Context, id nodeid.Address) any {
	out, _ := m.nodeState.GetOutput(ctx, id)
	return out
}

// Err returns the recorded error of a node, or nil.
func (m *Manager) Err(ctx context.Context, id nodeid.Address) error {
	nodeErr, _ := m.nodeState.GetError(ctx, id)
	return nodeErr
}

// Snapshot returns the state of every node in topological order.
func (m *Manager) Snapshot(ctx context.Context) []NodeState {
	nodes := m.topology.AllNodes(ctx)
	out := make([]NodeState, len(nodes))
	for i, n := range nodes {
		out[i] = NodeState{
			ID:     n.ID,
			Status: m.NodeStatus(ctx, n.ID),
			Err:    m.Err(ctx, n.ID),
		}
	}
	return out
}
