// Package topologystore defines the interface for storing and retrieving the
// static structure of a dependency graph (DAG).
//
// # Why Topology Store Exists
//
// The topology store isolates the **immutable DAG structure** (nodes and
// their dependency relationships) from the **mutable execution state**
// (status, outputs, errors) managed by nodestore.
//
// # Lifecycle and Usage
//
// The topology store is:
//  1. **Created** once per run (ephemeral, not persistent across runs)
//  2. **Populated** by graph.Build (nodes, then dependency edges)
//  3. **Sealed** once populated; Seal rejects cycles and fixes the
//     topological order
//  4. **Read-only** during execution (the scheduler walks AllNodes and
//     DependenciesOf, workers look nodes up with GetNode)
//
// Mutations after Seal fail with ErrSealed, so the structure a run executes
// is exactly the structure that was validated.
package topologystore

import (
	"context"
	"errors"

	"github.com/specialistvlad/flightgrid/internal/node"
	"github.com/specialistvlad/flightgrid/internal/nodeid"
)

var (
	// ErrSealed is returned by mutations after Seal.
	ErrSealed = errors.New("topology is sealed")
	// ErrNotSealed is returned by ordered reads before Seal.
	ErrNotSealed = errors.New("topology is not sealed")
	// ErrDuplicateNode is returned when a node ID is added twice.
	ErrDuplicateNode = errors.New("duplicate node")
	// ErrUnknownNode is returned when an edge or lookup names a missing node.
	ErrUnknownNode = errors.New("unknown node")
	// ErrCycle is returned by Seal when the edges form a cycle.
	ErrCycle = errors.New("dependency cycle")
)

// Store is the interface for managing the static topology of a DAG.
//
// # Thread-Safety Requirements
//
// Implementations MUST be safe for concurrent use. Writes happen during
// construction only; reads happen concurrently from the scheduler and all
// workers.
//
// # Typical Implementation
//
// See internal/inmemorytopology for the reference in-memory implementation.
type Store interface {
	// AddNode registers a new node. Adding an ID that is already present
	// fails with ErrDuplicateNode.
	AddNode(ctx context.Context, n *node.Node) error

	// AddDependency records that `to` depends on `from`: `from` must succeed
	// before `to` can start. Both nodes must exist; a self edge is a cycle.
	AddDependency(ctx context.Context, from, to nodeid.Address) error

	// Seal validates that the graph is acyclic, fixes the topological order
	// and makes the store read-only.
	Seal(ctx context.Context) error

	// GetNode retrieves a single node by its address.
	GetNode(ctx context.Context, id nodeid.Address) (*node.Node, bool)

	// AllNodes returns every node in a deterministic topological order:
	// predecessors first, ties broken by address. Before Seal the order is
	// by address only.
	AllNodes(ctx context.Context) []*node.Node

	// DependenciesOf returns the direct predecessors of id, sorted by
	// address.
	DependenciesOf(ctx context.Context, id nodeid.Address) ([]nodeid.Address, error)

	// DependentsOf returns the direct successors of id, sorted by address.
	DependentsOf(ctx context.Context, id nodeid.Address) ([]nodeid.Address, error)
}
