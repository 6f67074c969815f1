// Package nodestore defines the interface for storing and retrieving the
// dynamic, mutable execution state of nodes during a run.
//
// # Why Node Store Exists
//
// The node store isolates **mutable execution state** (status, outputs,
// errors) from the **immutable DAG structure** (nodes, dependencies) managed
// by topologystore. State writes from workers never contend with topology
// reads from the scheduler.
//
// # Lifecycle and Usage
//
// The node store is:
//  1. **Created** once per run (ephemeral, not persistent across runs)
//  2. **Mutated** continuously during execution as nodes move through states
//  3. **Queried** by the scheduler (via graph) to find ready and failed nodes
//  4. **Read** once more at the end of a run to build the run report
//
// # State Transitions
//
// Every node starts Pending. Status changes go through TransitionStatus, a
// compare-and-swap that only accepts the legal steps of node.CanTransition:
//
//	Pending → Ready → Running → Succeeded
//	                          ↘ Failed
//	Pending → Failed (a predecessor did not succeed)
//
// A terminal status is never left, so concurrent writers cannot overwrite a
// result that was already recorded.
package nodestore

import (
	"context"
	"errors"

	"github.com/specialistvlad/flightgrid/internal/node"
	"github.com/specialistvlad/flightgrid/internal/nodeid"
)

var (
	// ErrIllegalTransition is returned for a from → to pair that the node
	// lifecycle does not allow.
	ErrIllegalTransition = errors.New("illegal status transition")
	// ErrStatusConflict is returned when the node is not in the expected
	// `from` status at the time of the swap.
	ErrStatusConflict = errors.New("status conflict")
)

// Store is the interface for managing the mutable execution state of nodes.
//
// This interface does NOT manage static DAG structure. That responsibility
// belongs to topologystore.Store.
//
// # Thread-Safety Requirements
//
// Implementations MUST be safe for concurrent reads and writes: workers
// update state in parallel while the scheduler scans it.
//
// # Typical Implementation
//
// See internal/inmemorystore for the reference in-memory implementation.
type Store interface {
	// GetStatus retrieves the current status of a node. A node that has
	// never transitioned is StatusPending.
	GetStatus(ctx context.Context, id nodeid.Address) (node.Status, error)

	// TransitionStatus atomically moves a node from one status to another.
	// It fails with ErrIllegalTransition when the step is not part of the
	// lifecycle and with ErrStatusConflict when the node is not currently in
	// `from`.
	TransitionStatus(ctx context.Context, id nodeid.Address, from, to node.Status) error

	// SetOutput records the result of a successful node. Outputs are opaque
	// to the store.
	SetOutput(ctx context.Context, id nodeid.Address, output any) error

	// GetOutput retrieves the recorded output, or nil when there is none.
	GetOutput(ctx context.Context, id nodeid.Address) (any, error)

	// SetError records why a node failed.
	SetError(ctx context.Context, id nodeid.Address, nodeErr error) error

	// GetError retrieves the recorded failure, or nil when there is none.
	GetError(ctx context.Context, id nodeid.Address) (error, error)
}
