// Package node defines the vertex type of the execution graph and the
// lifecycle states a vertex moves through during a run.
package node

import (
	"fmt"

	"github.com/specialistvlad/flightgrid/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
)

// Node is a single vertex in the execution graph, representing one task.
// Nodes are immutable once added to a topology; execution state lives in
// the node store.
type Node struct {
	// ID is the unique, structured identifier; ID.Kind selects the handler.
	ID nodeid.Address
	// Arguments is the task's argument object, or cty.NilVal.
	Arguments cty.Value
	// DependsOn lists the declared predecessors in declaration order.
	DependsOn []nodeid.Address
}

// Status represents the execution state of a node.
type Status int32

const (
	// StatusPending means at least one predecessor has not succeeded yet.
	StatusPending Status = iota
	// StatusReady means every predecessor succeeded and the node was handed
	// to the executor.
	StatusReady
	// StatusRunning means a worker is executing the node's handler.
	StatusRunning
	// StatusSucceeded means the handler returned without error.
	StatusSucceeded
	// StatusFailed means the handler failed or a predecessor did not succeed.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	case StatusRunning:
		return "running"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int32(s))
	}
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// CanTransition reports whether from -> to is a legal lifecycle step.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusReady || to == StatusFailed
	case StatusReady:
		return to == StatusRunning
	case StatusRunning:
		return to == StatusSucceeded || to == StatusFailed
	}
	return false
}
