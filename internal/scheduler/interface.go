package scheduler

import (
	"context"

	"github.com/specialistvlad/flightgrid/internal/node"
	"github.com/specialistvlad/flightgrid/internal/nodeid"
)

// Scheduler streams nodes whose dependencies are satisfied.
//
// # Usage Pattern
//
// The executor consumes the ReadyNodes channel from a pool of workers and
// reports every node it received back through Done once the node reached a
// terminal status:
//
//	for n := range sched.ReadyNodes(ctx) {
//	    run(n)
//	    sched.Done(n.ID)
//	}
//
// # Thread-Safety
//
// Done may be called concurrently from any number of workers and never
// blocks.
type Scheduler interface {
	// ReadyNodes starts the scheduling goroutine on first call and returns
	// the channel it emits Ready nodes on. The channel is closed when no
	// node is in flight and nothing more can become ready, or when ctx is
	// cancelled. Later calls return the same channel.
	ReadyNodes(ctx context.Context) <-chan *node.Node

	// Done notifies the scheduler that an emitted node finished.
	Done(id nodeid.Address)
}
