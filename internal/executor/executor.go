// Package executor defines the interface for the DAG execution engine and
// the error it reports when a run does not fully succeed.
package executor

import "context"

// Executor is responsible for orchestrating the end-to-end execution of a DAG.
// It manages concurrency, interacts with the scheduler, and dispatches tasks.
//
// Execute returns nil when every task succeeded and a *RunError otherwise.
type Executor interface {
	Execute(ctx context.Context) error
}
