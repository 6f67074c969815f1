// Package scheduler decides which nodes in the execution DAG are ready to
// run based on dependency satisfaction.
//
// # Why Scheduler Exists
//
// The scheduler separates "what can run" from "how to run it". It owns the
// Pending → Ready and Pending → Failed transitions; the executor owns
// everything after Ready.
//
// # How It Works
//
// A single goroutine per run repeats a cycle:
//  1. Walk all nodes in topological order
//  2. Fail every Pending node that has a Failed predecessor, naming that
//     predecessor in an etlerr.DependencyFailed error; the walk order makes
//     failure reach every transitive dependent in one pass
//  3. Promote every Pending node whose predecessors all Succeeded to Ready
//     and emit it on the ReadyNodes channel
//  4. Wait for a Done notification from the executor
//  5. Stop when nothing is in flight, closing the channel
//
// Cancelling the context stops the cycle immediately: nodes already handed
// out keep running, nothing new is emitted. With FailFast, the first failure
// stops promotion while failure propagation and in-flight bookkeeping
// continue.
package scheduler
