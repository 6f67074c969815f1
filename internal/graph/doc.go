// Package graph provides a unified, high-level interface for managing the
// execution graph.
//
// # Why Graph Package Exists
//
// The Graph interface is a facade that combines topology (structure) and
// node state (execution) into a single API. The scheduler and executor
// interact with one interface instead of coordinating topologystore and
// nodestore directly.
//
// # Responsibilities
//
// The graph package orchestrates two underlying stores:
//   - **Topology Store** (topologystore.Store): static DAG structure
//   - **Node Store** (nodestore.Store): mutable execution state
//
// Build turns a config.Pipeline into a sealed topology, rejecting duplicate
// task IDs, unknown dependencies, self-dependencies and cycles.
//
// # Lifecycle
//
//  1. **Built** by the session from the pipeline definition
//  2. **Queried** during execution (scheduler finds ready nodes, workers
//     update state)
//  3. **Snapshotted** at the end of a run for the run report
//  4. **Discarded** when the session ends
package graph
