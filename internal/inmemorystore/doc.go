// Package inmemorystore provides an ephemeral, thread-safe, in-memory
// implementation of the nodestore.Store interface.
//
// # Concurrency Model
//
// Unlike inmemorytopology, which uses an RWMutex, this store uses sync.Map:
// the key space is fixed once the graph is built, values change frequently
// and each node's state is independent of every other node's. Status swaps
// use sync.Map.CompareAndSwap, so no transition is ever lost or applied
// twice.
package inmemorystore
