package inmemorytopology

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/specialistvlad/flightgrid/internal/node"
	"github.com/specialistvlad/flightgrid/internal/nodeid"
	"github.com/specialistvlad/flightgrid/internal/topologystore"
)

// Store implements the topologystore.Store interface using maps and a mutex
// for thread-safe concurrent access.
type Store struct {
	mu         sync.RWMutex
	nodes      map[nodeid.Address]*node.Node
	deps       map[nodeid.Address]map[nodeid.Address]struct{} // node -> predecessors
	dependents map[nodeid.Address]map[nodeid.Address]struct{} // node -> successors
	order      []*node.Node
	sealed     bool
}

// New creates a new, empty in-memory topology store.
func New() *Store {
	return &Store{
		nodes:      make(map[nodeid.Address]*node.Node),
		deps:       make(map[nodeid.Address]map[nodeid.Address]struct{}),
		dependents: make(map[nodeid.Address]map[nodeid.Address]struct{}),
	}
}

// AddNode adds a new node to the store.
func (s *Store) AddNode(ctx context.Context, n *node.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sealed {
		return topologystore.ErrSealed
	}
	if _, exists := s.nodes[n.ID]; exists {
		return fmt.Errorf("%w: %s", topologystore.ErrDuplicateNode, n.ID)
	}
	s.nodes[n.ID] = n
	return nil
}

// AddDependency creates a dependency link from one node to another.
func (s *Store) AddDependency(ctx context.Context, from, to nodeid.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sealed {
		return topologystore.ErrSealed
	}
	if _, exists := s.nodes[from]; !exists {
		return fmt.Errorf("%w: dependency source %s", topologystore.ErrUnknownNode, from)
	}
	if _, exists := s.nodes[to]; !exists {
		return fmt.Errorf("%w: dependency target %s", topologystore.ErrUnknownNode, to)
	}
	if from == to {
		return fmt.Errorf("%w: %s depends on itself", topologystore.ErrCycle, to)
	}

	if s.deps[to] == nil {
		s.deps[to] = make(map[nodeid.Address]struct{})
	}
	s.deps[to][from] = struct{}{}
	if s.dependents[from] == nil {
		s.dependents[from] = make(map[nodeid.Address]struct{})
	}
	s.dependents[from][to] = struct{}{}
	return nil
}

// Seal runs cycle detection and computes the topological order.
func (s *Store) Seal(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sealed {
		return nil
	}
	if err := s.detectCycles(); err != nil {
		return err
	}
	s.order = s.topologicalOrder()
	s.sealed = true
	return nil
}

// detectCycles is a depth-first search with a temporary mark for the
// current recursion stack and a permanent mark for finished nodes.
func (s *Store) detectCycles() error {
	permanent := make(map[nodeid.Address]bool)
	temporary := make(map[nodeid.Address]bool)

	var visit func(id nodeid.Address) error
	visit = func(id nodeid.Address) error {
		if permanent[id] {
			return nil
		}
		if temporary[id] {
			return fmt.Errorf("%w involving node %s", topologystore.ErrCycle, id)
		}
		temporary[id] = true
		for _, next := range sortedKeys(s.dependents[id]) {
			if err := visit(next); err != nil {
				return err
			}
		}
		delete(temporary, id)
		permanent[id] = true
		return nil
	}

	for _, id := range sortedKeys(s.nodes) {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}

// topologicalOrder is Kahn's algorithm taking the smallest ready address
// each step, so the order is stable across runs.
func (s *Store) topologicalOrder() []*node.Node {
	indegree := make(map[nodeid.Address]int, len(s.nodes))
	var ready []nodeid.Address
	for id := range s.nodes {
		indegree[id] = len(s.deps[id])
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	order := make([]*node.Node, 0, len(s.nodes))
	for len(ready) > 0 {
		slices.SortFunc(ready, nodeid.Address.Compare)
		id := ready[0]
		ready = ready[1:]
		order = append(order, s.nodes[id])
		for next := range s.dependents[id] {
			indegree[next]--
			if indegree[next] == 0 {
				ready = append(ready, next)
			}
		}
	}
	return order
}

// GetNode retrieves a single node by its address.
func (s *Store) GetNode(ctx context.Context, id nodeid.Address) (*node.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	return n, ok
}

// AllNodes returns a snapshot of all nodes in the topology.
func (s *Store) AllNodes(ctx context.Context) []*node.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.sealed {
		return slices.Clone(s.order)
	}
	nodes := make([]*node.Node, 0, len(s.nodes))
	for _, id := range sortedKeys(s.nodes) {
		nodes = append(nodes, s.nodes[id])
	}
	return nodes
}

// DependenciesOf returns the addresses of all nodes that the given node depends on.
func (s *Store) DependenciesOf(ctx context.Context, id nodeid.Address) ([]nodeid.Address, error) {
	return s.edges(id, s.deps)
}

// DependentsOf returns the addresses of all nodes that depend on the given node.
func (s *Store) DependentsOf(ctx context.Context, id nodeid.Address) ([]nodeid.Address, error) {
	return s.edges(id, s.dependents)
}

func (s *Store) edges(id nodeid.Address, m map[nodeid.Address]map[nodeid.Address]struct{}) ([]nodeid.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.nodes[id]; !exists {
		return nil, fmt.Errorf("%w: %s", topologystore.ErrUnknownNode, id)
	}
	return sortedKeys(m[id]), nil
}

func sortedKeys[V any](m map[nodeid.Address]V) []nodeid.Address {
	keys := make([]nodeid.Address, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, nodeid.Address.Compare)
	return keys
}
