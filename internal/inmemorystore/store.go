package inmemorystore

import (
	"context"
	"fmt"
	"sync"

	"github.com/specialistvlad/flightgrid/internal/node"
	"github.com/specialistvlad/flightgrid/internal/nodeid"
	"github.com/specialistvlad/flightgrid/internal/nodestore"
)

// Store is an in-memory implementation of nodestore.Store.
type Store struct {
	states  sync.Map // nodeid.Address -> node.Status
	outputs sync.Map // nodeid.Address -> any
	errors  sync.Map // nodeid.Address -> error
}

// New creates a new, empty in-memory node state store.
func New() *Store {
	return &Store{}
}

// GetStatus retrieves the execution status of a specific node.
// If a status has not been set, it returns StatusPending.
func (s *Store) GetStatus(ctx context.Context, id nodeid.Address) (node.Status, error) {
	status, ok := s.states.Load(id)
	if !ok {
		return node.StatusPending, nil
	}
	return status.(node.Status), nil
}

// TransitionStatus performs a compare-and-swap on the node's status.
func (s *Store) TransitionStatus(ctx context.Context, id nodeid.Address, from, to node.Status) error {
	if !node.CanTransition(from, to) {
		return fmt.Errorf("%w: %s → %s for %s", nodestore.ErrIllegalTransition, from, to, id)
	}
	// An absent key is an implicit Pending.
	if from == node.StatusPending {
		if _, loaded := s.states.LoadOrStore(id, to); !loaded {
			return nil
		}
	}
	if s.states.CompareAndSwap(id, from, to) {
		return nil
	}
	current, _ := s.GetStatus(ctx, id)
	return fmt.Errorf("%w: %s is %s, expected %s", nodestore.ErrStatusConflict, id, current, from)
}

// SetOutput records the successful output of a node.
func (s *Store) SetOutput(ctx context.Context, id nodeid.Address, output any) error {
	s.outputs.Store(id, output)
	return nil
}

// GetOutput retrieves the recorded output of a completed node.
func (s *Store) GetOutput(ctx context.Context, id nodeid.Address) (any, error) {
	output, ok := s.outputs.Load(id)
	if !ok {
		return nil, nil
	}
	return output, nil
}

// SetError records the failure error of a node.
func (s *Store) SetError(ctx context.Context, id nodeid.Address, nodeErr error) error {
	s.errors.Store(id, nodeErr)
	return nil
}

// GetError retrieves the recorded error of a failed node.
func (s *Store) GetError(ctx context.Context, id nodeid.Address) (error, error) {
	err, ok := s.errors.Load(id)
	if !ok {
		return nil, nil
	}
	return err.(error), nil
}
