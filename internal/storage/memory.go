package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/specialistvlad/flightgrid/internal/etlerr"
	"github.com/specialistvlad/flightgrid/internal/table"
)

// Memory keeps tables in a map. Tables are immutable, so they are stored and
// returned without copying.
type Memory struct {
	mu     sync.RWMutex
	tables map[string]*table.Table
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{tables: make(map[string]*table.Table)}
}

func (m *Memory) Read(_ context.Context, name string) (*table.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[name]
	if !ok {
		return nil, etlerr.NotFound(name, nil)
	}
	return t, nil
}

func (m *Memory) Write(_ context.Context, name string, t *table.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[name] = t
	return nil
}

func (m *Memory) Close() error { return nil }

// Names lists stored tables in sorted order.
func (m *Memory) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.tables))
	for n := range m.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
