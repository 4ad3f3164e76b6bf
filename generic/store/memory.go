// Package store provides FieldStore implementations.
package store

import (
	"context"
	"sync"

	"github.com/warp/perm-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	fields map[string]generic.Dates
	owners map[string]generic.Ownership
}

func NewMemory() *Memory {
	return &Memory{
		fields: make(map[string]generic.Dates),
		owners: make(map[string]generic.Ownership),
	}
}

// LoadFields returns copies; callers may mutate them freely.
func (m *Memory) LoadFields(_ context.Context, recordID string) (generic.Dates, generic.Ownership, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fields[recordID].Clone(), m.owners[recordID].Clone(), nil
}

// WriteFields merges the patch. Keys absent from values or owners are untouched.
func (m *Memory) WriteFields(_ context.Context, recordID string, values generic.Dates, owners generic.Ownership) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.fields[recordID]
	if !ok {
		stored = generic.Dates{}
		m.fields[recordID] = stored
	}
	stored.Apply(values)

	own, ok := m.owners[recordID]
	if !ok {
		own = generic.Ownership{}
		m.owners[recordID] = own
	}
	for f, origin := range owners {
		own[f] = origin
	}
	return nil
}

// Delete drops a record entirely.
func (m *Memory) Delete(_ context.Context, recordID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.fields, recordID)
	delete(m.owners, recordID)
	return nil
}
