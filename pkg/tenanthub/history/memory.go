package history

import (
	"fmt"
	"sync"

	"github.com/randalmurphal/tenanthub/pkg/tenanthub/event"
)

// MemoryStore is an in-memory history store.
// Data is lost when the process exits.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]Record       // tenant -> records in sequence order
	index   map[string]map[string]int // tenant -> event ID -> position
	closed  bool
}

// NewMemoryStore creates a new in-memory history store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string][]Record),
		index:   make(map[string]map[string]int),
	}
}

// Record implements Store.
func (m *MemoryStore) Record(tenant string, evt *event.Event) error {
	rec, err := newRecord(tenant, evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	if m.index[tenant] == nil {
		m.index[tenant] = make(map[string]int)
	}
	if _, exists := m.index[tenant][rec.EventID]; exists {
		return nil
	}

	rec.Sequence = int64(len(m.records[tenant]) + 1)
	m.index[tenant][rec.EventID] = len(m.records[tenant])
	m.records[tenant] = append(m.records[tenant], rec)
	return nil
}

// List implements Store.
func (m *MemoryStore) List(tenant string, limit int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	all := m.records[tenant]
	start := 0
	if limit > 0 && len(all) > limit {
		start = len(all) - limit
	}

	out := make([]Record, len(all)-start)
	copy(out, all[start:])
	return out, nil
}

// Get implements Store.
func (m *MemoryStore) Get(tenant, eventID string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Record{}, ErrStoreClosed
	}

	pos, ok := m.index[tenant][eventID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return m.records[tenant][pos], nil
}

// Count implements Store.
func (m *MemoryStore) Count(tenant string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, ErrStoreClosed
	}
	return len(m.records[tenant]), nil
}

// DeleteTenant implements Store.
func (m *MemoryStore) DeleteTenant(tenant string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	delete(m.records, tenant)
	delete(m.index, tenant)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.records = nil
	m.index = nil
	return nil
}
