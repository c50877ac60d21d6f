package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/MRamiBalles/babyturt/internal/domain/entity"
)

// MemoryStore keeps properties, entities and events in process memory.
// Used for tests and throwaway worlds.
type MemoryStore struct {
	mu       sync.RWMutex
	props    map[entity.ID]map[string]bool
	entities []entity.Entity
	events   []EventRecord
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{props: make(map[entity.ID]map[string]bool)}
}

func (m *MemoryStore) GetBool(_ context.Context, id entity.ID, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.props[id][key], nil
}

func (m *MemoryStore) SetBool(_ context.Context, id entity.ID, key string, value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.props[id] == nil {
		m.props[id] = make(map[string]bool)
	}
	m.props[id][key] = value
	return nil
}

func (m *MemoryStore) SaveEntities(_ context.Context, entities []entity.Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entities = make([]entity.Entity, len(entities))
	for i, e := range entities {
		m.entities[i] = e
		if e.Ageable != nil {
			a := *e.Ageable
			m.entities[i].Ageable = &a
		}
	}
	return nil
}

func (m *MemoryStore) LoadEntities(_ context.Context) ([]entity.Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]entity.Entity, len(m.entities))
	for i, e := range m.entities {
		out[i] = e
		if e.Ageable != nil {
			a := *e.Ageable
			out[i].Ageable = &a
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) Append(_ context.Context, event EventRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MemoryStore) GetByTarget(_ context.Context, targetID string) ([]EventRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []EventRecord
	for _, e := range m.events {
		if e.TargetID == targetID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemoryStore) GetByEventType(_ context.Context, eventTypes ...string) ([]EventRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []EventRecord
	for _, e := range m.events {
		for _, t := range eventTypes {
			if e.EventType == t {
				out = append(out, e)
				break
			}
		}
	}
	return out, nil
}

var (
	_ PropertyStore    = (*MemoryStore)(nil)
	_ EntityRepository = (*MemoryStore)(nil)
	_ EventRepository  = (*MemoryStore)(nil)
)
