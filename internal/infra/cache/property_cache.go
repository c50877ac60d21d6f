// Package cache provides a write-through cache in front of the entity
// property store (not the source of truth).
package cache

import (
	"context"
	"sync"

	"github.com/MRamiBalles/babyturt/internal/domain/entity"
	"github.com/MRamiBalles/babyturt/internal/infra/storage"
	"github.com/MRamiBalles/babyturt/internal/platform/metrics"
)

// PropertyCache remembers the flags of entities it has read or written until
// they are invalidated. Writes go to the backing store first; a failed write
// leaves the cache untouched.
type PropertyCache struct {
	backing storage.PropertyStore
	metrics *metrics.Collector
	mu      sync.RWMutex
	values  map[entity.ID]map[string]bool
}

// NewPropertyCache wraps a property store. m may be nil.
func NewPropertyCache(backing storage.PropertyStore, m *metrics.Collector) *PropertyCache {
	return &PropertyCache{
		backing: backing,
		metrics: m,
		values:  make(map[entity.ID]map[string]bool),
	}
}

// GetBool serves from memory, falling back to the backing store on a miss.
func (c *PropertyCache) GetBool(ctx context.Context, id entity.ID, key string) (bool, error) {
	c.mu.RLock()
	v, ok := c.values[id][key]
	c.mu.RUnlock()
	if ok {
		c.record(true)
		return v, nil
	}

	v, err := c.backing.GetBool(ctx, id, key)
	if err != nil {
		return false, err
	}
	c.record(false)
	c.put(id, key, v)
	return v, nil
}

// SetBool writes through to the backing store.
func (c *PropertyCache) SetBool(ctx context.Context, id entity.ID, key string, value bool) error {
	if err := c.backing.SetBool(ctx, id, key, value); err != nil {
		return err
	}
	c.put(id, key, value)
	return nil
}

// Invalidate drops every cached key of an entity.
func (c *PropertyCache) Invalidate(id entity.ID) {
	c.mu.Lock()
	delete(c.values, id)
	c.mu.Unlock()
}

// Len returns the number of entities with cached keys.
func (c *PropertyCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}

func (c *PropertyCache) put(id entity.ID, key string, v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys, ok := c.values[id]
	if !ok {
		keys = make(map[string]bool, 1)
		c.values[id] = keys
	}
	keys[key] = v
}

func (c *PropertyCache) record(hit bool) {
	if c.metrics != nil {
		c.metrics.RecordPropertyLookup(hit)
	}
}

var _ storage.PropertyStore = (*PropertyCache)(nil)
