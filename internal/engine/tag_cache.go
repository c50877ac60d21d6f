package engine

import (
	"context"

	"github.com/MRamiBalles/babyturt/internal/domain/entity"
	"github.com/MRamiBalles/babyturt/internal/infra/storage"
	"github.com/MRamiBalles/babyturt/internal/platform/logger"
	"github.com/MRamiBalles/babyturt/internal/platform/metrics"
)

// TagCache mirrors the persistent tagged flag for the entities currently
// loaded. The store stays the source of truth; the cache may lag it across
// reloads and is reconciled on every load and spawn.
//
// Entries are identities, never entity pointers. Liveness is asked of the
// host when the cache is used.
type TagCache struct {
	props   storage.PropertyStore
	logger  *logger.Logger
	metrics *metrics.Collector

	order []entity.ID
	index map[entity.ID]struct{}
}

// NewTagCache creates an empty cache backed by a property store.
func NewTagCache(props storage.PropertyStore, log *logger.Logger, m *metrics.Collector) *TagCache {
	return &TagCache{
		props:   props,
		logger:  log,
		metrics: m,
		index:   make(map[entity.ID]struct{}),
	}
}

// Add writes the flag true and registers the entity. The write always
// happens; membership is only gained once the flag is durable.
func (c *TagCache) Add(ctx context.Context, id entity.ID) error {
	if err := c.props.SetBool(ctx, id, TaggedKey, true); err != nil {
		c.storeFailed("tag", id, err)
		return err
	}
	c.insert(id)
	return nil
}

// Remove deregisters the entity and writes the flag false.
func (c *TagCache) Remove(ctx context.Context, id entity.ID) error {
	c.delete(id)
	if err := c.props.SetBool(ctx, id, TaggedKey, false); err != nil {
		c.storeFailed("untag", id, err)
		return err
	}
	return nil
}

// Restore registers an entity whose stored flag is already true.
// Reports whether membership changed.
func (c *TagCache) Restore(id entity.ID) bool {
	return c.insert(id)
}

// Forget drops membership without touching the stored flag, for entities
// leaving the simulation. Reports whether membership changed.
func (c *TagCache) Forget(id entity.ID) bool {
	return c.delete(id)
}

// IsTagged reads the durable flag.
func (c *TagCache) IsTagged(ctx context.Context, id entity.ID) bool {
	v, err := c.props.GetBool(ctx, id, TaggedKey)
	if err != nil {
		c.storeFailed("read", id, err)
		return false
	}
	return v
}

// Contains reports cache membership.
func (c *TagCache) Contains(id entity.ID) bool {
	_, ok := c.index[id]
	return ok
}

// Len returns the number of cached entities.
func (c *TagCache) Len() int {
	return len(c.order)
}

// Members returns a point-in-time copy in insertion order. Callers may
// mutate the cache while iterating it.
func (c *TagCache) Members() []entity.ID {
	out := make([]entity.ID, len(c.order))
	copy(out, c.order)
	return out
}

func (c *TagCache) insert(id entity.ID) bool {
	if _, ok := c.index[id]; ok {
		return false
	}
	c.index[id] = struct{}{}
	c.order = append(c.order, id)
	c.metrics.TaggedEntities.Set(float64(len(c.order)))
	return true
}

func (c *TagCache) delete(id entity.ID) bool {
	if _, ok := c.index[id]; !ok {
		return false
	}
	delete(c.index, id)
	for i, m := range c.order {
		if m == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.metrics.TaggedEntities.Set(float64(len(c.order)))
	return true
}

func (c *TagCache) storeFailed(op string, id entity.ID, err error) {
	c.metrics.StoreErrors.Inc()
	c.logger.Warn("property store failed", "op", op, "entity", string(id), "err", err)
}
