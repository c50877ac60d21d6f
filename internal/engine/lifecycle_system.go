package engine

import (
	"context"

	"github.com/MRamiBalles/babyturt/internal/domain/entity"
	"github.com/MRamiBalles/babyturt/internal/domain/rules"
	"github.com/MRamiBalles/babyturt/internal/events"
	"github.com/MRamiBalles/babyturt/internal/infra/storage"
	"github.com/MRamiBalles/babyturt/internal/platform/logger"
)

// Invalidator is implemented by property stores that keep per-entity state
// in memory, such as cache.PropertyCache.
type Invalidator interface {
	Invalidate(id entity.ID)
}

// LifecycleSystem reconciles the tag cache with entities entering and
// leaving the simulation.
type LifecycleSystem struct {
	cache  *TagCache
	props  storage.PropertyStore
	logger *logger.Logger
}

// NewLifecycleSystem creates the reconciler.
func NewLifecycleSystem(cache *TagCache, props storage.PropertyStore, log *logger.Logger) *LifecycleSystem {
	return &LifecycleSystem{cache: cache, props: props, logger: log}
}

// OnEntityLoaded restores membership for entities loaded or spawned with the
// flag already set (save/reload, flagged offspring).
func (ls *LifecycleSystem) OnEntityLoaded(ctx context.Context, event events.GameEvent) {
	payload, ok := event.Payload.(events.EntityPayload)
	if !ok || rules.IsExcluded(payload.TypeID) {
		return
	}
	if ls.cache.IsTagged(ctx, payload.EntityID) && ls.cache.Restore(payload.EntityID) {
		ls.logger.Debug("tagged entity restored", "entity", string(payload.EntityID), "type", payload.TypeID)
	}
}

// OnEntityRemoving drops membership and any in-memory property state. The
// stored flag is kept so the entity comes back tagged when it is loaded again.
func (ls *LifecycleSystem) OnEntityRemoving(event events.GameEvent) {
	payload, ok := event.Payload.(events.EntityPayload)
	if !ok {
		return
	}
	if inv, ok := ls.props.(Invalidator); ok {
		inv.Invalidate(payload.EntityID)
	}
	if rules.IsExcluded(payload.TypeID) {
		return
	}
	ls.cache.Forget(payload.EntityID)
}
