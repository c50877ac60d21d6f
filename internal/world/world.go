// Package world is the host simulation: it owns entities and players, advances
// growth countdowns every tick and delivers lifecycle and interaction events
// to a single listener. It is not safe for concurrent use; drive it from the
// engine's scheduler.
package world

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/MRamiBalles/babyturt/internal/domain/entity"
	"github.com/MRamiBalles/babyturt/internal/domain/item"
	"github.com/MRamiBalles/babyturt/internal/domain/player"
	"github.com/MRamiBalles/babyturt/internal/events"
	"github.com/MRamiBalles/babyturt/internal/infra/storage"
	"github.com/MRamiBalles/babyturt/internal/platform/logger"
)

// EventEntityBorn resets an ageable entity's growth countdown to its maximum.
const EventEntityBorn = "minecraft:entity_born"

// WorldBorder bounds every coordinate a player may occupy.
const WorldBorder = 3e7

var (
	// ErrRestricted is returned by mutating calls made while a BEFORE event is
	// being delivered.
	ErrRestricted      = errors.New("world: call not allowed in restricted execution")
	ErrEntityNotFound  = errors.New("world: entity not found")
	ErrEntityExists    = errors.New("world: entity already exists")
	ErrPlayerNotFound  = errors.New("world: player not found")
	ErrUnknownEvent    = errors.New("world: unknown entity event")
	ErrInvalidGameMode = errors.New("world: invalid game mode")
	ErrOutOfBounds     = errors.New("world: position outside the world border")
)

// InBounds reports whether p is finite and inside the world border.
func InBounds(p entity.Vec3) bool {
	return p.IsFinite() &&
		math.Abs(p.X) <= WorldBorder && math.Abs(p.Y) <= WorldBorder && math.Abs(p.Z) <= WorldBorder
}

// Listener receives every event the world raises.
type Listener interface {
	Deliver(event events.GameEvent)
}

// Sink receives the audiovisual output of the world.
type Sink interface {
	PlaySound(dimension, sound string, at entity.Vec3, pitch float64)
	SpawnParticle(dimension, particle string, at entity.Vec3)
	SendMessage(text string)
}

// World is the simulated level.
type World struct {
	logger   *logger.Logger
	listener Listener
	sink     Sink

	tick       int64
	restricted int

	entities map[entity.ID]*entity.Entity
	order    []entity.ID
	players  map[string]*player.Player
	blocks   map[BlockPos]BlockKind
}

// New creates an empty world.
func New(log *logger.Logger) *World {
	return &World{
		logger:   log,
		entities: make(map[entity.ID]*entity.Entity),
		players:  make(map[string]*player.Player),
		blocks:   make(map[BlockPos]BlockKind),
	}
}

// SetListener installs the event listener.
func (w *World) SetListener(l Listener) {
	w.listener = l
}

// SetSink installs the audiovisual sink.
func (w *World) SetSink(s Sink) {
	w.sink = s
}

// Tick advances every juvenile's countdown by one tick. Install it as a
// scheduler hook.
func (w *World) Tick(tick int64) {
	w.tick = tick
	for _, id := range w.order {
		e := w.entities[id]
		if e.Ageable == nil || !e.Ageable.Advance(1) {
			continue
		}
		w.emit(events.EventTypeEntityGrewUp, events.PhaseAfter, events.ActorSystem, e.ID,
			events.EntityPayload{EntityID: e.ID, TypeID: e.TypeID})
	}
}

// --- Entities ---

// SpawnEntity adds a new entity and raises an after ENTITY_SPAWN.
func (w *World) SpawnEntity(e *entity.Entity) error {
	if e.ID == "" {
		e.ID = entity.NewID()
	}
	if e.Dimension == "" {
		e.Dimension = entity.DimensionHome
	}
	if err := w.add(e); err != nil {
		return err
	}
	w.emit(events.EventTypeEntitySpawn, events.PhaseAfter, events.ActorSystem, e.ID,
		events.EntityPayload{EntityID: e.ID, TypeID: e.TypeID})
	return nil
}

// Load brings stored entities into the world, raising an after ENTITY_LOAD
// for each. Entities already present are skipped.
func (w *World) Load(ctx context.Context, repo storage.EntityRepository) (int, error) {
	stored, err := repo.LoadEntities(ctx)
	if err != nil {
		return 0, fmt.Errorf("load entities: %w", err)
	}
	n := 0
	for i := range stored {
		e := stored[i]
		if err := w.add(&e); err != nil {
			w.logger.Debug("skipping stored entity", "entity", string(e.ID), "err", err)
			continue
		}
		n++
		w.emit(events.EventTypeEntityLoad, events.PhaseAfter, events.ActorSystem, e.ID,
			events.EntityPayload{EntityID: e.ID, TypeID: e.TypeID})
	}
	return n, nil
}

// Unload removes every entity, as when the level is closed.
func (w *World) Unload() {
	for _, id := range append([]entity.ID(nil), w.order...) {
		_ = w.RemoveEntity(id)
	}
}

// RemoveEntity raises a before ENTITY_REMOVE and deletes the entity.
func (w *World) RemoveEntity(id entity.ID) error {
	e, ok := w.entities[id]
	if !ok {
		return ErrEntityNotFound
	}
	w.emit(events.EventTypeEntityRemove, events.PhaseBefore, events.ActorSystem, id,
		events.EntityPayload{EntityID: id, TypeID: e.TypeID})

	delete(w.entities, id)
	for i, o := range w.order {
		if o == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	return nil
}

// Entity returns a live entity.
func (w *World) Entity(id entity.ID) (*entity.Entity, bool) {
	e, ok := w.entities[id]
	return e, ok
}

// IsValid reports whether the entity is still part of the world.
func (w *World) IsValid(id entity.ID) bool {
	_, ok := w.entities[id]
	return ok
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return len(w.order)
}

// Snapshot returns deep copies of every entity in spawn order.
func (w *World) Snapshot() []entity.Entity {
	out := make([]entity.Entity, 0, len(w.order))
	for _, id := range w.order {
		e := *w.entities[id]
		if e.Ageable != nil {
			a := *e.Ageable
			e.Ageable = &a
		}
		out = append(out, e)
	}
	return out
}

// TriggerEvent fires a named entity event.
func (w *World) TriggerEvent(id entity.ID, name string) error {
	if w.restricted > 0 {
		return ErrRestricted
	}
	e, ok := w.entities[id]
	if !ok {
		return ErrEntityNotFound
	}
	switch name {
	case EventEntityBorn:
		if e.Ageable != nil {
			e.Ageable.ResetGrowth()
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEvent, name)
	}
}

// --- Players ---

// SpawnPlayer adds a player, or respawns a known one, and raises an after
// PLAYER_SPAWN.
func (w *World) SpawnPlayer(p *player.Player) error {
	if !p.GameMode.Valid() {
		return ErrInvalidGameMode
	}
	if !InBounds(p.Location) || !p.ViewDirection.IsFinite() {
		return ErrOutOfBounds
	}
	_, known := w.players[p.ID]
	w.players[p.ID] = p
	w.emit(events.EventTypePlayerSpawn, events.PhaseAfter, p.ID, "",
		events.PlayerSpawnPayload{PlayerID: p.ID, InitialSpawn: !known})
	return nil
}

// RemovePlayer drops a disconnected player.
func (w *World) RemovePlayer(id string) {
	delete(w.players, id)
}

// Player returns a connected player.
func (w *World) Player(id string) (*player.Player, bool) {
	p, ok := w.players[id]
	return p, ok
}

// MovePlayer updates a player's eye position and view direction.
func (w *World) MovePlayer(id string, at, view entity.Vec3) error {
	p, ok := w.players[id]
	if !ok {
		return ErrPlayerNotFound
	}
	if !InBounds(at) || !view.IsFinite() {
		return ErrOutOfBounds
	}
	p.Location = at
	p.ViewDirection = view
	return nil
}

// SetHeldItem replaces the stack in a player's hand. Nil empties it.
func (w *World) SetHeldItem(id string, stack *item.Stack) error {
	p, ok := w.players[id]
	if !ok {
		return ErrPlayerNotFound
	}
	if stack != nil && stack.Amount <= 0 {
		stack = nil
	}
	p.Held = stack.Clone()
	return nil
}

// InteractWithEntity is a player using the held item on an entity. It raises
// a before and an after PLAYER_INTERACT_WITH_ENTITY around the host effect.
func (w *World) InteractWithEntity(playerID string, target entity.ID) error {
	p, ok := w.players[playerID]
	if !ok {
		return ErrPlayerNotFound
	}
	e, ok := w.entities[target]
	if !ok {
		return ErrEntityNotFound
	}

	before := p.Held.Clone()
	w.emit(events.EventTypePlayerInteractWithEntity, events.PhaseBefore, playerID, target,
		events.InteractPayload{PlayerID: playerID, TargetID: target, Item: before.Clone()})

	// A before listener may have removed the entity.
	if _, ok := w.entities[target]; !ok {
		return nil
	}
	w.applyInteraction(p, e)

	w.emit(events.EventTypePlayerInteractWithEntity, events.PhaseAfter, playerID, target,
		events.InteractPayload{PlayerID: playerID, TargetID: target, Item: before, After: p.Held.Clone()})
	return nil
}

func (w *World) applyInteraction(p *player.Player, e *entity.Entity) {
	held := p.Held
	switch {
	case held == nil:
	case held.IsNameTag():
		if held.IsNamed() {
			e.NameTag = held.NameTag
			p.Consume()
		}
	default:
		def, ok := item.Get(held.TypeID)
		if !ok || !def.Food || !e.IsBaby() {
			return
		}
		skip := int64(math.Round(float64(e.Ageable.Duration) * def.GrowthMod))
		if e.Ageable.Advance(skip) {
			w.emit(events.EventTypeEntityGrewUp, events.PhaseAfter, p.ID, e.ID,
				events.EntityPayload{EntityID: e.ID, TypeID: e.TypeID})
		}
		p.Consume()
	}
}

// UseItem is a player using the held item without a target. It raises a
// before ITEM_USE.
func (w *World) UseItem(playerID string) error {
	p, ok := w.players[playerID]
	if !ok {
		return ErrPlayerNotFound
	}
	if p.Held == nil {
		return nil
	}
	w.emit(events.EventTypeItemUse, events.PhaseBefore, playerID, "",
		events.ItemUsePayload{PlayerID: playerID, Item: p.Held.Clone()})
	return nil
}

// --- Output ---

// PlaySound plays a sound for every participant.
func (w *World) PlaySound(dimension, sound string, at entity.Vec3, pitch float64) error {
	if w.restricted > 0 {
		return ErrRestricted
	}
	if w.sink != nil {
		w.sink.PlaySound(dimension, sound, at, pitch)
	}
	return nil
}

// SpawnParticle spawns a particle effect for every participant.
func (w *World) SpawnParticle(dimension, particle string, at entity.Vec3) error {
	if w.restricted > 0 {
		return ErrRestricted
	}
	if w.sink != nil {
		w.sink.SpawnParticle(dimension, particle, at)
	}
	return nil
}

// SendMessage broadcasts a chat line.
func (w *World) SendMessage(text string) {
	if w.sink != nil {
		w.sink.SendMessage(text)
	}
}

func (w *World) add(e *entity.Entity) error {
	if _, ok := w.entities[e.ID]; ok {
		return ErrEntityExists
	}
	w.entities[e.ID] = e
	w.order = append(w.order, e.ID)
	return nil
}

// emit delivers one event. BEFORE events run restricted.
func (w *World) emit(t events.EventType, phase events.Phase, actor string, target entity.ID, payload interface{}) {
	if w.listener == nil {
		return
	}
	if phase == events.PhaseBefore {
		w.restricted++
		defer func() { w.restricted-- }()
	}
	w.listener.Deliver(events.New(t, phase, actor, string(target), payload, w.tick))
}
