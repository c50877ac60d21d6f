package engine

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/MRamiBalles/babyturt/internal/domain/entity"
	"github.com/MRamiBalles/babyturt/internal/domain/item"
	"github.com/MRamiBalles/babyturt/internal/domain/rules"
	"github.com/MRamiBalles/babyturt/internal/events"
	"github.com/MRamiBalles/babyturt/internal/platform/logger"
	"github.com/MRamiBalles/babyturt/internal/platform/metrics"
	"github.com/MRamiBalles/babyturt/internal/world"
)

// Ways an entity can change tag state, recorded in the audit log.
const (
	viaInteract = "interact"
	viaAim      = "aim"
)

// InteractionSystem maps name tag use onto tag and untag transitions.
//
//	Untagged --named tag on entity-----------> Tagged
//	Tagged   --unnamed tag on entity---------> Untagged
//	Tagged   --unnamed tag aimed at entity---> Untagged
type InteractionSystem struct {
	sim         Simulation
	cache       *TagCache
	suppression *GrowthSuppressionSystem
	sched       *Scheduler
	eventLog    *events.EventLog
	logger      *logger.Logger
	metrics     *metrics.Collector
}

// NewInteractionSystem creates the handler.
func NewInteractionSystem(sim Simulation, cache *TagCache, suppression *GrowthSuppressionSystem, sched *Scheduler, eventLog *events.EventLog, log *logger.Logger, m *metrics.Collector) *InteractionSystem {
	return &InteractionSystem{
		sim:         sim,
		cache:       cache,
		suppression: suppression,
		sched:       sched,
		eventLog:    eventLog,
		logger:      log,
		metrics:     m,
	}
}

// OnBeforeInteract toggles the tag when a player uses a name tag on an
// ageable entity. Runs in the restricted context: signals and feedback are
// deferred to the next tick.
func (is *InteractionSystem) OnBeforeInteract(ctx context.Context, event events.GameEvent) {
	payload, ok := event.Payload.(events.InteractPayload)
	if !ok || !payload.Item.IsNameTag() {
		return
	}

	target, ok := is.sim.Entity(payload.TargetID)
	if !ok || !rules.Taggable(target) {
		return
	}

	tagged := is.cache.IsTagged(ctx, target.ID)
	switch {
	case payload.Item.IsNamed() && !tagged:
		is.tag(ctx, payload.PlayerID, target)
	case !payload.Item.IsNamed() && tagged:
		is.untag(ctx, payload.PlayerID, target, viaInteract)
	}
}

// OnAfterInteract negates growth progress handed out by an interaction that
// consumed nothing, e.g. a feeding click that bypassed consumption. Creative
// players never consume, so they are skipped.
func (is *InteractionSystem) OnAfterInteract(ctx context.Context, event events.GameEvent) {
	payload, ok := event.Payload.(events.InteractPayload)
	if !ok || payload.Item == nil {
		return
	}
	if item.AmountOf(payload.Item) != item.AmountOf(payload.After) {
		return
	}
	p, ok := is.sim.Player(payload.PlayerID)
	if !ok || p.IsCreative() {
		return
	}
	target, ok := is.sim.Entity(payload.TargetID)
	if !ok || !rules.Taggable(target) || !is.cache.IsTagged(ctx, target.ID) {
		return
	}
	is.suppression.signalBorn(target.ID, metrics.ReasonFeed)
}

// OnBeforeItemUse untags the closest tagged entity the player aims an
// unnamed name tag at. Solid blocks occlude; liquids and passable blocks do not.
func (is *InteractionSystem) OnBeforeItemUse(ctx context.Context, event events.GameEvent) {
	payload, ok := event.Payload.(events.ItemUsePayload)
	if !ok || !payload.Item.IsNameTag() || payload.Item.IsNamed() {
		return
	}

	hits := is.sim.EntitiesFromViewDirection(payload.PlayerID, world.RaycastOptions{
		MaxDistance:           UntagReach,
		IncludeLiquidBlocks:   false,
		IncludePassableBlocks: false,
		ExcludeTypes:          rules.ExcludedTypes(),
	})

	var closest *world.Hit
	for i := range hits {
		h := &hits[i]
		if rules.IsExcluded(h.Entity.TypeID) || !is.cache.IsTagged(ctx, h.Entity.ID) {
			continue
		}
		if closest == nil || h.Distance < closest.Distance {
			closest = h
		}
	}
	if closest == nil {
		return
	}
	is.untag(ctx, payload.PlayerID, closest.Entity, viaAim)
}

func (is *InteractionSystem) tag(ctx context.Context, playerID string, target *entity.Entity) {
	ctx, span := tracer.Start(ctx, "tag.on", trace.WithAttributes(
		attribute.String("entity.id", string(target.ID)),
		attribute.String("entity.type", target.TypeID),
	))
	defer span.End()

	if err := is.cache.Add(ctx, target.ID); err != nil {
		span.RecordError(err)
		return
	}
	is.metrics.RecordTransition(metrics.DirectionOn, is.cache.Len())
	is.record(events.EventTypeEntityTagged, playerID, target, viaInteract)

	// Restart the clock rather than keep partial growth progress.
	is.suppression.signalBorn(target.ID, metrics.ReasonTag)
	displayInteraction(is.sched, is.sim, is.logger, target, FeedbackOn)
}

func (is *InteractionSystem) untag(ctx context.Context, playerID string, target *entity.Entity, via string) {
	ctx, span := tracer.Start(ctx, "tag.off", trace.WithAttributes(
		attribute.String("entity.id", string(target.ID)),
		attribute.String("tag.via", via),
	))
	defer span.End()

	if err := is.cache.Remove(ctx, target.ID); err != nil {
		span.RecordError(err)
		return
	}
	is.metrics.RecordTransition(metrics.DirectionOff, is.cache.Len())
	is.record(events.EventTypeEntityUntagged, playerID, target, via)

	displayInteraction(is.sched, is.sim, is.logger, target, FeedbackOff)
}

func (is *InteractionSystem) record(t events.EventType, playerID string, target *entity.Entity, via string) {
	is.eventLog.Append(events.New(t, events.PhaseAfter, playerID, string(target.ID),
		events.TagPayload{EntityID: target.ID, TypeID: target.TypeID, Via: via}, is.sched.CurrentTick()))
	is.logger.Event(string(t), playerID, target.TypeID+" "+string(target.ID)+" via "+via)
}
