package engine

import (
	"context"

	"github.com/MRamiBalles/babyturt/internal/domain/entity"
	"github.com/MRamiBalles/babyturt/internal/events"
	"github.com/MRamiBalles/babyturt/internal/infra/storage"
	"github.com/MRamiBalles/babyturt/internal/platform/logger"
	"github.com/MRamiBalles/babyturt/internal/platform/metrics"
)

// Deps wires the engine to its collaborators.
type Deps struct {
	// Context bounds store calls and the recurring sweep.
	Context   context.Context
	Sim       Simulation
	Props     storage.PropertyStore
	Scheduler *Scheduler
	EventLog  *events.EventLog
	Logger    *logger.Logger
	Metrics   *metrics.Collector
	// AimUntag enables untagging by aiming an unnamed name tag.
	AimUntag bool
}

// Engine is the central orchestrator: the host delivers every event to
// Deliver and it routes them to the sub-systems.
type Engine struct {
	ctx      context.Context
	sim      Simulation
	sched    *Scheduler
	eventLog *events.EventLog
	logger   *logger.Logger
	metrics  *metrics.Collector
	aimUntag bool

	// Sub-systems
	cache       *TagCache
	suppression *GrowthSuppressionSystem
	interaction *InteractionSystem
	lifecycle   *LifecycleSystem
	bootstrap   *Bootstrap
}

// Status is a point-in-time view of the mechanic.
type Status struct {
	Tick      int64       `json:"tick"`
	State     string      `json:"state"`
	Tagged    int         `json:"tagged"`
	Members   []entity.ID `json:"members"`
	Scheduled int         `json:"scheduled"`
}

// NewEngine initializes the core systems.
func NewEngine(d Deps) *Engine {
	if d.Context == nil {
		d.Context = context.Background()
	}
	if d.Logger == nil {
		d.Logger = logger.Discard()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.EventLog == nil {
		d.EventLog = events.NewEventLog(nil, 0)
	}
	if d.Scheduler == nil {
		d.Scheduler = NewScheduler(TickRate, d.Logger, d.Metrics)
	}

	cache := NewTagCache(d.Props, d.Logger, d.Metrics)
	suppression := NewGrowthSuppressionSystem(d.Sim, cache, d.Scheduler, d.EventLog, d.Logger, d.Metrics)

	return &Engine{
		ctx:      d.Context,
		sim:      d.Sim,
		sched:    d.Scheduler,
		eventLog: d.EventLog,
		logger:   d.Logger,
		metrics:  d.Metrics,
		aimUntag: d.AimUntag,

		cache:       cache,
		suppression: suppression,
		interaction: NewInteractionSystem(d.Sim, cache, suppression, d.Scheduler, d.EventLog, d.Logger, d.Metrics),
		lifecycle:   NewLifecycleSystem(cache, d.Props, d.Logger),
		bootstrap:   NewBootstrap(suppression, cache, d.Scheduler, d.Sim, d.Logger),
	}
}

// Scheduler exposes the tick scheduler.
func (e *Engine) Scheduler() *Scheduler {
	return e.sched
}

// Cache exposes the tag cache.
func (e *Engine) Cache() *TagCache {
	return e.cache
}

// EventLog exposes the audit log.
func (e *Engine) EventLog() *events.EventLog {
	return e.eventLog
}

// Status must be called on the tick thread (see Scheduler.Do).
func (e *Engine) Status() Status {
	return Status{
		Tick:      e.sched.CurrentTick(),
		State:     e.bootstrap.State().String(),
		Tagged:    e.cache.Len(),
		Members:   e.cache.Members(),
		Scheduled: e.sched.Pending(),
	}
}

// Shutdown stops the recurring sweep.
func (e *Engine) Shutdown() {
	e.bootstrap.Stop()
}

// Deliver routes one host event to the sub-systems. The host calls it on
// the tick thread, one event at a time.
func (e *Engine) Deliver(event events.GameEvent) {
	ctx := e.ctx

	switch event.Phase {
	case events.PhaseBefore:
		switch event.Type {
		case events.EventTypePlayerInteractWithEntity:
			e.interaction.OnBeforeInteract(ctx, event)

		case events.EventTypeItemUse:
			if e.aimUntag {
				e.interaction.OnBeforeItemUse(ctx, event)
			}

		case events.EventTypeEntityRemove:
			e.lifecycle.OnEntityRemoving(event)
		}

	case events.PhaseAfter:
		switch event.Type {
		case events.EventTypeEntityLoad, events.EventTypeEntitySpawn:
			e.lifecycle.OnEntityLoaded(ctx, event)

		case events.EventTypePlayerInteractWithEntity:
			e.interaction.OnAfterInteract(ctx, event)

		case events.EventTypePlayerSpawn:
			e.bootstrap.OnPlayerSpawn(ctx, event)

		case events.EventTypeEntityGrewUp:
			e.eventLog.Append(event)
			if e.cache.Contains(entity.ID(event.TargetID)) {
				e.logger.Warn("tagged entity matured", "entity", event.TargetID)
			}
		}
	}
}
