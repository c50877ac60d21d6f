package engine

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/MRamiBalles/babyturt/internal/domain/entity"
	"github.com/MRamiBalles/babyturt/internal/events"
	"github.com/MRamiBalles/babyturt/internal/platform/logger"
	"github.com/MRamiBalles/babyturt/internal/platform/metrics"
	"github.com/MRamiBalles/babyturt/internal/world"
)

var tracer = otel.Tracer("github.com/MRamiBalles/babyturt/internal/engine")

// SweepResult summarises one pass of the growth suppression loop.
type SweepResult struct {
	Signalled int `json:"signalled"`
	Pruned    int `json:"pruned"`
}

// GrowthSuppressionSystem re-fires the born signal on every cached entity so
// none of them ever reaches the end of its growth countdown.
// It never touches the persistent flag.
type GrowthSuppressionSystem struct {
	sim      Simulation
	cache    *TagCache
	sched    *Scheduler
	eventLog *events.EventLog
	logger   *logger.Logger
	metrics  *metrics.Collector
}

// NewGrowthSuppressionSystem creates the loop body; Bootstrap schedules it.
func NewGrowthSuppressionSystem(sim Simulation, cache *TagCache, sched *Scheduler, eventLog *events.EventLog, log *logger.Logger, m *metrics.Collector) *GrowthSuppressionSystem {
	return &GrowthSuppressionSystem{
		sim:      sim,
		cache:    cache,
		sched:    sched,
		eventLog: eventLog,
		logger:   log,
		metrics:  m,
	}
}

// Sweep signals every live cached entity once and lazily prunes the dead.
func (gs *GrowthSuppressionSystem) Sweep(ctx context.Context) SweepResult {
	members := gs.cache.Members()
	_, span := tracer.Start(ctx, "growth.sweep", trace.WithAttributes(attribute.Int("cache.size", len(members))))
	defer span.End()

	var res SweepResult
	for _, id := range members {
		if !gs.sim.IsValid(id) {
			gs.cache.Forget(id)
			res.Pruned++
			continue
		}
		// Fire-and-forget: the only failure is the entity vanishing, which the
		// next sweep prunes.
		if err := gs.sim.TriggerEvent(id, world.EventEntityBorn); err != nil {
			gs.logger.Debug("born signal dropped", "entity", string(id), "err", err)
			continue
		}
		res.Signalled++
	}

	span.SetAttributes(attribute.Int("sweep.signalled", res.Signalled), attribute.Int("sweep.pruned", res.Pruned))
	gs.metrics.RecordBorn(metrics.ReasonSweep, res.Signalled)
	gs.metrics.Pruned.Add(float64(res.Pruned))

	gs.eventLog.Append(events.New(events.EventTypeGrowthSweep, events.PhaseAfter, events.ActorSystem, "",
		events.SweepPayload{Signalled: res.Signalled, Pruned: res.Pruned}, gs.sched.CurrentTick()))
	gs.logger.Debug("growth sweep", "signalled", res.Signalled, "pruned", res.Pruned)
	return res
}

// signalBorn resets one entity's countdown on the next tick.
func (gs *GrowthSuppressionSystem) signalBorn(id entity.ID, reason string) {
	gs.sched.Run(func() {
		if err := gs.sim.TriggerEvent(id, world.EventEntityBorn); err != nil {
			gs.logger.Debug("born signal dropped", "entity", string(id), "reason", reason, "err", err)
			return
		}
		gs.metrics.RecordBorn(reason, 1)
	})
}
