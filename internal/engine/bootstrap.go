package engine

import (
	"context"
	"fmt"

	"github.com/MRamiBalles/babyturt/internal/events"
	"github.com/MRamiBalles/babyturt/internal/platform/logger"
)

// BootstrapState is the one-time initialization state of the mechanic.
type BootstrapState int

const (
	StateUninitialized BootstrapState = iota
	StateRunning
)

func (s BootstrapState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRunning:
		return "running"
	default:
		return fmt.Sprintf("BootstrapState(%d)", int(s))
	}
}

// Bootstrap starts the growth suppression loop on the first player spawn
// after process start. Later spawns are ignored.
type Bootstrap struct {
	state       BootstrapState
	suppression *GrowthSuppressionSystem
	cache       *TagCache
	sched       *Scheduler
	sim         Simulation
	logger      *logger.Logger

	sweepTask  TaskID
	notifyTask TaskID
}

// NewBootstrap creates an uninitialized bootstrap.
func NewBootstrap(suppression *GrowthSuppressionSystem, cache *TagCache, sched *Scheduler, sim Simulation, log *logger.Logger) *Bootstrap {
	return &Bootstrap{
		state:       StateUninitialized,
		suppression: suppression,
		cache:       cache,
		sched:       sched,
		sim:         sim,
		logger:      log,
	}
}

// State returns the current state.
func (b *Bootstrap) State() BootstrapState {
	return b.state
}

// OnPlayerSpawn performs the Uninitialized -> Running transition.
func (b *Bootstrap) OnPlayerSpawn(ctx context.Context, event events.GameEvent) {
	if b.state != StateUninitialized {
		return
	}
	b.state = StateRunning

	// Correct entities loaded with a stale countdown without waiting a full period.
	res := b.suppression.Sweep(ctx)

	b.sweepTask = b.sched.RunInterval(func() {
		b.suppression.Sweep(ctx)
	}, GrowthResetInterval)

	b.notifyTask = b.sched.RunTimeout(func() {
		b.sim.SendMessage(fmt.Sprintf(NotificationFormat, b.cache.Len()))
	}, NotifyDelay)

	b.logger.Info("growth suppression running",
		"trigger", event.ActorID,
		"tagged", b.cache.Len(),
		"signalled", res.Signalled,
		"interval_ticks", GrowthResetInterval)
}

// Stop cancels the recurring sweep and a pending notification.
func (b *Bootstrap) Stop() {
	if b.sweepTask != 0 {
		b.sched.Clear(b.sweepTask)
	}
	if b.notifyTask != 0 {
		b.sched.Clear(b.notifyTask)
	}
}
