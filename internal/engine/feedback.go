package engine

import (
	"github.com/MRamiBalles/babyturt/internal/domain/entity"
	"github.com/MRamiBalles/babyturt/internal/platform/logger"
)

// Feedback is a sound and particle pair played at a tagged entity's head.
type Feedback struct {
	Sound    string
	Particle string
}

var (
	FeedbackOn = Feedback{
		Sound:    "block.copper_bulb.turn_on",
		Particle: "minecraft:heart_particle",
	}
	FeedbackOff = Feedback{
		Sound:    "block.copper_bulb.turn_off",
		Particle: "minecraft:crop_growth_emitter",
	}
)

const (
	feedbackPitch   = 0.4
	feedbackYOffset = 0.5
)

// displayInteraction captures the feedback location now and plays it on the
// next tick, outside the restricted before-event context.
func displayInteraction(sched *Scheduler, sim Simulation, log *logger.Logger, target *entity.Entity, fb Feedback) {
	at := target.HeadLocation()
	at.Y += feedbackYOffset
	dim := target.Dimension

	sched.Run(func() {
		if err := sim.PlaySound(dim, fb.Sound, at, feedbackPitch); err != nil {
			log.Debug("feedback sound dropped", "sound", fb.Sound, "err", err)
		}
		if err := sim.SpawnParticle(dim, fb.Particle, at); err != nil {
			log.Debug("feedback particle dropped", "particle", fb.Particle, "err", err)
		}
	})
}
