package engine

import (
	"github.com/MRamiBalles/babyturt/internal/domain/entity"
	"github.com/MRamiBalles/babyturt/internal/domain/player"
	"github.com/MRamiBalles/babyturt/internal/world"
)

// Mechanic constants. None of these are configurable.
const (
	// TaggedKey is the persistent per-entity property holding the tag flag.
	TaggedKey = "BabyTurt:tagged"

	// GrowthResetInterval is just under the host's shortest growth duration (24000 ticks).
	GrowthResetInterval int64 = 23900

	// NotifyDelay is how long after bootstrap the load notice is broadcast.
	NotifyDelay int64 = 20

	// NotificationFormat reports the number of tagged entities after bootstrap.
	NotificationFormat = "§7Baby§2Turt §7Loaded §8[%d entities tagged]"

	// UntagReach is the aim-based untag range in blocks.
	UntagReach = 5.0
)

// Simulation is everything the mechanic needs from the host world.
// *world.World implements it.
type Simulation interface {
	// Entity returns a live entity; false once it is no longer valid.
	Entity(id entity.ID) (*entity.Entity, bool)
	IsValid(id entity.ID) bool
	Player(id string) (*player.Player, bool)

	// TriggerEvent fires a named host event on an entity. Fails inside
	// before-event callbacks.
	TriggerEvent(id entity.ID, event string) error

	EntitiesFromViewDirection(playerID string, opts world.RaycastOptions) []world.Hit

	PlaySound(dimension, sound string, at entity.Vec3, pitch float64) error
	SpawnParticle(dimension, particle string, at entity.Vec3) error
	SendMessage(text string)
}

var _ Simulation = (*world.World)(nil)
