// Package entity defines the simulated creatures of the world.
// This package is PURE and must NOT import any infrastructure packages.
package entity

import "github.com/google/uuid"

// ID is the stable identity of an entity across save/reload.
type ID string

// NewID allocates a fresh entity identity.
func NewID() ID {
	return ID(uuid.NewString())
}

// Well-known category identifiers.
const (
	TypeWolf      = "minecraft:wolf"
	TypeCow       = "minecraft:cow"
	TypeSheep     = "minecraft:sheep"
	TypeTurtle    = "minecraft:turtle"
	TypeChicken   = "minecraft:chicken"
	TypeItem      = "minecraft:item"
	TypeXPOrb     = "minecraft:xp_orb"
	TypeArrow     = "minecraft:arrow"
	TypeFalling   = "minecraft:falling_block"
	TypePlayer    = "minecraft:player"
	DimensionHome = "minecraft:overworld"
)

// DefaultGrowthDuration is the host's growth time for a newborn, in ticks (20 minutes).
const DefaultGrowthDuration int64 = 24000

// Ageable is the juvenile/adult capability.
type Ageable struct {
	Baby        bool  `json:"baby"`
	GrowthTicks int64 `json:"growth_ticks"` // Ticks left before maturing
	Duration    int64 `json:"duration"`     // Full countdown restored by a born signal
}

// NewBaby returns a freshly born ageable capability.
func NewBaby(duration int64) *Ageable {
	if duration <= 0 {
		duration = DefaultGrowthDuration
	}
	return &Ageable{Baby: true, GrowthTicks: duration, Duration: duration}
}

// ResetGrowth restarts the countdown at its maximum.
func (a *Ageable) ResetGrowth() {
	if a.Baby {
		a.GrowthTicks = a.Duration
	}
}

// Advance moves the countdown forward and reports whether the entity just matured.
func (a *Ageable) Advance(ticks int64) bool {
	if !a.Baby {
		return false
	}
	a.GrowthTicks -= ticks
	if a.GrowthTicks > 0 {
		return false
	}
	a.GrowthTicks = 0
	a.Baby = false
	return true
}

// Entity is a live simulated creature.
type Entity struct {
	ID         ID       `json:"id"`
	TypeID     string   `json:"type_id"`
	Dimension  string   `json:"dimension"`
	Location   Vec3     `json:"location"`
	HeadHeight float64  `json:"head_height"` // Eye offset above Location
	NameTag    string   `json:"name_tag,omitempty"`
	Ageable    *Ageable `json:"ageable,omitempty"`
}

// New creates an entity of the given category at a location.
func New(typeID string, at Vec3) *Entity {
	return &Entity{
		ID:         NewID(),
		TypeID:     typeID,
		Dimension:  DimensionHome,
		Location:   at,
		HeadHeight: 0.5,
	}
}

// HeadLocation returns the position of the entity's head.
func (e *Entity) HeadLocation() Vec3 {
	return e.Location.Add(Vec3{Y: e.HeadHeight})
}

// IsBaby reports whether the entity is an ageable juvenile.
func (e *Entity) IsBaby() bool {
	return e.Ageable != nil && e.Ageable.Baby
}
