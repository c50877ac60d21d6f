// Package player defines connected participants.
// This package is PURE and must NOT import any infrastructure packages.
package player

import (
	"github.com/MRamiBalles/babyturt/internal/domain/entity"
	"github.com/MRamiBalles/babyturt/internal/domain/item"
)

// GameMode controls whether item use is consumed.
type GameMode string

const (
	GameModeSurvival  GameMode = "survival"
	GameModeAdventure GameMode = "adventure"
	GameModeCreative  GameMode = "creative"
	GameModeSpectator GameMode = "spectator"
)

// Valid reports whether the mode is one the server accepts.
func (m GameMode) Valid() bool {
	switch m {
	case GameModeSurvival, GameModeAdventure, GameModeCreative, GameModeSpectator:
		return true
	}
	return false
}

// Player represents a participant in the world.
type Player struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	GameMode      GameMode    `json:"game_mode"`
	Dimension     string      `json:"dimension"`
	Location      entity.Vec3 `json:"location"` // Eye position
	ViewDirection entity.Vec3 `json:"view_direction"`
	Held          *item.Stack `json:"held,omitempty"`
}

// NewPlayer creates a survival player looking along +Z.
func NewPlayer(id, name string) *Player {
	return &Player{
		ID:            id,
		Name:          name,
		GameMode:      GameModeSurvival,
		Dimension:     entity.DimensionHome,
		ViewDirection: entity.Vec3{Z: 1},
	}
}

// IsCreative reports whether item use is unrestricted.
func (p *Player) IsCreative() bool {
	return p.GameMode == GameModeCreative
}

// Consume removes one item from the held stack unless the player is creative.
func (p *Player) Consume() {
	if p.IsCreative() || p.Held == nil {
		return
	}
	p.Held.Amount--
	if p.Held.Amount <= 0 {
		p.Held = nil
	}
}
