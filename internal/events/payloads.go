package events

import (
	"github.com/MRamiBalles/babyturt/internal/domain/entity"
	"github.com/MRamiBalles/babyturt/internal/domain/item"
)

// EntityPayload accompanies ENTITY_LOAD, ENTITY_SPAWN and ENTITY_REMOVE.
type EntityPayload struct {
	EntityID entity.ID `json:"entity_id"`
	TypeID   string    `json:"type_id"`
}

// InteractPayload accompanies PLAYER_INTERACT_WITH_ENTITY.
// In the BEFORE phase Item is the stack in hand and After is nil.
// In the AFTER phase Item is the stack before the interaction and After what is left.
type InteractPayload struct {
	PlayerID string      `json:"player_id"`
	TargetID entity.ID   `json:"target_id"`
	Item     *item.Stack `json:"item,omitempty"`
	After    *item.Stack `json:"after,omitempty"`
}

// ItemUsePayload accompanies ITEM_USE.
type ItemUsePayload struct {
	PlayerID string      `json:"player_id"`
	Item     *item.Stack `json:"item,omitempty"`
}

// PlayerSpawnPayload accompanies PLAYER_SPAWN.
type PlayerSpawnPayload struct {
	PlayerID     string `json:"player_id"`
	InitialSpawn bool   `json:"initial_spawn"`
}

// TagPayload accompanies ENTITY_TAGGED and ENTITY_UNTAGGED.
type TagPayload struct {
	EntityID entity.ID `json:"entity_id"`
	TypeID   string    `json:"type_id"`
	Via      string    `json:"via"` // "interact" or "aim"
}

// SweepPayload accompanies GROWTH_SWEEP.
type SweepPayload struct {
	Signalled int `json:"signalled"`
	Pruned    int `json:"pruned"`
}
