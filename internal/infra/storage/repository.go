// Package storage provides the persistence layer for the server.
// This package implements the repository pattern to keep the domain pure.
package storage

import (
	"context"
	"errors"

	"github.com/MRamiBalles/babyturt/internal/domain/entity"
)

// ErrUnknownDriver is returned by Open for an unsupported backend name.
var ErrUnknownDriver = errors.New("storage: unknown driver")

// PropertyStore is the per-entity persistent key/value store.
// Absent keys read as false.
type PropertyStore interface {
	GetBool(ctx context.Context, id entity.ID, key string) (bool, error)
	SetBool(ctx context.Context, id entity.ID, key string, value bool) error
}

// EntityRepository persists the world's entities across restarts.
type EntityRepository interface {
	// SaveEntities replaces the stored world with the given entities.
	SaveEntities(ctx context.Context, entities []entity.Entity) error

	// LoadEntities returns every stored entity.
	LoadEntities(ctx context.Context) ([]entity.Entity, error)
}

// EventRecord mirrors the audit event structure for persistence.
// The events package should NOT import this; adapters translate.
type EventRecord struct {
	ID        string                 `json:"id" db:"id"`
	Timestamp int64                  `json:"timestamp" db:"timestamp"` // Unix milliseconds
	EventType string                 `json:"event_type" db:"event_type"`
	ActorID   string                 `json:"actor_id" db:"actor_id"`
	TargetID  string                 `json:"target_id" db:"target_id"`
	Payload   map[string]interface{} `json:"payload" db:"payload"`
	Tick      int64                  `json:"tick" db:"tick"`
}

// EventRepository defines the interface for audit event persistence.
type EventRepository interface {
	// Append adds a new event to the immutable ledger.
	Append(ctx context.Context, event EventRecord) error

	// GetByTarget retrieves all events about one entity, oldest first.
	GetByTarget(ctx context.Context, targetID string) ([]EventRecord, error)

	// GetByEventType retrieves all events of a specific type, oldest first.
	GetByEventType(ctx context.Context, eventTypes ...string) ([]EventRecord, error)
}
