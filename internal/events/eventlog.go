// Package events provides the host event vocabulary and the audit log of the
// tagging mechanic. Every tag transition and growth sweep is appended here.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a game event.
// The set is closed: the engine dispatches on it with a single switch.
type EventType string

const (
	// Delivered by the host.
	EventTypeEntityLoad               EventType = "ENTITY_LOAD"
	EventTypeEntitySpawn              EventType = "ENTITY_SPAWN"
	EventTypeEntityRemove             EventType = "ENTITY_REMOVE"
	EventTypePlayerInteractWithEntity EventType = "PLAYER_INTERACT_WITH_ENTITY"
	EventTypeItemUse                  EventType = "ITEM_USE"
	EventTypePlayerSpawn              EventType = "PLAYER_SPAWN"

	// Audit only.
	EventTypeEntityTagged   EventType = "ENTITY_TAGGED"
	EventTypeEntityUntagged EventType = "ENTITY_UNTAGGED"
	EventTypeGrowthSweep    EventType = "GROWTH_SWEEP"
	EventTypeEntityGrewUp   EventType = "ENTITY_GREW_UP"
)

// Phase tells whether an event fires before the host mutates state
// (restricted context) or after it.
type Phase string

const (
	PhaseBefore Phase = "BEFORE"
	PhaseAfter  Phase = "AFTER"
)

// GameEvent represents an immutable record of something that happened in the world.
type GameEvent struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"type"`
	Phase     Phase       `json:"phase"`
	ActorID   string      `json:"actor_id"`  // Player or SYSTEM
	TargetID  string      `json:"target_id"` // Entity affected (optional)
	Payload   interface{} `json:"payload"`
	Tick      int64       `json:"tick"`
}

// ActorSystem marks events raised by the server itself.
const ActorSystem = "SYSTEM"

// New stamps a fresh event.
func New(t EventType, phase Phase, actorID, targetID string, payload interface{}, tick int64) GameEvent {
	return GameEvent{
		ID:        GenerateEventID(),
		Timestamp: time.Now(),
		Type:      t,
		Phase:     phase,
		ActorID:   actorID,
		TargetID:  targetID,
		Payload:   payload,
		Tick:      tick,
	}
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event GameEvent) error
}

// ErrorReporter is notified when the persister fails.
type ErrorReporter func(event GameEvent, err error)

// EventLog is the in-memory append-only audit log.
type EventLog struct {
	mu        sync.RWMutex
	events    []GameEvent
	limit     int
	persister EventPersister
	onError   ErrorReporter
	wg        sync.WaitGroup
}

// NewEventLog creates a new event log with an optional persister.
// Only the most recent limit events are kept in memory (0 keeps all).
func NewEventLog(persister EventPersister, limit int) *EventLog {
	return &EventLog{
		events:    make([]GameEvent, 0),
		limit:     limit,
		persister: persister,
	}
}

// OnPersistError installs a callback for persister failures.
func (el *EventLog) OnPersistError(fn ErrorReporter) {
	el.mu.Lock()
	el.onError = fn
	el.mu.Unlock()
}

// Append adds a new event to the log. Events are immutable once appended.
func (el *EventLog) Append(event GameEvent) {
	el.mu.Lock()
	el.events = append(el.events, event)
	if el.limit > 0 && len(el.events) > el.limit {
		el.events = append(el.events[:0:0], el.events[len(el.events)-el.limit:]...)
	}
	persister, onError := el.persister, el.onError
	el.mu.Unlock()

	if persister == nil {
		return
	}
	// Write through off the tick thread.
	el.wg.Add(1)
	go func(e GameEvent) {
		defer el.wg.Done()
		if err := persister.Append(e); err != nil && onError != nil {
			onError(e, err)
		}
	}(event)
}

// Flush waits for pending writes to the persister.
func (el *EventLog) Flush() {
	el.wg.Wait()
}

// GetByTarget returns all events concerning a specific entity.
func (el *EventLog) GetByTarget(targetID string) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.TargetID == targetID {
			result = append(result, e)
		}
	}
	return result
}

// GetByType returns all events of one type.
func (el *EventLog) GetByType(t EventType) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns a copy of the retained history.
func (el *EventLog) Replay() []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()
	out := make([]GameEvent, len(el.events))
	copy(out, el.events)
	return out
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
