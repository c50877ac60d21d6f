package storage

import (
	"context"
	"fmt"

	"github.com/MRamiBalles/babyturt/internal/domain/entity"
)

// Audit event types read back by the Reconstructor.
const (
	recordTagged   = "ENTITY_TAGGED"
	recordUntagged = "ENTITY_UNTAGGED"
)

// Reconstructor rebuilds the tag flag of every entity from the audit log.
// This is used to repair a property table that was lost or restored from an
// older backup: the event log is the longer-lived record of tag transitions.
type Reconstructor struct {
	eventRepo EventRepository
}

// NewReconstructor creates a new state reconstructor.
func NewReconstructor(eventRepo EventRepository) *Reconstructor {
	return &Reconstructor{eventRepo: eventRepo}
}

// TaggedState replays tag transitions in order and returns the last known
// flag per entity.
func (r *Reconstructor) TaggedState(ctx context.Context) (map[entity.ID]bool, error) {
	records, err := r.eventRepo.GetByEventType(ctx, recordTagged, recordUntagged)
	if err != nil {
		return nil, fmt.Errorf("failed to get tag events: %w", err)
	}

	state := make(map[entity.ID]bool)
	for _, rec := range records {
		if rec.TargetID == "" {
			continue
		}
		state[entity.ID(rec.TargetID)] = rec.EventType == recordTagged
	}
	return state, nil
}

// Repair writes the replayed flags into the property store under key and
// returns how many entities were written.
func (r *Reconstructor) Repair(ctx context.Context, props PropertyStore, key string) (int, error) {
	state, err := r.TaggedState(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for id, tagged := range state {
		if err := props.SetBool(ctx, id, key, tagged); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
