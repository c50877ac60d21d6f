package main

import (
	"context"
	"testing"

	"github.com/MRamiBalles/babyturt/internal/events"
	"github.com/MRamiBalles/babyturt/internal/infra/storage"
)

func TestPersisterAdapterAppend(t *testing.T) {
	store := storage.NewMemoryStore()
	a := &PersisterAdapter{repo: store}

	e := events.New(events.EventTypeEntityTagged, events.PhaseAfter, "steve", "wolf-1",
		events.TagPayload{EntityID: "wolf-1"}, 7)
	if err := a.Append(e); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := store.GetByTarget(context.Background(), "wolf-1")
	if err != nil || len(got) != 1 {
		t.Fatalf("Expected one stored record, got %d (%v)", len(got), err)
	}
	if got[0].EventType != string(events.EventTypeEntityTagged) || got[0].Tick != 7 {
		t.Errorf("Unexpected record %+v", got[0])
	}
	if got[0].Payload == nil {
		t.Error("Expected the payload stored as a map")
	}
}

func TestPersisterAdapterRejectsNonObjectPayload(t *testing.T) {
	store := storage.NewMemoryStore()
	a := &PersisterAdapter{repo: store}

	e := events.New(events.EventTypeGrowthSweep, events.PhaseAfter, events.ActorSystem, "", []int{1, 2}, 1)
	if err := a.Append(e); err == nil {
		t.Fatal("Expected a non-object payload to be rejected")
	}
	if got, _ := store.GetByEventType(context.Background(), string(events.EventTypeGrowthSweep)); len(got) != 0 {
		t.Errorf("Expected nothing stored, got %d records", len(got))
	}
}
