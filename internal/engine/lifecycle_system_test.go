package engine

import (
	"context"
	"testing"

	"github.com/MRamiBalles/babyturt/internal/domain/entity"
	"github.com/MRamiBalles/babyturt/internal/infra/cache"
	"github.com/MRamiBalles/babyturt/internal/infra/storage"
	"github.com/MRamiBalles/babyturt/internal/platform/logger"
	"github.com/MRamiBalles/babyturt/internal/world"
)

func TestRemovalEvictsPropertyCache(t *testing.T) {
	ctx := context.Background()
	log := logger.Discard()
	store := storage.NewMemoryStore()
	props := cache.NewPropertyCache(store, nil)
	w := world.New(log)
	e := NewEngine(Deps{Context: ctx, Sim: w, Props: props, Logger: log})
	w.SetListener(e)
	w.SetSink(&recordingSink{})

	wolf := entity.New(entity.TypeWolf, entity.Vec3{X: 2.5, Y: 1, Z: 0.5})
	wolf.Ageable = entity.NewBaby(entity.DefaultGrowthDuration)
	cow := entity.New(entity.TypeCow, entity.Vec3{X: 6.5, Y: 1, Z: 0.5})
	cow.Ageable = entity.NewBaby(entity.DefaultGrowthDuration)
	if err := store.SetBool(ctx, wolf.ID, TaggedKey, true); err != nil {
		t.Fatalf("seed flag: %v", err)
	}
	for _, ent := range []*entity.Entity{wolf, cow} {
		if err := w.SpawnEntity(ent); err != nil {
			t.Fatalf("spawn: %v", err)
		}
	}
	if !e.Cache().Contains(wolf.ID) || props.Len() != 2 {
		t.Fatalf("Expected wolf restored and 2 cached entities, got member=%v cached=%d",
			e.Cache().Contains(wolf.ID), props.Len())
	}

	if err := store.SaveEntities(ctx, []entity.Entity{*wolf}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := w.RemoveEntity(wolf.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if props.Len() != 1 {
		t.Errorf("Expected removal to evict the wolf's properties, %d entities cached", props.Len())
	}
	if e.Cache().Contains(wolf.ID) {
		t.Error("Expected the wolf forgotten")
	}
	if v, _ := store.GetBool(ctx, wolf.ID, TaggedKey); !v {
		t.Fatal("Expected the stored flag kept")
	}

	if _, err := w.Load(ctx, store); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !e.Cache().Contains(wolf.ID) {
		t.Error("Expected the wolf restored from the store after eviction")
	}
}
