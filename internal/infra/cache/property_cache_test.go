package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/MRamiBalles/babyturt/internal/domain/entity"
	"github.com/MRamiBalles/babyturt/internal/infra/storage"
	"github.com/MRamiBalles/babyturt/internal/platform/metrics"
)

type countingStore struct {
	*storage.MemoryStore
	reads   int
	failSet bool
}

func (s *countingStore) GetBool(ctx context.Context, id entity.ID, key string) (bool, error) {
	s.reads++
	return s.MemoryStore.GetBool(ctx, id, key)
}

func (s *countingStore) SetBool(ctx context.Context, id entity.ID, key string, v bool) error {
	if s.failSet {
		return errors.New("store offline")
	}
	return s.MemoryStore.SetBool(ctx, id, key, v)
}

func TestReadThroughOnce(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{MemoryStore: storage.NewMemoryStore()}
	_ = backing.MemoryStore.SetBool(ctx, "wolf-1", "k", true)
	m := metrics.New()
	c := NewPropertyCache(backing, m)

	for i := 0; i < 3; i++ {
		v, err := c.GetBool(ctx, "wolf-1", "k")
		if err != nil || !v {
			t.Fatalf("Expected cached true, got %v (%v)", v, err)
		}
	}
	if backing.reads != 1 {
		t.Errorf("Expected one backing read, got %d", backing.reads)
	}
	hits := testutil.ToFloat64(m.PropertyCache.WithLabelValues("hit"))
	misses := testutil.ToFloat64(m.PropertyCache.WithLabelValues("miss"))
	if hits != 2 || misses != 1 {
		t.Errorf("Expected 2 hits / 1 miss, got %v / %v", hits, misses)
	}
}

func TestWriteThrough(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{MemoryStore: storage.NewMemoryStore()}
	c := NewPropertyCache(backing, nil)

	if err := c.SetBool(ctx, "wolf-1", "k", true); err != nil {
		t.Fatalf("SetBool: %v", err)
	}
	if v, _ := backing.MemoryStore.GetBool(ctx, "wolf-1", "k"); !v {
		t.Errorf("Expected write to reach the backing store")
	}
	if v, _ := c.GetBool(ctx, "wolf-1", "k"); !v || backing.reads != 0 {
		t.Errorf("Expected cached read after write, reads=%d", backing.reads)
	}
}

func TestFailedWriteKeepsOldValue(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{MemoryStore: storage.NewMemoryStore()}
	c := NewPropertyCache(backing, nil)
	_ = c.SetBool(ctx, "wolf-1", "k", true)

	backing.failSet = true
	if err := c.SetBool(ctx, "wolf-1", "k", false); err == nil {
		t.Fatalf("Expected write error")
	}
	if v, _ := c.GetBool(ctx, "wolf-1", "k"); !v {
		t.Errorf("Failed write must not change the cached value")
	}
}

func TestInvalidate(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{MemoryStore: storage.NewMemoryStore()}
	c := NewPropertyCache(backing, nil)
	_, _ = c.GetBool(ctx, "wolf-1", "k")

	_ = c.SetBool(ctx, "wolf-2", "k", true)
	if c.Len() != 2 {
		t.Fatalf("Expected 2 cached entities, got %d", c.Len())
	}

	c.Invalidate("wolf-1")
	if c.Len() != 1 {
		t.Errorf("Expected wolf-1 evicted, %d entities cached", c.Len())
	}
	_, _ = c.GetBool(ctx, "wolf-1", "k")
	if backing.reads != 2 {
		t.Errorf("Expected a fresh read after invalidation, got %d reads", backing.reads)
	}
}
