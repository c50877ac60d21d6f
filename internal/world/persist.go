package world

import (
	"context"
	"fmt"

	"github.com/MRamiBalles/babyturt/internal/domain/entity"
	"github.com/MRamiBalles/babyturt/internal/infra/storage"
)

// Executor runs a closure on the tick thread and waits for it.
type Executor interface {
	Do(ctx context.Context, fn func()) error
}

// Save snapshots the world on the tick thread and writes it to repo from the
// calling goroutine. It returns the number of entities saved.
func Save(ctx context.Context, exec Executor, w *World, repo storage.EntityRepository) (int, error) {
	var snap []entity.Entity
	if err := exec.Do(ctx, func() { snap = w.Snapshot() }); err != nil {
		return 0, fmt.Errorf("snapshot world: %w", err)
	}
	if err := repo.SaveEntities(ctx, snap); err != nil {
		return 0, fmt.Errorf("save entities: %w", err)
	}
	return len(snap), nil
}
