package storage

import (
	"context"
	"fmt"
	"io"
)

// Store bundles the three repositories a server needs.
type Store interface {
	PropertyStore
	EntityRepository
	EventRepository
	io.Closer
}

type memoryCloser struct{ *MemoryStore }

func (memoryCloser) Close() error { return nil }

// Open selects a backend by driver name: memory, sqlite or postgres.
func Open(ctx context.Context, driver, sqlitePath, postgresDSN string) (Store, error) {
	switch driver {
	case "memory":
		return memoryCloser{NewMemoryStore()}, nil
	case "sqlite":
		db, err := InitSQLite(ctx, sqlitePath)
		if err != nil {
			return nil, err
		}
		return NewSQLStore(db, DialectSQLite), nil
	case "postgres":
		db, err := InitPostgres(ctx, postgresDSN)
		if err != nil {
			return nil, err
		}
		return NewSQLStore(db, DialectPostgres), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
