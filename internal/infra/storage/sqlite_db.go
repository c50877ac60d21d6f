package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// InitSQLite initializes the local SQLite database and creates the schemas
// for entities, their persistent properties and the audit event log.
func InitSQLite(ctx context.Context, dbPath string) (*sql.DB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One writer; the tick thread and the saver would otherwise contend on SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := createSchemas(ctx, db, sqliteSchemas); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}

	return db, nil
}

var sqliteSchemas = []string{
	`CREATE TABLE IF NOT EXISTS entities (
		id TEXT PRIMARY KEY,
		type_id TEXT NOT NULL,
		dimension TEXT NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		z REAL NOT NULL,
		head_height REAL NOT NULL,
		name_tag TEXT NOT NULL DEFAULT '',
		ageable BOOLEAN NOT NULL DEFAULT 0,
		baby BOOLEAN NOT NULL DEFAULT 0,
		growth_ticks INTEGER NOT NULL DEFAULT 0,
		growth_duration INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE TABLE IF NOT EXISTS entity_properties (
		entity_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (entity_id, key)
	);`,
	`CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		event_type TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		target_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		tick INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_events_target_id ON events(target_id);`,
	`CREATE INDEX IF NOT EXISTS idx_events_event_type ON events(event_type);`,
}

func createSchemas(ctx context.Context, db *sql.DB, schemas []string) error {
	for _, query := range schemas {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return err
		}
	}
	return nil
}
