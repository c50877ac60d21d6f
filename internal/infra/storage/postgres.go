package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// InitPostgres opens a PostgreSQL database through pgx and creates the schemas.
func InitPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := createSchemas(ctx, db, postgresSchemas); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}
	return db, nil
}

var postgresSchemas = []string{
	`CREATE TABLE IF NOT EXISTS entities (
		id TEXT PRIMARY KEY,
		type_id TEXT NOT NULL,
		dimension TEXT NOT NULL,
		x DOUBLE PRECISION NOT NULL,
		y DOUBLE PRECISION NOT NULL,
		z DOUBLE PRECISION NOT NULL,
		head_height DOUBLE PRECISION NOT NULL,
		name_tag TEXT NOT NULL DEFAULT '',
		ageable BOOLEAN NOT NULL DEFAULT FALSE,
		baby BOOLEAN NOT NULL DEFAULT FALSE,
		growth_ticks BIGINT NOT NULL DEFAULT 0,
		growth_duration BIGINT NOT NULL DEFAULT 0
	);`,
	`CREATE TABLE IF NOT EXISTS entity_properties (
		entity_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (entity_id, key)
	);`,
	`CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		timestamp BIGINT NOT NULL,
		event_type TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		target_id TEXT NOT NULL,
		payload JSONB NOT NULL,
		tick BIGINT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_events_target_id ON events(target_id);`,
	`CREATE INDEX IF NOT EXISTS idx_events_event_type ON events(event_type);`,
}
