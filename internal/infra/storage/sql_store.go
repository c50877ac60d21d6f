package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/MRamiBalles/babyturt/internal/domain/entity"
)

// Dialect selects placeholder syntax.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

// SQLStore implements PropertyStore, EntityRepository and EventRepository
// on top of database/sql. Queries are written with '?' and rebound for postgres.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLStore wraps an initialized database.
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// DB exposes the underlying handle.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Close releases the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind turns '?' placeholders into '$n' for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ---------------------------------------------------------
// PropertyStore
// ---------------------------------------------------------

func (s *SQLStore) GetBool(ctx context.Context, id entity.ID, key string) (bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT value FROM entity_properties WHERE entity_id = ? AND key = ?`),
		string(id), key,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read property %s of %s: %w", key, id, err)
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		// A non-boolean value under a boolean key reads as unset.
		return false, nil
	}
	return v, nil
}

func (s *SQLStore) SetBool(ctx context.Context, id entity.ID, key string, value bool) error {
	query := `
		INSERT INTO entity_properties (entity_id, key, value)
		VALUES (?, ?, ?)
		ON CONFLICT (entity_id, key) DO UPDATE SET value = excluded.value
	`
	if _, err := s.db.ExecContext(ctx, s.rebind(query), string(id), key, strconv.FormatBool(value)); err != nil {
		return fmt.Errorf("failed to write property %s of %s: %w", key, id, err)
	}
	return nil
}

// ---------------------------------------------------------
// EntityRepository
// ---------------------------------------------------------

func (s *SQLStore) SaveEntities(ctx context.Context, entities []entity.Entity) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entities`); err != nil {
		return fmt.Errorf("failed to clear entities: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.rebind(`
		INSERT INTO entities (id, type_id, dimension, x, y, z, head_height, name_tag, ageable, baby, growth_ticks, growth_duration)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		return fmt.Errorf("failed to prepare entity insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entities {
		var ageable, baby bool
		var ticks, duration int64
		if e.Ageable != nil {
			ageable, baby = true, e.Ageable.Baby
			ticks, duration = e.Ageable.GrowthTicks, e.Ageable.Duration
		}
		_, err := stmt.ExecContext(ctx,
			string(e.ID), e.TypeID, e.Dimension, e.Location.X, e.Location.Y, e.Location.Z,
			e.HeadHeight, e.NameTag, ageable, baby, ticks, duration,
		)
		if err != nil {
			return fmt.Errorf("failed to save entity %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit save: %w", err)
	}
	return nil
}

func (s *SQLStore) LoadEntities(ctx context.Context) ([]entity.Entity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type_id, dimension, x, y, z, head_height, name_tag, ageable, baby, growth_ticks, growth_duration
		FROM entities ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	var out []entity.Entity
	for rows.Next() {
		var e entity.Entity
		var id string
		var ageable, baby bool
		var ticks, duration int64
		err := rows.Scan(
			&id, &e.TypeID, &e.Dimension, &e.Location.X, &e.Location.Y, &e.Location.Z,
			&e.HeadHeight, &e.NameTag, &ageable, &baby, &ticks, &duration,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		e.ID = entity.ID(id)
		if ageable {
			e.Ageable = &entity.Ageable{Baby: baby, GrowthTicks: ticks, Duration: duration}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------
// EventRepository
// ---------------------------------------------------------

func (s *SQLStore) Append(ctx context.Context, event EventRecord) error {
	payloadBytes, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT INTO events (id, timestamp, event_type, actor_id, target_id, payload, tick)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, s.rebind(query),
		event.ID, event.Timestamp, event.EventType, event.ActorID,
		event.TargetID, string(payloadBytes), event.Tick,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (s *SQLStore) GetByTarget(ctx context.Context, targetID string) ([]EventRecord, error) {
	query := `SELECT id, timestamp, event_type, actor_id, target_id, payload, tick FROM events WHERE target_id = ? ORDER BY tick ASC, timestamp ASC`
	return s.getMany(ctx, query, targetID)
}

func (s *SQLStore) GetByEventType(ctx context.Context, eventTypes ...string) ([]EventRecord, error) {
	if len(eventTypes) == 0 {
		return nil, nil
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(eventTypes)), ", ")
	query := `SELECT id, timestamp, event_type, actor_id, target_id, payload, tick FROM events WHERE event_type IN (` + marks + `) ORDER BY tick ASC, timestamp ASC`
	args := make([]interface{}, len(eventTypes))
	for i, t := range eventTypes {
		args[i] = t
	}
	return s.getMany(ctx, query, args...)
}

func (s *SQLStore) getMany(ctx context.Context, query string, args ...interface{}) ([]EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []EventRecord
	for rows.Next() {
		var e EventRecord
		var payloadStr string
		err := rows.Scan(&e.ID, &e.Timestamp, &e.EventType, &e.ActorID, &e.TargetID, &payloadStr, &e.Tick)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(payloadStr), &e.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Ensure SQLStore implements the repositories
var (
	_ PropertyStore    = (*SQLStore)(nil)
	_ EntityRepository = (*SQLStore)(nil)
	_ EventRepository  = (*SQLStore)(nil)
)
