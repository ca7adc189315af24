// Package persistence stores worlds, their agents and locations, the
// scheduler record, and narrative events in SQLite.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/needs-world/internal/world"
)

// DB wraps a SQLite connection for world state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	slog.Debug("database opened", "path", path)
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS worlds (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		active INTEGER NOT NULL,
		speed INTEGER NOT NULL,
		climate INTEGER NOT NULL,
		population INTEGER NOT NULL,
		total_hours INTEGER NOT NULL,
		day INTEGER NOT NULL,
		cycle INTEGER NOT NULL,
		season INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		created_hour INTEGER NOT NULL,
		last_update_ms INTEGER NOT NULL,
		next_due_ms INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS locations (
		id INTEGER PRIMARY KEY,
		world_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		kind INTEGER NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		capabilities_json TEXT NOT NULL,
		occupants INTEGER NOT NULL,
		capacity INTEGER NOT NULL,
		prestige INTEGER NOT NULL,
		maintenance REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS agents (
		id INTEGER PRIMARY KEY,
		world_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		location_id INTEGER NOT NULL,
		home_id INTEGER,
		workplace_id INTEGER,
		role INTEGER NOT NULL,
		last_update_hour INTEGER NOT NULL,
		birth_hour INTEGER NOT NULL,
		needs_json TEXT NOT NULL,
		status_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS scheduler_config (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		enabled INTEGER NOT NULL,
		batch_size INTEGER NOT NULL,
		max_processing_time_ms INTEGER NOT NULL,
		run_interval_ms INTEGER NOT NULL,
		workers INTEGER NOT NULL,
		last_run_ms INTEGER NOT NULL,
		next_run_ms INTEGER NOT NULL,
		performance_stats TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		world_id INTEGER NOT NULL,
		hour INTEGER NOT NULL,
		category TEXT NOT NULL,
		kind TEXT NOT NULL,
		description TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_worlds_due ON worlds(active, next_due_ms);
	CREATE INDEX IF NOT EXISTS idx_locations_world ON locations(world_id);
	CREATE INDEX IF NOT EXISTS idx_agents_world ON agents(world_id);
	CREATE INDEX IF NOT EXISTS idx_events_world ON events(world_id, hour);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// MaxIDs holds the highest stored id of each record kind.
type MaxIDs struct {
	World    uint64 `db:"world"`
	Location uint64 `db:"location"`
	Agent    uint64 `db:"agent"`
	Event    uint64 `db:"event"`
}

// MaxIDs returns the id floors for restoring sequences after a restart.
func (db *DB) MaxIDs(ctx context.Context) (MaxIDs, error) {
	var ids MaxIDs
	err := db.conn.GetContext(ctx, &ids, `SELECT
		(SELECT COALESCE(MAX(id), 0) FROM worlds) AS world,
		(SELECT COALESCE(MAX(id), 0) FROM locations) AS location,
		(SELECT COALESCE(MAX(id), 0) FROM agents) AS agent,
		(SELECT COALESCE(MAX(id), 0) FROM events) AS event`)
	if err != nil {
		return MaxIDs{}, fmt.Errorf("max ids: %w", err)
	}
	return ids, nil
}

// notFound maps a missing row onto world.ErrNotFound.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, world.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}
