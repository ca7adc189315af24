package persistence

import (
	"context"
	"fmt"

	"github.com/talgya/needs-world/internal/engine"
	"github.com/talgya/needs-world/internal/scheduler"
	"github.com/talgya/needs-world/internal/world"
)

type configRow struct {
	Enabled             bool   `db:"enabled"`
	BatchSize           uint32 `db:"batch_size"`
	MaxProcessingTimeMs uint64 `db:"max_processing_time_ms"`
	RunIntervalMs       uint64 `db:"run_interval_ms"`
	Workers             int    `db:"workers"`
	LastRunMs           int64  `db:"last_run_ms"`
	NextRunMs           int64  `db:"next_run_ms"`
	PerformanceStats    string `db:"performance_stats"`
}

// LoadConfig returns the stored scheduler record or world.ErrNotFound.
func (db *DB) LoadConfig(ctx context.Context) (*scheduler.Config, error) {
	var row configRow
	err := db.conn.GetContext(ctx, &row, `SELECT enabled, batch_size, max_processing_time_ms,
		run_interval_ms, workers, last_run_ms, next_run_ms, performance_stats
		FROM scheduler_config WHERE id = 1`)
	if err != nil {
		return nil, notFound(err, "scheduler config")
	}
	return &scheduler.Config{
		Options: scheduler.Options{
			Enabled:             row.Enabled,
			BatchSize:           row.BatchSize,
			MaxProcessingTimeMs: row.MaxProcessingTimeMs,
			RunIntervalMs:       row.RunIntervalMs,
			Workers:             row.Workers,
		},
		LastRun:          fromMillis(row.LastRunMs),
		NextRun:          fromMillis(row.NextRunMs),
		PerformanceStats: row.PerformanceStats,
	}, nil
}

// SaveConfig writes the single scheduler record.
func (db *DB) SaveConfig(ctx context.Context, cfg *scheduler.Config) error {
	_, err := db.conn.ExecContext(ctx, `INSERT OR REPLACE INTO scheduler_config
		(id, enabled, batch_size, max_processing_time_ms, run_interval_ms, workers,
		 last_run_ms, next_run_ms, performance_stats)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cfg.Enabled, cfg.BatchSize, cfg.MaxProcessingTimeMs, cfg.RunIntervalMs, cfg.Workers,
		toMillis(cfg.LastRun), toMillis(cfg.NextRun), cfg.PerformanceStats,
	)
	if err != nil {
		return fmt.Errorf("save scheduler config: %w", err)
	}
	return nil
}

// SaveEvents appends events. Events without an id get one from the database.
func (db *DB) SaveEvents(ctx context.Context, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx,
		"INSERT OR REPLACE INTO events (id, world_id, hour, category, kind, description) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		var id any
		if e.ID != 0 {
			id = e.ID
		}
		if _, err := stmt.ExecContext(ctx, id, e.WorldID, e.Hour, e.Category, e.Kind, e.Description); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}

	return tx.Commit()
}

// RecentEvents returns up to limit of a world's newest events, newest first.
func (db *DB) RecentEvents(ctx context.Context, id world.WorldID, limit int) ([]engine.Event, error) {
	if limit <= 0 {
		limit = -1
	}
	var events []engine.Event
	err := db.conn.SelectContext(ctx, &events,
		`SELECT id, world_id, hour, category, kind, description FROM events
		WHERE world_id = ? ORDER BY hour DESC, id DESC LIMIT ?`,
		id, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	return events, nil
}

var (
	_ scheduler.Store     = (*DB)(nil)
	_ scheduler.EventSink = (*DB)(nil)
)
