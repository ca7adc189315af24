package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/talgya/needs-world/internal/world"
)

type worldRow struct {
	world.World
	LastUpdateMs int64 `db:"last_update_ms"`
	NextDueMs    int64 `db:"next_due_ms"`
}

func (r worldRow) toWorld() *world.World {
	w := r.World
	w.LastUpdate = fromMillis(r.LastUpdateMs)
	w.NextDue = fromMillis(r.NextDueMs)
	return &w
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

const worldColumns = `id, name, active, speed, climate, population, total_hours, day, cycle,
	season, seed, created_hour, last_update_ms, next_due_ms`

// SaveWorld inserts or replaces a world record.
func (db *DB) SaveWorld(ctx context.Context, w *world.World) error {
	_, err := db.conn.ExecContext(ctx, `INSERT OR REPLACE INTO worlds (`+worldColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.Name, w.Active, w.Speed, w.Climate, w.Population, w.TotalHours,
		w.Day, w.Cycle, w.Season, w.Seed, w.CreatedHour,
		toMillis(w.LastUpdate), toMillis(w.NextDue),
	)
	if err != nil {
		return fmt.Errorf("save world %d: %w", w.ID, err)
	}
	return nil
}

// GetWorld loads one world.
func (db *DB) GetWorld(ctx context.Context, id world.WorldID) (*world.World, error) {
	var row worldRow
	err := db.conn.GetContext(ctx, &row, `SELECT `+worldColumns+` FROM worlds WHERE id = ?`, id)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("world %d", id))
	}
	return row.toWorld(), nil
}

// LoadWorlds returns every world in ID order.
func (db *DB) LoadWorlds(ctx context.Context) ([]*world.World, error) {
	return db.selectWorlds(ctx, `SELECT `+worldColumns+` FROM worlds ORDER BY id`)
}

// DueWorlds returns active, unpaused worlds whose next update is due,
// oldest due first.
func (db *DB) DueWorlds(ctx context.Context, now time.Time) ([]*world.World, error) {
	return db.selectWorlds(ctx, `SELECT `+worldColumns+` FROM worlds
		WHERE active = 1 AND speed != ? AND next_due_ms <= ?
		ORDER BY next_due_ms, id`, world.SpeedPaused, now.UnixMilli())
}

func (db *DB) selectWorlds(ctx context.Context, query string, args ...any) ([]*world.World, error) {
	var rows []worldRow
	if err := db.conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select worlds: %w", err)
	}
	out := make([]*world.World, len(rows))
	for i, r := range rows {
		out[i] = r.toWorld()
	}
	return out, nil
}
