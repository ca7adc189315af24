package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/talgya/needs-world/internal/agents"
	"github.com/talgya/needs-world/internal/engine"
	"github.com/talgya/needs-world/internal/world"
)

type locationRow struct {
	ID               world.LocationID   `db:"id"`
	WorldID          world.WorldID      `db:"world_id"`
	Name             string             `db:"name"`
	Kind             world.LocationKind `db:"kind"`
	X                float64            `db:"x"`
	Y                float64            `db:"y"`
	CapabilitiesJSON string             `db:"capabilities_json"`
	Occupants        uint32             `db:"occupants"`
	Capacity         uint32             `db:"capacity"`
	Prestige         uint8              `db:"prestige"`
	Maintenance      float64            `db:"maintenance"`
}

type agentRow struct {
	ID             agents.AgentID         `db:"id"`
	WorldID        world.WorldID          `db:"world_id"`
	Name           string                 `db:"name"`
	LocationID     world.LocationID       `db:"location_id"`
	HomeID         *world.LocationID      `db:"home_id"`
	WorkplaceID    *world.LocationID      `db:"workplace_id"`
	Role           agents.SpecializedRole `db:"role"`
	LastUpdateHour uint64                 `db:"last_update_hour"`
	BirthHour      uint64                 `db:"birth_hour"`
	NeedsJSON      string                 `db:"needs_json"`
	StatusJSON     string                 `db:"status_json"`
}

// SaveSimulation replaces a world's stored agents and locations with the
// contents of a snapshot.
func (db *DB) SaveSimulation(ctx context.Context, snap engine.Snapshot) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM locations WHERE world_id = ?", snap.WorldID); err != nil {
		return fmt.Errorf("clear locations: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM agents WHERE world_id = ?", snap.WorldID); err != nil {
		return fmt.Errorf("clear agents: %w", err)
	}

	locStmt, err := tx.PreparexContext(ctx, `INSERT INTO locations
		(id, world_id, name, kind, x, y, capabilities_json, occupants, capacity, prestige, maintenance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer locStmt.Close()

	for _, l := range snap.Locations {
		capsJSON, err := json.Marshal(l.Capabilities)
		if err != nil {
			return fmt.Errorf("encode location %d: %w", l.ID, err)
		}
		_, err = locStmt.ExecContext(ctx,
			l.ID, l.WorldID, l.Name, l.Kind, l.Position.X, l.Position.Y,
			string(capsJSON), l.Occupants, l.Capacity, l.Prestige, l.Maintenance,
		)
		if err != nil {
			return fmt.Errorf("insert location %d: %w", l.ID, err)
		}
	}

	agentStmt, err := tx.PreparexContext(ctx, `INSERT INTO agents
		(id, world_id, name, location_id, home_id, workplace_id, role,
		 last_update_hour, birth_hour, needs_json, status_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer agentStmt.Close()

	for _, a := range snap.Agents {
		needsJSON, err := json.Marshal(a.Needs)
		if err != nil {
			return fmt.Errorf("encode agent %d needs: %w", a.ID, err)
		}
		statusJSON, err := json.Marshal(a.Status)
		if err != nil {
			return fmt.Errorf("encode agent %d status: %w", a.ID, err)
		}
		_, err = agentStmt.ExecContext(ctx,
			a.ID, a.WorldID, a.Name, a.LocationID, a.HomeID, a.WorkplaceID, a.Role,
			a.LastUpdateHour, a.BirthHour, string(needsJSON), string(statusJSON),
		)
		if err != nil {
			return fmt.Errorf("insert agent %d: %w", a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Debug("simulation saved", "world", snap.WorldID, "agents", len(snap.Agents), "locations", len(snap.Locations))
	return nil
}

// LoadLocations returns a world's locations in ID order.
func (db *DB) LoadLocations(ctx context.Context, id world.WorldID) ([]*world.Location, error) {
	var rows []locationRow
	err := db.conn.SelectContext(ctx, &rows, `SELECT id, world_id, name, kind, x, y, capabilities_json,
		occupants, capacity, prestige, maintenance FROM locations WHERE world_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("load locations: %w", err)
	}
	out := make([]*world.Location, len(rows))
	for i, r := range rows {
		l := &world.Location{
			ID:          r.ID,
			WorldID:     r.WorldID,
			Name:        r.Name,
			Kind:        r.Kind,
			Position:    world.Point{X: r.X, Y: r.Y},
			Occupants:   r.Occupants,
			Capacity:    r.Capacity,
			Prestige:    r.Prestige,
			Maintenance: r.Maintenance,
		}
		if err := json.Unmarshal([]byte(r.CapabilitiesJSON), &l.Capabilities); err != nil {
			return nil, fmt.Errorf("decode location %d: %w", r.ID, err)
		}
		out[i] = l
	}
	return out, nil
}

// LoadAgents returns a world's agents in ID order.
func (db *DB) LoadAgents(ctx context.Context, id world.WorldID) ([]*agents.Agent, error) {
	var rows []agentRow
	err := db.conn.SelectContext(ctx, &rows, `SELECT id, world_id, name, location_id, home_id, workplace_id,
		role, last_update_hour, birth_hour, needs_json, status_json FROM agents WHERE world_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("load agents: %w", err)
	}
	out := make([]*agents.Agent, len(rows))
	for i, r := range rows {
		a := &agents.Agent{
			ID:             r.ID,
			WorldID:        r.WorldID,
			Name:           r.Name,
			LocationID:     r.LocationID,
			HomeID:         r.HomeID,
			WorkplaceID:    r.WorkplaceID,
			Role:           r.Role,
			LastUpdateHour: r.LastUpdateHour,
			BirthHour:      r.BirthHour,
		}
		if err := json.Unmarshal([]byte(r.NeedsJSON), &a.Needs); err != nil {
			return nil, fmt.Errorf("decode agent %d needs: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(r.StatusJSON), &a.Status); err != nil {
			return nil, fmt.Errorf("decode agent %d status: %w", r.ID, err)
		}
		out[i] = a
	}
	return out, nil
}

// LoadSimulation rebuilds a world's simulation from stored agents and locations.
func (db *DB) LoadSimulation(ctx context.Context, w *world.World) (*engine.Simulation, error) {
	locs, err := db.LoadLocations(ctx, w.ID)
	if err != nil {
		return nil, err
	}
	ag, err := db.LoadAgents(ctx, w.ID)
	if err != nil {
		return nil, err
	}
	return engine.NewSimulation(w.ID, w.TotalHours, ag, world.NewCatalog(locs)), nil
}
