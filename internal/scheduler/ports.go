package scheduler

import (
	"context"
	"time"

	"github.com/talgya/needs-world/internal/engine"
	"github.com/talgya/needs-world/internal/world"
)

// Store persists worlds and the scheduler's own record.
type Store interface {
	// DueWorlds returns active, unpaused worlds with NextDue <= now,
	// oldest due first, ties by ID.
	DueWorlds(ctx context.Context, now time.Time) ([]*world.World, error)
	// GetWorld returns world.ErrNotFound for unknown ids.
	GetWorld(ctx context.Context, id world.WorldID) (*world.World, error)
	SaveWorld(ctx context.Context, w *world.World) error
	// LoadConfig returns world.ErrNotFound when no record exists.
	LoadConfig(ctx context.Context) (*Config, error)
	SaveConfig(ctx context.Context, cfg *Config) error
}

// EventSink stores generated events.
type EventSink interface {
	SaveEvents(ctx context.Context, events []engine.Event) error
}

// Economy updates a world's markets and reports market events.
type Economy interface {
	UpdateMarkets(ctx context.Context, w *world.World) error
	GenerateEvents(ctx context.Context, w *world.World) ([]engine.Event, error)
}

// Politics updates factions and starts and resolves political events.
type Politics interface {
	UpdateFactions(ctx context.Context, w *world.World) error
	GenerateEvents(ctx context.Context, w *world.World) ([]engine.Event, error)
	ResolveEvents(ctx context.Context, w *world.World) ([]engine.Event, error)
}

// Environment updates climate and natural events.
type Environment interface {
	UpdateClimate(ctx context.Context, w *world.World) error
	GenerateEvents(ctx context.Context, w *world.World) ([]engine.Event, error)
	ResolveEvents(ctx context.Context, w *world.World) ([]engine.Event, error)
	// UpdateSeasonal runs once per simulated day.
	UpdateSeasonal(ctx context.Context, w *world.World) error
}

// DataSync pushes a world's state to an external consumer once per day.
type DataSync interface {
	Sync(ctx context.Context, w *world.World) error
}

// AgentTicker advances a world's agents.
type AgentTicker interface {
	TickWorld(ctx context.Context, id world.WorldID, elapsed uint64) (engine.TickSummary, error)
}

// Subsystems are the collaborators driven for every world. Nil members
// are skipped.
type Subsystems struct {
	Economy     Economy
	Politics    Politics
	Environment Environment
	Agents      AgentTicker
	Sync        DataSync
}
