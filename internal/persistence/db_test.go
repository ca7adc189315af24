package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/needs-world/internal/agents"
	"github.com/talgya/needs-world/internal/engine"
	"github.com/talgya/needs-world/internal/ids"
	"github.com/talgya/needs-world/internal/scheduler"
	"github.com/talgya/needs-world/internal/world"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "world.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testWorld(id world.WorldID, due time.Time) *world.World {
	return &world.World{
		ID:         id,
		Name:       "Vale",
		Active:     true,
		Speed:      world.SpeedNormal,
		Climate:    world.ClimateArid,
		Population: 12,
		TotalHours: 48,
		Day:        3,
		Season:     world.SeasonSpring,
		Seed:       99,
		NextDue:    due,
		LastUpdate: due.Add(-time.Hour),
	}
}

func TestWorldRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	due := time.UnixMilli(1_700_000_000_000).UTC()

	require.NoError(t, db.SaveWorld(ctx, testWorld(1, due)))
	got, err := db.GetWorld(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, testWorld(1, due), got)

	_, err = db.GetWorld(ctx, 2)
	assert.ErrorIs(t, err, world.ErrNotFound)
}

func TestDueWorldsOrderAndFilter(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.UnixMilli(1_700_000_000_000).UTC()

	late := testWorld(1, now.Add(-time.Minute))
	early := testWorld(2, now.Add(-time.Hour))
	tie := testWorld(3, now.Add(-time.Hour))
	future := testWorld(4, now.Add(time.Hour))
	paused := testWorld(5, now.Add(-time.Hour))
	paused.Speed = world.SpeedPaused
	inactive := testWorld(6, now.Add(-time.Hour))
	inactive.Active = false
	for _, w := range []*world.World{late, early, tie, future, paused, inactive} {
		require.NoError(t, db.SaveWorld(ctx, w))
	}

	due, err := db.DueWorlds(ctx, now)
	require.NoError(t, err)
	var got []world.WorldID
	for _, w := range due {
		got = append(got, w.ID)
	}
	assert.Equal(t, []world.WorldID{2, 3, 1}, got)

	all, err := db.LoadWorlds(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestSchedulerConfig(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.LoadConfig(ctx)
	assert.ErrorIs(t, err, world.ErrNotFound)

	cfg := &scheduler.Config{
		Options:          scheduler.DefaultOptions(),
		LastRun:          time.UnixMilli(1_700_000_000_000).UTC(),
		NextRun:          time.UnixMilli(1_700_000_300_000).UTC(),
		PerformanceStats: `{"worlds_processed":3}`,
	}
	cfg.Workers = 4
	require.NoError(t, db.SaveConfig(ctx, cfg))

	cfg.BatchSize = 25
	require.NoError(t, db.SaveConfig(ctx, cfg))

	got, err := db.LoadConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestEvents(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	events := []engine.Event{
		{ID: 10, WorldID: 1, Hour: 5, Category: engine.CategoryEconomic, Kind: "boom", Description: "food booms"},
		{WorldID: 1, Hour: 9, Category: engine.CategoryNatural, Kind: "flood", Description: "the river rises"},
		{ID: 12, WorldID: 2, Hour: 7, Category: engine.CategoryPolitical, Kind: "coup", Description: "elsewhere"},
	}
	require.NoError(t, db.SaveEvents(ctx, events))
	require.NoError(t, db.SaveEvents(ctx, nil))

	got, err := db.RecentEvents(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "flood", got[0].Kind)
	assert.NotZero(t, got[0].ID)
	assert.Equal(t, uint64(10), got[1].ID)

	got, err = db.RecentEvents(ctx, 1, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	ids, err := db.MaxIDs(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, ids.Event, uint64(12))
}

func TestSimulationRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	locSeq, agentSeq := ids.NewSequence(0), ids.NewSequence(0)
	locs := world.GenerateLocations(3, world.DefaultGenConfig(), locSeq.Next)
	catalog := world.NewCatalog(locs)
	pop := agents.NewSpawner(7, agentSeq).SpawnPopulation(3, 10, catalog, 0)
	sim := engine.NewSimulation(3, 0, pop, catalog)

	_, err := sim.Tick(ctx, 30)
	require.NoError(t, err)
	snap := sim.Snapshot()
	require.NoError(t, db.SaveSimulation(ctx, snap))
	// Saving twice replaces rather than duplicates.
	require.NoError(t, db.SaveSimulation(ctx, snap))

	w := testWorld(3, time.Time{})
	w.TotalHours = snap.Hour
	loaded, err := db.LoadSimulation(ctx, w)
	require.NoError(t, err)
	got := loaded.Snapshot()

	assert.Equal(t, snap.Agents, got.Agents)
	assert.Equal(t, snap.Locations, got.Locations)

	maxIDs, err := db.MaxIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, locSeq.Last(), maxIDs.Location)
	assert.Equal(t, agentSeq.Last(), maxIDs.Agent)
}
