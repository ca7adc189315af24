package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/needs-world/internal/ids"
	"github.com/talgya/needs-world/internal/world"
)

func TestSpawnPopulation(t *testing.T) {
	cfg := world.DefaultGenConfig()
	cfg.Seed = 11
	locSeq := ids.NewSequence(0)
	catalog := world.NewCatalog(world.GenerateLocations(1, cfg, locSeq.Next))

	seq := ids.NewSequence(100)
	s := NewSpawner(11, seq)
	pop := s.SpawnPopulation(1, 40, catalog, 0)
	require.Len(t, pop, 40)

	assert.Equal(t, AgentID(101), pop[0].ID)
	assert.Equal(t, uint64(140), seq.Last())

	residents := map[world.LocationID]uint32{}
	for _, a := range pop {
		assert.Equal(t, world.WorldID(1), a.WorldID)
		assert.NotEmpty(t, a.Name)
		assert.Equal(t, StatusIdle, a.Status.Kind)
		if a.HomeID != nil {
			residents[*a.HomeID]++
			assert.Equal(t, *a.HomeID, a.LocationID)
		}
		if a.WorkplaceID != nil {
			loc, ok := catalog.Get(*a.WorkplaceID)
			require.True(t, ok)
			assert.True(t, loc.Work)
		}
	}
	for id, n := range residents {
		home, _ := catalog.Get(id)
		assert.Less(t, n, home.Capacity, "home %d must keep room", id)
		assert.Equal(t, n, home.Occupants)
	}
}
