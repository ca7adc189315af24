// Agent spawning: creates a world's initial population with names, homes,
// workplaces, and lightly varied starting needs.
package agents

import (
	"math/rand"

	"github.com/talgya/needs-world/internal/ids"
	"github.com/talgya/needs-world/internal/world"
)

// Spawner creates agents for the simulation.
type Spawner struct {
	rng *rand.Rand
	ids *ids.Sequence
}

// NewSpawner creates an agent spawner with the given seed. Each population
// takes one contiguous block of IDs from seq.
func NewSpawner(seed int64, seq *ids.Sequence) *Spawner {
	return &Spawner{
		rng: rand.New(rand.NewSource(seed + 300)),
		ids: seq,
	}
}

// SpawnPopulation creates count agents in one world. Residents are spread
// over homes so that no home fills up with its own residents, and workers
// over workplaces round-robin. Each agent starts at home and is counted as
// an occupant there. Agents that cannot be housed are homeless and start at
// the first location in the catalog.
func (s *Spawner) SpawnPopulation(worldID world.WorldID, count int, catalog *world.Catalog, hour uint64) []*Agent {
	homes := catalog.OfKind(world.KindHome)
	var workplaces []*world.Location
	for _, l := range catalog.All() {
		if l.Work {
			workplaces = append(workplaces, l)
		}
	}

	if count <= 0 {
		return nil
	}
	first := s.ids.Reserve(uint64(count))
	residents := make(map[world.LocationID]uint32, len(homes))
	agents := make([]*Agent, 0, count)
	for i := 0; i < count; i++ {
		a := s.spawnOne(AgentID(first+uint64(i)), worldID, hour)

		for j := range homes {
			h := homes[(i+j)%len(homes)]
			if residents[h.ID]+1 < h.Capacity {
				residents[h.ID]++
				a.HomeID = locPtr(h.ID)
				break
			}
		}
		if len(workplaces) > 0 && s.rng.Float64() < 0.85 {
			a.WorkplaceID = locPtr(workplaces[i%len(workplaces)].ID)
		}

		start := a.HomeID
		if start == nil {
			if all := catalog.All(); len(all) > 0 {
				start = &all[0].ID
			}
		}
		if start != nil {
			a.LocationID = *start
			if loc, ok := catalog.Get(*start); ok {
				loc.Enter()
			}
		}
		agents = append(agents, a)
	}
	return agents
}

func (s *Spawner) spawnOne(id AgentID, worldID world.WorldID, hour uint64) *Agent {
	needs := DefaultNeeds()
	needs.FoodWater += s.jitter(10)
	needs.Rest += s.jitter(10)
	needs.Income += s.jitter(20)
	needs.Stress += s.jitter(10)
	needs.Clamp()

	role := RoleNone
	if s.rng.Float64() < 0.15 {
		role = SpecializedRole(1 + s.rng.Intn(int(RoleHealer)))
	}

	return &Agent{
		ID:             id,
		WorldID:        worldID,
		Name:           s.generateName(),
		Needs:          needs,
		Role:           role,
		Status:         Idle(),
		LastUpdateHour: hour,
		BirthHour:      hour,
	}
}

// jitter returns a value in [-spread/2, spread/2).
func (s *Spawner) jitter(spread float64) float64 {
	return (s.rng.Float64() - 0.5) * spread
}

func (s *Spawner) generateName() string {
	firsts := maleNames
	if s.rng.Float32() < 0.5 {
		firsts = femaleNames
	}
	first := firsts[s.rng.Intn(len(firsts))]
	last := lastNames[s.rng.Intn(len(lastNames))]
	return first + " " + last
}

// Name pools for procedural generation.
var maleNames = []string{
	"Aldric", "Bram", "Cedric", "Doran", "Erik", "Finn", "Gareth",
	"Halvard", "Ivan", "Jasper", "Kael", "Leif", "Magnus", "Nils",
	"Oswin", "Per", "Quinn", "Rowan", "Stellan", "Theron", "Ulric",
	"Varen", "Wren", "Yorick", "Zander", "Arlen", "Beric", "Cade",
	"Dorian", "Edric", "Falk", "Gunnar", "Hugo", "Ivar", "Jorik",
}

var femaleNames = []string{
	"Astrid", "Brenna", "Calla", "Daria", "Elara", "Freya", "Greta",
	"Helene", "Iris", "Juno", "Kira", "Lena", "Mira", "Nessa",
	"Olwen", "Petra", "Runa", "Senna", "Thea", "Una", "Vera",
	"Willa", "Yara", "Zara", "Ava", "Birgit", "Cora", "Dagny",
	"Eira", "Fern", "Gwen", "Hilde", "Inga", "Johanna", "Katla",
}

var lastNames = []string{
	"Voss", "Thornwood", "Blackwood", "Ashford", "Ironhand", "Dunmore",
	"Greenvale", "Stormcrow", "Frostborn", "Hearthstone", "Millward",
	"Copperfield", "Ravenmoor", "Silverdale", "Wolfsbane", "Stoneheart",
	"Deepwell", "Brightwater", "Oakenshield", "Redforge", "Windholm",
	"Marshwood", "Goldhaven", "Nightingale", "Riverstone", "Steelworth",
	"Embercroft", "Holloway", "Dawnridge", "Farrow", "Wyatt", "Thatcher",
	"Briar", "Caldwell", "Frost", "Harper", "Mercer", "Ward", "Cross",
}
