package agents

import "github.com/talgya/needs-world/internal/world"

// Location scoring weights.
const (
	prestigeWeight  = 0.2
	homeBonus       = 2.0
	workplaceBonus  = 1.0
	distancePenalty = 0.1
)

// CanSatisfy reports whether loc offers what the need requires for this agent.
func CanSatisfy(need NeedKind, a *Agent, loc *world.Location) bool {
	switch need {
	case NeedConsumption:
		return loc.Food
	case NeedRest:
		return loc.Rest && a.IsHome(loc.ID)
	case NeedConnection:
		return loc.Social || loc.Culture
	case NeedEnvironment:
		return loc.EnvironmentalQuality > 0 || loc.Healthcare || (loc.Rest && a.IsHome(loc.ID))
	case NeedWaste:
		// Private homes only serve their residents.
		if loc.Kind == world.KindHome {
			return a.IsHome(loc.ID)
		}
		return loc.Facilities
	case NeedLivelihood:
		return loc.Work && a.IsWorkplace(loc.ID)
	}
	return false
}

// ScoreLocation rates a candidate location for an agent standing at from.
func ScoreLocation(a *Agent, from world.Point, loc *world.Location) float64 {
	score := loc.EnvironmentalQuality + prestigeWeight*float64(loc.Prestige)
	if a.IsHome(loc.ID) {
		score += homeBonus
	}
	if a.IsWorkplace(loc.ID) {
		score += workplaceBonus
	}
	score -= distancePenalty * world.Distance(from, loc.Position)
	return score
}

// MatchLocation picks the best place to satisfy need. Locations at or over
// capacity are never returned, except the one the agent already occupies:
// its own slot there is counted in the occupancy. Equal scores go to the
// lowest location ID. It returns false when no location qualifies.
func MatchLocation(need NeedKind, a *Agent, catalog *world.Catalog) (world.LocationID, bool) {
	var from world.Point
	if cur, ok := catalog.Get(a.LocationID); ok {
		from = cur.Position
	}

	var (
		bestID    world.LocationID
		bestScore float64
		found     bool
	)
	// All is ID-ordered, so a strict comparison keeps the lowest ID on ties.
	for _, loc := range catalog.All() {
		if (loc.Full() && loc.ID != a.LocationID) || !CanSatisfy(need, a, loc) {
			continue
		}
		score := ScoreLocation(a, from, loc)
		if !found || score > bestScore {
			bestID, bestScore, found = loc.ID, score, true
		}
	}
	return bestID, found
}
