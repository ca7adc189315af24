// Package social models each world's factions and the political events
// that shift power between them.
package social

import "math"

// FactionID is a unique identifier for a faction within a world.
type FactionID uint64

// FactionKind categorizes the nature of a faction.
type FactionKind uint8

const (
	FactionPolitical FactionKind = iota // Governance-focused
	FactionEconomic                     // Trade and wealth
	FactionMilitary                     // Martial power
	FactionReligious                    // Spiritual and cultural
	FactionCultural
	FactionCriminal // Underground
)

// Ideology is a faction's governing philosophy.
type Ideology uint8

const (
	IdeologyAuthoritarian Ideology = iota
	IdeologyDemocratic
	IdeologyTheocratic
	IdeologyMercantile
	IdeologyMilitaristic
	IdeologyScholarly
	IdeologyAnarchist
)

// Faction represents an organization competing for influence in a world.
type Faction struct {
	ID       FactionID   `json:"id"`
	Name     string      `json:"name"`
	Kind     FactionKind `json:"kind"`
	Ideology Ideology    `json:"ideology"`

	Influence     float64 `json:"influence"`      // 0–100
	Treasury      float64 `json:"treasury"`       // never negative
	Stability     float64 `json:"stability"`      // 0–100, internal cohesion
	PublicSupport float64 `json:"public_support"` // 0–100
	Members       uint32  `json:"members"`

	// Relations with other factions (-100 war to +100 alliance).
	Relations map[FactionID]float64 `json:"relations"`
	// Treaties records factions this one has a standing treaty with.
	Treaties map[FactionID]bool `json:"treaties,omitempty"`
}

// SeedFactions creates the five founding factions of a world. Membership
// is split from the population.
func SeedFactions(population uint32) []*Faction {
	share := population / 5
	factions := []*Faction{
		{ID: 1, Name: "The Crown", Kind: FactionPolitical, Ideology: IdeologyDemocratic,
			Influence: 60, Treasury: 5000, Stability: 65, PublicSupport: 55},
		{ID: 2, Name: "Merchant's Compact", Kind: FactionEconomic, Ideology: IdeologyMercantile,
			Influence: 45, Treasury: 12000, Stability: 60, PublicSupport: 40},
		{ID: 3, Name: "Iron Brotherhood", Kind: FactionMilitary, Ideology: IdeologyMilitaristic,
			Influence: 40, Treasury: 3000, Stability: 70, PublicSupport: 35},
		{ID: 4, Name: "Verdant Circle", Kind: FactionReligious, Ideology: IdeologyTheocratic,
			Influence: 30, Treasury: 1500, Stability: 75, PublicSupport: 45},
		{ID: 5, Name: "Ashen Path", Kind: FactionCriminal, Ideology: IdeologyAnarchist,
			Influence: 15, Treasury: 800, Stability: 35, PublicSupport: 10},
	}
	for _, f := range factions {
		f.Members = share
		f.Relations = make(map[FactionID]float64)
		f.Treaties = make(map[FactionID]bool)
	}
	return factions
}

// Drift applies one round of influence, treasury, and stability change.
func (f *Faction) Drift() {
	var change float64
	switch f.Kind {
	case FactionPolitical:
		change = f.PublicSupport * 0.001
	case FactionReligious:
		change = f.Stability * 0.0005
	case FactionEconomic:
		change = f.Treasury * 0.00001
	case FactionMilitary:
		change = float64(f.Members) * 0.01
	case FactionCultural:
		change = f.Influence * 0.0008
	case FactionCriminal:
		change = -f.PublicSupport * 0.002
	}
	f.Influence = clamp100(f.Influence + change)

	var income float64
	switch f.Kind {
	case FactionEconomic:
		income = f.Influence * 100
	case FactionPolitical:
		income = f.PublicSupport * 50
	case FactionReligious:
		income = float64(f.Members) * 10
	default:
		income = f.Influence * 25
	}
	f.Treasury = math.Max(0, f.Treasury+income)

	switch {
	case f.Influence > 50:
		f.Stability = clamp100(f.Stability + 1)
	case f.Influence < 25:
		f.Stability = clamp100(f.Stability - 2)
	}
}

func (f *Faction) clone() *Faction {
	c := *f
	c.Relations = make(map[FactionID]float64, len(f.Relations))
	for k, v := range f.Relations {
		c.Relations[k] = v
	}
	c.Treaties = make(map[FactionID]bool, len(f.Treaties))
	for k, v := range f.Treaties {
		c.Treaties[k] = v
	}
	return &c
}

func clamp100(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
