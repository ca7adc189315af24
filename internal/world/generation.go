// Location generation using simplex noise.
// Noise drives building placement jitter and environmental quality, so
// neighbouring buildings share a similar surrounding.
package world

import (
	"fmt"
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds location generation parameters.
type GenConfig struct {
	Seed   int64   `yaml:"-"`      // Random seed (0 = random)
	Extent float64 `yaml:"extent"` // Side length of the square world plane

	Homes          int `yaml:"homes"`
	Workplaces     int `yaml:"workplaces"`
	Restaurants    int `yaml:"restaurants"`
	Parks          int `yaml:"parks"`
	Hospitals      int `yaml:"hospitals"`
	CultureCenters int `yaml:"culture_centers"`
	Schools        int `yaml:"schools"`
}

// DefaultGenConfig returns a small town layout.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Extent:         100,
		Homes:          20,
		Workplaces:     5,
		Restaurants:    3,
		Parks:          2,
		Hospitals:      1,
		CultureCenters: 1,
		Schools:        1,
	}
}

// GenerateLocations creates the buildings of one world.
// next issues location IDs.
func GenerateLocations(worldID WorldID, cfg GenConfig, next func() uint64) []*Location {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))
	qualityNoise := opensimplex.NewNormalized(seed)
	placeNoise := opensimplex.NewNormalized(seed + 1)

	extent := cfg.Extent
	if extent <= 0 {
		extent = 100
	}

	plan := []struct {
		kind  LocationKind
		count int
	}{
		{KindHome, cfg.Homes},
		{KindWorkplace, cfg.Workplaces},
		{KindRestaurant, cfg.Restaurants},
		{KindPark, cfg.Parks},
		{KindHospital, cfg.Hospitals},
		{KindCultureCenter, cfg.CultureCenters},
		{KindSchool, cfg.Schools},
		{KindCityHall, 1},
	}

	var locs []*Location
	for _, p := range plan {
		for i := 0; i < p.count; i++ {
			pos := Point{X: rng.Float64() * extent, Y: rng.Float64() * extent}
			// Nudge along the noise field so buildings cluster.
			pos.X = clamp(pos.X+(placeNoise.Eval2(pos.X*0.05, pos.Y*0.05)-0.5)*extent*0.1, 0, extent)
			pos.Y = clamp(pos.Y+(placeNoise.Eval2(pos.Y*0.05, pos.X*0.05)-0.5)*extent*0.1, 0, extent)

			caps := DefaultCapabilities(p.kind)
			// Map noise [0,1] onto quality [-3,2], then bias by kind.
			q := qualityNoise.Eval2(pos.X*0.03, pos.Y*0.03)*5 - 3
			caps.EnvironmentalQuality = clamp(q+caps.EnvironmentalQuality+1.5, -3, 2)

			locs = append(locs, &Location{
				ID:           LocationID(next()),
				WorldID:      worldID,
				Name:         fmt.Sprintf("%s %d", kindTitle(p.kind), i+1),
				Kind:         p.kind,
				Position:     pos,
				Capabilities: caps,
				Capacity:     DefaultCapacity(p.kind),
				Prestige:     uint8(rng.Intn(4)),
				Maintenance:  60 + rng.Float64()*40,
			})
		}
	}
	return locs
}

func kindTitle(k LocationKind) string {
	switch k {
	case KindHome:
		return "House"
	case KindWorkplace:
		return "Workshop"
	case KindRestaurant:
		return "Restaurant"
	case KindPark:
		return "Park"
	case KindHospital:
		return "Hospital"
	case KindPoliceStation:
		return "Police Station"
	case KindSchool:
		return "School"
	case KindResearchLab:
		return "Lab"
	case KindCultureCenter:
		return "Culture Center"
	case KindCityHall:
		return "City Hall"
	}
	return "Building"
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
