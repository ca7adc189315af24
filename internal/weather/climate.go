package weather

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"github.com/talgya/needs-world/internal/engine"
	"github.com/talgya/needs-world/internal/entropy"
	"github.com/talgya/needs-world/internal/world"
)

// Pattern is the prevailing weather of a world.
type Pattern uint8

const (
	PatternClear Pattern = iota
	PatternCloudy
	PatternRainy
	PatternStormy
	PatternFoggy
	PatternWindy
	PatternHot
	PatternCold
	patternCount
)

var patternNames = [...]string{"clear", "cloudy", "rainy", "stormy", "foggy", "windy", "hot", "cold"}

func (p Pattern) String() string {
	if p < patternCount {
		return patternNames[p]
	}
	return "unknown"
}

// DisasterKind is a natural event triggered by extreme weather.
type DisasterKind uint8

const (
	DisasterFire DisasterKind = iota
	DisasterFlood
	DisasterStorm
)

func (k DisasterKind) String() string {
	switch k {
	case DisasterFire:
		return "fire"
	case DisasterFlood:
		return "flood"
	case DisasterStorm:
		return "storm"
	}
	return "unknown"
}

// Thresholds and per-update chances for disasters.
const (
	FireTemperature     = 40.0
	FloodPrecipitation  = 15.0
	StormWindSpeed      = 80.0
	fireChance          = 0.02
	floodChance         = 0.05
	stormChance         = 0.03
	patternChangeChance = 0.1

	// LiveWeight is how much a real-world observation pulls on a world.
	LiveWeight = 0.3
)

// Disaster is an ongoing natural event.
type Disaster struct {
	Kind        DisasterKind `json:"kind"`
	StartHour   uint64       `json:"start_hour"`
	Duration    uint64       `json:"duration_hours"`
	Description string       `json:"description"`
}

// Ends returns the hour the disaster subsides.
func (d Disaster) Ends() uint64 { return d.StartHour + d.Duration }

// Climate is the current weather state of one world.
type Climate struct {
	Temperature    float64                 `json:"temperature"`   // Celsius
	Precipitation  float64                 `json:"precipitation"` // mm/h
	WindSpeed      float64                 `json:"wind_speed"`    // km/h
	Humidity       float64                 `json:"humidity"`
	Pattern        Pattern                 `json:"pattern"`
	Season         world.Season            `json:"season"`
	SeasonPhase    float64                 `json:"season_phase"`
	Modifiers      world.SeasonalModifiers `json:"modifiers"`
	LastUpdateHour uint64                  `json:"last_update_hour"`
	Disasters      []Disaster              `json:"disasters,omitempty"`
}

// Service runs the climate of every world.
type Service struct {
	streams *entropy.Streams
	live    *Client

	mu       sync.Mutex
	climates map[world.WorldID]*Climate
}

// NewService creates the environment subsystem. live may be nil.
func NewService(streams *entropy.Streams, live *Client) *Service {
	return &Service{
		streams:  streams,
		live:     live,
		climates: make(map[world.WorldID]*Climate),
	}
}

func (s *Service) climate(w *world.World) *Climate {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.climates[w.ID]
	if !ok {
		c = &Climate{
			Temperature: w.Climate.BaseTemperature(),
			Humidity:    50,
			Season:      w.Season,
			Modifiers:   world.ModifiersFor(w.Season, w.Climate),
		}
		s.climates[w.ID] = c
	}
	return c
}

// Snapshot returns a copy of a world's climate.
func (s *Service) Snapshot(w *world.World) Climate {
	c := s.climate(w)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := *c
	out.Disasters = append([]Disaster(nil), c.Disasters...)
	return out
}

// Temperature for a zone, season and hour of day, before weather.
func Temperature(zone world.ClimateZone, season world.Season, hour uint64) float64 {
	shift := world.ModifiersFor(season, zone).TemperatureShift
	hourOfDay := float64(hour % world.HoursPerDay)
	daily := math.Sin((hourOfDay-12)/24*math.Pi) * 5
	return zone.BaseTemperature() + shift + daily
}

// UpdateClimate recomputes temperature, precipitation and wind.
func (s *Service) UpdateClimate(ctx context.Context, w *world.World) error {
	c := s.climate(w)
	rng := s.streams.For(w.ID)

	var live *Conditions
	if s.live != nil {
		cond, err := s.live.Observe(ctx, w.Climate)
		if err != nil {
			slog.Debug("live weather unavailable", "world", w.ID, "error", err)
		} else {
			live = cond
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rng.Float64() < patternChangeChance {
		c.Pattern = Pattern(rng.Intn(int(patternCount)))
	}
	if live != nil {
		c.Pattern = live.Pattern()
	}

	temp := Temperature(w.Climate, w.Season, w.TotalHours)
	switch c.Pattern {
	case PatternHot:
		temp += 8
	case PatternCold:
		temp -= 8
	}
	if live != nil {
		temp = blend(temp, live.Temp)
	}
	c.Temperature = temp

	precip := c.Modifiers.Precipitation
	switch c.Pattern {
	case PatternRainy:
		c.Precipitation = math.Min(c.Precipitation+2*precip, 10)
		c.Humidity = math.Min(c.Humidity+10, 100)
	case PatternStormy:
		c.Precipitation = math.Min(c.Precipitation+5*precip, 20)
		c.WindSpeed = math.Min(c.WindSpeed+20, 100)
		c.Humidity = math.Min(c.Humidity+15, 100)
	case PatternWindy:
		c.WindSpeed = math.Min(c.WindSpeed+10, 70)
	case PatternClear:
		c.Precipitation = math.Max(c.Precipitation-1, 0)
		c.Humidity = math.Max(c.Humidity-5, 20)
	}
	if c.Pattern != PatternStormy && c.Pattern != PatternWindy {
		c.WindSpeed = math.Max(c.WindSpeed-10, 0)
	}
	if live != nil {
		c.Humidity = blend(c.Humidity, live.Humidity)
		c.Precipitation = blend(c.Precipitation, live.Precipitation)
		c.WindSpeed = blend(c.WindSpeed, live.WindSpeed)
	}
	c.LastUpdateHour = w.TotalHours
	return nil
}

// blend pulls a simulated value toward an observed one by LiveWeight.
func blend(sim, observed float64) float64 {
	return sim*(1-LiveWeight) + observed*LiveWeight
}

// GenerateEvents rolls for disasters under extreme conditions.
func (s *Service) GenerateEvents(ctx context.Context, w *world.World) ([]engine.Event, error) {
	c := s.climate(w)
	rng := s.streams.For(w.ID)

	s.mu.Lock()
	defer s.mu.Unlock()

	var events []engine.Event
	start := func(kind DisasterKind, minHours, maxHours int, desc string) {
		d := Disaster{
			Kind:        kind,
			StartHour:   w.TotalHours,
			Duration:    uint64(minHours + rng.Intn(maxHours-minHours)),
			Description: desc,
		}
		c.Disasters = append(c.Disasters, d)
		events = append(events, engine.NewEvent(w.ID, w.TotalHours, engine.CategoryNatural, kind.String(),
			"%s (%d hours)", desc, d.Duration))
	}

	if c.Temperature > FireTemperature && rng.Float64() < fireChance {
		start(DisasterFire, 24, 72, "wildfires spread through dry vegetation")
	}
	if c.Precipitation > FloodPrecipitation && rng.Float64() < floodChance {
		start(DisasterFlood, 48, 168, "rising water threatens homes and roads")
	}
	if c.WindSpeed > StormWindSpeed && rng.Float64() < stormChance {
		start(DisasterStorm, 6, 24, "a powerful storm sweeps the region")
	}
	return events, nil
}

// ResolveEvents ends disasters whose duration has passed.
func (s *Service) ResolveEvents(ctx context.Context, w *world.World) ([]engine.Event, error) {
	c := s.climate(w)

	s.mu.Lock()
	defer s.mu.Unlock()

	var events []engine.Event
	remaining := c.Disasters[:0]
	for _, d := range c.Disasters {
		if w.TotalHours < d.Ends() {
			remaining = append(remaining, d)
			continue
		}
		events = append(events, engine.NewEvent(w.ID, w.TotalHours, engine.CategoryNatural, d.Kind.String()+"_resolved",
			"the %s has ended after %d hours", d.Kind, d.Duration))
	}
	c.Disasters = remaining
	return events, nil
}

// UpdateSeasonal refreshes the season, its phase and its modifiers.
func (s *Service) UpdateSeasonal(ctx context.Context, w *world.World) error {
	c := s.climate(w)

	s.mu.Lock()
	defer s.mu.Unlock()

	if c.Season != w.Season {
		slog.Info("season changed", "world", w.ID, "season", w.Season, "climate", w.Climate)
	}
	c.Season = w.Season
	c.SeasonPhase = world.SeasonProgress(w.Day)
	c.Modifiers = world.ModifiersFor(w.Season, w.Climate)
	return nil
}
