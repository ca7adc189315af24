// Package weather runs each world's climate and can blend in real-world
// conditions from OpenWeatherMap, sampled at a reference city per climate zone.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/talgya/needs-world/internal/world"
)

const (
	defaultEndpoint = "https://api.openweathermap.org/data/2.5/weather"
	stationTTL      = 5 * time.Minute
	minBackoff      = time.Minute
	maxBackoff      = 10 * time.Minute
	maxBody         = 64 << 10
)

// Stations are the reference cities sampled for each climate zone when no
// single location is configured.
var Stations = map[world.ClimateZone]string{
	world.ClimateTemperate:     "London,GB",
	world.ClimateTropical:      "Singapore,SG",
	world.ClimateArid:          "Phoenix,US",
	world.ClimatePolar:         "Tromso,NO",
	world.ClimateMediterranean: "Lisbon,PT",
	world.ClimateContinental:   "Winnipeg,CA",
}

// Conditions are one observation, in the units the climate model uses.
type Conditions struct {
	Station       string  `json:"station"`
	Sky           string  `json:"sky"` // lower-cased OpenWeatherMap group, e.g. "rain"
	Description   string  `json:"description"`
	Temp          float64 `json:"temp"`          // Celsius
	Humidity      float64 `json:"humidity"`      // percent
	Precipitation float64 `json:"precipitation"` // mm/h
	WindSpeed     float64 `json:"wind_speed"`    // km/h
}

// Pattern maps an observation onto a simulation weather pattern.
func (c *Conditions) Pattern() Pattern {
	switch {
	case c.Sky == "thunderstorm" || c.WindSpeed > 54:
		return PatternStormy
	case c.Sky == "snow":
		return PatternCold
	case c.Sky == "rain" || c.Sky == "drizzle":
		return PatternRainy
	case c.Sky == "mist" || c.Sky == "fog" || c.Sky == "haze":
		return PatternFoggy
	case c.Temp > 32:
		return PatternHot
	case c.Temp < -5:
		return PatternCold
	case c.WindSpeed > 36:
		return PatternWindy
	case c.Sky == "clouds":
		return PatternCloudy
	default:
		return PatternClear
	}
}

// station is the cache and failure state of one reference city.
type station struct {
	latest    *Conditions
	fetchedAt time.Time
	failedAt  time.Time
	backoff   time.Duration
}

func (s *station) fresh(now time.Time) bool {
	return s.latest != nil && now.Sub(s.fetchedAt) < stationTTL
}

func (s *station) coolingDown(now time.Time) bool {
	return s.backoff > 0 && now.Sub(s.failedAt) < s.backoff
}

func (s *station) fail(now time.Time) {
	s.failedAt = now
	s.backoff = min(max(2*s.backoff, minBackoff), maxBackoff)
}

// Client samples OpenWeatherMap. Observations are cached per station and
// failing stations back off exponentially.
type Client struct {
	apiKey   string
	location string // overrides Stations when set
	endpoint string
	client   *http.Client
	now      func() time.Time

	mu       sync.Mutex
	stations map[string]*station
}

// NewClient creates a weather client. It returns nil if apiKey is empty.
// A non-empty location is used for every climate zone.
func NewClient(apiKey, location string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		apiKey:   apiKey,
		location: strings.TrimSpace(location),
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
		stations: make(map[string]*station),
	}
}

// StationFor returns the city sampled for a climate zone.
func (c *Client) StationFor(zone world.ClimateZone) string {
	if c.location != "" {
		return c.location
	}
	if name, ok := Stations[zone]; ok {
		return name
	}
	return Stations[world.ClimateTemperate]
}

// Observe returns current conditions for a climate zone. A stale
// observation is served while its station is failing.
func (c *Client) Observe(ctx context.Context, zone world.ClimateZone) (*Conditions, error) {
	name := c.StationFor(zone)

	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.stations[name]
	if !ok {
		st = &station{}
		c.stations[name] = st
	}
	now := c.now()
	if st.fresh(now) {
		return st.latest, nil
	}
	if st.coolingDown(now) {
		if st.latest != nil {
			return st.latest, nil
		}
		return nil, fmt.Errorf("station %s in backoff (%s remaining)", name, st.backoff-now.Sub(st.failedAt))
	}

	cond, err := c.fetch(ctx, name)
	if err != nil {
		st.fail(now)
		slog.Debug("weather station failed", "station", name, "backoff", st.backoff, "error", err)
		if st.latest != nil {
			return st.latest, nil
		}
		return nil, err
	}
	st.latest, st.fetchedAt, st.backoff = cond, now, 0
	return cond, nil
}

// owmResponse is the subset of the OpenWeatherMap current-weather payload we read.
type owmResponse struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"` // m/s
	} `json:"wind"`
	Rain struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
	Snow struct {
		OneHour float64 `json:"1h"`
	} `json:"snow"`
	Message string `json:"message"`
}

func (c *Client) fetch(ctx context.Context, name string) (*Conditions, error) {
	q := url.Values{}
	q.Set("q", name)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build weather request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather API call: %w", err)
	}
	defer resp.Body.Close()

	var owm owmResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&owm)
	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && owm.Message != "" {
			return nil, fmt.Errorf("weather API error %d: %s", resp.StatusCode, owm.Message)
		}
		return nil, fmt.Errorf("weather API error %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("parse weather: %w", decodeErr)
	}

	cond := &Conditions{
		Station:       name,
		Temp:          owm.Main.Temp,
		Humidity:      owm.Main.Humidity,
		Precipitation: owm.Rain.OneHour + owm.Snow.OneHour,
		WindSpeed:     owm.Wind.Speed * 3.6,
	}
	if len(owm.Weather) > 0 {
		cond.Sky = strings.ToLower(owm.Weather[0].Main)
		cond.Description = owm.Weather[0].Description
	}
	slog.Debug("weather observed", "station", name, "temp", cond.Temp, "sky", cond.Sky)
	return cond, nil
}
