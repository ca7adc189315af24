package world

import (
	"fmt"
	"strings"
)

const (
	HoursPerDay    = 24
	DaysPerCycle   = 360
	DaysPerSeason  = 90
	SeasonsPerYear = 4
)

// Season of the simulation year.
type Season uint8

const (
	SeasonSpring Season = iota
	SeasonSummer
	SeasonAutumn
	SeasonWinter
)

func (s Season) String() string {
	switch s {
	case SeasonSpring:
		return "Spring"
	case SeasonSummer:
		return "Summer"
	case SeasonAutumn:
		return "Autumn"
	case SeasonWinter:
		return "Winter"
	default:
		return "Unknown"
	}
}

// SeasonForDay maps a 1-based day of the cycle onto its season.
func SeasonForDay(day uint16) Season {
	if day == 0 {
		return SeasonSpring
	}
	return Season(((int(day) - 1) / DaysPerSeason) % SeasonsPerYear)
}

// SeasonProgress returns how far through its season the given day is, in [0, 1).
func SeasonProgress(day uint16) float64 {
	if day == 0 {
		return 0
	}
	return float64((int(day)-1)%DaysPerSeason) / DaysPerSeason
}

// CalendarAt derives day-of-cycle, cycle, and season from total simulated hours.
func CalendarAt(totalHours uint64) (day uint16, cycle uint32, season Season) {
	totalDays := totalHours / HoursPerDay
	day = uint16(totalDays%DaysPerCycle) + 1
	cycle = uint32(totalDays / DaysPerCycle)
	return day, cycle, SeasonForDay(day)
}

// ClimateZone is the broad climate of a world.
type ClimateZone uint8

const (
	ClimateTemperate ClimateZone = iota
	ClimateTropical
	ClimateArid
	ClimatePolar
	ClimateMediterranean
	ClimateContinental
)

func (z ClimateZone) String() string {
	switch z {
	case ClimateTemperate:
		return "temperate"
	case ClimateTropical:
		return "tropical"
	case ClimateArid:
		return "arid"
	case ClimatePolar:
		return "polar"
	case ClimateMediterranean:
		return "mediterranean"
	case ClimateContinental:
		return "continental"
	default:
		return "unknown"
	}
}

// ParseClimate converts a climate name into a ClimateZone.
func ParseClimate(name string) (ClimateZone, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "temperate", "":
		return ClimateTemperate, nil
	case "tropical":
		return ClimateTropical, nil
	case "arid", "desert":
		return ClimateArid, nil
	case "polar", "arctic":
		return ClimatePolar, nil
	case "mediterranean":
		return ClimateMediterranean, nil
	case "continental":
		return ClimateContinental, nil
	}
	return ClimateTemperate, fmt.Errorf("unknown climate zone %q", name)
}

// BaseTemperature returns the annual mean temperature (Celsius) for a zone.
func (z ClimateZone) BaseTemperature() float64 {
	switch z {
	case ClimateTropical:
		return 27
	case ClimateArid:
		return 30
	case ClimatePolar:
		return -10
	case ClimateMediterranean:
		return 18
	case ClimateContinental:
		return 8
	default:
		return 15
	}
}

// SeasonalModifiers describe how a season shifts climate and activity.
type SeasonalModifiers struct {
	TemperatureShift float64 `json:"temperature_shift"`
	Precipitation    float64 `json:"precipitation"`
	Agriculture      float64 `json:"agriculture"`
	Energy           float64 `json:"energy"`
	Social           float64 `json:"social"`
}

// ModifiersFor returns seasonal modifiers for a season in a climate zone.
func ModifiersFor(season Season, zone ClimateZone) SeasonalModifiers {
	m := SeasonalModifiers{Precipitation: 1, Agriculture: 1, Energy: 1, Social: 1}

	switch season {
	case SeasonSpring:
		m.TemperatureShift = 0
		m.Precipitation = 1.2
		m.Agriculture = 1.2
		m.Social = 1.1
	case SeasonSummer:
		m.TemperatureShift = 8
		m.Precipitation = 0.8
		m.Agriculture = 1.3
		m.Energy = 1.2
		m.Social = 1.2
	case SeasonAutumn:
		m.TemperatureShift = -2
		m.Agriculture = 1.4
	case SeasonWinter:
		m.TemperatureShift = -10
		m.Precipitation = 1.1
		m.Agriculture = 0.5
		m.Energy = 1.5
		m.Social = 0.9
	}

	switch zone {
	case ClimateTropical:
		// Wet and dry seasons instead of hot and cold.
		m.TemperatureShift *= 0.2
		if season == SeasonSummer || season == SeasonAutumn {
			m.Precipitation *= 1.8
		}
	case ClimateArid:
		m.Precipitation *= 0.2
		m.Agriculture *= 0.6
	case ClimatePolar:
		m.TemperatureShift *= 1.5
		m.Agriculture *= 0.3
	case ClimateMediterranean:
		m.TemperatureShift *= 0.7
		if season == SeasonSummer {
			m.Precipitation *= 0.4
		}
	case ClimateContinental:
		m.TemperatureShift *= 1.3
	}
	return m
}
