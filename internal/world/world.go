// Package world holds the world record, its calendar, and the location
// catalog agents move between.
package world

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a world, location, or agent does not exist.
var ErrNotFound = errors.New("not found")

// WorldID uniquely identifies a simulated world.
type WorldID uint64

// NarrativeSpeed controls how much simulated time one scheduler pass covers.
type NarrativeSpeed uint8

const (
	SpeedPaused NarrativeSpeed = iota
	SpeedSlow
	SpeedNormal
	SpeedFast
)

// HoursPerTick returns the simulated hours advanced by one scheduler pass.
func (s NarrativeSpeed) HoursPerTick() uint64 {
	switch s {
	case SpeedSlow:
		return 1
	case SpeedNormal:
		return 24
	case SpeedFast:
		return 168
	default:
		return 0
	}
}

// UpdateInterval returns the wall-clock delay before a world at this speed
// is due again. Paused worlds are never due.
func (s NarrativeSpeed) UpdateInterval() time.Duration {
	switch s {
	case SpeedSlow:
		return time.Hour
	case SpeedNormal:
		return time.Hour / 7
	case SpeedFast:
		return time.Hour / 30
	default:
		return 0
	}
}

func (s NarrativeSpeed) String() string {
	switch s {
	case SpeedPaused:
		return "paused"
	case SpeedSlow:
		return "slow"
	case SpeedNormal:
		return "normal"
	case SpeedFast:
		return "fast"
	default:
		return "unknown"
	}
}

// ParseSpeed converts a speed name into a NarrativeSpeed.
func ParseSpeed(name string) (NarrativeSpeed, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "paused":
		return SpeedPaused, nil
	case "slow":
		return SpeedSlow, nil
	case "normal", "":
		return SpeedNormal, nil
	case "fast":
		return SpeedFast, nil
	}
	return SpeedPaused, fmt.Errorf("unknown narrative speed %q", name)
}

// World is one independent simulated world.
type World struct {
	ID          WorldID        `json:"id" db:"id"`
	Name        string         `json:"name" db:"name"`
	Active      bool           `json:"active" db:"active"`
	Speed       NarrativeSpeed `json:"speed" db:"speed"`
	Climate     ClimateZone    `json:"climate" db:"climate"`
	Population  uint32         `json:"population" db:"population"`
	TotalHours  uint64         `json:"total_hours" db:"total_hours"`
	Day         uint16         `json:"day" db:"day"`
	Cycle       uint32         `json:"cycle" db:"cycle"`
	Season      Season         `json:"season" db:"season"`
	LastUpdate  time.Time      `json:"last_update" db:"-"`
	NextDue     time.Time      `json:"next_due" db:"-"`
	Seed        int64          `json:"seed" db:"seed"`
	CreatedHour uint64         `json:"created_hour" db:"created_hour"`
}

// Due reports whether the world should be picked up by a scheduler pass.
func (w *World) Due(now time.Time) bool {
	return w.Active && w.Speed != SpeedPaused && !w.NextDue.After(now)
}

// Advance moves simulated time forward, recomputes the calendar, and
// schedules the next update relative to now.
func (w *World) Advance(hours uint64, now time.Time) {
	w.TotalHours += hours
	w.Day, w.Cycle, w.Season = CalendarAt(w.TotalHours)
	w.LastUpdate = now
	w.NextDue = now.Add(w.Speed.UpdateInterval())
}

// CrossedDay reports whether the most recent advance of hours reached or
// passed the start of a new day.
func (w *World) CrossedDay(hours uint64) bool {
	if hours == 0 {
		return false
	}
	hours = min(hours, w.TotalHours)
	return (w.TotalHours-hours)/HoursPerDay != w.TotalHours/HoursPerDay
}

// Clone returns a copy safe to hand to another goroutine.
func (w *World) Clone() *World {
	c := *w
	return &c
}

func (w *World) String() string {
	return fmt.Sprintf("%s (#%d, cycle %d day %d, %s)", w.Name, w.ID, w.Cycle, w.Day, w.Season)
}
