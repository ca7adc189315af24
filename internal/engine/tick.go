package engine

import (
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/talgya/needs-world/internal/agents"
	"github.com/talgya/needs-world/internal/world"
)

// TickSummary reports what happened while a world's agents were advanced.
type TickSummary struct {
	WorldID       world.WorldID `json:"world_id"`
	FromHour      uint64        `json:"from_hour"`
	ToHour        uint64        `json:"to_hour"`
	HoursAdvanced uint64        `json:"hours_advanced"`
	Movements     int           `json:"movements"`
	Departures    int           `json:"departures"`
	Actions       int           `json:"actions"`
	NeedsUnmet    int           `json:"needs_unmet"`
	Skipped       int           `json:"skipped"`
}

// Add folds another summary into this one.
func (t *TickSummary) Add(o TickSummary) {
	t.HoursAdvanced += o.HoursAdvanced
	t.Movements += o.Movements
	t.Departures += o.Departures
	t.Actions += o.Actions
	t.NeedsUnmet += o.NeedsUnmet
	t.Skipped += o.Skipped
	t.ToHour = o.ToHour
}

func (t TickSummary) String() string {
	return fmt.Sprintf("hours %d-%d: %s moves, %s actions, %s unmet",
		t.FromHour, t.ToHour, humanize.Comma(int64(t.Movements)),
		humanize.Comma(int64(t.Actions)), humanize.Comma(int64(t.NeedsUnmet)))
}

// countingEmitter forwards to the journal and counts arrivals for the summary.
type countingEmitter struct {
	*Journal
	moves int
}

func (c *countingEmitter) Moved(e agents.MovementEvent) {
	c.moves++
	c.Journal.Moved(e)
}

// stepHour advances every agent to hour. Must be called with s.mu held.
func (s *Simulation) stepHour(hour uint64, sum *TickSummary) {
	emit := &countingEmitter{Journal: &s.journal}
	for _, a := range s.Agents {
		outcome, err := s.stepAgent(a, hour, emit)
		if err != nil {
			slog.Warn("agent step skipped", "world", s.WorldID, "agent", a.ID, "hour", hour, "error", err)
			sum.Skipped++
			continue
		}
		switch outcome {
		case agents.OutcomeActed:
			sum.Actions++
		case agents.OutcomeDeparted:
			sum.Departures++
		case agents.OutcomeUnmet:
			sum.NeedsUnmet++
		}
	}
	sum.Movements += emit.moves

	if hour%world.HoursPerDay == 0 {
		s.onDay(hour)
	}
}

// stepAgent runs one agent's hour: passive decay, status expiry, then a
// decision if the agent is idle.
func (s *Simulation) stepAgent(a *agents.Agent, hour uint64, emit agents.Emitter) (agents.Outcome, error) {
	if a.LastUpdateHour >= hour {
		return agents.OutcomeNone, nil
	}
	loc, ok := s.Locations.Get(a.LocationID)
	if !ok {
		return agents.OutcomeNone, fmt.Errorf("location %d: %w", a.LocationID, world.ErrNotFound)
	}

	agents.Decay(a, loc, hour-a.LastUpdateHour)
	a.LastUpdateHour = hour
	agents.Expire(a, hour, emit)
	return agents.Decide(a, hour, s.Locations, emit), nil
}

// onDay runs once per simulated day: buildings wear down.
func (s *Simulation) onDay(hour uint64) {
	var rundown int
	for _, l := range s.Locations.All() {
		l.Wear(agents.MaintenanceWearPerDay)
		if l.Kind == world.KindHome && l.Maintenance < agents.MaintenanceThreshold {
			rundown++
		}
	}
	if rundown > 0 && hour%(world.HoursPerDay*7) == 0 {
		s.recordEvent(NewEvent(s.WorldID, hour, CategoryAgent, "housing",
			"%d homes are in need of repair", rundown))
	}
}
