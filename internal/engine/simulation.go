// Simulation owns one world's agents and locations and steps them through
// simulated hours. All mutation goes through the simulation's lock, so a
// world is only ever advanced by one caller at a time.
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/talgya/needs-world/internal/agents"
	"github.com/talgya/needs-world/internal/world"
)

// maxEvents caps the narrative events kept in memory per world.
const maxEvents = 500

// Simulation holds the complete agent state of one world.
type Simulation struct {
	mu sync.Mutex

	WorldID    world.WorldID
	Hour       uint64 // Most recent hour processed
	Agents     []*agents.Agent
	AgentIndex map[agents.AgentID]*agents.Agent
	Locations  *world.Catalog
	Events     []Event // Recent narrative events

	journal  Journal
	reported float64 // resources already handed to WorkOutput
	Stats    SimStats
}

// SimStats tracks aggregate world statistics.
type SimStats struct {
	Population     int     `json:"population"`
	Idle           int     `json:"idle"`
	InTransit      int     `json:"in_transit"`
	AvgFood        float64 `json:"avg_food"`
	AvgRest        float64 `json:"avg_rest"`
	AvgIncome      float64 `json:"avg_income"`
	AvgStress      float64 `json:"avg_stress"`
	Tier2Active    int     `json:"tier2_active"`
	Tier5Active    int     `json:"tier5_active"`
	LastTickMoves  int     `json:"last_tick_moves"`
	LastTickUnmet  int     `json:"last_tick_unmet"`
	LastTickAction int     `json:"last_tick_actions"`
}

// NewSimulation creates a Simulation for a world at the given hour.
func NewSimulation(worldID world.WorldID, hour uint64, ag []*agents.Agent, locs *world.Catalog) *Simulation {
	if locs == nil {
		locs = world.NewCatalog(nil)
	}
	index := make(map[agents.AgentID]*agents.Agent, len(ag))
	for _, a := range ag {
		index[a.ID] = a
	}
	sim := &Simulation{
		WorldID:    worldID,
		Hour:       hour,
		Agents:     ag,
		AgentIndex: index,
		Locations:  locs,
	}
	sim.updateStats()
	return sim
}

// AddAgent places a new agent into the world.
func (s *Simulation) AddAgent(a *agents.Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Agents = append(s.Agents, a)
	s.AgentIndex[a.ID] = a
}

// Agent returns a copy of one agent.
func (s *Simulation) Agent(id agents.AgentID) (*agents.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.AgentIndex[id]
	if !ok {
		return nil, fmt.Errorf("agent %d: %w", id, world.ErrNotFound)
	}
	return a.Clone(), nil
}

// Snapshot is a consistent copy of a world's state.
type Snapshot struct {
	WorldID   world.WorldID     `json:"world_id"`
	Hour      uint64            `json:"hour"`
	Agents    []*agents.Agent   `json:"agents"`
	Locations []*world.Location `json:"locations"`
	Stats     SimStats          `json:"stats"`
}

// Snapshot copies the world's agents and locations under the lock.
func (s *Simulation) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{WorldID: s.WorldID, Hour: s.Hour, Stats: s.Stats}
	snap.Agents = make([]*agents.Agent, len(s.Agents))
	for i, a := range s.Agents {
		snap.Agents[i] = a.Clone()
	}
	for _, l := range s.Locations.All() {
		c := *l
		snap.Locations = append(snap.Locations, &c)
	}
	return snap
}

// RecentEvents returns up to limit of the newest narrative events.
func (s *Simulation) RecentEvents(limit int) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.Events) {
		limit = len(s.Events)
	}
	out := make([]Event, limit)
	copy(out, s.Events[len(s.Events)-limit:])
	return out
}

// DrainJournal hands over the domain events buffered since the last drain.
func (s *Simulation) DrainJournal() Journal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.journal.drain()
}

// Tick advances every agent by elapsed simulated hours, one hour at a time.
// A cancelled context stops the tick between hours; the summary covers the
// hours that completed.
func (s *Simulation) Tick(ctx context.Context, elapsed uint64) (TickSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := TickSummary{WorldID: s.WorldID, FromHour: s.Hour, ToHour: s.Hour}
	for i := uint64(0); i < elapsed; i++ {
		if err := ctx.Err(); err != nil {
			return sum, fmt.Errorf("tick world %d at hour %d: %w", s.WorldID, s.Hour, err)
		}
		s.stepHour(s.Hour+1, &sum)
		s.Hour++
		sum.ToHour = s.Hour
		sum.HoursAdvanced++
	}

	s.Stats.LastTickMoves = sum.Movements
	s.Stats.LastTickUnmet = sum.NeedsUnmet
	s.Stats.LastTickAction = sum.Actions
	s.updateStats()
	return sum, nil
}

func (s *Simulation) recordEvent(e Event) {
	if len(s.Events) >= maxEvents {
		s.Events = s.Events[1:]
	}
	s.Events = append(s.Events, e)
}

func (s *Simulation) updateStats() {
	st := SimStats{
		Population:     len(s.Agents),
		LastTickMoves:  s.Stats.LastTickMoves,
		LastTickUnmet:  s.Stats.LastTickUnmet,
		LastTickAction: s.Stats.LastTickAction,
	}
	if len(s.Agents) == 0 {
		s.Stats = st
		return
	}
	for _, a := range s.Agents {
		switch a.Status.Kind {
		case agents.StatusIdle:
			st.Idle++
		case agents.StatusInTransit:
			st.InTransit++
		}
		st.AvgFood += a.Needs.FoodWater
		st.AvgRest += a.Needs.Rest
		st.AvgIncome += a.Needs.Income
		st.AvgStress += a.Needs.Stress
		if ok, _ := a.Needs.TierActive(agents.TierSafety); ok {
			st.Tier2Active++
		}
		if ok, _ := a.Needs.TierActive(agents.TierSelfActualization); ok {
			st.Tier5Active++
		}
	}
	n := float64(len(s.Agents))
	st.AvgFood /= n
	st.AvgRest /= n
	st.AvgIncome /= n
	st.AvgStress /= n
	s.Stats = st
}
