package social

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/talgya/needs-world/internal/engine"
	"github.com/talgya/needs-world/internal/entropy"
	"github.com/talgya/needs-world/internal/world"
)

// EventKind is the type of a political event.
type EventKind uint8

const (
	EventElection EventKind = iota
	EventCoup
	EventScandal
	EventReform
	EventWar
	EventTreaty
)

var eventNames = [...]string{
	EventElection: "election",
	EventCoup:     "coup",
	EventScandal:  "scandal",
	EventReform:   "reform",
	EventWar:      "war",
	EventTreaty:   "treaty",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "unknown"
}

// Duration is how many simulated hours an event of this kind runs.
func (k EventKind) Duration() uint64 {
	switch k {
	case EventElection:
		return 168
	case EventWar:
		return 720
	case EventTreaty:
		return 72
	case EventCoup:
		return 24
	default:
		return 48
	}
}

// PoliticalEvent is an ongoing political development.
type PoliticalEvent struct {
	Kind          EventKind  `json:"kind"`
	Primary       FactionID  `json:"primary"`
	Secondary     *FactionID `json:"secondary,omitempty"`
	StartHour     uint64     `json:"start_hour"`
	SuccessChance float64    `json:"success_chance"`
	Description   string     `json:"description"`
}

// Ends returns the hour the event resolves.
func (e PoliticalEvent) Ends() uint64 {
	return e.StartHour + e.Kind.Duration()
}

// Event probabilities per update.
const (
	electionChance = 0.02
	coupChance     = 0.01
	scandalChance  = 0.015
	reformChance   = 0.02
	warChance      = 0.005
	treatyChance   = 0.01
)

type polity struct {
	mu       sync.Mutex
	factions []*Faction
	ongoing  []PoliticalEvent
}

// Service runs the politics of every world.
type Service struct {
	streams *entropy.Streams
	// critical decides the outcome of coups and wars.
	critical entropy.Source

	mu       sync.Mutex
	polities map[world.WorldID]*polity
}

// NewService creates the political subsystem. critical may be nil, in
// which case the world's own stream decides every outcome.
func NewService(streams *entropy.Streams, critical entropy.Source) *Service {
	return &Service{
		streams:  streams,
		critical: critical,
		polities: make(map[world.WorldID]*polity),
	}
}

func (s *Service) polity(w *world.World) *polity {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.polities[w.ID]
	if !ok {
		p = &polity{factions: SeedFactions(w.Population)}
		rng := s.streams.For(w.ID)
		for i, a := range p.factions {
			for _, b := range p.factions[i+1:] {
				rel := rng.Float64()*160 - 80
				a.Relations[b.ID] = rel
				b.Relations[a.ID] = rel
			}
		}
		s.polities[w.ID] = p
	}
	return p
}

// Factions returns a copy of a world's factions.
func (s *Service) Factions(w *world.World) []*Faction {
	p := s.polity(w)
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Faction, len(p.factions))
	for i, f := range p.factions {
		out[i] = f.clone()
	}
	return out
}

// Ongoing returns the unresolved political events of a world.
func (s *Service) Ongoing(w *world.World) []PoliticalEvent {
	p := s.polity(w)
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PoliticalEvent(nil), p.ongoing...)
}

// UpdateFactions drifts every faction's influence, treasury, and stability.
func (s *Service) UpdateFactions(ctx context.Context, w *world.World) error {
	p := s.polity(w)
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, f := range p.factions {
		f.Drift()
	}
	return nil
}

// GenerateEvents rolls for new political events.
func (s *Service) GenerateEvents(ctx context.Context, w *world.World) ([]engine.Event, error) {
	p := s.polity(w)
	p.mu.Lock()
	defer p.mu.Unlock()

	rng := s.streams.For(w.ID)
	hour := w.TotalHours
	var events []engine.Event
	start := func(kind EventKind, primary *Faction, secondary *Faction, format string, args ...any) {
		pe := PoliticalEvent{
			Kind:          kind,
			Primary:       primary.ID,
			StartHour:     hour,
			SuccessChance: 0.5,
			Description:   fmt.Sprintf(format, args...),
		}
		if secondary != nil {
			id := secondary.ID
			pe.Secondary = &id
		}
		p.ongoing = append(p.ongoing, pe)
		events = append(events, engine.NewEvent(w.ID, hour, engine.CategoryPolitical, kind.String(), "%s", pe.Description))
	}

	for _, f := range p.factions {
		roll := rng.Float64()
		if f.Kind == FactionPolitical && roll < electionChance {
			start(EventElection, f, nil, "%s calls an election in %s", f.Name, w.Name)
		}
		if f.Stability < 30 && roll < coupChance {
			start(EventCoup, f, nil, "a faction of %s attempts a coup", f.Name)
		}
		if f.Influence > 70 && roll < scandalChance {
			start(EventScandal, f, nil, "scandal engulfs %s", f.Name)
		}
		if f.Ideology == IdeologyDemocratic && f.PublicSupport > 60 && roll < reformChance {
			start(EventReform, f, nil, "%s pushes sweeping reforms", f.Name)
		}
	}

	for i, a := range p.factions {
		for _, b := range p.factions[i+1:] {
			roll := rng.Float64()
			rel := a.Relations[b.ID]
			if rel < -70 && !s.atWar(p, a.ID, b.ID) && roll < warChance {
				start(EventWar, a, b, "war breaks out between %s and %s", a.Name, b.Name)
			}
			if rel > 50 && !a.Treaties[b.ID] && roll < treatyChance {
				start(EventTreaty, a, b, "%s and %s open treaty negotiations", a.Name, b.Name)
			}
		}
	}

	if len(events) > 0 {
		slog.Debug("political events generated", "world", w.ID, "count", len(events))
	}
	return events, nil
}

func (s *Service) atWar(p *polity, a, b FactionID) bool {
	for _, e := range p.ongoing {
		if e.Kind != EventWar || e.Secondary == nil {
			continue
		}
		if (e.Primary == a && *e.Secondary == b) || (e.Primary == b && *e.Secondary == a) {
			return true
		}
	}
	return false
}

// ResolveEvents settles every event whose duration has passed.
func (s *Service) ResolveEvents(ctx context.Context, w *world.World) ([]engine.Event, error) {
	p := s.polity(w)
	p.mu.Lock()
	defer p.mu.Unlock()

	rng := s.streams.For(w.ID)
	hour := w.TotalHours
	var events []engine.Event
	remaining := p.ongoing[:0]
	for _, e := range p.ongoing {
		if hour < e.Ends() {
			remaining = append(remaining, e)
			continue
		}
		roll := rng.Float64()
		if (e.Kind == EventCoup || e.Kind == EventWar) && s.critical != nil {
			roll = s.critical.Float64()
		}
		success := roll < e.SuccessChance
		desc := p.resolve(e, success)
		events = append(events, engine.NewEvent(w.ID, hour, engine.CategoryPolitical, e.Kind.String()+"_resolved", "%s", desc))
	}
	p.ongoing = remaining
	return events, nil
}

func (p *polity) faction(id FactionID) *Faction {
	for _, f := range p.factions {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// resolve applies an event's consequences and describes the outcome.
func (p *polity) resolve(e PoliticalEvent, success bool) string {
	f := p.faction(e.Primary)
	if f == nil {
		return e.Description + ": fizzles out"
	}
	var other *Faction
	if e.Secondary != nil {
		other = p.faction(*e.Secondary)
	}

	switch e.Kind {
	case EventElection:
		if success {
			f.PublicSupport = clamp100(f.PublicSupport + 20)
			f.Influence = clamp100(f.Influence + 10)
			return fmt.Sprintf("%s wins the election", f.Name)
		}
		return fmt.Sprintf("%s loses the election", f.Name)

	case EventCoup:
		if success {
			f.Influence = clamp100(f.Influence + 30)
			f.Stability = clamp100(f.Stability - 40)
			f.PublicSupport = clamp100(f.PublicSupport - 25)
			return fmt.Sprintf("the coup by %s succeeds", f.Name)
		}
		f.Influence = clamp100(f.Influence - 20)
		f.Stability = clamp100(f.Stability - 20)
		f.PublicSupport = clamp100(f.PublicSupport - 30)
		return fmt.Sprintf("the coup by %s is crushed", f.Name)

	case EventWar:
		if other == nil {
			return e.Description + ": fizzles out"
		}
		winner, loser := f, other
		if !success {
			winner, loser = other, f
		}
		winner.Influence = clamp100(winner.Influence + 25)
		winner.Treasury = math.Max(0, winner.Treasury-5000)
		loser.Influence = clamp100(loser.Influence - 30)
		loser.Treasury = math.Max(0, loser.Treasury-10000)
		setRelation(winner, loser, -50)
		return fmt.Sprintf("%s defeats %s", winner.Name, loser.Name)

	case EventTreaty:
		if other == nil {
			return e.Description + ": fizzles out"
		}
		if success {
			f.Treaties[other.ID] = true
			other.Treaties[f.ID] = true
			setRelation(f, other, math.Min(100, f.Relations[other.ID]+20))
			return fmt.Sprintf("%s and %s sign a treaty", f.Name, other.Name)
		}
		setRelation(f, other, f.Relations[other.ID]-10)
		return fmt.Sprintf("treaty talks between %s and %s collapse", f.Name, other.Name)
	}

	if success {
		f.Influence = clamp100(f.Influence + 5)
		return fmt.Sprintf("%s: %s prevails", e.Kind, f.Name)
	}
	f.Influence = clamp100(f.Influence - 3)
	return fmt.Sprintf("%s: %s is weakened", e.Kind, f.Name)
}

func setRelation(a, b *Faction, v float64) {
	v = math.Max(-100, math.Min(100, v))
	a.Relations[b.ID] = v
	b.Relations[a.ID] = v
}
