package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/talgya/needs-world/internal/world"
)

// Registry holds the live simulations of every loaded world.
type Registry struct {
	mu   sync.RWMutex
	sims map[world.WorldID]*Simulation
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sims: make(map[world.WorldID]*Simulation)}
}

// Add registers a simulation, replacing any previous one for the same world.
func (r *Registry) Add(sim *Simulation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sims[sim.WorldID] = sim
}

// Get returns the simulation for a world.
func (r *Registry) Get(id world.WorldID) (*Simulation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sim, ok := r.sims[id]
	if !ok {
		return nil, fmt.Errorf("simulation for world %d: %w", id, world.ErrNotFound)
	}
	return sim, nil
}

// Worlds returns the IDs of all registered worlds in ascending order.
func (r *Registry) Worlds() []world.WorldID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]world.WorldID, 0, len(r.sims))
	for id := range r.sims {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TickWorld advances one world's agents by elapsed simulated hours.
func (r *Registry) TickWorld(ctx context.Context, id world.WorldID, elapsed uint64) (TickSummary, error) {
	sim, err := r.Get(id)
	if err != nil {
		return TickSummary{}, err
	}
	return sim.Tick(ctx, elapsed)
}

// WorkOutput returns the resources a world's workers produced since the
// previous call.
func (r *Registry) WorkOutput(id world.WorldID) (float64, error) {
	sim, err := r.Get(id)
	if err != nil {
		return 0, err
	}
	sim.mu.Lock()
	defer sim.mu.Unlock()
	out := sim.journal.TotalResources - sim.reported
	sim.reported = sim.journal.TotalResources
	return out, nil
}

// SaveEvents records events in memory so they can serve as an EventSink.
func (r *Registry) SaveEvents(_ context.Context, events []Event) error {
	r.RecordEvents(events)
	return nil
}

// RecordEvents appends narrative events to their worlds' in-memory history.
// Events for unknown worlds are ignored.
func (r *Registry) RecordEvents(events []Event) {
	for _, e := range events {
		sim, err := r.Get(e.WorldID)
		if err != nil {
			continue
		}
		sim.mu.Lock()
		sim.recordEvent(e)
		sim.mu.Unlock()
	}
}
