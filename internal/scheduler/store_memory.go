package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/talgya/needs-world/internal/engine"
	"github.com/talgya/needs-world/internal/world"
)

// MemoryStore is an in-memory Store and EventSink.
type MemoryStore struct {
	mu     sync.RWMutex
	worlds map[world.WorldID]*world.World
	cfg    *Config
	events []engine.Event
}

// NewMemoryStore creates a store holding copies of the given worlds.
func NewMemoryStore(worlds ...*world.World) *MemoryStore {
	m := &MemoryStore{worlds: make(map[world.WorldID]*world.World, len(worlds))}
	for _, w := range worlds {
		m.worlds[w.ID] = w.Clone()
	}
	return m
}

func (m *MemoryStore) DueWorlds(_ context.Context, now time.Time) ([]*world.World, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var due []*world.World
	for _, w := range m.worlds {
		if w.Due(now) {
			due = append(due, w.Clone())
		}
	}
	SortByDue(due)
	return due, nil
}

func (m *MemoryStore) SaveWorld(_ context.Context, w *world.World) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.worlds[w.ID] = w.Clone()
	return nil
}

// GetWorld returns a copy of one world.
func (m *MemoryStore) GetWorld(_ context.Context, id world.WorldID) (*world.World, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.worlds[id]
	if !ok {
		return nil, fmt.Errorf("world %d: %w", id, world.ErrNotFound)
	}
	return w.Clone(), nil
}

// LoadWorlds returns copies of every world in ID order.
func (m *MemoryStore) LoadWorlds(_ context.Context) ([]*world.World, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*world.World, 0, len(m.worlds))
	for _, w := range m.worlds {
		out = append(out, w.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) LoadConfig(_ context.Context) (*Config, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cfg == nil {
		return nil, fmt.Errorf("scheduler config: %w", world.ErrNotFound)
	}
	c := *m.cfg
	return &c, nil
}

func (m *MemoryStore) SaveConfig(_ context.Context, cfg *Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *cfg
	m.cfg = &c
	return nil
}

func (m *MemoryStore) SaveEvents(_ context.Context, events []engine.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

// RecentEvents returns up to limit of the newest events for a world, newest first.
func (m *MemoryStore) RecentEvents(_ context.Context, id world.WorldID, limit int) ([]engine.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []engine.Event
	for i := len(m.events) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if m.events[i].WorldID == id {
			out = append(out, m.events[i])
		}
	}
	return out, nil
}

// SortByDue orders worlds oldest-due first, ties by ID.
func SortByDue(ws []*world.World) {
	sort.Slice(ws, func(i, j int) bool {
		if !ws[i].NextDue.Equal(ws[j].NextDue) {
			return ws[i].NextDue.Before(ws[j].NextDue)
		}
		return ws[i].ID < ws[j].ID
	})
}
