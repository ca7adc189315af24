package economy

import (
	"context"
	"log/slog"
	"sync"

	"github.com/talgya/needs-world/internal/engine"
	"github.com/talgya/needs-world/internal/entropy"
	"github.com/talgya/needs-world/internal/world"
)

// Event thresholds.
const (
	boomRatio      = 2.0
	crashRatio     = 0.5
	shortageRatio  = 0.5
	swingCooldownH = 24
	baseCapacity   = 100.0
)

// OutputSource reports what a world's workers produced since it was last asked.
type OutputSource interface {
	WorkOutput(id world.WorldID) (float64, error)
}

// Service runs the markets of every world.
type Service struct {
	streams *entropy.Streams
	output  OutputSource

	mu      sync.Mutex
	markets map[world.WorldID]*Market
}

// NewService creates the economy. output may be nil.
func NewService(streams *entropy.Streams, output OutputSource) *Service {
	return &Service{
		streams: streams,
		output:  output,
		markets: make(map[world.WorldID]*Market),
	}
}

func (s *Service) market(id world.WorldID) *Market {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.markets[id]
	if !ok {
		m = NewMarket()
		s.markets[id] = m
	}
	return m
}

// Snapshot returns a copy of a world's market.
func (s *Service) Snapshot(id world.WorldID) *Market {
	return s.market(id).clone()
}

// UpdateMarkets recomputes supply, demand, and price for every resource.
func (s *Service) UpdateMarkets(ctx context.Context, w *world.World) error {
	m := s.market(w.ID)
	rng := s.streams.For(w.ID)
	mods := world.ModifiersFor(w.Season, w.Climate)

	var produced float64
	if s.output != nil {
		out, err := s.output.WorkOutput(w.ID)
		if err != nil {
			slog.Debug("work output unavailable", "world", w.ID, "error", err)
		}
		produced = out
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	pop := w.Population
	if pop == 0 {
		pop = 1
	}
	for _, e := range m.Entries {
		capacity := baseCapacity * (0.6 + rng.Float64()*0.8)
		switch e.Resource {
		case ResourceFood:
			capacity *= mods.Agriculture
		case ResourceEnergy:
			capacity /= mods.Energy
		case ResourceProcessedGoods:
			capacity += produced
		}
		e.Supply, e.Demand = SupplyDemand(pop, capacity, e.Resource)
		e.record(Price(e.Supply, e.Demand, e.Resource.BasePrice(), e.Volatility))
	}
	m.LastUpdateHour = w.TotalHours
	return nil
}

// GenerateEvents reports booms, crashes, and new shortages.
func (s *Service) GenerateEvents(ctx context.Context, w *world.World) ([]engine.Event, error) {
	m := s.market(w.ID)
	m.mu.Lock()
	defer m.mu.Unlock()
	hour := w.TotalHours

	var events []engine.Event
	for _, e := range m.Entries {
		if !e.swung || hour-e.lastSwingHour >= swingCooldownH {
			switch swing := e.Swing(); {
			case swing > boomRatio:
				events = append(events, engine.NewEvent(w.ID, hour, engine.CategoryEconomic, "market_boom",
					"%s prices soar in %s", e.Resource, w.Name))
				e.swung, e.lastSwingHour = true, hour
			case swing < crashRatio:
				events = append(events, engine.NewEvent(w.ID, hour, engine.CategoryEconomic, "market_crash",
					"the %s market crashes in %s", e.Resource, w.Name))
				e.swung, e.lastSwingHour = true, hour
			}
		}

		short := e.Supply < e.Demand*shortageRatio
		if short && !e.shortage {
			events = append(events, engine.NewEvent(w.ID, hour, engine.CategoryEconomic, "shortage",
				"critical shortage of %s in %s", e.Resource, w.Name))
		}
		e.shortage = short
	}
	return events, nil
}
