// Package economy provides per-world markets: supply and demand derived
// from population and production, prices from their ratio, and the
// events that large price swings produce.
package economy

import (
	"math"
	"sync"
)

// Resource is a traded resource class.
type Resource uint8

const (
	ResourceFood Resource = iota
	ResourceRawMaterials
	ResourceProcessedGoods
	ResourceLuxury
	ResourceKnowledge
	ResourceEnergy
	ResourceMilitary
)

// AllResources lists every resource in declaration order.
var AllResources = []Resource{
	ResourceFood, ResourceRawMaterials, ResourceProcessedGoods,
	ResourceLuxury, ResourceKnowledge, ResourceEnergy, ResourceMilitary,
}

var resourceNames = [...]string{
	ResourceFood:           "food",
	ResourceRawMaterials:   "raw materials",
	ResourceProcessedGoods: "processed goods",
	ResourceLuxury:         "luxury goods",
	ResourceKnowledge:      "knowledge",
	ResourceEnergy:         "energy",
	ResourceMilitary:       "military supplies",
}

func (r Resource) String() string {
	if int(r) < len(resourceNames) {
		return resourceNames[r]
	}
	return "unknown"
}

// BasePrice is the reference price of a resource.
func (r Resource) BasePrice() float64 {
	switch r {
	case ResourceFood:
		return 10
	case ResourceRawMaterials:
		return 20
	case ResourceProcessedGoods:
		return 50
	case ResourceLuxury:
		return 200
	case ResourceKnowledge:
		return 100
	case ResourceEnergy:
		return 30
	case ResourceMilitary:
		return 500
	}
	return 1
}

// demandPerCapita and supplyShare shape how population and production
// capacity translate into demand and supply.
func (r Resource) demandPerCapita() float64 {
	switch r {
	case ResourceFood:
		return 1.5
	case ResourceRawMaterials:
		return 0.8
	case ResourceProcessedGoods:
		return 0.6
	case ResourceLuxury:
		return 0.2
	case ResourceKnowledge:
		return 0.1
	case ResourceEnergy:
		return 1.0
	case ResourceMilitary:
		return 0.05
	}
	return 0
}

func (r Resource) supplyShare() float64 {
	switch r {
	case ResourceFood:
		return 1.0
	case ResourceRawMaterials:
		return 0.8
	case ResourceProcessedGoods:
		return 0.6
	case ResourceLuxury:
		return 0.3
	case ResourceKnowledge:
		return 0.2
	case ResourceEnergy:
		return 0.9
	case ResourceMilitary:
		return 0.1
	}
	return 0
}

// SupplyDemand returns the supply and demand of a resource for a
// population with the given production capacity.
func SupplyDemand(population uint32, capacity float64, r Resource) (supply, demand float64) {
	return capacity * r.supplyShare(), float64(population) * r.demandPerCapita()
}

// Price computes a price from supply and demand:
// base × (demand/supply)^volatility, kept within [0.1×, 10×] of base.
func Price(supply, demand, base, volatility float64) float64 {
	if supply <= 0 {
		return base * 10
	}
	p := base * math.Pow(demand/supply, volatility)
	return math.Max(base*0.1, math.Min(base*10, p))
}

// historyLen is how many past prices each entry keeps.
const historyLen = 10

// MarketEntry is the state of one resource in one world.
type MarketEntry struct {
	Resource   Resource  `json:"resource"`
	Supply     float64   `json:"supply"`
	Demand     float64   `json:"demand"`
	Price      float64   `json:"price"`
	Volatility float64   `json:"volatility"`
	History    []float64 `json:"history"`

	shortage      bool
	lastSwingHour uint64
	swung         bool
}

func (e *MarketEntry) record(price float64) {
	e.Price = price
	e.History = append(e.History, price)
	if len(e.History) > historyLen {
		e.History = e.History[len(e.History)-historyLen:]
	}
}

// Swing compares the newest three prices with the oldest three and
// returns their ratio, or 1 when there is not enough history.
func (e *MarketEntry) Swing() float64 {
	if len(e.History) < 3 {
		return 1
	}
	var recent, older float64
	for i := 0; i < 3; i++ {
		older += e.History[i]
		recent += e.History[len(e.History)-1-i]
	}
	if older == 0 {
		return 1
	}
	return recent / older
}

// Market holds every resource entry of one world.
type Market struct {
	mu sync.Mutex

	Entries        []*MarketEntry `json:"entries"`
	LastUpdateHour uint64         `json:"last_update_hour"`
}

// NewMarket creates a market with every resource at its base price.
func NewMarket() *Market {
	m := &Market{}
	for _, r := range AllResources {
		m.Entries = append(m.Entries, &MarketEntry{
			Resource:   r,
			Supply:     1,
			Demand:     1,
			Price:      r.BasePrice(),
			Volatility: 0.5,
			History:    []float64{r.BasePrice()},
		})
	}
	return m
}

// Entry returns the entry of a resource.
func (m *Market) Entry(r Resource) *MarketEntry {
	for _, e := range m.Entries {
		if e.Resource == r {
			return e
		}
	}
	return nil
}

func (m *Market) clone() *Market {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &Market{LastUpdateHour: m.LastUpdateHour}
	for _, e := range m.Entries {
		ec := *e
		ec.History = append([]float64(nil), e.History...)
		c.Entries = append(c.Entries, &ec)
	}
	return c
}
