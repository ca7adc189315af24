package world

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// LocationID uniquely identifies a location across all worlds.
type LocationID uint64

// Point is a position on the world plane.
type Point struct {
	X float64 `json:"x" db:"x"`
	Y float64 `json:"y" db:"y"`
}

// Distance is the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// TravelHours converts a distance into whole simulated hours of travel.
// Every trip takes at least one hour.
func TravelHours(distance float64) uint64 {
	h := uint64(math.Ceil(distance / 10))
	if h < 1 {
		h = 1
	}
	return h
}

// LocationKind is the building type of a location.
type LocationKind uint8

const (
	KindHome LocationKind = iota
	KindWorkplace
	KindRestaurant
	KindPark
	KindHospital
	KindPoliceStation
	KindSchool
	KindResearchLab
	KindCultureCenter
	KindCityHall
)

var kindNames = map[LocationKind]string{
	KindHome:          "home",
	KindWorkplace:     "workplace",
	KindRestaurant:    "restaurant",
	KindPark:          "park",
	KindHospital:      "hospital",
	KindPoliceStation: "police_station",
	KindSchool:        "school",
	KindResearchLab:   "research_lab",
	KindCultureCenter: "culture_center",
	KindCityHall:      "city_hall",
}

func (k LocationKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Capabilities lists the services a location provides.
type Capabilities struct {
	Food       bool `json:"food"`
	Rest       bool `json:"rest"`
	Social     bool `json:"social"`
	Facilities bool `json:"facilities"`
	Healthcare bool `json:"healthcare"`
	Culture    bool `json:"culture"`
	Education  bool `json:"education"`
	Work       bool `json:"work"`

	// EnvironmentalQuality ranges from -3 (hazardous) to 2 (restorative).
	EnvironmentalQuality float64 `json:"environmental_quality"`
}

// Safe reports whether the location counts as a sheltered place.
func (c Capabilities) Safe() bool {
	return c.Healthcare || c.Rest
}

// Hazardous reports whether the location harms the people in it.
func (c Capabilities) Hazardous() bool {
	return c.EnvironmentalQuality < -1
}

// DefaultCapabilities returns the services a building of the given kind
// provides, with neutral environmental quality.
func DefaultCapabilities(kind LocationKind) Capabilities {
	switch kind {
	case KindHome:
		return Capabilities{Rest: true, Facilities: true}
	case KindWorkplace:
		return Capabilities{Work: true, Facilities: true}
	case KindRestaurant:
		return Capabilities{Food: true, Social: true, Facilities: true}
	case KindPark:
		return Capabilities{Social: true, EnvironmentalQuality: 1}
	case KindHospital:
		return Capabilities{Healthcare: true, Facilities: true, Work: true}
	case KindPoliceStation:
		return Capabilities{Work: true}
	case KindSchool:
		return Capabilities{Education: true, Work: true}
	case KindResearchLab:
		return Capabilities{Education: true, Work: true}
	case KindCultureCenter:
		return Capabilities{Culture: true, Social: true, Facilities: true}
	case KindCityHall:
		return Capabilities{Facilities: true, Work: true}
	}
	return Capabilities{}
}

// DefaultCapacity returns a typical occupancy limit for a building kind.
func DefaultCapacity(kind LocationKind) uint32 {
	switch kind {
	case KindHome:
		return 4
	case KindRestaurant:
		return 20
	case KindPark:
		return 50
	case KindHospital:
		return 40
	case KindSchool:
		return 60
	case KindCultureCenter:
		return 40
	case KindPoliceStation:
		return 15
	default:
		return 30
	}
}

// Location is a place agents can occupy.
type Location struct {
	ID       LocationID   `json:"id" db:"id"`
	WorldID  WorldID      `json:"world_id" db:"world_id"`
	Name     string       `json:"name" db:"name"`
	Kind     LocationKind `json:"kind" db:"kind"`
	Position Point        `json:"position"`
	Capabilities

	Occupants   uint32  `json:"occupants" db:"occupants"`
	Capacity    uint32  `json:"capacity" db:"capacity"`
	Prestige    uint8   `json:"prestige" db:"prestige"`
	Maintenance float64 `json:"maintenance" db:"maintenance"`
}

// Full reports whether the location is at or above capacity.
func (l *Location) Full() bool {
	return l.Occupants >= l.Capacity
}

// Enter adds one occupant.
func (l *Location) Enter() {
	l.Occupants++
}

// Leave removes one occupant, never going below zero.
func (l *Location) Leave() {
	if l.Occupants > 0 {
		l.Occupants--
	}
}

// Maintain raises maintenance by amount, capped at 100.
func (l *Location) Maintain(amount float64) float64 {
	before := l.Maintenance
	l.Maintenance = math.Min(100, l.Maintenance+amount)
	return l.Maintenance - before
}

// Wear lowers maintenance by amount, never below zero.
func (l *Location) Wear(amount float64) {
	l.Maintenance = math.Max(0, l.Maintenance-amount)
}

func (l *Location) String() string {
	return fmt.Sprintf("%s #%d (%s)", l.Name, l.ID, l.Kind)
}

// Catalog indexes the locations of one world.
// Reads and occupancy updates are serialised by the owning simulation;
// the catalog's own lock only guards its index.
type Catalog struct {
	mu    sync.RWMutex
	byID  map[LocationID]*Location
	order []*Location
}

// NewCatalog builds a catalog from a list of locations.
func NewCatalog(locs []*Location) *Catalog {
	c := &Catalog{byID: make(map[LocationID]*Location, len(locs))}
	for _, l := range locs {
		c.byID[l.ID] = l
		c.order = append(c.order, l)
	}
	sort.Slice(c.order, func(i, j int) bool { return c.order[i].ID < c.order[j].ID })
	return c
}

// Get looks up a location by ID.
func (c *Catalog) Get(id LocationID) (*Location, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.byID[id]
	return l, ok
}

// All returns every location in ascending ID order.
func (c *Catalog) All() []*Location {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Location, len(c.order))
	copy(out, c.order)
	return out
}

// Add inserts or replaces a location.
func (c *Catalog) Add(l *Location) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.byID[l.ID]; !exists {
		idx := sort.Search(len(c.order), func(i int) bool { return c.order[i].ID >= l.ID })
		c.order = append(c.order, nil)
		copy(c.order[idx+1:], c.order[idx:])
		c.order[idx] = l
	} else {
		for i, existing := range c.order {
			if existing.ID == l.ID {
				c.order[i] = l
			}
		}
	}
	c.byID[l.ID] = l
}

// Len returns the number of locations.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// OfKind returns all locations of a kind in ascending ID order.
func (c *Catalog) OfKind(kind LocationKind) []*Location {
	var out []*Location
	for _, l := range c.All() {
		if l.Kind == kind {
			out = append(out, l)
		}
	}
	return out
}
