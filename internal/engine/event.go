package engine

import (
	"fmt"

	"github.com/talgya/needs-world/internal/world"
)

// Event categories.
const (
	CategoryEconomic  = "economic"
	CategoryPolitical = "political"
	CategoryNatural   = "natural"
	CategoryAgent     = "agent"
	CategorySystem    = "system"
)

// Event is a notable occurrence in a world, kept for narrative and history.
type Event struct {
	ID          uint64        `json:"id" db:"id"`
	WorldID     world.WorldID `json:"world_id" db:"world_id"`
	Hour        uint64        `json:"hour" db:"hour"`
	Category    string        `json:"category" db:"category"`
	Kind        string        `json:"kind" db:"kind"`
	Description string        `json:"description" db:"description"`
}

// NewEvent builds an event with a formatted description.
func NewEvent(worldID world.WorldID, hour uint64, category, kind, format string, args ...any) Event {
	return Event{
		WorldID:     worldID,
		Hour:        hour,
		Category:    category,
		Kind:        kind,
		Description: fmt.Sprintf(format, args...),
	}
}
