// Package agents provides the agent data model, the tiered needs system,
// and the decision loop that turns pressing needs into movement and actions.
package agents

import (
	"fmt"

	"github.com/talgya/needs-world/internal/world"
)

// AgentID is a unique identifier for an agent.
type AgentID uint64

// SpecializedRole is an agent's vocation beyond ordinary work.
type SpecializedRole uint8

const (
	RoleNone SpecializedRole = iota
	RoleArtist
	RoleScientist
	RoleLeader
	RoleEducator
	RoleHealer
)

func (r SpecializedRole) String() string {
	switch r {
	case RoleNone:
		return "none"
	case RoleArtist:
		return "artist"
	case RoleScientist:
		return "scientist"
	case RoleLeader:
		return "leader"
	case RoleEducator:
		return "educator"
	case RoleHealer:
		return "healer"
	default:
		return "unknown"
	}
}

// Agent is a simulated person.
type Agent struct {
	ID      AgentID       `json:"id"`
	WorldID world.WorldID `json:"world_id"`
	Name    string        `json:"name"`

	// LocationID is where the agent physically is. It only changes on arrival.
	LocationID  world.LocationID  `json:"location_id"`
	HomeID      *world.LocationID `json:"home_id,omitempty"`
	WorkplaceID *world.LocationID `json:"workplace_id,omitempty"`

	Needs  Needs           `json:"needs"`
	Role   SpecializedRole `json:"role"`
	Status Status          `json:"status"`

	// LastUpdateHour is the simulated hour the agent was last stepped to.
	LastUpdateHour uint64 `json:"last_update_hour"`
	BirthHour      uint64 `json:"birth_hour"`
}

// AtHome reports whether the agent is at its own home.
func (a *Agent) AtHome() bool {
	return a.HomeID != nil && *a.HomeID == a.LocationID
}

// IsHome reports whether id is the agent's home.
func (a *Agent) IsHome(id world.LocationID) bool {
	return a.HomeID != nil && *a.HomeID == id
}

// IsWorkplace reports whether id is the agent's workplace.
func (a *Agent) IsWorkplace(id world.LocationID) bool {
	return a.WorkplaceID != nil && *a.WorkplaceID == id
}

// Clone returns a deep copy of the agent.
func (a *Agent) Clone() *Agent {
	c := *a
	if a.HomeID != nil {
		h := *a.HomeID
		c.HomeID = &h
	}
	if a.WorkplaceID != nil {
		w := *a.WorkplaceID
		c.WorkplaceID = &w
	}
	c.Status = a.Status.clone()
	return &c
}

func (a *Agent) String() string {
	return fmt.Sprintf("%s (#%d)", a.Name, a.ID)
}

func locPtr(id world.LocationID) *world.LocationID {
	return &id
}
