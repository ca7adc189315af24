package agents

import (
	"fmt"

	"github.com/talgya/needs-world/internal/world"
)

// StatusKind is the activity an agent is engaged in.
type StatusKind uint8

const (
	StatusIdle StatusKind = iota
	StatusWorking
	StatusSleeping
	StatusEating
	StatusSocializing
	StatusInTransit
	StatusMaintaining
	StatusUsingFacilities
)

var statusNames = map[StatusKind]string{
	StatusIdle:            "idle",
	StatusWorking:         "working",
	StatusSleeping:        "sleeping",
	StatusEating:          "eating",
	StatusSocializing:     "socializing",
	StatusInTransit:       "in_transit",
	StatusMaintaining:     "maintaining",
	StatusUsingFacilities: "using_facilities",
}

func (k StatusKind) String() string {
	if n, ok := statusNames[k]; ok {
		return n
	}
	return "unknown"
}

// Status is an agent's current activity plus the payload that goes with it.
// Every non-idle status carries the hour it ends.
type Status struct {
	Kind  StatusKind `json:"kind"`
	Until uint64     `json:"until,omitempty"`

	// TargetLocation is the destination of an InTransit status.
	TargetLocation *world.LocationID `json:"target_location,omitempty"`
	// TargetBuilding is where a timed action takes place.
	TargetBuilding *world.LocationID `json:"target_building,omitempty"`
	// Reason is the need that started a trip.
	Reason NeedKind `json:"reason,omitempty"`
}

// Idle returns the idle status.
func Idle() Status {
	return Status{Kind: StatusIdle}
}

// Timed returns a status of kind k that ends at until.
func Timed(k StatusKind, until uint64, building world.LocationID) Status {
	return Status{Kind: k, Until: until, TargetBuilding: locPtr(building)}
}

// InTransit returns a travel status toward target, arriving at until.
func InTransit(target world.LocationID, until uint64, reason NeedKind) Status {
	return Status{Kind: StatusInTransit, Until: until, TargetLocation: locPtr(target), Reason: reason}
}

// Expired reports whether the status has run its course at hour.
// Idle never expires.
func (s Status) Expired(hour uint64) bool {
	return s.Kind != StatusIdle && hour >= s.Until
}

// Busy reports whether the agent is occupied with something.
func (s Status) Busy() bool {
	return s.Kind != StatusIdle
}

func (s Status) clone() Status {
	c := s
	if s.TargetLocation != nil {
		c.TargetLocation = locPtr(*s.TargetLocation)
	}
	if s.TargetBuilding != nil {
		c.TargetBuilding = locPtr(*s.TargetBuilding)
	}
	return c
}

func (s Status) String() string {
	switch s.Kind {
	case StatusIdle:
		return "idle"
	case StatusInTransit:
		if s.TargetLocation != nil {
			return fmt.Sprintf("in transit to #%d until hour %d", *s.TargetLocation, s.Until)
		}
	}
	return fmt.Sprintf("%s until hour %d", s.Kind, s.Until)
}
