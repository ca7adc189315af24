package agents

import "github.com/talgya/needs-world/internal/world"

// MovementEvent is emitted when an agent arrives somewhere new.
type MovementEvent struct {
	AgentID AgentID          `json:"agent_id"`
	From    world.LocationID `json:"from"`
	To      world.LocationID `json:"to"`
	Hour    uint64           `json:"hour"`
	Reason  NeedKind         `json:"reason"`
}

// NeedFulfillmentEvent is emitted when an action restores a need.
type NeedFulfillmentEvent struct {
	AgentID    AgentID          `json:"agent_id"`
	LocationID world.LocationID `json:"location_id"`
	Hour       uint64           `json:"hour"`
	Need       NeedKind         `json:"need"`
	Action     ActionKind       `json:"action"`
	Amount     float64          `json:"amount"`
}

// WorkEvent is emitted when an agent starts a work shift.
type WorkEvent struct {
	AgentID           AgentID          `json:"agent_id"`
	LocationID        world.LocationID `json:"location_id"`
	Hour              uint64           `json:"hour"`
	HoursWorked       float64          `json:"hours_worked"`
	Wage              float64          `json:"wage"`
	Productivity      float64          `json:"productivity"`
	ResourcesProduced float64          `json:"resources_produced"`
}

// Emitter receives domain events produced by agent transitions.
type Emitter interface {
	Moved(MovementEvent)
	Fulfilled(NeedFulfillmentEvent)
	Worked(WorkEvent)
}

// Recorder is an Emitter that keeps every event in memory.
type Recorder struct {
	Movements    []MovementEvent
	Fulfillments []NeedFulfillmentEvent
	Work         []WorkEvent
}

func (r *Recorder) Moved(e MovementEvent)            { r.Movements = append(r.Movements, e) }
func (r *Recorder) Fulfilled(e NeedFulfillmentEvent) { r.Fulfillments = append(r.Fulfillments, e) }
func (r *Recorder) Worked(e WorkEvent)               { r.Work = append(r.Work, e) }

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.Movements = r.Movements[:0]
	r.Fulfillments = r.Fulfillments[:0]
	r.Work = r.Work[:0]
}

// Discard is an Emitter that drops everything.
var Discard Emitter = discard{}

type discard struct{}

func (discard) Moved(MovementEvent)            {}
func (discard) Fulfilled(NeedFulfillmentEvent) {}
func (discard) Worked(WorkEvent)               {}
