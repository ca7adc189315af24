// Agent decision loop: status expiry, pressing-need selection, location
// matching, and the actions that follow.
package agents

import (
	"math"

	"github.com/talgya/needs-world/internal/world"
)

// ActionKind enumerates the timed actions an agent can start.
type ActionKind uint8

const (
	ActionNone ActionKind = iota
	ActionWork
	ActionSleep
	ActionEat
	ActionSocialize
	ActionUseFacilities
	ActionMaintain
)

var actionNames = map[ActionKind]string{
	ActionNone:          "none",
	ActionWork:          "work",
	ActionSleep:         "sleep",
	ActionEat:           "eat",
	ActionSocialize:     "socialize",
	ActionUseFacilities: "use_facilities",
	ActionMaintain:      "maintain",
}

func (k ActionKind) String() string {
	if n, ok := actionNames[k]; ok {
		return n
	}
	return "unknown"
}

// Action durations (hours) and need deltas.
const (
	moveRestPerHour = -2.0

	workHours       = 8
	workRest        = -16.0
	workStress      = 5.0
	workIncome      = 40.0
	wagePerHour     = 5.0
	workResources   = 10.0
	sleepHours      = 8
	sleepRest       = 64.0
	eatHours        = 1
	eatFood         = 25.0
	eatCost         = 5.0
	socializeHours  = 2
	socializeSocial = 10.0
	socializeStress = -5.0
	facilitiesHours = 1
	facilitiesWaste = -50.0
	maintainHours   = 4
	maintainAmount  = 20.0

	// MaintenanceThreshold is the home maintenance below which idle agents repair it.
	MaintenanceThreshold = 50.0
)

// Outcome reports what a decision step did.
type Outcome uint8

const (
	OutcomeNone     Outcome = iota // nothing pressing, stayed idle
	OutcomeActed                   // started a timed action in place
	OutcomeDeparted                // left for another location
	OutcomeStayed                  // already at the best place, nothing more to do
	OutcomeUnmet                   // pressing need that nothing could serve
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeActed:
		return "acted"
	case OutcomeDeparted:
		return "departed"
	case OutcomeStayed:
		return "stayed"
	case OutcomeUnmet:
		return "unmet"
	default:
		return "unknown"
	}
}

// Expire returns the agent to Idle once its status has run out.
// An expiring trip moves the agent to its target and emits a MovementEvent.
// It reports whether a transition happened.
func Expire(a *Agent, hour uint64, emit Emitter) bool {
	if !a.Status.Expired(hour) {
		return false
	}
	if a.Status.Kind == StatusInTransit && a.Status.TargetLocation != nil {
		from := a.LocationID
		a.LocationID = *a.Status.TargetLocation
		emit.Moved(MovementEvent{
			AgentID: a.ID,
			From:    from,
			To:      a.LocationID,
			Hour:    hour,
			Reason:  a.Status.Reason,
		})
	}
	a.Status = Idle()
	return true
}

// Decide lets an idle agent act on its most pressing need: start an action
// where it stands, or set off toward a better location. Busy agents are
// left alone.
func Decide(a *Agent, hour uint64, catalog *world.Catalog, emit Emitter) Outcome {
	if a.Status.Busy() {
		return OutcomeNone
	}

	need, ok := SelectPressingNeed(a, hour)
	if !ok {
		if maintainHome(a, hour, catalog, emit) {
			return OutcomeActed
		}
		return OutcomeNone
	}

	target, ok := MatchLocation(need.Kind, a, catalog)
	if !ok {
		return OutcomeUnmet
	}
	if target != a.LocationID {
		if !depart(a, target, hour, need.Kind, catalog) {
			return OutcomeUnmet
		}
		return OutcomeDeparted
	}

	action := ActionFor(need.Kind, a, target)
	if action == ActionNone {
		// Being there is enough.
		return OutcomeStayed
	}
	loc, _ := catalog.Get(target)
	if !Perform(a, action, loc, hour, need.Kind, emit) {
		return OutcomeUnmet
	}
	return OutcomeActed
}

// ActionFor maps a need to the action that serves it at loc.
func ActionFor(need NeedKind, a *Agent, loc world.LocationID) ActionKind {
	switch need {
	case NeedEnvironment:
		if a.IsHome(loc) {
			return ActionSleep
		}
		return ActionNone
	case NeedConsumption:
		return ActionEat
	case NeedConnection:
		return ActionSocialize
	case NeedRest:
		return ActionSleep
	case NeedWaste:
		return ActionUseFacilities
	case NeedLivelihood:
		return ActionWork
	}
	return ActionNone
}

// depart reserves a place at target and puts the agent in transit.
// Occupancy moves at departure so the target cannot be overbooked while
// the agent travels.
func depart(a *Agent, target world.LocationID, hour uint64, reason NeedKind, catalog *world.Catalog) bool {
	to, ok := catalog.Get(target)
	if !ok {
		return false
	}
	var dist float64
	if from, ok := catalog.Get(a.LocationID); ok {
		dist = world.Distance(from.Position, to.Position)
		from.Leave()
	}
	to.Enter()

	travel := world.TravelHours(dist)
	a.Needs.Rest += moveRestPerHour * float64(travel)
	a.Needs.Clamp()
	a.Status = InTransit(target, hour+travel, reason)
	return true
}

// Perform starts action at loc. It returns false, leaving the agent idle,
// when a precondition fails: no home to sleep in, no workplace to work at,
// or no money to eat.
func Perform(a *Agent, action ActionKind, loc *world.Location, hour uint64, reason NeedKind, emit Emitter) bool {
	if loc == nil {
		return false
	}
	n := &a.Needs
	fulfilled := func(need NeedKind, amount float64) {
		emit.Fulfilled(NeedFulfillmentEvent{
			AgentID:    a.ID,
			LocationID: loc.ID,
			Hour:       hour,
			Need:       need,
			Action:     action,
			Amount:     amount,
		})
	}

	switch action {
	case ActionWork:
		if !a.IsWorkplace(loc.ID) {
			return false
		}
		p := Productivity(a)
		before := n.Income
		n.Rest += workRest
		n.Stress += workStress
		n.Income += workIncome
		n.Clamp()
		a.Status = Timed(StatusWorking, hour+workHours, loc.ID)
		emit.Worked(WorkEvent{
			AgentID:           a.ID,
			LocationID:        loc.ID,
			Hour:              hour,
			HoursWorked:       workHours,
			Wage:              workHours * wagePerHour * p,
			Productivity:      p,
			ResourcesProduced: workResources * p,
		})
		fulfilled(NeedLivelihood, n.Income-before)

	case ActionSleep:
		if !a.IsHome(loc.ID) {
			return false
		}
		before := n.Rest
		n.Rest += sleepRest
		n.Clamp()
		a.Status = Timed(StatusSleeping, hour+sleepHours, loc.ID)
		fulfilled(reason, n.Rest-before)

	case ActionEat:
		if n.Income < eatCost {
			return false
		}
		before := n.FoodWater
		n.FoodWater += eatFood
		n.Income -= eatCost
		n.Clamp()
		a.Status = Timed(StatusEating, hour+eatHours, loc.ID)
		fulfilled(NeedConsumption, n.FoodWater-before)

	case ActionSocialize:
		before := n.SocialInteraction
		n.SocialInteraction = math.Min(n.SocialInteraction+socializeSocial, SocialMax)
		n.Stress += socializeStress
		n.Clamp()
		a.Status = Timed(StatusSocializing, hour+socializeHours, loc.ID)
		fulfilled(NeedConnection, n.SocialInteraction-before)

	case ActionUseFacilities:
		before := n.Waste
		n.Waste += facilitiesWaste
		n.Clamp()
		a.Status = Timed(StatusUsingFacilities, hour+facilitiesHours, loc.ID)
		fulfilled(NeedWaste, before-n.Waste)

	case ActionMaintain:
		if !a.IsHome(loc.ID) {
			return false
		}
		gained := loc.Maintain(maintainAmount)
		a.Status = Timed(StatusMaintaining, hour+maintainHours, loc.ID)
		fulfilled(NeedEnvironment, gained)

	default:
		return false
	}
	return true
}

// maintainHome starts home repairs for an agent with nothing pressing.
func maintainHome(a *Agent, hour uint64, catalog *world.Catalog, emit Emitter) bool {
	if !a.AtHome() {
		return false
	}
	home, ok := catalog.Get(a.LocationID)
	if !ok || home.Maintenance >= MaintenanceThreshold {
		return false
	}
	return Perform(a, ActionMaintain, home, hour, NeedNone, emit)
}
