package agents

import "math"

// NeedKind is the category of a pressing need, used to pick a place and an action.
type NeedKind uint8

const (
	NeedNone NeedKind = iota
	NeedEnvironment
	NeedConsumption
	NeedConnection
	NeedRest
	NeedWaste
	NeedLivelihood
)

var needKindNames = map[NeedKind]string{
	NeedNone:        "none",
	NeedEnvironment: "environment",
	NeedConsumption: "consumption",
	NeedConnection:  "connection",
	NeedRest:        "rest",
	NeedWaste:       "waste",
	NeedLivelihood:  "livelihood",
}

func (k NeedKind) String() string {
	if n, ok := needKindNames[k]; ok {
		return n
	}
	return "unknown"
}

// PressingNeed is the most urgent need an agent should act on.
type PressingNeed struct {
	Kind    NeedKind `json:"kind"`
	Urgency float64  `json:"urgency"`
}

// trigger identifies which threshold produced a candidate. Declaration
// order is the static priority ranking used to break urgency ties.
type trigger uint8

const (
	triggerWaste trigger = iota
	triggerFood
	triggerRest
	triggerSafety
	triggerIncome
	triggerEnvironment
	triggerStress
	triggerCommunity
	triggerProgression
)

var priorityWeight = [...]float64{
	triggerWaste:       10,
	triggerFood:        8,
	triggerRest:        7,
	triggerSafety:      6,
	triggerIncome:      5,
	triggerEnvironment: 4,
	triggerStress:      3,
	triggerCommunity:   2,
	triggerProgression: 1,
}

type candidate struct {
	trigger trigger
	kind    NeedKind
	urgency float64
}

// candidates returns every need currently past its critical threshold,
// with urgency = deficit × priority weight, in priority-ranking order.
// Candidates at or below the urgency threshold are included; callers
// filter them.
func candidates(n *Needs) []candidate {
	var out []candidate
	add := func(t trigger, kind NeedKind, deficit float64) {
		out = append(out, candidate{trigger: t, kind: kind, urgency: deficit * priorityWeight[t]})
	}

	tier2 := n.active(TierSafety)
	tier3 := tier2 && n.active(TierBelonging)
	tier5 := tier3 && n.active(TierSelfActualization)

	if n.Waste > WasteCritical {
		add(triggerWaste, NeedWaste, n.Waste)
	}
	if n.FoodWater < CriticalLow {
		add(triggerFood, NeedConsumption, NeedMax-n.FoodWater)
	}
	if n.Rest < CriticalLow {
		add(triggerRest, NeedRest, NeedMax-n.Rest)
	}
	if tier2 && n.Safety < CriticalLow {
		add(triggerSafety, NeedEnvironment, NeedMax-n.Safety)
	}
	if tier2 && n.Income < IncomeCritical {
		add(triggerIncome, NeedLivelihood, NeedMax-math.Min(n.Income, NeedMax))
	}
	if n.Environment < CriticalLow {
		add(triggerEnvironment, NeedEnvironment, NeedMax-n.Environment)
	}
	if tier2 && n.Stress > StressCritical {
		add(triggerStress, NeedConnection, n.Stress)
	}
	if tier3 && n.Community < 10 {
		add(triggerCommunity, NeedConnection, SubScaleMax-n.Community)
	}
	if tier5 && n.Progression < CriticalLow {
		add(triggerProgression, NeedLivelihood, NeedMax-n.Progression)
	}
	return out
}

// SelectPressingNeed returns the single most urgent need of an agent at
// hour, or false if nothing is urgent enough to act on. The result depends
// only on the agent's need values: ties go to the higher-ranked need.
func SelectPressingNeed(a *Agent, hour uint64) (PressingNeed, bool) {
	var best *candidate
	cands := candidates(&a.Needs)
	for i := range cands {
		c := &cands[i]
		if c.urgency <= Urgent {
			continue
		}
		if best == nil || c.urgency > best.urgency ||
			(c.urgency == best.urgency && c.trigger < best.trigger) {
			best = c
		}
	}
	if best == nil {
		return PressingNeed{}, false
	}
	return PressingNeed{Kind: best.kind, Urgency: best.urgency}, true
}
