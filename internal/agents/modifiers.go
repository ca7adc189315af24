package agents

import "github.com/talgya/needs-world/internal/world"

// Hourly need modifiers.
const (
	foodBase     = -2.0
	foodWorking  = -3.0
	foodSleeping = -1.5

	environmentHealing   = 0.5
	environmentHazardous = -3.0
	environmentNeutral   = -1.0

	intimacyBase = -0.5

	restBase          = -1.5
	restSleeping      = 8.0
	restWorking       = -2.5
	restStressPerTen  = -0.1 // per 10 points of stress
	wasteAccumulation = 2.0

	threatBase      = 0.2
	threatDangerous = 2.0
	threatSheltered = -0.5

	incomeWorking    = 5.0
	incomeLivingCost = -0.2
	safetyUnemployed = -0.5 // while income is critical

	stressBase       = -0.3
	stressWorkload   = 1.0
	stressRecreation = -2.0
	stressLowIncome  = 0.5

	safetyAtHome  = 1.0
	safetyShelter = 0.5
	safetyUnsafe  = -2.0
	safetyBase    = -0.2

	communityBase        = -0.3
	communitySocializing = 3.0

	progressionMeaningfulWork = 0.5

	// MaintenanceWearPerDay is how much building maintenance drops each day.
	MaintenanceWearPerDay = 2.0
)

// Decay applies hours of passive need change to an agent at loc.
// loc may be nil when the agent's location is unknown; it is then treated
// as a neutral place. Higher-tier needs only change while their tier is active.
func Decay(a *Agent, loc *world.Location, hours uint64) {
	for h := uint64(0); h < hours; h++ {
		decayHour(a, loc)
	}
}

func decayHour(a *Agent, loc *world.Location) {
	n := &a.Needs
	kind := a.Status.Kind
	var caps world.Capabilities
	if loc != nil {
		caps = loc.Capabilities
	}

	// Gating is evaluated once per hour, before anything changes.
	tier2 := n.active(TierSafety)
	tier3 := tier2 && n.active(TierBelonging)
	tier5 := tier3 && n.active(TierSelfActualization)

	switch kind {
	case StatusWorking:
		n.FoodWater += foodWorking
	case StatusSleeping:
		n.FoodWater += foodSleeping
	default:
		n.FoodWater += foodBase
	}

	switch {
	case caps.EnvironmentalQuality > 0:
		n.Environment += environmentHealing
	case caps.Hazardous():
		n.Environment += environmentHazardous
	default:
		n.Environment += environmentNeutral
	}

	n.Intimacy += intimacyBase

	switch kind {
	case StatusSleeping:
		n.Rest += restSleeping
	case StatusWorking:
		n.Rest += restWorking
	default:
		n.Rest += restBase
	}
	n.Rest += n.Stress / 10 * restStressPerTen
	n.Waste += wasteAccumulation

	if tier2 {
		switch {
		case caps.Safe():
			n.Threat += threatSheltered
		case caps.Hazardous():
			n.Threat += threatDangerous
		default:
			n.Threat += threatBase
		}

		if kind == StatusWorking {
			n.Income += incomeWorking
			n.Stress += stressWorkload
		} else {
			n.Income += incomeLivingCost
		}
		if n.Income < IncomeCritical {
			n.Safety += safetyUnemployed
			n.Stress += stressLowIncome
		}

		n.Stress += stressBase
		if kind == StatusSocializing {
			n.Stress += stressRecreation
		}

		// Exactly one safety modifier applies per hour.
		switch {
		case a.AtHome():
			n.Safety += safetyAtHome
		case caps.Healthcare || caps.EnvironmentalQuality > 0:
			n.Safety += safetyShelter
		case caps.Hazardous():
			n.Safety += safetyUnsafe
		default:
			n.Safety += safetyBase
		}
	}

	if tier3 {
		if kind == StatusSocializing {
			n.Community += communitySocializing
		} else {
			n.Community += communityBase
		}
	}

	if tier5 && kind == StatusWorking && a.Role != RoleNone {
		n.Progression += progressionMeaningfulWork
	}

	n.Clamp()
}
