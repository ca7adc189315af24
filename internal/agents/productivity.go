package agents

// Productivity returns a work output multiplier in [0.1, 2.0] derived from
// how well the agent's needs are met.
func Productivity(a *Agent) float64 {
	n := &a.Needs
	p := 1.0

	if n.FoodWater < 30 {
		p *= 0.5
	}
	if n.Rest < 30 {
		p *= 0.6
	}
	if n.Environment < 40 {
		p *= 0.8
	}
	if n.Stress > StressCritical {
		p *= 0.7
	}
	if n.Safety < 40 {
		p *= 0.8
	}
	if n.Community > CriticalLow {
		p *= 1.1
	}
	if n.Achievements > Urgent {
		p *= 1.2
	}
	if n.Progression > Adequate {
		p *= 1.3
	}

	if p < 0.1 {
		return 0.1
	}
	if p > 2.0 {
		return 2.0
	}
	return p
}
