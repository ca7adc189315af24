package agents

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidTier is returned for tier numbers outside 1..5.
var ErrInvalidTier = errors.New("invalid tier")

const (
	NeedMax     = 100.0
	IncomeMax   = 1000.0
	SubScaleMax = NeedMax / 3 // relationship, social interaction, and community share tier 3
	SocialMax   = 33.3

	CriticalLow  = 20.0
	CriticalHigh = 80.0
	Adequate     = 50.0
	Urgent       = 60.0

	IncomeCritical = 10.0
	WasteCritical  = 80.0
	StressCritical = 70.0
)

// Tier is a level of the needs hierarchy.
type Tier uint8

const (
	TierPhysiological Tier = iota + 1
	TierSafety
	TierBelonging
	TierEsteem
	TierSelfActualization
)

func (t Tier) String() string {
	switch t {
	case TierPhysiological:
		return "physiological"
	case TierSafety:
		return "safety"
	case TierBelonging:
		return "belonging"
	case TierEsteem:
		return "esteem"
	case TierSelfActualization:
		return "self-actualization"
	default:
		return fmt.Sprintf("tier(%d)", uint8(t))
	}
}

// Needs holds every need scalar of an agent.
// Most values are on a 0..100 scale. Waste, threat, and stress are
// deficit-style: higher is worse. Income runs 0..1000. Relationship,
// social interaction, and community are tier-3 sub-scales capped near 33.
type Needs struct {
	// Tier 1
	FoodWater   float64 `json:"food_water"`
	Environment float64 `json:"environment"`
	Intimacy    float64 `json:"intimacy"`
	Rest        float64 `json:"rest"`
	Waste       float64 `json:"waste"`

	// Tier 2
	Threat float64 `json:"threat"`
	Income float64 `json:"income"`
	Stress float64 `json:"stress"`
	Safety float64 `json:"safety"`

	// Tier 3
	Relationship      float64 `json:"relationship"`
	SocialInteraction float64 `json:"social_interaction"`
	Community         float64 `json:"community"`

	// Tier 4
	Achievements float64 `json:"achievements"`

	// Tier 5
	Progression float64 `json:"progression"`
}

// DefaultNeeds returns the needs of a newly created agent.
func DefaultNeeds() Needs {
	return Needs{
		FoodWater:   70,
		Environment: 80,
		Intimacy:    50,
		Rest:        80,
		Waste:       20,
		Threat:      20,
		Income:      50,
		Stress:      30,
		Safety:      70,
		Community:   20,
	}
}

// Adequacy returns the satisfaction of a tier on a 0..100 scale.
// Deficit-style needs are inverted and income is read on the 0..100 scale.
// Tier-3 members are averaged raw, so with their sub-scale caps the tier
// tops out near 33 and never unlocks tier 4.
func (n *Needs) Adequacy(t Tier) (float64, error) {
	switch t {
	case TierPhysiological:
		return (n.FoodWater + n.Environment + n.Intimacy + n.Rest + (NeedMax - n.Waste)) / 5, nil
	case TierSafety:
		income := math.Min(n.Income, NeedMax)
		return ((NeedMax - n.Threat) + income + (NeedMax - n.Stress) + n.Safety) / 4, nil
	case TierBelonging:
		return (n.Relationship + n.SocialInteraction + n.Community) / 3, nil
	case TierEsteem:
		return n.Achievements, nil
	case TierSelfActualization:
		return n.Progression, nil
	}
	return 0, fmt.Errorf("adequacy of tier %d: %w", uint8(t), ErrInvalidTier)
}

// TierActive reports whether needs at tier t currently drive behaviour.
// Tier 1 is always active; higher tiers need every lower tier adequate.
func (n *Needs) TierActive(t Tier) (bool, error) {
	if t < TierPhysiological || t > TierSelfActualization {
		return false, fmt.Errorf("tier %d: %w", uint8(t), ErrInvalidTier)
	}
	return n.active(t), nil
}

func (n *Needs) active(t Tier) bool {
	for lower := TierPhysiological; lower < t; lower++ {
		adequacy, _ := n.Adequacy(lower)
		if adequacy < Adequate {
			return false
		}
	}
	return true
}

// HighestActiveTier returns the top tier currently unlocked.
func (n *Needs) HighestActiveTier() Tier {
	top := TierPhysiological
	for t := TierSafety; t <= TierSelfActualization; t++ {
		if !n.active(t) {
			break
		}
		top = t
	}
	return top
}

// Clamp forces every scalar into its documented range.
func (n *Needs) Clamp() {
	n.FoodWater = clampNeed(n.FoodWater, NeedMax)
	n.Environment = clampNeed(n.Environment, NeedMax)
	n.Intimacy = clampNeed(n.Intimacy, NeedMax)
	n.Rest = clampNeed(n.Rest, NeedMax)
	n.Waste = clampNeed(n.Waste, NeedMax)
	n.Threat = clampNeed(n.Threat, NeedMax)
	n.Income = clampNeed(n.Income, IncomeMax)
	n.Stress = clampNeed(n.Stress, NeedMax)
	n.Safety = clampNeed(n.Safety, NeedMax)
	n.Relationship = clampNeed(n.Relationship, SubScaleMax)
	n.SocialInteraction = clampNeed(n.SocialInteraction, SocialMax)
	n.Community = clampNeed(n.Community, SubScaleMax)
	n.Achievements = clampNeed(n.Achievements, NeedMax)
	n.Progression = clampNeed(n.Progression, NeedMax)
}

func clampNeed(v, hi float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}
