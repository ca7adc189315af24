package agents

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/needs-world/internal/world"
)

func uniformNeeds(v float64) Needs {
	return Needs{
		FoodWater: v, Environment: v, Intimacy: v, Rest: v, Waste: 100 - v,
		Threat: 100 - v, Income: v, Stress: 100 - v, Safety: v,
		Relationship: v / 3, SocialInteraction: v / 3, Community: v / 3,
		Achievements: v, Progression: v,
	}
}

func TestTierOneAlwaysActive(t *testing.T) {
	n := Needs{Waste: 100, Threat: 100, Stress: 100}
	ok, err := n.TierActive(TierPhysiological)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTierActiveRejectsInvalidTier(t *testing.T) {
	n := DefaultNeeds()
	_, err := n.TierActive(0)
	assert.ErrorIs(t, err, ErrInvalidTier)
	_, err = n.TierActive(6)
	assert.ErrorIs(t, err, ErrInvalidTier)
	_, err = n.Adequacy(9)
	assert.ErrorIs(t, err, ErrInvalidTier)
}

func TestTierGating(t *testing.T) {
	n := uniformNeeds(80)
	for tier := TierPhysiological; tier <= TierBelonging; tier++ {
		ok, err := n.TierActive(tier)
		require.NoError(t, err)
		assert.True(t, ok, "tier %s", tier)
	}
	// Tier 3 members top out near 33, below the adequacy bar.
	ok, _ := n.TierActive(TierEsteem)
	assert.False(t, ok)
	assert.Equal(t, TierBelonging, n.HighestActiveTier())

	// Starving shuts off everything above tier 1.
	n.FoodWater, n.Rest, n.Environment = 0, 0, 0
	ok, _ = n.TierActive(TierSafety)
	assert.False(t, ok)
	ok, _ = n.TierActive(TierSelfActualization)
	assert.False(t, ok)
	assert.Equal(t, TierPhysiological, n.HighestActiveTier())
}

func TestDeficitNeedsAreInverted(t *testing.T) {
	n := Needs{FoodWater: 50, Environment: 50, Intimacy: 50, Rest: 50, Waste: 50}
	adequacy, err := n.Adequacy(TierPhysiological)
	require.NoError(t, err)
	assert.InDelta(t, 50, adequacy, 1e-9)

	n.Waste = 0
	adequacy, _ = n.Adequacy(TierPhysiological)
	assert.InDelta(t, 60, adequacy, 1e-9)
}

func TestBelongingAdequacyIsRawMean(t *testing.T) {
	n := uniformNeeds(80)
	n.Relationship, n.SocialInteraction, n.Community = 20, 20, 20
	adequacy, err := n.Adequacy(TierBelonging)
	require.NoError(t, err)
	assert.InDelta(t, 20, adequacy, 1e-9)

	ok, _ := n.TierActive(TierEsteem)
	assert.False(t, ok)
}

func TestTierMonotonicity(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 2000; i++ {
		n := Needs{
			FoodWater: rng.Float64() * 100, Environment: rng.Float64() * 100,
			Intimacy: rng.Float64() * 100, Rest: rng.Float64() * 100, Waste: rng.Float64() * 100,
			Threat: rng.Float64() * 100, Income: rng.Float64() * 1000,
			Stress: rng.Float64() * 100, Safety: rng.Float64() * 100,
			Relationship: rng.Float64() * 33, SocialInteraction: rng.Float64() * 33,
			Community: rng.Float64() * 33, Achievements: rng.Float64() * 100,
			Progression: rng.Float64() * 100,
		}
		for tier := TierSafety; tier <= TierSelfActualization; tier++ {
			upper, _ := n.TierActive(tier)
			lower, _ := n.TierActive(tier - 1)
			if upper {
				require.True(t, lower, "tier %d active without tier %d: %+v", tier, tier-1, n)
			}
		}
	}
}

func TestClampBounds(t *testing.T) {
	n := Needs{
		FoodWater: 150, Environment: -5, Income: 5000, Community: 90,
		SocialInteraction: 50, Relationship: 40, Stress: -1, Waste: 101,
	}
	n.Clamp()
	assert.Equal(t, 100.0, n.FoodWater)
	assert.Equal(t, 0.0, n.Environment)
	assert.Equal(t, IncomeMax, n.Income)
	assert.InDelta(t, NeedMax/3, n.Community, 1e-9)
	assert.Equal(t, SocialMax, n.SocialInteraction)
	assert.InDelta(t, SubScaleMax, n.Relationship, 1e-9)
	assert.Equal(t, 0.0, n.Stress)
	assert.Equal(t, 100.0, n.Waste)
}

func TestDecayKeepsNeedsInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	statuses := []StatusKind{StatusIdle, StatusWorking, StatusSleeping, StatusSocializing}
	for i := 0; i < 300; i++ {
		a := &Agent{Needs: uniformNeeds(rng.Float64() * 100), Role: RoleArtist}
		a.Status.Kind = statuses[i%len(statuses)]
		loc := &world.Location{Capabilities: world.Capabilities{EnvironmentalQuality: rng.Float64()*5 - 3}}
		Decay(a, loc, uint64(1+rng.Intn(200)))

		n := a.Needs
		for _, v := range []float64{n.FoodWater, n.Environment, n.Intimacy, n.Rest, n.Waste,
			n.Threat, n.Stress, n.Safety, n.Achievements, n.Progression} {
			require.GreaterOrEqual(t, v, 0.0)
			require.LessOrEqual(t, v, 100.0)
		}
		require.LessOrEqual(t, n.Income, IncomeMax)
		require.LessOrEqual(t, n.Community, NeedMax/3)
	}
}

func TestDecayTierOne(t *testing.T) {
	a := &Agent{Needs: DefaultNeeds(), Status: Idle()}
	Decay(a, nil, 1)
	assert.InDelta(t, 68, a.Needs.FoodWater, 1e-9)
	assert.InDelta(t, 79, a.Needs.Environment, 1e-9)
	assert.InDelta(t, 22, a.Needs.Waste, 1e-9)
	// Base rest loss plus 0.3 for 30 stress.
	assert.InDelta(t, 78.2, a.Needs.Rest, 1e-9)
}

func TestDecaySkipsInactiveTiers(t *testing.T) {
	a := &Agent{Needs: DefaultNeeds(), Status: Idle()}
	a.Needs.FoodWater, a.Needs.Environment, a.Needs.Rest = 0, 0, 0
	a.Needs.Waste = 100
	before := a.Needs
	Decay(a, nil, 5)

	assert.Equal(t, before.Threat, a.Needs.Threat)
	assert.Equal(t, before.Income, a.Needs.Income)
	assert.Equal(t, before.Community, a.Needs.Community)
}

func TestDecaySleepingRestores(t *testing.T) {
	a := &Agent{Needs: DefaultNeeds(), Status: Status{Kind: StatusSleeping, Until: 8}}
	a.Needs.Rest = 10
	a.Needs.Stress = 0
	Decay(a, nil, 2)
	assert.InDelta(t, 26, a.Needs.Rest, 1e-9)
}

func TestDecaySafetyModifiersAreExclusive(t *testing.T) {
	home := &world.Location{ID: 1, Capabilities: world.Capabilities{Rest: true}}
	clinic := &world.Location{ID: 2, Capabilities: world.Capabilities{Healthcare: true}}
	swamp := &world.Location{ID: 3, Capabilities: world.Capabilities{EnvironmentalQuality: -2}}
	street := &world.Location{ID: 4}

	cases := []struct {
		name  string
		loc   *world.Location
		delta float64
	}{
		{"home", home, 1.0},
		{"healthcare", clinic, 0.5},
		{"hazardous", swamp, -2.0},
		{"neutral", street, -0.2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := &Agent{LocationID: tc.loc.ID, HomeID: locPtr(home.ID), Needs: uniformNeeds(80), Status: Idle()}
			a.Needs.Safety = 50
			Decay(a, tc.loc, 1)
			assert.InDelta(t, 50+tc.delta, a.Needs.Safety, 1e-9)
		})
	}
}
