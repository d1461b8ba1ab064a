package edge

import (
	"testing"

	"github.com/sharpline/platform/internal/domain"
	"github.com/stretchr/testify/assert"
)

func testStaking() Staking {
	return Staking{
		BankrollUnits:  100,
		KellyFraction:  0.25,
		MaxBetFraction: 0.03,
		MinEdgePercent: 5.5,
	}
}

func TestStarsFor_TierBoundaries(t *testing.T) {
	cases := []struct {
		edge float64
		want float64
	}{
		{16.0, 3.0},
		{15.0, 3.0}, // boundary belongs to the higher tier
		{14.9, 2.5},
		{13.0, 2.5},
		{11.0, 2.0},
		{9.0, 1.5},
		{8.5, 1.0},
		{7.0, 1.0},
		{5.5, 0.5},
		{5.4, 0},
		{0, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StarsFor(tc.edge, 5.5), "edge %.1f", tc.edge)
	}
}

func TestStarsFor_MinEdgeOverridesTiers(t *testing.T) {
	// An edge that would tier at 1.0 stars still sits under a raised floor.
	assert.Zero(t, StarsFor(8.0, 9.0))
	assert.Equal(t, 1.5, StarsFor(9.0, 9.0))
}

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, domain.EdgeVeryStrong, CategoryFor(13.5, 5.5))
	assert.Equal(t, domain.EdgeStrong, CategoryFor(9.0, 5.5))
	assert.Equal(t, domain.EdgeMedium, CategoryFor(6.0, 5.5))
	assert.Equal(t, domain.EdgeNone, CategoryFor(4.0, 5.5))
}

func TestFullKelly(t *testing.T) {
	k := FullKelly(8.5, domain.StandardPrice)
	assert.InDelta(t, 0.1785, k, 1e-3)

	// A -110 price with no edge over baseline is Kelly-negative.
	assert.Zero(t, FullKelly(0, domain.StandardPrice))
}

func TestStakePercent_StarTierWhenUnderCaps(t *testing.T) {
	s := testStaking()
	got := s.StakePercent(1.0, 8.5, domain.StandardPrice)
	assert.InDelta(t, 1.0, got, 1e-9)
	assert.InDelta(t, 1.0, s.StakeUnits(got), 1e-9)
}

func TestStakePercent_MaxBetCapBinds(t *testing.T) {
	s := testStaking()
	// 3 stars at a huge edge: Kelly allows far more than 3% of bankroll.
	got := s.StakePercent(3.0, 20.0, domain.StandardPrice)
	assert.InDelta(t, 3.0, got, 1e-9)
}

func TestStakePercent_KellyCapBinds(t *testing.T) {
	s := testStaking()
	s.KellyFraction = 0.05

	want := FullKelly(7.0, domain.StandardPrice) * s.KellyFraction * 100
	got := s.StakePercent(1.0, 7.0, domain.StandardPrice)
	assert.Less(t, got, 1.0)
	assert.InDelta(t, want, got, 1e-9)
}

func TestStakePercent_ZeroStarsZeroStake(t *testing.T) {
	s := testStaking()
	assert.Zero(t, s.StakePercent(0, 12.0, domain.StandardPrice))
}
