package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fantasy-value-lab/internal/domain"
)

func strataPair(playerID string, pos domain.Position, difficulty *float64, price float64) Pair {
	return Pair{
		PlayerID:   playerID,
		Gameweek:   9,
		Predicted:  5.0,
		Actual:     4.0,
		Position:   pos,
		Difficulty: difficulty,
		Price:      price,
	}
}

func TestComputeStrata_GroupsAndSampleSizes(t *testing.T) {
	easy, hard := -1.0, 2.0
	pairs := []Pair{
		strataPair("p1", domain.PositionMidfielder, &easy, 5.0),
		strataPair("p2", domain.PositionMidfielder, &hard, 7.5),
		strataPair("p3", domain.PositionDefender, nil, 9.5),
		strataPair("p4", domain.PositionDefender, &easy, 5.5),
	}

	strata := ComputeStrata(pairs, 2)

	byKey := make(map[string]domain.StratumMetrics)
	for _, s := range strata {
		byKey[s.Dimension+"/"+s.Label] = s
	}

	require.Contains(t, byKey, "position/MID")
	assert.Equal(t, 2, byKey["position/MID"].Metrics.SampleSize)
	require.Contains(t, byKey, "position/DEF")
	assert.Equal(t, 2, byKey["position/DEF"].Metrics.SampleSize)

	require.Contains(t, byKey, "difficulty/easy")
	assert.Equal(t, 2, byKey["difficulty/easy"].Metrics.SampleSize)
	require.Contains(t, byKey, "difficulty/hard")
	assert.Equal(t, 1, byKey["difficulty/hard"].Metrics.SampleSize)
	require.Contains(t, byKey, "difficulty/unknown")
	assert.Equal(t, 1, byKey["difficulty/unknown"].Metrics.SampleSize)

	require.Contains(t, byKey, "price_tier/budget")
	assert.Equal(t, 2, byKey["price_tier/budget"].Metrics.SampleSize)
	require.Contains(t, byKey, "price_tier/mid")
	assert.Equal(t, 1, byKey["price_tier/mid"].Metrics.SampleSize)
	require.Contains(t, byKey, "price_tier/premium")
	assert.Equal(t, 1, byKey["price_tier/premium"].Metrics.SampleSize)

	// No empty strata are emitted
	for _, s := range strata {
		assert.Greater(t, s.Metrics.SampleSize, 0, "%s/%s", s.Dimension, s.Label)
	}
}

func TestComputeStrata_KCappedPerStratum(t *testing.T) {
	easy := -1.0
	pairs := []Pair{
		strataPair("p1", domain.PositionForward, &easy, 10.0),
		strataPair("p2", domain.PositionForward, &easy, 10.5),
	}

	strata := ComputeStrata(pairs, 10)
	for _, s := range strata {
		assert.LessOrEqual(t, s.Metrics.KUsed, s.Metrics.SampleSize)
	}
}

func TestComputeStrata_Empty(t *testing.T) {
	assert.Empty(t, ComputeStrata(nil, 5))
}
