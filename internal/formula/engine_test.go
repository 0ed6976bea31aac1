package formula

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fantasy-value-lab/internal/domain"
)

func fullHistory(t *testing.T, gameweeks int) *domain.PlayerHistory {
	t.Helper()

	points := []float64{6, 2, 8, 5, 9, 3, 7, 6, 4, 8, 5, 7, 6, 9, 2, 6, 7, 5, 8, 6}
	snaps := make([]*domain.RawSnapshot, 0, gameweeks)
	for gw := 1; gw <= gameweeks; gw++ {
		snaps = append(snaps, &domain.RawSnapshot{
			SnapshotID:         "snap",
			PlayerID:           "player-7",
			Gameweek:           gw,
			Position:           domain.PositionMidfielder,
			Points:             points[(gw-1)%len(points)],
			Minutes:            90,
			PointsBaseline:     5.8,
			ThreatRate:         ptr(1.3),
			ThreatRateBaseline: ptr(1.0),
			Price:              8.0,
			FixtureDifficulty:  ptr(-2.0),
			StarterStatus:      domain.StarterConfirmed,
			RecordedAt:         int64(gw) * 1000,
		})
	}
	return &domain.PlayerHistory{PlayerID: "player-7", Snapshots: snaps}
}

func TestEvaluate_Deterministic(t *testing.T) {
	h := fullHistory(t, 10)
	p := domain.DefaultParameterSet()

	first, err := Evaluate(h, p, 10)
	require.NoError(t, err)
	second, err := Evaluate(h, p, 10)
	require.NoError(t, err)

	// Bit-identical, not approximately equal.
	assert.Equal(t, first, second)
}

func TestEvaluate_MultipliersWithinBounds(t *testing.T) {
	h := fullHistory(t, 12)
	p := domain.DefaultParameterSet()

	pred, err := Evaluate(h, p, 12)
	require.NoError(t, err)

	assert.True(t, p.FormBound.Contains(pred.FormMultiplier), "form %.4f", pred.FormMultiplier)
	assert.True(t, p.FixtureBound.Contains(pred.FixtureMultiplier), "fixture %.4f", pred.FixtureMultiplier)
	assert.True(t, p.RatioBound.Contains(pred.RatioMultiplier), "ratio %.4f", pred.RatioMultiplier)
	assert.LessOrEqual(t, pred.FinalValue, pred.BlendedBaseline*p.GlobalCap)
}

func TestEvaluate_GlobalCapBinds(t *testing.T) {
	h := fullHistory(t, 12)
	p := domain.DefaultParameterSet()
	p.GlobalCap = 1.0 // every multiplier product above 1 must cap

	pred, err := Evaluate(h, p, 12)
	require.NoError(t, err)

	assert.InDelta(t, pred.BlendedBaseline, pred.FinalValue, 1e-9,
		"with cap 1.0 the final value equals the baseline whenever multipliers exceed 1")
	assert.LessOrEqual(t, pred.FinalValue, pred.BlendedBaseline*p.GlobalCap+1e-12)
}

func TestEvaluate_ValuePerPrice(t *testing.T) {
	h := fullHistory(t, 10)
	p := domain.DefaultParameterSet()

	pred, err := Evaluate(h, p, 10)
	require.NoError(t, err)
	assert.InDelta(t, pred.FinalValue/8.0, pred.ValuePerPrice, 1e-9)
}

func TestEvaluate_PriceFloorNeverDivisionError(t *testing.T) {
	h := fullHistory(t, 10)
	for _, s := range h.Snapshots {
		s.Price = 0 // corrupt feed
	}
	p := domain.DefaultParameterSet()

	pred, err := Evaluate(h, p, 10)
	require.NoError(t, err)

	require.False(t, math.IsInf(pred.ValuePerPrice, 0))
	require.False(t, math.IsNaN(pred.ValuePerPrice))
	assert.InDelta(t, pred.FinalValue/p.PriceFloor, pred.ValuePerPrice, 1e-9)
}

func TestEvaluate_EmptyHistoryStillWellFormed(t *testing.T) {
	h := &domain.PlayerHistory{PlayerID: "player-new"}
	p := domain.DefaultParameterSet()

	pred, err := Evaluate(h, p, 1)
	require.NoError(t, err)

	// Everything degrades to neutral or floor, never an error.
	assert.Equal(t, 1.0, pred.FormMultiplier)
	assert.Equal(t, 1.0, pred.FixtureMultiplier)
	assert.Equal(t, 1.0, pred.RatioMultiplier)
	assert.Equal(t, p.RotationPenalty, pred.StarterMultiplier)
	assert.Equal(t, p.BaselineFloor, pred.BlendedBaseline)
	assert.NotEmpty(t, pred.NeutralReasons)
}

func TestEvaluate_InvalidParameterSetRejected(t *testing.T) {
	h := fullHistory(t, 10)
	p := domain.DefaultParameterSet()
	p.Alpha = 1.5

	_, err := Evaluate(h, p, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidParameterSet))
}

func TestEvaluate_LookaheadViolationAborts(t *testing.T) {
	h := fullHistory(t, 12)
	p := domain.DefaultParameterSet()

	// History contains gameweeks past the evaluation period.
	_, err := Evaluate(h, p, 8)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrLookaheadViolation))
}

func TestEvaluate_UnorderedHistoryAborts(t *testing.T) {
	h := fullHistory(t, 5)
	h.Snapshots[1], h.Snapshots[3] = h.Snapshots[3], h.Snapshots[1]
	p := domain.DefaultParameterSet()

	_, err := Evaluate(h, p, 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrLookaheadViolation))
}

func TestEvaluate_DistinctParamSetsDistinctPredictions(t *testing.T) {
	h := fullHistory(t, 10)

	base := domain.DefaultParameterSet()
	tuned := domain.DefaultParameterSet()
	tuned.ParamSetID = "tuned-v2"
	tuned.Alpha = 0.75

	a, err := Evaluate(h, base, 10)
	require.NoError(t, err)
	b, err := Evaluate(h, tuned, 10)
	require.NoError(t, err)

	assert.NotEqual(t, a.PredictionID, b.PredictionID)
	assert.NotEqual(t, a.FormMultiplier, b.FormMultiplier)
}

func TestEvaluate_RuledOutPlayerWorthNothing(t *testing.T) {
	h := fullHistory(t, 10)
	h.Latest().StarterOverride = ptr(domain.StarterOut)
	p := domain.DefaultParameterSet()

	pred, err := Evaluate(h, p, 10)
	require.NoError(t, err)
	assert.Equal(t, 0.0, pred.FinalValue)
	assert.Equal(t, 0.0, pred.StarterMultiplier)
}
