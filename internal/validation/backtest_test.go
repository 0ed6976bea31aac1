package validation

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fantasy-value-lab/internal/domain"
	"fantasy-value-lab/internal/storage/memory"
)

func backtestSnapshot(playerID string, gameweek int, points float64, pos domain.Position, price float64) *domain.RawSnapshot {
	threat := 0.45
	threatBase := 0.4
	difficulty := float64(gameweek%3 - 1)
	return &domain.RawSnapshot{
		SnapshotID:         fmt.Sprintf("%s-gw%d", playerID, gameweek),
		PlayerID:           playerID,
		Gameweek:           gameweek,
		Position:           pos,
		Points:             points,
		Minutes:            90,
		PointsBaseline:     5.0,
		ThreatRate:         &threat,
		ThreatRateBaseline: &threatBase,
		Price:              price,
		FixtureDifficulty:  &difficulty,
		StarterStatus:      domain.StarterConfirmed,
		RecordedAt:         int64(1756000000000 + gameweek*1000),
	}
}

func seedBacktestStore(t *testing.T, players int, gameweeks int) (*memory.SnapshotStore, []string) {
	t.Helper()
	store := memory.NewSnapshotStore()
	ctx := context.Background()

	positions := []domain.Position{
		domain.PositionGoalkeeper, domain.PositionDefender,
		domain.PositionMidfielder, domain.PositionForward,
	}

	playerIDs := make([]string, players)
	for pi := 0; pi < players; pi++ {
		playerID := fmt.Sprintf("player-%02d", pi)
		playerIDs[pi] = playerID
		pos := positions[pi%len(positions)]
		price := 4.5 + float64(pi)*0.5
		for gw := 1; gw <= gameweeks; gw++ {
			points := float64(1 + (gw*3+pi*5)%9)
			require.NoError(t, store.Insert(ctx,
				backtestSnapshot(playerID, gw, points, pos, price)))
		}
	}
	return store, playerIDs
}

func TestBacktester_Run(t *testing.T) {
	store, players := seedBacktestStore(t, 12, 10)
	backtester := NewBacktester(store)

	result, err := backtester.Run(context.Background(),
		domain.DefaultParameterSet(), players, 1, 8, 9, 5)
	require.NoError(t, err)

	assert.Equal(t, 12, result.Metrics.SampleSize)
	assert.Equal(t, 0, result.ExcludedAbsent)
	assert.Equal(t, 5, result.Metrics.KUsed)
	assert.GreaterOrEqual(t, result.Metrics.RMSE, result.Metrics.MAE)
	assert.NotEmpty(t, result.Strata)
}

func TestBacktester_AbsentOutcomesExcluded(t *testing.T) {
	store, players := seedBacktestStore(t, 6, 8)
	ctx := context.Background()

	// One extra player with training data but no test-gameweek outcome
	require.NoError(t, store.Insert(ctx,
		backtestSnapshot("player-missing", 3, 5.0, domain.PositionForward, 7.0)))
	players = append(players, "player-missing")

	backtester := NewBacktester(store)
	result, err := backtester.Run(ctx, domain.DefaultParameterSet(), players, 1, 8, 9, 3)
	require.NoError(t, err)

	assert.Equal(t, 6, result.Metrics.SampleSize)
	assert.Equal(t, 1, result.ExcludedAbsent)
}

func TestBacktester_TestOutcomeDoesNotLeakIntoPrediction(t *testing.T) {
	ctx := context.Background()
	store, players := seedBacktestStore(t, 4, 10)
	backtester := NewBacktester(store)
	params := domain.DefaultParameterSet()

	before, err := backtester.Run(ctx, params, players, 1, 8, 9, 3)
	require.NoError(t, err)

	// Correct the test-gameweek outcome for one player
	correction := backtestSnapshot("player-00", 9, 15.0, domain.PositionGoalkeeper, 4.5)
	correction.SnapshotID = "player-00-gw9-corrected"
	correction.RecordedAt += 500000
	require.NoError(t, store.Insert(ctx, correction))

	after, err := backtester.Run(ctx, params, players, 1, 8, 9, 3)
	require.NoError(t, err)

	// Predicted values are unchanged; only the realized side moves
	require.Equal(t, len(before.Pairs), len(after.Pairs))
	for i := range before.Pairs {
		assert.Equal(t, before.Pairs[i].Predicted, after.Pairs[i].Predicted)
	}
	assert.NotEqual(t, before.Pairs[0].Actual, after.Pairs[0].Actual)
}

func TestBacktester_TrainWindowStartRespected(t *testing.T) {
	ctx := context.Background()
	store, players := seedBacktestStore(t, 3, 10)
	backtester := NewBacktester(store)
	params := domain.DefaultParameterSet()

	narrow, err := backtester.Run(ctx, params, players, 6, 8, 9, 3)
	require.NoError(t, err)
	wide, err := backtester.Run(ctx, params, players, 1, 8, 9, 3)
	require.NoError(t, err)

	// Different training windows produce different predictions
	different := false
	for i := range narrow.Pairs {
		if narrow.Pairs[i].Predicted != wide.Pairs[i].Predicted {
			different = true
			break
		}
	}
	assert.True(t, different)
}

func TestBacktester_RejectsInvalidSplits(t *testing.T) {
	store, players := seedBacktestStore(t, 3, 10)
	backtester := NewBacktester(store)
	params := domain.DefaultParameterSet()
	ctx := context.Background()

	_, err := backtester.Run(ctx, params, players, 0, 8, 9, 3)
	assert.Error(t, err)

	_, err = backtester.Run(ctx, params, players, 5, 3, 9, 3)
	assert.Error(t, err)

	// Test gameweek inside the training window
	_, err = backtester.Run(ctx, params, players, 1, 8, 8, 3)
	assert.Error(t, err)
}
