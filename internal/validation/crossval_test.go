package validation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fantasy-value-lab/internal/domain"
)

func TestCrossValidate_RollingFolds(t *testing.T) {
	store, players := seedBacktestStore(t, 10, 12)
	backtester := NewBacktester(store)

	result, err := CrossValidate(context.Background(), backtester,
		domain.DefaultParameterSet(), players, 1, 8, 12, 5)
	require.NoError(t, err)

	assert.Len(t, result.Folds, 5)
	assert.Equal(t, 0, result.FoldsSkipped)
	assert.Equal(t, 50, result.TotalPairs)
	assert.Greater(t, result.MeanRMSE, 0.0)
	assert.GreaterOrEqual(t, result.StddevRMSE, 0.0)
	assert.GreaterOrEqual(t, result.MeanRMSE, result.MeanMAE)
}

func TestCrossValidate_SkipsSmallFolds(t *testing.T) {
	// Too few players for MinFoldPairs
	store, players := seedBacktestStore(t, 3, 12)
	backtester := NewBacktester(store)

	result, err := CrossValidate(context.Background(), backtester,
		domain.DefaultParameterSet(), players, 1, 8, 10, 3)
	require.NoError(t, err)

	assert.Empty(t, result.Folds)
	assert.Equal(t, 3, result.FoldsSkipped)
	assert.Zero(t, result.MeanRMSE)
}

func TestCrossValidate_RejectsBadRanges(t *testing.T) {
	store, players := seedBacktestStore(t, 5, 12)
	backtester := NewBacktester(store)
	ctx := context.Background()

	_, err := CrossValidate(ctx, backtester, domain.DefaultParameterSet(), players, 8, 8, 10, 3)
	assert.Error(t, err)

	_, err = CrossValidate(ctx, backtester, domain.DefaultParameterSet(), players, 1, 10, 8, 3)
	assert.Error(t, err)
}
