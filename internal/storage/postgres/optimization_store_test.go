package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fantasy-value-lab/internal/domain"
	"fantasy-value-lab/internal/storage"
)

func createTestRun(runID string) *domain.OptimizationRun {
	return &domain.OptimizationRun{
		RunID:         runID,
		Seed:          42,
		PrimaryMetric: "rmse",
		StartedAt:     1756000000000,
	}
}

func createTestEntry(runID, paramSetID string, rmse float64) *domain.OptimizationEntry {
	params := domain.DefaultParameterSet()
	params.ParamSetID = paramSetID
	return &domain.OptimizationEntry{
		RunID:      runID,
		ParamSetID: paramSetID,
		Params:     params,
		Metrics: domain.ValidationMetrics{
			RMSE:           rmse,
			MAE:            rmse * 0.8,
			SpearmanRho:    0.35,
			SpearmanPValue: 0.02,
			PrecisionAtK:   0.6,
			KUsed:          10,
			SampleSize:     120,
		},
		TrainFrom:    1,
		TrainTo:      8,
		TestGameweek: 9,
		ComputedAt:   1756000100000,
	}
}

func TestOptimizationStore_RunRoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewOptimizationStore(pool)

	run := createTestRun("run-001")
	require.NoError(t, store.InsertRun(ctx, run))

	require.NoError(t, store.InsertEntry(ctx, createTestEntry("run-001", "combo-b", 2.1)))
	require.NoError(t, store.InsertEntry(ctx, createTestEntry("run-001", "combo-a", 1.8)))

	retrieved, err := store.GetRun(ctx, "run-001")
	require.NoError(t, err)

	assert.Equal(t, run.RunID, retrieved.RunID)
	assert.Equal(t, run.Seed, retrieved.Seed)
	assert.Equal(t, run.PrimaryMetric, retrieved.PrimaryMetric)
	assert.Equal(t, run.StartedAt, retrieved.StartedAt)

	// Entries ordered by param_set_id; best = lowest RMSE
	require.Len(t, retrieved.Entries, 2)
	assert.Equal(t, "combo-a", retrieved.Entries[0].ParamSetID)
	assert.Equal(t, "combo-b", retrieved.Entries[1].ParamSetID)
	require.NotNil(t, retrieved.BestMetrics)
	assert.InDelta(t, 1.8, retrieved.BestMetrics.RMSE, 1e-9)
	require.NotNil(t, retrieved.BestParamSet)
	assert.Equal(t, "combo-a", retrieved.BestParamSet.ParamSetID)
}

func TestOptimizationStore_EntryParamsRoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewOptimizationStore(pool)

	require.NoError(t, store.InsertRun(ctx, createTestRun("run-params")))

	entry := createTestEntry("run-params", "combo-x", 2.0)
	entry.Params.Alpha = 0.91
	entry.Params.FixtureWeights[domain.PositionDefender] = 1.25
	require.NoError(t, store.InsertEntry(ctx, entry))

	entries, err := store.GetEntries(ctx, "run-params")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0].Params
	require.NotNil(t, got)
	assert.InDelta(t, 0.91, got.Alpha, 1e-12)
	assert.InDelta(t, 1.25, got.FixtureWeights[domain.PositionDefender], 1e-12)
	assert.Equal(t, entry.Params.FormStrategy, got.FormStrategy)
}

func TestOptimizationStore_DuplicateEntry(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewOptimizationStore(pool)

	require.NoError(t, store.InsertRun(ctx, createTestRun("run-dup")))
	require.NoError(t, store.InsertEntry(ctx, createTestEntry("run-dup", "combo-a", 2.0)))

	err := store.InsertEntry(ctx, createTestEntry("run-dup", "combo-a", 3.0))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestOptimizationStore_GetRun_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewOptimizationStore(pool)

	_, err := store.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
