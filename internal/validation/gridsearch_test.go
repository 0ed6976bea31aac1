package validation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fantasy-value-lab/internal/domain"
	"fantasy-value-lab/internal/idhash"
	"fantasy-value-lab/internal/storage/memory"
)

func testGrid() *Grid {
	return &Grid{
		Base:               domain.DefaultParameterSet(),
		Alphas:             []float64{0.8, 0.87, 0.95},
		AdaptationHorizons: []int{12, 16},
		FixtureBases:       []float64{1.03, 1.05},
	}
}

func TestGrid_Combinations(t *testing.T) {
	combos, err := testGrid().Combinations(1)
	require.NoError(t, err)
	require.Len(t, combos, 12)

	// Every combination carries a distinct deterministic id
	seen := make(map[string]struct{})
	for _, c := range combos {
		require.NoError(t, c.Validate())
		assert.Len(t, c.ParamSetID, 64)
		seen[c.ParamSetID] = struct{}{}
	}
	assert.Len(t, seen, 12)

	// Same grid expands to the same ids
	again, err := testGrid().Combinations(1)
	require.NoError(t, err)
	for i := range combos {
		assert.Equal(t, combos[i].ParamSetID, again[i].ParamSetID)
	}
}

func TestGrid_SampledCombinations(t *testing.T) {
	grid := testGrid()
	grid.MaxCombinations = 5

	first, err := grid.Combinations(7)
	require.NoError(t, err)
	require.Len(t, first, 5)

	// Same seed selects the same subset
	second, err := grid.Combinations(7)
	require.NoError(t, err)
	for i := range first {
		assert.Equal(t, first[i].ParamSetID, second[i].ParamSetID)
	}

	// A different seed may select differently, but never more than the cap
	other, err := grid.Combinations(8)
	require.NoError(t, err)
	assert.Len(t, other, 5)
}

func TestSearcher_Run(t *testing.T) {
	store, players := seedBacktestStore(t, 10, 10)
	optStore := memory.NewOptimizationStore()
	searcher := NewSearcher(NewBacktester(store), optStore, nil)

	run, err := searcher.Run(context.Background(), testGrid(), players, 1, 8, 9, 42, 5)
	require.NoError(t, err)

	assert.Equal(t, idhash.ComputeRunID(1, 8, 9, 42), run.RunID)
	assert.Equal(t, int64(42), run.Seed)
	assert.Equal(t, "rmse", run.PrimaryMetric)
	require.Len(t, run.Entries, 12)

	// Best is the lowest RMSE among entries
	require.NotNil(t, run.BestMetrics)
	for _, e := range run.Entries {
		assert.GreaterOrEqual(t, e.Metrics.RMSE, run.BestMetrics.RMSE)
	}
	require.NotNil(t, run.BestParamSet)
}

func TestSearcher_ResumeSkipsRecordedEntries(t *testing.T) {
	store, players := seedBacktestStore(t, 8, 10)
	optStore := memory.NewOptimizationStore()
	searcher := NewSearcher(NewBacktester(store), optStore, nil)
	ctx := context.Background()

	first, err := searcher.Run(ctx, testGrid(), players, 1, 8, 9, 42, 5)
	require.NoError(t, err)
	require.Len(t, first.Entries, 12)

	// Re-running the identical search resumes the same run without
	// duplicating entries
	second, err := searcher.Run(ctx, testGrid(), players, 1, 8, 9, 42, 5)
	require.NoError(t, err)
	assert.Equal(t, first.RunID, second.RunID)
	assert.Len(t, second.Entries, 12)

	for i := range first.Entries {
		assert.Equal(t, first.Entries[i].ParamSetID, second.Entries[i].ParamSetID)
		assert.Equal(t, first.Entries[i].ComputedAt, second.Entries[i].ComputedAt,
			"entry %d was recomputed on resume", i)
	}
}

func TestSearcher_DistinctSeedsDistinctRuns(t *testing.T) {
	store, players := seedBacktestStore(t, 6, 10)
	optStore := memory.NewOptimizationStore()
	searcher := NewSearcher(NewBacktester(store), optStore, nil)
	ctx := context.Background()

	runA, err := searcher.Run(ctx, testGrid(), players, 1, 8, 9, 1, 5)
	require.NoError(t, err)
	runB, err := searcher.Run(ctx, testGrid(), players, 1, 8, 9, 2, 5)
	require.NoError(t, err)

	assert.NotEqual(t, runA.RunID, runB.RunID)
}
