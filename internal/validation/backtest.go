package validation

import (
	"context"
	"fmt"

	"fantasy-value-lab/internal/domain"
	"fantasy-value-lab/internal/formula"
	"fantasy-value-lab/internal/history"
	"fantasy-value-lab/internal/storage"
)

// DefaultPrecisionK is the precision@K depth used when a caller passes no
// explicit K.
const DefaultPrecisionK = 10

// Backtester evaluates a parameter set on a train/test split: predictions
// are computed from the training window only, then scored against realized
// outcomes in the held-out test gameweek.
type Backtester struct {
	snapshots storage.SnapshotStore
}

// NewBacktester creates a new backtester reading from the given store.
func NewBacktester(snapshots storage.SnapshotStore) *Backtester {
	return &Backtester{snapshots: snapshots}
}

// BacktestResult is the outcome of one train/test evaluation.
type BacktestResult struct {
	Params       *domain.ParameterSet
	TrainFrom    int
	TrainTo      int
	TestGameweek int

	Metrics domain.ValidationMetrics
	Strata  []domain.StratumMetrics
	Pairs   []Pair

	// Players whose test-gameweek outcome was absent. Absent outcomes are
	// excluded from every statistic, never treated as zero points.
	ExcludedAbsent int
}

// Run evaluates params over playerIDs. Each player's prediction is computed
// from snapshots in [trainFrom, trainTo] only, then paired with the realized
// points of testGameweek. k <= 0 selects DefaultPrecisionK.
func (b *Backtester) Run(ctx context.Context, params *domain.ParameterSet, playerIDs []string, trainFrom, trainTo, testGameweek, k int) (*BacktestResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if trainFrom < 1 || trainTo < trainFrom {
		return nil, fmt.Errorf("%w: train window [%d, %d]", storage.ErrInvalidInput, trainFrom, trainTo)
	}
	if testGameweek <= trainTo {
		return nil, fmt.Errorf("%w: test gameweek %d not after train window end %d",
			storage.ErrInvalidInput, testGameweek, trainTo)
	}
	if k <= 0 {
		k = DefaultPrecisionK
	}

	result := &BacktestResult{
		Params:       params,
		TrainFrom:    trainFrom,
		TrainTo:      trainTo,
		TestGameweek: testGameweek,
	}

	for _, playerID := range playerIDs {
		records, err := b.snapshots.GetByPlayerAsOf(ctx, playerID, trainTo)
		if err != nil {
			return nil, fmt.Errorf("player %s: load snapshots: %w", playerID, err)
		}

		full := history.Build(playerID, records)
		visible := history.AsOf(full, trainTo)
		trimToWindow(visible, trainFrom)

		pred, err := formula.Evaluate(visible, params, trainTo)
		if err != nil {
			return nil, fmt.Errorf("player %s: %w", playerID, err)
		}

		actual, err := b.snapshots.GetRealizedPoints(ctx, playerID, testGameweek)
		if err != nil {
			return nil, fmt.Errorf("player %s: realized points: %w", playerID, err)
		}
		if actual == nil {
			result.ExcludedAbsent++
			continue
		}

		pair := Pair{
			PlayerID:  playerID,
			Gameweek:  testGameweek,
			Predicted: pred.FinalValue,
			Actual:    *actual,
			Position:  pred.Position,
			Price:     pred.Price,
		}
		if latest := visible.Latest(); latest != nil {
			pair.Difficulty = latest.FixtureDifficulty
		}
		result.Pairs = append(result.Pairs, pair)
	}

	result.Metrics = ComputeMetrics(result.Pairs, k)
	result.Strata = ComputeStrata(result.Pairs, k)
	return result, nil
}

// trimToWindow drops snapshots before trainFrom in place, so the training
// window's start bound holds as strictly as its end bound.
func trimToWindow(h *domain.PlayerHistory, trainFrom int) {
	start := 0
	for start < len(h.Snapshots) && h.Snapshots[start].Gameweek < trainFrom {
		start++
	}
	h.Snapshots = h.Snapshots[start:]
}
