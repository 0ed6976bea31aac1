package validation

import (
	"context"
	"fmt"

	"github.com/montanaflynn/stats"

	"fantasy-value-lab/internal/domain"
	"fantasy-value-lab/internal/storage"
)

// MinFoldPairs is the smallest sample a fold must produce to contribute to
// cross-validation aggregates. Smaller folds are counted as skipped.
const MinFoldPairs = 5

// CrossValidate runs rolling-origin evaluation: each gameweek in
// [firstTest, lastTest] becomes a test fold trained on everything from
// trainFrom up to the fold's eve. The result reports per-fold metrics plus
// their mean and standard deviation, so a parameter set that wins on average
// but swings wildly across folds is visible as such.
func CrossValidate(ctx context.Context, backtester *Backtester, params *domain.ParameterSet, playerIDs []string, trainFrom, firstTest, lastTest, k int) (*domain.CrossValidationResult, error) {
	if firstTest <= trainFrom || lastTest < firstTest {
		return nil, fmt.Errorf("%w: fold range [%d, %d] with train start %d",
			storage.ErrInvalidInput, firstTest, lastTest, trainFrom)
	}

	result := &domain.CrossValidationResult{ParamSetID: params.ParamSetID}

	var rmses, maes, rhos []float64
	for testGW := firstTest; testGW <= lastTest; testGW++ {
		fold, err := backtester.Run(ctx, params, playerIDs, trainFrom, testGW-1, testGW, k)
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", testGW, err)
		}
		if fold.Metrics.SampleSize < MinFoldPairs {
			result.FoldsSkipped++
			continue
		}

		result.Folds = append(result.Folds, fold.Metrics)
		result.TotalPairs += fold.Metrics.SampleSize
		rmses = append(rmses, fold.Metrics.RMSE)
		maes = append(maes, fold.Metrics.MAE)
		rhos = append(rhos, fold.Metrics.SpearmanRho)
	}

	if len(result.Folds) == 0 {
		return result, nil
	}

	var err error
	if result.MeanRMSE, result.StddevRMSE, err = meanStddev(rmses); err != nil {
		return nil, err
	}
	if result.MeanMAE, result.StddevMAE, err = meanStddev(maes); err != nil {
		return nil, err
	}
	if result.MeanRho, result.StddevRho, err = meanStddev(rhos); err != nil {
		return nil, err
	}
	return result, nil
}

func meanStddev(values []float64) (mean, stddev float64, err error) {
	mean, err = stats.Mean(values)
	if err != nil {
		return 0, 0, fmt.Errorf("mean: %w", err)
	}
	if len(values) < 2 {
		return mean, 0, nil
	}
	stddev, err = stats.StandardDeviationSample(values)
	if err != nil {
		return 0, 0, fmt.Errorf("stddev: %w", err)
	}
	return mean, stddev, nil
}
