package verification

import (
	"context"
	"errors"

	"fantasy-value-lab/internal/domain"
	"fantasy-value-lab/internal/formula"
	"fantasy-value-lab/internal/history"
	"fantasy-value-lab/internal/storage"
)

var (
	// ErrPredictionNotFound is returned when the prediction ID doesn't exist.
	ErrPredictionNotFound = errors.New("prediction not found")

	// ErrParameterSetNotFound is returned when the referenced parameter set
	// doesn't exist.
	ErrParameterSetNotFound = errors.New("parameter set not found")
)

// RecomputeVerifier implements Verifier by re-running the formula over the
// same append-only snapshot window the stored prediction was computed from.
type RecomputeVerifier struct {
	predictions storage.PredictionStore
	snapshots   storage.SnapshotStore
	paramSets   storage.ParameterSetStore
}

// RecomputeVerifierOptions contains configuration for creating a RecomputeVerifier.
type RecomputeVerifierOptions struct {
	Predictions storage.PredictionStore
	Snapshots   storage.SnapshotStore
	ParamSets   storage.ParameterSetStore
}

// NewRecomputeVerifier creates a new RecomputeVerifier.
func NewRecomputeVerifier(opts RecomputeVerifierOptions) *RecomputeVerifier {
	return &RecomputeVerifier{
		predictions: opts.Predictions,
		snapshots:   opts.Snapshots,
		paramSets:   opts.ParamSets,
	}
}

// VerifyPrediction verifies a single prediction by recomputing it.
func (v *RecomputeVerifier) VerifyPrediction(ctx context.Context, predictionID string) (*VerificationResult, error) {
	stored, err := v.predictions.GetByID(ctx, predictionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrPredictionNotFound
		}
		return nil, err
	}
	return v.verify(ctx, stored)
}

// VerifySeries verifies every stored prediction for one parameter set across
// [from, to] gameweeks. A prediction that fails to recompute is recorded as
// divergent rather than aborting the batch.
func (v *RecomputeVerifier) VerifySeries(ctx context.Context, paramSetID string, from, to int) (*VerificationReport, error) {
	series, err := v.predictions.GetSeries(ctx, paramSetID, from, to)
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{
		TotalPredictions: len(series),
		Results:          make([]VerificationResult, 0, len(series)),
	}

	for _, stored := range series {
		result, err := v.verify(ctx, stored)
		if err != nil {
			report.Results = append(report.Results, VerificationResult{
				PredictionID: stored.PredictionID,
				Match:        false,
				StoredValue:  stored.FinalValue,
				Divergences: []FieldDivergence{
					{Field: "Error", Expected: nil, Actual: err.Error()},
				},
			})
			report.DivergentPredictions++
			continue
		}

		report.Results = append(report.Results, *result)
		if result.Match {
			report.MatchedPredictions++
		} else {
			report.DivergentPredictions++
		}
	}

	return report, nil
}

// verify recomputes one stored prediction and compares field by field.
func (v *RecomputeVerifier) verify(ctx context.Context, stored *domain.Prediction) (*VerificationResult, error) {
	params, err := v.paramSets.GetByID(ctx, stored.ParamSetID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrParameterSetNotFound
		}
		return nil, err
	}

	records, err := v.snapshots.GetByPlayerAsOf(ctx, stored.PlayerID, stored.Gameweek)
	if err != nil {
		return nil, err
	}

	h := history.Build(stored.PlayerID, records)
	recomputed, err := formula.Evaluate(h, params, stored.Gameweek)
	if err != nil {
		return nil, err
	}

	divergences := ComparePredictions(stored, recomputed)
	return &VerificationResult{
		PredictionID:  stored.PredictionID,
		Match:         len(divergences) == 0,
		Divergences:   divergences,
		StoredValue:   stored.FinalValue,
		RecomputedVal: recomputed.FinalValue,
	}, nil
}

var _ Verifier = (*RecomputeVerifier)(nil)
