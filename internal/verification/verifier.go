// Package verification proves that stored predictions are reproducible: it
// re-evaluates the formula over the same snapshot window and parameter set
// and compares every field of the stored row against the fresh computation.
package verification

import (
	"context"
	"math"
	"slices"

	"fantasy-value-lab/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons. A recomputed
// value further than this from the stored one counts as divergent.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between stored and recomputed values.
type FieldDivergence struct {
	Field    string      // field name
	Expected interface{} // stored value
	Actual   interface{} // recomputed value
}

// VerificationResult contains the result of verifying a single prediction.
type VerificationResult struct {
	PredictionID  string            // verified prediction ID
	Match         bool              // true if all fields match
	Divergences   []FieldDivergence // list of divergent fields
	StoredValue   float64           // final value from the stored prediction
	RecomputedVal float64           // final value from the fresh evaluation
}

// VerificationReport contains results for batch verification.
type VerificationReport struct {
	TotalPredictions     int                  // total predictions verified
	MatchedPredictions   int                  // predictions that matched exactly
	DivergentPredictions int                  // predictions with divergences
	Results              []VerificationResult // individual results
}

// Verifier interface for prediction recomputation verification.
type Verifier interface {
	// VerifyPrediction verifies a single prediction by ID. It loads the
	// stored row, re-evaluates the formula over the same inputs, and
	// compares all fields.
	VerifyPrediction(ctx context.Context, predictionID string) (*VerificationResult, error)

	// VerifySeries verifies every stored prediction for one parameter set
	// across a gameweek range. Returns a report with individual results.
	VerifySeries(ctx context.Context, paramSetID string, from, to int) (*VerificationReport, error)
}

// ComparePredictions compares a stored prediction against a recomputation
// and returns divergences. Float fields use FloatTolerance; identifiers
// match exactly. ComputedAt is a persistence timestamp and is excluded.
func ComparePredictions(stored, recomputed *domain.Prediction) []FieldDivergence {
	var divergences []FieldDivergence

	exact := []struct {
		field            string
		stored, computed string
	}{
		{"PredictionID", stored.PredictionID, recomputed.PredictionID},
		{"PlayerID", stored.PlayerID, recomputed.PlayerID},
		{"ParamSetID", stored.ParamSetID, recomputed.ParamSetID},
		{"Position", string(stored.Position), string(recomputed.Position)},
	}
	for _, f := range exact {
		if f.stored != f.computed {
			divergences = append(divergences, FieldDivergence{
				Field:    f.field,
				Expected: f.stored,
				Actual:   f.computed,
			})
		}
	}

	if stored.Gameweek != recomputed.Gameweek {
		divergences = append(divergences, FieldDivergence{
			Field:    "Gameweek",
			Expected: stored.Gameweek,
			Actual:   recomputed.Gameweek,
		})
	}

	floats := []struct {
		field            string
		stored, computed float64
	}{
		{"BlendedBaseline", stored.BlendedBaseline, recomputed.BlendedBaseline},
		{"FormMultiplier", stored.FormMultiplier, recomputed.FormMultiplier},
		{"FixtureMultiplier", stored.FixtureMultiplier, recomputed.FixtureMultiplier},
		{"StarterMultiplier", stored.StarterMultiplier, recomputed.StarterMultiplier},
		{"RatioMultiplier", stored.RatioMultiplier, recomputed.RatioMultiplier},
		{"FinalValue", stored.FinalValue, recomputed.FinalValue},
		{"ValuePerPrice", stored.ValuePerPrice, recomputed.ValuePerPrice},
		{"Price", stored.Price, recomputed.Price},
	}
	for _, f := range floats {
		if !floatEquals(f.stored, f.computed) {
			divergences = append(divergences, FieldDivergence{
				Field:    f.field,
				Expected: f.stored,
				Actual:   f.computed,
			})
		}
	}

	if !slices.Equal(stored.NeutralReasons, recomputed.NeutralReasons) {
		divergences = append(divergences, FieldDivergence{
			Field:    "NeutralReasons",
			Expected: stored.NeutralReasons,
			Actual:   recomputed.NeutralReasons,
		})
	}

	return divergences
}

// floatEquals compares floats within FloatTolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}
