package trend

import (
	"context"
	"fmt"
	"sort"

	"fantasy-value-lab/internal/domain"
	"fantasy-value-lab/internal/storage"
)

// SeriesComparison holds one parameter set's recomputed series.
type SeriesComparison struct {
	ParamSetID  string
	Params      *domain.ParameterSet
	Predictions []*domain.Prediction
}

// Divergence is the per-triple difference in final value between two
// parameter sets evaluated over identical inputs.
type Divergence struct {
	PlayerID string
	Gameweek int
	BaseID   string
	OtherID  string
	Base     float64
	Other    float64
	Delta    float64 // Other - Base
}

// Compare recomputes the same window under each parameter set. Sets are
// evaluated sequentially over identical snapshot reads, so any output
// difference is attributable to the parameters alone.
func (e *Engine) Compare(ctx context.Context, paramSets []*domain.ParameterSet, playerIDs []string, from, to int) ([]*SeriesComparison, error) {
	if len(paramSets) == 0 {
		return nil, fmt.Errorf("%w: no parameter sets", storage.ErrInvalidInput)
	}

	comparisons := make([]*SeriesComparison, 0, len(paramSets))
	for _, params := range paramSets {
		preds, err := e.ComputeSeries(ctx, params, playerIDs, from, to)
		if err != nil {
			return nil, fmt.Errorf("parameter set %s: %w", params.ParamSetID, err)
		}
		comparisons = append(comparisons, &SeriesComparison{
			ParamSetID:  params.ParamSetID,
			Params:      params,
			Predictions: preds,
		})
	}
	return comparisons, nil
}

// Diverge pairs two comparison series triple by triple and reports final
// value deltas, largest absolute delta first. Triples missing from either
// side are skipped.
func Diverge(base, other *SeriesComparison) []Divergence {
	type key struct {
		playerID string
		gameweek int
	}
	baseline := make(map[key]*domain.Prediction, len(base.Predictions))
	for _, p := range base.Predictions {
		baseline[key{p.PlayerID, p.Gameweek}] = p
	}

	var divergences []Divergence
	for _, p := range other.Predictions {
		b, ok := baseline[key{p.PlayerID, p.Gameweek}]
		if !ok {
			continue
		}
		divergences = append(divergences, Divergence{
			PlayerID: p.PlayerID,
			Gameweek: p.Gameweek,
			BaseID:   base.ParamSetID,
			OtherID:  other.ParamSetID,
			Base:     b.FinalValue,
			Other:    p.FinalValue,
			Delta:    p.FinalValue - b.FinalValue,
		})
	}

	sort.Slice(divergences, func(i, j int) bool {
		di, dj := abs(divergences[i].Delta), abs(divergences[j].Delta)
		if di != dj {
			return di > dj
		}
		if divergences[i].Gameweek != divergences[j].Gameweek {
			return divergences[i].Gameweek < divergences[j].Gameweek
		}
		return divergences[i].PlayerID < divergences[j].PlayerID
	})
	return divergences
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
