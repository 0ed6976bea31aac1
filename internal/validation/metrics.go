// Package validation measures prediction accuracy against realized outcomes
// and searches parameter space for better-scoring configurations. Every
// statistic travels with its sample size so small-N results are never read
// with full-season confidence.
package validation

import (
	"math"
	"sort"

	"fantasy-value-lab/internal/domain"
)

// Pair is one (prediction, realized outcome) comparison unit, annotated with
// the context needed for stratified breakdowns.
type Pair struct {
	PlayerID  string
	Gameweek  int
	Predicted float64
	Actual    float64

	Position   domain.Position
	Difficulty *float64
	Price      float64
}

// ComputeMetrics aggregates accuracy statistics over pairs. k is the
// requested precision@K depth; when the sample is smaller than k, K reduces
// to the sample size and KUsed records what was actually applied. An empty
// pair set yields zeroed metrics with SampleSize 0.
func ComputeMetrics(pairs []Pair, k int) domain.ValidationMetrics {
	n := len(pairs)
	if n == 0 {
		return domain.ValidationMetrics{}
	}

	var sumSq, sumAbs float64
	predicted := make([]float64, n)
	actual := make([]float64, n)
	for i, p := range pairs {
		diff := p.Predicted - p.Actual
		sumSq += diff * diff
		sumAbs += math.Abs(diff)
		predicted[i] = p.Predicted
		actual[i] = p.Actual
	}

	rho, pValue := Spearman(predicted, actual)

	kUsed := k
	if kUsed > n {
		kUsed = n
	}

	return domain.ValidationMetrics{
		RMSE:           math.Sqrt(sumSq / float64(n)),
		MAE:            sumAbs / float64(n),
		SpearmanRho:    rho,
		SpearmanPValue: pValue,
		PrecisionAtK:   precisionAtK(pairs, kUsed),
		KUsed:          kUsed,
		SampleSize:     n,
	}
}

// precisionAtK computes the overlap fraction between the predicted top-k and
// the actual top-k. Ties at the boundary resolve by player id so the metric
// is deterministic.
func precisionAtK(pairs []Pair, k int) float64 {
	if k <= 0 {
		return 0
	}

	topPredicted := topKPlayers(pairs, k, func(p Pair) float64 { return p.Predicted })
	topActual := topKPlayers(pairs, k, func(p Pair) float64 { return p.Actual })

	hits := 0
	for id := range topPredicted {
		if _, ok := topActual[id]; ok {
			hits++
		}
	}
	return float64(hits) / float64(k)
}

func topKPlayers(pairs []Pair, k int, value func(Pair) float64) map[string]struct{} {
	ranked := make([]Pair, len(pairs))
	copy(ranked, pairs)
	sort.Slice(ranked, func(i, j int) bool {
		vi, vj := value(ranked[i]), value(ranked[j])
		if vi != vj {
			return vi > vj
		}
		return ranked[i].PlayerID < ranked[j].PlayerID
	})

	top := make(map[string]struct{}, k)
	for i := 0; i < k && i < len(ranked); i++ {
		top[ranked[i].PlayerID] = struct{}{}
	}
	return top
}
