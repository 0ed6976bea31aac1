package validation

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pairsFromValues(predicted, actual []float64) []Pair {
	pairs := make([]Pair, len(predicted))
	for i := range predicted {
		pairs[i] = Pair{
			PlayerID:  fmt.Sprintf("player-%02d", i),
			Gameweek:  10,
			Predicted: predicted[i],
			Actual:    actual[i],
		}
	}
	return pairs
}

func TestComputeMetrics_PerfectPrediction(t *testing.T) {
	values := []float64{2.0, 4.5, 6.0, 3.2, 8.8, 5.1}
	m := ComputeMetrics(pairsFromValues(values, values), 3)

	assert.InDelta(t, 0.0, m.RMSE, 1e-12)
	assert.InDelta(t, 0.0, m.MAE, 1e-12)
	assert.InDelta(t, 1.0, m.SpearmanRho, 1e-9)
	assert.InDelta(t, 1.0, m.PrecisionAtK, 1e-12)
	assert.Equal(t, 3, m.KUsed)
	assert.Equal(t, 6, m.SampleSize)
}

func TestComputeMetrics_KnownValues(t *testing.T) {
	predicted := []float64{5.0, 3.0, 7.0}
	actual := []float64{4.0, 5.0, 6.0}
	// errors: 1, -2, 1
	m := ComputeMetrics(pairsFromValues(predicted, actual), 2)

	assert.InDelta(t, math.Sqrt(6.0/3.0), m.RMSE, 1e-12)
	assert.InDelta(t, 4.0/3.0, m.MAE, 1e-12)
}

func TestComputeMetrics_RMSEAtLeastMAE(t *testing.T) {
	cases := [][2][]float64{
		{{5, 3, 7, 2, 9}, {4, 5, 6, 1, 10}},
		{{1, 1, 1, 1}, {2, 0, 3, -1}},
		{{0.5, 8.2, 3.3, 6.1, 2.9, 7.7}, {1.0, 7.0, 4.0, 5.5, 3.5, 9.0}},
	}
	for i, c := range cases {
		m := ComputeMetrics(pairsFromValues(c[0], c[1]), 3)
		assert.GreaterOrEqual(t, m.RMSE, m.MAE, "case %d", i)
	}
}

func TestComputeMetrics_KReducedToSampleSize(t *testing.T) {
	predicted := []float64{5.0, 3.0, 7.0}
	m := ComputeMetrics(pairsFromValues(predicted, predicted), 10)

	assert.Equal(t, 3, m.KUsed)
	assert.InDelta(t, 1.0, m.PrecisionAtK, 1e-12)
}

func TestComputeMetrics_PrecisionBounds(t *testing.T) {
	predicted := []float64{10, 9, 8, 1, 2, 3}
	actual := []float64{1, 2, 3, 10, 9, 8} // top-3 fully disjoint
	m := ComputeMetrics(pairsFromValues(predicted, actual), 3)
	assert.InDelta(t, 0.0, m.PrecisionAtK, 1e-12)

	partial := []float64{10, 9, 1, 2, 8, 3} // two of predicted top-3 overlap
	m = ComputeMetrics(pairsFromValues(predicted, partial), 3)
	assert.InDelta(t, 2.0/3.0, m.PrecisionAtK, 1e-12)
}

func TestComputeMetrics_Empty(t *testing.T) {
	m := ComputeMetrics(nil, 5)
	require.Equal(t, 0, m.SampleSize)
	assert.Zero(t, m.RMSE)
	assert.Zero(t, m.KUsed)
}
