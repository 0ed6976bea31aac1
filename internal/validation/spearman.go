package validation

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// Spearman computes the rank correlation between predicted and actual values
// and its two-tailed significance. Ranks average over ties, then Pearson
// correlation is taken over the ranks. Degenerate inputs (fewer than three
// observations, or zero variance in either ranking) normalize to rho 0 with
// p-value 1 instead of NaN.
func Spearman(predicted, actual []float64) (rho, pValue float64) {
	n := len(predicted)
	if n != len(actual) || n < 3 {
		return 0, 1
	}

	rho = pearson(rank(predicted), rank(actual))
	if math.IsNaN(rho) {
		return 0, 1
	}

	// t-approximation for significance: t = rho * sqrt((n-2)/(1-rho^2))
	df := float64(n - 2)
	if rho >= 1 || rho <= -1 {
		return rho, 0
	}
	t := rho * math.Sqrt(df/(1-rho*rho))

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	pValue = 2 * (1 - tDist.CDF(math.Abs(t)))
	if math.IsNaN(pValue) {
		pValue = 1
	}
	return rho, pValue
}

// rank assigns 1-based ranks, averaging over tied values.
func rank(data []float64) []float64 {
	n := len(data)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return data[idx[a]] < data[idx[b]]
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && data[idx[j+1]] == data[idx[i]] {
			j++
		}
		// Tied block [i, j] shares the average rank
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}

// pearson computes the Pearson correlation coefficient. Returns NaN when
// either input has zero variance.
func pearson(x, y []float64) float64 {
	n := float64(len(x))
	var sumX, sumY, sumXY, sumX2, sumY2 float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
		sumY2 += y[i] * y[i]
	}

	numerator := n*sumXY - sumX*sumY
	denomX := n*sumX2 - sumX*sumX
	denomY := n*sumY2 - sumY*sumY
	if denomX <= 0 || denomY <= 0 {
		return math.NaN()
	}
	return numerator / math.Sqrt(denomX*denomY)
}
