package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// WeightedMean returns Σ(x·w)/Σ(w). ok is false when the slices are empty,
// differ in length, or the weights sum to zero.
func WeightedMean(data, weights []float64) (float64, bool) {
	if len(data) == 0 || len(data) != len(weights) {
		return 0, false
	}
	if floats.Sum(weights) <= 0 {
		return 0, false
	}
	return stat.Mean(data, weights), true
}

// PercentRank returns the mid-rank percentile of x within population:
// (count below + half of count equal) / n, in [0, 1].
// The result does not depend on the order of population.
func PercentRank(x float64, population []float64) (float64, bool) {
	if len(population) == 0 {
		return 0, false
	}
	sorted := append([]float64(nil), population...)
	sort.Float64s(sorted)
	below := sort.SearchFloat64s(sorted, x)
	upTo := sort.Search(len(sorted), func(i int) bool { return sorted[i] > x })
	equal := upTo - below
	return (float64(below) + 0.5*float64(equal)) / float64(len(sorted)), true
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// Lerp maps x linearly from [from, to] onto [-1, 1], clamped. from is the
// "bad" end and to the "good" end, so from may be larger than to.
func Lerp(x, from, to float64) float64 {
	if from == to {
		if x >= to {
			return 1
		}
		return -1
	}
	t := (x - from) / (to - from)
	return Clamp(2*t-1, -1, 1)
}
