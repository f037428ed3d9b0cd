package domain

import (
	"math"

	"github.com/guregu/null/v6"
)

// Value is a numeric result that may be undefined. Undefined marshals to JSON
// null and never takes part in arithmetic, unlike NaN which would propagate
// silently through weighted aggregation.
//
// The third state, "not requested", is the absence of a key in a result map.
type Value = null.Float

// Defined wraps a computed number. NaN and ±Inf collapse to Undefined so that
// a degenerate division can never leak into later sums.
func Defined(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return null.Float{}
	}
	return null.FloatFrom(f)
}

// Undefined returns the undefined value.
func Undefined() Value {
	return null.Float{}
}

// Ratio divides numerator by denominator. The result is undefined when either
// input is undefined or the denominator is zero; with positiveOnly set it is
// also undefined for negative denominators.
func Ratio(numerator, denominator Value, positiveOnly bool) Value {
	if !numerator.Valid || !denominator.Valid {
		return Undefined()
	}
	d := denominator.Float64
	if d == 0 || (positiveOnly && d < 0) {
		return Undefined()
	}
	return Defined(numerator.Float64 / d)
}
