package numeric

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultEpsilon is the denominator guard used by every ratio feature.
const DefaultEpsilon = 1e-6

// Policy carries the epsilon used for guarded division.
type Policy struct {
	Epsilon float64
}

// DefaultPolicy returns a policy with DefaultEpsilon.
func DefaultPolicy() Policy {
	return Policy{Epsilon: DefaultEpsilon}
}

// Div returns num / (den + ε).
func (p Policy) Div(num, den float64) float64 {
	return num / (den + p.Epsilon)
}

// Clean maps ±Inf and NaN to zero and returns finite values unchanged.
func Clean(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// CleanSlice applies Clean in place and reports how many values were replaced.
func CleanSlice(values []float64) int {
	replaced := 0
	for i, v := range values {
		if !IsFinite(v) {
			values[i] = 0
			replaced++
		}
	}
	return replaced
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Mean is the arithmetic mean of xs.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, nil)
}

// StdDev is the sample standard deviation (n-1 denominator). It is NaN for
// fewer than two observations.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.StdDev(xs, nil)
}

// Sum adds xs.
func Sum(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return floats.Sum(xs)
}

// Max returns the largest element of xs.
func Max(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return floats.Max(xs)
}

// Min returns the smallest element of xs.
func Min(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return floats.Min(xs)
}

// Range is Max(xs) - Min(xs).
func Range(xs []float64) float64 {
	return Max(xs) - Min(xs)
}
