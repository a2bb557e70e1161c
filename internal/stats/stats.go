// Package stats holds the small numeric helpers shared by the analyzers.
package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// HoursPerYear annualizes hourly-cadence returns.
const HoursPerYear = 365 * 24

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}

// SampleStd returns the n-1 standard deviation, or 0 with fewer than two values.
func SampleStd(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	return stat.StdDev(x, nil)
}

// MinMax returns the extremes of x. Both are 0 for an empty slice.
func MinMax(x []float64) (float64, float64) {
	if len(x) == 0 {
		return 0, 0
	}
	return floats.Min(x), floats.Max(x)
}

// LinearSlope fits y = a + b*i over i = 0..n-1 and returns b.
// Fewer than two points have no slope.
func LinearSlope(y []float64) float64 {
	n := len(y)
	if n < 2 {
		return 0
	}
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}
	_, beta := stat.LinearRegression(x, y, nil, false)
	if math.IsNaN(beta) {
		return 0
	}
	return beta
}

// CosineSimilarity of two equal-length vectors. Zero vectors compare as 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}

// Sharpe returns mean/std annualized for hourly observations.
func Sharpe(returns []float64) float64 {
	std := SampleStd(returns)
	if std == 0 {
		return 0
	}
	return Mean(returns) / std * math.Sqrt(HoursPerYear)
}

// PercentileRank is the share of values at or below current, in percent.
func PercentileRank(values []float64, current float64) float64 {
	if len(values) == 0 {
		return 0
	}
	count := 0
	for _, v := range values {
		if v <= current {
			count++
		}
	}
	return float64(count) / float64(len(values)) * 100
}

// Round rounds half to even at the given number of decimal places.
func Round(x float64, places int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	pow := math.Pow(10, float64(places))
	return math.RoundToEven(x*pow) / pow
}

// Clamp bounds x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// Finite reports whether every value is a real number.
func Finite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
