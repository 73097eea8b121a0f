// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/qslp-calculator/pkg/constants"
	"github.com/shopspring/decimal"
)

// RoundWhole rounds a value to the nearest whole currency unit, half away from
// zero. NaN and infinities round to zero.
func RoundWhole(val float64) float64 {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return 0
	}
	rounded, _ := decimal.NewFromFloat(val).Round(0).Float64()
	return rounded
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// Min returns the minimum of two float64 values
func Min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// Max returns the maximum of two float64 values
func Max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Clamp bounds val to [lo, hi]. When hi < lo the lower bound wins.
func Clamp(val, lo, hi float64) float64 {
	return Max(lo, Min(val, hi))
}

// NonNegative replaces negative and NaN values with zero.
func NonNegative(val float64) float64 {
	if math.IsNaN(val) || val < 0 {
		return 0
	}
	return val
}

// CalculatePercentage calculates what percentage value is of total
func CalculatePercentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return (value / total) * constants.PercentageMultiplier
}
