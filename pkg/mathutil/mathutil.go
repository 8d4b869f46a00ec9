// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/invoice-roi/pkg/constants"
)

// IsZero checks if a value is effectively zero (within tolerance)
func IsZero(val float64) bool {
	return math.Abs(val) <= constants.CurrencyTolerance
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// FloorZero clamps a value to a floor of zero. Non-finite values also
// collapse to zero so a projection never reports NaN or Inf.
func FloorZero(val float64) float64 {
	if math.IsNaN(val) || math.IsInf(val, 0) || val < 0 {
		return 0
	}
	return val
}

// SafeDivide divides numerator by divisor and returns 0 when the divisor is
// zero or the quotient is not finite.
func SafeDivide(numerator, divisor float64) float64 {
	if divisor == 0 {
		return 0
	}
	q := numerator / divisor
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return 0
	}
	return q
}

// CalculatePercentage calculates what percentage value is of total
func CalculatePercentage(value, total float64) float64 {
	return SafeDivide(value, total) * constants.PercentageMultiplier
}

// PercentToRatio converts a percentage-scaled value (0-100) to a ratio (0-1).
func PercentToRatio(percent float64) float64 {
	return percent / constants.PercentageMultiplier
}

// RatioToPercent converts a ratio (0-1) to a percentage-scaled value.
func RatioToPercent(ratio float64) float64 {
	return ratio * constants.PercentageMultiplier
}
