// Package numeric holds the small arithmetic helpers shared by the control
// laws. Every operation that could be undefined clamps its operand first.
package numeric

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Clamp limits value to [minimum, maximum].
func Clamp[T constraints.Ordered](value, minimum, maximum T) T {
	if value < minimum {
		return minimum
	}
	if value > maximum {
		return maximum
	}
	return value
}

// Sign returns -1, 0 or 1.
func Sign[T constraints.Signed | constraints.Float](value T) T {
	if value > 0 {
		return 1
	}
	if value < 0 {
		return -1
	}
	return 0
}

// Lerp blends a toward b; f = 0 gives a, f = 1 gives b.
func Lerp(a, b, f float64) float64 {
	return (1-f)*a + f*b
}

// SafeDiv returns fallback when the denominator is zero or not finite.
func SafeDiv(numerator, denominator, fallback float64) float64 {
	if denominator == 0 || math.IsNaN(denominator) || math.IsInf(denominator, 0) {
		return fallback
	}
	return numerator / denominator
}

func SafeAsin(x float64) float64 {
	return math.Asin(Clamp(x, -1, 1))
}

// BoolToFloat maps true to 1.
func BoolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

const (
	KnotsToMetersPerSecond         = 0.5144
	FeetPerMinuteToMetersPerSecond = 0.00508
	Gravity                        = 9.81
	RadiansToDegrees               = 180 / math.Pi
	DegreesToRadians               = math.Pi / 180
)

func ToDegrees(radians float64) float64 {
	return radians * RadiansToDegrees
}

func ToRadians(degrees float64) float64 {
	return degrees * DegreesToRadians
}
