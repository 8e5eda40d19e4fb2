// Package angle has wrap-around arithmetic for headings and bank angles.
// Every value is normalised into a half-open range before it is compared or
// subtracted.
package angle

import (
	"math"
)

type Degrees = float64

// Mod is the floored modulo: the result has the sign of the divisor. A zero
// divisor returns x unchanged, and quotients within rounding error of an
// integer return exactly 0.
func Mod(x, y float64) float64 {
	if y == 0 {
		return x
	}
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) {
		return math.NaN()
	}
	if math.IsInf(y, 0) {
		if x == 0 || (x > 0) == (y > 0) {
			return x
		}
		return y
	}
	if x == 0 {
		return 0
	}
	q := x / y
	if math.Abs(q-math.Round(q)) <= 2.2204460492503131e-16*math.Abs(q) {
		return 0
	}
	r := math.Mod(x, y)
	if r != 0 && (r < 0) != (y < 0) {
		r += y
	}
	return r
}

// Normalize360 maps an angle into [0, 360).
func Normalize360(a Degrees) Degrees {
	r := Mod(a, 360)
	if r >= 360 {
		return 0
	}
	return r
}

// Normalize180 maps an angle into [-180, 180).
func Normalize180(a Degrees) Degrees {
	return Normalize360(a+180) - 180
}

// Difference returns the signed shortest rotation from current to target,
// in [-180, 180). Positive means turn right.
func Difference(target, current Degrees) Degrees {
	return Normalize180(Normalize360(target) - Normalize360(current))
}

// GetAngleTo returns the unsigned size of the turn from bearing to goal.
func GetAngleTo(bearing, goal Degrees) Degrees {
	return math.Abs(Difference(goal, bearing))
}

// RightLeft returns the two candidate turns toward an error: the clockwise
// turn in [0, 360) and the anticlockwise turn in (-360, 0].
func RightLeft(err Degrees) (right, left Degrees) {
	right = Mod(err, 360)
	left = -Mod(360-right, 360)
	return right, left
}

type TurnDirection uint8

const (
	Left TurnDirection = iota
	Right
	Straight
)

func (td TurnDirection) String() string {
	return []string{"Left", "Right", "Straight"}[td]
}
