package angle

import (
	"math"
)

type turnState uint8

const (
	turnUninitialized turnState = iota
	turnAny
	turnLeft
	turnRight
)

// The band of heading error in which a chosen turn direction is kept even
// when the other direction becomes shorter.
const (
	turnBandLow  = 10.0
	turnBandHigh = 20.0
)

// TurnSelector picks which way to turn toward a heading target. Once the
// error falls in the 10 to 20 degree band on one side, that side is kept
// until the error drops below 10 degrees or a short path is forced, so the
// command does not flip sides when the error passes through 180 degrees.
type TurnSelector struct {
	state turnState
}

func shorter(right, left float64) float64 {
	if math.Abs(left) < math.Abs(right) {
		return left
	}
	return right
}

// Step takes the clockwise and anticlockwise candidates (see RightLeft) and
// returns the turn to command.
func (ts *TurnSelector) Step(right, left float64, useShortPath bool) float64 {
	absRight := math.Abs(right)
	absLeft := math.Abs(left)
	switch ts.state {
	case turnUninitialized:
		ts.state = turnAny
		return shorter(right, left)
	case turnAny:
		if !useShortPath && absRight < absLeft && absRight >= turnBandLow && absRight <= turnBandHigh {
			ts.state = turnRight
			return right
		}
		if !useShortPath && absLeft < absRight && absLeft >= turnBandLow && absLeft <= turnBandHigh {
			ts.state = turnLeft
			return left
		}
		return shorter(right, left)
	case turnLeft, turnRight:
		if useShortPath || absRight < turnBandLow || absLeft < turnBandLow {
			ts.state = turnAny
			return shorter(right, left)
		}
		if ts.state == turnLeft {
			return left
		}
		return right
	}
	panic("bad turn state")
}

// Direction reports the locked side, or Straight when no side is locked.
func (ts *TurnSelector) Direction() TurnDirection {
	switch ts.state {
	case turnLeft:
		return Left
	case turnRight:
		return Right
	}
	return Straight
}

func (ts *TurnSelector) Reset() {
	ts.state = turnUninitialized
}
