package mode

import (
	"math"
)

type GroundState uint8

const (
	GroundUninitialized GroundState = iota
	OnGround
	InAir
)

func (s GroundState) String() string {
	return []string{"Uninitialized", "OnGround", "InAir"}[s]
}

// GroundDetector debounces landing gear compression into an on ground flag.
// It goes to ground as soon as either strut exceeds the threshold and only
// leaves the ground when both struts read exactly zero.
type GroundDetector struct {
	CompressionThreshold float64

	state GroundState
}

func NewGroundDetector(threshold float64) GroundDetector {
	return GroundDetector{CompressionThreshold: threshold}
}

func (g *GroundDetector) Step(left, right float64) bool {
	switch g.state {
	case GroundUninitialized:
		g.state = OnGround
	case InAir:
		if left > g.CompressionThreshold || right > g.CompressionThreshold {
			g.state = OnGround
		}
	case OnGround:
		if left == 0 && right == 0 {
			g.state = InAir
		}
	}
	return g.state == OnGround
}

func (g *GroundDetector) State() GroundState {
	return g.state
}

// Takeoff thresholds shared by the flight mode machines.
type FlightThresholds struct {
	// Pitch attitude above which a wheels-off aircraft is flying.
	LiftOffPitch float64 `toml:"lift_off_pitch_deg"`
	// Radio height above which the aircraft is flying regardless of gear.
	FlyingRadioHeight float64 `toml:"flying_radio_height_ft"`
	// Pitch attitude below which an on ground aircraft may be declared
	// landed.
	TouchdownPitch float64 `toml:"touchdown_pitch_deg"`
	// Time on ground, in seconds, before landing is confirmed.
	TouchdownTime float64 `toml:"touchdown_time_s"`
}

func DefaultFlightThresholds() FlightThresholds {
	return FlightThresholds{
		LiftOffPitch:      8,
		FlyingRadioHeight: 400,
		TouchdownPitch:    2.5,
		TouchdownTime:     5,
	}
}

func (t FlightThresholds) liftedOff(onGround bool, theta, radioHeight float64) bool {
	return (!onGround && theta > t.LiftOffPitch) || radioHeight > t.FlyingRadioHeight
}

type FlightState uint8

const (
	FlightUninitialized FlightState = iota
	FlightGround
	FlightAirborne
	FlightTouchdown
)

func (s FlightState) String() string {
	return []string{"Uninitialized", "Ground", "Flight", "Touchdown"}[s]
}

// FlightMode is the two state machine of the lateral law: it lands as soon
// as the gear reports ground.
type FlightMode struct {
	FlightThresholds

	state FlightState
}

func NewFlightMode(t FlightThresholds) FlightMode {
	return FlightMode{FlightThresholds: t}
}

func (f *FlightMode) Step(onGround bool, theta, radioHeight float64) bool {
	switch f.state {
	case FlightUninitialized:
		f.state = FlightGround
	case FlightAirborne:
		if onGround {
			f.state = FlightGround
		}
	default:
		if f.liftedOff(onGround, theta, radioHeight) {
			f.state = FlightAirborne
		}
	}
	return f.state == FlightAirborne
}

func (f *FlightMode) State() FlightState {
	return f.state
}

// FlightPhase is the three state machine of the pitch laws and the SEC. A
// touchdown holds the in flight flag until the aircraft has stayed on the
// ground, nose down, for TouchdownTime seconds of simulation time.
type FlightPhase struct {
	FlightThresholds

	state        FlightState
	onGroundTime float64
}

func NewFlightPhase(t FlightThresholds) FlightPhase {
	return FlightPhase{FlightThresholds: t}
}

func (f *FlightPhase) Step(onGround bool, theta, radioHeight, simulationTime float64) bool {
	switch f.state {
	case FlightUninitialized:
		f.state = FlightGround
	case FlightAirborne:
		if onGround && theta < f.TouchdownPitch {
			f.onGroundTime = simulationTime
			f.state = FlightTouchdown
		}
	case FlightTouchdown:
		if simulationTime-f.onGroundTime >= f.TouchdownTime || math.IsNaN(simulationTime) {
			f.state = FlightGround
		} else if !onGround || theta >= f.TouchdownPitch {
			f.onGroundTime = 0
			f.state = FlightAirborne
		}
	case FlightGround:
		if f.liftedOff(onGround, theta, radioHeight) {
			f.onGroundTime = 0
			f.state = FlightAirborne
		}
	}
	return f.state == FlightAirborne || f.state == FlightTouchdown
}

func (f *FlightPhase) State() FlightState {
	return f.state
}
