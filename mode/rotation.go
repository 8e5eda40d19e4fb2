package mode

type RotationState uint8

const (
	RotationUninitialized RotationState = iota
	RotationOff
	RotationOn
)

// Rotation detects the takeoff rotation: fast, thrust set, and not yet
// fully faded into the flight law. It ends when the flight law is fully
// faded in, above 400 ft, or on a rejected takeoff.
type Rotation struct {
	state RotationState
}

const (
	rotationSpeed       = 70.0
	rotationThrustLever = 35.0
	rotationRadioHeight = 400.0
)

func (r *Rotation) Step(inFlightFader, tas, thrustLever1, thrustLever2, radioHeight float64) bool {
	switch r.state {
	case RotationUninitialized:
		r.state = RotationOff
	case RotationOff:
		if inFlightFader < 1 && tas > rotationSpeed && (thrustLever1 >= rotationThrustLever || thrustLever2 >= rotationThrustLever) {
			r.state = RotationOn
		}
	case RotationOn:
		if inFlightFader == 1 || radioHeight > rotationRadioHeight ||
			(tas < rotationSpeed && (thrustLever1 < rotationThrustLever || thrustLever2 < rotationThrustLever)) {
			r.state = RotationOff
		}
	}
	return r.state == RotationOn
}

func (r *Rotation) State() RotationState {
	return r.state
}
