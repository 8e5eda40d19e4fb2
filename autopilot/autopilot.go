// Package autopilot computes the autopilot and flight director attitude
// targets: a roll target from the lateral law, a pitch target from the
// vertical law, and a sideslip target for the rudder on the localizer.
//
// Laws are selected by raw mode number, as the mode logic that feeds them
// publishes them. The autopilot orders are shaped so that they never jump:
// they are rate limited, lagged and faded in from the current attitude on
// engagement. The flight director orders are not faded.
package autopilot

import (
	"errors"
	"fmt"
	"math"

	"github.com/bskari/go-fbw/table"
)

var ErrBadConfig = errors.New("bad autopilot configuration")

// Input is one frame of autopilot input. Angles are in degrees, speeds in
// knots, heights in feet and vertical speeds in feet per minute.
type Input struct {
	Dt float64

	Theta, Phi  float64
	R           float64
	Beta        float64
	Vias, Vtas  float64
	Vgnd        float64
	H, HInd     float64
	RadioHeight float64
	HDot        float64
	Heading     float64
	Track       float64
	VLS, VMAX   float64

	// The localizer course, the angular deviation from the beam (positive
	// when the beam lies to the right) and the DME distance in nautical
	// miles.
	LocCourse float64
	LocError  float64
	DME       float64

	// Flight guidance: cross track error in nautical miles (positive
	// right of track), track angle error and the guidance roll order.
	XTK   float64
	TAE   float64
	FGPhi float64

	OnGround bool

	AP1, AP2    bool
	LateralLaw  float64
	VerticalLaw float64

	HeadingTarget  float64
	AltitudeTarget float64
	VSTarget       float64
	FPATarget      float64
	SpeedTarget    float64
	ALTSoft        bool
}

// APOn is true when either autopilot is engaged.
func (in *Input) APOn() bool {
	return in.AP1 || in.AP2
}

// Command is a set of attitude targets.
type Command struct {
	Theta float64
	Phi   float64
	Beta  float64
}

type Output struct {
	APOn           bool
	FlightDirector Command
	Autopilot      Command
	// Roll order of the localizer capture law, published whatever the
	// active law so the mode logic can judge the capture point.
	PhiLoc float64
}

type Config struct {
	Lateral  LateralConfig  `toml:"lateral"`
	Vertical VerticalConfig `toml:"vertical"`
}

func DefaultConfig() Config {
	return Config{
		Lateral:  DefaultLateralConfig(),
		Vertical: DefaultVerticalConfig(),
	}
}

// State is everything the autopilot carries from frame to frame.
type State struct {
	Lateral  LateralState
	Vertical VerticalState
}

type Autopilot struct {
	Config

	lateral  lateral
	vertical vertical
	state    State
}

func New(c Config) (*Autopilot, error) {
	var t tables
	a := &Autopilot{
		Config:   c,
		lateral:  newLateral(c.Lateral, &t),
		vertical: newVertical(c.Vertical, &t),
	}
	if err := t.err(); err != nil {
		return nil, fmt.Errorf("autopilot: %w", err)
	}
	a.Reset()
	return a, nil
}

func (a *Autopilot) Reset() {
	a.state = State{
		Lateral:  a.lateral.newState(),
		Vertical: a.vertical.newState(),
	}
}

func (a *Autopilot) State() State {
	return a.state
}

func (a *Autopilot) Restore(s State) {
	a.state = s
}

func (a *Autopilot) Step(in Input) Output {
	out := Output{APOn: in.APOn()}
	a.lateral.step(&a.state.Lateral, &in, &out)
	a.vertical.step(&a.state.Vertical, &in, &out)
	return out
}

func positive(name string, value float64) error {
	if !(value > 0) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: %s must be positive, got %v", ErrBadConfig, name, value)
	}
	return nil
}

// tables fits a batch of named schedules, collecting every failure.
type tables struct {
	errs []error
}

func (t *tables) fit(name string, spec table.Spec) *table.Table {
	fitted, err := table.New(spec)
	if err != nil {
		t.errs = append(t.errs, fmt.Errorf("%s: %w", name, err))
		return nil
	}
	return fitted
}

func (t *tables) check(name string, value float64) {
	if err := positive(name, value); err != nil {
		t.errs = append(t.errs, err)
	}
}

func (t *tables) err() error {
	return errors.Join(t.errs...)
}
