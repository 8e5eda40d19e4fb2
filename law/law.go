// Package law implements the per axis control laws of the flight control
// computers: the lateral normal and direct laws and the pitch normal,
// alternate and direct laws.
//
// A law is built once from its Config and then stepped every frame with
// the frame time inside its input. Laws never fail while stepping; a bad
// Config is rejected by the constructor.
package law

import (
	"errors"
	"fmt"
	"math"

	"github.com/bskari/go-fbw/table"
)

var ErrBadConfig = errors.New("bad control law configuration")

// Deflection limits of the surfaces, in degrees.
const (
	aileronLimit  = 25.0
	rudderLimit   = 25.0
	elevatorLimit = 30.0
)

// Conversion from a 57.3 degree radian, as the gain schedules were
// calibrated with it.
const radianDegrees = 57.3

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

// LateralInput is the roll axis frame input. Angles are in degrees, rates
// in degrees per second, speeds in knots and heights in feet. Xi and Zeta
// are the stick and pedal positions in [-1, 1].
type LateralInput struct {
	Dt          float64
	Theta, Phi  float64
	R, P        float64
	Vias, Vtas  float64
	RadioHeight float64
	Xi, Zeta    float64

	OnGround      bool
	Tracking      bool
	HighAoaProt   bool
	HighSpeedProt bool
}

// LateralOutput holds the aileron and rudder orders in degrees.
type LateralOutput struct {
	Xi   float64
	Zeta float64
}
