package law

import (
	"fmt"

	"github.com/bskari/go-fbw/filter"
	"github.com/bskari/go-fbw/numeric"
)

type PitchDirectConfig struct {
	Gain         float64 `toml:"gain"`
	ElevatorRate float64 `toml:"elevator_rate_deg_s"`
}

func DefaultPitchDirectConfig() PitchDirectConfig {
	return PitchDirectConfig{Gain: -30, ElevatorRate: 30}
}

type PitchDirectState struct {
	Elevator    filter.RateLimiter
	Initialized bool
}

// PitchDirect maps the stick straight onto the elevator and leaves the
// stabiliser where it is.
type PitchDirect struct {
	PitchDirectConfig

	state PitchDirectState
}

func NewPitchDirect(c PitchDirectConfig) (*PitchDirect, error) {
	if err := positive("elevator rate", c.ElevatorRate); err != nil {
		return nil, fmt.Errorf("pitch direct law: %w", err)
	}
	l := &PitchDirect{PitchDirectConfig: c}
	l.Reset()
	return l, nil
}

func (l *PitchDirect) Reset() {
	l.state = PitchDirectState{Elevator: filter.NewRateLimiter(l.ElevatorRate, l.ElevatorRate, 0)}
}

func (l *PitchDirect) State() PitchDirectState {
	return l.state
}

func (l *PitchDirect) Restore(s PitchDirectState) {
	l.state = s
}

func (l *PitchDirect) Step(in PitchInput) PitchOutput {
	eta := numeric.Clamp(l.Gain*in.Stick, -elevatorLimit, elevatorLimit)
	if !l.state.Initialized {
		l.state.Elevator.Set(eta)
		l.state.Initialized = true
	}
	return PitchOutput{Eta: l.state.Elevator.Step(eta, in.Dt), EtaTrim: in.EtaTrim}
}
