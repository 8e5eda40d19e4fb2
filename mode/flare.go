package mode

import (
	"math"
)

type FlareState uint8

const (
	FlareUninitialized FlareState = iota
	FlareGround
	FlareFlightLow
	FlareFlightHigh
	FlareStoreTarget
	FlareSetRate
	FlareReduceTarget
)

func (s FlareState) String() string {
	return []string{"Uninitialized", "Ground", "FlightLow", "FlightHigh", "StoreTarget", "SetRate", "ReduceTarget"}[s]
}

type FlareConfig struct {
	// Radio height at which the flare law engages on the way down.
	EntryHeight float64 `toml:"entry_height_ft"`
	// Radio height at which the stored target starts to be reduced.
	ReduceHeight float64 `toml:"reduce_height_ft"`
	// Pitch attitude the target is ramped toward.
	LandingAttitude float64 `toml:"landing_attitude_deg"`
	// Time allowed to go from the stored target to the landing attitude.
	ReduceTime float64 `toml:"reduce_time_s"`
}

func DefaultFlareConfig() FlareConfig {
	return FlareConfig{
		EntryHeight:     50,
		ReduceHeight:    30,
		LandingAttitude: -2,
		ReduceTime:      8,
	}
}

type FlareOutput struct {
	Active bool
	// Pitch attitude target while the flare is active.
	Target float64
}

// Flare sequences the landing flare. A descent through EntryHeight stores
// the current pitch attitude as the target; the next frame computes a ramp
// rate from it, and below ReduceHeight the target moves toward the landing
// attitude at that rate. Climbing back above EntryHeight abandons the flare.
type Flare struct {
	FlareConfig

	state  FlareState
	target float64
	rate   float64
}

func NewFlare(c FlareConfig) Flare {
	return Flare{FlareConfig: c}
}

func (f *Flare) Step(inFlight bool, radioHeight, theta, dt float64) FlareOutput {
	above := radioHeight > f.EntryHeight
	switch f.state {
	case FlareUninitialized:
		f.state = FlareGround
	case FlareGround:
		if inFlight {
			f.state = FlareFlightLow
		}
	case FlareFlightLow:
		if above {
			f.state = FlareFlightHigh
		} else if !inFlight {
			f.state = FlareGround
		}
	case FlareFlightHigh:
		if !above {
			f.state = FlareStoreTarget
			f.target = theta
		}
	case FlareStoreTarget:
		if above {
			f.state = FlareFlightLow
		} else {
			f.state = FlareSetRate
			f.rate = math.Abs(f.target-f.LandingAttitude) / f.ReduceTime
		}
	case FlareSetRate:
		if radioHeight <= f.ReduceHeight {
			f.state = FlareReduceTarget
		} else if above {
			f.state = FlareFlightLow
		}
	case FlareReduceTarget:
		if !inFlight {
			f.state = FlareGround
		} else if above {
			f.state = FlareFlightLow
		} else {
			step := f.rate * math.Max(dt, 0)
			delta := f.LandingAttitude - f.target
			f.target += math.Max(-step, math.Min(step, delta))
		}
	}
	return f.output()
}

func (f *Flare) output() FlareOutput {
	switch f.state {
	case FlareStoreTarget, FlareSetRate, FlareReduceTarget:
		return FlareOutput{Active: true, Target: f.target}
	}
	return FlareOutput{}
}

func (f *Flare) State() FlareState {
	return f.state
}
