package mode

import (
	"math"
)

type TrimFreezeState uint8

const (
	TrimFreezeUninitialized TrimFreezeState = iota
	TrimRunning
	TrimFrozen
)

// TrimFreeze stops automatic trim during a flare and whenever the load
// factor or bank angle is outside the band where trimming makes sense.
type TrimFreeze struct {
	state TrimFreezeState
}

const (
	trimFreezeNzHigh = 1.25
	trimFreezeNzLow  = 0.5
	trimFreezeBank   = 30.0
)

func (t *TrimFreeze) Step(inFlare bool, nz, phi float64) bool {
	inBand := nz < trimFreezeNzHigh && nz > trimFreezeNzLow && math.Abs(phi) <= trimFreezeBank
	switch t.state {
	case TrimFreezeUninitialized:
		t.state = TrimRunning
	case TrimRunning:
		if inFlare || !inBand {
			t.state = TrimFrozen
		}
	case TrimFrozen:
		if !inFlare && inBand {
			t.state = TrimRunning
		}
	}
	return t.state == TrimFrozen
}

func (t *TrimFreeze) State() TrimFreezeState {
	return t.state
}

type TrimModeState uint8

const (
	TrimModeUninitialized TrimModeState = iota
	TrimManual
	TrimAutomatic
	TrimReset
	TrimTracking
)

func (s TrimModeState) String() string {
	return []string{"Uninitialized", "Manual", "Automatic", "Reset", "Tracking"}[s]
}

// TrimCommand tells the trim integrator what to do this frame. When Reset
// is set the integrator is reloaded with Initial.
type TrimCommand struct {
	Reset   bool
	Initial float64
}

// TrimMode follows the stabiliser trim between manual control on the
// ground, automatic trim in flight, synchronisation while another system
// is flying (tracking) and the return to zero after landing.
type TrimMode struct {
	state TrimModeState
}

func (t *TrimMode) Step(inFlight, tracking bool, trimPosition float64) TrimCommand {
	switch t.state {
	case TrimModeUninitialized:
		t.state = TrimManual
		return TrimCommand{Reset: true, Initial: trimPosition}
	case TrimAutomatic:
		if !inFlight {
			t.state = TrimReset
			return TrimCommand{Reset: true, Initial: 0}
		}
		if tracking {
			t.state = TrimTracking
			return TrimCommand{Reset: true, Initial: trimPosition}
		}
		return TrimCommand{Initial: trimPosition}
	case TrimManual:
		if inFlight {
			t.state = TrimAutomatic
			return TrimCommand{Initial: trimPosition}
		}
		return TrimCommand{Reset: true, Initial: trimPosition}
	case TrimReset:
		if !inFlight && trimPosition == 0 {
			t.state = TrimManual
			return TrimCommand{Reset: true, Initial: trimPosition}
		}
		return TrimCommand{Reset: true, Initial: 0}
	case TrimTracking:
		if !tracking {
			t.state = TrimAutomatic
			return TrimCommand{Initial: trimPosition}
		}
		return TrimCommand{Reset: true, Initial: trimPosition}
	}
	panic("bad trim mode")
}

func (t *TrimMode) State() TrimModeState {
	return t.state
}

type TrimConfigurationState uint8

const (
	TrimConfigurationUninitialized TrimConfigurationState = iota
	TrimConfigurationGround
	TrimConfigurationClean
	TrimConfigurationFlaps
)

// TrimLimits are the trim rate and load factor limits for a configuration.
type TrimLimits struct {
	RateUp, RateDown float64
	NzUp, NzDown     float64
}

var (
	cleanLimits = TrimLimits{RateUp: 0.3, RateDown: -0.3, NzUp: 2.5, NzDown: -1.0}
	flapsLimits = TrimLimits{RateUp: 0.7, RateDown: -0.7, NzUp: 2.0, NzDown: 0.0}
)

// TrimConfiguration picks the limits from flight state and flap handle.
// The ground limits are the same as the flap limits.
type TrimConfiguration struct {
	state TrimConfigurationState
}

func (t *TrimConfiguration) Step(inFlight bool, flapsHandleIndex float64) TrimLimits {
	clean := flapsHandleIndex == 0
	switch t.state {
	case TrimConfigurationUninitialized:
		t.state = TrimConfigurationGround
	case TrimConfigurationClean:
		if !clean {
			t.state = TrimConfigurationFlaps
		} else if !inFlight {
			t.state = TrimConfigurationGround
		}
	case TrimConfigurationFlaps:
		if clean {
			t.state = TrimConfigurationClean
		} else if !inFlight {
			t.state = TrimConfigurationGround
		}
	case TrimConfigurationGround:
		if inFlight && clean {
			t.state = TrimConfigurationClean
		} else if inFlight {
			t.state = TrimConfigurationFlaps
		}
	}
	if t.state == TrimConfigurationClean {
		return cleanLimits
	}
	return flapsLimits
}

func (t *TrimConfiguration) State() TrimConfigurationState {
	return t.state
}
