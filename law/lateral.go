package law

import (
	"fmt"
	"math"

	"github.com/bskari/go-fbw/filter"
	"github.com/bskari/go-fbw/mode"
	"github.com/bskari/go-fbw/numeric"
	"github.com/bskari/go-fbw/table"
)

// LateralNormalConfig calibrates the roll rate command law with bank angle
// protection and the yaw damper.
type LateralNormalConfig struct {
	Flight mode.FlightThresholds `toml:"flight"`
	// Rate of the in flight fader, per second.
	FaderRate float64 `toml:"fader_rate"`
	// Roll rate demanded by full stick, degrees per second.
	RollRate float64 `toml:"roll_rate_deg_s"`
	// Bank angle command limit, degrees.
	BankLimit float64 `toml:"bank_limit_deg"`
	// Rate of the bank angle command, degrees per second.
	BankRate float64 `toml:"bank_rate_deg_s"`
	// Rate of the aileron order, degrees per second.
	AileronRate float64 `toml:"aileron_rate_deg_s"`
	// Aileron per unit stick on the ground.
	DirectGain float64 `toml:"direct_gain"`

	// Roll rate pulled back toward wings level, by bank angle.
	BankProtection          table.Spec `toml:"bank_protection"`
	BankProtectionHighAoa   table.Spec `toml:"bank_protection_high_aoa"`
	BankProtectionHighSpeed table.Spec `toml:"bank_protection_high_speed"`
	// Closed loop roll bandwidth by indicated airspeed, rad/s.
	Bandwidth table.Spec `toml:"bandwidth"`
	// Gain reduction for long frames.
	TimeStepGain table.Spec `toml:"time_step_gain"`
	// Yaw damper gain by true airspeed.
	YawDamperGain table.Spec `toml:"yaw_damper_gain"`
	// Yaw rate gain used on the ground, by true airspeed.
	GroundYawGain table.Spec `toml:"ground_yaw_gain"`
}

func DefaultLateralNormalConfig() LateralNormalConfig {
	return LateralNormalConfig{
		Flight:      mode.DefaultFlightThresholds(),
		FaderRate:   2,
		RollRate:    15,
		BankLimit:   67,
		BankRate:    15,
		AileronRate: 50,
		DirectGain:  -25,
		BankProtection: table.Of(
			[]float64{-90, -71, -66, -33, 0, 33, 66, 71, 90},
			[]float64{20, 20, 15, 0, 0, 0, -15, -20, -20}),
		BankProtectionHighAoa: table.Of(
			[]float64{-90, -66, -45, -33, 0, 33, 45, 66, 90},
			[]float64{20, 20, 15, 0, 0, 0, -15, -20, -20}),
		BankProtectionHighSpeed: table.Of(
			[]float64{-50, -40, 0, 40, 50},
			[]float64{20, 15, 0, -15, -20}),
		Bandwidth:    table.Of([]float64{0, 120, 320, 400}, []float64{1, 2, 3, 3}),
		TimeStepGain: table.Of([]float64{0, 0.06, 0.1, 0.2, 1}, []float64{1.1, 1, 0.6, 0.3, 0.1}),
		YawDamperGain: table.Of(
			[]float64{0, 100, 150, 200, 250, 300, 400},
			[]float64{4.5, 4.5, 4.5, 3.5, 2, 1.5, 1.5}),
		GroundYawGain: table.Of(
			[]float64{0, 100, 150, 200, 250, 300, 400},
			[]float64{1.4, 1.4, 1.4, 1.2, 1, 0.8, 0.8}),
	}
}

// LateralNormalState is the carried memory of a LateralNormal.
type LateralNormalState struct {
	Flight      mode.FlightMode
	Fader       filter.RateLimiter
	GroundFader filter.RateLimiter
	Bank        filter.Integrator
	BankCommand filter.RateLimiter
	Aileron     filter.RateLimiter
	// Unlimited aileron order of the previous frame, for the roll rate
	// anti windup.
	PreviousXi  float64
	Initialized bool
}

// LateralNormal is the roll rate command, bank angle hold law. Stick
// deflection commands a roll rate that is integrated into a bank angle
// command; the aileron closes the loop on bank and roll rate with a gain
// derived from the dynamic pressure.
type LateralNormal struct {
	LateralNormalConfig

	bankProtection          *table.Table
	bankProtectionHighAoa   *table.Table
	bankProtectionHighSpeed *table.Table
	bandwidth               *table.Table
	timeStepGain            *table.Table
	yawDamperGain           *table.Table
	groundYawGain           *table.Table

	state LateralNormalState
}

func NewLateralNormal(c LateralNormalConfig) (*LateralNormal, error) {
	var t tables
	l := &LateralNormal{
		LateralNormalConfig:     c,
		bankProtection:          t.fit("bank protection", c.BankProtection),
		bankProtectionHighAoa:   t.fit("high AoA bank protection", c.BankProtectionHighAoa),
		bankProtectionHighSpeed: t.fit("high speed bank protection", c.BankProtectionHighSpeed),
		bandwidth:               t.fit("bandwidth", c.Bandwidth),
		timeStepGain:            t.fit("time step gain", c.TimeStepGain),
		yawDamperGain:           t.fit("yaw damper gain", c.YawDamperGain),
		groundYawGain:           t.fit("ground yaw gain", c.GroundYawGain),
	}
	t.check("fader rate", c.FaderRate)
	t.check("roll rate", c.RollRate)
	t.check("bank limit", c.BankLimit)
	t.check("bank rate", c.BankRate)
	t.check("aileron rate", c.AileronRate)
	if err := t.err(); err != nil {
		return nil, fmt.Errorf("lateral normal law: %w", err)
	}
	l.Reset()
	return l, nil
}

func (l *LateralNormal) Reset() {
	l.state = LateralNormalState{
		Flight:      mode.NewFlightMode(l.Flight),
		Fader:       filter.NewRateLimiter(l.FaderRate, l.FaderRate, 0),
		GroundFader: filter.NewRateLimiter(l.FaderRate, l.FaderRate, 0),
		Bank:        filter.NewIntegrator(1, -l.BankLimit, l.BankLimit),
		BankCommand: filter.NewRateLimiter(l.BankRate, l.BankRate, 0),
		Aileron:     filter.NewRateLimiter(l.AileronRate, l.AileronRate, 0),
	}
}

func (l *LateralNormal) State() LateralNormalState {
	return l.state
}

func (l *LateralNormal) Restore(s LateralNormalState) {
	l.state = s
}

func (l *LateralNormal) protection(in *LateralInput) *table.Table {
	switch {
	case in.HighSpeedProt:
		return l.bankProtectionHighSpeed
	case in.HighAoaProt:
		return l.bankProtectionHighAoa
	}
	return l.bankProtection
}

func (l *LateralNormal) Step(in LateralInput) LateralOutput {
	s := &l.state
	inFlight := s.Flight.Step(in.OnGround, in.Theta, in.RadioHeight)
	fader := numeric.Clamp(s.Fader.Step(numeric.BoolToFloat(inFlight), in.Dt), 0, 1)

	demand := l.protection(&in).Lookup(in.Phi) + l.RollRate*in.Xi
	demand = numeric.Clamp(demand, -l.RollRate, l.RollRate)
	lower, upper := -l.RollRate, l.RollRate
	if s.PreviousXi >= aileronLimit {
		lower = numeric.Clamp(in.P, -l.RollRate, l.RollRate)
	} else if s.PreviousXi <= -aileronLimit {
		upper = numeric.Clamp(in.P, -l.RollRate, l.RollRate)
	}
	load := fader == 0 || in.Tracking
	bank := s.Bank.Step(numeric.Clamp(demand*fader, lower, upper), in.Dt, load, in.Phi)
	if !s.Initialized {
		s.BankCommand.Set(bank)
	}
	phiC := s.BankCommand.Step(bank, in.Dt)

	v := math.Max(in.Vias, 80) * numeric.KnotsToMetersPerSecond
	q := v * v * 0.6125
	lXi := q * 122 * 17.9 * -0.0903208 / 1e6
	lP := q / v * 122 * 320.41 * -0.487 / 1e6
	omega := l.bandwidth.Lookup(in.Vias)
	kPhi := -omega * omega / lXi
	xiLaw := (-(lP+1.414*omega)/lXi*numeric.ToRadians(in.P) +
		kPhi*numeric.ToRadians(in.Phi) - kPhi*numeric.ToRadians(phiC)) *
		l.timeStepGain.Lookup(in.Dt) * radianDegrees
	s.PreviousXi = xiLaw
	xiLaw = numeric.Clamp(xiLaw, -aileronLimit, aileronLimit)
	if !s.Initialized {
		s.Aileron.Set(xiLaw)
	}
	xiLaw = s.Aileron.Step(xiLaw, in.Dt)

	airborne := numeric.Clamp(s.GroundFader.Step(numeric.BoolToFloat(!in.OnGround), in.Dt), 0, 1)
	vtas := numeric.Clamp(in.Vtas, 100, 1000) * numeric.KnotsToMetersPerSecond
	turnRate := math.Sin(numeric.ToRadians(phiC)) * numeric.Gravity *
		math.Cos(numeric.ToRadians(in.Theta)) / vtas * radianDegrees
	zetaDamper := numeric.Clamp((in.R-turnRate)*l.yawDamperGain.Lookup(in.Vtas), -rudderLimit, rudderLimit) * airborne
	zetaGround := numeric.Clamp(in.R*l.groundYawGain.Lookup(in.Vtas), -rudderLimit, rudderLimit) * (1 - airborne)

	s.Initialized = true
	return LateralOutput{
		Xi:   numeric.Lerp(l.DirectGain*in.Xi, xiLaw, fader),
		Zeta: zetaDamper + zetaGround,
	}
}

// LateralDirectConfig calibrates the direct roll law.
type LateralDirectConfig struct {
	Gain        float64 `toml:"gain"`
	AileronRate float64 `toml:"aileron_rate_deg_s"`
}

func DefaultLateralDirectConfig() LateralDirectConfig {
	return LateralDirectConfig{Gain: -25, AileronRate: 50}
}

type LateralDirectState struct {
	Aileron     filter.RateLimiter
	Initialized bool
}

// LateralDirect maps the stick straight onto the ailerons with the yaw
// damper off.
type LateralDirect struct {
	LateralDirectConfig

	state LateralDirectState
}

func NewLateralDirect(c LateralDirectConfig) (*LateralDirect, error) {
	if err := positive("aileron rate", c.AileronRate); err != nil {
		return nil, fmt.Errorf("lateral direct law: %w", err)
	}
	l := &LateralDirect{LateralDirectConfig: c}
	l.Reset()
	return l, nil
}

func (l *LateralDirect) Reset() {
	l.state = LateralDirectState{Aileron: filter.NewRateLimiter(l.AileronRate, l.AileronRate, 0)}
}

func (l *LateralDirect) State() LateralDirectState {
	return l.state
}

func (l *LateralDirect) Restore(s LateralDirectState) {
	l.state = s
}

func (l *LateralDirect) Step(in LateralInput) LateralOutput {
	xi := numeric.Clamp(l.Gain*in.Xi, -aileronLimit, aileronLimit)
	if !l.state.Initialized {
		l.state.Aileron.Set(xi)
		l.state.Initialized = true
	}
	return LateralOutput{Xi: l.state.Aileron.Step(xi, in.Dt)}
}
