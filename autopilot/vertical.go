package autopilot

import (
	"math"

	"github.com/bskari/go-fbw/filter"
	"github.com/bskari/go-fbw/monitor"
	"github.com/bskari/go-fbw/numeric"
)

// Vertical law numbers.
const (
	VerticalNone       = 0
	VerticalAltitude   = 1
	VerticalAltCapture = 2
	VerticalSpeed      = 3
	VerticalVS         = 4
	VerticalFPA        = 5
)

type VerticalConfig struct {
	// Shaping of the autopilot pitch order and its limits.
	PitchRate      float64 `toml:"pitch_rate_deg_s"`
	PitchLag       float64 `toml:"pitch_lag"`
	FaderRate      float64 `toml:"fader_rate"`
	PitchUpLimit   float64 `toml:"pitch_up_limit_deg"`
	PitchDownLimit float64 `toml:"pitch_down_limit_deg"`
	// The flight director pitch bar is referenced to a washed out attitude.
	ThetaWashout float64 `toml:"theta_washout"`
	// Lowest true airspeed used to turn a vertical speed into a flight
	// path angle, in metres per second.
	SpeedFloor float64 `toml:"speed_floor_m_s"`
	// Load factor the autopilot may use to change the flight path, in g.
	PathLoadFactor float64 `toml:"path_load_factor_g"`

	// Altitude hold: vertical speed per foot of altitude error, its limit,
	// and the soft mode that trades altitude for speed in cruise.
	AltitudeLag   float64 `toml:"altitude_lag"`
	AltitudeGain  float64 `toml:"altitude_gain"`
	AltitudeLimit float64 `toml:"altitude_vs_limit_fpm"`
	SoftGain      float64 `toml:"soft_gain"`
	SoftLimit     float64 `toml:"soft_limit_fpm"`

	// Speed on elevator: flight path per knot of speed error and per knot
	// per second of acceleration.
	SpeedGain  float64 `toml:"speed_gain"`
	SpeedLimit float64 `toml:"speed_limit_deg"`
	AccelGain  float64 `toml:"accel_gain"`
	AccelLag   float64 `toml:"accel_lag"`

	// Speed protection of the path modes near the lowest selectable and
	// highest speeds.
	ProtectionGain   float64 `toml:"protection_gain"`
	ProtectionLimit  float64 `toml:"protection_limit_deg"`
	ProtectionMargin float64 `toml:"protection_margin_kn"`
}

func DefaultVerticalConfig() VerticalConfig {
	return VerticalConfig{
		PitchRate:        2,
		PitchLag:         2,
		FaderRate:        0.5,
		PitchUpLimit:     25,
		PitchDownLimit:   -15,
		ThetaWashout:     0.2,
		SpeedFloor:       10,
		PathLoadFactor:   0.1,
		AltitudeLag:      1,
		AltitudeGain:     4,
		AltitudeLimit:    1000,
		SoftGain:         20,
		SoftLimit:        250,
		SpeedGain:        0.3,
		SpeedLimit:       10,
		AccelGain:        2,
		AccelLag:         1,
		ProtectionGain:   0.5,
		ProtectionLimit:  10,
		ProtectionMargin: 5,
	}
}

// AltCaptureState holds the exponential capture profile, fixed when the
// capture engages.
type AltCaptureState struct {
	Active    bool
	Seeded    bool
	K         float64
	Offset    float64
	MaxVSpeed float64
}

type VerticalState struct {
	Altitude     filter.Lag
	Capture      AltCaptureState
	Acceleration filter.Derivative
	AccelLag     filter.Lag
	Washout      filter.Washout

	Pitch ShaperState
}

type vertical struct {
	VerticalConfig
}

func newVertical(c VerticalConfig, t *tables) vertical {
	t.check("pitch rate", c.PitchRate)
	t.check("pitch lag", c.PitchLag)
	t.check("pitch fader rate", c.FaderRate)
	t.check("theta washout", c.ThetaWashout)
	t.check("speed floor", c.SpeedFloor)
	t.check("path load factor", c.PathLoadFactor)
	t.check("altitude lag", c.AltitudeLag)
	t.check("accel lag", c.AccelLag)
	t.check("pitch limit range", c.PitchUpLimit-c.PitchDownLimit)
	return vertical{c}
}

func (v *vertical) newState() VerticalState {
	return VerticalState{
		Altitude:     filter.NewLag(v.AltitudeLag),
		Acceleration: filter.NewDerivative(1),
		AccelLag:     filter.NewLag(v.AccelLag),
		Washout:      filter.NewWashout(v.ThetaWashout),
		Pitch:        newShaper(v.PitchRate, v.PitchLag, v.FaderRate),
	}
}

// speed is the true airspeed in metres per second, floored.
func (v *vertical) speed(in *Input) float64 {
	return math.Max(in.Vtas*numeric.KnotsToMetersPerSecond, v.SpeedFloor)
}

// pathChange is the flight path change in degrees that takes the vertical
// speed from its current value to target.
func (v *vertical) pathChange(in *Input, target float64) float64 {
	ratio := (target - in.HDot) * numeric.FeetPerMinuteToMetersPerSecond / v.speed(in)
	return numeric.ToDegrees(numeric.SafeAsin(ratio))
}

// flightPath is the current flight path angle in degrees.
func (v *vertical) flightPath(in *Input) float64 {
	ground := math.Max(in.Vgnd*numeric.KnotsToMetersPerSecond, v.SpeedFloor)
	return numeric.ToDegrees(math.Atan(in.HDot * numeric.FeetPerMinuteToMetersPerSecond / ground))
}

// pathLimit is the flight path change the autopilot may order in one go.
func (v *vertical) pathLimit(in *Input) float64 {
	return numeric.ToDegrees(numeric.Gravity / v.speed(in) * v.PathLoadFactor)
}

// capture flies an exponential approach onto the target altitude. When the
// capture engages, the current vertical speed fixes the profile so that
// the order starts from it without a step.
func capture(s *AltCaptureState, active bool, err, vspeed float64) float64 {
	if !s.Seeded {
		s.Active = active
		s.Seeded = true
	}
	biased := err + numeric.Sign(err)*s.Offset
	if active && !s.Active {
		k := numeric.SafeDiv(vspeed, err, 0)
		s.Offset = math.Abs(numeric.SafeDiv(500, math.Abs(k), 100) - 100)
		biased = err + numeric.Sign(err)*s.Offset
		s.K = numeric.SafeDiv(vspeed, biased, 0)
		s.MaxVSpeed = math.Abs(vspeed)
	}
	s.Active = active
	target := biased * s.K
	if math.Abs(target) > s.MaxVSpeed {
		target = numeric.Sign(target) * s.MaxVSpeed
	}
	return target
}

// SelectVLS is the lowest speed the autopilot protects. A target at or
// below VLS lowers it by 5 knots so that the target itself can be flown.
func SelectVLS(target, vls float64) float64 {
	if target <= vls {
		return vls - 5
	}
	return vls
}

// protect picks between a path mode's demand and the demands that hold
// the lowest and highest speeds. Near the lowest speed only the lower of
// the two may be flown, near the highest speed only the higher.
func (v *vertical) protect(in *Input, demand, low, high float64) float64 {
	switch {
	case in.Vias < SelectVLS(in.SpeedTarget, in.VLS)+v.ProtectionMargin:
		return math.Min(demand, low)
	case in.Vias > in.VMAX-v.ProtectionMargin:
		return math.Max(demand, high)
	}
	return demand
}

func (v *vertical) step(s *VerticalState, in *Input, out *Output) {
	mode := in.VerticalLaw
	limit := v.pathLimit(in)
	gamma := v.flightPath(in)

	soft := 0.0
	if in.ALTSoft {
		soft = numeric.Clamp((in.SpeedTarget-in.Vias)*v.SoftGain, -v.SoftLimit, v.SoftLimit)
	}
	altitudeErr := s.Altitude.Step(in.AltitudeTarget-in.HInd, in.Dt)
	hold := v.pathChange(in, numeric.Clamp(v.AltitudeGain*altitudeErr+soft, -v.AltitudeLimit, v.AltitudeLimit))
	captured := v.pathChange(in, capture(&s.Capture, mode == VerticalAltCapture, in.AltitudeTarget-in.HInd, in.HDot))

	accel := s.AccelLag.Step(s.Acceleration.Step(in.Vias, in.Dt), in.Dt)
	target := monitor.Vote(in.VLS, in.SpeedTarget, in.VMAX)
	speed := numeric.Clamp((in.Vias-target)*v.SpeedGain, -v.SpeedLimit, v.SpeedLimit) - v.AccelGain*accel
	// Speed on elevator never flies away from the target altitude.
	if in.AltitudeTarget > in.HInd {
		speed = math.Max(speed, -gamma)
	} else {
		speed = math.Min(speed, -gamma)
	}

	low := numeric.Clamp((in.Vias-SelectVLS(in.SpeedTarget, in.VLS))*v.ProtectionGain, -v.ProtectionLimit, v.ProtectionLimit)
	high := numeric.Clamp((in.Vias-in.VMAX)*v.ProtectionGain, -v.ProtectionLimit, v.ProtectionLimit)
	vs := v.pathChange(in, in.VSTarget)
	fpa := in.FPATarget - gamma

	var fd, ap float64
	switch mode {
	case VerticalAltitude:
		fd, ap = hold, hold
	case VerticalAltCapture:
		fd = v.protect(in, captured, low, high)
		ap = v.protect(in, numeric.Clamp(captured, -limit, limit), low, high)
	case VerticalSpeed:
		fd, ap = speed, speed
	case VerticalVS:
		fd = v.protect(in, vs, low, high)
		ap = v.protect(in, numeric.Clamp(vs, -limit, limit), low, high)
	case VerticalFPA:
		fd = v.protect(in, fpa, low, high)
		ap = v.protect(in, numeric.Clamp(fpa, -limit, limit), low, high)
	}

	out.FlightDirector.Theta = numeric.Clamp(fd, v.PitchDownLimit, v.PitchUpLimit) - s.Washout.Step(in.Theta, in.Dt)
	pitch := numeric.Clamp(in.Theta+ap, v.PitchDownLimit, v.PitchUpLimit)
	out.Autopilot.Theta = s.Pitch.step(pitch, in.Theta, out.APOn, in.Dt)
}
