package law

import (
	"fmt"
	"math"

	"github.com/bskari/go-fbw/filter"
	"github.com/bskari/go-fbw/mode"
	"github.com/bskari/go-fbw/numeric"
	"github.com/bskari/go-fbw/table"
)

type PitchNormalConfig struct {
	Flight     mode.FlightThresholds `toml:"flight"`
	Flare      mode.FlareConfig      `toml:"flare"`
	CStar      CStarConfig           `toml:"cstar"`
	Protection ProtectionConfig      `toml:"protection"`
	Trim       TrimConfig            `toml:"trim"`

	// Rate at which a protection fades in or out, per second.
	ProtectionFadeRate float64 `toml:"protection_fade_rate"`

	// Load factor per degree of flare attitude error, its limit in g and
	// the rate of its fader.
	FlareGain     float64 `toml:"flare_gain"`
	FlareLimit    float64 `toml:"flare_limit_g"`
	FlareFadeRate float64 `toml:"flare_fade_rate"`

	APGain         table.Spec `toml:"ap_gain"`
	APLimit        float64    `toml:"ap_limit_g"`
	APThetaRate    float64    `toml:"ap_theta_rate_deg_s"`
	AttitudeGain   float64    `toml:"attitude_gain"`
	AttitudeUp     float64    `toml:"attitude_up_deg"`
	AttitudeUpFull float64    `toml:"attitude_up_full_flaps_deg"`
	AttitudeDown   float64    `toml:"attitude_down_deg"`
	AttitudeRate   float64    `toml:"attitude_rate_deg_s"`
	// Pitch attitude allowed during the takeoff rotation when tail strike
	// protection is on.
	TailstrikeAttitude float64 `toml:"tailstrike_attitude_deg"`
}

func DefaultPitchNormalConfig() PitchNormalConfig {
	return PitchNormalConfig{
		Flight:             mode.DefaultFlightThresholds(),
		Flare:              mode.DefaultFlareConfig(),
		CStar:              DefaultCStarConfig(),
		Protection:         DefaultProtectionConfig(),
		Trim:               DefaultTrimConfig(),
		ProtectionFadeRate: 1,
		FlareGain:          0.1,
		FlareLimit:         0.5,
		FlareFadeRate:      0.5,
		APGain:             table.Of([]float64{0, 150, 300, 400}, []float64{0.2, 0.2, 0.1, 0.1}),
		APLimit:            0.5,
		APThetaRate:        5,
		AttitudeGain:       0.2,
		AttitudeUp:         30,
		AttitudeUpFull:     25,
		AttitudeDown:       -15,
		AttitudeRate:       2,
		TailstrikeAttitude: 11,
	}
}

// NormalState is the memory only the normal law carries.
type NormalState struct {
	HighAoaFader   filter.RateLimiter
	HighSpeedFader filter.RateLimiter
	FlareFader     filter.RateLimiter
	APTheta        filter.RateLimiter
	ThetaMax       filter.RateLimiter
}

// PitchNormal is the C* law with pitch attitude protection, faded angle of
// attack and high speed protections, the flare law and the autopilot
// pitch attitude target.
type PitchNormal struct {
	PitchNormalConfig

	core   pitchCore
	apGain *table.Table
	state  PitchState
}

// Full flaps handle position.
const flapsFull = 5

func NewPitchNormal(c PitchNormalConfig) (*PitchNormal, error) {
	var t tables
	l := &PitchNormal{
		PitchNormalConfig: c,
		core:              newPitchCore(c.Flight, c.Flare, c.CStar, c.Protection, c.Trim, &t),
		apGain:            t.fit("autopilot gain", c.APGain),
	}
	t.check("protection fade rate", c.ProtectionFadeRate)
	t.check("flare fade rate", c.FlareFadeRate)
	t.check("autopilot theta rate", c.APThetaRate)
	t.check("attitude rate", c.AttitudeRate)
	if err := t.err(); err != nil {
		return nil, fmt.Errorf("pitch normal law: %w", err)
	}
	l.Reset()
	return l, nil
}

func (l *PitchNormal) Reset() {
	l.state = l.core.newState()
	l.state.Normal = NormalState{
		HighAoaFader:   filter.NewRateLimiter(l.ProtectionFadeRate, l.ProtectionFadeRate, 0),
		HighSpeedFader: filter.NewRateLimiter(l.ProtectionFadeRate, l.ProtectionFadeRate, 0),
		FlareFader:     filter.NewRateLimiter(l.FlareFadeRate, l.FlareFadeRate, 0),
		APTheta:        filter.NewRateLimiter(l.APThetaRate, l.APThetaRate, 0),
		ThetaMax:       filter.NewRateLimiter(l.AttitudeRate, l.AttitudeRate, 0),
	}
}

func (l *PitchNormal) State() PitchState {
	return l.state
}

func (l *PitchNormal) Restore(s PitchState) {
	l.state = s
}

// thetaMax is the nose up attitude limit, lowered near the lowest
// selectable speed and during a protected rotation.
func (l *PitchNormal) thetaMax(in *PitchInput, rotating bool) float64 {
	limit := l.AttitudeUp
	if in.FlapsHandle == flapsFull {
		limit = l.AttitudeUpFull
	}
	limit -= math.Min(5, math.Max(0, 5-(in.Vias-(in.Vls+5))*0.25))
	if rotating && in.TailstrikeProt {
		limit = math.Min(limit, l.TailstrikeAttitude)
	}
	return limit
}

func (l *PitchNormal) Step(in PitchInput) PitchOutput {
	s := &l.state
	n := &s.Normal
	first := !s.Initialized
	f := l.core.begin(s, &in)
	rotating := s.Rotation.Step(f.fader, in.Vtas, in.ThrustLever1, in.ThrustLever2, in.RadioHeight)
	stick := s.Stick.Step(in.Stick, in.Dt)

	var increment float64
	if !in.APEngaged || first {
		n.APTheta.Set(in.Theta)
	}
	apTheta := n.APTheta.Step(in.APThetaCommand, in.Dt)
	flareFader := numeric.Clamp(n.FlareFader.Step(numeric.BoolToFloat(f.flare.Active && !in.APEngaged), in.Dt), 0, 1)
	if in.APEngaged {
		increment = numeric.Clamp((apTheta-in.Theta)*l.apGain.Lookup(in.Vtas), -l.APLimit, l.APLimit)
	} else {
		flareTarget := in.Theta
		if f.flare.Active {
			flareTarget = f.flare.Target
		}
		flare := numeric.Clamp(l.FlareGain*(flareTarget-in.Theta), -l.FlareLimit, l.FlareLimit)
		increment = l.core.loadDemand.Lookup(stick) + flareFader*flare
	}

	aoaFader := numeric.Clamp(n.HighAoaFader.Step(numeric.BoolToFloat(in.HighAoaProt), in.Dt), 0, 1)
	speedFader := numeric.Clamp(n.HighSpeedFader.Step(numeric.BoolToFloat(in.HighSpeedProt), in.Dt), 0, 1)
	increment += aoaFader*l.core.highAoa(&s.HighAoa, &in, aoaFader > 0) +
		speedFader*l.core.highSpeed(&s.HighSpeed, &in, speedFader > 0)

	thetaMax := l.thetaMax(&in, rotating)
	if first {
		n.ThetaMax.Set(thetaMax)
	}
	thetaMax = n.ThetaMax.Step(thetaMax, in.Dt)
	level := trimLoad(in.Theta, in.Phi)
	upper := math.Min(f.nzUpper, level+l.AttitudeGain*(thetaMax-in.Theta))
	lower := math.Max(f.nzLower, level+l.AttitudeGain*(l.AttitudeDown-in.Theta))

	rates := [3]float64{
		l.core.rate(&s.Paths[0], &in, upper),
		l.core.rate(&s.Paths[1], &in, l.core.demandTarget(&in, increment)),
		l.core.rate(&s.Paths[2], &in, lower),
	}
	return l.core.finish(s, &in, f, rates, rotating)
}
