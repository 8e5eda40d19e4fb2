package autopilot

import (
	"math"

	"github.com/bskari/go-fbw/angle"
	"github.com/bskari/go-fbw/filter"
	"github.com/bskari/go-fbw/monitor"
	"github.com/bskari/go-fbw/numeric"
	"github.com/bskari/go-fbw/table"
)

// Lateral law numbers.
const (
	LateralHold       = 0
	LateralHeading    = 1
	LateralTrack      = 2
	LateralNav        = 3
	LateralLocCapture = 4
	LateralLocTrack   = 5
)

type LateralConfig struct {
	// Shaping of the autopilot roll order.
	RollRate  float64 `toml:"roll_rate_deg_s"`
	RollLag   float64 `toml:"roll_lag"`
	FaderRate float64 `toml:"fader_rate"`
	// Flight director bar deflection per degree of roll error.
	FDGain float64 `toml:"fd_gain"`
	// Largest roll order, by true airspeed.
	RollLimit table.Spec `toml:"roll_limit"`

	// Heading and track select: roll per degree of heading error by true
	// airspeed, and a yaw rate damping term.
	HeadingGain table.Spec `toml:"heading_gain"`
	TrackGain   table.Spec `toml:"track_gain"`
	YawRateGain float64    `toml:"yaw_rate_gain"`
	// Time after the mode engages during which the shortest turn is taken.
	ShortPathTime float64 `toml:"short_path_time_s"`

	// Managed navigation: time constant and damping of the path capture,
	// the guidance roll order rate and lag, and the track angle error and
	// cross track terms.
	NavTau       float64 `toml:"nav_tau_s"`
	NavZeta      float64 `toml:"nav_zeta"`
	GuidanceRate float64 `toml:"guidance_rate_deg_s"`
	GuidanceLag  float64 `toml:"guidance_lag"`
	TAEGain      float64 `toml:"tae_gain"`
	XTKGain      float64 `toml:"xtk_gain"`
	XTKLimit     float64 `toml:"xtk_limit_deg"`

	// Localizer capture.
	LocTau        float64 `toml:"loc_tau_s"`
	LocZeta       float64 `toml:"loc_zeta"`
	LocDMELow     float64 `toml:"loc_dme_low_nmi"`
	LocDMEHigh    float64 `toml:"loc_dme_high_nmi"`
	LocBeamGain   float64 `toml:"loc_beam_gain"`
	LocCourseGain float64 `toml:"loc_course_gain"`

	// Localizer track: deviation lag and rate, gains by radio height and
	// true airspeed, and the decrab below DecrabHeight.
	LocLag       float64    `toml:"loc_lag"`
	LocRateGain  float64    `toml:"loc_rate_gain"`
	LocLeadLag   float64    `toml:"loc_lead_lag"`
	LocHeight    table.Spec `toml:"loc_height_gain"`
	LocSpeed     table.Spec `toml:"loc_speed_gain"`
	DecrabHeight float64    `toml:"decrab_height_ft"`
	BetaPhiGain  float64    `toml:"beta_phi_gain"`
	DecrabGain   float64    `toml:"decrab_gain"`
	BetaGain     float64    `toml:"beta_gain"`
	DecrabLag    float64    `toml:"decrab_lag"`
	BetaLimit    float64    `toml:"beta_limit_deg"`
}

func DefaultLateralConfig() LateralConfig {
	return LateralConfig{
		RollRate:      5,
		RollLag:       2,
		FaderRate:     0.5,
		FDGain:        0.3,
		RollLimit:     table.Of([]float64{100, 150, 200, 250, 300}, []float64{15, 20, 25, 30, 30}),
		HeadingGain:   table.Of([]float64{100, 200, 300, 400}, []float64{1, 1.2, 1.5, 1.8}),
		TrackGain:     table.Of([]float64{100, 200, 300, 400}, []float64{1, 1.2, 1.5, 1.8}),
		YawRateGain:   -1,
		ShortPathTime: 5,
		NavTau:        3,
		NavZeta:       0.7,
		GuidanceRate:  5,
		GuidanceLag:   2,
		TAEGain:       1,
		XTKGain:       1,
		XTKLimit:      30,
		LocTau:        2,
		LocZeta:       0.7,
		LocDMELow:     0.2,
		LocDMEHigh:    30,
		LocBeamGain:   1,
		LocCourseGain: 1,
		LocLag:        2,
		LocRateGain:   2,
		LocLeadLag:    1,
		LocHeight:     table.Of([]float64{0, 50, 200, 1000, 2000}, []float64{1, 1.5, 2, 3, 3}),
		LocSpeed:      table.Of([]float64{100, 150, 200, 250, 300}, []float64{1.2, 1, 0.9, 0.8, 0.8}),
		DecrabHeight:  30,
		BetaPhiGain:   0.5,
		DecrabGain:    1,
		BetaGain:      -1,
		DecrabLag:     1,
		BetaLimit:     15,
	}
}

// pathGains turns a capture time constant and damping into the gains k1
// and k2 of the path capture laws. Ground speed is in knots, so the time
// constant is scaled to hours.
func pathGains(tau, zeta float64) (k1, k2 float64) {
	t := tau / 3600
	k1 = 180 / (4 * math.Pi * math.Pi * zeta * t)
	k2 = zeta / (215666.565757755 * t)
	return k1, k2
}

type LateralState struct {
	Heading       angle.TurnSelector
	Track         angle.TurnSelector
	HeadingChange monitor.ChangeDetector
	TrackChange   monitor.ChangeDetector

	GuidancePhi filter.RateLimiter
	GuidanceLag filter.Lag

	// Capture limit on the beam term, and whether it has been seeded.
	LocLimit       float64
	LocLimitSeeded bool
	LocDeviation   filter.Lag
	LocRate        filter.Derivative
	LocLead        filter.Lag
	Decrab         filter.Lag

	Roll ShaperState
}

type lateral struct {
	LateralConfig

	rollLimit    *table.Table
	headingGain  *table.Table
	trackGain    *table.Table
	locHeight    *table.Table
	locSpeed     *table.Table
	navK1, navK2 float64
	locK1, locK2 float64
}

func newLateral(c LateralConfig, t *tables) lateral {
	for _, p := range []struct {
		name  string
		value float64
	}{
		{"roll rate", c.RollRate},
		{"roll lag", c.RollLag},
		{"roll fader rate", c.FaderRate},
		{"short path time", c.ShortPathTime},
		{"nav time constant", c.NavTau},
		{"nav damping", c.NavZeta},
		{"guidance rate", c.GuidanceRate},
		{"guidance lag", c.GuidanceLag},
		{"localizer time constant", c.LocTau},
		{"localizer damping", c.LocZeta},
		{"localizer lag", c.LocLag},
		{"localizer lead lag", c.LocLeadLag},
		{"decrab lag", c.DecrabLag},
	} {
		t.check(p.name, p.value)
	}
	l := lateral{
		LateralConfig: c,
		rollLimit:     t.fit("roll limit", c.RollLimit),
		headingGain:   t.fit("heading gain", c.HeadingGain),
		trackGain:     t.fit("track gain", c.TrackGain),
		locHeight:     t.fit("localizer height gain", c.LocHeight),
		locSpeed:      t.fit("localizer speed gain", c.LocSpeed),
	}
	if c.NavTau > 0 && c.NavZeta > 0 {
		l.navK1, l.navK2 = pathGains(c.NavTau, c.NavZeta)
	}
	if c.LocTau > 0 && c.LocZeta > 0 {
		l.locK1, l.locK2 = pathGains(c.LocTau, c.LocZeta)
	}
	return l
}

func (l *lateral) newState() LateralState {
	return LateralState{
		HeadingChange: monitor.NewChangeDetector(l.ShortPathTime),
		TrackChange:   monitor.NewChangeDetector(l.ShortPathTime),
		GuidancePhi:   filter.NewRateLimiter(l.GuidanceRate, l.GuidanceRate, 0),
		GuidanceLag:   filter.NewLag(l.GuidanceLag),
		LocDeviation:  filter.NewLag(l.LocLag),
		LocRate:       filter.NewDerivative(1),
		LocLead:       filter.NewLag(l.LocLeadLag),
		Decrab:        filter.NewLag(l.DecrabLag),
		Roll:          newShaper(l.RollRate, l.RollLag, l.FaderRate),
	}
}

// turn is the roll order of heading or track select.
func (l *lateral) turn(ts *angle.TurnSelector, change *monitor.ChangeDetector, active bool, target, current float64, gain *table.Table, in *Input) float64 {
	shortPath := change.Step(active, in.Dt)
	right, left := angle.RightLeft(angle.Difference(target, current))
	if !active {
		ts.Reset()
		return 0
	}
	err := ts.Step(right, left, shortPath)
	return err*gain.Lookup(in.Vtas) + l.YawRateGain*in.R
}

// locCapture is the roll order that turns onto the localizer. The beam
// term is limited by the intercept angle so that a wide intercept is held
// until close to the beam.
func (l *lateral) locCapture(s *LateralState, in *Input, capturing bool) float64 {
	intercept := angle.GetAngleTo(in.Track, in.LocCourse)
	if !s.LocLimitSeeded {
		s.LocLimit = intercept
		s.LocLimitSeeded = true
	}
	if !capturing {
		s.LocLimit = numeric.Clamp(intercept, 15, 115)
	} else if intercept < 15 {
		s.LocLimit = 15
	}
	vgnd := math.Max(in.Vgnd, 1)
	dme := numeric.Clamp(in.DME, l.LocDMELow, l.LocDMEHigh)
	beam := math.Sin(numeric.ToRadians(in.LocError)) * dme * l.LocBeamGain * l.locK1 / vgnd
	beam = numeric.Clamp(beam, -s.LocLimit, s.LocLimit)
	course := angle.Difference(in.LocCourse+in.LocError, in.Track)
	return (l.LocCourseGain*course + beam) * l.locK2 * vgnd
}

func (l *lateral) step(s *LateralState, in *Input, out *Output) {
	mode := in.LateralLaw
	vgnd := math.Max(in.Vgnd, 1)
	low := in.RadioHeight <= l.DecrabHeight

	// Every path runs every frame so its memory is current when its mode
	// engages.
	heading := l.turn(&s.Heading, &s.HeadingChange, mode == LateralHeading, in.HeadingTarget, in.Heading, l.headingGain, in)
	track := l.turn(&s.Track, &s.TrackChange, mode == LateralTrack, in.HeadingTarget, in.Track, l.trackGain, in)

	guidance := s.GuidanceLag.Step(s.GuidancePhi.Step(in.FGPhi, in.Dt), in.Dt)
	xtk := numeric.Clamp(l.XTKGain*in.XTK*l.navK1/vgnd, -l.XTKLimit, l.XTKLimit)
	nav := guidance - (l.TAEGain*in.TAE+xtk)*l.navK2*vgnd

	out.PhiLoc = l.locCapture(s, in, mode == LateralLocCapture)

	deviation := s.LocDeviation.Step(in.LocError, in.Dt)
	deviation = s.LocLead.Step(deviation+l.LocRateGain*s.LocRate.Step(deviation, in.Dt), in.Dt)
	locTrack := deviation * l.locHeight.Lookup(in.RadioHeight) * l.locSpeed.Lookup(in.Vtas)
	decrab := 0.0
	if low {
		locTrack += l.BetaPhiGain * in.Beta
		decrab = l.DecrabGain*angle.Difference(in.LocCourse, in.Heading) + l.BetaGain*in.Beta
	}
	decrab = s.Decrab.Step(decrab, in.Dt)

	var phi, beta float64
	switch mode {
	case LateralHold:
		phi = in.Phi
	case LateralHeading:
		phi = heading
	case LateralTrack:
		phi = track
	case LateralNav:
		phi = nav
	case LateralLocCapture:
		phi = out.PhiLoc
	case LateralLocTrack:
		phi = locTrack
		beta = numeric.Clamp(decrab, -l.BetaLimit, l.BetaLimit)
	}
	limit := l.rollLimit.Lookup(in.Vtas)
	phi = numeric.Clamp(phi, -limit, limit)

	out.FlightDirector.Phi = (phi - in.Phi) * l.FDGain
	out.Autopilot.Phi = s.Roll.step(phi, in.Phi, out.APOn, in.Dt)
	out.FlightDirector.Beta = beta
	out.Autopilot.Beta = beta
}
