package mode

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroundDetector(t *testing.T) {
	g := NewGroundDetector(0.05)
	if !g.Step(0, 0) || g.State() != OnGround {
		t.Errorf("Bad initial state: %v", g.State())
	}
	if g.Step(0, 0) {
		t.Errorf("Bad lift off: %v", g.State())
	}
	if g.Step(0.01, 0) {
		t.Errorf("Bad touchdown below threshold")
	}
	if !g.Step(0, 0.1) {
		t.Errorf("Bad touchdown on one strut")
	}
	// A lightly loaded strut still counts as ground
	if !g.Step(0.01, 0) {
		t.Errorf("Bad early lift off")
	}
}

func TestFlightPhase(t *testing.T) {
	f := NewFlightPhase(DefaultFlightThresholds())
	if f.Step(true, 0, 0, 0) {
		t.Errorf("Bad initial state: %v", f.State())
	}
	if f.Step(false, 5, 10, 1) {
		t.Errorf("Bad lift off at low pitch")
	}
	if !f.Step(false, 9, 10, 2) {
		t.Errorf("Bad lift off: %v", f.State())
	}
	if !f.Step(true, 1, 0, 10) || f.State() != FlightTouchdown {
		t.Errorf("Bad touchdown: %v", f.State())
	}
	if !f.Step(true, 1, 0, 12) || f.State() != FlightTouchdown {
		t.Errorf("Bad touchdown hold: %v", f.State())
	}
	if f.Step(true, 1, 0, 15) || f.State() != FlightGround {
		t.Errorf("Bad landing: %v", f.State())
	}

	// A bounce goes back to flight
	f.Step(true, 0, 500, 20)
	f.Step(true, 1, 0, 21)
	require.Equal(t, FlightTouchdown, f.State())
	f.Step(false, 1, 0, 22)
	assert.Equal(t, FlightAirborne, f.State())
}

func TestFlightMode(t *testing.T) {
	f := NewFlightMode(DefaultFlightThresholds())
	if f.Step(true, 0, 0) {
		t.Errorf("Bad initial state: %v", f.State())
	}
	if !f.Step(true, 0, 500) {
		t.Errorf("Bad lift off on radio height")
	}
	if f.Step(true, 0, 300) {
		t.Errorf("Bad landing: %v", f.State())
	}
}

func TestPitchCapabilityFromFaults(t *testing.T) {
	cases := []struct {
		faults FaultCounts
		law    PitchLaw
	}{
		{FaultCounts{}, PitchNormal},
		{FaultCounts{ADR: 1, IR: 1}, PitchNormal},
		{FaultCounts{ADR: 2}, PitchAlternate1},
		{FaultCounts{ADR: 3}, PitchAlternate2},
		{FaultCounts{IR: 2}, PitchAlternate2},
		{FaultCounts{IR: 3}, PitchDirect},
		{FaultCounts{ADR: 3, IR: 3}, PitchDirect},
	}
	for _, c := range cases {
		if law := PitchCapabilityFromFaults(c.faults); law != c.law {
			t.Errorf("Bad law for %+v: %v", c.faults, law)
		}
	}
}

func TestPitchCapabilityLatchesInFlight(t *testing.T) {
	var p PitchCapability
	assert.Equal(t, PitchNormal, p.Step(FaultCounts{}, true, true))
	assert.Equal(t, PitchAlternate1, p.Step(FaultCounts{ADR: 2}, true, false))
	// The fault clearing in flight does not give the law back
	assert.Equal(t, PitchAlternate1, p.Step(FaultCounts{}, true, false))
	assert.Equal(t, PitchDirect, p.Step(FaultCounts{IR: 3}, true, false))
	assert.Equal(t, PitchDirect, p.Step(FaultCounts{ADR: 2}, true, false))
	assert.Equal(t, PitchNormal, p.Step(FaultCounts{}, true, true))
	assert.Equal(t, PitchNone, p.Step(FaultCounts{}, false, true))
}

func TestLateralCapability(t *testing.T) {
	if LateralCapability(true, false, true) != LateralNormal {
		t.Errorf("Bad single channel loss")
	}
	if LateralCapability(true, true, true) != LateralDirect {
		t.Errorf("Bad dual channel loss")
	}
	if LateralCapability(false, false, false) != LateralNone {
		t.Errorf("Bad surface loss")
	}
}

func TestLawBits(t *testing.T) {
	for l := PitchNormal; l <= PitchNone; l++ {
		if got := PitchFromBits(PitchBits(l)); got != l {
			t.Errorf("Bad pitch round trip: %v -> %v", l, got)
		}
	}
	for l := LateralNormal; l <= LateralNone; l++ {
		if got := LateralFromBits(LateralBits(l)); got != l {
			t.Errorf("Bad lateral round trip: %v -> %v", l, got)
		}
	}
	if PitchNormal.Worst(PitchDirect) != PitchDirect || PitchDirect.Worst(PitchAlternate1) != PitchDirect {
		t.Errorf("Bad worst")
	}
}

func TestArbitrate(t *testing.T) {
	assert.Equal(t, Engagement{CanEngage: true, HasPriority: true, Engaged: true}, Arbitrate(true, true, false))
	assert.Equal(t, Engagement{CanEngage: true}, Arbitrate(true, false, false))
	assert.Equal(t, Engagement{CanEngage: true, HasPriority: true, Engaged: true}, Arbitrate(true, false, true))
	assert.Equal(t, Engagement{HasPriority: true}, Arbitrate(false, true, false))
}

func TestSideStickPriority(t *testing.T) {
	const dt = 0.5
	p := NewSideStickPriority(30)
	assert.Equal(t, SideStickStatus{}, p.Step(false, false, dt))

	s := p.Step(true, false, dt)
	assert.True(t, s.RightDisabled)
	assert.False(t, s.LeftDisabled)
	s = p.Step(false, false, dt)
	assert.False(t, s.RightDisabled, "released before lock")

	for i := 0; i < 70; i++ {
		s = p.Step(true, false, dt)
	}
	require.True(t, s.RightLocked)
	s = p.Step(false, false, dt)
	assert.True(t, s.RightDisabled, "lock survives release")
	assert.True(t, s.RightLocked)

	s = p.Step(false, true, dt)
	assert.Equal(t, SideStickStatus{LeftDisabled: true}, s)

	if v := s.Combine(0.5, 0.2, 1); v != 0.2 {
		t.Errorf("Bad combine: %v", v)
	}
	if v := (SideStickStatus{}).Combine(0.8, 0.8, 1); v != 1 {
		t.Errorf("Bad combine limit: %v", v)
	}
}

func TestFlare(t *testing.T) {
	const dt = 0.5
	f := NewFlare(DefaultFlareConfig())
	assert.False(t, f.Step(false, 0, 0, dt).Active)
	assert.Equal(t, FlareGround, f.State())
	f.Step(true, 10, 0, dt)
	assert.Equal(t, FlareFlightLow, f.State())
	f.Step(true, 100, 0, dt)
	assert.Equal(t, FlareFlightHigh, f.State())

	out := f.Step(true, 50, 6, dt)
	assert.Equal(t, FlareOutput{Active: true, Target: 6}, out)
	assert.Equal(t, FlareStoreTarget, f.State())
	out = f.Step(true, 45, 5, dt)
	assert.Equal(t, FlareSetRate, f.State())
	assert.Equal(t, 6.0, out.Target)
	f.Step(true, 40, 5, dt)
	assert.Equal(t, FlareSetRate, f.State())
	f.Step(true, 30, 5, dt)
	assert.Equal(t, FlareReduceTarget, f.State())

	// (6 - -2) / 8 = 1 degree per second
	out = f.Step(true, 20, 5, dt)
	assert.InDelta(t, 5.5, out.Target, 1e-9)
	for i := 0; i < 40; i++ {
		out = f.Step(true, 5, 5, dt)
	}
	assert.InDelta(t, -2, out.Target, 1e-9)

	assert.False(t, f.Step(false, 0, 0, dt).Active)
	assert.Equal(t, FlareGround, f.State())
}

func TestFlareGoAround(t *testing.T) {
	f := NewFlare(DefaultFlareConfig())
	f.Step(true, 0, 0, 0.1)
	f.Step(true, 0, 0, 0.1)
	f.Step(true, 100, 0, 0.1)
	f.Step(true, 40, 3, 0.1)
	f.Step(true, 40, 3, 0.1)
	require.Equal(t, FlareSetRate, f.State())
	assert.False(t, f.Step(true, 60, 3, 0.1).Active)
	assert.Equal(t, FlareFlightLow, f.State())
}

func TestTrimFreeze(t *testing.T) {
	var f TrimFreeze
	steps := []struct {
		flare   bool
		nz, phi float64
		frozen  bool
	}{
		{false, 1, 0, false},
		{false, 1.3, 0, true},
		{false, 1, 0, false},
		{false, 0.5, 0, true},
		{false, 0.6, 0, false},
		{true, 1, 0, true},
		{false, 1, 31, true},
		{false, 1, 30, false},
		{false, 1, -31, true},
	}
	for i, s := range steps {
		if frozen := f.Step(s.flare, s.nz, s.phi); frozen != s.frozen {
			t.Errorf("Bad freeze at step %v: %v", i, frozen)
		}
	}
}

func TestTrimMode(t *testing.T) {
	var m TrimMode
	steps := []struct {
		inFlight, tracking bool
		trim               float64
		state              TrimModeState
		command            TrimCommand
	}{
		{false, false, 2, TrimManual, TrimCommand{Reset: true, Initial: 2}},
		{false, false, 2, TrimManual, TrimCommand{Reset: true, Initial: 2}},
		{true, false, 2, TrimAutomatic, TrimCommand{Initial: 2}},
		{true, false, 3, TrimAutomatic, TrimCommand{Initial: 3}},
		{true, true, 3, TrimTracking, TrimCommand{Reset: true, Initial: 3}},
		{true, true, 3, TrimTracking, TrimCommand{Reset: true, Initial: 3}},
		{true, false, 3, TrimAutomatic, TrimCommand{Initial: 3}},
		{false, false, 3, TrimReset, TrimCommand{Reset: true}},
		{false, false, 3, TrimReset, TrimCommand{Reset: true}},
		{false, false, 0, TrimManual, TrimCommand{Reset: true}},
	}
	for i, s := range steps {
		c := m.Step(s.inFlight, s.tracking, s.trim)
		assert.Equal(t, s.state, m.State(), "step %v", i)
		assert.Equal(t, s.command, c, "step %v", i)
	}
}

func TestTrimConfiguration(t *testing.T) {
	var c TrimConfiguration
	assert.Equal(t, flapsLimits, c.Step(false, 0))
	assert.Equal(t, TrimConfigurationGround, c.State())
	assert.Equal(t, cleanLimits, c.Step(true, 0))
	assert.Equal(t, flapsLimits, c.Step(true, 2))
	assert.Equal(t, TrimConfigurationFlaps, c.State())
	assert.Equal(t, cleanLimits, c.Step(true, 0))
	c.Step(false, 0)
	assert.Equal(t, TrimConfigurationGround, c.State())
	c.Step(true, 1)
	assert.Equal(t, TrimConfigurationFlaps, c.State())
}

func TestRotation(t *testing.T) {
	var r Rotation
	if r.Step(0, 0, 0, 0, 0) {
		t.Errorf("Bad initial state")
	}
	if r.Step(0, 60, 40, 40, 0) {
		t.Errorf("Bad rotation below speed")
	}
	if !r.Step(0, 80, 40, 0, 0) {
		t.Errorf("Bad rotation start")
	}
	if !r.Step(0.5, 80, 40, 0, 100) {
		t.Errorf("Bad rotation hold")
	}
	if r.Step(1, 80, 40, 0, 100) {
		t.Errorf("Bad rotation end on fader")
	}
	r.Step(0, 80, 40, 40, 0)
	if r.Step(0, 60, 20, 40, 0) {
		t.Errorf("Bad rejected takeoff")
	}
}

// Every machine must accept any input from any state.
func TestStateMachineTotality(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	coin := func() bool { return rng.Intn(2) == 0 }
	g := NewGroundDetector(0.05)
	fm := NewFlightMode(DefaultFlightThresholds())
	fp := NewFlightPhase(DefaultFlightThresholds())
	fl := NewFlare(DefaultFlareConfig())
	var capability PitchCapability
	var tf TrimFreeze
	var tm TrimMode
	var tc TrimConfiguration
	var r Rotation
	sp := NewSideStickPriority(1)
	now := 0.0
	for i := 0; i < 20000; i++ {
		dt := rng.Float64() * 0.2
		now += dt
		theta := rng.Float64()*30 - 10
		ra := rng.Float64() * 600
		g.Step(float64(rng.Intn(3))*0.1, float64(rng.Intn(3))*0.1)
		fm.Step(coin(), theta, ra)
		fp.Step(coin(), theta, ra, now)
		fl.Step(coin(), rng.Float64()*80, theta, dt)
		capability.Step(FaultCounts{ADR: rng.Intn(4), IR: rng.Intn(4)}, rng.Intn(10) != 0, coin())
		tf.Step(coin(), rng.Float64()*2, rng.Float64()*80-40)
		tm.Step(coin(), coin(), float64(rng.Intn(3)))
		tc.Step(coin(), float64(rng.Intn(3)))
		r.Step(float64(rng.Intn(3))*0.5, rng.Float64()*140, rng.Float64()*80, rng.Float64()*80, ra)
		sp.Step(coin(), coin(), dt)

		require.NotEqual(t, GroundUninitialized, g.State())
		require.NotEqual(t, FlightUninitialized, fm.State())
		require.NotEqual(t, FlightUninitialized, fp.State())
		require.NotEqual(t, FlareUninitialized, fl.State())
		require.NotEqual(t, TrimFreezeUninitialized, tf.State())
		require.NotEqual(t, TrimModeUninitialized, tm.State())
		require.NotEqual(t, TrimConfigurationUninitialized, tc.State())
		require.NotEqual(t, RotationUninitialized, r.State())
		require.LessOrEqual(t, capability.Law(), PitchNone)
		s := sp.Status()
		require.False(t, s.LeftDisabled && s.RightDisabled)
	}
}
