package computer

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bskari/go-fbw/arinc"
	"github.com/bskari/go-fbw/mode"
)

// A binary fraction so that the confirmation dwells land on exact frames.
const dt = 0.125

func air(cas, tas, mach, alpha float64) ADRBus {
	return ADRBus{
		Altitude: arinc.Normal(10000),
		Vcas:     arinc.Normal(cas),
		Vtas:     arinc.Normal(tas),
		Mach:     arinc.Normal(mach),
		Alpha:    arinc.Normal(alpha),
	}
}

func attitude(theta, phi float64) IRBus {
	return IRBus{
		Theta: arinc.Normal(theta),
		Phi:   arinc.Normal(phi),
		Q:     arinc.Normal(0),
		R:     arinc.Normal(0),
		P:     arinc.Normal(0),
		Nz:    arinc.Normal(1),
	}
}

func pressurised() Hydraulics {
	return Hydraulics{Green: 3000, Blue: 3000, Yellow: 3000}
}

func groundFrame() Frame {
	f := Frame{Time: Time{Dt: dt}, Hydraulics: pressurised()}
	for i := 0; i < 3; i++ {
		f.Sensors.ADR[i] = air(40, 40, 0.06, 0)
		f.Sensors.IR[i] = attitude(0, 0)
	}
	f.Sensors.StrutLeft, f.Sensors.StrutRight = 0.5, 0.5
	return f
}

func flightFrame() Frame {
	f := Frame{Time: Time{Dt: dt}, Hydraulics: pressurised()}
	for i := 0; i < 3; i++ {
		f.Sensors.ADR[i] = air(250, 280, 0.6, 3)
		f.Sensors.IR[i] = attitude(2, 0)
	}
	f.Sensors.RadioHeight = 2000
	f.Envelope = Envelope{
		Vls:               130,
		AlphaProt:         12,
		AlphaMax:          15,
		HighSpeedProtLow:  350,
		HighSpeedProtHigh: 360,
	}
	return f
}

// clock advances a frame's time.
type clock struct {
	t float64
}

func (c *clock) tick(f Frame) Frame {
	c.t += dt
	f.Time = Time{Dt: dt, SimulationTime: c.t}
	return f
}

func newSystem(t *testing.T) *System {
	s, err := NewSystem(DefaultElacConfig(), DefaultSecConfig(), nil)
	require.NoError(t, err)
	return s
}

func TestOnGroundOrdersFollowSticks(t *testing.T) {
	s := newSystem(t)
	var c clock
	f := groundFrame()
	f.Cockpit.CaptPitch = 0.3
	f.Cockpit.CaptRoll = 0.4
	f.Servos.Ths = 2
	for i := 0; i < 20; i++ {
		out := s.Step(c.tick(f))
		assert.True(t, out.Elac[0].OnGround)
		assert.Equal(t, Elac1, out.PitchAuthority)
		assert.Equal(t, Elac1, out.RollAuthority)
		assert.Equal(t, mode.PitchNormal, out.PitchLaw)
		assert.Equal(t, mode.LateralNormal, out.LateralLaw)
		assert.InDelta(t, -30*0.3, out.Eta, 1e-9)
		assert.InDelta(t, 2, out.EtaTrim, 1e-9)
		assert.InDelta(t, -25*0.4, out.Xi, 1e-9)
		if i > 0 && out.Elac[1].Pitch.Engaged {
			t.Errorf("Bad ELAC 2 pitch engagement at %d", i)
		}
	}
}

func TestDoubleADRFaultDegradesToAlternate(t *testing.T) {
	s := newSystem(t)
	var c clock
	f := flightFrame()
	var out Output
	for i := 0; i < 40; i++ {
		out = s.Step(c.tick(f))
		require.Equal(t, mode.PitchNormal, out.Elac[0].PitchCapability)
	}
	assert.False(t, out.Elac[0].OnGround)

	f.Sensors.ADR[1].Vcas = arinc.Normal(280)
	f.Sensors.ADR[2].Vcas = arinc.Normal(220)
	for i := 1; i < 8; i++ {
		out = s.Step(c.tick(f))
		if out.Elac[0].PitchCapability != mode.PitchNormal || out.PitchLaw != mode.PitchNormal {
			t.Errorf("Bad early degradation at frame %d: %v", i, out.Elac[0].PitchCapability)
		}
	}
	out = s.Step(c.tick(f))
	assert.Equal(t, 2, out.Elac[0].Faults.ADR)
	assert.Equal(t, mode.PitchAlternate1, out.Elac[0].PitchCapability)
	assert.Equal(t, mode.PitchAlternate1, out.Elac[0].ActivePitchLaw)
	assert.Equal(t, mode.PitchAlternate1, out.PitchLaw)
	assert.Equal(t, mode.LateralDirect, out.LateralLaw)
	status := DecodeElacStatus(out.Elac[0].Bus.Status1, out.Elac[0].Bus.Status2)
	assert.Equal(t, mode.PitchAlternate1, status.PitchCapability)
	assert.Equal(t, mode.PitchAlternate1, status.ActivePitchLaw)

	// Lost in flight stays lost.
	f.Sensors.ADR[1].Vcas = arinc.Normal(250)
	f.Sensors.ADR[2].Vcas = arinc.Normal(250)
	for i := 0; i < 20; i++ {
		out = s.Step(c.tick(f))
	}
	assert.Equal(t, 0, out.Elac[0].Faults.ADR)
	assert.Equal(t, mode.PitchAlternate1, out.PitchLaw)
}

func failedIR() IRBus {
	w := arinc.NewWord(arinc.FailureWarning, 0)
	return IRBus{Theta: w, Phi: w, Q: w, R: w, P: w, Nz: w}
}

func TestTwoFailedIRsHoldAlternate2(t *testing.T) {
	s := newSystem(t)
	var c clock
	f := flightFrame()
	for i := 0; i < 40; i++ {
		s.Step(c.tick(f))
	}

	f.Sensors.IR[1] = failedIR()
	f.Sensors.IR[2] = failedIR()
	// Long enough for any disagreement with the failed data to confirm
	var out Output
	for i := 0; i < 40; i++ {
		out = s.Step(c.tick(f))
		require.Equal(t, 2, out.Elac[0].Faults.IR, "frame %d", i)
		require.Equal(t, mode.PitchAlternate2, out.Elac[0].PitchCapability, "frame %d", i)
	}
	assert.Equal(t, mode.PitchAlternate2, out.PitchLaw)
}

func TestPitchHandsOverToElac2(t *testing.T) {
	s := newSystem(t)
	var c clock
	f := flightFrame()
	for i := 0; i < 10; i++ {
		s.Step(c.tick(f))
	}
	f.Hydraulics.Blue = 0
	f.Hydraulics.BlueLow = true
	var out Output
	for i := 0; i < 8; i++ {
		out = s.Step(c.tick(f))
	}
	assert.False(t, out.Elac[0].Pitch.CanEngage)
	assert.True(t, out.Elac[1].Pitch.Engaged)
	assert.Equal(t, Elac2, out.PitchAuthority)
	// ELAC 1 keeps the right aileron on green.
	assert.Equal(t, Elac1, out.RollAuthority)
	assert.False(t, out.Elac[0].LeftAileronActive)
	assert.True(t, out.Elac[0].RightAileronActive)
}

func TestCheckpointReplays(t *testing.T) {
	s := newSystem(t)
	var c clock
	f := flightFrame()
	for i := 0; i < 20; i++ {
		s.Step(c.tick(f))
	}
	saved := s.Checkpoint()
	start := c
	run := func() []Output {
		var outs []Output
		for i := 0; i < 30; i++ {
			g := f
			g.Cockpit.CaptPitch = float64(i%7) / 10
			g.Cockpit.CaptRoll = -float64(i%5) / 10
			outs = append(outs, s.Step(c.tick(g)))
		}
		return outs
	}
	first := run()
	s.Restore(saved)
	c = start
	second := run()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Bad replay (-first +second):\n%s", diff)
	}
}

func TestElacStatusRoundTrip(t *testing.T) {
	for _, pitch := range []mode.PitchLaw{mode.PitchNormal, mode.PitchAlternate1, mode.PitchAlternate2, mode.PitchDirect, mode.PitchNone} {
		for _, lateral := range []mode.LateralLaw{mode.LateralNormal, mode.LateralDirect, mode.LateralNone} {
			s := ElacStatus{
				RightAileronFailed:     true,
				LeftAileronAvailable:   true,
				RightElevatorAvailable: true,
				PitchEngaged:           true,
				CanEngagePitch:         true,
				ActivePitchLaw:         pitch,
				ActiveLateralLaw:       lateral,
				PitchCapability:        pitch,
				LateralCapability:      lateral,
				Sticks:                 mode.SideStickStatus{RightDisabled: true, RightLocked: true},
			}
			w1, w2 := s.Words()
			assert.True(t, w1.IsNormal())
			if diff := cmp.Diff(s, DecodeElacStatus(w1, w2)); diff != "" {
				t.Errorf("Bad round trip for %v %v:\n%s", pitch, lateral, diff)
			}
		}
	}
}

func TestSecStatusRoundTrip(t *testing.T) {
	s := SecStatus{
		LeftElevatorAvailable: true,
		PitchEngaged:          true,
		CanEngagePitch:        true,
		PitchCapability:       mode.PitchAlternate2,
		ActivePitchLaw:        mode.PitchDirect,
		GroundSpoilersArmed:   true,
		Pair2Available:        true,
		Abnormal:              true,
	}
	if diff := cmp.Diff(s, DecodeSecStatus(s.Word())); diff != "" {
		t.Errorf("Bad round trip:\n%s", diff)
	}
}

func TestSilentPeerCountsAsFailed(t *testing.T) {
	var b ElacBus
	assert.True(t, b.pitchFailed())
	assert.True(t, b.aileronsLost())
	_, _, ok := b.capabilities()
	assert.False(t, ok)
}

func newSec(t *testing.T, unit int) *Sec {
	s, err := NewSec(unit, DefaultSecConfig(), nil)
	require.NoError(t, err)
	return s
}

func TestSecAbnormalAttitudeLatches(t *testing.T) {
	s := newSec(t, 1)
	var c clock
	var elacs [2]ElacBus
	f := flightFrame()
	var out SecOutput
	for i := 0; i < 10; i++ {
		out = s.Step(c.tick(f), elacs, SecBus{})
	}
	require.True(t, out.InFlight)
	require.True(t, out.Pitch.Engaged)
	assert.Equal(t, mode.PitchAlternate1, out.ActivePitchLaw)

	for i := range f.Sensors.IR {
		f.Sensors.IR[i].Phi = arinc.Normal(130)
	}
	out = s.Step(c.tick(f), elacs, SecBus{})
	assert.True(t, out.Abnormal)
	assert.Equal(t, mode.PitchAlternate2, out.ActivePitchLaw)

	for i := range f.Sensors.IR {
		f.Sensors.IR[i].Phi = arinc.Normal(0)
	}
	for i := 0; i < 10; i++ {
		out = s.Step(c.tick(f), elacs, SecBus{})
	}
	assert.True(t, out.Abnormal)
	assert.Equal(t, mode.PitchAlternate2, out.ActivePitchLaw)
	assert.True(t, DecodeSecStatus(out.Bus.Status1).Abnormal)

	f.Sensors.StrutLeft, f.Sensors.StrutRight = 0.5, 0.5
	out = s.Step(c.tick(f), elacs, SecBus{})
	assert.False(t, out.Abnormal)
	assert.Equal(t, mode.PitchAlternate1, out.ActivePitchLaw)
}

func TestSecDefersToElacs(t *testing.T) {
	s := newSec(t, 1)
	healthy := DefaultElacConfig()
	e, err := NewElac(1, healthy, nil)
	require.NoError(t, err)
	var c clock
	f := c.tick(flightFrame())
	bus := e.Step(f, ElacBus{}).Bus
	out := s.Step(f, [2]ElacBus{bus, {}}, SecBus{})
	assert.False(t, out.Pitch.Engaged)
	assert.False(t, out.RollEngaged)
	assert.Equal(t, mode.PitchNone, out.ActivePitchLaw)

	// SEC 2 waits for SEC 1 as well.
	s2 := newSec(t, 2)
	out = s2.Step(f, [2]ElacBus{}, out.Bus)
	assert.True(t, out.Pitch.CanEngage)
	assert.False(t, out.Pitch.Engaged)

	// SEC 3 has no elevator.
	out = newSec(t, 3).Step(f, [2]ElacBus{}, SecBus{})
	assert.False(t, out.Pitch.CanEngage)
}

func TestGroundSpoilersAtTouchdown(t *testing.T) {
	s := newSec(t, 1)
	var c clock
	var elacs [2]ElacBus
	f := flightFrame()
	f.Cockpit.GroundSpoilersArmed = true
	for i := 0; i < 10; i++ {
		out := s.Step(c.tick(f), elacs, SecBus{})
		assert.False(t, out.GroundSpoilersOut)
	}

	f.Sensors.StrutLeft, f.Sensors.StrutRight = 0.5, 0.5
	f.Sensors.RadioHeight = 0
	var out SecOutput
	for i := 0; i < 24; i++ {
		out = s.Step(c.tick(f), elacs, SecBus{})
		assert.True(t, out.GroundSpoilersOut, i)
		assert.LessOrEqual(t, out.LeftSpoilers[0], 30*dt*float64(i+1)+1e-9)
	}
	assert.InDelta(t, 50, out.LeftSpoilers[0], 1e-9)
	assert.InDelta(t, 50, out.RightSpoilers[1], 1e-9)
	assert.True(t, DecodeSecStatus(out.Bus.Status1).GroundSpoilersOut)

	f.Cockpit.ThrustLever1, f.Cockpit.ThrustLever2 = 30, 30
	out = s.Step(c.tick(f), elacs, SecBus{})
	assert.False(t, out.GroundSpoilersOut)
}

func TestPartialLiftDumping(t *testing.T) {
	s := newSec(t, 1)
	var c clock
	var elacs [2]ElacBus
	f := flightFrame()
	f.Cockpit.GroundSpoilersArmed = true
	for i := 0; i < 10; i++ {
		s.Step(c.tick(f), elacs, SecBus{})
	}
	f.Sensors.StrutLeft = 0.5
	f.Sensors.RadioHeight = 0
	var out SecOutput
	for i := 0; i < 8; i++ {
		out = s.Step(c.tick(f), elacs, SecBus{})
		assert.True(t, out.PartialLiftDumping, i)
		assert.False(t, out.GroundSpoilersOut, i)
	}
	assert.InDelta(t, 10, out.LeftSpoilers[0], 1e-9)

	f.Sensors.StrutRight = 0.5
	out = s.Step(c.tick(f), elacs, SecBus{})
	assert.True(t, out.GroundSpoilersOut)
	assert.False(t, out.PartialLiftDumping)
}

func TestSpeedBrakeInhibit(t *testing.T) {
	s := newSec(t, 1)
	var c clock
	var elacs [2]ElacBus
	f := flightFrame()
	f.Cockpit.SpeedBrakeLever = 1
	var out SecOutput
	for i := 0; i < 80; i++ {
		out = s.Step(c.tick(f), elacs, SecBus{})
	}
	assert.InDelta(t, 40, out.SpeedBrake, 1e-9)
	assert.InDelta(t, 40, out.LeftSpoilers[0], 1e-9)
	assert.InDelta(t, 40, out.RightSpoilers[1], 1e-9)

	f.Cockpit.ThrustLever1 = 30
	out = s.Step(c.tick(f), elacs, SecBus{})
	assert.True(t, out.SpeedBrakeInhibited)
	f.Cockpit.ThrustLever1 = 10
	out = s.Step(c.tick(f), elacs, SecBus{})
	assert.True(t, out.SpeedBrakeInhibited)

	f.Cockpit.SpeedBrakeLever = 0
	for i := 0; i < 3; i++ {
		out = s.Step(c.tick(f), elacs, SecBus{})
		assert.True(t, out.SpeedBrakeInhibited, i)
	}
	out = s.Step(c.tick(f), elacs, SecBus{})
	assert.False(t, out.SpeedBrakeInhibited)
}

func TestRollSpoilersFollowElac(t *testing.T) {
	s := newSec(t, 1)
	var c clock
	var elacs [2]ElacBus
	var status ElacStatus
	status.RollEngaged = true
	elacs[0].Status1, elacs[0].Status2 = status.Words()
	elacs[0].RollSpoilerCommand = arinc.Normal(12)
	f := c.tick(flightFrame())
	out := s.Step(f, elacs, SecBus{})
	assert.False(t, out.RollEngaged)
	assert.InDelta(t, 12, out.RollSpoiler, 1e-6)
	assert.InDelta(t, 12, out.RightSpoilers[0], 1e-6)
	assert.InDelta(t, 0, out.LeftSpoilers[0], 1e-6)
}

func TestBadConfig(t *testing.T) {
	c := DefaultElacConfig()
	c.Hydraulic.High = c.Hydraulic.Low
	c.ADR.Vcas.Threshold = 0
	err := c.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadConfig))

	_, err = NewElac(3, DefaultElacConfig(), nil)
	assert.True(t, errors.Is(err, ErrBadConfig))
	_, err = NewSec(0, DefaultSecConfig(), nil)
	assert.True(t, errors.Is(err, ErrBadConfig))

	sc := DefaultSecConfig()
	sc.Spoilers.SpeedBrakeRate = -1
	_, err = NewSec(1, sc, nil)
	assert.True(t, errors.Is(err, ErrBadConfig))
}

func BenchmarkSystemStep(b *testing.B) {
	s, err := NewSystem(DefaultElacConfig(), DefaultSecConfig(), nil)
	if err != nil {
		b.Fatal(err)
	}
	f := flightFrame()
	for i := 0; i < b.N; i++ {
		f.Time.SimulationTime += dt
		s.Step(f)
	}
}
