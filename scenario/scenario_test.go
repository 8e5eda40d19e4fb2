package scenario

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bskari/go-fbw/autopilot"
	"github.com/bskari/go-fbw/computer"
	"github.com/bskari/go-fbw/mode"
)

func newRunner(t *testing.T) *Runner {
	r, err := NewRunner(computer.DefaultElacConfig(), computer.DefaultSecConfig(), autopilot.DefaultConfig(), nil)
	require.NoError(t, err)
	return r
}

func run(t *testing.T, name string) []Step {
	s, err := Get(name)
	require.NoError(t, err)
	var steps []Step
	require.NoError(t, newRunner(t).Run(context.Background(), s, func(step *Step) error {
		steps = append(steps, *step)
		return nil
	}))
	return steps
}

// last returns the final step of a segment.
func last(t *testing.T, steps []Step, segment string) Step {
	for i := len(steps) - 1; i >= 0; i-- {
		if steps[i].Segment == segment {
			return steps[i]
		}
	}
	t.Fatalf("No segment %s", segment)
	return Step{}
}

func TestSchedule(t *testing.T) {
	s := NewSchedule([]Segment{{Name: "a", Duration: 1}, {Name: "b", Duration: 0.5}})
	seg, since, ok := s.Segment(0.25)
	if !ok || seg.Name != "a" || since != 0.25 {
		t.Errorf("Bad first segment: %v %v %v", seg, since, ok)
	}
	if s.Reached(1.0) {
		t.Error("Left a segment at its end time")
	}
	if !s.Reached(1.125) {
		t.Error("Didn't reach the second segment")
	}
	seg, since, _ = s.Segment(1.125)
	if seg.Name != "b" || since != 0.125 {
		t.Errorf("Bad second segment: %v %v", seg.Name, since)
	}
	s.Reached(10)
	if !s.Done() {
		t.Error("Expected the schedule to be done")
	}
	if _, _, ok := s.Segment(10); ok {
		t.Error("Expected no segment")
	}
}

func TestFrameCountAndClock(t *testing.T) {
	steps := run(t, "ground")
	s := Ground()
	require.Len(t, steps, int(s.Duration()/s.Dt))
	for i, step := range steps {
		assert.InDelta(t, float64(i+1)*s.Dt, step.Frame.Time.SimulationTime, 1e-9)
		assert.Equal(t, i, step.Index)
	}
	assert.Equal(t, "neutral", steps[0].Segment)
	assert.Equal(t, "trim", steps[len(steps)-1].Segment)
}

func TestGroundOrdersFollowSticks(t *testing.T) {
	steps := run(t, "ground")
	for _, step := range steps {
		require.True(t, step.Output.Elac[0].OnGround)
		require.False(t, step.Autopilot.APOn)
		require.Equal(t, mode.PitchNormal, step.Output.PitchLaw)
	}

	pull := last(t, steps, "pull right")
	assert.InDelta(t, -30*0.3, pull.Output.Eta, 1e-9)
	assert.InDelta(t, -25*0.4, pull.Output.Xi, 1e-9)
	push := last(t, steps, "push left")
	assert.InDelta(t, -30*-0.5, push.Output.Eta, 1e-9)
	assert.InDelta(t, -25*-0.2, push.Output.Xi, 1e-9)

	// The trim order moves toward the wheel no faster than the ground rate.
	previous := push.Output.EtaTrim
	for _, step := range steps {
		if step.Segment != "trim" {
			continue
		}
		if math.Abs(step.Output.EtaTrim-previous) > 0.7*Dt+1e-9 {
			t.Errorf("Bad trim rate at %v: %v -> %v", step.Frame.Time.SimulationTime, previous, step.Output.EtaTrim)
		}
		previous = step.Output.EtaTrim
	}
	assert.LessOrEqual(t, previous, 3+1e-9)
}

func TestADRFaultDegradesPitchLaw(t *testing.T) {
	steps := run(t, "adr-fault")
	injected := -1
	degraded := -1
	for i, step := range steps {
		if injected < 0 && step.Segment == "adr fault" {
			injected = i
		}
		if degraded < 0 && step.Output.Elac[0].PitchCapability == mode.PitchAlternate1 {
			degraded = i
		}
		if step.Segment == "cruise" {
			require.Equal(t, mode.PitchNormal, step.Output.Elac[0].PitchCapability, step.Frame.Time.SimulationTime)
		}
	}
	assert.Equal(t, mode.PitchNormal, last(t, steps, "cruise").Output.PitchLaw)
	require.Positive(t, injected)
	require.Positive(t, degraded)

	// Within the one second confirmation, and the law follows in the same
	// frame.
	dwell := computer.DefaultElacConfig().ADR.Vcas.ConfirmTime
	assert.LessOrEqual(t, float64(degraded-injected)*Dt, dwell+Dt)
	assert.GreaterOrEqual(t, float64(degraded-injected)*Dt, dwell-Dt)
	assert.Equal(t, mode.PitchAlternate1, steps[degraded].Output.PitchLaw)

	// Lost in flight stays lost.
	assert.Equal(t, mode.PitchAlternate1, last(t, steps, "recovered").Output.PitchLaw)
}

func TestAltitudeStepIsRateLimited(t *testing.T) {
	steps := run(t, "vs-step")
	rate := autopilot.DefaultVerticalConfig().PitchRate
	for _, step := range steps {
		require.True(t, step.Autopilot.APOn)
		require.True(t, step.Frame.Autopilot.Engaged)
		assert.Equal(t, step.Autopilot.Autopilot.Theta, step.Frame.Autopilot.ThetaCommand)
	}
	assert.InDelta(t, 2, last(t, steps, "level").Autopilot.Autopilot.Theta, 1e-9)

	for i := 1; i < len(steps); i++ {
		previous, theta := steps[i-1].Autopilot.Autopilot.Theta, steps[i].Autopilot.Autopilot.Theta
		if math.Abs(theta-previous) > rate*Dt+1e-9 {
			t.Errorf("Bad pitch target rate at %v: %v -> %v", steps[i].Frame.Time.SimulationTime, previous, theta)
		}
	}
	assert.Greater(t, last(t, steps, "climb").Autopilot.Autopilot.Theta, 2.0)
}

func TestLandingDeploysGroundSpoilers(t *testing.T) {
	steps := run(t, "landing")
	for _, step := range steps {
		if step.Segment == "flare" {
			require.False(t, step.Output.Sec[0].GroundSpoilersOut)
		}
	}
	assert.True(t, last(t, steps, "touchdown").Output.Sec[0].GroundSpoilersOut)
	end := last(t, steps, "rollout")
	for i := range end.Output.LeftSpoilers {
		assert.InDelta(t, 50, end.Output.LeftSpoilers[i], 1e-9, "left spoiler %d", i+1)
		assert.InDelta(t, 50, end.Output.RightSpoilers[i], 1e-9, "right spoiler %d", i+1)
	}
}

type fixedGPS struct{ speed, track float64 }

func (g fixedGPS) Apply(in *autopilot.Input) bool {
	in.Vgnd, in.Track = g.speed, g.track
	return true
}

func TestGroundSpeedSource(t *testing.T) {
	r := newRunner(t)
	r.GPS = fixedGPS{speed: 140, track: 75}
	s := VSStep()
	s.Segments = s.Segments[:1]
	n := 0
	require.NoError(t, r.Run(context.Background(), s, func(step *Step) error {
		assert.Equal(t, 140.0, step.Input.Vgnd)
		assert.Equal(t, 75.0, step.Input.Track)
		n++
		return nil
	}))
	assert.Equal(t, 40, n)
}

func TestStopAndCancel(t *testing.T) {
	r := newRunner(t)
	n := 0
	err := r.Run(context.Background(), Ground(), func(step *Step) error {
		n++
		if n == 3 {
			return ErrStop
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	boom := errors.New("boom")
	err = r.Run(context.Background(), Ground(), func(*Step) error { return boom })
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.Run(ctx, Ground(), nil), context.Canceled)
}

func TestUnknownScenario(t *testing.T) {
	_, err := Get("loop")
	assert.ErrorIs(t, err, ErrUnknown)
	assert.Equal(t, []string{"adr-fault", "ground", "landing", "vs-step"}, Names())
}
