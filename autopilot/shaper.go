package autopilot

import (
	"github.com/bskari/go-fbw/filter"
	"github.com/bskari/go-fbw/numeric"
)

// ShaperState carries one axis of autopilot order shaping.
type ShaperState struct {
	Command     filter.RateLimiter
	Lag         filter.Lag
	Fader       filter.RateLimiter
	Initialized bool
}

func newShaper(rate, lag, faderRate float64) ShaperState {
	return ShaperState{
		Command: filter.NewRateLimiter(rate, rate, 0),
		Lag:     filter.NewLag(lag),
		Fader:   filter.NewRateLimiter(faderRate, faderRate, 0),
	}
}

// step moves the order toward target at the command rate. While the
// autopilot is off the order tracks the current attitude, and the fader
// blends between the two across engagement and disengagement.
func (s *ShaperState) step(target, current float64, apOn bool, dt float64) float64 {
	if !apOn || !s.Initialized {
		s.Command.Set(current)
		s.Initialized = true
	}
	lagged := s.Lag.Step(s.Command.Step(target, dt), dt)
	f := numeric.Clamp(s.Fader.Step(numeric.BoolToFloat(apOn), dt), 0, 1)
	return numeric.Lerp(current, lagged, f)
}

// Fade is the current engagement fader, 0 with the autopilot off and 1
// once fully engaged.
func (s *ShaperState) Fade() float64 {
	return numeric.Clamp(s.Fader.Output(), 0, 1)
}
