package computer

import (
	"errors"

	"github.com/bskari/go-fbw/logger"
	"github.com/bskari/go-fbw/mode"
)

// Authority names the computer whose orders reach a surface.
type Authority uint8

const (
	NoAuthority Authority = iota
	Elac1
	Elac2
	Sec1
	Sec2
	Sec3
)

func (a Authority) String() string {
	return []string{"none", "ELAC 1", "ELAC 2", "SEC 1", "SEC 2", "SEC 3"}[a]
}

// Output is the combined result of one frame of all five computers.
type Output struct {
	Elac [2]ElacOutput
	Sec  [3]SecOutput

	PitchAuthority Authority
	RollAuthority  Authority
	PitchLaw       mode.PitchLaw
	LateralLaw     mode.LateralLaw

	Eta, EtaTrim float64
	Xi, Zeta     float64
	// Spoilers 1 to 5 on each wing, degrees up.
	LeftSpoilers  [5]float64
	RightSpoilers [5]float64
}

// System steps the five computers of one aircraft and carries their buses
// from one frame to the next.
type System struct {
	Elacs [2]*Elac
	Secs  [3]*Sec

	elacBus [2]ElacBus
	secBus  [3]SecBus
}

type SystemCheckpoint struct {
	Elacs   [2]ElacCheckpoint
	Secs    [3]SecCheckpoint
	ElacBus [2]ElacBus
	SecBus  [3]SecBus
}

func NewSystem(elac ElacConfig, sec SecConfig, log *logger.MultiLogger) (*System, error) {
	s := &System{}
	var errs []error
	for i := range s.Elacs {
		e, err := NewElac(i+1, elac, log)
		s.Elacs[i] = e
		errs = append(errs, err)
	}
	for i := range s.Secs {
		c, err := NewSec(i+1, sec, log)
		s.Secs[i] = c
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *System) Reset() {
	for _, e := range s.Elacs {
		e.Reset()
	}
	for _, c := range s.Secs {
		c.Reset()
	}
	s.elacBus = [2]ElacBus{}
	s.secBus = [3]SecBus{}
}

func (s *System) Checkpoint() SystemCheckpoint {
	c := SystemCheckpoint{ElacBus: s.elacBus, SecBus: s.secBus}
	for i, e := range s.Elacs {
		c.Elacs[i] = e.Checkpoint()
	}
	for i, sec := range s.Secs {
		c.Secs[i] = sec.Checkpoint()
	}
	return c
}

func (s *System) Restore(c SystemCheckpoint) {
	for i, e := range s.Elacs {
		e.Restore(c.Elacs[i])
	}
	for i, sec := range s.Secs {
		sec.Restore(c.Secs[i])
	}
	s.elacBus = c.ElacBus
	s.secBus = c.SecBus
}

// spoilerIndex maps each SEC spoiler pair to its spoiler number minus one.
var spoilerIndex = [3][2]int{{2, 3}, {4, -1}, {0, 1}}

func (s *System) Step(f Frame) Output {
	var out Output
	elacBus, secBus := s.elacBus, s.secBus

	out.Elac[0] = s.Elacs[0].Step(f, elacBus[1])
	out.Elac[1] = s.Elacs[1].Step(f, elacBus[0])
	out.Sec[0] = s.Secs[0].Step(f, elacBus, secBus[1])
	out.Sec[1] = s.Secs[1].Step(f, elacBus, secBus[0])
	out.Sec[2] = s.Secs[2].Step(f, elacBus, secBus[0])

	for i := range s.elacBus {
		s.elacBus[i] = out.Elac[i].Bus
	}
	for i := range s.secBus {
		s.secBus[i] = out.Sec[i].Bus
	}

	out.PitchLaw = mode.PitchNone
	switch {
	case out.Elac[0].Pitch.Engaged:
		out.PitchAuthority = Elac1
	case out.Elac[1].Pitch.Engaged:
		out.PitchAuthority = Elac2
	case out.Sec[0].Pitch.Engaged:
		out.PitchAuthority = Sec1
	case out.Sec[1].Pitch.Engaged:
		out.PitchAuthority = Sec2
	}
	switch out.PitchAuthority {
	case Elac1, Elac2:
		e := &out.Elac[out.PitchAuthority-Elac1]
		out.Eta, out.EtaTrim, out.PitchLaw = e.Eta, e.EtaTrim, e.ActivePitchLaw
	case Sec1, Sec2:
		c := &out.Sec[out.PitchAuthority-Sec1]
		out.Eta, out.EtaTrim, out.PitchLaw = c.Eta, c.EtaTrim, c.ActivePitchLaw
	}

	out.LateralLaw = mode.LateralNone
	switch {
	case out.Elac[0].Roll.Engaged:
		out.RollAuthority = Elac1
	case out.Elac[1].Roll.Engaged:
		out.RollAuthority = Elac2
	case out.Sec[0].RollEngaged:
		// Spoilers only.
		out.RollAuthority = Sec1
		out.LateralLaw = mode.LateralDirect
	}
	if out.RollAuthority == Elac1 || out.RollAuthority == Elac2 {
		e := &out.Elac[out.RollAuthority-Elac1]
		out.Xi, out.Zeta, out.LateralLaw = e.Xi, e.Zeta, e.ActiveLateralLaw
	}

	for unit, pairs := range spoilerIndex {
		for pair, n := range pairs {
			if n < 0 {
				continue
			}
			out.LeftSpoilers[n] = out.Sec[unit].LeftSpoilers[pair]
			out.RightSpoilers[n] = out.Sec[unit].RightSpoilers[pair]
		}
	}
	return out
}
