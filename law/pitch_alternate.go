package law

import (
	"fmt"

	"github.com/bskari/go-fbw/mode"
)

type PitchAlternateConfig struct {
	Flight     mode.FlightThresholds `toml:"flight"`
	Flare      mode.FlareConfig      `toml:"flare"`
	CStar      CStarConfig           `toml:"cstar"`
	Protection ProtectionConfig      `toml:"protection"`
	Trim       TrimConfig            `toml:"trim"`
}

func DefaultPitchAlternateConfig() PitchAlternateConfig {
	return PitchAlternateConfig{
		Flight:     mode.DefaultFlightThresholds(),
		Flare:      mode.DefaultFlareConfig(),
		CStar:      DefaultCStarConfig(),
		Protection: DefaultProtectionConfig(),
		Trim:       DefaultTrimConfig(),
	}
}

func newPitchCore(flight mode.FlightThresholds, flare mode.FlareConfig, c CStarConfig, p ProtectionConfig, trim TrimConfig, t *tables) pitchCore {
	p.check(t)
	trim.check(t)
	t.check("flare reduce time", flare.ReduceTime)
	return pitchCore{
		cstar:       newCStar(c, t),
		protections: protections{p},
		trim:        trim,
		flight:      flight,
		flare:       flare,
	}
}

// PitchAlternate is the C* law without attitude protection. In Alternate 2
// it also loses the angle of attack and high speed protections.
type PitchAlternate struct {
	core  pitchCore
	state PitchState
}

func NewPitchAlternate(c PitchAlternateConfig) (*PitchAlternate, error) {
	var t tables
	l := &PitchAlternate{core: newPitchCore(c.Flight, c.Flare, c.CStar, c.Protection, c.Trim, &t)}
	if err := t.err(); err != nil {
		return nil, fmt.Errorf("pitch alternate law: %w", err)
	}
	l.Reset()
	return l, nil
}

func (l *PitchAlternate) Reset() {
	l.state = l.core.newState()
}

func (l *PitchAlternate) State() PitchState {
	return l.state
}

func (l *PitchAlternate) Restore(s PitchState) {
	l.state = s
}

func (l *PitchAlternate) Step(in PitchInput, alternate2 bool) PitchOutput {
	if alternate2 {
		in.HighAoaProt = false
		in.HighSpeedProt = false
	}
	s := &l.state
	f := l.core.begin(s, &in)
	stick := s.Stick.Step(in.Stick, in.Dt)
	increment := l.core.loadDemand.Lookup(stick) +
		l.core.highAoa(&s.HighAoa, &in, in.HighAoaProt) +
		l.core.highSpeed(&s.HighSpeed, &in, in.HighSpeedProt)
	rates := [3]float64{
		l.core.rate(&s.Paths[0], &in, f.nzUpper),
		l.core.rate(&s.Paths[1], &in, l.core.demandTarget(&in, increment)),
		l.core.rate(&s.Paths[2], &in, f.nzLower),
	}
	return l.core.finish(s, &in, f, rates, false)
}
