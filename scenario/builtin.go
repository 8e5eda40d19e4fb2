package scenario

import (
	"errors"
	"fmt"
	"sort"

	"github.com/bskari/go-fbw/arinc"
	"github.com/bskari/go-fbw/autopilot"
	"github.com/bskari/go-fbw/computer"
	"github.com/bskari/go-fbw/numeric"
)

const Dt = 0.125

var ErrUnknown = errors.New("scenario: unknown scenario")

var builtin = map[string]func() Scenario{
	"ground":    Ground,
	"adr-fault": ADRFault,
	"vs-step":   VSStep,
	"landing":   Landing,
}

func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Get(name string) (Scenario, error) {
	build, ok := builtin[name]
	if !ok {
		return Scenario{}, fmt.Errorf("%w %q, have %v", ErrUnknown, name, Names())
	}
	return build(), nil
}

func air(cas, tas, mach, alpha float64) computer.ADRBus {
	return computer.ADRBus{
		Altitude: arinc.Normal(10000),
		Vcas:     arinc.Normal(cas),
		Vtas:     arinc.Normal(tas),
		Mach:     arinc.Normal(mach),
		Alpha:    arinc.Normal(alpha),
	}
}

func attitude(theta, phi float64) computer.IRBus {
	return computer.IRBus{
		Theta: arinc.Normal(theta),
		Phi:   arinc.Normal(phi),
		Q:     arinc.Normal(0),
		R:     arinc.Normal(0),
		P:     arinc.Normal(0),
		Nz:    arinc.Normal(1),
	}
}

func parked() computer.Frame {
	f := computer.Frame{
		Hydraulics: computer.Hydraulics{Green: 3000, Blue: 3000, Yellow: 3000},
	}
	for i := 0; i < 3; i++ {
		f.Sensors.ADR[i] = air(40, 40, 0.06, 0)
		f.Sensors.IR[i] = attitude(0, 0)
	}
	f.Sensors.StrutLeft, f.Sensors.StrutRight = 0.5, 0.5
	f.Sensors.LandingGearDown = true
	return f
}

func cruising() computer.Frame {
	f := computer.Frame{
		Hydraulics: computer.Hydraulics{Green: 3000, Blue: 3000, Yellow: 3000},
	}
	for i := 0; i < 3; i++ {
		f.Sensors.ADR[i] = air(250, 280, 0.6, 3)
		f.Sensors.IR[i] = attitude(2, 0)
	}
	f.Sensors.RadioHeight = 2000
	f.Envelope = computer.Envelope{
		Vls:               130,
		AlphaProt:         12,
		AlphaMax:          15,
		HighSpeedProtLow:  350,
		HighSpeedProtHigh: 360,
	}
	return f
}

func sticks(pitch, roll float64) func(float64, *computer.Frame, *autopilot.Input) {
	return func(_ float64, f *computer.Frame, _ *autopilot.Input) {
		f.Cockpit.CaptPitch, f.Cockpit.CaptRoll = pitch, roll
	}
}

// Ground holds the aircraft on its gear with the autopilot off while the
// captain moves the stick and the trim wheel.
func Ground() Scenario {
	return Scenario{
		Name:        "ground",
		Description: "on ground, stick and trim inputs reach the surfaces directly",
		Dt:          Dt,
		Frame:       parked(),
		Segments: []Segment{
			{Name: "neutral", Duration: 1},
			{Name: "pull right", Duration: 2, Apply: sticks(0.3, 0.4)},
			{Name: "push left", Duration: 2, Apply: sticks(-0.5, -0.2)},
			{Name: "trim", Duration: 2, Apply: func(_ float64, f *computer.Frame, _ *autopilot.Input) {
				f.Cockpit.CaptPitch, f.Cockpit.CaptRoll = 0, 0
				f.Servos.Ths = 3
			}},
		},
	}
}

// ADRFault makes two air data computers disagree on airspeed in cruise,
// then brings them back.
func ADRFault() Scenario {
	return Scenario{
		Name:        "adr-fault",
		Description: "double ADR airspeed disagreement in cruise",
		Dt:          Dt,
		Frame:       cruising(),
		Segments: []Segment{
			{Name: "cruise", Duration: 5},
			{Name: "adr fault", Duration: 6, Apply: func(_ float64, f *computer.Frame, _ *autopilot.Input) {
				f.Sensors.ADR[1].Vcas = arinc.Normal(280)
				f.Sensors.ADR[2].Vcas = arinc.Normal(220)
			}},
			{Name: "recovered", Duration: 4, Apply: func(_ float64, f *computer.Frame, _ *autopilot.Input) {
				f.Sensors.ADR[1].Vcas = arinc.Normal(250)
				f.Sensors.ADR[2].Vcas = arinc.Normal(250)
			}},
		},
	}
}

// VSStep flies level on the vertical speed law, then selects an altitude
// far above with a steep climb.
func VSStep() Scenario {
	return Scenario{
		Name:        "vs-step",
		Description: "autopilot vertical speed law with a large altitude target step",
		Dt:          Dt,
		Frame:       cruising(),
		Autopilot: autopilot.Input{
			AP1:            true,
			VerticalLaw:    autopilot.VerticalVS,
			AltitudeTarget: 10000,
			SpeedTarget:    250,
		},
		Segments: []Segment{
			{Name: "level", Duration: 5},
			{Name: "climb", Duration: 20, Apply: func(_ float64, _ *computer.Frame, in *autopilot.Input) {
				in.AltitudeTarget = 35000
				in.VSTarget = 6000
			}},
		},
	}
}

// Landing descends onto the gear with the ground spoilers armed and rolls
// out.
func Landing() Scenario {
	f := cruising()
	for i := 0; i < 3; i++ {
		f.Sensors.ADR[i] = air(135, 135, 0.2, 5)
	}
	f.Sensors.RadioHeight = 50
	f.Sensors.LandingGearDown = true
	f.Cockpit.GroundSpoilersArmed = true
	return Scenario{
		Name:        "landing",
		Description: "flare, touchdown with armed ground spoilers and rollout",
		Dt:          Dt,
		Frame:       f,
		Segments: []Segment{
			{Name: "flare", Duration: 2, Apply: func(t float64, f *computer.Frame, _ *autopilot.Input) {
				f.Sensors.RadioHeight = numeric.Clamp(50-25*t, 0, 50)
			}},
			{Name: "touchdown", Duration: 1, Apply: func(_ float64, f *computer.Frame, _ *autopilot.Input) {
				f.Sensors.RadioHeight = 0
				f.Sensors.StrutLeft, f.Sensors.StrutRight = 0.5, 0.5
				f.Sensors.WheelSpeedLeft, f.Sensors.WheelSpeedRight = 130, 130
			}},
			{Name: "rollout", Duration: 5, Apply: func(t float64, f *computer.Frame, _ *autopilot.Input) {
				speed := numeric.Clamp(130-20*t, 0, 130)
				f.Sensors.WheelSpeedLeft, f.Sensors.WheelSpeedRight = speed, speed
			}},
		},
	}
}
