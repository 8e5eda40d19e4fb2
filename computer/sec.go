package computer

import (
	"errors"
	"fmt"
	"math"

	"github.com/brunoga/deep"

	"github.com/bskari/go-fbw/arinc"
	"github.com/bskari/go-fbw/filter"
	"github.com/bskari/go-fbw/law"
	"github.com/bskari/go-fbw/logger"
	"github.com/bskari/go-fbw/mode"
	"github.com/bskari/go-fbw/monitor"
	"github.com/bskari/go-fbw/numeric"
	"github.com/bskari/go-fbw/redundancy"
	"github.com/bskari/go-fbw/table"
)

type SecADRConfig struct {
	Vcas  redundancy.DuplexConfig `toml:"vcas"`
	Vtas  redundancy.DuplexConfig `toml:"vtas"`
	Mach  redundancy.DuplexConfig `toml:"mach"`
	Alpha redundancy.DuplexConfig `toml:"alpha"`
}

type SecIRConfig struct {
	Theta redundancy.DuplexConfig `toml:"theta"`
	Phi   redundancy.DuplexConfig `toml:"phi"`
	Q     redundancy.DuplexConfig `toml:"q"`
	R     redundancy.DuplexConfig `toml:"r"`
	P     redundancy.DuplexConfig `toml:"p"`
	Nz    redundancy.DuplexConfig `toml:"nz"`
}

// AbnormalConfig bounds the attitude and air data outside which the SEC
// falls back to Alternate 2 for the rest of the flight.
type AbnormalConfig struct {
	MachMax  float64 `toml:"mach_max"`
	AlphaMin float64 `toml:"alpha_min_deg"`
	AlphaMax float64 `toml:"alpha_max_deg"`
	VcasMin  float64 `toml:"vcas_min_kn"`
	VcasMax  float64 `toml:"vcas_max_kn"`
	PhiMax   float64 `toml:"phi_max_deg"`
	ThetaMin float64 `toml:"theta_min_deg"`
	ThetaMax float64 `toml:"theta_max_deg"`
}

type SpoilerConfig struct {
	// Speed brake deflection by lever position.
	SpeedBrake     table.Spec `toml:"speed_brake"`
	SpeedBrakeRate float64    `toml:"speed_brake_rate_deg_s"`
	// Thrust lever angle at or above which the speed brakes are inhibited
	// until the lever has been retracted.
	InhibitThrustLever float64 `toml:"inhibit_thrust_lever_deg"`
	RetractedLever     float64 `toml:"retracted_lever"`
	RetractedConfirm   float64 `toml:"retracted_confirm_s"`

	// Thrust lever angle at or below which a lever is at idle.
	IdleThrustLever float64 `toml:"idle_thrust_lever_deg"`
	// Speed brake lever position that deploys the ground spoilers unarmed.
	DeployLever float64 `toml:"deploy_lever"`
	// Wheel speeds of the rejected takeoff logic, knots.
	WheelSpeedHigh float64 `toml:"wheel_speed_high_kn"`
	WheelSpeedLow  float64 `toml:"wheel_speed_low_kn"`

	GroundSpoilerDeflection float64 `toml:"ground_spoiler_deg"`
	PartialLiftDumping      float64 `toml:"partial_lift_dumping_deg"`
	GroundSpoilerRate       float64 `toml:"ground_spoiler_rate_deg_s"`
	MaxDeflection           float64 `toml:"max_deflection_deg"`
	RollSpoilerGain         float64 `toml:"roll_spoiler_gain"`
	RollSpoilerLimit        float64 `toml:"roll_spoiler_limit_deg"`
}

type SecConfig struct {
	StrutThreshold float64               `toml:"strut_threshold"`
	StickLockTime  float64               `toml:"stick_lock_time_s"`
	Hydraulic      HydraulicConfig       `toml:"hydraulic"`
	ADR            SecADRConfig          `toml:"adr"`
	IR             SecIRConfig           `toml:"ir"`
	Flight         mode.FlightThresholds `toml:"flight"`
	Abnormal       AbnormalConfig        `toml:"abnormal"`
	Spoilers       SpoilerConfig         `toml:"spoilers"`

	LateralDirect  law.LateralDirectConfig  `toml:"lateral_direct"`
	PitchAlternate law.PitchAlternateConfig `toml:"pitch_alternate"`
	PitchDirect    law.PitchDirectConfig    `toml:"pitch_direct"`
}

func DefaultSecConfig() SecConfig {
	return SecConfig{
		StrutThreshold: 0.05,
		StickLockTime:  30,
		Hydraulic:      DefaultHydraulicConfig(),
		ADR: SecADRConfig{
			Vcas:  redundancy.DuplexConfig{Threshold: 16, ConfirmTime: 1, Default: 250},
			Vtas:  redundancy.DuplexConfig{Threshold: 16, ConfirmTime: 1, Default: 250},
			Mach:  redundancy.DuplexConfig{Threshold: 0.05, ConfirmTime: 1, Default: 0.4},
			Alpha: redundancy.DuplexConfig{Threshold: 5, ConfirmTime: 1},
		},
		IR: SecIRConfig{
			Theta: redundancy.DuplexConfig{Threshold: 5, ConfirmTime: 1},
			Phi:   redundancy.DuplexConfig{Threshold: 5, ConfirmTime: 1},
			Q:     redundancy.DuplexConfig{Threshold: 5, ConfirmTime: 1},
			R:     redundancy.DuplexConfig{Threshold: 5, ConfirmTime: 1},
			P:     redundancy.DuplexConfig{Threshold: 5, ConfirmTime: 1},
			Nz:    redundancy.DuplexConfig{Threshold: 0.5, ConfirmTime: 1, Default: 1},
		},
		Flight: mode.DefaultFlightThresholds(),
		Abnormal: AbnormalConfig{
			MachMax:  0.91,
			AlphaMin: -10,
			AlphaMax: 40,
			VcasMin:  60,
			VcasMax:  440,
			PhiMax:   125,
			ThetaMin: -30,
			ThetaMax: 50,
		},
		Spoilers: SpoilerConfig{
			SpeedBrake:              table.Of([]float64{0, 0.5, 1}, []float64{0, 20, 40}),
			SpeedBrakeRate:          5,
			InhibitThrustLever:      28,
			RetractedLever:          0.05,
			RetractedConfirm:        0.5,
			IdleThrustLever:         2.5,
			DeployLever:             0.1,
			WheelSpeedHigh:          72,
			WheelSpeedLow:           23,
			GroundSpoilerDeflection: 50,
			PartialLiftDumping:      10,
			GroundSpoilerRate:       30,
			MaxDeflection:           50,
			RollSpoilerGain:         1.4,
			RollSpoilerLimit:        35,
		},
		LateralDirect:  law.DefaultLateralDirectConfig(),
		PitchAlternate: law.DefaultPitchAlternateConfig(),
		PitchDirect:    law.DefaultPitchDirectConfig(),
	}
}

func (c *checks) duplex(name string, d redundancy.DuplexConfig) {
	c.positive(name+" threshold", d.Threshold)
	c.notNegative(name+" confirm time", d.ConfirmTime)
}

func (c SecConfig) Validate() error {
	var k checks
	k.notNegative("strut threshold", c.StrutThreshold)
	k.positive("stick lock time", c.StickLockTime)
	c.Hydraulic.check(&k)
	k.duplex("ADR CAS", c.ADR.Vcas)
	k.duplex("ADR TAS", c.ADR.Vtas)
	k.duplex("ADR mach", c.ADR.Mach)
	k.duplex("ADR alpha", c.ADR.Alpha)
	k.duplex("IR theta", c.IR.Theta)
	k.duplex("IR phi", c.IR.Phi)
	k.duplex("IR q", c.IR.Q)
	k.duplex("IR r", c.IR.R)
	k.duplex("IR p", c.IR.P)
	k.duplex("IR nz", c.IR.Nz)
	k.positive("abnormal alpha range", c.Abnormal.AlphaMax-c.Abnormal.AlphaMin)
	k.positive("abnormal speed range", c.Abnormal.VcasMax-c.Abnormal.VcasMin)
	k.positive("abnormal pitch range", c.Abnormal.ThetaMax-c.Abnormal.ThetaMin)
	s := c.Spoilers
	if err := s.SpeedBrake.Validate(); err != nil {
		k.errs = append(k.errs, fmt.Errorf("speed brake: %w", err))
	}
	k.positive("speed brake rate", s.SpeedBrakeRate)
	k.notNegative("speed brake retract confirm", s.RetractedConfirm)
	k.positive("ground spoiler rate", s.GroundSpoilerRate)
	k.positive("max spoiler deflection", s.MaxDeflection)
	k.positive("rejected takeoff wheel speeds", s.WheelSpeedHigh-s.WheelSpeedLow)
	k.notNegative("roll spoiler gain", s.RollSpoilerGain)
	return k.err()
}

// spoilerPair describes one pair of spoilers driven by a SEC.
type spoilerPair struct {
	Present bool
	Roll    bool
	// Share of the speed brake order, 0 when the pair is not a speed brake.
	SpeedBrake float64
	// 0 green, 1 blue, 2 yellow.
	Hydraulic int
}

// SEC 1 drives spoilers 3 and 4, SEC 2 spoiler 5 and SEC 3 spoilers 1
// and 2. Spoiler 1 is a ground spoiler only and spoiler 5 takes no speed
// brake order.
var spoilerPairs = [3][2]spoilerPair{
	{{true, true, 1, 1}, {true, true, 1, 2}},
	{{true, true, 0, 0}, {}},
	{{true, false, 0, 0}, {true, true, 0.5, 2}},
}

// SecState is the carried memory of a SEC outside its laws.
type SecState struct {
	Ground     mode.GroundDetector
	Flight     mode.FlightPhase
	Hydraulics [3]HydraulicMonitor
	Sticks     mode.SideStickPriority
	ADR        redundancy.DuplexGroup
	IR         redundancy.DuplexGroup
	PitchAccel filter.Derivative
	Abnormal   monitor.Latch

	LeverRetracted monitor.ConfirmNode
	Inhibit        monitor.Latch
	SpeedBrake     filter.RateLimiter

	Touchdown       monitor.EdgeDetector
	LiftOff         monitor.EdgeDetector
	RejectedTakeoff monitor.Latch
	GroundSpoilers  bool
	GroundDeflect   filter.RateLimiter

	Faults      mode.FaultCounts
	ActivePitch mode.PitchLaw
	Initialized bool
}

type SecCheckpoint struct {
	State          SecState
	LateralDirect  law.LateralDirectState
	PitchAlternate law.PitchState
	PitchDirect    law.PitchDirectState
}

type SecOutput struct {
	OnGround bool
	InFlight bool
	Faults   mode.FaultCounts
	Abnormal bool

	PitchCapability mode.PitchLaw
	ActivePitchLaw  mode.PitchLaw
	Pitch           mode.Engagement
	RollEngaged     bool

	// Elevator and stabiliser orders while engaged in pitch, degrees.
	Eta, EtaTrim float64

	SpeedBrakeInhibited bool
	SpeedBrake          float64
	GroundSpoilersOut   bool
	PartialLiftDumping  bool
	RollSpoiler         float64

	// Spoiler deflections per pair, degrees up.
	LeftSpoilers  [2]float64
	RightSpoilers [2]float64
	PairActive    [2]bool

	Bus SecBus
}

// Sec is one spoiler elevator computer.
type Sec struct {
	unit   int
	config SecConfig
	log    *logger.MultiLogger

	speedBrake     *table.Table
	lateralDirect  *law.LateralDirect
	pitchAlternate *law.PitchAlternate
	pitchDirect    *law.PitchDirect

	state SecState
}

// NewSec builds SEC 1, 2 or 3. log may be nil.
func NewSec(unit int, c SecConfig, log *logger.MultiLogger) (*Sec, error) {
	if unit < 1 || unit > 3 {
		return nil, fmt.Errorf("%w: no SEC %d", ErrBadConfig, unit)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("SEC %d: %w", unit, err)
	}
	s := &Sec{unit: unit, config: c, log: log, speedBrake: table.Must(c.Spoilers.SpeedBrake)}
	var errs []error
	var err error
	s.lateralDirect, err = law.NewLateralDirect(c.LateralDirect)
	errs = append(errs, err)
	s.pitchAlternate, err = law.NewPitchAlternate(c.PitchAlternate)
	errs = append(errs, err)
	s.pitchDirect, err = law.NewPitchDirect(c.PitchDirect)
	errs = append(errs, err)
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("SEC %d: %w", unit, err)
	}
	s.Reset()
	return s, nil
}

func (s *Sec) Unit() int {
	return s.unit
}

func (s *Sec) Reset() {
	c := &s.config
	s.state = SecState{
		Ground: mode.NewGroundDetector(c.StrutThreshold),
		Flight: mode.NewFlightPhase(c.Flight),
		Sticks: mode.NewSideStickPriority(c.StickLockTime),
		ADR:    redundancy.NewDuplexGroup(c.ADR.Vcas, c.ADR.Vtas, c.ADR.Mach, c.ADR.Alpha),
		IR: redundancy.NewDuplexGroup(c.IR.Theta, c.IR.Phi, c.IR.Q,
			c.IR.R, c.IR.P, c.IR.Nz),
		PitchAccel:      filter.NewDerivative(1),
		LeverRetracted:  monitor.NewConfirmNode(true, c.Spoilers.RetractedConfirm),
		SpeedBrake:      filter.NewRateLimiter(c.Spoilers.SpeedBrakeRate, c.Spoilers.SpeedBrakeRate, 0),
		Touchdown:       monitor.NewEdgeDetector(true),
		LiftOff:         monitor.NewEdgeDetector(false),
		GroundDeflect:   filter.NewRateLimiter(c.Spoilers.GroundSpoilerRate, c.Spoilers.GroundSpoilerRate, 0),
	}
	for i := range s.state.Hydraulics {
		s.state.Hydraulics[i] = NewHydraulicMonitor(c.Hydraulic)
	}
	s.lateralDirect.Reset()
	s.pitchAlternate.Reset()
	s.pitchDirect.Reset()
}

func (s *Sec) Checkpoint() SecCheckpoint {
	return deep.MustCopy(SecCheckpoint{
		State:          s.state,
		LateralDirect:  s.lateralDirect.State(),
		PitchAlternate: s.pitchAlternate.State(),
		PitchDirect:    s.pitchDirect.State(),
	})
}

func (s *Sec) Restore(c SecCheckpoint) {
	c = deep.MustCopy(c)
	s.state = c.State
	s.lateralDirect.Restore(c.LateralDirect)
	s.pitchAlternate.Restore(c.PitchAlternate)
	s.pitchDirect.Restore(c.PitchDirect)
}

func (s *Sec) vote(f *Frame) (airData, inertial, mode.FaultCounts) {
	st := &s.state
	dt := f.Time.Dt
	adr, ir := f.Sensors.ADR, f.Sensors.IR
	a := st.ADR.Step([][2]arinc.Word{
		{adr[0].Vcas, adr[1].Vcas},
		{adr[0].Vtas, adr[1].Vtas},
		{adr[0].Mach, adr[1].Mach},
		{adr[0].Alpha, adr[1].Alpha},
	}, dt)
	i := st.IR.Step([][2]arinc.Word{
		{ir[0].Theta, ir[1].Theta},
		{ir[0].Phi, ir[1].Phi},
		{ir[0].Q, ir[1].Q},
		{ir[0].R, ir[1].R},
		{ir[0].P, ir[1].P},
		{ir[0].Nz, ir[1].Nz},
	}, dt)
	return airData{Vcas: a.Values[0], Vtas: a.Values[1], Mach: a.Values[2], Alpha: a.Values[3]},
		inertial{
			Theta: i.Values[0], Phi: i.Values[1], Q: i.Values[2],
			R: i.Values[3], P: i.Values[4], Nz: i.Values[5],
		},
		mode.FaultCounts{ADR: a.Faults, IR: i.Faults}
}

// abnormal reports an attitude or air data excursion that the normal laws
// would never allow. Doubly failed sources are not believed.
func (s *Sec) abnormal(air airData, ir inertial, faults mode.FaultCounts) bool {
	a := &s.config.Abnormal
	badAir := faults.ADR < 2 && (air.Mach > a.MachMax || air.Alpha < a.AlphaMin ||
		air.Alpha > a.AlphaMax || air.Vcas > a.VcasMax || air.Vcas < a.VcasMin)
	badAttitude := faults.IR < 2 && (math.Abs(ir.Phi) > a.PhiMax || ir.Theta > a.ThetaMax || ir.Theta < a.ThetaMin)
	return badAir || badAttitude
}

func elacRollLost(b ElacBus) bool {
	return !b.Status1.IsNormal() || !b.Status1.Field(9)
}

// Step runs one frame with the ELAC buses and the other SEC's bus from the
// previous frame. SEC 2 listens to SEC 1 for pitch.
func (s *Sec) Step(f Frame, elacs [2]ElacBus, peer SecBus) SecOutput {
	st := &s.state
	c := &s.config
	dt := f.Time.Dt
	var out SecOutput

	out.OnGround = st.Ground.Step(f.Sensors.StrutLeft, f.Sensors.StrutRight)
	hydraulics := [3]bool{
		st.Hydraulics[0].Step(f.Hydraulics.Green, f.Hydraulics.GreenLow, dt),
		st.Hydraulics[1].Step(f.Hydraulics.Blue, f.Hydraulics.BlueLow, dt),
		st.Hydraulics[2].Step(f.Hydraulics.Yellow, f.Hydraulics.YellowLow, dt),
	}
	sticks := st.Sticks.Step(f.Cockpit.CaptTakeover, f.Cockpit.FOTakeover, dt)
	pitchStick := sticks.Combine(f.Cockpit.CaptPitch, f.Cockpit.FOPitch, 1)
	rollStick := sticks.Combine(f.Cockpit.CaptRoll, f.Cockpit.FORoll, 1)

	air, ir, faults := s.vote(&f)
	out.Faults = faults
	if st.Initialized && (faults.ADR > st.Faults.ADR || faults.IR > st.Faults.IR) {
		s.log.Warningf("SEC %d: confirmed faults ADR %d IR %d", s.unit, faults.ADR, faults.IR)
	}
	st.Faults = faults

	out.InFlight = st.Flight.Step(out.OnGround, ir.Theta, f.Sensors.RadioHeight, f.Time.SimulationTime)
	out.Abnormal = st.Abnormal.Step(out.InFlight && s.abnormal(air, ir, faults), out.OnGround)

	// Pitch backup. SEC 3 has no elevator.
	var leftElevator, rightElevator bool
	switch s.unit {
	case 1:
		leftElevator, rightElevator = hydraulics[1], hydraulics[1]
	case 2:
		leftElevator, rightElevator = hydraulics[0], hydraulics[2]
	}
	leftElevator = leftElevator && !f.Servos.LeftElevatorFailed
	rightElevator = rightElevator && !f.Servos.RightElevatorFailed
	canEngagePitch := leftElevator && rightElevator && !f.Servos.ThsMotorFailed
	elacsLost := elacs[0].pitchFailed() && elacs[1].pitchFailed()
	switch s.unit {
	case 1:
		out.Pitch = mode.Arbitrate(canEngagePitch, elacsLost, false)
	case 2:
		out.Pitch = mode.Arbitrate(canEngagePitch, false, elacsLost && peer.pitchFailed())
	default:
		out.Pitch = mode.Arbitrate(false, false, false)
	}

	switch {
	case !canEngagePitch:
		out.PitchCapability = mode.PitchNone
	case faults.IR >= 2 || f.Sensors.LandingGearDown:
		out.PitchCapability = mode.PitchDirect
	case faults.ADR >= 2 || out.Abnormal:
		out.PitchCapability = mode.PitchAlternate2
	default:
		out.PitchCapability = mode.PitchAlternate1
	}
	out.ActivePitchLaw = mode.PitchNone
	if out.Pitch.Engaged {
		out.ActivePitchLaw = out.PitchCapability
	}
	if st.Initialized && out.ActivePitchLaw != st.ActivePitch {
		s.log.Noticef("SEC %d: pitch law %v -> %v", s.unit, st.ActivePitch, out.ActivePitchLaw)
	}
	st.ActivePitch = out.ActivePitchLaw
	s.stepPitch(&f, &out, air, ir, pitchStick)

	out.RollEngaged = elacRollLost(elacs[0]) && elacRollLost(elacs[1])
	lateral := s.lateralDirect.Step(law.LateralInput{
		Dt:       dt,
		Theta:    ir.Theta,
		Phi:      ir.Phi,
		Vias:     air.Vcas,
		Vtas:     air.Vtas,
		Xi:       rollStick,
		OnGround: out.OnGround,
		Tracking: f.Tracking || !out.RollEngaged,
	})
	sp := &c.Spoilers
	switch {
	case out.RollEngaged:
		out.RollSpoiler = numeric.Clamp(-lateral.Xi*sp.RollSpoilerGain, -sp.RollSpoilerLimit, sp.RollSpoilerLimit)
	case elacs[0].RollSpoilerCommand.IsNormal():
		out.RollSpoiler = float64(elacs[0].RollSpoilerCommand.Data)
	default:
		out.RollSpoiler = elacs[1].RollSpoilerCommand.Value(0)
	}

	s.stepSpoilers(&f, &out, hydraulics)

	out.Bus.Status1 = SecStatus{
		LeftElevatorAvailable:  leftElevator,
		RightElevatorAvailable: rightElevator,
		PitchEngaged:           out.Pitch.Engaged,
		CanEngagePitch:         canEngagePitch,
		PitchCapability:        out.PitchCapability,
		ActivePitchLaw:         out.ActivePitchLaw,
		GroundSpoilersOut:      out.GroundSpoilersOut,
		GroundSpoilersArmed:    f.Cockpit.GroundSpoilersArmed,
		Pair1Available:         out.PairActive[0],
		Pair2Available:         out.PairActive[1],
		SpeedBrakeInhibited:    out.SpeedBrakeInhibited,
		Abnormal:               out.Abnormal,
		RollEngaged:            out.RollEngaged,
	}.Word()
	out.Bus.SpeedBrakeCommand = arinc.Normal(out.SpeedBrake)
	st.Initialized = true
	return out
}

func (s *Sec) stepPitch(f *Frame, out *SecOutput, air airData, ir inertial, stick float64) {
	in := law.PitchInput{
		Dt:             f.Time.Dt,
		SimulationTime: f.Time.SimulationTime,
		Nz:             ir.Nz,
		Theta:          ir.Theta,
		Phi:            ir.Phi,
		Q:              ir.Q,
		QDot:           s.state.PitchAccel.Step(ir.Q, f.Time.Dt),
		Eta:            f.Servos.Elevator,
		EtaTrim:        f.Servos.Ths,
		Alpha:          air.Alpha,
		Vias:           air.Vcas,
		Vtas:           air.Vtas,
		Vls:            f.Envelope.Vls,
		RadioHeight:    f.Sensors.RadioHeight,
		FlapsHandle:    f.Cockpit.FlapsHandle,
		SpoilerLeft:    f.Servos.SpoilerLeft,
		SpoilerRight:   f.Servos.SpoilerRight,
		ThrustLever1:   f.Cockpit.ThrustLever1,
		ThrustLever2:   f.Cockpit.ThrustLever2,
		Stick:          stick,
		OnGround:       out.OnGround,

		HighAoaProt:       f.Envelope.HighAoaProt,
		HighSpeedProt:     f.Envelope.HighSpeedProt,
		AlphaProt:         f.Envelope.AlphaProt,
		AlphaMax:          f.Envelope.AlphaMax,
		HighSpeedProtHigh: f.Envelope.HighSpeedProtHigh,
		HighSpeedProtLow:  f.Envelope.HighSpeedProtLow,
	}
	active := out.ActivePitchLaw
	in.Tracking = f.Tracking || !active.IsAlternate()
	alternate := s.pitchAlternate.Step(in, active == mode.PitchAlternate2)
	in.Tracking = f.Tracking || active != mode.PitchDirect
	direct := s.pitchDirect.Step(in)
	switch {
	case active.IsAlternate():
		out.Eta, out.EtaTrim = alternate.Eta, alternate.EtaTrim
	case active == mode.PitchDirect:
		out.Eta, out.EtaTrim = direct.Eta, direct.EtaTrim
	}
}

// stepSpoilers works out the speed brake, ground spoiler and partial lift
// dumping orders and mixes them with the roll spoiler order per pair.
func (s *Sec) stepSpoilers(f *Frame, out *SecOutput, hydraulics [3]bool) {
	st := &s.state
	sp := &s.config.Spoilers
	dt := f.Time.Dt
	lever := f.Cockpit.SpeedBrakeLever
	tla1, tla2 := f.Cockpit.ThrustLever1, f.Cockpit.ThrustLever2

	// Speed brakes stay inhibited after a thrust increase until the lever
	// is put back.
	retracted := st.LeverRetracted.Step(lever < sp.RetractedLever, dt)
	high := math.Max(tla1, tla2) >= sp.InhibitThrustLever
	out.SpeedBrakeInhibited = high || st.Inhibit.Step(high, retracted)
	target := 0.0
	if !out.SpeedBrakeInhibited {
		target = s.speedBrake.Lookup(lever)
	}
	out.SpeedBrake = st.SpeedBrake.Step(target, dt)

	// Ground spoilers extend when both main gears touch down, or during a
	// rejected takeoff above the high wheel speed, with a thrust lever at
	// idle.
	leftStrut := f.Sensors.StrutLeft > s.config.StrutThreshold
	rightStrut := f.Sensors.StrutRight > s.config.StrutThreshold
	touchdown := st.Touchdown.Step(leftStrut && rightStrut)
	liftOff := st.LiftOff.Step(out.OnGround)
	wheelSpeedLow := math.Max(f.Sensors.WheelSpeedLeft, f.Sensors.WheelSpeedRight) < sp.WheelSpeedLow
	wheelSpeedHigh := math.Min(f.Sensors.WheelSpeedLeft, f.Sensors.WheelSpeedRight) >= sp.WheelSpeedHigh
	rejectedTakeoff := st.RejectedTakeoff.Step(wheelSpeedLow, liftOff)
	armed := f.Cockpit.GroundSpoilersArmed || lever > sp.DeployLever
	oneIdle := math.Min(tla1, tla2) <= sp.IdleThrustLever
	bothIdle := math.Max(tla1, tla2) <= sp.IdleThrustLever
	out.GroundSpoilersOut = armed && oneIdle && (touchdown || (wheelSpeedHigh && rejectedTakeoff) || st.GroundSpoilers)
	if out.GroundSpoilersOut != st.GroundSpoilers {
		s.log.Infof("SEC %d: ground spoilers out %v", s.unit, out.GroundSpoilersOut)
	}
	st.GroundSpoilers = out.GroundSpoilersOut

	out.PartialLiftDumping = !out.GroundSpoilersOut && f.Cockpit.GroundSpoilersArmed && bothIdle && leftStrut != rightStrut

	ground := 0.0
	switch {
	case out.GroundSpoilersOut:
		ground = sp.GroundSpoilerDeflection
	case out.PartialLiftDumping:
		ground = sp.PartialLiftDumping
	}
	ground = st.GroundDeflect.Step(ground, dt)

	roll := math.Abs(out.RollSpoiler)
	for i, pair := range spoilerPairs[s.unit-1] {
		out.PairActive[i] = pair.Present && hydraulics[pair.Hydraulic] && !f.Servos.SpoilerPairFailed[s.unit-1][i]
		if !out.PairActive[i] {
			continue
		}
		up, down := out.SpeedBrake*pair.SpeedBrake, out.SpeedBrake*pair.SpeedBrake
		if pair.Roll {
			up = numeric.Clamp(up+roll, 0, sp.MaxDeflection)
			down = numeric.Clamp(down-roll, 0, sp.MaxDeflection)
		}
		left, right := down, up
		if out.RollSpoiler < 0 {
			left, right = up, down
		}
		out.LeftSpoilers[i] = math.Max(left, ground)
		out.RightSpoilers[i] = math.Max(right, ground)
	}
}
