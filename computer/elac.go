package computer

import (
	"errors"
	"fmt"

	"github.com/brunoga/deep"

	"github.com/bskari/go-fbw/arinc"
	"github.com/bskari/go-fbw/filter"
	"github.com/bskari/go-fbw/law"
	"github.com/bskari/go-fbw/logger"
	"github.com/bskari/go-fbw/mode"
	"github.com/bskari/go-fbw/monitor"
	"github.com/bskari/go-fbw/numeric"
	"github.com/bskari/go-fbw/redundancy"
)

var ErrBadConfig = errors.New("bad flight control computer configuration")

type HydraulicConfig struct {
	// A circuit is pressurised at High psi and lost below Low psi.
	High float64 `toml:"high_psi"`
	Low  float64 `toml:"low_psi"`
	// How long a pressure loss must last before the circuit is lost.
	ConfirmTime float64 `toml:"confirm_time_s"`
}

type ADRMonitorConfig struct {
	Vcas  redundancy.TriplexConfig `toml:"vcas"`
	Vtas  redundancy.TriplexConfig `toml:"vtas"`
	Mach  redundancy.TriplexConfig `toml:"mach"`
	Alpha redundancy.TriplexConfig `toml:"alpha"`
}

type IRMonitorConfig struct {
	Theta redundancy.TriplexConfig `toml:"theta"`
	Phi   redundancy.TriplexConfig `toml:"phi"`
	Q     redundancy.TriplexConfig `toml:"q"`
	R     redundancy.TriplexConfig `toml:"r"`
	P     redundancy.TriplexConfig `toml:"p"`
	Nz    redundancy.TriplexConfig `toml:"nz"`
}

type ElacConfig struct {
	StrutThreshold float64          `toml:"strut_threshold"`
	StickLockTime  float64          `toml:"stick_lock_time_s"`
	Hydraulic      HydraulicConfig  `toml:"hydraulic"`
	ADR            ADRMonitorConfig `toml:"adr"`
	IR             IRMonitorConfig  `toml:"ir"`

	// Roll stick per degree of bank error while the autopilot is engaged.
	APRollGain float64 `toml:"ap_roll_gain"`
	// Roll spoiler per degree of aileron order, and its limit in degrees.
	RollSpoilerGain  float64 `toml:"roll_spoiler_gain"`
	RollSpoilerLimit float64 `toml:"roll_spoiler_limit_deg"`

	LateralNormal  law.LateralNormalConfig  `toml:"lateral_normal"`
	LateralDirect  law.LateralDirectConfig  `toml:"lateral_direct"`
	PitchNormal    law.PitchNormalConfig    `toml:"pitch_normal"`
	PitchAlternate law.PitchAlternateConfig `toml:"pitch_alternate"`
	PitchDirect    law.PitchDirectConfig    `toml:"pitch_direct"`
}

func DefaultHydraulicConfig() HydraulicConfig {
	return HydraulicConfig{High: 1750, Low: 1450, ConfirmTime: 0.5}
}

func DefaultADRMonitorConfig() ADRMonitorConfig {
	return ADRMonitorConfig{
		Vcas:  redundancy.TriplexConfig{Threshold: 16, ConfirmTime: 1, Default: 250},
		Vtas:  redundancy.TriplexConfig{Threshold: 16, ConfirmTime: 1, Default: 250},
		Mach:  redundancy.TriplexConfig{Threshold: 0.05, ConfirmTime: 1, Default: 0.4},
		Alpha: redundancy.TriplexConfig{Threshold: 5, ConfirmTime: 1, Default: 0},
	}
}

func DefaultIRMonitorConfig() IRMonitorConfig {
	return IRMonitorConfig{
		Theta: redundancy.TriplexConfig{Threshold: 5, ConfirmTime: 1},
		Phi:   redundancy.TriplexConfig{Threshold: 5, ConfirmTime: 1},
		Q:     redundancy.TriplexConfig{Threshold: 5, ConfirmTime: 1},
		R:     redundancy.TriplexConfig{Threshold: 5, ConfirmTime: 1},
		P:     redundancy.TriplexConfig{Threshold: 5, ConfirmTime: 1},
		Nz:    redundancy.TriplexConfig{Threshold: 0.5, ConfirmTime: 1, Default: 1},
	}
}

func DefaultElacConfig() ElacConfig {
	return ElacConfig{
		StrutThreshold:   0.05,
		StickLockTime:    30,
		Hydraulic:        DefaultHydraulicConfig(),
		ADR:              DefaultADRMonitorConfig(),
		IR:               DefaultIRMonitorConfig(),
		APRollGain:       0.1,
		RollSpoilerGain:  1.4,
		RollSpoilerLimit: 35,
		LateralNormal:    law.DefaultLateralNormalConfig(),
		LateralDirect:    law.DefaultLateralDirectConfig(),
		PitchNormal:      law.DefaultPitchNormalConfig(),
		PitchAlternate:   law.DefaultPitchAlternateConfig(),
		PitchDirect:      law.DefaultPitchDirectConfig(),
	}
}

// checks collects configuration problems.
type checks struct {
	errs []error
}

func (c *checks) positive(name string, value float64) {
	if !(value > 0) {
		c.errs = append(c.errs, fmt.Errorf("%w: %s must be positive, got %v", ErrBadConfig, name, value))
	}
}

func (c *checks) notNegative(name string, value float64) {
	if !(value >= 0) {
		c.errs = append(c.errs, fmt.Errorf("%w: %s must not be negative, got %v", ErrBadConfig, name, value))
	}
}

func (c *checks) triplex(name string, t redundancy.TriplexConfig) {
	c.positive(name+" threshold", t.Threshold)
	c.notNegative(name+" confirm time", t.ConfirmTime)
}

func (c *checks) err() error {
	return errors.Join(c.errs...)
}

func (h HydraulicConfig) check(c *checks) {
	c.positive("hydraulic low pressure", h.Low)
	c.positive("hydraulic hysteresis", h.High-h.Low)
	c.notNegative("hydraulic confirm time", h.ConfirmTime)
}

// Validate checks the computer's own settings. The laws validate theirs
// when they are built.
func (c ElacConfig) Validate() error {
	var k checks
	k.notNegative("strut threshold", c.StrutThreshold)
	k.positive("stick lock time", c.StickLockTime)
	c.Hydraulic.check(&k)
	k.triplex("ADR CAS", c.ADR.Vcas)
	k.triplex("ADR TAS", c.ADR.Vtas)
	k.triplex("ADR mach", c.ADR.Mach)
	k.triplex("ADR alpha", c.ADR.Alpha)
	k.triplex("IR theta", c.IR.Theta)
	k.triplex("IR phi", c.IR.Phi)
	k.triplex("IR q", c.IR.Q)
	k.triplex("IR r", c.IR.R)
	k.triplex("IR p", c.IR.P)
	k.triplex("IR nz", c.IR.Nz)
	k.notNegative("AP roll gain", c.APRollGain)
	k.notNegative("roll spoiler gain", c.RollSpoilerGain)
	k.positive("roll spoiler limit", c.RollSpoilerLimit)
	return k.err()
}

// HydraulicMonitor declares a circuit available from its pressure and low
// pressure switch. A loss must be confirmed, a recovery is immediate.
type HydraulicMonitor struct {
	Pressure monitor.Hysteresis
	Confirm  monitor.ConfirmNode
}

func NewHydraulicMonitor(c HydraulicConfig) HydraulicMonitor {
	return HydraulicMonitor{
		Pressure: monitor.NewHysteresis(c.High, c.Low),
		Confirm:  monitor.NewConfirmNode(false, c.ConfirmTime),
	}
}

func (h *HydraulicMonitor) Step(psi float64, low bool, dt float64) bool {
	return h.Confirm.Step(h.Pressure.Step(psi) && !low, dt)
}

// ElacState is the carried memory of an ELAC outside its laws.
type ElacState struct {
	Ground      mode.GroundDetector
	Hydraulics  [3]HydraulicMonitor
	Sticks      mode.SideStickPriority
	ADR         redundancy.TriplexGroup
	IR          redundancy.TriplexGroup
	PitchAccel  filter.Derivative
	Capability  mode.PitchCapability
	Faults      mode.FaultCounts
	ActivePitch mode.PitchLaw
	ActiveRoll  mode.LateralLaw
	Initialized bool
}

// ElacCheckpoint is a deep copy of everything an ELAC carries between
// frames.
type ElacCheckpoint struct {
	State          ElacState
	LateralNormal  law.LateralNormalState
	LateralDirect  law.LateralDirectState
	PitchNormal    law.PitchState
	PitchAlternate law.PitchState
	PitchDirect    law.PitchDirectState
}

type ElacOutput struct {
	OnGround bool
	Faults   mode.FaultCounts

	PitchCapability   mode.PitchLaw
	LateralCapability mode.LateralLaw
	ActivePitchLaw    mode.PitchLaw
	ActiveLateralLaw  mode.LateralLaw
	Pitch             mode.Engagement
	Roll              mode.Engagement
	Sticks            mode.SideStickStatus

	// Surface orders in degrees.
	Eta, EtaTrim float64
	Xi, Zeta     float64

	LeftElevatorActive  bool
	RightElevatorActive bool
	LeftAileronActive   bool
	RightAileronActive  bool

	Bus ElacBus
}

// Elac is one elevator aileron computer.
type Elac struct {
	unit   int
	config ElacConfig
	log    *logger.MultiLogger

	lateralNormal  *law.LateralNormal
	lateralDirect  *law.LateralDirect
	pitchNormal    *law.PitchNormal
	pitchAlternate *law.PitchAlternate
	pitchDirect    *law.PitchDirect

	state ElacState
}

// NewElac builds ELAC 1 or 2. log may be nil.
func NewElac(unit int, c ElacConfig, log *logger.MultiLogger) (*Elac, error) {
	if unit != 1 && unit != 2 {
		return nil, fmt.Errorf("%w: no ELAC %d", ErrBadConfig, unit)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("ELAC %d: %w", unit, err)
	}
	e := &Elac{unit: unit, config: c, log: log}
	var errs []error
	var err error
	e.lateralNormal, err = law.NewLateralNormal(c.LateralNormal)
	errs = append(errs, err)
	e.lateralDirect, err = law.NewLateralDirect(c.LateralDirect)
	errs = append(errs, err)
	e.pitchNormal, err = law.NewPitchNormal(c.PitchNormal)
	errs = append(errs, err)
	e.pitchAlternate, err = law.NewPitchAlternate(c.PitchAlternate)
	errs = append(errs, err)
	e.pitchDirect, err = law.NewPitchDirect(c.PitchDirect)
	errs = append(errs, err)
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("ELAC %d: %w", unit, err)
	}
	e.Reset()
	return e, nil
}

func (e *Elac) Unit() int {
	return e.unit
}

// Reset returns the computer to its power up state.
func (e *Elac) Reset() {
	c := &e.config
	e.state = ElacState{
		Ground: mode.NewGroundDetector(c.StrutThreshold),
		Sticks: mode.NewSideStickPriority(c.StickLockTime),
		ADR:    redundancy.NewTriplexGroup(c.ADR.Vcas, c.ADR.Vtas, c.ADR.Mach, c.ADR.Alpha),
		IR: redundancy.NewTriplexGroup(c.IR.Theta, c.IR.Phi, c.IR.Q,
			c.IR.R, c.IR.P, c.IR.Nz),
		PitchAccel: filter.NewDerivative(1),
	}
	for i := range e.state.Hydraulics {
		e.state.Hydraulics[i] = NewHydraulicMonitor(c.Hydraulic)
	}
	e.lateralNormal.Reset()
	e.lateralDirect.Reset()
	e.pitchNormal.Reset()
	e.pitchAlternate.Reset()
	e.pitchDirect.Reset()
}

func (e *Elac) Checkpoint() ElacCheckpoint {
	return deep.MustCopy(ElacCheckpoint{
		State:          e.state,
		LateralNormal:  e.lateralNormal.State(),
		LateralDirect:  e.lateralDirect.State(),
		PitchNormal:    e.pitchNormal.State(),
		PitchAlternate: e.pitchAlternate.State(),
		PitchDirect:    e.pitchDirect.State(),
	})
}

// Restore rewinds to a checkpoint. The checkpoint stays usable.
func (e *Elac) Restore(c ElacCheckpoint) {
	c = deep.MustCopy(c)
	e.state = c.State
	e.lateralNormal.Restore(c.LateralNormal)
	e.lateralDirect.Restore(c.LateralDirect)
	e.pitchNormal.Restore(c.PitchNormal)
	e.pitchAlternate.Restore(c.PitchAlternate)
	e.pitchDirect.Restore(c.PitchDirect)
}

func (e *Elac) vote(f *Frame) (airData, inertial, mode.FaultCounts) {
	s := &e.state
	cas, tas, mach, alpha := f.adrWords()
	adr := s.ADR.Step([][3]arinc.Word{cas, tas, mach, alpha}, f.Time.Dt)
	theta, phi, q, r, p, nz := f.irWords()
	ir := s.IR.Step([][3]arinc.Word{theta, phi, q, r, p, nz}, f.Time.Dt)
	a := airData{Vcas: adr.Values[0], Vtas: adr.Values[1], Mach: adr.Values[2], Alpha: adr.Values[3]}
	i := inertial{
		Theta: ir.Values[0], Phi: ir.Values[1], Q: ir.Values[2],
		R: ir.Values[3], P: ir.Values[4], Nz: ir.Values[5],
	}
	return a, i, mode.FaultCounts{ADR: adr.Faults, IR: ir.Faults}
}

// surfaces works out which surfaces this unit can drive. ELAC 1 moves both
// elevators on blue, the left aileron on blue and the right on green. ELAC 2
// moves the elevators on green and yellow, the left aileron on green and the
// right on blue.
func (e *Elac) surfaces(f *Frame, green, blue, yellow bool) (leftElevator, rightElevator, leftAileron, rightAileron bool) {
	if e.unit == 1 {
		leftElevator, rightElevator = blue, blue
		leftAileron, rightAileron = blue, green
	} else {
		leftElevator, rightElevator = green, yellow
		leftAileron, rightAileron = green, blue
	}
	return leftElevator && !f.Servos.LeftElevatorFailed,
		rightElevator && !f.Servos.RightElevatorFailed,
		leftAileron && !f.Servos.LeftAileronFailed,
		rightAileron && !f.Servos.RightAileronFailed
}

// Step runs one frame. peer is the other ELAC's bus from the previous frame.
func (e *Elac) Step(f Frame, peer ElacBus) ElacOutput {
	s := &e.state
	c := &e.config
	dt := f.Time.Dt
	var out ElacOutput

	out.OnGround = s.Ground.Step(f.Sensors.StrutLeft, f.Sensors.StrutRight)
	green := s.Hydraulics[0].Step(f.Hydraulics.Green, f.Hydraulics.GreenLow, dt)
	blue := s.Hydraulics[1].Step(f.Hydraulics.Blue, f.Hydraulics.BlueLow, dt)
	yellow := s.Hydraulics[2].Step(f.Hydraulics.Yellow, f.Hydraulics.YellowLow, dt)

	out.Sticks = s.Sticks.Step(f.Cockpit.CaptTakeover, f.Cockpit.FOTakeover, dt)
	pitchStick := out.Sticks.Combine(f.Cockpit.CaptPitch, f.Cockpit.FOPitch, 1)
	rollStick := out.Sticks.Combine(f.Cockpit.CaptRoll, f.Cockpit.FORoll, 1)

	air, ir, faults := e.vote(&f)
	out.Faults = faults
	if s.Initialized && (faults.ADR > s.Faults.ADR || faults.IR > s.Faults.IR) {
		e.log.Warningf("ELAC %d: confirmed faults ADR %d IR %d", e.unit, faults.ADR, faults.IR)
	}
	s.Faults = faults

	leftElevator, rightElevator, leftAileron, rightAileron := e.surfaces(&f, green, blue, yellow)
	canEngagePitch := leftElevator && rightElevator && !f.Servos.ThsMotorFailed
	canEngageRoll := leftAileron || rightAileron
	out.Pitch = mode.Arbitrate(canEngagePitch, e.unit == 1, peer.pitchFailed())
	out.Roll = mode.Arbitrate(canEngageRoll, e.unit == 1, peer.aileronsLost())

	out.PitchCapability = s.Capability.Step(faults, canEngagePitch, out.OnGround)
	out.LateralCapability = mode.LateralCapability(f.YawControlLost[0], f.YawControlLost[1], canEngageRoll)

	// The unit flying an axis works from its own capability, the other
	// from what its peer reports.
	peerPitch, peerLateral, peerValid := peer.capabilities()
	priorityPitch, priorityLateral := out.PitchCapability, out.LateralCapability
	if !out.Pitch.Engaged && peerValid {
		priorityPitch, priorityLateral = peerPitch, peerLateral
	}
	rollCapability := out.LateralCapability
	if !out.Roll.Engaged && peerValid {
		rollCapability = peerLateral
	}

	switch {
	case !out.Roll.Engaged:
		out.ActiveLateralLaw = mode.LateralNone
	case rollCapability == mode.LateralNormal && priorityPitch == mode.PitchNormal && priorityLateral == mode.LateralNormal:
		out.ActiveLateralLaw = mode.LateralNormal
	default:
		out.ActiveLateralLaw = mode.LateralDirect
	}
	out.ActivePitchLaw = mode.PitchNone
	if out.Pitch.Engaged {
		out.ActivePitchLaw = priorityPitch
		if rollCapability != mode.LateralNormal || out.LateralCapability != mode.LateralNormal {
			out.ActivePitchLaw = out.ActivePitchLaw.Worst(mode.PitchAlternate1)
		}
	}
	e.logTransitions(&out)

	e.stepLateral(&f, &out, air, ir, rollStick)
	e.stepPitch(&f, &out, air, ir, pitchStick)

	out.LeftElevatorActive = out.Pitch.Engaged && leftElevator
	out.RightElevatorActive = out.Pitch.Engaged && rightElevator
	out.LeftAileronActive = out.Roll.Engaged && leftAileron
	out.RightAileronActive = out.Roll.Engaged && rightAileron

	status := ElacStatus{
		LeftAileronFailed:      f.Servos.LeftAileronFailed,
		RightAileronFailed:     f.Servos.RightAileronFailed,
		LeftElevatorFailed:     f.Servos.LeftElevatorFailed,
		RightElevatorFailed:    f.Servos.RightElevatorFailed,
		LeftAileronAvailable:   leftAileron,
		RightAileronAvailable:  rightAileron,
		LeftElevatorAvailable:  leftElevator,
		RightElevatorAvailable: rightElevator,
		PitchEngaged:           out.Pitch.Engaged,
		RollEngaged:            out.Roll.Engaged,
		CanEngagePitch:         canEngagePitch,
		CanEngageRoll:          canEngageRoll,
		ActivePitchLaw:         out.ActivePitchLaw,
		ActiveLateralLaw:       out.ActiveLateralLaw,
		PitchCapability:        out.PitchCapability,
		LateralCapability:      out.LateralCapability,
		Sticks:                 out.Sticks,
	}
	out.Bus.Status1, out.Bus.Status2 = status.Words()
	if out.ActiveLateralLaw == mode.LateralNormal {
		spoiler := numeric.Clamp(-out.Xi*c.RollSpoilerGain, -c.RollSpoilerLimit, c.RollSpoilerLimit)
		out.Bus.AileronCommand = arinc.Normal(out.Xi)
		out.Bus.RollSpoilerCommand = arinc.Normal(spoiler)
		out.Bus.YawDamperCommand = arinc.Normal(out.Zeta)
	} else {
		out.Bus.AileronCommand = arinc.NewWord(arinc.NoComputedData, 0)
		out.Bus.RollSpoilerCommand = arinc.NewWord(arinc.NoComputedData, 0)
		out.Bus.YawDamperCommand = arinc.NewWord(arinc.NoComputedData, 0)
	}
	s.Initialized = true
	return out
}

func (e *Elac) logTransitions(out *ElacOutput) {
	s := &e.state
	if s.Initialized && out.ActivePitchLaw != s.ActivePitch {
		e.log.Noticef("ELAC %d: pitch law %v -> %v", e.unit, s.ActivePitch, out.ActivePitchLaw)
	}
	if s.Initialized && out.ActiveLateralLaw != s.ActiveRoll {
		e.log.Noticef("ELAC %d: lateral law %v -> %v", e.unit, s.ActiveRoll, out.ActiveLateralLaw)
	}
	s.ActivePitch = out.ActivePitchLaw
	s.ActiveRoll = out.ActiveLateralLaw
}

// stepLateral runs both lateral laws, tracking the one that is not flying.
func (e *Elac) stepLateral(f *Frame, out *ElacOutput, air airData, ir inertial, stick float64) {
	in := law.LateralInput{
		Dt:            f.Time.Dt,
		Theta:         ir.Theta,
		Phi:           ir.Phi,
		R:             ir.R,
		P:             ir.P,
		Vias:          air.Vcas,
		Vtas:          air.Vtas,
		RadioHeight:   f.Sensors.RadioHeight,
		Xi:            stick,
		Zeta:          f.Cockpit.Pedal,
		OnGround:      out.OnGround,
		HighAoaProt:   f.Envelope.HighAoaProt,
		HighSpeedProt: f.Envelope.HighSpeedProt,
	}
	if f.Autopilot.Engaged {
		in.Xi = numeric.Clamp(e.config.APRollGain*(f.Autopilot.PhiCommand-ir.Phi), -1, 1)
	}
	in.Tracking = f.Tracking || out.ActiveLateralLaw != mode.LateralNormal
	normal := e.lateralNormal.Step(in)
	in.Tracking = f.Tracking || out.ActiveLateralLaw != mode.LateralDirect
	direct := e.lateralDirect.Step(in)

	switch out.ActiveLateralLaw {
	case mode.LateralNormal:
		out.Xi, out.Zeta = normal.Xi, normal.Zeta
	case mode.LateralDirect:
		out.Xi, out.Zeta = direct.Xi, direct.Zeta
	}
}

// stepPitch runs all three pitch laws, tracking the ones that are not
// flying so that a reversion starts from the current surface positions.
func (e *Elac) stepPitch(f *Frame, out *ElacOutput, air airData, ir inertial, stick float64) {
	in := law.PitchInput{
		Dt:                f.Time.Dt,
		SimulationTime:    f.Time.SimulationTime,
		Nz:                ir.Nz,
		Theta:             ir.Theta,
		Phi:               ir.Phi,
		Q:                 ir.Q,
		QDot:              e.state.PitchAccel.Step(ir.Q, f.Time.Dt),
		Eta:               f.Servos.Elevator,
		EtaTrim:           f.Servos.Ths,
		Alpha:             air.Alpha,
		Vias:              air.Vcas,
		Vtas:              air.Vtas,
		Vls:               f.Envelope.Vls,
		RadioHeight:       f.Sensors.RadioHeight,
		FlapsHandle:       f.Cockpit.FlapsHandle,
		SpoilerLeft:       f.Servos.SpoilerLeft,
		SpoilerRight:      f.Servos.SpoilerRight,
		ThrustLever1:      f.Cockpit.ThrustLever1,
		ThrustLever2:      f.Cockpit.ThrustLever2,
		Stick:             stick,
		OnGround:          out.OnGround,
		TailstrikeProt:    f.Envelope.TailstrikeProt,
		HighAoaProt:       f.Envelope.HighAoaProt,
		HighSpeedProt:     f.Envelope.HighSpeedProt,
		AlphaProt:         f.Envelope.AlphaProt,
		AlphaMax:          f.Envelope.AlphaMax,
		HighSpeedProtHigh: f.Envelope.HighSpeedProtHigh,
		HighSpeedProtLow:  f.Envelope.HighSpeedProtLow,
		APThetaCommand:    f.Autopilot.ThetaCommand,
		APEngaged:         f.Autopilot.Engaged,
	}
	active := out.ActivePitchLaw

	in.Tracking = f.Tracking || active != mode.PitchNormal
	normal := e.pitchNormal.Step(in)
	in.Tracking = f.Tracking || !active.IsAlternate()
	alternate := e.pitchAlternate.Step(in, active == mode.PitchAlternate2)
	in.Tracking = f.Tracking || active != mode.PitchDirect
	direct := e.pitchDirect.Step(in)

	var o law.PitchOutput
	switch active {
	case mode.PitchNormal:
		o = normal
	case mode.PitchAlternate1, mode.PitchAlternate2:
		o = alternate
	case mode.PitchDirect:
		o = direct
	default:
		return
	}
	out.Eta, out.EtaTrim = o.Eta, o.EtaTrim
}
