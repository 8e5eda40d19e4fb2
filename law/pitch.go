package law

import (
	"math"

	"github.com/bskari/go-fbw/filter"
	"github.com/bskari/go-fbw/mode"
	"github.com/bskari/go-fbw/monitor"
	"github.com/bskari/go-fbw/numeric"
	"github.com/bskari/go-fbw/table"
)

// PitchInput is the pitch axis frame input. Angles are in degrees, rates
// in degrees per second, speeds in knots, heights in feet and the load
// factor in g. Stick is the pitch stick position in [-1, 1], positive when
// pulled. Elevator and trim angles are negative nose up.
type PitchInput struct {
	Dt             float64
	SimulationTime float64

	Nz            float64
	Theta, Phi    float64
	Q, QDot       float64
	Eta, EtaTrim  float64
	Alpha         float64
	Vias, Vtas    float64
	Vls           float64
	RadioHeight   float64
	FlapsHandle   float64
	SpoilerLeft   float64
	SpoilerRight  float64
	ThrustLever1  float64
	ThrustLever2  float64
	Stick         float64

	OnGround       bool
	Tracking       bool
	TailstrikeProt bool

	HighAoaProt       bool
	HighSpeedProt     bool
	AlphaProt         float64
	AlphaMax          float64
	HighSpeedProtHigh float64
	HighSpeedProtLow  float64

	APThetaCommand float64
	APEngaged      bool
}

// PitchOutput holds the elevator and stabiliser trim orders in degrees.
type PitchOutput struct {
	Eta     float64
	EtaTrim float64
}

// CStarConfig calibrates the load factor and pitch rate blend shared by the
// normal and alternate laws.
type CStarConfig struct {
	// Crossover speed of the C* criterion, m/s.
	CrossoverSpeed float64 `toml:"crossover_speed_m_s"`
	// Speed stability term, by true airspeed.
	SpeedStability table.Spec `toml:"speed_stability"`
	Proportional   table.Spec `toml:"proportional_gain"`
	Derivative     table.Spec `toml:"derivative_gain"`
	// Gain on pitch acceleration.
	PitchAcceleration float64 `toml:"pitch_acceleration_gain"`
	// Speed rate term: corner of its lag, saturation and gain.
	SpeedRateLag   float64 `toml:"speed_rate_lag"`
	SpeedRateLimit float64 `toml:"speed_rate_limit"`
	SpeedRateGain  float64 `toml:"speed_rate_gain"`
	// Spoiler compensation: corner of its washout, saturation and gain by
	// radio height.
	SpoilerWashout float64    `toml:"spoiler_washout"`
	SpoilerLimit   float64    `toml:"spoiler_limit_deg"`
	SpoilerGain    table.Spec `toml:"spoiler_gain"`
	// Saturation of each candidate elevator rate, degrees per second.
	RateLimit float64 `toml:"rate_limit_deg_s"`
	// Rate of the load factor limits, g per second.
	NzLimitRate float64 `toml:"nz_limit_rate_g_s"`
	// Rate of the stick feeding the load demand, per second.
	StickRate  float64    `toml:"stick_rate"`
	LoadDemand table.Spec `toml:"load_demand"`
	// Bank angle compensated in the demanded load factor, degrees.
	BankCompensationLimit float64 `toml:"bank_compensation_limit_deg"`
	// Gain reduction for long frames.
	TimeStepGain table.Spec `toml:"time_step_gain"`
	// Elevator order rate, degrees per second.
	ElevatorRate float64 `toml:"elevator_rate_deg_s"`
	// Elevator per unit stick while the law is faded out on the ground.
	GroundGain float64 `toml:"ground_gain"`
}

func DefaultCStarConfig() CStarConfig {
	return CStarConfig{
		CrossoverSpeed:        100,
		SpeedStability:        table.Of([]float64{0, 400}, []float64{100, 100}),
		Proportional:          table.Of([]float64{0, 400}, []float64{13.5, 13.5}),
		Derivative:            table.Of([]float64{0, 400}, []float64{0.5, 0.5}),
		PitchAcceleration:     0.1,
		SpeedRateLag:          2,
		SpeedRateLimit:        1,
		SpeedRateGain:         0.5,
		SpoilerWashout:        1,
		SpoilerLimit:          10,
		SpoilerGain:           table.Of([]float64{0, 50, 100, 200}, []float64{0, 0, -1, -1}),
		RateLimit:             30,
		NzLimitRate:           2,
		StickRate:             2,
		LoadDemand:            table.Of([]float64{-1, 0, 1}, []float64{-2, 0, 1.5}),
		BankCompensationLimit: 33,
		TimeStepGain:          table.Of([]float64{0, 0.06, 0.1, 0.2, 1}, []float64{1, 1, 0.5, 0.3, 0.3}),
		ElevatorRate:          30,
		GroundGain:            -30,
	}
}

// ProtectionConfig calibrates the high angle of attack and high speed
// protections. Both add a load factor increment to the pilot demand.
type ProtectionConfig struct {
	StickRate       float64 `toml:"stick_rate"`
	AlphaLag        float64 `toml:"alpha_lag"`
	AttitudeWashout float64 `toml:"attitude_washout"`
	PrecontrolLag   float64 `toml:"precontrol_lag"`

	AlphaPrecontrolGain float64 `toml:"alpha_precontrol_gain"`
	AlphaErrorGain      float64 `toml:"alpha_error_gain"`
	AlphaSpeedRateGain  float64 `toml:"alpha_speed_rate_gain"`
	AlphaQGain          float64 `toml:"alpha_q_gain"`
	AlphaQDotGain       float64 `toml:"alpha_q_dot_gain"`
	AlphaLower          float64 `toml:"alpha_lower_g"`
	AlphaUpper          float64 `toml:"alpha_upper_g"`

	SpeedGain           float64 `toml:"speed_gain"`
	SpeedPrecontrolGain float64 `toml:"speed_precontrol_gain"`
	SpeedErrorGain      float64 `toml:"speed_error_gain"`
	SpeedRateGain       float64 `toml:"speed_rate_gain"`
	SpeedQGain          float64 `toml:"speed_q_gain"`
	SpeedQDotGain       float64 `toml:"speed_q_dot_gain"`
	SpeedLower          float64 `toml:"speed_lower_g"`
	SpeedUpper          float64 `toml:"speed_upper_g"`
}

func DefaultProtectionConfig() ProtectionConfig {
	return ProtectionConfig{
		StickRate:       2,
		AlphaLag:        2,
		AttitudeWashout: 0.5,
		PrecontrolLag:   1,

		AlphaPrecontrolGain: 0.1,
		AlphaErrorGain:      0.25,
		AlphaSpeedRateGain:  0.1,
		AlphaQGain:          -0.1,
		AlphaQDotGain:       -0.05,
		AlphaLower:          -2,
		AlphaUpper:          2,

		SpeedGain:           1,
		SpeedPrecontrolGain: -0.1,
		SpeedErrorGain:      -0.05,
		SpeedRateGain:       0.1,
		SpeedQGain:          -0.1,
		SpeedQDotGain:       -0.05,
		SpeedLower:          -0.5,
		SpeedUpper:          2,
	}
}

// TrimConfig calibrates the automatic stabiliser trim.
type TrimConfig struct {
	// Trim rate per degree of elevator, per second.
	Gain          float64 `toml:"gain"`
	NoseDownLimit float64 `toml:"nose_down_limit_deg"`
	NoseUpLimit   float64 `toml:"nose_up_limit_deg"`
}

func DefaultTrimConfig() TrimConfig {
	return TrimConfig{Gain: 0.1, NoseDownLimit: 4, NoseUpLimit: -13.5}
}

func (c CStarConfig) check(t *tables) {
	t.check("crossover speed", c.CrossoverSpeed)
	t.check("speed rate lag", c.SpeedRateLag)
	t.check("spoiler washout", c.SpoilerWashout)
	t.check("rate limit", c.RateLimit)
	t.check("nz limit rate", c.NzLimitRate)
	t.check("stick rate", c.StickRate)
	t.check("elevator rate", c.ElevatorRate)
}

func (c ProtectionConfig) check(t *tables) {
	t.check("protection stick rate", c.StickRate)
	t.check("alpha lag", c.AlphaLag)
	t.check("attitude washout", c.AttitudeWashout)
	t.check("precontrol lag", c.PrecontrolLag)
}

func (c TrimConfig) check(t *tables) {
	if !(c.NoseUpLimit < c.NoseDownLimit) {
		t.errs = append(t.errs, positive("trim range", c.NoseDownLimit-c.NoseUpLimit))
	}
}

// lagDerivative is a derivative smoothed by a first order lag, the usual
// precontrol shaping.
type lagDerivative struct {
	D filter.Derivative
	L filter.Lag
}

func newLagDerivative(c1 float64) lagDerivative {
	return lagDerivative{D: filter.NewDerivative(1), L: filter.NewLag(c1)}
}

func (l *lagDerivative) Step(u, dt float64) float64 {
	return l.L.Step(l.D.Step(u, dt), dt)
}

// CStarPath is the memory of one candidate elevator rate.
type CStarPath struct {
	PitchRate filter.Derivative
	Error     filter.Derivative
	Speed     lagDerivative
	Spoilers  filter.Washout
}

// cstar turns a target load factor into an elevator rate.
type cstar struct {
	CStarConfig

	speedStability *table.Table
	proportional   *table.Table
	derivative     *table.Table
	spoilerGain    *table.Table
	loadDemand     *table.Table
	timeStepGain   *table.Table
}

func newCStar(c CStarConfig, t *tables) cstar {
	c.check(t)
	return cstar{
		CStarConfig:    c,
		speedStability: t.fit("speed stability", c.SpeedStability),
		proportional:   t.fit("proportional gain", c.Proportional),
		derivative:     t.fit("derivative gain", c.Derivative),
		spoilerGain:    t.fit("spoiler gain", c.SpoilerGain),
		loadDemand:     t.fit("load demand", c.LoadDemand),
		timeStepGain:   t.fit("time step gain", c.TimeStepGain),
	}
}

func (c *cstar) newPath() CStarPath {
	return CStarPath{
		PitchRate: filter.NewDerivative(1),
		Error:     filter.NewDerivative(1),
		Speed:     newLagDerivative(c.SpeedRateLag),
		Spoilers:  filter.NewWashout(c.SpoilerWashout),
	}
}

// trimLoad is the load factor that holds the current attitude.
func trimLoad(theta, phi float64) float64 {
	return math.Cos(numeric.ToRadians(theta)) / math.Cos(numeric.ToRadians(phi))
}

// rate is the elevator rate that drives the C* error toward a target load
// factor. A load factor above the target gives a positive, nose down, rate.
func (c *cstar) rate(p *CStarPath, in *PitchInput, target float64) float64 {
	level := trimLoad(in.Theta, in.Phi)
	v := numeric.Clamp(in.Vtas, 100, 2000) * numeric.KnotsToMetersPerSecond
	bias := c.speedStability.Lookup(in.Vtas)/v + 1
	err := c.CrossoverSpeed/numeric.Gravity*numeric.ToRadians(in.Q) + (in.Nz - level) - bias*(target-level)

	proportional := err * c.proportional.Lookup(in.Vtas)
	derivative := p.Error.Step(err*c.derivative.Lookup(in.Vtas), in.Dt)
	acceleration := p.PitchRate.Step(in.Q, in.Dt)
	speedRate := numeric.Clamp(p.Speed.Step(in.Vtas, in.Dt), -c.SpeedRateLimit, c.SpeedRateLimit)
	spoilers := numeric.Clamp(p.Spoilers.Step(math.Min(in.SpoilerLeft, in.SpoilerRight), in.Dt),
		-c.SpoilerLimit, c.SpoilerLimit) * c.spoilerGain.Lookup(in.RadioHeight)

	rate := c.PitchAcceleration*acceleration + proportional + derivative + c.SpeedRateGain*speedRate + spoilers
	return numeric.Clamp(rate, -c.RateLimit, c.RateLimit)
}

// demandTarget is the load factor the pilot asks for on top of holding the
// attitude, compensated for bank up to the compensation limit.
func (c *cstar) demandTarget(in *PitchInput, increment float64) float64 {
	phi := numeric.Clamp(in.Phi, -c.BankCompensationLimit, c.BankCompensationLimit)
	return math.Cos(numeric.ToRadians(in.Theta))/math.Cos(numeric.ToRadians(phi)) + increment
}

// HighAoaState is the memory of the angle of attack protection.
type HighAoaState struct {
	Stick      filter.RateLimiter
	Alpha      filter.Lag
	Attitude   filter.Washout
	Precontrol lagDerivative
	Speed      lagDerivative
}

// HighSpeedState is the memory of the high speed protection.
type HighSpeedState struct {
	Stick      filter.RateLimiter
	Precontrol lagDerivative
	Speed      lagDerivative
}

type protections struct {
	ProtectionConfig
}

func (p *protections) newHighAoa() HighAoaState {
	return HighAoaState{
		Stick:      filter.NewRateLimiter(p.StickRate, p.StickRate, 0),
		Alpha:      filter.NewLag(p.AlphaLag),
		Attitude:   filter.NewWashout(p.AttitudeWashout),
		Precontrol: newLagDerivative(p.PrecontrolLag),
		Speed:      newLagDerivative(p.PrecontrolLag),
	}
}

func (p *protections) newHighSpeed() HighSpeedState {
	return HighSpeedState{
		Stick:      filter.NewRateLimiter(p.StickRate, p.StickRate, 0),
		Precontrol: newLagDerivative(p.PrecontrolLag),
		Speed:      newLagDerivative(p.PrecontrolLag),
	}
}

// highAoa keeps the angle of attack between alpha prot and alpha max, the
// stick position choosing where in the band. It also eases off at high
// attitude and bank. The filters run even while the protection is off so
// they are settled when it engages.
func (p *protections) highAoa(s *HighAoaState, in *PitchInput, active bool) float64 {
	stick := s.Stick.Step(in.Stick, in.Dt)
	alpha := s.Alpha.Step(in.Alpha, in.Dt)
	attitude := math.Max(math.Max(0, in.Theta-22.5), math.Max(0, (math.Abs(in.Phi)-3)/6))
	margin := (in.AlphaMax-in.AlphaProt)*stick - (alpha - in.AlphaProt) - s.Attitude.Step(attitude, in.Dt)
	precontrol := s.Precontrol.Step(margin, in.Dt)
	speedRate := s.Speed.Step(in.Vias, in.Dt)
	if !active {
		return 0
	}
	increment := p.AlphaPrecontrolGain*precontrol + p.AlphaErrorGain*margin + p.AlphaSpeedRateGain*speedRate +
		p.AlphaQGain*in.Q + p.AlphaQDotGain*in.QDot
	return numeric.Clamp(increment, p.AlphaLower, p.AlphaUpper)
}

// highSpeed pitches up to hold the speed between the two high speed
// protection speeds, a push on the stick allowing the higher one.
func (p *protections) highSpeed(s *HighSpeedState, in *PitchInput, active bool) float64 {
	stick := s.Stick.Step(in.Stick, in.Dt)
	target := math.Max((in.HighSpeedProtLow-in.HighSpeedProtHigh)*stick, 0) + in.HighSpeedProtLow
	precontrol := s.Precontrol.Step(target, in.Dt)
	speedRate := s.Speed.Step(in.Vias, in.Dt)
	if !active {
		return 0
	}
	increment := p.SpeedPrecontrolGain*precontrol + p.SpeedErrorGain*(target-in.Vias) +
		p.SpeedRateGain*speedRate + p.SpeedQGain*in.Q + p.SpeedQDotGain*in.QDot
	return numeric.Clamp(p.SpeedGain*increment, p.SpeedLower, p.SpeedUpper)
}

const flightFaderRate = 1.0

// PitchState is the carried memory of the normal and alternate pitch laws.
type PitchState struct {
	Flight        mode.FlightPhase
	FlightFader   filter.RateLimiter
	Flare         mode.Flare
	TrimFreeze    mode.TrimFreeze
	TrimMode      mode.TrimMode
	Configuration mode.TrimConfiguration
	Rotation      mode.Rotation

	NzUpper filter.RateLimiter
	NzLower filter.RateLimiter
	Stick   filter.RateLimiter
	Paths   [3]CStarPath

	HighAoa   HighAoaState
	HighSpeed HighSpeedState

	Elevator       filter.Integrator
	ElevatorOutput filter.RateLimiter
	Trim           filter.Integrator
	TrimOutput     filter.RateLimiter
	TrimUpperHold  monitor.StoreAndHold
	TrimLowerHold  monitor.StoreAndHold

	// Only used by the normal law.
	Normal NormalState

	Initialized bool
}

// pitchCore is the part of the C* laws that does not depend on which law
// is flying: the flight phase, the voted elevator rate and the trim.
type pitchCore struct {
	cstar
	protections
	trim   TrimConfig
	flight mode.FlightThresholds
	flare  mode.FlareConfig
}

func (c *pitchCore) newState() PitchState {
	s := PitchState{
		Flight:         mode.NewFlightPhase(c.flight),
		FlightFader:    filter.NewRateLimiter(flightFaderRate, flightFaderRate, 0),
		Flare:          mode.NewFlare(c.flare),
		NzUpper:        filter.NewRateLimiter(c.NzLimitRate, c.NzLimitRate, 0),
		NzLower:        filter.NewRateLimiter(c.NzLimitRate, c.NzLimitRate, 0),
		Stick:          filter.NewRateLimiter(c.cstar.StickRate, c.cstar.StickRate, 0),
		HighAoa:        c.newHighAoa(),
		HighSpeed:      c.newHighSpeed(),
		Elevator:       filter.NewIntegrator(1, -elevatorLimit, elevatorLimit),
		ElevatorOutput: filter.NewRateLimiter(c.ElevatorRate, c.ElevatorRate, 0),
		Trim:           filter.NewUnlimitedIntegrator(1),
		TrimOutput:     filter.NewRateLimiter(0, 0, 0),
	}
	for i := range s.Paths {
		s.Paths[i] = c.newPath()
	}
	return s
}

// frame is what a pitch law learns at the start of each step.
type frame struct {
	inFlight bool
	fader    float64
	flare    mode.FlareOutput
	limits   mode.TrimLimits
	nzUpper  float64
	nzLower  float64
}

func (c *pitchCore) begin(s *PitchState, in *PitchInput) frame {
	f := frame{inFlight: s.Flight.Step(in.OnGround, in.Theta, in.RadioHeight, in.SimulationTime)}
	f.fader = numeric.Clamp(s.FlightFader.Step(numeric.BoolToFloat(f.inFlight), in.Dt), 0, 1)
	f.flare = s.Flare.Step(f.inFlight, in.RadioHeight, in.Theta, in.Dt)
	f.limits = s.Configuration.Step(f.inFlight, in.FlapsHandle)
	if !s.Initialized {
		s.NzUpper.Set(f.limits.NzUp)
		s.NzLower.Set(f.limits.NzDown)
		s.Stick.Set(in.Stick)
		s.HighAoa.Stick.Set(in.Stick)
		s.HighSpeed.Stick.Set(in.Stick)
	}
	f.nzUpper = s.NzUpper.Step(f.limits.NzUp, in.Dt)
	f.nzLower = s.NzLower.Step(f.limits.NzDown, in.Dt)
	return f
}

// finish votes the three candidate rates, integrates the winner into the
// elevator order and lets the trim follow the elevator. While rotating the
// law is flying before the flight fader has moved.
func (c *pitchCore) finish(s *PitchState, in *PitchInput, f frame, rates [3]float64, rotating bool) PitchOutput {
	rate := monitor.Vote(rates[0], rates[1], rates[2]) * c.timeStepGain.Lookup(in.Dt)
	load := (f.fader == 0 && !rotating) || in.Tracking
	initial := c.GroundGain * in.Stick
	if f.inFlight || rotating {
		initial = in.Eta
	}
	eta := s.Elevator.Step(rate, in.Dt, load, initial)
	if !s.Initialized {
		s.ElevatorOutput.Set(eta)
	}
	eta = s.ElevatorOutput.Step(eta, in.Dt)

	command := s.TrimMode.Step(f.inFlight, in.Tracking, in.EtaTrim)
	frozen := s.TrimFreeze.Step(f.flare.Active, in.Nz, in.Phi)
	follow := s.Elevator.Output()
	if frozen {
		follow = 0
	}
	upper, lower := c.trim.NoseDownLimit, c.trim.NoseUpLimit
	if held := s.TrimUpperHold.Step(in.HighSpeedProt, in.EtaTrim); in.HighSpeedProt {
		upper = held
	}
	if held := s.TrimLowerHold.Step(in.HighAoaProt, in.EtaTrim); in.HighAoaProt {
		lower = math.Min(held, upper)
	}
	trim := s.Trim.StepWithLimits(c.trim.Gain*follow, in.Dt, command.Reset, command.Initial, lower, upper)
	if !s.Initialized {
		s.TrimOutput.Set(in.EtaTrim)
	}
	trim = s.TrimOutput.StepWithRates(trim, f.limits.RateUp, f.limits.RateDown, in.Dt)

	s.Initialized = true
	return PitchOutput{Eta: eta, EtaTrim: trim}
}
