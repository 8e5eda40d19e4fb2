// Package computer assembles the flight control computers of one aircraft:
// two elevator aileron computers (ELAC) that fly the normal and alternate
// laws, and three spoiler elevator computers (SEC) that drive the spoilers
// and back up the pitch axis.
//
// Every computer is stepped once per frame with an immutable Frame and the
// bus words its peers published on the previous frame.
package computer

import (
	"github.com/bskari/go-fbw/arinc"
)

// Time is the frame clock, in seconds.
type Time struct {
	Dt             float64 `msgpack:"dt"`
	SimulationTime float64 `msgpack:"t"`
}

// ADRBus is the output of one air data computer. Speeds are in knots, angles
// in degrees and altitude in feet.
type ADRBus struct {
	Altitude arinc.Word `msgpack:"alt"`
	Vcas     arinc.Word `msgpack:"cas"`
	Vtas     arinc.Word `msgpack:"tas"`
	Mach     arinc.Word `msgpack:"mach"`
	Alpha    arinc.Word `msgpack:"aoa"`
}

// IRBus is the output of one inertial reference. Angles are in degrees,
// rates in degrees per second and Nz in g.
type IRBus struct {
	Theta arinc.Word `msgpack:"theta"`
	Phi   arinc.Word `msgpack:"phi"`
	Q     arinc.Word `msgpack:"q"`
	R     arinc.Word `msgpack:"r"`
	P     arinc.Word `msgpack:"p"`
	Nz    arinc.Word `msgpack:"nz"`
}

type Sensors struct {
	ADR [3]ADRBus `msgpack:"adr"`
	IR  [3]IRBus  `msgpack:"ir"`

	RadioHeight float64 `msgpack:"ra"`
	// Gear strut compression, 0 fully extended.
	StrutLeft  float64 `msgpack:"strut_l"`
	StrutRight float64 `msgpack:"strut_r"`
	// Main wheel speeds, knots.
	WheelSpeedLeft  float64 `msgpack:"wheel_l"`
	WheelSpeedRight float64 `msgpack:"wheel_r"`
	LandingGearDown bool    `msgpack:"gear_down"`
}

// Cockpit holds the pilot controls. Stick and pedal positions are in
// [-1, 1]; pitch stick is positive pulled and roll stick positive right.
type Cockpit struct {
	CaptPitch float64 `msgpack:"capt_pitch"`
	CaptRoll  float64 `msgpack:"capt_roll"`
	FOPitch   float64 `msgpack:"fo_pitch"`
	FORoll    float64 `msgpack:"fo_roll"`
	Pedal     float64 `msgpack:"pedal"`

	CaptTakeover bool `msgpack:"capt_takeover"`
	FOTakeover   bool `msgpack:"fo_takeover"`

	// Speed brake lever in [0, 1] and the ground spoiler arm switch.
	SpeedBrakeLever     float64 `msgpack:"sb_lever"`
	GroundSpoilersArmed bool    `msgpack:"gs_armed"`

	// Thrust lever angles in degrees, 0 at idle.
	ThrustLever1 float64 `msgpack:"tla1"`
	ThrustLever2 float64 `msgpack:"tla2"`
	FlapsHandle  float64 `msgpack:"flaps"`
}

// Hydraulics holds the system pressures in psi and the low pressure
// switches.
type Hydraulics struct {
	Green  float64 `msgpack:"green"`
	Blue   float64 `msgpack:"blue"`
	Yellow float64 `msgpack:"yellow"`

	GreenLow  bool `msgpack:"green_low"`
	BlueLow   bool `msgpack:"blue_low"`
	YellowLow bool `msgpack:"yellow_low"`
}

// Servos holds the actuator failure discretes and the measured positions,
// in degrees.
type Servos struct {
	LeftElevatorFailed  bool `msgpack:"elev_l_fail"`
	RightElevatorFailed bool `msgpack:"elev_r_fail"`
	LeftAileronFailed   bool `msgpack:"ail_l_fail"`
	RightAileronFailed  bool `msgpack:"ail_r_fail"`
	ThsMotorFailed      bool `msgpack:"ths_fail"`
	// Spoiler pair failures per SEC.
	SpoilerPairFailed [3][2]bool `msgpack:"spoiler_fail"`

	Elevator     float64 `msgpack:"elev"`
	Ths          float64 `msgpack:"ths"`
	SpoilerLeft  float64 `msgpack:"spoiler_l"`
	SpoilerRight float64 `msgpack:"spoiler_r"`
}

// Envelope carries the flight envelope speeds and protection discretes
// computed elsewhere.
type Envelope struct {
	Vls               float64 `msgpack:"vls"`
	AlphaProt         float64 `msgpack:"alpha_prot"`
	AlphaMax          float64 `msgpack:"alpha_max"`
	HighSpeedProtLow  float64 `msgpack:"hsp_low"`
	HighSpeedProtHigh float64 `msgpack:"hsp_high"`

	HighAoaProt    bool `msgpack:"aoa_prot"`
	HighSpeedProt  bool `msgpack:"hs_prot"`
	TailstrikeProt bool `msgpack:"tailstrike"`
}

// AutopilotOrders are the attitude targets of an engaged autopilot.
type AutopilotOrders struct {
	Engaged      bool    `msgpack:"engaged"`
	ThetaCommand float64 `msgpack:"theta"`
	PhiCommand   float64 `msgpack:"phi"`
}

// Frame is everything the computers see in one step.
type Frame struct {
	Time       Time            `msgpack:"time"`
	Sensors    Sensors         `msgpack:"sensors"`
	Cockpit    Cockpit         `msgpack:"cockpit"`
	Hydraulics Hydraulics      `msgpack:"hyd"`
	Servos     Servos          `msgpack:"servos"`
	Envelope   Envelope        `msgpack:"envelope"`
	Autopilot  AutopilotOrders `msgpack:"ap"`

	// Yaw damper channel lost, per FAC.
	YawControlLost [2]bool `msgpack:"yaw_lost"`
	// Tracking forces every law to follow the measured surface positions.
	Tracking bool `msgpack:"tracking"`
}

func (f *Frame) adrWords() (cas, tas, mach, alpha [3]arinc.Word) {
	for i, a := range f.Sensors.ADR {
		cas[i], tas[i], mach[i], alpha[i] = a.Vcas, a.Vtas, a.Mach, a.Alpha
	}
	return cas, tas, mach, alpha
}

func (f *Frame) irWords() (theta, phi, q, r, p, nz [3]arinc.Word) {
	for i, a := range f.Sensors.IR {
		theta[i], phi[i], q[i], r[i], p[i], nz[i] = a.Theta, a.Phi, a.Q, a.R, a.P, a.Nz
	}
	return theta, phi, q, r, p, nz
}

// airData is the voted air data, in knots and degrees.
type airData struct {
	Vcas, Vtas, Mach, Alpha float64
}

// inertial is the voted inertial data.
type inertial struct {
	Theta, Phi, Q, R, P, Nz float64
}
