package computer

import (
	"github.com/bskari/go-fbw/arinc"
	"github.com/bskari/go-fbw/mode"
)

// The active pitch law is sent as three bits: Normal 100, Alternate1 010,
// Alternate2 110, Direct 001, none 000.
func activePitchBits(l mode.PitchLaw) (normal, alternate, direct bool) {
	switch l {
	case mode.PitchNormal:
		return true, false, false
	case mode.PitchAlternate1:
		return false, true, false
	case mode.PitchAlternate2:
		return true, true, false
	case mode.PitchDirect:
		return false, false, true
	}
	return false, false, false
}

func activePitchFromBits(normal, alternate, direct bool) mode.PitchLaw {
	switch {
	case direct:
		return mode.PitchDirect
	case normal && alternate:
		return mode.PitchAlternate2
	case alternate:
		return mode.PitchAlternate1
	case normal:
		return mode.PitchNormal
	}
	return mode.PitchNone
}

// ElacStatus is the decoded content of the two ELAC discrete words.
type ElacStatus struct {
	LeftAileronFailed   bool
	RightAileronFailed  bool
	LeftElevatorFailed  bool
	RightElevatorFailed bool

	LeftAileronAvailable   bool
	RightAileronAvailable  bool
	LeftElevatorAvailable  bool
	RightElevatorAvailable bool

	PitchEngaged   bool
	RollEngaged    bool
	CanEngagePitch bool
	CanEngageRoll  bool

	ActivePitchLaw   mode.PitchLaw
	ActiveLateralLaw mode.LateralLaw

	PitchCapability   mode.PitchLaw
	LateralCapability mode.LateralLaw
	Sticks            mode.SideStickStatus
}

// Words packs the status into discrete words 1 and 2.
func (s ElacStatus) Words() (word1, word2 arinc.Word) {
	var f1 arinc.DiscreteFields
	f1[0] = s.LeftAileronFailed
	f1[1] = s.RightAileronFailed
	f1[2] = s.LeftElevatorFailed
	f1[3] = s.RightElevatorFailed
	f1[4] = s.LeftAileronAvailable
	f1[5] = s.RightAileronAvailable
	f1[6] = s.LeftElevatorAvailable
	f1[7] = s.RightElevatorAvailable
	f1[8] = s.PitchEngaged
	f1[9] = s.RollEngaged
	f1[10] = !s.CanEngagePitch
	f1[11] = !s.CanEngageRoll
	f1[12], f1[13], f1[14] = activePitchBits(s.ActivePitchLaw)
	f1[15], f1[16] = mode.LateralBits(s.ActiveLateralLaw)

	var f2 arinc.DiscreteFields
	f2[0], f2[1], f2[4] = mode.PitchBits(s.PitchCapability)
	f2[2], f2[3] = mode.LateralBits(s.LateralCapability)
	f2[6] = s.Sticks.LeftDisabled
	f2[7] = s.Sticks.RightDisabled
	f2[8] = s.Sticks.LeftLocked
	f2[9] = s.Sticks.RightLocked

	return arinc.PackDiscrete(arinc.NormalOperation, f1), arinc.PackDiscrete(arinc.NormalOperation, f2)
}

// DecodeElacStatus is the inverse of Words. It does not look at the SSM.
func DecodeElacStatus(word1, word2 arinc.Word) ElacStatus {
	return ElacStatus{
		LeftAileronFailed:      word1.Field(0),
		RightAileronFailed:     word1.Field(1),
		LeftElevatorFailed:     word1.Field(2),
		RightElevatorFailed:    word1.Field(3),
		LeftAileronAvailable:   word1.Field(4),
		RightAileronAvailable:  word1.Field(5),
		LeftElevatorAvailable:  word1.Field(6),
		RightElevatorAvailable: word1.Field(7),
		PitchEngaged:           word1.Field(8),
		RollEngaged:            word1.Field(9),
		CanEngagePitch:         !word1.Field(10),
		CanEngageRoll:          !word1.Field(11),
		ActivePitchLaw:         activePitchFromBits(word1.Field(12), word1.Field(13), word1.Field(14)),
		ActiveLateralLaw:       mode.LateralFromBits(word1.Field(15), word1.Field(16)),
		PitchCapability:        mode.PitchFromBits(word2.Field(0), word2.Field(1), word2.Field(4)),
		LateralCapability:      mode.LateralFromBits(word2.Field(2), word2.Field(3)),
		Sticks: mode.SideStickStatus{
			LeftDisabled:  word2.Field(6),
			RightDisabled: word2.Field(7),
			LeftLocked:    word2.Field(8),
			RightLocked:   word2.Field(9),
		},
	}
}

// ElacBus is what an ELAC publishes to its peer and to the SECs.
type ElacBus struct {
	Status1 arinc.Word `msgpack:"status1"`
	Status2 arinc.Word `msgpack:"status2"`
	// Lateral orders, normal only while the lateral normal law is active.
	AileronCommand     arinc.Word `msgpack:"aileron"`
	RollSpoilerCommand arinc.Word `msgpack:"roll_spoiler"`
	YawDamperCommand   arinc.Word `msgpack:"yaw_damper"`
}

// pitchFailed reports whether this bus says its ELAC has lost the pitch
// axis. A silent bus counts as failed.
func (b ElacBus) pitchFailed() bool {
	return !b.Status1.IsNormal() || b.Status1.Field(10)
}

// aileronsLost reports whether this ELAC can drive neither aileron.
func (b ElacBus) aileronsLost() bool {
	return !b.Status1.IsNormal() || !(b.Status1.Field(4) || b.Status1.Field(5))
}

// capabilities returns the peer's law capabilities, or false when word 2 is
// not valid.
func (b ElacBus) capabilities() (mode.PitchLaw, mode.LateralLaw, bool) {
	if !b.Status2.IsNormal() {
		return mode.PitchNone, mode.LateralNone, false
	}
	s := DecodeElacStatus(b.Status1, b.Status2)
	return s.PitchCapability, s.LateralCapability, true
}

// SecStatus is the decoded SEC discrete word.
type SecStatus struct {
	LeftElevatorAvailable  bool
	RightElevatorAvailable bool
	PitchEngaged           bool
	CanEngagePitch         bool
	PitchCapability        mode.PitchLaw
	ActivePitchLaw         mode.PitchLaw

	GroundSpoilersOut   bool
	GroundSpoilersArmed bool
	Pair1Available      bool
	Pair2Available      bool
	SpeedBrakeInhibited bool
	Abnormal            bool
	RollEngaged         bool
}

func (s SecStatus) Word() arinc.Word {
	var f arinc.DiscreteFields
	f[0] = s.LeftElevatorAvailable
	f[1] = s.RightElevatorAvailable
	f[2] = s.PitchEngaged
	f[3] = !s.CanEngagePitch
	f[4], f[5], f[6] = mode.PitchBits(s.PitchCapability)
	f[7], f[8], f[9] = activePitchBits(s.ActivePitchLaw)
	f[10] = s.GroundSpoilersOut
	f[11] = s.GroundSpoilersArmed
	f[12] = s.Pair1Available
	f[13] = s.Pair2Available
	f[14] = s.SpeedBrakeInhibited
	f[15] = s.Abnormal
	f[16] = s.RollEngaged
	return arinc.PackDiscrete(arinc.NormalOperation, f)
}

func DecodeSecStatus(w arinc.Word) SecStatus {
	return SecStatus{
		LeftElevatorAvailable:  w.Field(0),
		RightElevatorAvailable: w.Field(1),
		PitchEngaged:           w.Field(2),
		CanEngagePitch:         !w.Field(3),
		PitchCapability:        mode.PitchFromBits(w.Field(4), w.Field(5), w.Field(6)),
		ActivePitchLaw:         activePitchFromBits(w.Field(7), w.Field(8), w.Field(9)),
		GroundSpoilersOut:      w.Field(10),
		GroundSpoilersArmed:    w.Field(11),
		Pair1Available:         w.Field(12),
		Pair2Available:         w.Field(13),
		SpeedBrakeInhibited:    w.Field(14),
		Abnormal:               w.Field(15),
		RollEngaged:            w.Field(16),
	}
}

// SecBus is what a SEC publishes to the other SECs.
type SecBus struct {
	Status1 arinc.Word `msgpack:"status1"`
	// Speed brake deflection ordered by this SEC, degrees.
	SpeedBrakeCommand arinc.Word `msgpack:"speed_brake"`
}

func (b SecBus) pitchFailed() bool {
	return !b.Status1.IsNormal() || b.Status1.Field(3)
}
