// Package mode holds the enumerations for control laws and the small state
// machines that decide, frame by frame, which law and which computer is in
// charge. Every machine has an explicit zero Uninitialized state; the first
// Step performs the entry transition and produces outputs for the entered
// state in the same call.
package mode

// PitchLaw is ordered from most to least capable, so a larger value is a
// further degradation.
type PitchLaw uint8

const (
	PitchNormal PitchLaw = iota
	PitchAlternate1
	PitchAlternate2
	PitchDirect
	PitchNone
)

func (l PitchLaw) String() string {
	switch l {
	case PitchNormal:
		return "Normal"
	case PitchAlternate1:
		return "Alternate1"
	case PitchAlternate2:
		return "Alternate2"
	case PitchDirect:
		return "Direct"
	case PitchNone:
		return "None"
	}
	return "PitchLaw?"
}

// Worst returns the more degraded of two laws.
func (l PitchLaw) Worst(other PitchLaw) PitchLaw {
	if other > l {
		return other
	}
	return l
}

func (l PitchLaw) IsAlternate() bool {
	return l == PitchAlternate1 || l == PitchAlternate2
}

type LateralLaw uint8

const (
	LateralNormal LateralLaw = iota
	LateralDirect
	LateralNone
)

func (l LateralLaw) String() string {
	switch l {
	case LateralNormal:
		return "Normal"
	case LateralDirect:
		return "Direct"
	case LateralNone:
		return "None"
	}
	return "LateralLaw?"
}

func (l LateralLaw) Worst(other LateralLaw) LateralLaw {
	if other > l {
		return other
	}
	return l
}

// LateralBits encodes a lateral law into the two status word bits used on
// the cross-computer bus: normal sets the first, direct the second.
func LateralBits(l LateralLaw) (normal, direct bool) {
	switch l {
	case LateralNormal:
		return true, false
	case LateralDirect:
		return false, true
	}
	return false, false
}

// LateralFromBits is the inverse of LateralBits. Any other pattern reads as
// no capability.
func LateralFromBits(normal, direct bool) LateralLaw {
	switch {
	case normal && !direct:
		return LateralNormal
	case !normal && direct:
		return LateralDirect
	}
	return LateralNone
}

// PitchBits encodes a pitch law capability into three status bits. The
// first two follow the peer bus convention (normal: 10, alternate: 01,
// direct: 11, none: 00) and the third distinguishes Alternate2.
func PitchBits(l PitchLaw) (a, b, alternate2 bool) {
	switch l {
	case PitchNormal:
		return true, false, false
	case PitchAlternate1:
		return false, true, false
	case PitchAlternate2:
		return false, true, true
	case PitchDirect:
		return true, true, false
	}
	return false, false, false
}

func PitchFromBits(a, b, alternate2 bool) PitchLaw {
	switch {
	case a && !b:
		return PitchNormal
	case !a && b:
		if alternate2 {
			return PitchAlternate2
		}
		return PitchAlternate1
	case a && b:
		return PitchDirect
	}
	return PitchNone
}
