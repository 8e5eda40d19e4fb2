package mode

// FaultCounts is the number of confirmed suspect sources per sensor class.
type FaultCounts struct {
	ADR int
	IR  int
}

// PitchCapabilityFromFaults maps sensor agreement faults to the best pitch
// law still computable. Three failed inertial references leave only the
// direct law, whatever the air data is doing.
func PitchCapabilityFromFaults(f FaultCounts) PitchLaw {
	switch {
	case f.IR >= 3:
		return PitchDirect
	case f.IR >= 2 || f.ADR >= 3:
		return PitchAlternate2
	case f.ADR >= 2:
		return PitchAlternate1
	}
	return PitchNormal
}

type capabilityState uint8

const (
	capabilityUninitialized capabilityState = iota
	capabilityTracking
	capabilityLatched
)

// PitchCapability follows the fault counts but, once airborne, never
// upgrades: a law lost in flight stays lost until the aircraft is back on
// the ground.
type PitchCapability struct {
	state capabilityState
	law   PitchLaw
}

// Step returns the capability. hardwareOK false (no elevator or no
// hydraulics) means no pitch law at all.
func (p *PitchCapability) Step(faults FaultCounts, hardwareOK, onGround bool) PitchLaw {
	law := PitchCapabilityFromFaults(faults)
	if !hardwareOK {
		law = PitchNone
	}
	switch p.state {
	case capabilityUninitialized:
		p.state = capabilityTracking
		p.law = law
	case capabilityTracking:
		p.law = law
		if !onGround && law != PitchNormal {
			p.state = capabilityLatched
		}
	case capabilityLatched:
		if onGround {
			p.state = capabilityTracking
			p.law = law
		} else {
			p.law = p.law.Worst(law)
		}
	}
	return p.law
}

func (p *PitchCapability) Law() PitchLaw {
	return p.law
}

// LateralCapability degrades to the direct law when yaw control is lost on
// both channels, and to none when no roll surface can be driven.
func LateralCapability(yawControlLost1, yawControlLost2, rollSurfaceAvailable bool) LateralLaw {
	if !rollSurfaceAvailable {
		return LateralNone
	}
	if yawControlLost1 && yawControlLost2 {
		return LateralDirect
	}
	return LateralNormal
}
