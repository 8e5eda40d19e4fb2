package mode

import (
	"github.com/bskari/go-fbw/monitor"
	"github.com/bskari/go-fbw/numeric"
)

// SideStickStatus says which stick is cut out. Left is the captain's stick
// and right the first officer's.
type SideStickStatus struct {
	LeftDisabled  bool
	RightDisabled bool
	LeftLocked    bool
	RightLocked   bool
}

// Combine sums the two stick positions, dropping a disabled one, and
// limits the sum to full deflection.
func (s SideStickStatus) Combine(left, right, limit float64) float64 {
	if s.LeftDisabled {
		left = 0
	}
	if s.RightDisabled {
		right = 0
	}
	return numeric.Clamp(left+right, -limit, limit)
}

// SideStickPriority arbitrates the takeover push buttons. Pressing one
// cuts out the other stick. Releasing it gives the other stick back, unless
// the button was held long enough to lock priority, in which case the other
// stick stays cut out until the other pilot presses their own button.
type SideStickPriority struct {
	captainPulse      monitor.EdgeDetector
	firstOfficerPulse monitor.EdgeDetector
	leftLock          monitor.ConfirmNode
	rightLock         monitor.ConfirmNode
	status            SideStickStatus
}

// NewSideStickPriority builds the arbiter; lockTime is how long a takeover
// button must be held to lock priority.
func NewSideStickPriority(lockTime float64) SideStickPriority {
	return SideStickPriority{
		captainPulse:      monitor.NewEdgeDetector(true),
		firstOfficerPulse: monitor.NewEdgeDetector(true),
		leftLock:          monitor.NewConfirmNode(true, lockTime),
		rightLock:         monitor.NewConfirmNode(true, lockTime),
	}
}

func (p *SideStickPriority) Step(captainPressed, firstOfficerPressed bool, dt float64) SideStickStatus {
	s := &p.status
	captainPulse := p.captainPulse.Step(captainPressed)
	firstOfficerPulse := p.firstOfficerPulse.Step(firstOfficerPressed)
	if captainPulse {
		s.RightDisabled = true
		s.LeftDisabled = false
	} else if firstOfficerPulse {
		s.LeftDisabled = true
		s.RightDisabled = false
	}

	// The lock flags are last frame's confirmed values.
	if s.RightDisabled && !captainPressed && !s.RightLocked {
		s.RightDisabled = false
	} else if s.LeftDisabled {
		s.LeftDisabled = firstOfficerPressed || s.LeftLocked
	}

	s.LeftLocked = p.leftLock.Step(s.LeftDisabled && (firstOfficerPressed || s.LeftLocked), dt)
	s.RightLocked = p.rightLock.Step(s.RightDisabled && (captainPressed || s.RightLocked), dt)
	return *s
}

func (p *SideStickPriority) Status() SideStickStatus {
	return p.status
}
