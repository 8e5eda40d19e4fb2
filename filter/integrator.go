package filter

import (
	"math"
)

// Derivative is the backward difference of a scaled signal, returning 0 when
// the frame time is zero.
type Derivative struct {
	Gain float64

	initialized bool
	prev        float64
}

func NewDerivative(gain float64) Derivative {
	return Derivative{Gain: gain}
}

func (d *Derivative) Step(u, dt float64) float64 {
	scaled := d.Gain * u
	if !d.initialized {
		d.prev = scaled
		d.initialized = true
	}
	dt = sanitizeDt(dt)
	var y float64
	if dt > 0 {
		y = (scaled - d.prev) / dt
	}
	d.prev = scaled
	return y
}

func (d *Derivative) Reset() {
	d.initialized = false
	d.prev = 0
}

// Integrator accumulates Gain*u*dt between Lower and Upper. While Load is
// requested the accumulator is re-seeded so that this frame's output equals
// the initial condition.
type Integrator struct {
	Gain         float64
	Lower, Upper float64

	initialized bool
	state       float64
}

// NewIntegrator builds a limited integrator. Pass infinities for an
// unlimited one.
func NewIntegrator(gain, lower, upper float64) Integrator {
	if lower > upper {
		panic("filter: integrator lower limit above upper limit")
	}
	return Integrator{Gain: gain, Lower: lower, Upper: upper}
}

func NewUnlimitedIntegrator(gain float64) Integrator {
	return NewIntegrator(gain, math.Inf(-1), math.Inf(1))
}

// Step advances the integrator. When load is true (or on the first call)
// the state is set to ic before integrating this frame's increment, the
// increment itself being cancelled so the output is exactly ic.
func (i *Integrator) Step(u, dt float64, load bool, ic float64) float64 {
	return i.StepWithLimits(u, dt, load, ic, i.Lower, i.Upper)
}

// StepWithLimits is Step with limits that move from frame to frame, as the
// trim limits do when a protection freezes them. The upper limit wins when
// the two cross.
func (i *Integrator) StepWithLimits(u, dt float64, load bool, ic, lower, upper float64) float64 {
	increment := i.Gain * u * sanitizeDt(dt)
	if load || !i.initialized {
		i.state = ic - increment
		i.initialized = true
	}
	i.state += increment
	i.state = math.Min(math.Max(i.state, lower), upper)
	return i.state
}

func (i *Integrator) Output() float64 {
	return i.state
}

func (i *Integrator) Reset() {
	i.initialized = false
	i.state = 0
}
