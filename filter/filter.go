// Package filter implements the discrete-time shaping blocks used by the
// control laws. Each filter keeps one sample of memory, is advanced with the
// caller's frame time, and seeds its memory from the first input it sees so
// there is no start-up transient.
//
// Constructors panic on non-positive time constants. Those are
// configuration errors and are rejected by config validation long before a
// filter is built.
package filter

import (
	"fmt"
	"math"
)

// The frame time is never allowed to run backwards.
func sanitizeDt(dt float64) float64 {
	if dt < 0 || math.IsNaN(dt) {
		return 0
	}
	return dt
}

func mustBePositive(name string, value float64) {
	if !(value > 0) || math.IsInf(value, 0) {
		panic(fmt.Sprintf("filter: %s must be positive, got %v", name, value))
	}
}

type memory struct {
	initialized bool
	prevInput   float64
	prevOutput  float64
}

func (m *memory) seed(u float64) {
	if !m.initialized {
		m.prevInput = u
		m.prevOutput = u
		m.initialized = true
	}
}

func (m *memory) commit(u, y float64) float64 {
	m.prevInput = u
	m.prevOutput = y
	return y
}

// Lag is a first order low pass, Tustin discretised, with corner C1 rad/s.
type Lag struct {
	C1 float64
	memory
}

func NewLag(c1 float64) Lag {
	mustBePositive("lag C1", c1)
	return Lag{C1: c1}
}

func (f *Lag) Step(u, dt float64) float64 {
	f.seed(u)
	t := sanitizeDt(dt) * f.C1
	ca := t / (t + 2)
	y := (2-t)/(t+2)*f.prevOutput + (u*ca + f.prevInput*ca)
	return f.commit(u, y)
}

func (f *Lag) Output() float64 {
	return f.prevOutput
}

func (f *Lag) Reset() {
	f.memory = memory{}
}

// Washout is the high pass complement of Lag. It passes changes and decays
// any constant input to zero.
type Washout struct {
	C1 float64
	memory
}

func NewWashout(c1 float64) Washout {
	mustBePositive("washout C1", c1)
	return Washout{C1: c1}
}

func (f *Washout) Step(u, dt float64) float64 {
	f.seed(u)
	t := sanitizeDt(dt) * f.C1
	ca := 2 / (t + 2)
	y := (2-t)/(t+2)*f.prevOutput + ca*(u-f.prevInput)
	return f.commit(u, y)
}

func (f *Washout) Reset() {
	f.memory = memory{}
}

// LeadLag implements (C1 s + C2) / (C3 s + C4).
type LeadLag struct {
	C1, C2, C3, C4 float64
	memory
}

func NewLeadLag(c1, c2, c3, c4 float64) LeadLag {
	mustBePositive("lead-lag C3", c3)
	mustBePositive("lead-lag C4", c4)
	return LeadLag{C1: c1, C2: c2, C3: c3, C4: c4}
}

func (f *LeadLag) Step(u, dt float64) float64 {
	f.seed(u)
	dt = sanitizeDt(dt)
	denom := 2*f.C3 + dt*f.C4
	y := (2*f.C1+dt*f.C2)/denom*u + (dt*f.C2-2*f.C1)/denom*f.prevInput + (2*f.C3-dt*f.C4)/denom*f.prevOutput
	return f.commit(u, y)
}

func (f *LeadLag) Reset() {
	f.memory = memory{}
}
