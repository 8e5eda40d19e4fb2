package monitor

import (
	"math"
)

// DelayLength is the longest delay, in frames, a DelayLine supports.
const DelayLength = 100

// DelayLine is a pure N-frame delay over a fixed buffer. The newest sample
// sits at the end of the buffer and every Push shifts the window left.
type DelayLine[T any] struct {
	Fill T

	initialized bool
	buffer      [DelayLength]T
}

func NewDelayLine[T any](fill T) DelayLine[T] {
	d := DelayLine[T]{Fill: fill}
	d.Reset()
	return d
}

// Reset fills the whole history with the fill value.
func (d *DelayLine[T]) Reset() {
	for i := range d.buffer {
		d.buffer[i] = d.Fill
	}
	d.initialized = true
}

// Delayed returns the value pushed steps frames ago. Fewer than one frame of
// delay returns current, more than DelayLength frames is capped.
func (d *DelayLine[T]) Delayed(current T, steps float64) T {
	if !d.initialized {
		d.Reset()
	}
	if !(steps >= 1) {
		return current
	}
	n := DelayLength
	if steps <= DelayLength {
		n = int(math.Floor(steps))
	}
	return d.buffer[DelayLength-n]
}

func (d *DelayLine[T]) Push(u T) {
	if !d.initialized {
		d.Reset()
	}
	copy(d.buffer[:], d.buffer[1:])
	d.buffer[DelayLength-1] = u
}

// ChangeDetector reports whether a condition differs from its own value a
// fixed time ago. The history is cleared whenever the condition is false,
// so only a condition that became true within the window reports a change.
type ChangeDetector struct {
	Delay float64

	line DelayLine[bool]
}

func NewChangeDetector(delay float64) ChangeDetector {
	return ChangeDetector{Delay: delay, line: NewDelayLine(false)}
}

func (c *ChangeDetector) Step(u bool, dt float64) bool {
	if !u {
		c.line.Reset()
	}
	steps := 0.0
	if dt > 0 {
		steps = c.Delay / dt
	}
	delayed := c.line.Delayed(u, steps)
	c.line.Push(u)
	return u != delayed
}
