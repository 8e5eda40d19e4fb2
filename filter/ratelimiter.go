package filter

import (
	"math"
)

// RateLimiter bounds how fast its output may move. Up and Down are rates
// per second; their signs are ignored.
type RateLimiter struct {
	Up, Down float64
	Initial  float64

	initialized bool
	output      float64
}

func NewRateLimiter(up, down, initial float64) RateLimiter {
	return RateLimiter{Up: up, Down: down, Initial: initial}
}

func (r *RateLimiter) Step(u, dt float64) float64 {
	return r.StepWithRates(u, r.Up, r.Down, dt)
}

// StepWithRates is Step with rates that change from frame to frame, as the
// trim rate does between clean and flap configurations.
func (r *RateLimiter) StepWithRates(u, up, down, dt float64) float64 {
	if !r.initialized {
		r.output = r.Initial
		r.initialized = true
	}
	dt = sanitizeDt(dt)
	delta := math.Min(u-r.output, math.Abs(up)*dt)
	delta = math.Max(delta, -math.Abs(down)*dt)
	r.output += delta
	return r.output
}

func (r *RateLimiter) Output() float64 {
	if !r.initialized {
		return r.Initial
	}
	return r.output
}

// Reset forgets the memory. The next Step starts again from Initial.
func (r *RateLimiter) Reset() {
	r.initialized = false
	r.output = 0
}

// Set forces the output, e.g. to synchronise with a surface position when
// a law takes over.
func (r *RateLimiter) Set(value float64) {
	r.initialized = true
	r.output = value
}
