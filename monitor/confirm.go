// Package monitor holds the boolean supervision blocks: debouncing,
// hysteresis, mid-value voting, edge detection and sample-and-hold.
package monitor

import (
	"math"
)

// ConfirmNode debounces a condition. When Rising is true a false→true
// change must persist for Dwell seconds before the output follows, while a
// true→false change is passed at once. With Rising false the roles swap.
type ConfirmNode struct {
	Rising bool
	Dwell  float64

	timer  float64
	output bool
}

func NewConfirmNode(rising bool, dwell float64) ConfirmNode {
	return ConfirmNode{Rising: rising, Dwell: dwell}
}

func (c *ConfirmNode) Step(u bool, dt float64) bool {
	if u == c.Rising {
		if dt > 0 && !math.IsNaN(dt) {
			c.timer += dt
		}
		if c.timer >= c.Dwell {
			c.output = u
		}
	} else {
		c.timer = 0
		c.output = u
	}
	return c.output
}

func (c *ConfirmNode) Output() bool {
	return c.output
}

func (c *ConfirmNode) Reset() {
	c.timer = 0
	c.output = false
}

// Hysteresis is a Schmitt trigger. The output turns on at or above High and
// stays on while the value is above Low.
type Hysteresis struct {
	High, Low float64

	output bool
}

func NewHysteresis(high, low float64) Hysteresis {
	return Hysteresis{High: high, Low: low}
}

func (h *Hysteresis) Step(value float64) bool {
	h.output = (!h.output && value >= h.High) || (h.output && value > h.Low)
	return h.output
}

func (h *Hysteresis) Output() bool {
	return h.output
}
