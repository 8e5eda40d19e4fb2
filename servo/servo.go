// Package servo drives a two-servo elevon bench from the computers' surface
// orders, using the Raspberry Pi hardware PWM.
package servo

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bskari/go-fbw/computer"
	"github.com/bskari/go-fbw/logger"
	"github.com/bskari/go-fbw/numeric"
	"github.com/stianeikeland/go-rpio/v4"
)

const Hertz = 50

// The PWM clock runs this many ticks per servo cycle.
const Multiplier = 20000
const usPerCycle = 1e6 / Hertz

var ErrBadAngle = errors.New("servo: bad angle")
var ErrBadPulse = errors.New("servo: bad pulse width")

// Pulse widths the bench servos accept at all.
const (
	MinPulseUs = 400
	MaxPulseUs = 1900
)

type Config struct {
	LeftPin  int `toml:"left_pin"`
	RightPin int `toml:"right_pin"`
	// Pulse width with the horn centred.
	CenterUs    uint32 `toml:"center_us"`
	UsPerDegree uint32 `toml:"us_per_degree"`
	// Horn travel either side of centre, degrees.
	Travel float64 `toml:"travel"`
	// Horn degrees per degree of elevator and aileron order.
	ElevatorMix float64 `toml:"elevator_mix"`
	AileronMix  float64 `toml:"aileron_mix"`
	Reverse     bool    `toml:"reverse"`
}

func DefaultConfig() Config {
	return Config{
		LeftPin:     12,
		RightPin:    13,
		CenterUs:    1430,
		UsPerDegree: 800 / 90,
		Travel:      45,
		ElevatorMix: 1.0,
		AileronMix:  1.0,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.LeftPin == c.RightPin {
		errs = append(errs, fmt.Errorf("servo: left and right share pin %d", c.LeftPin))
	}
	if c.UsPerDegree == 0 {
		errs = append(errs, errors.New("servo: us_per_degree must be positive"))
	}
	if c.Travel <= 0 || c.Travel > 90 {
		errs = append(errs, fmt.Errorf("servo: travel %v outside (0, 90]", c.Travel))
	}
	if uint32(c.Travel)*c.UsPerDegree >= c.CenterUs {
		errs = append(errs, fmt.Errorf("servo: travel %v reaches below 0 us", c.Travel))
	}
	return errors.Join(errs...)
}

// PWM is the part of rpio.Pin the bench drives.
type PWM interface {
	DutyCycle(dutyLen, cycleLen uint32)
}

type Bench struct {
	config      Config
	left, right PWM
	opened      bool
	log         *logger.MultiLogger
}

// Open maps the GPIO memory and sets up both pins for PWM. It needs root on
// a Pi.
func Open(c Config, log *logger.MultiLogger) (*Bench, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if !IsPi() {
		return nil, errors.New("servo: not running on a Raspberry Pi")
	}
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("servo: opening GPIO: %w", err)
	}
	left := rpio.Pin(c.LeftPin)
	right := rpio.Pin(c.RightPin)
	for _, pin := range []rpio.Pin{left, right} {
		pin.Pwm()
		pin.Freq(Hertz * Multiplier)
	}
	b := NewBench(c, left, right, log)
	b.opened = true
	b.Center()
	return b, nil
}

func NewBench(c Config, left, right PWM, log *logger.MultiLogger) *Bench {
	return &Bench{config: c, left: left, right: right, log: log}
}

// Close centres the servos and releases the GPIO mapping.
func (b *Bench) Close() error {
	b.Center()
	if !b.opened {
		return nil
	}
	b.opened = false
	return rpio.Close()
}

func (b *Bench) Center() {
	// Can't fail, centre is always in range
	_ = b.set(b.left, 0)
	_ = b.set(b.right, 0)
}

// Mix returns the left and right horn angles for elevator and aileron
// orders. Positive aileron raises the right elevon.
func (b *Bench) Mix(eta, xi float64) (left, right float64) {
	left = b.config.ElevatorMix*eta - b.config.AileronMix*xi
	right = b.config.ElevatorMix*eta + b.config.AileronMix*xi
	if b.config.Reverse {
		left, right = -left, -right
	}
	t := b.config.Travel
	return numeric.Clamp(left, -t, t), numeric.Clamp(right, -t, t)
}

// Drive moves the servos to the orders of the computers with authority.
func (b *Bench) Drive(o computer.Output) {
	left, right := b.Mix(o.Eta, o.Xi)
	if err := b.set(b.left, left); err != nil {
		b.log.Errorf("left servo: %v", err)
	}
	if err := b.set(b.right, right); err != nil {
		b.log.Errorf("right servo: %v", err)
	}
}

// Sweep steps both horns from one travel stop to the other.
func (b *Bench) Sweep(step float64, each func(angle float64)) error {
	if step <= 0 {
		return ErrBadAngle
	}
	for angle := -b.config.Travel; angle <= b.config.Travel; angle += step {
		if err := b.set(b.left, angle); err != nil {
			return err
		}
		if err := b.set(b.right, angle); err != nil {
			return err
		}
		if each != nil {
			each(angle)
		}
	}
	b.Center()
	return nil
}

// SetPulse puts the same raw pulse width on both pins, for checking the
// outputs with a scope.
func (b *Bench) SetPulse(us uint32) error {
	if us < MinPulseUs || us > MaxPulseUs {
		return fmt.Errorf("%w: %d us", ErrBadPulse, us)
	}
	b.left.DutyCycle(getDutyCycleForUs(us), Multiplier)
	b.right.DutyCycle(getDutyCycleForUs(us), Multiplier)
	return nil
}

func (b *Bench) set(pin PWM, angle float64) error {
	us, err := b.PulseWidth(angle)
	if err != nil {
		return err
	}
	pin.DutyCycle(getDutyCycleForUs(us), Multiplier)
	return nil
}

// PulseWidth returns the pulse length for a horn angle relative to centre.
func (b *Bench) PulseWidth(angle float64) (uint32, error) {
	if angle < -b.config.Travel || angle > b.config.Travel {
		return 0, fmt.Errorf("%w: %v", ErrBadAngle, angle)
	}
	us := float64(b.config.CenterUs) + angle*float64(b.config.UsPerDegree)
	return uint32(us + 0.5), nil
}

func getDutyCycleForUs(us uint32) uint32 {
	return us * Multiplier / usPerCycle
}

func IsPi() bool {
	cpuinfo, err := os.ReadFile("/proc/cpuinfo")
	if err != nil {
		return false
	}
	return strings.Contains(string(cpuinfo), "ARM") || strings.Contains(string(cpuinfo), "Raspberry")
}
