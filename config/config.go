// Package config loads conf.toml. Every section starts from the calibrated
// defaults, so a file only needs the keys it changes.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/bskari/go-fbw/autopilot"
	"github.com/bskari/go-fbw/computer"
	"github.com/bskari/go-fbw/logger"
	"github.com/bskari/go-fbw/scenario"
	"github.com/bskari/go-fbw/servo"
	"github.com/bskari/go-fbw/telemetry"
	"github.com/bskari/go-fbw/trace"
)

var ErrUndecoded = errors.New("config: unknown keys")

type BenchConfig struct {
	// Scenario played when -scenario is not given.
	Scenario string `toml:"scenario"`
	// Pace frames against the wall clock, as the servo bench needs.
	RealTime        bool    `toml:"real_time"`
	DashboardPeriod float64 `toml:"dashboard_period_s"`
}

type Configuration struct {
	Logger    logger.Config       `toml:"logger"`
	Bench     BenchConfig         `toml:"bench"`
	Elac      computer.ElacConfig `toml:"elac"`
	Sec       computer.SecConfig  `toml:"sec"`
	Autopilot autopilot.Config    `toml:"autopilot"`
	Servo     servo.Config        `toml:"servo"`
	Telemetry telemetry.Config    `toml:"telemetry"`
	Trace     trace.Config        `toml:"trace"`
}

func Default() Configuration {
	return Configuration{
		Logger: logger.DefaultConfig(),
		Bench: BenchConfig{
			Scenario:        "ground",
			DashboardPeriod: 0.5,
		},
		Elac:      computer.DefaultElacConfig(),
		Sec:       computer.DefaultSecConfig(),
		Autopilot: autopilot.DefaultConfig(),
		Servo:     servo.DefaultConfig(),
		Telemetry: telemetry.DefaultConfig(),
		Trace:     trace.DefaultConfig(),
	}
}

// LoadConfiguration overlays a TOML document on the defaults. Keys that
// match no setting are an error, since a misspelt key would otherwise
// silently keep its default.
func LoadConfiguration(r io.Reader) (Configuration, error) {
	c := Default()
	md, err := toml.DecodeReader(r, &c)
	if err != nil {
		return c, fmt.Errorf("config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return c, fmt.Errorf("%w: %s", ErrUndecoded, strings.Join(keys, ", "))
	}
	return c, c.Validate()
}

func LoadFile(path string) (Configuration, error) {
	file, err := os.Open(path)
	if err != nil {
		return Default(), fmt.Errorf("config: %w", err)
	}
	defer file.Close()
	c, err := LoadConfiguration(file)
	if err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func (c Configuration) Validate() error {
	errs := []error{
		c.Logger.Validate(),
		c.Servo.Validate(),
		c.Telemetry.Validate(),
		c.Trace.Validate(),
	}
	// The laws and the autopilot fit their schedules when built.
	if _, err := computer.NewSystem(c.Elac, c.Sec, nil); err != nil {
		errs = append(errs, err)
	}
	if _, err := autopilot.New(c.Autopilot); err != nil {
		errs = append(errs, err)
	}
	if _, err := scenario.Get(c.Bench.Scenario); err != nil {
		errs = append(errs, err)
	}
	if !(c.Bench.DashboardPeriod > 0) {
		errs = append(errs, fmt.Errorf("config: bad dashboard period %v", c.Bench.DashboardPeriod))
	}
	return errors.Join(errs...)
}
