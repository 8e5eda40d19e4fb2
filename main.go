package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bskari/go-fbw/config"
	"github.com/bskari/go-fbw/logger"
	"github.com/bskari/go-fbw/mode"
	"github.com/bskari/go-fbw/scenario"
	"github.com/bskari/go-fbw/servo"
	"github.com/bskari/go-fbw/telemetry"
	"github.com/bskari/go-fbw/trace"
)

type options struct {
	scenario  string
	trace     string
	dashboard bool
	servo     bool
	gps       bool
}

func main() {
	configPath := flag.String("config", "conf.toml", "Configuration file")
	scenarioName := flag.String("scenario", "", "Scenario to run, defaults to bench.scenario")
	replay := flag.String("replay", "", "Comma separated scenarios to run side by side")
	tracePath := flag.String("trace", "", "Record the run to this trace file")
	plotPath := flag.String("plot", "", "Render the trace from -trace (or trace.path) to this image and exit")
	dashboardPtr := flag.Bool("dashboard", false, "Show a live view of laws and orders")
	servoPtr := flag.Bool("servo", false, "Drive the bench servos from the surface orders")
	sweepPtr := flag.Bool("sweep", false, "Sweep the bench servos and exit")
	pulsePtr := flag.Bool("pulse", false, "Read raw pulse widths from stdin for the bench servos")
	gpsPtr := flag.Bool("gps", false, "Feed GPS ground speed and track to the autopilot")
	dumpPtr := flag.Bool("dump", false, "Show the GPS fix and exit")
	listPtr := flag.Bool("list", false, "List the scenarios")
	flag.Parse()

	c, err := config.LoadFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to load configuration: %v\n", err)
		os.Exit(1)
	}
	// termbox owns the terminal
	if *dashboardPtr || *dumpPtr {
		c.Logger.Console = false
	}
	if err := logger.Configure(c.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "Unable to configure logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.Get()
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch {
	case *listPtr:
		err = listScenarios()
	case *plotPath != "":
		path := *tracePath
		if path == "" {
			path = c.Trace.Path
		}
		err = plotTrace(c, path, *plotPath)
	case *sweepPtr:
		err = sweepServos(c, log)
	case *pulsePtr:
		err = manualPulses(c, log)
	case *dumpPtr:
		err = dumpGPS(ctx, c, log)
	case *replay != "":
		err = replayScenarios(ctx, c, strings.Split(*replay, ","), log)
	default:
		err = runScenario(ctx, c, options{
			scenario:  *scenarioName,
			trace:     *tracePath,
			dashboard: *dashboardPtr,
			servo:     *servoPtr,
			gps:       *gpsPtr,
		}, log)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Critical(err.Error())
		fmt.Fprintln(os.Stderr, err)
		stop()
		log.Close()
		os.Exit(1)
	}
}

func listScenarios() error {
	for _, name := range scenario.Names() {
		s, err := scenario.Get(name)
		if err != nil {
			return err
		}
		fmt.Printf("%-10s %5.1f s  %s\n", name, s.Duration(), s.Description)
	}
	return nil
}

func runScenario(ctx context.Context, c config.Configuration, o options, log *logger.MultiLogger) (err error) {
	name := o.scenario
	if name == "" {
		name = c.Bench.Scenario
	}
	s, err := scenario.Get(name)
	if err != nil {
		return err
	}
	r, err := scenario.NewRunner(c.Elac, c.Sec, c.Autopilot, log)
	if err != nil {
		return err
	}

	var hooks []func(*scenario.Step) error
	if o.trace != "" {
		recorder, createErr := trace.Create(o.trace, c.Trace.Every, trace.Header{Scenario: name, Dt: s.Dt})
		if createErr != nil {
			return createErr
		}
		defer func() {
			if closeErr := recorder.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}()
		hooks = append(hooks, func(step *scenario.Step) error {
			return recorder.Record(step.Frame, step.Output)
		})
	}
	if o.servo {
		bench, err := servo.Open(c.Servo, log)
		if err != nil {
			return err
		}
		defer bench.Close()
		hooks = append(hooks, func(step *scenario.Step) error {
			bench.Drive(step.Output)
			return nil
		})
	}
	if o.gps {
		gps, err := telemetry.Open(c.Telemetry, log)
		if err != nil {
			return err
		}
		defer gps.Close()
		go func() {
			if err := gps.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Errorf("GPS stopped: %v", err)
			}
		}()
		r.GPS = gps
	}
	if o.dashboard {
		d, err := newDashboard(c.Bench.DashboardPeriod)
		if err != nil {
			return err
		}
		defer d.Close()
		hooks = append(hooks, d.Update)
	}
	if c.Bench.RealTime {
		hooks = append(hooks, pacer())
	}

	var totals summary
	hooks = append(hooks, totals.Add)
	err = r.Run(ctx, s, func(step *scenario.Step) error {
		for _, hook := range hooks {
			if err := hook(step); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !o.dashboard {
		fmt.Println(totals.String(name))
	}
	return nil
}

// replayScenarios runs each scenario on its own set of computers.
func replayScenarios(ctx context.Context, c config.Configuration, names []string, log *logger.MultiLogger) error {
	scenarios := make([]scenario.Scenario, len(names))
	for i, name := range names {
		s, err := scenario.Get(strings.TrimSpace(name))
		if err != nil {
			return err
		}
		scenarios[i] = s
	}

	summaries := make([]summary, len(scenarios))
	g, ctx := errgroup.WithContext(ctx)
	for i, s := range scenarios {
		g.Go(func() error {
			r, err := scenario.NewRunner(c.Elac, c.Sec, c.Autopilot, log)
			if err != nil {
				return err
			}
			return r.Run(ctx, s, summaries[i].Add)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i, s := range scenarios {
		fmt.Println(summaries[i].String(s.Name))
	}
	return nil
}

// pacer holds each frame until its time on the wall clock.
func pacer() func(*scenario.Step) error {
	start := time.Now()
	return func(step *scenario.Step) error {
		due := start.Add(time.Duration(step.Frame.Time.SimulationTime * float64(time.Second)))
		if wait := time.Until(due); wait > 0 {
			time.Sleep(wait)
		}
		return nil
	}
}

type summary struct {
	frames     int
	duration   float64
	worstPitch mode.PitchLaw
	pitchLaw   mode.PitchLaw
	lateralLaw mode.LateralLaw
	maxEta     float64
	maxXi      float64
	authority  string
}

func (s *summary) Add(step *scenario.Step) error {
	o := step.Output
	s.worstPitch = s.worstPitch.Worst(o.PitchLaw)
	s.frames++
	s.duration = step.Frame.Time.SimulationTime
	s.pitchLaw, s.lateralLaw = o.PitchLaw, o.LateralLaw
	s.maxEta = math.Max(s.maxEta, math.Abs(o.Eta))
	s.maxXi = math.Max(s.maxXi, math.Abs(o.Xi))
	s.authority = fmt.Sprintf("%v/%v", o.PitchAuthority, o.RollAuthority)
	return nil
}

func (s *summary) String(name string) string {
	return fmt.Sprintf("%-10s %4d frames %5.1f s  pitch %v (worst %v)  lateral %v  authority %s  |eta| %.1f  |xi| %.1f",
		name, s.frames, s.duration, s.pitchLaw, s.worstPitch, s.lateralLaw, s.authority, s.maxEta, s.maxXi)
}

func plotTrace(c config.Configuration, path, out string) error {
	reader, err := trace.Open(path)
	if err != nil {
		return err
	}
	defer reader.Close()
	records, err := reader.ReadAll()
	if err != nil {
		return err
	}
	return trace.Plot(records, reader.Header.Scenario, c.Trace.Channels, c.Trace, out)
}
