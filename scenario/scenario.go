// Package scenario scripts bench runs of the flight control computers: a
// scenario is an initial frame and a list of timed segments, each of which
// edits the frame and the autopilot input as it plays.
package scenario

import (
	"context"
	"errors"
	"fmt"

	"github.com/bskari/go-fbw/autopilot"
	"github.com/bskari/go-fbw/computer"
	"github.com/bskari/go-fbw/logger"
)

// Segment edits the running frame and autopilot input. t is the time since
// the segment started. Edits persist into later segments.
type Segment struct {
	Name     string
	Duration float64
	Apply    func(t float64, f *computer.Frame, in *autopilot.Input)
}

type Scenario struct {
	Name        string
	Description string
	Dt          float64
	Frame       computer.Frame
	Autopilot   autopilot.Input
	Segments    []Segment
}

func (s *Scenario) Duration() float64 {
	total := 0.0
	for _, seg := range s.Segments {
		total += seg.Duration
	}
	return total
}

// Schedule plays the segments of a scenario in order.
type Schedule struct {
	segments []Segment
	index    int
	start    float64
}

func NewSchedule(segments []Segment) *Schedule {
	return &Schedule{segments: segments}
}

// Segment returns the current segment and the time since it started.
func (s *Schedule) Segment(t float64) (*Segment, float64, bool) {
	if s.Done() {
		return nil, 0, false
	}
	return &s.segments[s.index], t - s.start, true
}

func (s *Schedule) Next() {
	if s.Done() {
		return
	}
	s.start += s.segments[s.index].Duration
	s.index++
}

// Reached moves past every segment that has finished by time t. It reports
// whether the segment changed.
func (s *Schedule) Reached(t float64) bool {
	changed := false
	// Half a microsecond of slack so that frame clocks built by adding dt
	// land in the segment they were meant for.
	const slack = 5e-7
	for !s.Done() && t > s.start+s.segments[s.index].Duration+slack {
		s.Next()
		changed = true
	}
	return changed
}

func (s *Schedule) Done() bool {
	return s.index >= len(s.segments)
}

// Step is everything that happened in one frame.
type Step struct {
	Index     int
	Segment   string
	Frame     computer.Frame
	Input     autopilot.Input
	Autopilot autopilot.Output
	Output    computer.Output
}

// GroundSpeedSource supplies measured ground speed and track.
type GroundSpeedSource interface {
	Apply(in *autopilot.Input) bool
}

type Runner struct {
	System    *computer.System
	Autopilot *autopilot.Autopilot
	GPS       GroundSpeedSource
	Log       *logger.MultiLogger
}

func NewRunner(elac computer.ElacConfig, sec computer.SecConfig, ap autopilot.Config, log *logger.MultiLogger) (*Runner, error) {
	system, err := computer.NewSystem(elac, sec, log)
	if err != nil {
		return nil, err
	}
	a, err := autopilot.New(ap)
	if err != nil {
		return nil, err
	}
	return &Runner{System: system, Autopilot: a, Log: log}, nil
}

// ErrStop ends a run early without an error.
var ErrStop = errors.New("scenario: stop")

// Run resets the computers and plays the scenario, calling each after every
// frame.
func (r *Runner) Run(ctx context.Context, s Scenario, each func(*Step) error) error {
	if !(s.Dt > 0) {
		return fmt.Errorf("scenario %s: bad dt %v", s.Name, s.Dt)
	}
	r.System.Reset()
	r.Autopilot.Reset()
	r.Log.Infof("Starting scenario %s (%.1f s)", s.Name, s.Duration())

	schedule := NewSchedule(s.Segments)
	f, in := s.Frame, s.Autopilot
	onGround := true
	t := 0.0
	current := ""
	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		t += s.Dt
		schedule.Reached(t)
		seg, since, ok := schedule.Segment(t)
		if !ok {
			break
		}
		if seg.Name != current {
			r.Log.Infof("%s: segment %s at %.2f s", s.Name, seg.Name, t)
			current = seg.Name
		}
		if seg.Apply != nil {
			seg.Apply(since, &f, &in)
		}
		f.Time = computer.Time{Dt: s.Dt, SimulationTime: t}

		in.Dt = s.Dt
		fromFrame(&f, &in, onGround)
		if r.GPS != nil {
			r.GPS.Apply(&in)
		}
		apOut := r.Autopilot.Step(in)
		f.Autopilot = computer.AutopilotOrders{
			Engaged:      apOut.APOn,
			ThetaCommand: apOut.Autopilot.Theta,
			PhiCommand:   apOut.Autopilot.Phi,
		}

		out := r.System.Step(f)
		onGround = out.Elac[0].OnGround
		step := Step{
			Index:     i,
			Segment:   seg.Name,
			Frame:     f,
			Input:     in,
			Autopilot: apOut,
			Output:    out,
		}
		if each != nil {
			if err := each(&step); err != nil {
				if errors.Is(err, ErrStop) {
					return nil
				}
				return err
			}
		}
	}
	r.Log.Infof("Finished scenario %s", s.Name)
	return nil
}

// fromFrame fills the autopilot's measured inputs from the first valid
// sources of the frame.
func fromFrame(f *computer.Frame, in *autopilot.Input, onGround bool) {
	ir, adr := firstIR(f), firstADR(f)
	in.Theta = ir.Theta.Value(in.Theta)
	in.Phi = ir.Phi.Value(in.Phi)
	in.R = ir.R.Value(in.R)
	in.Vias = adr.Vcas.Value(in.Vias)
	in.Vtas = adr.Vtas.Value(in.Vtas)
	in.H = adr.Altitude.Value(in.H)
	in.HInd = in.H
	in.RadioHeight = f.Sensors.RadioHeight
	in.VLS = f.Envelope.Vls
	in.VMAX = f.Envelope.HighSpeedProtLow
	in.OnGround = onGround
}

func firstIR(f *computer.Frame) computer.IRBus {
	for _, ir := range f.Sensors.IR {
		if ir.Theta.IsNormal() {
			return ir
		}
	}
	return f.Sensors.IR[0]
}

func firstADR(f *computer.Frame) computer.ADRBus {
	for _, adr := range f.Sensors.ADR {
		if adr.Vcas.IsNormal() {
			return adr
		}
	}
	return f.Sensors.ADR[0]
}
