package main

import (
	"container/list"
	"fmt"
	"time"

	"github.com/nsf/termbox-go"

	"github.com/bskari/go-fbw/computer"
	"github.com/bskari/go-fbw/scenario"
)

const dashboardMessageCount = 5

type StringWriter struct {
	Line int
}

func (writer *StringWriter) WriteLine(str string) {
	for x := 0; x < len(str); x++ {
		termbox.SetCell(x, writer.Line, rune(str[x]), termbox.ColorWhite, termbox.ColorBlack)
	}
	writer.Line++
}

func (writer *StringWriter) IndentLine(str string) {
	for x := 0; x < len(str); x++ {
		termbox.SetCell(x+3, writer.Line, rune(str[x]), termbox.ColorWhite, termbox.ColorBlack)
	}
	writer.Line++
}

// dashboard draws the laws and orders of a running scenario. Any key stops
// the run.
type dashboard struct {
	period   time.Duration
	drawn    time.Time
	events   chan termbox.Event
	messages *list.List

	started  bool
	segment  string
	previous computer.Output
}

func newDashboard(periodS float64) (*dashboard, error) {
	if err := termbox.Init(); err != nil {
		return nil, err
	}
	d := &dashboard{
		period:   time.Duration(periodS * float64(time.Second)),
		events:   make(chan termbox.Event),
		messages: list.New(),
	}
	go func() {
		for {
			d.events <- termbox.PollEvent()
		}
	}()
	return d, nil
}

func (d *dashboard) Close() {
	termbox.Close()
}

func (d *dashboard) logDashboard(t float64, message string) {
	d.messages.PushFront(fmt.Sprintf("%7.3f %s", t, message))
	if d.messages.Len() > dashboardMessageCount {
		d.messages.Remove(d.messages.Back())
	}
}

// transitions notes segment, law and authority changes as they happen,
// whether or not the frame gets drawn.
func (d *dashboard) transitions(step *scenario.Step) {
	t := step.Frame.Time.SimulationTime
	o := step.Output
	if step.Segment != d.segment {
		d.logDashboard(t, "segment "+step.Segment)
		d.segment = step.Segment
	}
	if d.started {
		p := d.previous
		if o.PitchLaw != p.PitchLaw {
			d.logDashboard(t, fmt.Sprintf("pitch law %v -> %v", p.PitchLaw, o.PitchLaw))
		}
		if o.LateralLaw != p.LateralLaw {
			d.logDashboard(t, fmt.Sprintf("lateral law %v -> %v", p.LateralLaw, o.LateralLaw))
		}
		if o.PitchAuthority != p.PitchAuthority {
			d.logDashboard(t, fmt.Sprintf("pitch authority %v -> %v", p.PitchAuthority, o.PitchAuthority))
		}
		if o.RollAuthority != p.RollAuthority {
			d.logDashboard(t, fmt.Sprintf("roll authority %v -> %v", p.RollAuthority, o.RollAuthority))
		}
	}
	d.started = true
	d.previous = o
}

func (d *dashboard) Update(step *scenario.Step) error {
	select {
	case event := <-d.events:
		if event.Type == termbox.EventKey {
			return scenario.ErrStop
		}
	default:
	}

	d.transitions(step)
	// Only update this often
	if time.Since(d.drawn) < d.period {
		return nil
	}
	d.drawn = time.Now()
	d.draw(step)
	return termbox.Flush()
}

func (d *dashboard) draw(step *scenario.Step) {
	o := step.Output
	writer := &StringWriter{Line: 0}
	termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)

	writer.WriteLine("=== Scenario ===")
	writer.IndentLine(fmt.Sprintf("%s  t=%.2f s  frame %d", step.Segment, step.Frame.Time.SimulationTime, step.Index))

	writer.WriteLine("=== Laws ===")
	writer.IndentLine(fmt.Sprintf("Pitch:%v (%v)  Lateral:%v (%v)", o.PitchLaw, o.PitchAuthority, o.LateralLaw, o.RollAuthority))

	writer.WriteLine("=== ELAC ===")
	for i, e := range o.Elac {
		writer.IndentLine(fmt.Sprintf("%d pitch:%-5v roll:%-5v cap:%v/%v faults adr:%d ir:%d ground:%v",
			i+1, e.Pitch.Engaged, e.Roll.Engaged, e.PitchCapability, e.LateralCapability, e.Faults.ADR, e.Faults.IR, e.OnGround))
	}

	writer.WriteLine("=== SEC ===")
	for i, s := range o.Sec {
		writer.IndentLine(fmt.Sprintf("%d pitch:%-5v cap:%v speed brake:%.1f ground spoilers:%v abnormal:%v",
			i+1, s.Pitch.Engaged, s.PitchCapability, s.SpeedBrake, s.GroundSpoilersOut, s.Abnormal))
	}

	writer.WriteLine("=== Orders ===")
	writer.IndentLine(fmt.Sprintf("Eta:%0.1f Trim:%0.1f Xi:%0.1f Zeta:%0.1f", o.Eta, o.EtaTrim, o.Xi, o.Zeta))
	writer.IndentLine(fmt.Sprintf("Spoilers L:%v", o.LeftSpoilers))
	writer.IndentLine(fmt.Sprintf("Spoilers R:%v", o.RightSpoilers))

	writer.WriteLine("=== Autopilot ===")
	if step.Autopilot.APOn {
		command := step.Autopilot.Autopilot
		writer.IndentLine(fmt.Sprintf("Theta:%0.1f Phi:%0.1f", command.Theta, command.Phi))
	} else {
		writer.IndentLine("(off)")
	}

	writer.WriteLine("=== Messages ===")
	for e := d.messages.Front(); e != nil; e = e.Next() {
		writer.IndentLine(e.Value.(string))
	}
}
