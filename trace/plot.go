package trace

import (
	"fmt"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

type channel struct {
	label string
	value func(r *Record) float64
}

var channels = map[string]channel{
	"theta":       {"θ IR1 (°)", func(r *Record) float64 { return r.Frame.Sensors.IR[0].Theta.Value(0) }},
	"phi":         {"φ IR1 (°)", func(r *Record) float64 { return r.Frame.Sensors.IR[0].Phi.Value(0) }},
	"q":           {"q IR1 (°/s)", func(r *Record) float64 { return r.Frame.Sensors.IR[0].Q.Value(0) }},
	"nz":          {"nz IR1 (g)", func(r *Record) float64 { return r.Frame.Sensors.IR[0].Nz.Value(1) }},
	"vcas":        {"Vcas ADR1 (kt)", func(r *Record) float64 { return r.Frame.Sensors.ADR[0].Vcas.Value(0) }},
	"alpha":       {"α ADR1 (°)", func(r *Record) float64 { return r.Frame.Sensors.ADR[0].Alpha.Value(0) }},
	"ra":          {"radio height (ft)", func(r *Record) float64 { return r.Frame.Sensors.RadioHeight }},
	"capt_pitch":  {"capt pitch stick", func(r *Record) float64 { return r.Frame.Cockpit.CaptPitch }},
	"capt_roll":   {"capt roll stick", func(r *Record) float64 { return r.Frame.Cockpit.CaptRoll }},
	"eta":         {"η (°)", func(r *Record) float64 { return r.Orders.Eta }},
	"eta_trim":    {"η trim (°)", func(r *Record) float64 { return r.Orders.EtaTrim }},
	"xi":          {"ξ (°)", func(r *Record) float64 { return r.Orders.Xi }},
	"zeta":        {"ζ (°)", func(r *Record) float64 { return r.Orders.Zeta }},
	"pitch_law":   {"pitch law", func(r *Record) float64 { return float64(r.Orders.PitchLaw) }},
	"lateral_law": {"lateral law", func(r *Record) float64 { return float64(r.Orders.LateralLaw) }},
	"spoiler_l":   {"left spoilers max (°)", func(r *Record) float64 { return maxOf(r.Orders.LeftSpoilers) }},
	"spoiler_r":   {"right spoilers max (°)", func(r *Record) float64 { return maxOf(r.Orders.RightSpoilers) }},
}

func maxOf(v [5]float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		m = max(m, x)
	}
	return m
}

// Channels lists the names Plot accepts.
func Channels() []string {
	names := make([]string, 0, len(channels))
	for name := range channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Series returns one channel against simulation time.
func Series(records []Record, name string) (plotter.XYs, error) {
	c, ok := channels[name]
	if !ok {
		return nil, fmt.Errorf("trace: unknown channel %q", name)
	}
	xys := make(plotter.XYs, len(records))
	for i := range records {
		xys[i].X = records[i].Frame.Time.SimulationTime
		xys[i].Y = c.value(&records[i])
	}
	return xys, nil
}

// Plot draws the named channels on one set of axes. The format follows the
// extension of path (.png, .svg, .pdf).
func Plot(records []Record, title string, names []string, c Config, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (s)"
	p.Legend.Top = true

	for i, name := range names {
		xys, err := Series(records, name)
		if err != nil {
			return err
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("trace: %s: %w", name, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(channels[name].label, line)
	}
	p.Add(plotter.NewGrid())

	if err := p.Save(vg.Length(c.Width)*vg.Inch, vg.Length(c.Height)*vg.Inch, path); err != nil {
		return fmt.Errorf("trace: saving %s: %w", path, err)
	}
	return nil
}
