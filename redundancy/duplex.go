package redundancy

import (
	"math"

	"github.com/bskari/go-fbw/arinc"
	"github.com/bskari/go-fbw/monitor"
)

// DuplexConfig is the two source version of TriplexConfig. With no third
// opinion a confirmed disagreement condemns both sources.
type DuplexConfig struct {
	Threshold   float64 `toml:"threshold"`
	ConfirmTime float64 `toml:"confirm_time_s"`
	Default     float64 `toml:"default"`
}

type Duplex struct {
	DuplexConfig

	disagree monitor.ConfirmNode
}

func NewDuplex(c DuplexConfig) Duplex {
	return Duplex{DuplexConfig: c, disagree: monitor.NewConfirmNode(true, c.ConfirmTime)}
}

type DuplexResult struct {
	Value    float64
	Suspect  [2]bool
	Disagree bool
	Faults   int
}

// Monitor returns the per source failure flags and whether a disagreement
// between two otherwise healthy sources has been confirmed.
func (d *Duplex) Monitor(words [2]arinc.Word, dt float64) (suspect [2]bool, disagree bool) {
	bothValid := words[0].IsNormal() && words[1].IsNormal()
	far := math.Abs(float64(words[0].Data-words[1].Data)) > d.Threshold
	disagree = d.disagree.Step(bothValid && far, dt)
	for i, w := range words {
		suspect[i] = !w.IsNormal() || disagree
	}
	return suspect, disagree
}

func (d *Duplex) Select(words [2]arinc.Word, suspect [2]bool) float64 {
	return selectValue(words[:], suspect[:], d.Default)
}

func (d *Duplex) Step(words [2]arinc.Word, dt float64) DuplexResult {
	suspect, disagree := d.Monitor(words, dt)
	return DuplexResult{
		Value:    d.Select(words, suspect),
		Suspect:  suspect,
		Disagree: disagree,
		Faults:   CountFaults(suspect[:]),
	}
}

// DuplexGroup is the two source TriplexGroup.
type DuplexGroup struct {
	Channels []Duplex
}

func NewDuplexGroup(configs ...DuplexConfig) DuplexGroup {
	g := DuplexGroup{Channels: make([]Duplex, len(configs))}
	for i, c := range configs {
		g.Channels[i] = NewDuplex(c)
	}
	return g
}

type DuplexGroupResult struct {
	Values   []float64
	Suspect  [2]bool
	Disagree bool
	Faults   int
}

func (g *DuplexGroup) Step(words [][2]arinc.Word, dt float64) DuplexGroupResult {
	var result DuplexGroupResult
	for i := range g.Channels {
		s, disagree := g.Channels[i].Monitor(words[i], dt)
		result.Disagree = result.Disagree || disagree
		for j := range s {
			result.Suspect[j] = result.Suspect[j] || s[j]
		}
	}
	result.Values = make([]float64, len(g.Channels))
	for i := range g.Channels {
		result.Values[i] = g.Channels[i].Select(words[i], result.Suspect)
	}
	result.Faults = CountFaults(result.Suspect[:])
	return result
}
