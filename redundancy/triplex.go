// Package redundancy cross-checks duplicated and triplicated sensor sources
// and reduces them to one value per parameter, counting the sources it no
// longer trusts.
package redundancy

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/bskari/go-fbw/arinc"
	"github.com/bskari/go-fbw/monitor"
)

type TriplexConfig struct {
	// Largest difference from the median before a source is suspect.
	Threshold float64 `toml:"threshold"`
	// How long the disagreement must last.
	ConfirmTime float64 `toml:"confirm_time_s"`
	// Value used when no source is left.
	Default float64 `toml:"default"`
}

// Triplex monitors one parameter from three sources.
type Triplex struct {
	TriplexConfig

	disagree [3]monitor.ConfirmNode
}

func NewTriplex(c TriplexConfig) Triplex {
	t := Triplex{TriplexConfig: c}
	for i := range t.disagree {
		t.disagree[i] = monitor.NewConfirmNode(true, c.ConfirmTime)
	}
	return t
}

type TriplexResult struct {
	Value   float64
	Suspect [3]bool
	Faults  int
}

// Monitor flags each source that is not in normal operation or whose
// disagreement with the other valid sources is confirmed. Three valid
// sources are compared with their median. Two are compared with each other
// and, with no third opinion, a confirmed split condemns both. A single
// valid source has nothing to disagree with.
func (t *Triplex) Monitor(words [3]arinc.Word, dt float64) [3]bool {
	valid := make([]int, 0, len(words))
	for i, w := range words {
		if w.IsNormal() {
			valid = append(valid, i)
		}
	}

	var far [3]bool
	switch len(valid) {
	case 3:
		median := monitor.Vote(float64(words[0].Data), float64(words[1].Data), float64(words[2].Data))
		for i, w := range words {
			far[i] = math.Abs(float64(w.Data)-median) > t.Threshold
		}
	case 2:
		a, b := valid[0], valid[1]
		if math.Abs(float64(words[a].Data-words[b].Data)) > t.Threshold {
			far[a], far[b] = true, true
		}
	}

	var suspect [3]bool
	for i, w := range words {
		confirmed := t.disagree[i].Step(far[i], dt)
		suspect[i] = !w.IsNormal() || confirmed
	}
	return suspect
}

// Select averages the sources not marked suspect.
func (t *Triplex) Select(words [3]arinc.Word, suspect [3]bool) float64 {
	return selectValue(words[:], suspect[:], t.Default)
}

func (t *Triplex) Step(words [3]arinc.Word, dt float64) TriplexResult {
	suspect := t.Monitor(words, dt)
	return TriplexResult{
		Value:   t.Select(words, suspect),
		Suspect: suspect,
		Faults:  CountFaults(suspect[:]),
	}
}

func (t *Triplex) Reset() {
	for i := range t.disagree {
		t.disagree[i].Reset()
	}
}

// TriplexGroup monitors several parameters that come from the same three
// sources, such as the outputs of three air data computers. A source
// suspect on any parameter is excluded from all of them.
type TriplexGroup struct {
	Channels []Triplex
}

func NewTriplexGroup(configs ...TriplexConfig) TriplexGroup {
	g := TriplexGroup{Channels: make([]Triplex, len(configs))}
	for i, c := range configs {
		g.Channels[i] = NewTriplex(c)
	}
	return g
}

type GroupResult struct {
	Values  []float64
	Suspect [3]bool
	Faults  int
}

// Step takes one row of three words per channel, in channel order.
func (g *TriplexGroup) Step(words [][3]arinc.Word, dt float64) GroupResult {
	var suspect [3]bool
	for i := range g.Channels {
		s := g.Channels[i].Monitor(words[i], dt)
		for j := range suspect {
			suspect[j] = suspect[j] || s[j]
		}
	}
	values := make([]float64, len(g.Channels))
	for i := range g.Channels {
		values[i] = g.Channels[i].Select(words[i], suspect)
	}
	return GroupResult{Values: values, Suspect: suspect, Faults: CountFaults(suspect[:])}
}

func CountFaults(suspect []bool) int {
	n := 0
	for _, s := range suspect {
		if s {
			n++
		}
	}
	return n
}

// selectValue averages the good sources. One good source is used as is and
// none gives the fallback.
func selectValue(words []arinc.Word, suspect []bool, fallback float64) float64 {
	good := make([]float64, 0, len(words))
	for i, w := range words {
		if !suspect[i] {
			good = append(good, float64(w.Data))
		}
	}
	switch len(good) {
	case 0:
		return fallback
	case 1:
		return good[0]
	}
	return stat.Mean(good, nil)
}
