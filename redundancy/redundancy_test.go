package redundancy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bskari/go-fbw/arinc"
)

func words3(a, b, c float64) [3]arinc.Word {
	return [3]arinc.Word{arinc.Normal(a), arinc.Normal(b), arinc.Normal(c)}
}

func TestTriplexAgreement(t *testing.T) {
	tr := NewTriplex(TriplexConfig{Threshold: 5, ConfirmTime: 1, Default: -1})
	r := tr.Step(words3(100, 102, 104), 0.1)
	assert.Equal(t, 0, r.Faults)
	assert.InDelta(t, 102, r.Value, 1e-9)
}

func TestTriplexOutlierConfirm(t *testing.T) {
	const dt = 0.25
	tr := NewTriplex(TriplexConfig{Threshold: 5, ConfirmTime: 1, Default: -1})
	// Not yet confirmed, still averaged in
	r := tr.Step(words3(100, 100, 160), dt)
	assert.Equal(t, 0, r.Faults)
	assert.InDelta(t, 120, r.Value, 1e-9)
	for i := 0; i < 4; i++ {
		r = tr.Step(words3(100, 100, 160), dt)
	}
	require.Equal(t, [3]bool{false, false, true}, r.Suspect)
	assert.Equal(t, 1, r.Faults)
	assert.InDelta(t, 100, r.Value, 1e-9)

	// The source is trusted again as soon as it agrees
	r = tr.Step(words3(100, 100, 101), dt)
	assert.Equal(t, 0, r.Faults)
}

func TestTriplexFallbacks(t *testing.T) {
	tr := NewTriplex(TriplexConfig{Threshold: 5, ConfirmTime: 1, Default: -1})
	w := words3(100, 110, 120)
	w[0].SSM = arinc.FailureWarning
	w[1].SSM = arinc.NoComputedData
	// Well past the confirmation time
	var r TriplexResult
	for i := 0; i < 20; i++ {
		r = tr.Step(w, 0.1)
		require.Equal(t, 2, r.Faults, "frame %d", i)
		require.Equal(t, 120.0, r.Value, "single source is used directly, frame %d", i)
	}
	assert.Equal(t, [3]bool{true, true, false}, r.Suspect)

	w[2].SSM = arinc.FailureWarning
	r = tr.Step(w, 0.1)
	assert.Equal(t, 3, r.Faults)
	assert.Equal(t, -1.0, r.Value)
}

func TestSingleGoodSourceSurvivesFailedData(t *testing.T) {
	const dt = 0.125
	tr := NewTriplex(TriplexConfig{Threshold: 16, ConfirmTime: 1, Default: 99})
	w := [3]arinc.Word{
		arinc.Normal(250),
		arinc.NewWord(arinc.FailureWarning, 0),
		arinc.NewWord(arinc.FailureWarning, 0),
	}
	var r TriplexResult
	for i := 0; i < 20; i++ {
		r = tr.Step(w, dt)
	}
	assert.Equal(t, [3]bool{false, true, true}, r.Suspect)
	assert.Equal(t, 2, r.Faults)
	assert.Equal(t, 250.0, r.Value)

	g := NewTriplexGroup(
		TriplexConfig{Threshold: 5, ConfirmTime: 1},
		TriplexConfig{Threshold: 0.5, ConfirmTime: 1, Default: 1},
	)
	nz := [3]arinc.Word{
		arinc.Normal(1.2),
		arinc.NewWord(arinc.FailureWarning, 0),
		arinc.NewWord(arinc.NoComputedData, 0),
	}
	var gr GroupResult
	for i := 0; i < 20; i++ {
		gr = g.Step([][3]arinc.Word{w, nz}, dt)
	}
	assert.Equal(t, 2, gr.Faults)
	assert.InDeltaSlice(t, []float64{250, 1.2}, gr.Values, 1e-6)
}

func TestTwoValidSourcesSplit(t *testing.T) {
	const dt = 0.25
	tr := NewTriplex(TriplexConfig{Threshold: 5, ConfirmTime: 1, Default: -1})
	w := words3(100, 103, 0)
	w[2].SSM = arinc.FailureWarning
	r := tr.Step(w, dt)
	assert.Equal(t, 1, r.Faults)
	assert.InDelta(t, 101.5, r.Value, 1e-9)

	// With no third opinion a confirmed split condemns both
	w[1] = arinc.Normal(130)
	for i := 0; i < 3; i++ {
		r = tr.Step(w, dt)
		assert.Equal(t, 1, r.Faults, "frame %d", i)
	}
	r = tr.Step(w, dt)
	assert.Equal(t, [3]bool{true, true, true}, r.Suspect)
	assert.Equal(t, -1.0, r.Value)
}

func TestTriplexGroupExcludesSourceEverywhere(t *testing.T) {
	g := NewTriplexGroup(
		TriplexConfig{Threshold: 10, ConfirmTime: 0},
		TriplexConfig{Threshold: 2, ConfirmTime: 0},
	)
	r := g.Step([][3]arinc.Word{words3(250, 250, 250), words3(3, 3, 9)}, 0.1)
	assert.Equal(t, [3]bool{false, false, true}, r.Suspect)
	assert.Equal(t, 1, r.Faults)
	assert.Equal(t, []float64{250, 3}, r.Values)
}

func TestDuplex(t *testing.T) {
	const dt = 0.5
	d := NewDuplex(DuplexConfig{Threshold: 16, ConfirmTime: 1})
	r := d.Step([2]arinc.Word{arinc.Normal(200), arinc.Normal(210)}, dt)
	assert.False(t, r.Disagree)
	assert.InDelta(t, 205, r.Value, 1e-9)

	r = d.Step([2]arinc.Word{arinc.Normal(200), arinc.Normal(240)}, dt)
	assert.False(t, r.Disagree)
	r = d.Step([2]arinc.Word{arinc.Normal(200), arinc.Normal(240)}, dt)
	assert.True(t, r.Disagree)
	assert.Equal(t, 2, r.Faults)
	assert.Equal(t, 0.0, r.Value)

	// A failed source is not a disagreement
	d = NewDuplex(DuplexConfig{Threshold: 16, ConfirmTime: 1})
	r = d.Step([2]arinc.Word{arinc.NewWord(arinc.FailureWarning, 0), arinc.Normal(240)}, dt)
	assert.Equal(t, [2]bool{true, false}, r.Suspect)
	assert.Equal(t, 240.0, r.Value)
}

func TestDuplexGroup(t *testing.T) {
	g := NewDuplexGroup(DuplexConfig{Threshold: 16}, DuplexConfig{Threshold: 5})
	r := g.Step([][2]arinc.Word{
		{arinc.Normal(200), arinc.Normal(202)},
		{arinc.Normal(5), arinc.Normal(7)},
	}, 0.1)
	assert.Equal(t, 0, r.Faults)
	assert.InDeltaSlice(t, []float64{201, 6}, r.Values, 1e-9)
}

func BenchmarkTriplexGroup(b *testing.B) {
	g := NewTriplexGroup(
		TriplexConfig{Threshold: 16, ConfirmTime: 1},
		TriplexConfig{Threshold: 0.05, ConfirmTime: 1},
		TriplexConfig{Threshold: 5, ConfirmTime: 1},
	)
	words := [][3]arinc.Word{words3(250, 251, 249), words3(0.7, 0.71, 0.7), words3(3, 3, 4)}
	for i := 0; i < b.N; i++ {
		g.Step(words, 0.02)
	}
}
