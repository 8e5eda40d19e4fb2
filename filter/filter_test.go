package filter

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterBound(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	limiter := NewRateLimiter(3, -7, 0)
	previous := limiter.Output()
	for i := 0; i < 5000; i++ {
		u := (r.Float64() - 0.5) * 200
		dt := r.Float64() * 0.1
		y := limiter.Step(u, dt)
		bound := math.Max(3, 7)*dt + 1e-12
		if math.Abs(y-previous) > bound {
			t.Fatalf("Bad step %v: moved %v in %v", i, y-previous, dt)
		}
		previous = y
	}
}

func TestRateLimiterSeedsFromInitial(t *testing.T) {
	limiter := NewRateLimiter(1, 1, 4)
	if y := limiter.Step(100, 0); y != 4 {
		t.Errorf("Bad seed: %v", y)
	}
	if y := limiter.Step(100, 1); y != 5 {
		t.Errorf("Bad up rate: %v", y)
	}
	if y := limiter.Step(-100, 2); y != 3 {
		t.Errorf("Bad down rate: %v", y)
	}
	if y := limiter.Step(3.5, 1); y != 3.5 {
		t.Errorf("Bad pass through: %v", y)
	}
	limiter.Reset()
	if y := limiter.Step(0, 0); y != 4 {
		t.Errorf("Bad reset: %v", y)
	}
}

func TestRateLimiterNegativeDt(t *testing.T) {
	limiter := NewRateLimiter(1, 1, 0)
	limiter.Step(0, 0)
	if y := limiter.Step(10, -5); y != 0 {
		t.Errorf("Bad negative dt: %v", y)
	}
}

func TestSeedingIdempotence(t *testing.T) {
	for _, x := range []float64{-12.5, 0, 3, 1e6} {
		lag := NewLag(2)
		washout := NewWashout(0.5)
		leadLag := NewLeadLag(1, 3, 2, 5)
		assert.InDelta(t, x, lag.Step(x, 0), 1e-9, "lag")
		assert.InDelta(t, x, washout.Step(x, 0), 1e-9, "washout")
		assert.InDelta(t, x, leadLag.Step(x, 0), 1e-9, "lead-lag")
	}
}

func TestLagSteadyState(t *testing.T) {
	lag := NewLag(2)
	lag.Step(0, 0.02)
	var y float64
	for i := 0; i < 2000; i++ {
		y = lag.Step(5, 0.02)
	}
	assert.InDelta(t, 5, y, 1e-6)
}

func TestWashoutSteadyState(t *testing.T) {
	washout := NewWashout(2)
	washout.Step(0, 0.02)
	first := washout.Step(5, 0.02)
	require.Greater(t, first, 4.0, "washout passes the step")
	var y float64
	for i := 0; i < 2000; i++ {
		y = washout.Step(5, 0.02)
	}
	assert.InDelta(t, 0, y, 1e-6)
}

func TestLeadLagDCGain(t *testing.T) {
	// (s + 2) / (0.5 s + 1) has a DC gain of 2
	leadLag := NewLeadLag(1, 2, 0.5, 1)
	leadLag.Step(0, 0.01)
	var y float64
	for i := 0; i < 5000; i++ {
		y = leadLag.Step(3, 0.01)
	}
	assert.InDelta(t, 6, y, 1e-6)
}

func TestConstructorsRejectBadConstants(t *testing.T) {
	assert.Panics(t, func() { NewLag(0) })
	assert.Panics(t, func() { NewLag(-1) })
	assert.Panics(t, func() { NewWashout(math.NaN()) })
	assert.Panics(t, func() { NewLeadLag(1, 1, 0, 1) })
	assert.Panics(t, func() { NewIntegrator(1, 5, -5) })
}

func TestIntegrator(t *testing.T) {
	integrator := NewIntegrator(1, -10, 10)
	if y := integrator.Step(100, 1, false, 2); y != 2 {
		t.Errorf("Bad initial load: %v", y)
	}
	if y := integrator.Step(3, 1, false, 0); y != 5 {
		t.Errorf("Bad integration: %v", y)
	}
	if y := integrator.Step(100, 1, false, 0); y != 10 {
		t.Errorf("Bad upper limit: %v", y)
	}
	if y := integrator.Step(1, 1, true, -3); y != -3 {
		t.Errorf("Bad load: %v", y)
	}
	if y := integrator.StepWithLimits(5, 1, false, 0, -1, 1); y != 1 {
		t.Errorf("Bad moving upper limit: %v", y)
	}
	if y := integrator.StepWithLimits(-5, 1, false, 0, -1, 1); y != -1 {
		t.Errorf("Bad moving lower limit: %v", y)
	}
}

func TestDerivative(t *testing.T) {
	d := NewDerivative(2)
	if y := d.Step(1, 0.1); y != 0 {
		t.Errorf("Bad first derivative: %v", y)
	}
	if y := d.Step(2, 0.5); math.Abs(y-4) > 1e-12 {
		t.Errorf("Bad derivative: %v", y)
	}
	if y := d.Step(5, 0); y != 0 {
		t.Errorf("Bad zero dt derivative: %v", y)
	}
}

func BenchmarkLag(b *testing.B) {
	lag := NewLag(2)
	for i := 0; i < b.N; i++ {
		lag.Step(float64(i%10), 0.02)
	}
}
