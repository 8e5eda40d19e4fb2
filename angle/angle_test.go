package angle

import (
	"math"
	"math/rand"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, out360, out180 float64
	}{
		{0, 0, 0},
		{360, 0, 0},
		{-10, 350, -10},
		{190, 190, -170},
		{180, 180, -180},
		{725, 5, 5},
		{-540, 180, -180},
	}
	for _, c := range cases {
		if got := Normalize360(c.in); math.Abs(got-c.out360) > 1e-9 {
			t.Errorf("Bad Normalize360(%v): %v", c.in, got)
		}
		if got := Normalize180(c.in); math.Abs(got-c.out180) > 1e-9 {
			t.Errorf("Bad Normalize180(%v): %v", c.in, got)
		}
	}
}

func TestWrapRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		a := (r.Float64() - 0.5) * 4000
		n := Normalize360(a)
		if n < 0 || n >= 360 {
			t.Fatalf("Bad range for %v: %v", a, n)
		}
		k := float64(r.Intn(21) - 10)
		again := Normalize360(n + k*360)
		if math.Abs(again-n) > 1e-9 && math.Abs(math.Abs(again-n)-360) > 1e-9 {
			t.Fatalf("Bad round trip for %v + %v*360: %v != %v", a, k, again, n)
		}
		h := Normalize180(a)
		if h < -180 || h >= 180 {
			t.Fatalf("Bad half range for %v: %v", a, h)
		}
	}
}

func TestMod(t *testing.T) {
	if Mod(-1, 360) != 359 {
		t.Errorf("Bad mod: %v", Mod(-1, 360))
	}
	if Mod(720, 360) != 0 {
		t.Errorf("Bad mod: %v", Mod(720, 360))
	}
	if Mod(5, 0) != 5 {
		t.Errorf("Bad zero divisor: %v", Mod(5, 0))
	}
	if !math.IsNaN(Mod(math.Inf(1), 360)) {
		t.Errorf("Bad infinite dividend")
	}
}

func TestDifference(t *testing.T) {
	if d := Difference(10, 350); math.Abs(d-20) > 1e-9 {
		t.Errorf("Bad difference: %v", d)
	}
	if d := Difference(350, 10); math.Abs(d+20) > 1e-9 {
		t.Errorf("Bad difference: %v", d)
	}
	if a := GetAngleTo(350, 10); math.Abs(a-20) > 1e-9 {
		t.Errorf("Bad angle to: %v", a)
	}
}

func TestTurnDirectionString(t *testing.T) {
	if Left.String() != "Left" || Straight.String() != "Straight" {
		t.Errorf("Bad string: %v %v", Left, Straight)
	}
}

func TestTurnSelectorPicksShorter(t *testing.T) {
	var ts TurnSelector
	right, left := RightLeft(-30)
	if out := ts.Step(right, left, false); out != left {
		t.Errorf("Bad first turn: %v", out)
	}
	right, left = RightLeft(40)
	if out := ts.Step(right, left, false); out != right {
		t.Errorf("Bad turn: %v", out)
	}
}

func TestTurnSelectorLocksSide(t *testing.T) {
	var ts TurnSelector
	right, left := RightLeft(100)
	ts.Step(right, left, false)
	right, left = RightLeft(15)
	if out := ts.Step(right, left, false); out != 15 {
		t.Errorf("Bad locking turn: %v", out)
	}
	if ts.Direction() != Right {
		t.Errorf("Bad direction: %v", ts.Direction())
	}
	// A candidate under 10 degrees releases the lock
	if out := ts.Step(12, -8, false); out != -8 {
		t.Errorf("Bad release: %v", out)
	}
	if ts.Direction() != Straight {
		t.Errorf("Bad direction after release: %v", ts.Direction())
	}
}

func TestTurnSelectorShortPathReleases(t *testing.T) {
	var ts TurnSelector
	ts.Step(15, -345, false)
	ts.Step(15, -345, false)
	if ts.Direction() != Right {
		t.Fatalf("Bad direction: %v", ts.Direction())
	}
	if out := ts.Step(15, -345, true); out != 15 {
		t.Errorf("Bad short path output: %v", out)
	}
	if ts.Direction() != Straight {
		t.Errorf("Bad direction after short path: %v", ts.Direction())
	}
}
