package monitor

// EdgeDetector emits a single-evaluation pulse when its input changes in the
// watched direction. After a pulse the next evaluation is always false.
type EdgeDetector struct {
	Rising bool

	initialized bool
	previous    bool
	output      bool
}

func NewEdgeDetector(rising bool) EdgeDetector {
	return EdgeDetector{Rising: rising}
}

func (e *EdgeDetector) Step(u bool) bool {
	if !e.initialized {
		// Start from the non-triggering level so a held input at power up
		// does not count as an edge.
		e.previous = e.Rising
		e.initialized = true
	}
	var edge bool
	if e.Rising {
		edge = u && !e.previous
	} else {
		edge = !u && e.previous
	}
	e.output = !e.output && edge
	e.previous = u
	return e.output
}

// StoreAndHold tracks its input while inactive and freezes it while active.
type StoreAndHold struct {
	initialized bool
	stored      float64
}

func (s *StoreAndHold) Step(active bool, u float64) float64 {
	if !active || !s.initialized {
		s.stored = u
		s.initialized = true
	}
	return s.stored
}

func (s *StoreAndHold) Output() float64 {
	return s.stored
}

// Latch is a set/reset flip-flop with reset dominant.
type Latch struct {
	output bool
}

func (l *Latch) Step(set, reset bool) bool {
	if reset {
		l.output = false
	} else if set {
		l.output = true
	}
	return l.output
}

func (l *Latch) Output() bool {
	return l.output
}
