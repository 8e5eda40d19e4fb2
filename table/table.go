// Package table wraps the gain schedules: breakpoint/value pairs looked up
// by linear interpolation, holding the end values outside the range.
package table

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"
)

var ErrBadTable = errors.New("bad calibration table")

// Spec is the serialised form of a table, as found in conf.toml.
type Spec struct {
	Breakpoints []float64 `toml:"breakpoints"`
	Values      []float64 `toml:"values"`
}

// Validate checks the breakpoints are strictly increasing and finite.
func (s Spec) Validate() error {
	if len(s.Breakpoints) == 0 {
		return fmt.Errorf("%w: no breakpoints", ErrBadTable)
	}
	if len(s.Breakpoints) != len(s.Values) {
		return fmt.Errorf("%w: %d breakpoints but %d values", ErrBadTable, len(s.Breakpoints), len(s.Values))
	}
	for i, x := range s.Breakpoints {
		if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(s.Values[i]) || math.IsInf(s.Values[i], 0) {
			return fmt.Errorf("%w: non-finite entry at %d", ErrBadTable, i)
		}
		if i > 0 && x <= s.Breakpoints[i-1] {
			return fmt.Errorf("%w: breakpoint %v at %d does not increase", ErrBadTable, x, i)
		}
	}
	return nil
}

// Table is an immutable fitted schedule.
type Table struct {
	first, last float64
	constant    bool
	fitted      *interp.PiecewiseLinear
}

func New(spec Spec) (*Table, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	t := &Table{first: spec.Values[0], last: spec.Values[len(spec.Values)-1]}
	if len(spec.Breakpoints) == 1 {
		t.constant = true
		return t, nil
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(spec.Breakpoints, spec.Values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadTable, err)
	}
	t.fitted = &pl
	return t, nil
}

// Must is New for tables built into the binary. It panics on a bad table.
func Must(spec Spec) *Table {
	t, err := New(spec)
	if err != nil {
		panic(err)
	}
	return t
}

// Of is shorthand for a Spec literal.
func Of(breakpoints, values []float64) Spec {
	return Spec{Breakpoints: breakpoints, Values: values}
}

func (t *Table) Lookup(x float64) float64 {
	if t.constant {
		return t.first
	}
	if math.IsNaN(x) {
		return t.first
	}
	return t.fitted.Predict(x)
}
