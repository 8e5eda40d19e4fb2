// Package arinc models the ARINC 429 style words carried on the computer
// buses: a sign/status matrix plus a data value, and discrete words whose
// data holds packed bits.
package arinc

import (
	"math"
)

type SSM uint32

const (
	FailureWarning SSM = iota
	NoComputedData
	FunctionalTest
	NormalOperation
)

func (s SSM) String() string {
	switch s {
	case FailureWarning:
		return "FW"
	case NoComputedData:
		return "NCD"
	case FunctionalTest:
		return "FT"
	case NormalOperation:
		return "NO"
	}
	return "SSM?"
}

type Word struct {
	SSM  SSM     `msgpack:"s"`
	Data float32 `msgpack:"d"`
}

func NewWord(ssm SSM, data float64) Word {
	return Word{SSM: ssm, Data: float32(data)}
}

// Normal wraps a value in a normal-operation word.
func Normal(data float64) Word {
	return Word{SSM: NormalOperation, Data: float32(data)}
}

func (w Word) IsNormal() bool {
	return w.SSM == NormalOperation
}

func (w Word) IsNoComputedData() bool {
	return w.SSM == NoComputedData
}

func (w Word) IsFailureWarning() bool {
	return w.SSM == FailureWarning
}

// Value returns the data, or fallback when the word is not valid.
func (w Word) Value(fallback float64) float64 {
	if w.IsNormal() {
		return float64(w.Data)
	}
	return fallback
}

func (w Word) raw() uint32 {
	d := math.Round(float64(w.Data))
	if !(d >= 0) {
		return 0
	}
	if d >= math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(d)
}

// Bit reads 1-based bit n of a discrete word. Bits 1 to 8 are the label,
// 9 and 10 the SDI, 11 to 29 the data field.
func (w Word) Bit(n int) bool {
	if n < 1 || n > 32 {
		return false
	}
	return (w.raw()>>(n-1))&1 != 0
}

// BitIfNormal returns false unless the word is in normal operation.
func (w Word) BitIfNormal(n int) bool {
	return w.IsNormal() && w.Bit(n)
}

// DiscreteFields is the data field of a discrete word. Field 0 is bit 11.
type DiscreteFields [19]bool

const FirstDataBit = 11

func PackDiscrete(ssm SSM, fields DiscreteFields) Word {
	var out uint32
	for i, b := range fields {
		if b {
			out |= 1 << (i + FirstDataBit - 1)
		}
	}
	return Word{SSM: ssm, Data: float32(out)}
}

// Field reads data field i of a discrete word, the inverse of PackDiscrete.
func (w Word) Field(i int) bool {
	return w.Bit(i + FirstDataBit)
}
