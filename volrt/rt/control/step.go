package control

import (
	"math"
	"sync/atomic"
)

// Bounds is the inclusive range a StepSize may take.
type Bounds struct {
	Min float32
	Max float32
}

var DefaultBounds = Bounds{Min: 1.0 / 200, Max: 0.25}

const (
	DefaultStep      = 1.0 / 50
	DefaultIncrement = 1.0 / 2048
)

func (b Bounds) Clamp(v float32) float32 {
	if v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}
	return v
}

func (b Bounds) valid() bool {
	return b.Min > 0 && b.Min <= b.Max
}

// StepSize is the ray step shared between input handling and the raymarch
// pass. Every stored value lies within its bounds.
type StepSize struct {
	bits   atomic.Uint32
	bounds Bounds
}

// NewStepSize clamps initial into b. Bounds that would allow a step <= 0
// are replaced by DefaultBounds.
func NewStepSize(initial float32, b Bounds) *StepSize {
	if !b.valid() {
		b = DefaultBounds
	}
	s := &StepSize{bounds: b}
	s.bits.Store(math.Float32bits(b.Clamp(initial)))
	return s
}

func (s *StepSize) Get() float32 {
	return math.Float32frombits(s.bits.Load())
}

func (s *StepSize) Bounds() Bounds {
	return s.bounds
}

// Set stores v clamped to the bounds and returns the stored value.
func (s *StepSize) Set(v float32) float32 {
	v = s.bounds.Clamp(v)
	s.bits.Store(math.Float32bits(v))
	return v
}

// Adjust adds delta and clamps, returning the new value.
func (s *StepSize) Adjust(delta float32) float32 {
	for {
		old := s.bits.Load()
		v := s.bounds.Clamp(math.Float32frombits(old) + delta)
		if s.bits.CompareAndSwap(old, math.Float32bits(v)) {
			return v
		}
	}
}
