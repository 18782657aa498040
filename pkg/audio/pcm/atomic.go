package pcm

import (
	"math"
	"sync/atomic"
)

// AtomicFloat64 provides atomic operations for float64 values.
// It uses atomic uint64 operations internally by bit-casting the float64.
type AtomicFloat64 struct {
	bits uint64
}

// NewAtomicFloat64 creates a new AtomicFloat64 with the given initial value.
func NewAtomicFloat64(val float64) AtomicFloat64 {
	return AtomicFloat64{bits: math.Float64bits(val)}
}

// Load atomically loads and returns the float64 value.
func (af *AtomicFloat64) Load() float64 {
	return math.Float64frombits(atomic.LoadUint64(&af.bits))
}

// Store atomically stores the given float64 value.
func (af *AtomicFloat64) Store(val float64) {
	atomic.StoreUint64(&af.bits, math.Float64bits(val))
}
