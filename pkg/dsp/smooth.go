// Package dsp provides the small signal-processing primitives used by the
// synthesis engine: batched parameter smoothing, a one-pole low-pass
// filter, and a phase-continuous sine oscillator.
//
// All stateful types carry their state across calls so that audio can be
// rendered chunk by chunk without discontinuities. The per-sample
// recurrences are order-dependent; callers must not reorder or split
// buffers except at sample boundaries.
package dsp

import "math"

// SmoothParam smooths a control-rate scalar toward a target along an
// exponential trajectory. The trajectory is advanced in batches of n
// samples rather than per sample; it is meant for values read once per
// rendered segment, not per sample.
type SmoothParam struct {
	value float64
	tau   float64 // time constant in samples
}

// NewSmoothParam creates a smoother with the given initial value and time
// constant in seconds at the given sample rate.
func NewSmoothParam(initial, tauSeconds, sampleRate float64) *SmoothParam {
	return &SmoothParam{value: initial, tau: tauSeconds * sampleRate}
}

// Step advances the trajectory toward target by n samples and returns the
// new value.
func (p *SmoothParam) Step(target float64, n int) float64 {
	if n <= 0 {
		return p.value
	}
	if p.tau <= 0 {
		p.value = target
		return p.value
	}
	p.value += (target - p.value) * (1 - math.Exp(-float64(n)/p.tau))
	return p.value
}

// Value returns the current smoothed value without advancing.
func (p *SmoothParam) Value() float64 {
	return p.value
}

// Reset hard-sets the current value, abandoning the trajectory.
func (p *SmoothParam) Reset(v float64) {
	p.value = v
}
