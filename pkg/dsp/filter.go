package dsp

import "math"

// OnePoleLPF is a single-pole low-pass filter. The last output sample is
// carried as state into the next call, so a stream can be filtered chunk
// by chunk with no reset between chunks.
type OnePoleLPF struct {
	alpha float64
	y     float64
}

// NewOnePoleLPF creates a one-pole low-pass filter with the given cutoff
// frequency at the given sample rate.
func NewOnePoleLPF(cutoffHz, sampleRate float64) *OnePoleLPF {
	rc := 1 / (2 * math.Pi * cutoffHz)
	dt := 1 / sampleRate
	return &OnePoleLPF{alpha: dt / (rc + dt)}
}

// Process applies the filter recurrence in place. The recurrence is
// order-dependent: y[i] = y[i-1] + alpha*(x[i] - y[i-1]).
func (f *OnePoleLPF) Process(buf []float64) {
	y := f.y
	a := f.alpha
	for i, x := range buf {
		y += a * (x - y)
		buf[i] = y
	}
	f.y = y
}

// SetCutoff retunes the filter without clearing its state.
func (f *OnePoleLPF) SetCutoff(cutoffHz, sampleRate float64) {
	rc := 1 / (2 * math.Pi * cutoffHz)
	dt := 1 / sampleRate
	f.alpha = dt / (rc + dt)
}
