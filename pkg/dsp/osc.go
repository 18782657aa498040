package dsp

import "math"

const twoPi = 2 * math.Pi

// SineOsc is a phase-continuous sine oscillator. Phase persists across
// render calls and is wrapped back into [0, 2π) to bound floating error,
// so frequency can change between or within chunks without clicks.
type SineOsc struct {
	phase float64
}

// Render writes sine samples into dst, integrating phase from the
// instantaneous per-sample frequency in freq (Hz). len(freq) must be at
// least len(dst).
func (o *SineOsc) Render(dst, freq []float64, sampleRate float64) {
	ph := o.phase
	k := twoPi / sampleRate
	for i := range dst {
		dst[i] = math.Sin(ph)
		ph += k * freq[i]
		if ph >= twoPi {
			ph -= twoPi
		} else if ph < 0 {
			ph += twoPi
		}
	}
	o.phase = ph
}

// RenderConst writes sine samples into dst at a fixed frequency.
func (o *SineOsc) RenderConst(dst []float64, freqHz, sampleRate float64) {
	ph := o.phase
	inc := twoPi * freqHz / sampleRate
	for i := range dst {
		dst[i] = math.Sin(ph)
		ph += inc
		if ph >= twoPi {
			ph -= twoPi
		}
	}
	o.phase = math.Mod(ph, twoPi)
}

// Phase returns the current phase in [0, 2π).
func (o *SineOsc) Phase() float64 {
	return o.phase
}
