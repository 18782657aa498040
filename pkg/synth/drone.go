package synth

import (
	"math"

	"github.com/driftaudio/driftpad/pkg/dsp"
)

// Drone timing defaults.
const (
	droneAttackTau  = 1.0 // seconds
	droneReleaseTau = 4.0 // seconds
	droneGlideTau   = 0.5 // seconds
)

// DroneOvertone is a single continuous sine voice with an asymptotic
// attack/release envelope and its own one-pole low-pass filter.
// Frequency changes glide rather than retrigger, so the drone never
// clicks when the engine moves its pitch to a new chord root.
//
// The gain trajectory is advanced with one closed-form exponential step
// per render call; the low-pass recurrence is per-sample and carries
// state across calls.
type DroneOvertone struct {
	sr    float64
	osc   dsp.SineOsc
	lpf   *dsp.OnePoleLPF
	glide *dsp.SmoothParam

	targetFreq  float64
	targetLevel float64
	level       float64

	freqBuf []float64
}

// NewDroneOvertone creates a drone at the given sample rate with the
// given low-pass cutoff. It starts silent at the given frequency.
func NewDroneOvertone(sampleRate, cutoffHz, freqHz float64) *DroneOvertone {
	return &DroneOvertone{
		sr:         sampleRate,
		lpf:        dsp.NewOnePoleLPF(cutoffHz, sampleRate),
		glide:      dsp.NewSmoothParam(freqHz, droneGlideTau, sampleRate),
		targetFreq: freqHz,
	}
}

// SetFreq sets the glide target frequency. Phase and envelope are not
// reset.
func (d *DroneOvertone) SetFreq(hz float64) {
	d.targetFreq = hz
}

// Freq returns the current (glided) frequency.
func (d *DroneOvertone) Freq() float64 {
	return d.glide.Value()
}

// SetLevel sets the envelope target in [0,1]. Rising targets follow the
// attack time constant, falling targets the release time constant.
func (d *DroneOvertone) SetLevel(level float64) {
	d.targetLevel = level
}

// Render overwrites dst with the drone output.
func (d *DroneOvertone) Render(dst []float64) {
	n := len(dst)
	if len(d.freqBuf) < n {
		d.freqBuf = make([]float64, n)
	}

	// Glide: ramp linearly across the chunk toward the smoothed target.
	f0 := d.glide.Value()
	f1 := d.glide.Step(d.targetFreq, n)
	freq := d.freqBuf[:n]
	for i := range freq {
		freq[i] = f0 + (f1-f0)*float64(i)/float64(n)
	}
	d.osc.Render(dst, freq, d.sr)

	// Envelope: one closed-form exponential step per call, applied as a
	// ramp so there is no gain discontinuity at chunk edges.
	tau := droneAttackTau
	if d.targetLevel < d.level {
		tau = droneReleaseTau
	}
	g0 := d.level
	g1 := d.targetLevel + (d.level-d.targetLevel)*math.Exp(-float64(n)/(tau*d.sr))
	d.level = g1
	for i := range dst {
		dst[i] *= g0 + (g1-g0)*float64(i)/float64(n)
	}

	// Per-sample, order-dependent smoothing; state persists across calls.
	d.lpf.Process(dst)
}
