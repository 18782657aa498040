package synth

import (
	"github.com/driftaudio/driftpad/pkg/dsp"
)

// NumPadVoices is the fixed number of voice slots in a HarmPad.
const NumPadVoices = 4

// vibratoRateHz is the shared vibrato LFO rate.
const vibratoRateHz = 0.07

// detuneSpread is the symmetric per-voice detune pattern, scaled by the
// texture's DetuneCents.
var detuneSpread = [NumPadVoices]float64{-1, -1.0 / 3, 1.0 / 3, 1}

type padVoice struct {
	fund dsp.SineOsc
	harm dsp.SineOsc
	freq float64 // fundamental in Hz; 0 means the slot is silent
}

// HarmPad renders up to four simultaneous detuned voices from a chord.
// Each voice contributes a fundamental sine plus an attenuated second
// harmonic gated by the texture's brightness; a slow vibrato LFO shared
// across voices perturbs every pitch. Texture parameters are
// hot-swappable without retriggering oscillator phase, which is what
// makes crossfading between two pad instances click-free.
type HarmPad struct {
	sr     float64
	tex    Texture
	lfo    dsp.SineOsc
	voices [NumPadVoices]padVoice

	lfoBuf   []float64
	freqBuf  []float64
	voiceBuf []float64
}

// NewHarmPad creates a pad at the given sample rate with an initial
// texture. All voice slots start silent.
func NewHarmPad(sampleRate float64, tex Texture) *HarmPad {
	return &HarmPad{sr: sampleRate, tex: tex}
}

// SetTexture swaps the texture parameters. Oscillator phase is
// preserved.
func (p *HarmPad) SetTexture(tex Texture) {
	p.tex = tex
}

// Texture returns the current texture.
func (p *HarmPad) Texture() Texture {
	return p.tex
}

// SetChord assigns chord notes to the fixed voice slots. Slots beyond
// the chord length fall silent; out-of-range note numbers silence their
// slot rather than propagate garbage.
func (p *HarmPad) SetChord(chord Chord) {
	for i := range p.voices {
		if i >= len(chord) || chord[i] < 0 || chord[i] > 127 {
			p.voices[i].freq = 0
			continue
		}
		p.voices[i].freq = NoteFreq(chord[i])
	}
}

func (p *HarmPad) grow(n int) {
	if len(p.lfoBuf) < n {
		p.lfoBuf = make([]float64, n)
		p.freqBuf = make([]float64, n)
		p.voiceBuf = make([]float64, n)
	}
}

// Render overwrites dst with the pad output, normalized by the number of
// sounding voices. An all-silent pad writes zeros.
func (p *HarmPad) Render(dst []float64) {
	n := len(dst)
	p.grow(n)
	for i := range dst {
		dst[i] = 0
	}

	lfo := p.lfoBuf[:n]
	p.lfo.RenderConst(lfo, vibratoRateHz, p.sr)

	active := 0
	for vi := range p.voices {
		v := &p.voices[vi]
		if v.freq == 0 {
			continue
		}
		active++

		detune := CentsRatio(p.tex.DetuneCents * detuneSpread[vi])
		base := v.freq * detune

		freq := p.freqBuf[:n]
		for i := range freq {
			freq[i] = base * (1 + p.tex.VibratoDepth*lfo[i])
		}

		buf := p.voiceBuf[:n]
		v.fund.Render(buf, freq, p.sr)
		for i := range dst {
			dst[i] += buf[i]
		}

		if p.tex.Brightness > 0 {
			harmGain := 0.5 * p.tex.Brightness
			for i := range freq {
				freq[i] *= 2
			}
			v.harm.Render(buf, freq, p.sr)
			for i := range dst {
				dst[i] += harmGain * buf[i]
			}
		}
	}

	if active > 1 {
		norm := 1 / float64(active)
		for i := range dst {
			dst[i] *= norm
		}
	}
}
