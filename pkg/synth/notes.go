// Package synth implements the voices of the ambient engine: the
// detuned harmonic pad, the drone overtone underneath it, and the note,
// chord and progression model they render from.
package synth

import "math"

// NoteFreq converts a 12-tone equal temperament note number to a
// frequency in Hz, with A4 (note 69) at 440 Hz.
func NoteFreq(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}

// CentsRatio converts a detune offset in cents to a frequency ratio.
func CentsRatio(cents float64) float64 {
	return math.Pow(2, cents/1200)
}

// Chord is an ordered list of up to four note numbers. An empty chord
// renders as silence.
type Chord []int

// Root returns the first note of the chord. ok is false for an empty
// chord.
func (c Chord) Root() (note int, ok bool) {
	if len(c) == 0 {
		return 0, false
	}
	return c[0], true
}

// Progression is an ordered list of chords, rotated one chord at a time
// by the engine's bar clock.
type Progression []Chord

// minorScale is the natural minor scale in semitones from the root.
var minorScale = [7]int{0, 2, 3, 5, 7, 8, 10}

// progressionDegrees are the scale-degree roots of the progression,
// i - VI - iv - v in the natural minor.
var progressionDegrees = [4]int{0, 5, 3, 4}

// MinorProgression builds the engine's four-chord progression for a key
// root note: stacked thirds within the natural minor scale, four notes
// per chord, folded up an octave where the scale wraps.
func MinorProgression(root int) Progression {
	prog := make(Progression, 0, len(progressionDegrees))
	for _, deg := range progressionDegrees {
		chord := make(Chord, 0, 4)
		for k := 0; k < 4; k++ {
			idx := deg + 2*k
			note := root + minorScale[idx%7] + 12*(idx/7)
			chord = append(chord, note)
		}
		prog = append(prog, chord)
	}
	return prog
}
