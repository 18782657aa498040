package engine

import (
	"math"
	"math/rand"
	"testing"

	"github.com/driftaudio/driftpad/pkg/synth"
)

// testConfig is a small, fast deterministic configuration: 8kHz, 0.25s
// chunks, 0.4s bars.
func testConfig() Config {
	return Config{
		SampleRate:    8000,
		ChunkSamples:  2000,
		TempoBPM:      600, // 200 samples per 16th step, 3200 per bar
		FadeInSeconds: 0.1,
		Rand:          rand.New(rand.NewSource(1)),
	}
}

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestConfigRejectsTempoFasterThanGrid(t *testing.T) {
	cfg := testConfig()
	// At this tempo a 16th step is shorter than one sample and the
	// render loop could never advance.
	cfg.TempoBPM = float64(cfg.SampleRate) * 16

	if _, err := New(cfg); err == nil {
		t.Fatal("expected an error for a tempo with zero samples per step")
	}
}

func TestRenderChunkShapeAndRange(t *testing.T) {
	e := newTestEngine(t, testConfig())

	for chunk := 0; chunk < 100; chunk++ {
		out := e.RenderChunk()
		if len(out) != 2000 {
			t.Fatalf("chunk %d: %d samples, want 2000", chunk, len(out))
		}
		for i, s := range out {
			if s < -1 || s > 1 || math.IsNaN(float64(s)) {
				t.Fatalf("chunk %d sample %d out of range: %v", chunk, i, s)
			}
		}
	}
}

func TestRenderChunkProducesAudio(t *testing.T) {
	e := newTestEngine(t, testConfig())

	// Past the startup fade there must be signal.
	var peak float32
	for i := 0; i < 20; i++ {
		for _, s := range e.RenderChunk() {
			if s > peak {
				peak = s
			} else if -s > peak {
				peak = -s
			}
		}
	}
	if peak < 0.01 {
		t.Fatalf("peak %v, engine effectively silent", peak)
	}
}

func TestCountersMonotonic(t *testing.T) {
	e := newTestEngine(t, testConfig())

	prevSteps, prevBars := e.TotalSteps(), e.GlobalBar()
	for i := 0; i < 80; i++ {
		e.RenderChunk()
		steps, bars := e.TotalSteps(), e.GlobalBar()
		if steps < prevSteps || bars < prevBars {
			t.Fatalf("counters went backwards: steps %d->%d bars %d->%d",
				prevSteps, steps, prevBars, bars)
		}
		prevSteps, prevBars = steps, bars
	}

	// One bar per 16 step advances, exactly.
	if want := prevSteps / 16; prevBars != want {
		t.Fatalf("bars = %d after %d steps, want %d", prevBars, prevSteps, want)
	}
}

func TestMasterGainMonotonicOnFocusRise(t *testing.T) {
	cfg := testConfig()
	e := newTestEngine(t, cfg)

	// Settle at low focus.
	e.SetFocus(20)
	for i := 0; i < 200; i++ {
		e.RenderChunk()
	}
	start := e.MasterGain()

	// Drive focus up; smoothed master gain must never step up along the way.
	e.SetFocus(90)
	prev := start
	for i := 0; i < 400; i++ {
		e.RenderChunk()
		g := e.MasterGain()
		if g > prev+1e-12 {
			t.Fatalf("master gain rose from %v to %v while focus rising", prev, g)
		}
		prev = g
	}
	if prev >= start {
		t.Fatalf("master gain %v did not recede from %v", prev, start)
	}
}

func TestCrossfadeDurationAndSingleInstance(t *testing.T) {
	cfg := testConfig()
	cfg.EmergencyCrossfadeSeconds = 1 // 8000 samples = 4 chunks
	cfg.HoldBars = 1000               // no scheduled changes during the test
	e := newTestEngine(t, cfg)

	e.RenderChunk()
	if e.CrossfadeActive() {
		t.Fatal("crossfade active before any trigger")
	}

	e.Skip()
	total := e.xfade.total
	if !e.CrossfadeActive() || total != 8000 {
		t.Fatalf("after Skip: active=%v total=%d, want true/8000", e.CrossfadeActive(), total)
	}
	pendingBefore := len(e.pending)

	prevPos := 0
	renders := 0
	for e.CrossfadeActive() {
		// Hammer Skip mid-fade: no second crossfade may start.
		e.Skip()
		if e.xfade.total != total {
			t.Fatal("a second crossfade replaced the active one")
		}
		e.RenderChunk()
		renders++
		if e.CrossfadeActive() {
			if e.xfade.pos < prevPos {
				t.Fatalf("blend position regressed: %d -> %d", prevPos, e.xfade.pos)
			}
			prevPos = e.xfade.pos
		}
		if renders > 10 {
			t.Fatal("crossfade did not complete")
		}
	}
	if renders != 4 {
		t.Fatalf("crossfade took %d renders, want 4", renders)
	}
	if got := len(e.pending) - pendingBefore; got != 0 {
		t.Fatalf("%d extra pending evaluations queued by mid-fade skips", got)
	}
}

func TestEmergencyChangeOnFocusDrop(t *testing.T) {
	cfg := testConfig()
	cfg.HoldBars = 8
	cfg.CrossfadeSeconds = 1
	cfg.EmergencyCrossfadeSeconds = 2 // 16000 samples, distinct from scheduled
	cfg.FocusTau = 0.5                // cross the threshold well before a scheduled change
	e := newTestEngine(t, cfg)

	// Hold the texture long enough to be past HoldBars/2 bars, staying
	// above the low-focus threshold.
	e.SetFocus(60)
	for e.GlobalBar() < 5 {
		e.RenderChunk()
	}
	if e.CrossfadeActive() {
		t.Fatal("unexpected crossfade before focus drop")
	}

	e.SetFocus(5)
	var triggered bool
	for i := 0; i < 100; i++ {
		e.RenderChunk()
		if e.CrossfadeActive() {
			triggered = true
			break
		}
	}
	if !triggered {
		t.Fatal("focus drop below threshold did not trigger a texture change")
	}
	if e.xfade.total != int(cfg.EmergencyCrossfadeSeconds*float64(cfg.SampleRate)) {
		t.Fatalf("emergency crossfade length %d, want the longer duration", e.xfade.total)
	}
}

func TestDroneFollowsChordRoot(t *testing.T) {
	cfg := testConfig()
	cfg.HoldBars = 1
	cfg.DroneChangeEveryBars = 4
	cfg.BarsPerChord = 2
	e := newTestEngine(t, cfg)

	e.SetFocus(10)

	if got, want := e.DroneFreq(), synth.NoteFreq(45); math.Abs(got-want) > 1e-9 {
		t.Fatalf("initial drone freq %v, want %v", got, want)
	}

	// At bar 4 the chord has rotated twice (bars 2 and 4); the drone
	// retargets to the new chord root and glides there. By bar 7 the
	// glide has had several time constants to settle, and the next
	// retarget at bar 8 has not happened yet.
	for e.GlobalBar() < 7 {
		e.RenderChunk()
	}

	want := synth.NoteFreq(50) // root of the third chord in the A2 progression
	if got := e.DroneFreq(); math.Abs(got-want) > 5 {
		t.Fatalf("drone freq %v, want ~%v", got, want)
	}
}

func TestKeyRotationRegeneratesProgression(t *testing.T) {
	cfg := testConfig()
	cfg.SectionLenBars = 4
	e := newTestEngine(t, cfg)

	firstRoot, _ := e.prog[0].Root()
	for e.GlobalBar() < 5 {
		e.RenderChunk()
	}
	secondRoot, _ := e.prog[0].Root()

	if firstRoot != 45 {
		t.Fatalf("initial key root %d, want 45", firstRoot)
	}
	if secondRoot != 41 {
		t.Fatalf("key root after section %d, want 41 (next in cycle)", secondRoot)
	}
}

func TestPendingEvaluationLifecycle(t *testing.T) {
	cfg := testConfig()
	cfg.HoldBars = 2
	cfg.EvalDelayBars = 1
	cfg.EvalWindowBars = 2
	cfg.RewardProb = 1 // always apply, keeps the test deterministic
	e := newTestEngine(t, cfg)

	e.SetFocus(90)
	// First scheduled change at bar 2; it matures at bar 5.
	for e.GlobalBar() < 2 {
		e.RenderChunk()
	}
	if len(e.pending) == 0 {
		t.Fatal("no pending evaluation after scheduled texture change")
	}
	arm := e.pending[0].arm

	for e.GlobalBar() < 6 {
		e.RenderChunk()
	}

	st := e.PolicyState()
	if st.Arms[arm].Trials == 0 {
		t.Fatalf("arm %d never rewarded after its window elapsed", arm)
	}
	// High focus throughout: reward must be positive.
	if st.Arms[arm].Value <= 0 {
		t.Fatalf("arm %d value %v, want > 0 under high focus", arm, st.Arms[arm].Value)
	}
}

func TestSkipDuringCrossfadeKeepsInvariant(t *testing.T) {
	cfg := testConfig()
	cfg.EmergencyCrossfadeSeconds = 2
	cfg.HoldBars = 1000
	e := newTestEngine(t, cfg)

	e.Skip()
	for i := 0; i < 3; i++ {
		e.Skip()
		e.RenderChunk()
		e.Skip()
	}
	if !e.CrossfadeActive() {
		t.Fatal("crossfade should still be running")
	}
	if len(e.pending) != 1 {
		t.Fatalf("%d pending evaluations, want 1", len(e.pending))
	}
}

func TestDeterministicWithSeed(t *testing.T) {
	mk := func() *Engine {
		cfg := testConfig()
		cfg.Rand = nil
		cfg.Seed = 12345
		e, err := New(cfg)
		if err != nil {
			t.Fatal(err)
		}
		return e
	}

	a, b := mk(), mk()
	a.SetFocus(30)
	b.SetFocus(30)
	for i := 0; i < 50; i++ {
		ca := a.RenderChunk()
		cb := b.RenderChunk()
		for i := range ca {
			if ca[i] != cb[i] {
				t.Fatalf("seeded engines diverged at sample %d", i)
			}
		}
	}
}
