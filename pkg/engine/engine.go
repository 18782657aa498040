// Package engine orchestrates the generative ambient stream: a fixed
// 16-step musical grid, a rotating chord progression and key cycle, two
// crossfading pad instances whose texture a bandit policy steers from
// delayed focus rewards, a gliding drone underneath, and focus-driven
// master gain with a soft ceiling.
//
// An Engine is single-owner state: exactly one goroutine (the session
// worker) may call its methods. It performs no locking and no I/O.
package engine

import (
	"math"
	"math/rand"
	"time"

	"github.com/driftaudio/driftpad/pkg/dsp"
	"github.com/driftaudio/driftpad/pkg/policy"
	"github.com/driftaudio/driftpad/pkg/synth"
)

// rewardBonus is the small term added to the normalized focus reward,
// aligned with the sign of the windowed mean against the running
// baseline. Empirically tuned; kept exactly as-is.
const rewardBonus = 0.1

// historyBars is the size of the per-bar focus history ring. It only
// needs to cover the evaluation delay plus window with slack.
const historyBars = 64

type crossfade struct {
	active bool
	pos    int
	total  int
}

type pendingEval struct {
	arm      int
	startBar int64
}

// Engine renders the ambient stream chunk by chunk.
type Engine struct {
	cfg Config
	sr  float64
	rng *rand.Rand

	bandit     *policy.Bandit
	textures   []synth.Texture
	pads       [2]*synth.HarmPad
	active     int
	curArm     int
	pendingArm int
	xfade      crossfade
	pending    []pendingEval

	drone *synth.DroneOvertone

	prog        synth.Progression
	chordIdx    int
	keyIdx      int
	barsOnChord int

	samplesPerStep  int
	samplesIntoStep int
	stepInBar       int
	totalSteps      int64
	globalBar       int64
	holdBars        int
	sectionBars     int

	focusTarget float64
	focus       *dsp.SmoothParam
	baseline    *dsp.SmoothParam
	gain        *dsp.SmoothParam
	history     [historyBars]float64

	fadeTotal int
	fadeDone  int

	padA, padB, droneBuf []float64
	out                  []float32
}

// New creates an Engine from cfg. Zero-valued fields take defaults.
func New(cfg Config) (*Engine, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	rng := cfg.Rand
	if rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}

	sr := float64(cfg.SampleRate)
	e := &Engine{
		cfg:      cfg,
		sr:       sr,
		rng:      rng,
		bandit:   policy.NewBandit(len(cfg.Textures), cfg.Epsilon, rng),
		textures: cfg.Textures,

		// One step is a 16th note on the fixed grid.
		samplesPerStep: int(sr * 15 / cfg.TempoBPM),

		focus:    dsp.NewSmoothParam(50, cfg.FocusTau, sr),
		baseline: dsp.NewSmoothParam(50, cfg.BaselineTau, sr),

		fadeTotal: int(cfg.FadeInSeconds * sr),

		padA:     make([]float64, cfg.ChunkSamples),
		padB:     make([]float64, cfg.ChunkSamples),
		droneBuf: make([]float64, cfg.ChunkSamples),
		out:      make([]float32, cfg.ChunkSamples),
	}
	e.gain = dsp.NewSmoothParam(e.gainTarget(50), cfg.GainTau, sr)
	e.focusTarget = 50

	e.prog = synth.MinorProgression(cfg.KeyRoots[0])
	e.pads[0] = synth.NewHarmPad(sr, e.textures[0])
	e.pads[1] = synth.NewHarmPad(sr, e.textures[0])
	e.applyChord()

	root, _ := e.prog[0].Root()
	e.drone = synth.NewDroneOvertone(sr, cfg.DroneCutoffHz, synth.NoteFreq(root))
	e.drone.SetLevel(1)

	return e, nil
}

// SetFocus stores the external focus value, clamped to [0,100]. Smoothing
// toward it happens as rendering advances.
func (e *Engine) SetFocus(v float64) {
	if v < 0 {
		v = 0
	} else if v > 100 {
		v = 100
	}
	e.focusTarget = v
}

// Skip forces an emergency texture change. It is a no-op while a
// crossfade is already running.
func (e *Engine) Skip() {
	e.startTextureChange(true)
}

// ChunkSamples returns the per-chunk sample count.
func (e *Engine) ChunkSamples() int {
	return e.cfg.ChunkSamples
}

// SampleRate returns the render sample rate in Hz.
func (e *Engine) SampleRate() int {
	return e.cfg.SampleRate
}

// GlobalBar returns the monotonic bar counter.
func (e *Engine) GlobalBar() int64 {
	return e.globalBar
}

// TotalSteps returns the monotonic step counter.
func (e *Engine) TotalSteps() int64 {
	return e.totalSteps
}

// CrossfadeActive reports whether a texture crossfade is in progress.
func (e *Engine) CrossfadeActive() bool {
	return e.xfade.active
}

// CurrentTexture returns the name of the texture the active pad holds.
func (e *Engine) CurrentTexture() string {
	return e.textures[e.curArm].Name
}

// MasterGain returns the current smoothed master gain.
func (e *Engine) MasterGain() float64 {
	return e.gain.Value()
}

// SmoothedFocus returns the current smoothed focus value.
func (e *Engine) SmoothedFocus() float64 {
	return e.focus.Value()
}

// DroneFreq returns the drone's current (glided) frequency.
func (e *Engine) DroneFreq() float64 {
	return e.drone.Freq()
}

// PolicyState snapshots the bandit's arm statistics.
func (e *Engine) PolicyState() policy.State {
	return e.bandit.State()
}

// RestorePolicy seeds the bandit from a snapshot, typically saved by an
// earlier run. Arm count must match the texture table.
func (e *Engine) RestorePolicy(s policy.State) error {
	return e.bandit.Restore(s)
}

// gainTarget maps focus to the master gain target. The mapping is
// negative: the ambience recedes while the listener is engaged and fills
// back in when focus drops.
func (e *Engine) gainTarget(focus float64) float64 {
	return e.cfg.MasterGainMax - (e.cfg.MasterGainMax-e.cfg.MasterGainMin)*focus/100
}

// RenderChunk renders the next chunk and returns the engine-owned sample
// buffer. The buffer is reused by the next call; consume it first. Every
// sample is in [-1,1].
func (e *Engine) RenderChunk() []float32 {
	n := e.cfg.ChunkSamples
	idx := 0
	for idx < n {
		seg := e.samplesPerStep - e.samplesIntoStep
		if seg > n-idx {
			seg = n - idx
		}
		e.renderSegment(idx, seg)
		e.samplesIntoStep += seg
		idx += seg
		if e.samplesIntoStep == e.samplesPerStep {
			e.samplesIntoStep = 0
			e.advanceStep()
		}
	}
	return e.out
}

// renderSegment renders seg samples starting at out[idx]. Segments never
// span a 16th-note grid boundary.
func (e *Engine) renderSegment(idx, seg int) {
	f := e.focus.Step(e.focusTarget, seg)
	e.baseline.Step(f, seg)
	g0 := e.gain.Value()
	g1 := e.gain.Step(e.gainTarget(f), seg)

	if f < e.cfg.LowFocusThreshold && !e.xfade.active && e.holdBars >= e.cfg.HoldBars/2 {
		e.startTextureChange(true)
	}

	pad := e.padA[:seg]
	if e.xfade.active {
		e.pads[e.active].Render(e.padA[:seg])
		e.pads[1-e.active].Render(e.padB[:seg])

		w0 := float64(e.xfade.pos) / float64(e.xfade.total)
		w1 := float64(e.xfade.pos+seg) / float64(e.xfade.total)
		if w1 > 1 {
			w1 = 1
		}
		inv := 1 / float64(seg)
		for i := 0; i < seg; i++ {
			w := w0 + (w1-w0)*float64(i)*inv
			pad[i] = (1-w)*e.padA[i] + w*e.padB[i]
		}

		e.xfade.pos += seg
		if e.xfade.pos >= e.xfade.total {
			e.xfade = crossfade{}
			e.active = 1 - e.active
			e.curArm = e.pendingArm
			e.pads[1-e.active].SetTexture(e.textures[e.curArm])
		}
	} else {
		e.pads[e.active].Render(pad)
	}

	drone := e.droneBuf[:seg]
	e.drone.Render(drone)

	inv := 1 / float64(seg)
	for i := 0; i < seg; i++ {
		v := e.cfg.PadMix*pad[i] + e.cfg.DroneMix*drone[i]
		v *= g0 + (g1-g0)*float64(i)*inv
		v = math.Tanh(v)
		if e.fadeDone+i < e.fadeTotal {
			v *= float64(e.fadeDone+i) / float64(e.fadeTotal)
		}
		e.out[idx+i] = float32(v)
	}
	if e.fadeDone < e.fadeTotal {
		e.fadeDone += seg
	}
}

func (e *Engine) advanceStep() {
	e.totalSteps++
	e.stepInBar++
	if e.stepInBar == e.cfg.StepsPerBar {
		e.stepInBar = 0
		e.advanceBar()
	}
}

// advanceBar runs the per-bar housekeeping in a fixed order: chord
// rotation, counters and focus history, key rotation, drone retarget,
// matured bandit evaluations, and finally a texture change when due.
func (e *Engine) advanceBar() {
	e.globalBar++

	e.barsOnChord++
	if e.barsOnChord >= e.cfg.BarsPerChord {
		e.barsOnChord = 0
		e.chordIdx = (e.chordIdx + 1) % len(e.prog)
		e.applyChord()
	}

	e.holdBars++
	e.sectionBars++
	e.history[e.globalBar%historyBars] = e.focus.Value()

	if e.sectionBars >= e.cfg.SectionLenBars {
		e.sectionBars = 0
		e.keyIdx = (e.keyIdx + 1) % len(e.cfg.KeyRoots)
		e.prog = synth.MinorProgression(e.cfg.KeyRoots[e.keyIdx])
		e.chordIdx = 0
		e.barsOnChord = 0
		e.applyChord()
	}

	if e.globalBar%int64(e.cfg.DroneChangeEveryBars) == 0 {
		if root, ok := e.prog[e.chordIdx].Root(); ok {
			e.drone.SetFreq(synth.NoteFreq(root))
		}
	}

	e.evaluatePending()

	if e.holdBars >= e.cfg.HoldBars && !e.xfade.active {
		e.startTextureChange(false)
	}
}

func (e *Engine) applyChord() {
	chord := e.prog[e.chordIdx]
	e.pads[0].SetChord(chord)
	e.pads[1].SetChord(chord)
}

// startTextureChange asks the bandit for the next arm, re-textures the
// inactive pad, and begins a crossfade toward it. At most one crossfade
// runs at a time; a change can not start while one is active.
func (e *Engine) startTextureChange(emergency bool) {
	if e.xfade.active {
		return
	}
	arm := e.bandit.Select()
	e.pendingArm = arm
	e.pads[1-e.active].SetTexture(e.textures[arm])

	secs := e.cfg.CrossfadeSeconds
	if emergency {
		secs = e.cfg.EmergencyCrossfadeSeconds
	}
	e.xfade = crossfade{active: true, total: int(secs * e.sr)}

	e.pending = append(e.pending, pendingEval{arm: arm, startBar: e.globalBar})
	e.holdBars = 0
}

// evaluatePending applies matured delayed rewards. An evaluation matures
// once delay+window bars have passed since its change started; its reward
// is computed from the focus history recorded during the window and
// applied to the bandit only with the configured sparse probability. The
// evaluation is removed either way.
func (e *Engine) evaluatePending() {
	mature := int64(e.cfg.EvalDelayBars + e.cfg.EvalWindowBars)
	kept := e.pending[:0]
	for _, p := range e.pending {
		if e.globalBar-p.startBar < mature {
			kept = append(kept, p)
			continue
		}

		var sum float64
		for b := int64(1); b <= int64(e.cfg.EvalWindowBars); b++ {
			bar := p.startBar + int64(e.cfg.EvalDelayBars) + b
			sum += e.history[bar%historyBars]
		}
		mean := sum / float64(e.cfg.EvalWindowBars)

		reward := (mean - 50) / 50
		if diff := mean - e.baseline.Value(); diff > 0 {
			reward += rewardBonus
		} else if diff < 0 {
			reward -= rewardBonus
		}
		if reward > 1 {
			reward = 1
		} else if reward < -1 {
			reward = -1
		}

		if e.rng.Float64() < e.cfg.RewardProb {
			e.bandit.Update(p.arm, reward)
		}
	}
	e.pending = kept
}
