package engine

import (
	"fmt"
	"math/rand"

	"github.com/driftaudio/driftpad/pkg/synth"
)

// Config is the construction-time configuration of an Engine. None of it
// is exposed at runtime; a session tears the engine down and builds a new
// one to change any of these.
//
// A zero value for any field takes the documented default.
type Config struct {
	SampleRate   int `yaml:"sample_rate"`   // default 48000
	ChunkSamples int `yaml:"chunk_samples"` // default 12000 (0.25s)

	TempoBPM    float64 `yaml:"tempo_bpm"`     // default 70
	StepsPerBar int     `yaml:"steps_per_bar"` // default 16

	BarsPerChord         int `yaml:"bars_per_chord"`          // default 2
	SectionLenBars       int `yaml:"section_len_bars"`        // default 16
	DroneChangeEveryBars int `yaml:"drone_change_every_bars"` // default 4
	HoldBars             int `yaml:"hold_bars"`               // default 8

	// Textures is the bandit's arm table. Defaults to
	// synth.DefaultTextures().
	Textures []synth.Texture `yaml:"textures"`

	// KeyRoots is the cycle of key root notes. Defaults to A2,F2,C3,G2.
	KeyRoots []int `yaml:"key_roots"`

	Epsilon        float64 `yaml:"epsilon"`          // default 0.15
	EvalDelayBars  int     `yaml:"eval_delay_bars"`  // default 2
	EvalWindowBars int     `yaml:"eval_window_bars"` // default 4
	RewardProb     float64 `yaml:"reward_prob"`      // default 0.5

	CrossfadeSeconds          float64 `yaml:"crossfade_seconds"`           // default 4
	EmergencyCrossfadeSeconds float64 `yaml:"emergency_crossfade_seconds"` // default 6

	FocusTau    float64 `yaml:"focus_tau"`    // seconds, default 2
	BaselineTau float64 `yaml:"baseline_tau"` // seconds, default 30
	GainTau     float64 `yaml:"gain_tau"`     // seconds, default 6

	MasterGainMax     float64 `yaml:"master_gain_max"`     // default 0.85, at focus 0
	MasterGainMin     float64 `yaml:"master_gain_min"`     // default 0.40, at focus 100
	LowFocusThreshold float64 `yaml:"low_focus_threshold"` // default 35

	DroneCutoffHz float64 `yaml:"drone_cutoff_hz"` // default 600
	PadMix        float64 `yaml:"pad_mix"`         // default 0.8
	DroneMix      float64 `yaml:"drone_mix"`       // default 0.35
	FadeInSeconds float64 `yaml:"fade_in_seconds"` // default 2

	// Seed seeds the engine's private random source; 0 means seed from
	// the clock. Ignored when Rand is set.
	Seed int64 `yaml:"seed"`

	// Rand overrides Seed with a caller-owned source. It must not be
	// shared across sessions.
	Rand *rand.Rand `yaml:"-"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	var c Config
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.SampleRate == 0 {
		c.SampleRate = 48000
	}
	if c.ChunkSamples == 0 {
		c.ChunkSamples = c.SampleRate / 4
	}
	if c.TempoBPM == 0 {
		c.TempoBPM = 70
	}
	if c.StepsPerBar == 0 {
		c.StepsPerBar = 16
	}
	if c.BarsPerChord == 0 {
		c.BarsPerChord = 2
	}
	if c.SectionLenBars == 0 {
		c.SectionLenBars = 16
	}
	if c.DroneChangeEveryBars == 0 {
		c.DroneChangeEveryBars = 4
	}
	if c.HoldBars == 0 {
		c.HoldBars = 8
	}
	if len(c.Textures) == 0 {
		c.Textures = synth.DefaultTextures()
	}
	if len(c.KeyRoots) == 0 {
		c.KeyRoots = []int{45, 41, 48, 43} // A2 F2 C3 G2
	}
	if c.Epsilon == 0 {
		c.Epsilon = 0.15
	}
	if c.EvalDelayBars == 0 {
		c.EvalDelayBars = 2
	}
	if c.EvalWindowBars == 0 {
		c.EvalWindowBars = 4
	}
	if c.RewardProb == 0 {
		c.RewardProb = 0.5
	}
	if c.CrossfadeSeconds == 0 {
		c.CrossfadeSeconds = 4
	}
	if c.EmergencyCrossfadeSeconds == 0 {
		c.EmergencyCrossfadeSeconds = 6
	}
	if c.FocusTau == 0 {
		c.FocusTau = 2
	}
	if c.BaselineTau == 0 {
		c.BaselineTau = 30
	}
	if c.GainTau == 0 {
		c.GainTau = 6
	}
	if c.MasterGainMax == 0 {
		c.MasterGainMax = 0.85
	}
	if c.MasterGainMin == 0 {
		c.MasterGainMin = 0.40
	}
	if c.LowFocusThreshold == 0 {
		c.LowFocusThreshold = 35
	}
	if c.DroneCutoffHz == 0 {
		c.DroneCutoffHz = 600
	}
	if c.PadMix == 0 {
		c.PadMix = 0.8
	}
	if c.DroneMix == 0 {
		c.DroneMix = 0.35
	}
	if c.FadeInSeconds == 0 {
		c.FadeInSeconds = 2
	}
}

func (c *Config) validate() error {
	if c.TempoBPM < 0 || c.SampleRate < 8000 {
		return fmt.Errorf("engine: invalid sample rate %d / tempo %v", c.SampleRate, c.TempoBPM)
	}
	if int(float64(c.SampleRate)*15/c.TempoBPM) < 1 {
		return fmt.Errorf("engine: tempo %v leaves no samples per step at rate %d", c.TempoBPM, c.SampleRate)
	}
	if c.MasterGainMin > c.MasterGainMax {
		return fmt.Errorf("engine: master gain min %v above max %v", c.MasterGainMin, c.MasterGainMax)
	}
	for i, tex := range c.Textures {
		if tex.Name == "" {
			return fmt.Errorf("engine: texture %d has no name", i)
		}
	}
	return nil
}
