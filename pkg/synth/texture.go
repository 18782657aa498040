package synth

// Texture is an immutable pad preset: how deep the shared vibrato
// modulates pitch, how far the voices spread in cents, and how much
// second harmonic each voice contributes.
type Texture struct {
	Name         string  `yaml:"name"`
	VibratoDepth float64 `yaml:"vibrato_depth"`
	DetuneCents  float64 `yaml:"detune_cents"`
	Brightness   float64 `yaml:"brightness"`
}

// DefaultTextures returns a fresh copy of the built-in texture table.
// Callers own the returned slice; sessions never share one.
func DefaultTextures() []Texture {
	return []Texture{
		{Name: "calm", VibratoDepth: 0.0035, DetuneCents: 4, Brightness: 0.15},
		{Name: "glass", VibratoDepth: 0.0050, DetuneCents: 7, Brightness: 0.45},
		{Name: "warm", VibratoDepth: 0.0025, DetuneCents: 10, Brightness: 0.25},
		{Name: "hollow", VibratoDepth: 0.0060, DetuneCents: 3, Brightness: 0.05},
		{Name: "shimmer", VibratoDepth: 0.0080, DetuneCents: 12, Brightness: 0.60},
	}
}
