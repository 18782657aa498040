// Package audio is an umbrella for audio format sub-packages.
//
//   - pcm: raw PCM format handling and float32 chunk codecs
//
// Example usage:
//
//	import "github.com/driftaudio/driftpad/pkg/audio/pcm"
//
//	format := pcm.F32Mono48K
//	buf := make([]byte, format.BytesInDuration(250*time.Millisecond))
package audio
