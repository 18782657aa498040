// Package pcm provides types and utilities for working with PCM (Pulse Code
// Modulation) audio data.
//
// The package defines mono 32-bit floating-point formats at common sample
// rates and provides chunk types for moving audio data around.
//
// Key types:
//   - Format: Represents audio format (sample rate, channels, bit depth)
//   - Chunk: Interface for audio data chunks
//   - DataChunk: Concrete implementation of Chunk for raw audio data
//   - SilenceChunk: Chunk that produces silence of a specified duration
//
// Example usage:
//
//	// 48kHz mono float32
//	format := pcm.F32Mono48K
//
//	// Bytes needed for 250ms of audio
//	bytes := format.BytesInDuration(250 * time.Millisecond)
//
//	// A silence chunk
//	silence := format.SilenceChunk(250 * time.Millisecond)
//
//	// A chunk from rendered samples
//	chunk := format.FloatChunk(samples)
package pcm
