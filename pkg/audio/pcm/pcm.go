package pcm

import (
	"encoding/binary"
	"io"
	"math"
	"time"
)

const (
	// F32Mono8K represents mono 32-bit float PCM at 8000 Hz, little-endian.
	F32Mono8K Format = iota
	// F32Mono16K represents mono 32-bit float PCM at 16000 Hz, little-endian.
	F32Mono16K
	// F32Mono24K represents mono 32-bit float PCM at 24000 Hz, little-endian.
	F32Mono24K
	// F32Mono48K represents mono 32-bit float PCM at 48000 Hz, little-endian.
	F32Mono48K
)

// FormatForRate returns the mono float32 format with the given sample
// rate, and whether one exists.
func FormatForRate(rate int) (Format, bool) {
	switch rate {
	case 8000:
		return F32Mono8K, true
	case 16000:
		return F32Mono16K, true
	case 24000:
		return F32Mono24K, true
	case 48000:
		return F32Mono48K, true
	}
	return 0, false
}

// Chunk is a chunk of audio data.
type Chunk interface {
	Len() int64
	Format() Format
	WriteTo(w io.Writer) (int64, error)
}

// Format represents an audio format configuration.
type Format int

// SampleRate returns the sample rate in Hz for this format.
func (f Format) SampleRate() int {
	switch f {
	case F32Mono8K:
		return 8000
	case F32Mono16K:
		return 16000
	case F32Mono24K:
		return 24000
	case F32Mono48K:
		return 48000
	}
	panic("pcm: invalid audio format")
}

// Channels returns the number of audio channels for this format.
func (f Format) Channels() int {
	switch f {
	case F32Mono8K, F32Mono16K, F32Mono24K, F32Mono48K:
		return 1
	}
	panic("pcm: invalid audio format")
}

// Depth returns the bit depth for this format.
func (f Format) Depth() int {
	switch f {
	case F32Mono8K, F32Mono16K, F32Mono24K, F32Mono48K:
		return 32
	}
	panic("pcm: invalid audio format")
}

// Samples returns the number of samples in the given number of bytes.
func (f Format) Samples(bytes int64) int64 {
	return bytes * 8 / int64(f.Channels()) / int64(f.Depth())
}

// Bytes returns the number of bytes occupied by the given number of samples.
func (f Format) Bytes(samples int64) int64 {
	return samples * int64(f.Channels()) * int64(f.Depth()) / 8
}

// SamplesInDuration returns the number of samples in the given duration.
func (f Format) SamplesInDuration(d time.Duration) int64 {
	return int64(time.Duration(f.SampleRate()) * d / time.Second)
}

// BytesInDuration returns the number of bytes in the given duration.
func (f Format) BytesInDuration(d time.Duration) int64 {
	return f.Bytes(f.SamplesInDuration(d))
}

// Duration returns the duration of the given number of bytes.
func (f Format) Duration(bytes int64) time.Duration {
	return time.Duration(f.Samples(bytes)) * time.Second / time.Duration(f.SampleRate())
}

// BitsRate returns the bit rate of the audio data.
func (f Format) BitsRate() int {
	return f.SampleRate() * f.Channels() * f.Depth()
}

// BytesRate returns the byte rate of the audio data.
func (f Format) BytesRate() int {
	return f.BitsRate() / 8
}

// SilenceChunk returns a silence chunk of the given duration.
func (f Format) SilenceChunk(duration time.Duration) Chunk {
	return &SilenceChunk{
		Duration: duration,
		len:      f.BytesInDuration(duration),
		fmt:      f,
	}
}

// DataChunk returns a chunk of audio data.
func (f Format) DataChunk(data []byte) Chunk {
	return &DataChunk{
		Data: data,
		fmt:  f,
	}
}

// FloatChunk returns a chunk holding the little-endian encoding of the
// given float32 samples.
func (f Format) FloatChunk(samples []float32) Chunk {
	data := make([]byte, len(samples)*4)
	EncodeFloats(data, samples)
	return f.DataChunk(data)
}

// String returns a human-readable string representation of the format.
func (f Format) String() string {
	switch f {
	case F32Mono8K:
		return "audio/F32LE; rate=8000; channels=1"
	case F32Mono16K:
		return "audio/F32LE; rate=16000; channels=1"
	case F32Mono24K:
		return "audio/F32LE; rate=24000; channels=1"
	case F32Mono48K:
		return "audio/F32LE; rate=48000; channels=1"
	}
	panic("pcm: invalid audio format")
}

// EncodeFloats writes the little-endian IEEE 754 encoding of src into dst.
// dst must hold at least 4*len(src) bytes.
func EncodeFloats(dst []byte, src []float32) {
	for i, s := range src {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(s))
	}
}

// DecodeFloats decodes little-endian float32 samples from src into dst.
// dst must hold at least len(src)/4 samples.
func DecodeFloats(dst []float32, src []byte) {
	for i := 0; i < len(src)/4; i++ {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
}

// DataChunk is a chunk of audio data.
type DataChunk struct {
	Data []byte
	fmt  Format
}

// Len returns the length of the audio data in bytes.
func (c *DataChunk) Len() int64 {
	return int64(len(c.Data))
}

// Format returns the audio format of this chunk.
func (c *DataChunk) Format() Format {
	return c.fmt
}

// WriteTo writes the audio data to the writer.
func (c *DataChunk) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(c.Data)
	return int64(n), err
}

// SilenceChunk is a chunk of silence.
type SilenceChunk struct {
	Duration time.Duration
	len      int64
	fmt      Format
}

// Len returns the length of the silence in bytes.
func (c *SilenceChunk) Len() int64 {
	return c.len
}

// Format returns the audio format of this chunk.
func (c *SilenceChunk) Format() Format {
	return c.fmt
}

var emptyBytes [32000]byte

// WriteTo writes silence (zero bytes) to the writer.
func (c *SilenceChunk) WriteTo(w io.Writer) (int64, error) {
	tw := c.len
	wn := int64(0)
	for tw > 0 {
		var silence []byte
		if tw > int64(len(emptyBytes)) {
			silence = emptyBytes[:]
			tw -= int64(len(silence))
		} else {
			silence = emptyBytes[:tw]
			tw = 0
		}
		n, err := w.Write(silence)
		if err != nil {
			return 0, err
		}
		wn += int64(n)
	}
	return wn, nil
}
