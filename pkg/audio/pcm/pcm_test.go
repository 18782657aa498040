package pcm

import (
	"bytes"
	"math"
	"testing"
	"time"
)

func TestFormatMath(t *testing.T) {
	f := F32Mono48K

	if got := f.SamplesInDuration(250 * time.Millisecond); got != 12000 {
		t.Errorf("SamplesInDuration(250ms) = %d, want 12000", got)
	}
	if got := f.BytesInDuration(250 * time.Millisecond); got != 48000 {
		t.Errorf("BytesInDuration(250ms) = %d, want 48000", got)
	}
	if got := f.Samples(48000); got != 12000 {
		t.Errorf("Samples(48000) = %d, want 12000", got)
	}
	if got := f.Duration(48000); got != 250*time.Millisecond {
		t.Errorf("Duration(48000) = %v, want 250ms", got)
	}
	if got := f.BytesRate(); got != 48000*4 {
		t.Errorf("BytesRate = %d, want %d", got, 48000*4)
	}
}

func TestFormatForRate(t *testing.T) {
	cases := []struct {
		rate int
		want Format
	}{
		{8000, F32Mono8K},
		{16000, F32Mono16K},
		{24000, F32Mono24K},
		{48000, F32Mono48K},
	}
	for _, c := range cases {
		f, ok := FormatForRate(c.rate)
		if !ok || f != c.want {
			t.Errorf("FormatForRate(%d) = %v, %v; want %v, true", c.rate, f, ok, c.want)
		}
		if f.SampleRate() != c.rate {
			t.Errorf("FormatForRate(%d).SampleRate() = %d", c.rate, f.SampleRate())
		}
	}
	if _, ok := FormatForRate(44100); ok {
		t.Error("FormatForRate(44100) reported a format")
	}
}

func TestEncodeDecodeFloats(t *testing.T) {
	src := []float32{0, 1, -1, 0.5, -0.25, float32(math.Pi / 4)}
	data := make([]byte, len(src)*4)
	EncodeFloats(data, src)

	// Spot check little-endian layout: 1.0 encodes as 0x3f800000.
	if data[4] != 0x00 || data[5] != 0x00 || data[6] != 0x80 || data[7] != 0x3f {
		t.Errorf("sample 1.0 encoded as % x, want 00 00 80 3f", data[4:8])
	}

	dst := make([]float32, len(src))
	DecodeFloats(dst, data)
	for i := range src {
		if dst[i] != src[i] {
			t.Errorf("sample %d: got %v, want %v", i, dst[i], src[i])
		}
	}
}

func TestSilenceChunk(t *testing.T) {
	f := F32Mono48K
	chunk := f.SilenceChunk(250 * time.Millisecond)

	if chunk.Len() != 48000 {
		t.Fatalf("silence chunk length = %d, want 48000", chunk.Len())
	}

	var buf bytes.Buffer
	n, err := chunk.WriteTo(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != 48000 || buf.Len() != 48000 {
		t.Fatalf("wrote %d bytes (buffer %d), want 48000", n, buf.Len())
	}
	for i, b := range buf.Bytes() {
		if b != 0 {
			t.Fatalf("byte %d is %d, want 0", i, b)
		}
	}
}

func TestAtomicFloat64(t *testing.T) {
	af := NewAtomicFloat64(0.8)
	if got := af.Load(); got != 0.8 {
		t.Fatalf("Load = %v, want 0.8", got)
	}
	af.Store(-1.5)
	if got := af.Load(); got != -1.5 {
		t.Fatalf("Load after Store = %v, want -1.5", got)
	}

	var zero AtomicFloat64
	if got := zero.Load(); got != 0 {
		t.Fatalf("zero value Load = %v, want 0", got)
	}
}

func TestFloatChunkRoundTrip(t *testing.T) {
	f := F32Mono48K
	samples := make([]float32, 480)
	for i := range samples {
		samples[i] = float32(math.Sin(2 * math.Pi * 440 * float64(i) / 48000))
	}

	chunk := f.FloatChunk(samples)
	if chunk.Len() != int64(len(samples)*4) {
		t.Fatalf("chunk length = %d, want %d", chunk.Len(), len(samples)*4)
	}

	var buf bytes.Buffer
	if _, err := chunk.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	decoded := make([]float32, len(samples))
	DecodeFloats(decoded, buf.Bytes())
	for i := range samples {
		if decoded[i] != samples[i] {
			t.Fatalf("sample %d: got %v, want %v", i, decoded[i], samples[i])
		}
	}
}
