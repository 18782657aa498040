// Package session wraps an engine in the concurrency shell the transport
// consumes: a dedicated producer worker feeding a small bounded queue of
// encoded chunks, pull-based NextChunk with a silence fallback, and
// simple last-write-wins focus/volume inputs.
//
// The worker is self-healing: every public call checks liveness and
// restarts it if it died. A restart loses at most the in-flight chunk;
// session configuration survives. If the engine state itself were
// corrupted a restart would not repair it, but the engine performs no
// I/O and cannot fail transiently.
package session

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/driftaudio/driftpad/pkg/audio/pcm"
	"github.com/driftaudio/driftpad/pkg/engine"
	"github.com/driftaudio/driftpad/pkg/policy"
)

// ErrJoinTimeout is returned by Close when the worker does not exit
// within the join timeout. The stop flag remains set; the worker will
// still exit on its next loop iteration.
var ErrJoinTimeout = errors.New("session: worker join timeout")

// Defaults for the concurrency shell.
const (
	defaultQueueCap    = 16 // chunks, ~4s at 0.25s per chunk
	defaultNextTimeout = 500 * time.Millisecond
	defaultIdle        = 50 * time.Millisecond
	defaultRetry       = 10 * time.Millisecond
	defaultJoinTimeout = time.Second
)

// Option configures a Session.
type Option interface {
	apply(*Session)
}

type queueCapOption int

func (o queueCapOption) apply(s *Session) {
	s.queueCap = int(o)
}

// WithQueueCapacity sets the bounded queue capacity in chunks.
func WithQueueCapacity(n int) Option {
	return queueCapOption(n)
}

type nextTimeoutOption time.Duration

func (o nextTimeoutOption) apply(s *Session) {
	s.nextTimeout = time.Duration(o)
}

// WithNextChunkTimeout bounds how long NextChunk waits before returning
// silence.
func WithNextChunkTimeout(d time.Duration) Option {
	return nextTimeoutOption(d)
}

type idleOption time.Duration

func (o idleOption) apply(s *Session) {
	s.idle = time.Duration(o)
}

// WithIdleInterval sets the worker's backpressure idle interval.
func WithIdleInterval(d time.Duration) Option {
	return idleOption(d)
}

type policyOption policy.State

func (o policyOption) apply(s *Session) {
	st := policy.State(o)
	s.policyPrior = &st
}

// WithPolicyState seeds the engine's texture policy from a saved
// snapshot before the worker starts. A snapshot whose arm count does
// not match the configured textures is rejected by New.
func WithPolicyState(st policy.State) Option {
	return policyOption(st)
}

// renderWrapOption replaces the worker's render call with a wrapped one.
// Test-only; it lets failure injection reach the worker loop.
type renderWrapOption func(func() []float32) func() []float32

func (o renderWrapOption) apply(s *Session) {
	s.render = o(s.eng.RenderChunk)
}

// Session owns one Engine and one bounded output queue. Sessions never
// share mutable state; each websocket client or player gets its own.
type Session struct {
	eng        *engine.Engine
	format     pcm.Format
	chunkBytes int
	render     func() []float32

	queueCap    int
	nextTimeout time.Duration
	idle        time.Duration
	retry       time.Duration
	joinTimeout time.Duration

	queue chan []byte

	focus  pcm.AtomicFloat64
	volume pcm.AtomicFloat64
	skip   atomic.Bool
	stop   atomic.Bool
	alive  atomic.Bool

	policyPrior *policy.State

	mu   sync.Mutex
	done chan struct{}
}

// New creates a session around a freshly built engine and starts its
// worker.
func New(cfg engine.Config, opts ...Option) (*Session, error) {
	eng, err := engine.New(cfg)
	if err != nil {
		return nil, err
	}
	format, ok := pcm.FormatForRate(eng.SampleRate())
	if !ok {
		return nil, fmt.Errorf("session: no wire format for sample rate %d", eng.SampleRate())
	}

	s := &Session{
		eng:         eng,
		format:      format,
		chunkBytes:  int(format.Bytes(int64(eng.ChunkSamples()))),
		queueCap:    defaultQueueCap,
		nextTimeout: defaultNextTimeout,
		idle:        defaultIdle,
		retry:       defaultRetry,
		joinTimeout: defaultJoinTimeout,
	}
	for _, opt := range opts {
		opt.apply(s)
	}
	if s.render == nil {
		s.render = eng.RenderChunk
	}
	s.queue = make(chan []byte, s.queueCap)
	s.focus.Store(50)
	s.volume.Store(0.8)

	if s.policyPrior != nil {
		if err := eng.RestorePolicy(*s.policyPrior); err != nil {
			return nil, err
		}
	}

	s.ensureWorker()
	return s, nil
}

// Engine exposes the underlying engine for snapshotting policy state.
// Callers must not invoke rendering methods on it; the worker owns those.
func (s *Session) Engine() *engine.Engine {
	return s.eng
}

// SetFocus records the latest external focus value. Last write wins; the
// worker picks it up on its next iteration, so a one-chunk-stale value is
// possible and accepted.
func (s *Session) SetFocus(v float64) {
	s.focus.Store(v)
	s.ensureWorker()
}

// SetVolume sets the output volume in [0,1]. It scales returned samples
// after rendering, independent of the engine's internal gain staging.
func (s *Session) SetVolume(v float64) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	s.volume.Store(v)
	s.ensureWorker()
}

// Skip requests an emergency texture change. The worker applies it before
// rendering its next chunk.
func (s *Session) Skip() {
	s.skip.Store(true)
	s.ensureWorker()
}

// NextChunk returns the next encoded chunk: mono float32 little-endian
// PCM, scaled by the current volume. If no chunk arrives within the
// timeout it returns one full chunk of silence instead of blocking or
// failing.
func (s *Session) NextChunk() []byte {
	s.ensureWorker()

	timer := time.NewTimer(s.nextTimeout)
	defer timer.Stop()

	select {
	case buf := <-s.queue:
		s.applyVolume(buf)
		return buf
	case <-timer.C:
		var b bytes.Buffer
		b.Grow(s.chunkBytes)
		s.format.SilenceChunk(s.ChunkDuration()).WriteTo(&b)
		return b.Bytes()
	}
}

// Format returns the output PCM format.
func (s *Session) Format() pcm.Format {
	return s.format
}

// ChunkDuration returns the wall-clock duration of one chunk.
func (s *Session) ChunkDuration() time.Duration {
	return s.format.Duration(int64(s.chunkBytes))
}

// Close stops the worker cooperatively and waits up to the join timeout.
// ErrJoinTimeout means the worker had not exited yet, not that it leaked:
// it still observes the stop flag on its next iteration.
func (s *Session) Close() error {
	s.stop.Store(true)

	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-time.After(s.joinTimeout):
		return ErrJoinTimeout
	}
}

// ensureWorker restarts the worker if it is not alive. Every public entry
// point calls it; liveness is never checked on a timer.
func (s *Session) ensureWorker() {
	if s.stop.Load() || s.alive.Load() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop.Load() || s.alive.Load() {
		return
	}
	s.alive.Store(true)
	s.done = make(chan struct{})
	go s.worker(s.done)
}

// worker continuously produces chunks: idle briefly under backpressure,
// otherwise push the latest focus into the engine, render, and enqueue,
// retrying on a transiently full queue rather than dropping the chunk.
func (s *Session) worker(done chan struct{}) {
	defer close(done)
	defer s.alive.Store(false)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("session: worker crashed", "panic", r)
		}
	}()

	for !s.stop.Load() {
		if len(s.queue) > s.queueCap/2 {
			time.Sleep(s.idle)
			continue
		}

		if s.skip.Swap(false) {
			s.eng.Skip()
		}
		s.eng.SetFocus(s.focus.Load())

		samples := s.render()
		var b bytes.Buffer
		b.Grow(s.chunkBytes)
		s.format.FloatChunk(samples).WriteTo(&b)
		buf := b.Bytes()

		for {
			select {
			case s.queue <- buf:
			default:
				time.Sleep(s.retry)
				if s.stop.Load() {
					return
				}
				continue
			}
			break
		}
	}
}

// applyVolume scales the encoded samples in place by the current volume.
func (s *Session) applyVolume(buf []byte) {
	v := float32(s.volume.Load())
	if v == 1 {
		return
	}
	n := len(buf) / 4
	samples := make([]float32, n)
	pcm.DecodeFloats(samples, buf)
	for i := range samples {
		samples[i] *= v
	}
	pcm.EncodeFloats(buf, samples)
}
