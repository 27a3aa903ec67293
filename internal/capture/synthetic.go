// SPDX-License-Identifier: MIT
package capture

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// SyntheticDevice generates a phase-continuous sine tone instead of
// touching hardware. Tests use its failure knobs to drive the session
// through permission and device-error paths; the --synthetic flag uses
// it for demos on machines with no microphone.
type SyntheticDevice struct {
	// Frequency and Amplitude shape the tone. Zero values default to
	// 440Hz at 0.5.
	Frequency float64
	Amplitude float64

	// ChunkInterval paces delivery. Zero means as fast as the consumer
	// drains, which keeps tests quick.
	ChunkInterval time.Duration

	// DenyAccess makes Acquire fail with ErrPermission.
	DenyAccess bool

	// FailAfterChunks ends the stream with ErrDevice after that many
	// chunks. Zero means never.
	FailAfterChunks int

	releases atomic.Int32
}

func (d *SyntheticDevice) Name() string { return "synthetic tone" }

func (d *SyntheticDevice) Supported() bool { return true }

// ReleaseCount reports how many times Release was called across all
// streams this device produced. Sessions must release exactly once per
// acquisition, which tests assert through this counter.
func (d *SyntheticDevice) ReleaseCount() int {
	return int(d.releases.Load())
}

// Acquire starts the generator goroutine and returns its stream.
func (d *SyntheticDevice) Acquire(cfg StreamConfig) (Stream, error) {
	if d.DenyAccess {
		return nil, fmt.Errorf("%w: synthetic device is configured to deny access", ErrPermission)
	}
	if cfg.SampleRate <= 0 || cfg.ChannelCount <= 0 || cfg.FramesPerBuffer <= 0 {
		return nil, fmt.Errorf("%w: invalid stream config %+v", ErrPermission, cfg)
	}

	freq := d.Frequency
	if freq == 0 {
		freq = 440
	}
	amp := d.Amplitude
	if amp == 0 {
		amp = 0.5
	}

	s := &syntheticStream{
		chunks:   make(chan []float64, chunkQueueDepth),
		done:     make(chan struct{}),
		releases: &d.releases,
	}
	go s.run(cfg, freq, amp, d.ChunkInterval, d.FailAfterChunks)
	return s, nil
}

type syntheticStream struct {
	chunks   chan []float64
	done     chan struct{}
	releases *atomic.Int32

	releaseOnce sync.Once
	closeOnce   sync.Once

	mu  sync.Mutex
	err error
}

func (s *syntheticStream) Chunks() <-chan []float64 { return s.chunks }

func (s *syntheticStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *syntheticStream) Release() error {
	s.releases.Add(1)
	s.releaseOnce.Do(func() { close(s.done) })
	return nil
}

func (s *syntheticStream) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// run produces tone chunks until released or the configured failure
// point. It owns the chunks channel and closes it on every exit path.
func (s *syntheticStream) run(cfg StreamConfig, freq, amp float64, interval time.Duration, failAfter int) {
	defer s.closeOnce.Do(func() { close(s.chunks) })

	step := 2 * math.Pi * freq / float64(cfg.SampleRate)
	phase := 0.0
	sent := 0

	for {
		chunk := make([]float64, cfg.FramesPerBuffer*cfg.ChannelCount)
		for frame := 0; frame < cfg.FramesPerBuffer; frame++ {
			v := amp * math.Sin(phase)
			phase += step
			for ch := 0; ch < cfg.ChannelCount; ch++ {
				chunk[frame*cfg.ChannelCount+ch] = v
			}
		}
		// Keep the phase accumulator small over long sessions.
		phase = math.Mod(phase, 2*math.Pi)

		select {
		case s.chunks <- chunk:
		case <-s.done:
			return
		}

		sent++
		if failAfter > 0 && sent >= failAfter {
			s.setErr(fmt.Errorf("%w: synthetic stream ended after %d chunks", ErrDevice, sent))
			return
		}

		if interval > 0 {
			select {
			case <-time.After(interval):
			case <-s.done:
				return
			}
		}
	}
}
