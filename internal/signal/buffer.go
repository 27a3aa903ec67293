// SPDX-License-Identifier: MIT
//
// Package signal holds the immutable in-memory representation of captured
// audio: per-channel float64 samples in [-1, 1] plus rate and channel
// metadata. A Buffer is constructed exactly once, after capture stops,
// and is read-only from then on; the Assembler is the only writer and it
// exists only while a session is live.
package signal

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidBuffer reports a constructor invariant violation
	// (no channels, mismatched channel lengths, bad rate, non-finite sample).
	ErrInvalidBuffer = errors.New("signal: invalid buffer")

	// ErrIndexOutOfRange reports a channel index >= ChannelCount.
	ErrIndexOutOfRange = errors.New("signal: channel index out of range")
)

// Buffer is an immutable audio sample container. All channels have equal
// length, the sample rate is positive, and every amplitude is finite.
type Buffer struct {
	channels   [][]float64
	sampleRate int
}

// NewBuffer constructs a Buffer from per-channel sample slices, copying
// the input so later mutation by the caller cannot reach the Buffer.
// The invariants are enforced here and hold for the Buffer's lifetime.
func NewBuffer(channels [][]float64, sampleRate int) (*Buffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d must be positive", ErrInvalidBuffer, sampleRate)
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("%w: at least one channel required", ErrInvalidBuffer)
	}

	frames := len(channels[0])
	owned := make([][]float64, len(channels))
	for ch, samples := range channels {
		if len(samples) != frames {
			return nil, fmt.Errorf("%w: channel %d has %d samples, channel 0 has %d",
				ErrInvalidBuffer, ch, len(samples), frames)
		}
		for i, v := range samples {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: non-finite sample %g at channel %d index %d",
					ErrInvalidBuffer, v, ch, i)
			}
		}
		owned[ch] = make([]float64, frames)
		copy(owned[ch], samples)
	}

	return &Buffer{channels: owned, sampleRate: sampleRate}, nil
}

// FromInterleaved constructs a Buffer by deinterleaving a flat sample
// slice (frame-major: L R L R ... for stereo). The flat length must be a
// multiple of channelCount.
func FromInterleaved(flat []float64, sampleRate, channelCount int) (*Buffer, error) {
	if channelCount <= 0 {
		return nil, fmt.Errorf("%w: channel count %d must be positive", ErrInvalidBuffer, channelCount)
	}
	if len(flat)%channelCount != 0 {
		return nil, fmt.Errorf("%w: %d interleaved samples not divisible by %d channels",
			ErrInvalidBuffer, len(flat), channelCount)
	}

	frames := len(flat) / channelCount
	channels := make([][]float64, channelCount)
	for ch := range channels {
		channels[ch] = make([]float64, frames)
	}
	for i, v := range flat {
		channels[i%channelCount][i/channelCount] = v
	}

	return NewBuffer(channels, sampleRate)
}

// SampleRate returns the sample rate in Hz.
func (b *Buffer) SampleRate() int { return b.sampleRate }

// ChannelCount returns the number of channels.
func (b *Buffer) ChannelCount() int { return len(b.channels) }

// Frames returns the per-channel sample count.
func (b *Buffer) Frames() int { return len(b.channels[0]) }

// Duration returns the buffer length in seconds: Frames / SampleRate.
func (b *Buffer) Duration() float64 {
	return float64(b.Frames()) / float64(b.sampleRate)
}

// Channel returns channel i's samples. The returned slice is the Buffer's
// own storage and must not be modified. Fails with ErrIndexOutOfRange
// when i is not a valid channel index.
func (b *Buffer) Channel(i int) ([]float64, error) {
	if i < 0 || i >= len(b.channels) {
		return nil, fmt.Errorf("%w: %d of %d channels", ErrIndexOutOfRange, i, len(b.channels))
	}
	return b.channels[i], nil
}

// Mono returns a fresh average mixdown across channels, the canonical
// analysis signal for feature extraction. A mono buffer yields a copy.
func (b *Buffer) Mono() []float64 {
	frames := b.Frames()
	out := make([]float64, frames)
	if len(b.channels) == 1 {
		copy(out, b.channels[0])
		return out
	}

	scale := 1.0 / float64(len(b.channels))
	for _, ch := range b.channels {
		for i, v := range ch {
			out[i] += v * scale
		}
	}
	return out
}

// Interleaved returns a fresh frame-major interleaving of all channels,
// the sample order PCM encoders want.
func (b *Buffer) Interleaved() []float64 {
	frames := b.Frames()
	chs := len(b.channels)
	out := make([]float64, frames*chs)
	for ch, samples := range b.channels {
		for i, v := range samples {
			out[i*chs+ch] = v
		}
	}
	return out
}
