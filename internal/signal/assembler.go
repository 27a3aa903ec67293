// SPDX-License-Identifier: MIT
package signal

import (
	"errors"
	"fmt"
	"math"
)

// ErrFinalized reports use of an Assembler after Finalize.
var ErrFinalized = errors.New("signal: assembler already finalized")

// Assembler accumulates interleaved capture chunks in arrival order and
// produces the immutable Buffer when the session stops. It is not safe
// for concurrent use; the session loop is its single writer.
type Assembler struct {
	sampleRate   int
	channelCount int
	chunks       [][]float64
	samples      int // total interleaved samples accumulated
	finalized    bool
}

// NewAssembler prepares assembly for a capture session.
func NewAssembler(sampleRate, channelCount int) (*Assembler, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d must be positive", ErrInvalidBuffer, sampleRate)
	}
	if channelCount <= 0 {
		return nil, fmt.Errorf("%w: channel count %d must be positive", ErrInvalidBuffer, channelCount)
	}
	return &Assembler{sampleRate: sampleRate, channelCount: channelCount}, nil
}

// Append copies one interleaved chunk into the assembly. Chunk length
// must be a whole number of frames and every value finite; rejecting bad
// chunks here fails the session immediately instead of at Finalize,
// after the user already stopped. Appending nothing is a no-op.
func (a *Assembler) Append(chunk []float64) error {
	if a.finalized {
		return ErrFinalized
	}
	if len(chunk)%a.channelCount != 0 {
		return fmt.Errorf("%w: chunk of %d samples not divisible by %d channels",
			ErrInvalidBuffer, len(chunk), a.channelCount)
	}
	if len(chunk) == 0 {
		return nil
	}
	for i, v := range chunk {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite sample %g at index %d", ErrInvalidBuffer, v, i)
		}
	}

	owned := make([]float64, len(chunk))
	copy(owned, chunk)
	a.chunks = append(a.chunks, owned)
	a.samples += len(chunk)
	return nil
}

// Frames returns the number of complete frames accumulated so far.
func (a *Assembler) Frames() int {
	return a.samples / a.channelCount
}

// Duration returns the accumulated audio length in seconds.
func (a *Assembler) Duration() float64 {
	return float64(a.Frames()) / float64(a.sampleRate)
}

// Reset discards everything accumulated so far. Used on cancel and on
// mid-session device failure, where no partial recording may survive.
func (a *Assembler) Reset() {
	a.chunks = nil
	a.samples = 0
	a.finalized = false
}

// Finalize concatenates the chunks, preserving arrival order exactly,
// and returns the immutable Buffer. The Assembler accepts no further
// appends afterwards.
func (a *Assembler) Finalize() (*Buffer, error) {
	if a.finalized {
		return nil, ErrFinalized
	}
	a.finalized = true

	flat := make([]float64, 0, a.samples)
	for _, chunk := range a.chunks {
		flat = append(flat, chunk...)
	}
	a.chunks = nil

	return FromInterleaved(flat, a.sampleRate, a.channelCount)
}
