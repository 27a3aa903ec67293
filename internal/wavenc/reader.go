// SPDX-License-Identifier: MIT
package wavenc

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/wav"

	"leopold/internal/signal"
)

// ErrDecoding reports an unreadable or non-WAV input file.
var ErrDecoding = errors.New("wavenc: decoding failed")

// ReadFile loads a PCM WAV file into a signal buffer, rescaling the
// integer samples back to [-1, 1] with the same asymmetric factors
// Quantize uses.
func ReadFile(path string) (*signal.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %s is not a PCM WAV file", ErrDecoding, path)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrDecoding, path, err)
	}
	if pcm.Format == nil || pcm.Format.NumChannels <= 0 || pcm.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: %s has no usable format", ErrDecoding, path)
	}

	depth := int(dec.BitDepth)
	if depth <= 0 {
		depth = 16
	}
	negScale := float64(int64(1) << (depth - 1))
	posScale := negScale - 1

	samples := make([]float64, len(pcm.Data))
	for i, v := range pcm.Data {
		if v < 0 {
			samples[i] = float64(v) / negScale
		} else {
			samples[i] = float64(v) / posScale
		}
	}

	buf, err := signal.FromInterleaved(samples, pcm.Format.SampleRate, pcm.Format.NumChannels)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecoding, path, err)
	}
	return buf, nil
}
