// SPDX-License-Identifier: MIT
package dsp

import (
	"fmt"
	"math"

	"leopold/internal/signal"
)

// Resample converts a buffer to targetRate by nearest-neighbor index
// mapping: output length round(oldLen·target/old), source index
// floor(i·old/target). Lossy and not bandlimited; serves the preview
// and analysis paths, not archival audio. Equal rates return a fresh
// buffer with identical samples. Fails with ErrInvalidInput on a
// non-positive target rate.
func Resample(buf *signal.Buffer, targetRate int) (*signal.Buffer, error) {
	if targetRate <= 0 {
		return nil, fmt.Errorf("%w: target rate %d must be positive", ErrInvalidInput, targetRate)
	}

	oldRate := buf.SampleRate()
	oldLen := buf.Frames()

	if targetRate == oldRate {
		channels := make([][]float64, buf.ChannelCount())
		for ch := range channels {
			src, err := buf.Channel(ch)
			if err != nil {
				return nil, err
			}
			channels[ch] = src // NewBuffer copies
		}
		return signal.NewBuffer(channels, oldRate)
	}

	ratio := float64(oldRate) / float64(targetRate)
	newLen := int(math.Round(float64(oldLen) * float64(targetRate) / float64(oldRate)))

	channels := make([][]float64, buf.ChannelCount())
	for ch := range channels {
		src, err := buf.Channel(ch)
		if err != nil {
			return nil, err
		}

		out := make([]float64, newLen)
		for i := range out {
			srcIdx := int(float64(i) * ratio)
			if srcIdx >= oldLen {
				srcIdx = oldLen - 1
			}
			out[i] = src[srcIdx]
		}
		channels[ch] = out
	}

	return signal.NewBuffer(channels, targetRate)
}
