// SPDX-License-Identifier: MIT
package session

import (
	"leopold/internal/dsp"
)

// meterBands is the resolution of the coarse live spectrum shipped with
// tick events, enough for a UI bar meter without flooding transports.
const meterBands = 8

// chunkLevel returns the RMS of one interleaved chunk, the liveLevel
// shown while recording. Empty input meters as silence.
func chunkLevel(chunk []float64) float64 {
	level, err := dsp.RMS(chunk)
	if err != nil {
		return 0
	}
	return level
}

// bandLevels reduces the first channel of an interleaved chunk to
// meterBands normalized magnitudes. Returns nil when the chunk is too
// short to transform; tick events then carry no bands.
func bandLevels(chunk []float64, channelCount int, wt dsp.WindowType) []float64 {
	if channelCount < 1 {
		return nil
	}
	frames := len(chunk) / channelCount
	if frames < 2 {
		return nil
	}

	mono := make([]float64, frames)
	for i := range mono {
		mono[i] = chunk[i*channelCount]
	}

	windowed, err := dsp.ApplyWindow(mono, wt)
	if err != nil {
		return nil
	}
	mags, err := dsp.MagnitudeSpectrum(windowed)
	if err != nil {
		return nil
	}

	bands := make([]float64, meterBands)
	per := len(mags) / meterBands
	if per == 0 {
		per = 1
	}
	for b := range bands {
		start := b * per
		if start >= len(mags) {
			break
		}
		end := start + per
		if b == meterBands-1 || end > len(mags) {
			end = len(mags)
		}
		sum := 0.0
		for _, m := range mags[start:end] {
			sum += m
		}
		bands[b] = sum / float64(end-start)
	}

	return dsp.Normalize(bands)
}
