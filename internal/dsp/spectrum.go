// SPDX-License-Identifier: MIT
package dsp

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// DefaultRolloffThreshold is the energy fraction used for spectral
// rolloff when callers have no reason to pick another.
const DefaultRolloffThreshold = 0.85

// MagnitudeSpectrum returns the magnitude of the frequency transform of
// a (typically pre-windowed) frame. The result has N/2 bins, bin k
// corresponding to frequency k*sampleRate/N; the Nyquist coefficient is
// dropped. Fails with ErrInvalidInput when the frame has fewer than 2
// samples.
func MagnitudeSpectrum(frame []float64) ([]float64, error) {
	n := len(frame)
	if n < 2 {
		return nil, fmt.Errorf("%w: frame of %d samples, need at least 2", ErrInvalidInput, n)
	}

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, frame)

	mags := make([]float64, n/2)
	for i := range mags {
		mags[i] = cmplx.Abs(coeffs[i])
	}
	return mags, nil
}

// BinFrequency returns the center frequency (Hz) of an FFT bin for a
// frame of frameLen samples.
func BinFrequency(bin, frameLen int, sampleRate float64) float64 {
	if frameLen <= 0 {
		return 0
	}
	return float64(bin) * sampleRate / float64(frameLen)
}

// DominantFrequency returns the frequency of the bin with the largest
// magnitude. An empty spectrum yields 0.
func DominantFrequency(mags []float64, sampleRate float64) float64 {
	if len(mags) == 0 {
		return 0
	}

	peakBin := 0
	peakMag := mags[0]
	for i, m := range mags {
		if m > peakMag {
			peakMag = m
			peakBin = i
		}
	}
	return BinFrequency(peakBin, 2*len(mags), sampleRate)
}

// SpectralCentroid returns the magnitude-weighted mean frequency
// Σ(freq_k·mag_k) / Σ(mag_k). An all-zero or empty spectrum yields 0,
// guarding the zero denominator.
func SpectralCentroid(mags []float64, sampleRate float64) float64 {
	if len(mags) == 0 {
		return 0
	}

	total := floats.Sum(mags)
	if total == 0 {
		return 0
	}

	frameLen := 2 * len(mags)
	weighted := 0.0
	for k, m := range mags {
		weighted += BinFrequency(k, frameLen, sampleRate) * m
	}
	return weighted / total
}

// SpectralRolloff returns the smallest bin frequency below which the
// given fraction of total spectral energy (squared magnitudes) is
// contained. An all-zero or empty spectrum yields 0.
func SpectralRolloff(mags []float64, sampleRate, threshold float64) float64 {
	if len(mags) == 0 {
		return 0
	}

	total := 0.0
	for _, m := range mags {
		total += m * m
	}
	if total == 0 {
		return 0
	}

	frameLen := 2 * len(mags)
	target := threshold * total
	cumulative := 0.0
	for k, m := range mags {
		cumulative += m * m
		if cumulative >= target {
			return BinFrequency(k, frameLen, sampleRate)
		}
	}
	return BinFrequency(len(mags)-1, frameLen, sampleRate)
}

// SpectralFlatness returns the ratio of geometric to arithmetic mean of
// the magnitudes, in [0, 1]. Near 1 means noise-like (energy spread
// evenly), near 0 means tonal (energy concentrated in few bins). An
// all-zero or empty spectrum yields 0.
func SpectralFlatness(mags []float64) float64 {
	if len(mags) == 0 {
		return 0
	}

	arith := floats.Sum(mags) / float64(len(mags))
	if arith == 0 {
		return 0
	}

	// Geometric mean through log space; a zero bin drives it to zero.
	const eps = 1e-12
	logSum := 0.0
	for _, m := range mags {
		logSum += math.Log(m + eps)
	}
	geo := math.Exp(logSum / float64(len(mags)))

	flatness := geo / arith
	if flatness > 1 {
		flatness = 1
	}
	return flatness
}
