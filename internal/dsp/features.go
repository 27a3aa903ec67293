// SPDX-License-Identifier: MIT
package dsp

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"leopold/pkg/bitint"
)

const (
	// analysisFrameSize is the preferred STFT frame; shorter signals
	// fall back to the largest power of 2 that fits.
	analysisFrameSize = 2048

	// envelopeWindowMS is the RMS envelope resolution used for pattern
	// classification.
	envelopeWindowMS = 50

	// rangeFloor is the fraction of the spectral peak a bin must reach
	// to count toward the occupied frequency range.
	rangeFloor = 0.1

	// envelopePeakThreshold and envelopeMinDistance pick call bursts
	// out of the normalized envelope (minimum 100ms apart at 50ms
	// resolution).
	envelopePeakThreshold = 0.5
	envelopeMinDistance   = 2

	// steadyLevelCV is the envelope coefficient of variation below
	// which a signal counts as continuous rather than burst-like.
	steadyLevelCV = 0.3

	// regularSpacingCV is the inter-peak spacing coefficient of
	// variation below which bursts count as repetitive.
	regularSpacingCV = 0.25
)

// PatternType is a coarse temporal classification of a call, derived
// from burst count and spacing.
type PatternType string

const (
	PatternSingle     PatternType = "single"
	PatternRepetitive PatternType = "repetitive"
	PatternComplex    PatternType = "complex"
	PatternContinuous PatternType = "continuous"
)

// FrequencyRange is the occupied band of a spectrum in Hz, Min <= Max.
type FrequencyRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Features is the acoustic descriptor set attached to a finished
// recording and consumed by the species-matching service.
type Features struct {
	DominantFrequency float64        `json:"dominantFrequency"`
	SpectralCentroid  float64        `json:"spectralCentroid"`
	SpectralRolloff   float64        `json:"spectralRolloff"`
	ZeroCrossingRate  float64        `json:"zeroCrossingRate"`
	RMS               float64        `json:"rms"`
	FrequencyRange    FrequencyRange `json:"frequencyRange"`
	NoiseRatio        float64        `json:"noiseRatio"`
	PatternType       PatternType    `json:"patternType"`
}

// ExtractFeatures computes the full descriptor set for one channel of
// audio. Spectral descriptors come from the average magnitude spectrum
// over 50%-overlapping windowed frames; rate and level descriptors come
// from the whole signal. Fails with ErrInvalidInput when the signal is
// too short to window (fewer than 2 samples) or the rate is invalid.
func ExtractFeatures(samples []float64, sampleRate int, wt WindowType) (*Features, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d must be positive", ErrInvalidInput, sampleRate)
	}
	if len(samples) < 2 {
		return nil, fmt.Errorf("%w: %d samples, need at least 2 to window", ErrInvalidInput, len(samples))
	}

	frame := analysisFrameSize
	if len(samples) < frame {
		frame = bitint.PrevPowerOfTwo(len(samples))
	}

	avg, err := averageSpectrum(samples, frame, wt)
	if err != nil {
		return nil, err
	}

	rate := float64(sampleRate)
	zcr, err := ZeroCrossingRate(samples)
	if err != nil {
		return nil, err
	}
	rms, err := RMS(samples)
	if err != nil {
		return nil, err
	}

	pattern, err := classifyPattern(samples, sampleRate)
	if err != nil {
		return nil, err
	}

	return &Features{
		DominantFrequency: DominantFrequency(avg, rate),
		SpectralCentroid:  SpectralCentroid(avg, rate),
		SpectralRolloff:   SpectralRolloff(avg, rate, DefaultRolloffThreshold),
		ZeroCrossingRate:  zcr,
		RMS:               rms,
		FrequencyRange:    frequencyRange(avg, rate),
		NoiseRatio:        SpectralFlatness(avg),
		PatternType:       pattern,
	}, nil
}

// averageSpectrum runs a windowed STFT over the signal with hop =
// frame/2 and returns the mean magnitude spectrum. Buffers and the FFT
// plan are reused across frames.
func averageSpectrum(samples []float64, frame int, wt WindowType) ([]float64, error) {
	coeffs, err := WindowCoefficients(frame, wt)
	if err != nil {
		return nil, err
	}

	fft := fourier.NewFFT(frame)
	windowed := make([]float64, frame)
	spectrum := make([]complex128, frame/2+1)
	avg := make([]float64, frame/2)

	hop := frame / 2
	if hop == 0 {
		hop = 1
	}

	count := 0
	for start := 0; start+frame <= len(samples); start += hop {
		for i := range windowed {
			windowed[i] = samples[start+i] * coeffs[i]
		}
		fft.Coefficients(spectrum, windowed)
		for i := range avg {
			avg[i] += cmplx.Abs(spectrum[i])
		}
		count++
	}

	if count == 0 {
		// frame == len(samples) always yields one frame, so this only
		// guards future frame-size changes.
		return nil, fmt.Errorf("%w: no complete analysis frame in %d samples", ErrInvalidInput, len(samples))
	}

	for i := range avg {
		avg[i] /= float64(count)
	}
	return avg, nil
}

// frequencyRange returns the lowest and highest bin frequencies whose
// magnitude reaches rangeFloor of the spectral peak. A silent spectrum
// yields {0, 0}.
func frequencyRange(mags []float64, sampleRate float64) FrequencyRange {
	peak := 0.0
	for _, m := range mags {
		if m > peak {
			peak = m
		}
	}
	if peak == 0 {
		return FrequencyRange{}
	}

	floor := peak * rangeFloor
	frameLen := 2 * len(mags)
	lo, hi := -1, -1
	for i, m := range mags {
		if m >= floor {
			if lo < 0 {
				lo = i
			}
			hi = i
		}
	}

	return FrequencyRange{
		Min: BinFrequency(lo, frameLen, sampleRate),
		Max: BinFrequency(hi, frameLen, sampleRate),
	}
}

// classifyPattern reduces the signal to a 50ms RMS envelope and reads
// the temporal shape off it: a steady envelope is continuous, one burst
// is single, evenly spaced bursts are repetitive, anything else is
// complex.
func classifyPattern(samples []float64, sampleRate int) (PatternType, error) {
	win := sampleRate * envelopeWindowMS / 1000
	if win < 1 {
		win = 1
	}

	env := make([]float64, 0, len(samples)/win+1)
	for start := 0; start < len(samples); start += win {
		end := start + win
		if end > len(samples) {
			end = len(samples)
		}
		r, err := RMS(samples[start:end])
		if err != nil {
			return "", err
		}
		env = append(env, r)
	}

	_, cv := meanAndCV(env)
	if cv < steadyLevelCV {
		return PatternContinuous, nil
	}

	peaks, err := DetectPeaks(Normalize(env), envelopePeakThreshold, envelopeMinDistance)
	if err != nil {
		return "", err
	}

	switch len(peaks) {
	case 0:
		return PatternContinuous, nil
	case 1:
		return PatternSingle, nil
	}

	spacings := make([]float64, len(peaks)-1)
	for i := 1; i < len(peaks); i++ {
		spacings[i-1] = float64(peaks[i] - peaks[i-1])
	}
	if _, spacingCV := meanAndCV(spacings); spacingCV < regularSpacingCV {
		return PatternRepetitive, nil
	}
	return PatternComplex, nil
}
