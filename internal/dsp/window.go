// SPDX-License-Identifier: MIT
//
// Package dsp holds the stateless numeric core of the pipeline: window
// functions, magnitude spectra, spectral descriptors, peak detection,
// normalization, resampling, and the feature extractor that combines
// them. Every function is deterministic and allocates fresh output
// rather than mutating caller buffers.
package dsp

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidInput reports a contract violation on a dsp function
// (empty or too-short frame, bad rate). These indicate wiring bugs, not
// user conditions, and callers are expected to degrade rather than die.
var ErrInvalidInput = errors.New("dsp: invalid input")

// WindowType selects the analysis window function.
type WindowType int

const (
	WindowHann WindowType = iota
	WindowHamming
	WindowBlackman
)

// String returns the lowercase window name.
func (w WindowType) String() string {
	switch w {
	case WindowHann:
		return "hann"
	case WindowHamming:
		return "hamming"
	case WindowBlackman:
		return "blackman"
	default:
		return "unknown"
	}
}

// ParseWindowType converts a string name (case-insensitive) to a
// WindowType. Returns WindowHann and an error if the name is unknown.
func ParseWindowType(name string) (WindowType, error) {
	switch strings.ToLower(name) {
	case "hann", "hanning":
		return WindowHann, nil
	case "hamming":
		return WindowHamming, nil
	case "blackman":
		return WindowBlackman, nil
	default:
		return WindowHann, fmt.Errorf("unknown window function name: %q", name)
	}
}

// WindowCoefficients returns the n weights of the chosen window:
//
//	hann:     w(i) = 0.5 (1 - cos(2πi/(N-1)))
//	hamming:  w(i) = 0.54 - 0.46 cos(2πi/(N-1))
//	blackman: w(i) = 0.42 - 0.5 cos(2πi/(N-1)) + 0.08 cos(4πi/(N-1))
//
// Fails with ErrInvalidInput when n < 2 (the N-1 denominator needs at
// least two points).
func WindowCoefficients(n int, wt WindowType) ([]float64, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: window length %d, need at least 2", ErrInvalidInput, n)
	}

	coeffs := make([]float64, n)
	den := float64(n - 1)
	for i := range coeffs {
		phase := 2 * math.Pi * float64(i) / den
		switch wt {
		case WindowHamming:
			coeffs[i] = 0.54 - 0.46*math.Cos(phase)
		case WindowBlackman:
			coeffs[i] = 0.42 - 0.5*math.Cos(phase) + 0.08*math.Cos(2*phase)
		default: // WindowHann
			coeffs[i] = 0.5 * (1 - math.Cos(phase))
		}
	}
	return coeffs, nil
}

// ApplyWindow multiplies each sample by the window weight and returns
// the result as a fresh slice of the same length. Fails with
// ErrInvalidInput when the input has fewer than 2 samples.
func ApplyWindow(samples []float64, wt WindowType) ([]float64, error) {
	coeffs, err := WindowCoefficients(len(samples), wt)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(samples))
	for i, v := range samples {
		out[i] = v * coeffs[i]
	}
	return out, nil
}
