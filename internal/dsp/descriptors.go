// SPDX-License-Identifier: MIT
package dsp

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// ZeroCrossingRate returns the count of sign changes between
// consecutive samples divided by N-1, treating 0 as non-negative.
// The result lies in [0, 1]. Fails with ErrInvalidInput on empty input;
// a single sample has no pairs and yields 0.
func ZeroCrossingRate(samples []float64) (float64, error) {
	n := len(samples)
	if n == 0 {
		return 0, fmt.Errorf("%w: empty input", ErrInvalidInput)
	}
	if n == 1 {
		return 0, nil
	}

	crossings := 0
	prevNegative := samples[0] < 0
	for _, v := range samples[1:] {
		negative := v < 0
		if negative != prevNegative {
			crossings++
		}
		prevNegative = negative
	}
	return float64(crossings) / float64(n-1), nil
}

// RMS returns sqrt(mean(samples²)). Fails with ErrInvalidInput on empty
// input, guarding the zero division.
func RMS(samples []float64) (float64, error) {
	if len(samples) == 0 {
		return 0, fmt.Errorf("%w: empty input", ErrInvalidInput)
	}

	sum := 0.0
	for _, v := range samples {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples))), nil
}

// Normalize returns a fresh slice with every sample divided by the
// maximum absolute value. An all-zero input returns a zero-filled slice
// of the same length rather than dividing by zero, which also makes the
// operation idempotent: normalizing twice equals normalizing once.
func Normalize(samples []float64) []float64 {
	out := make([]float64, len(samples))
	if len(samples) == 0 {
		return out
	}

	maxAbs := 0.0
	for _, v := range samples {
		if a := math.Abs(v); a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs == 0 {
		return out
	}

	for i, v := range samples {
		out[i] = v / maxAbs
	}
	return out
}

// DetectPeaks returns the indices i where |samples[i]| > threshold and
// |samples[i]| dominates its ±minDistance neighborhood. Overlapping
// candidates resolve to the strongest in each neighborhood (ties to the
// lower index), so no two returned peaks are closer than minDistance.
// Fails with ErrInvalidInput when minDistance is negative.
func DetectPeaks(samples []float64, threshold float64, minDistance int) ([]int, error) {
	if minDistance < 0 {
		return nil, fmt.Errorf("%w: negative min distance %d", ErrInvalidInput, minDistance)
	}

	type candidate struct {
		idx int
		mag float64
	}
	var candidates []candidate
	for i, v := range samples {
		if a := math.Abs(v); a > threshold {
			candidates = append(candidates, candidate{i, a})
		}
	}
	if len(candidates) == 0 {
		return []int{}, nil
	}

	// Strongest first; equal magnitudes keep input order so the result
	// is deterministic.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].mag > candidates[j].mag
	})

	var peaks []int
	for _, c := range candidates {
		tooClose := false
		for _, p := range peaks {
			if abs(c.idx-p) < minDistance {
				tooClose = true
				break
			}
		}
		if !tooClose {
			peaks = append(peaks, c.idx)
		}
	}

	sort.Ints(peaks)
	return peaks, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// meanAndCV returns the mean and coefficient of variation
// (stddev/mean) of xs. Used by pattern classification on inter-peak
// spacings and envelope stability.
func meanAndCV(xs []float64) (mean, cv float64) {
	if len(xs) == 0 {
		return 0, 0
	}

	mean = floats.Sum(xs) / float64(len(xs))
	if mean == 0 {
		return 0, 0
	}

	variance := 0.0
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	variance /= float64(len(xs))
	return mean, math.Sqrt(variance) / mean
}
