// Package utils holds deterministic signal generators and transport fakes
// shared by tests across the module. Nothing here touches real hardware.
package utils

import (
	"math"
	"math/rand"
	"sync"
)

// MockTransport implements the transport.Transport interface for testing.
// It records every payload in send order instead of transmitting.
type MockTransport struct {
	mu     sync.Mutex
	Sent   []any
	Closed bool
}

// Send stores the payload for later inspection.
func (m *MockTransport) Send(data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, data)
	return nil
}

// Close marks the transport closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// SentCount returns how many payloads have been sent so far.
func (m *MockTransport) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// LastSent returns the most recent payload, or nil if nothing was sent.
func (m *MockTransport) LastSent() any {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return nil
	}
	return m.Sent[len(m.Sent)-1]
}

// GenerateSineWave returns a pure tone at the given frequency,
// amplitude 0.9, as normalized float64 samples.
func GenerateSineWave(size int, sampleRate, frequency float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = math.Sin(2*math.Pi*frequency*t) * 0.9
	}
	return buffer
}

// GenerateComplexWave returns a 440Hz fundamental with two harmonics,
// a stand-in for tonal wildlife calls.
func GenerateComplexWave(size int, sampleRate float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		buffer[i] = math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
	}
	return buffer
}

// GenerateClickTrain returns near-silence with short bursts of amplitude
// 0.9 every period samples, each width samples long. The first burst
// starts at index period. Useful for exercising peak detection and
// rhythmic pattern classification.
func GenerateClickTrain(size, period, width int) []float64 {
	buffer := make([]float64, size)
	if period <= 0 || width <= 0 {
		return buffer
	}
	for start := period; start < size; start += period {
		for i := start; i < start+width && i < size; i++ {
			buffer[i] = 0.9
		}
	}
	return buffer
}

// GenerateNoise returns uniform noise in [-0.9, 0.9] from a fixed seed,
// so repeated runs see identical samples.
func GenerateNoise(size int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	buffer := make([]float64, size)
	for i := range buffer {
		buffer[i] = (rng.Float64()*2 - 1) * 0.9
	}
	return buffer
}

// FindPeakBin returns the index of the largest magnitude in
// magnitudes[startBin:endBin], clamping the range to valid indices.
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}

	return peakBin
}
