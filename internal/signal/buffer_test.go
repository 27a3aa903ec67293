// SPDX-License-Identifier: MIT
package signal

import (
	"errors"
	"math"
	"testing"
)

func TestNewBufferValidation(t *testing.T) {
	tests := []struct {
		desc       string
		channels   [][]float64
		sampleRate int
		expectErr  bool
	}{
		{
			desc:       "valid mono",
			channels:   [][]float64{{0.1, -0.2, 0.3}},
			sampleRate: 44100,
			expectErr:  false,
		},
		{
			desc:       "valid stereo",
			channels:   [][]float64{{0.1, 0.2}, {-0.1, -0.2}},
			sampleRate: 48000,
			expectErr:  false,
		},
		{
			desc:       "empty channels are allowed",
			channels:   [][]float64{{}},
			sampleRate: 44100,
			expectErr:  false,
		},
		{
			desc:       "zero sample rate",
			channels:   [][]float64{{0.1}},
			sampleRate: 0,
			expectErr:  true,
		},
		{
			desc:       "negative sample rate",
			channels:   [][]float64{{0.1}},
			sampleRate: -44100,
			expectErr:  true,
		},
		{
			desc:       "no channels",
			channels:   [][]float64{},
			sampleRate: 44100,
			expectErr:  true,
		},
		{
			desc:       "mismatched channel lengths",
			channels:   [][]float64{{0.1, 0.2}, {0.1}},
			sampleRate: 44100,
			expectErr:  true,
		},
		{
			desc:       "NaN sample",
			channels:   [][]float64{{0.1, math.NaN()}},
			sampleRate: 44100,
			expectErr:  true,
		},
		{
			desc:       "infinite sample",
			channels:   [][]float64{{math.Inf(1)}},
			sampleRate: 44100,
			expectErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			buf, err := NewBuffer(tt.channels, tt.sampleRate)
			if tt.expectErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, ErrInvalidBuffer) {
					t.Errorf("error = %v, want ErrInvalidBuffer", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if buf.ChannelCount() != len(tt.channels) {
				t.Errorf("ChannelCount() = %d, want %d", buf.ChannelCount(), len(tt.channels))
			}
		})
	}
}

func TestBufferDuration(t *testing.T) {
	tests := []struct {
		desc       string
		frames     int
		sampleRate int
		want       float64
	}{
		{"one second", 44100, 44100, 1.0},
		{"half second", 22050, 44100, 0.5},
		{"single sample", 1, 44100, 1.0 / 44100.0},
		{"empty", 0, 44100, 0},
		{"odd count", 12345, 44100, 12345.0 / 44100.0},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			buf, err := NewBuffer([][]float64{make([]float64, tt.frames)}, tt.sampleRate)
			if err != nil {
				t.Fatalf("NewBuffer: %v", err)
			}
			if got := buf.Duration(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Duration() = %.12f, want %.12f", got, tt.want)
			}
		})
	}
}

func TestBufferChannelOutOfRange(t *testing.T) {
	buf, err := NewBuffer([][]float64{{0.1}, {0.2}}, 44100)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}

	if _, err := buf.Channel(1); err != nil {
		t.Errorf("Channel(1) unexpected error: %v", err)
	}
	for _, idx := range []int{2, -1, 100} {
		if _, err := buf.Channel(idx); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Channel(%d) error = %v, want ErrIndexOutOfRange", idx, err)
		}
	}
}

func TestBufferCopiesInput(t *testing.T) {
	src := [][]float64{{0.5, -0.5}}
	buf, err := NewBuffer(src, 44100)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}

	src[0][0] = 99.0

	ch, _ := buf.Channel(0)
	if ch[0] != 0.5 {
		t.Errorf("buffer shares storage with caller: channel[0] = %f, want 0.5", ch[0])
	}
}

func TestFromInterleaved(t *testing.T) {
	flat := []float64{0.1, -0.1, 0.2, -0.2, 0.3, -0.3}
	buf, err := FromInterleaved(flat, 44100, 2)
	if err != nil {
		t.Fatalf("FromInterleaved: %v", err)
	}

	left, _ := buf.Channel(0)
	right, _ := buf.Channel(1)

	wantLeft := []float64{0.1, 0.2, 0.3}
	wantRight := []float64{-0.1, -0.2, -0.3}

	for i := range wantLeft {
		if left[i] != wantLeft[i] {
			t.Errorf("left[%d] = %f, want %f", i, left[i], wantLeft[i])
		}
		if right[i] != wantRight[i] {
			t.Errorf("right[%d] = %f, want %f", i, right[i], wantRight[i])
		}
	}

	if _, err := FromInterleaved([]float64{0.1, 0.2, 0.3}, 44100, 2); !errors.Is(err, ErrInvalidBuffer) {
		t.Errorf("odd sample count for stereo: error = %v, want ErrInvalidBuffer", err)
	}
}

func TestBufferInterleavedRoundTrip(t *testing.T) {
	flat := []float64{0.1, -0.1, 0.2, -0.2}
	buf, err := FromInterleaved(flat, 44100, 2)
	if err != nil {
		t.Fatalf("FromInterleaved: %v", err)
	}

	got := buf.Interleaved()
	if len(got) != len(flat) {
		t.Fatalf("Interleaved() length = %d, want %d", len(got), len(flat))
	}
	for i := range flat {
		if got[i] != flat[i] {
			t.Errorf("Interleaved()[%d] = %f, want %f", i, got[i], flat[i])
		}
	}
}

func TestBufferMono(t *testing.T) {
	t.Run("stereo averages channels", func(t *testing.T) {
		buf, err := NewBuffer([][]float64{{1.0, 0.0}, {0.0, 1.0}}, 44100)
		if err != nil {
			t.Fatalf("NewBuffer: %v", err)
		}
		mono := buf.Mono()
		for i, want := range []float64{0.5, 0.5} {
			if math.Abs(mono[i]-want) > 1e-12 {
				t.Errorf("Mono()[%d] = %f, want %f", i, mono[i], want)
			}
		}
	})

	t.Run("mono returns an independent copy", func(t *testing.T) {
		buf, err := NewBuffer([][]float64{{0.25}}, 44100)
		if err != nil {
			t.Fatalf("NewBuffer: %v", err)
		}
		mono := buf.Mono()
		mono[0] = 99.0
		ch, _ := buf.Channel(0)
		if ch[0] != 0.25 {
			t.Errorf("mutating Mono() output reached the buffer: %f", ch[0])
		}
	})
}
