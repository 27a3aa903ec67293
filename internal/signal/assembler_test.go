// SPDX-License-Identifier: MIT
package signal

import (
	"errors"
	"math"
	"testing"
)

func TestAssemblerPreservesChunkOrder(t *testing.T) {
	a, err := NewAssembler(44100, 1)
	if err != nil {
		t.Fatalf("NewAssembler: %v", err)
	}

	chunks := [][]float64{
		{0.1, 0.2},
		{0.3},
		{0.4, 0.5, 0.6},
	}
	for _, c := range chunks {
		if err := a.Append(c); err != nil {
			t.Fatalf("Append(%v): %v", c, err)
		}
	}

	if a.Frames() != 6 {
		t.Errorf("Frames() = %d, want 6", a.Frames())
	}

	buf, err := a.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	got, _ := buf.Channel(0)
	want := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %f, want %f (order not preserved)", i, got[i], want[i])
		}
	}
}

func TestAssemblerStereoFrames(t *testing.T) {
	a, err := NewAssembler(48000, 2)
	if err != nil {
		t.Fatalf("NewAssembler: %v", err)
	}

	if err := a.Append([]float64{0.1, -0.1, 0.2, -0.2}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if a.Frames() != 2 {
		t.Errorf("Frames() = %d, want 2", a.Frames())
	}

	// A chunk that is not a whole number of frames is rejected.
	if err := a.Append([]float64{0.1, 0.2, 0.3}); !errors.Is(err, ErrInvalidBuffer) {
		t.Errorf("odd chunk error = %v, want ErrInvalidBuffer", err)
	}

	buf, err := a.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if buf.ChannelCount() != 2 || buf.Frames() != 2 {
		t.Errorf("buffer = %d channels × %d frames, want 2×2", buf.ChannelCount(), buf.Frames())
	}
}

func TestAssemblerAppendCopiesChunk(t *testing.T) {
	a, _ := NewAssembler(44100, 1)
	chunk := []float64{0.5}
	if err := a.Append(chunk); err != nil {
		t.Fatalf("Append: %v", err)
	}

	chunk[0] = -0.9 // caller reuses its buffer, as the capture path does

	buf, err := a.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	got, _ := buf.Channel(0)
	if got[0] != 0.5 {
		t.Errorf("assembler shares chunk storage: sample = %f, want 0.5", got[0])
	}
}

func TestAssemblerRejectsNonFinite(t *testing.T) {
	a, _ := NewAssembler(44100, 1)
	if err := a.Append([]float64{0.1, math.NaN(), 0.3}); !errors.Is(err, ErrInvalidBuffer) {
		t.Errorf("NaN chunk error = %v, want ErrInvalidBuffer", err)
	}
	if err := a.Append([]float64{math.Inf(1)}); !errors.Is(err, ErrInvalidBuffer) {
		t.Errorf("Inf chunk error = %v, want ErrInvalidBuffer", err)
	}
	if a.Frames() != 0 {
		t.Errorf("rejected chunks still accumulated: Frames() = %d", a.Frames())
	}
}

func TestAssemblerReset(t *testing.T) {
	a, _ := NewAssembler(44100, 1)
	_ = a.Append([]float64{0.1, 0.2, 0.3})
	if a.Frames() != 3 {
		t.Fatalf("Frames() = %d, want 3", a.Frames())
	}

	a.Reset()

	if a.Frames() != 0 {
		t.Errorf("Frames() after Reset = %d, want 0", a.Frames())
	}
	if err := a.Append([]float64{0.9}); err != nil {
		t.Errorf("Append after Reset: %v", err)
	}
}

func TestAssemblerFinalizeOnce(t *testing.T) {
	a, _ := NewAssembler(44100, 1)
	_ = a.Append([]float64{0.1})

	if _, err := a.Finalize(); err != nil {
		t.Fatalf("first Finalize: %v", err)
	}
	if _, err := a.Finalize(); !errors.Is(err, ErrFinalized) {
		t.Errorf("second Finalize error = %v, want ErrFinalized", err)
	}
	if err := a.Append([]float64{0.2}); !errors.Is(err, ErrFinalized) {
		t.Errorf("Append after Finalize error = %v, want ErrFinalized", err)
	}
}

func TestAssemblerEmptyFinalize(t *testing.T) {
	a, _ := NewAssembler(44100, 1)
	buf, err := a.Finalize()
	if err != nil {
		t.Fatalf("Finalize of empty assembly: %v", err)
	}
	if buf.Frames() != 0 {
		t.Errorf("Frames() = %d, want 0", buf.Frames())
	}
	if buf.Duration() != 0 {
		t.Errorf("Duration() = %f, want 0", buf.Duration())
	}
}

func BenchmarkAssemblerAppend(b *testing.B) {
	chunk := make([]float64, 1024)
	for i := range chunk {
		chunk[i] = float64(i%100) / 100.0
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		a, _ := NewAssembler(44100, 1)
		for j := 0; j < 16; j++ {
			_ = a.Append(chunk)
		}
	}
}
