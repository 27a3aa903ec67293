// SPDX-License-Identifier: MIT
package wavenc

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"

	"leopold/internal/signal"
	"leopold/pkg/utils"
)

func TestQuantize(t *testing.T) {
	tests := []struct {
		in       float64
		expected int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32768},
		{0.5, 16383},   // 16383.5 truncated toward zero
		{-0.5, -16384}, // exact
		{2.0, 32767},   // clamped high
		{-2.0, -32768}, // clamped low
		{1e-9, 0},
		{-1e-9, 0},
	}

	for _, tt := range tests {
		if got := Quantize(tt.in); got != tt.expected {
			t.Errorf("Quantize(%v) = %d, expected %d", tt.in, got, tt.expected)
		}
	}
}

func mustBuffer(t *testing.T, channels [][]float64, rate int) *signal.Buffer {
	t.Helper()
	buf, err := signal.NewBuffer(channels, rate)
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}
	return buf
}

func TestEncodeHeader(t *testing.T) {
	const frames = 100
	buf := mustBuffer(t, [][]float64{make([]float64, frames)}, 44100)

	data, err := Encode(buf)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	dataSize := frames * 2
	if len(data) != HeaderSize+dataSize {
		t.Fatalf("encoded %d bytes, expected %d", len(data), HeaderSize+dataSize)
	}

	le := binary.LittleEndian
	checks := []struct {
		name     string
		got      uint64
		expected uint64
	}{
		{"ChunkSize", uint64(le.Uint32(data[4:])), uint64(36 + dataSize)},
		{"Subchunk1Size", uint64(le.Uint32(data[16:])), 16},
		{"AudioFormat", uint64(le.Uint16(data[20:])), 1},
		{"NumChannels", uint64(le.Uint16(data[22:])), 1},
		{"SampleRate", uint64(le.Uint32(data[24:])), 44100},
		{"ByteRate", uint64(le.Uint32(data[28:])), 44100 * 1 * 2},
		{"BlockAlign", uint64(le.Uint16(data[32:])), 2},
		{"BitsPerSample", uint64(le.Uint16(data[34:])), 16},
		{"Subchunk2Size", uint64(le.Uint32(data[40:])), uint64(dataSize)},
	}
	for _, c := range checks {
		if c.got != c.expected {
			t.Errorf("%s = %d, expected %d", c.name, c.got, c.expected)
		}
	}

	for _, m := range []struct {
		offset int
		magic  string
	}{
		{0, "RIFF"}, {8, "WAVE"}, {12, "fmt "}, {36, "data"},
	} {
		if got := string(data[m.offset : m.offset+4]); got != m.magic {
			t.Errorf("marker at %d = %q, expected %q", m.offset, got, m.magic)
		}
	}
}

func TestEncodeStereoHeader(t *testing.T) {
	const frames = 50
	buf := mustBuffer(t, [][]float64{make([]float64, frames), make([]float64, frames)}, 22050)

	data, err := Encode(buf)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	le := binary.LittleEndian
	if got := le.Uint16(data[22:]); got != 2 {
		t.Errorf("NumChannels = %d, expected 2", got)
	}
	if got := le.Uint32(data[28:]); got != 22050*2*2 {
		t.Errorf("ByteRate = %d, expected %d", got, 22050*2*2)
	}
	if got := le.Uint16(data[32:]); got != 4 {
		t.Errorf("BlockAlign = %d, expected 4", got)
	}
	if got := le.Uint32(data[40:]); got != frames*2*2 {
		t.Errorf("Subchunk2Size = %d, expected %d", got, frames*2*2)
	}
}

// decodeInts runs the encoded bytes through the reference decoder and
// returns the raw integer samples.
func decodeInts(t *testing.T, data []byte) (*wav.Decoder, []int) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "roundtrip.wav")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing temp wav: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening temp wav: %v", err)
	}
	t.Cleanup(func() { f.Close() })

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("reference decoder rejected the encoded file")
	}
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decoding failed: %v", err)
	}
	return dec, pcm.Data
}

func TestEncodeRoundTripMono(t *testing.T) {
	samples := []float64{0, 1, -1, 0.5, -0.5, 0.25, -0.25, 0.999, -0.999, 2.0, -2.0}
	buf := mustBuffer(t, [][]float64{samples}, 44100)

	data, err := Encode(buf)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	dec, ints := decodeInts(t, data)
	if dec.SampleRate != 44100 || dec.NumChans != 1 {
		t.Fatalf("decoded rate %d chans %d, expected 44100/1", dec.SampleRate, dec.NumChans)
	}
	if len(ints) != len(samples) {
		t.Fatalf("decoded %d samples, expected %d", len(ints), len(samples))
	}
	for i, f := range samples {
		if expected := int(Quantize(f)); ints[i] != expected {
			t.Errorf("sample %d: decoded %d, expected %d", i, ints[i], expected)
		}
	}
}

func TestEncodeRoundTripStereoInterleaving(t *testing.T) {
	left := []float64{0.1, 0.2, 0.3}
	right := []float64{-0.1, -0.2, -0.3}
	buf := mustBuffer(t, [][]float64{left, right}, 8000)

	data, err := Encode(buf)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	_, ints := decodeInts(t, data)
	if len(ints) != 6 {
		t.Fatalf("decoded %d samples, expected 6", len(ints))
	}
	for frame := 0; frame < 3; frame++ {
		if ints[2*frame] != int(Quantize(left[frame])) {
			t.Errorf("frame %d left: decoded %d, expected %d", frame, ints[2*frame], Quantize(left[frame]))
		}
		if ints[2*frame+1] != int(Quantize(right[frame])) {
			t.Errorf("frame %d right: decoded %d, expected %d", frame, ints[2*frame+1], Quantize(right[frame]))
		}
	}
}

func TestEncodeSingleSample(t *testing.T) {
	// The degenerate one-sample recording still encodes to a valid
	// container: header plus exactly one 16-bit sample.
	buf := mustBuffer(t, [][]float64{{0.5}}, 44100)

	data, err := Encode(buf)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(data) != HeaderSize+2 {
		t.Fatalf("encoded %d bytes, expected %d", len(data), HeaderSize+2)
	}
}

func TestEncodeZeroFrames(t *testing.T) {
	// An empty buffer still yields a well-formed container: the 44-byte
	// header announcing zero data bytes.
	buf := mustBuffer(t, [][]float64{{}}, 44100)

	data, err := Encode(buf)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(data) != HeaderSize {
		t.Fatalf("encoded %d bytes, expected the bare %d-byte header", len(data), HeaderSize)
	}

	le := binary.LittleEndian
	if got := le.Uint32(data[4:]); got != 36 {
		t.Errorf("ChunkSize = %d, expected 36", got)
	}
	if got := le.Uint32(data[40:]); got != 0 {
		t.Errorf("Subchunk2Size = %d, expected 0", got)
	}
}

func TestEncodeNilBuffer(t *testing.T) {
	if _, err := Encode(nil); !errors.Is(err, ErrEncoding) {
		t.Errorf("error = %v, expected ErrEncoding", err)
	}
}

func BenchmarkEncode(b *testing.B) {
	samples := utils.GenerateSineWave(44100, 44100, 440)
	buf, err := signal.NewBuffer([][]float64{samples}, 44100)
	if err != nil {
		b.Fatalf("NewBuffer failed: %v", err)
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Encode(buf)
	}
}
