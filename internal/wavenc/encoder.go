// SPDX-License-Identifier: MIT
//
// Package wavenc serializes signal buffers to PCM WAV. Encode builds
// the canonical 44-byte-header container in one shot for finished
// recordings; StreamWriter mirrors chunks to disk incrementally while
// a session is still running; ReadFile loads a WAV back into a buffer
// for offline analysis.
package wavenc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"leopold/internal/signal"
)

// ErrEncoding reports a WAV writer invariant violation (no channels,
// oversized payload, writer misuse). Unreachable through a valid
// signal.Buffer; treated as a defect, not a user condition.
var ErrEncoding = errors.New("wavenc: encoding failed")

// HeaderSize is the fixed byte length of the RIFF/fmt/data preamble in
// front of the PCM payload.
const HeaderSize = 44

const bytesPerSample = 2 // 16-bit PCM

// riffHeader is the complete 44-byte preamble, laid out field-for-field
// so one binary.Write emits it.
type riffHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // 36 + Subchunk2Size
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 = uncompressed PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32 // SampleRate * NumChannels * bytesPerSample
	BlockAlign    uint16 // NumChannels * bytesPerSample
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // payload bytes
}

// Quantize converts a normalized amplitude to a 16-bit PCM sample:
// clamp to [-1, 1], then scale by 32768 for negative values and 32767
// for non-negative ones, truncating toward zero. The asymmetric scale
// uses the full int16 range without overflowing at -1.
func Quantize(f float64) int16 {
	if f > 1 {
		f = 1
	}
	if f < -1 {
		f = -1
	}
	if f < 0 {
		return int16(f * 32768)
	}
	return int16(f * 32767)
}

// Encode serializes the buffer into a complete WAV container:
// the 44-byte header followed by interleaved 16-bit little-endian
// samples in frame order.
func Encode(buf *signal.Buffer) ([]byte, error) {
	if buf == nil {
		return nil, fmt.Errorf("%w: nil buffer", ErrEncoding)
	}

	out := bytes.NewBuffer(make([]byte, 0, HeaderSize+buf.Frames()*buf.ChannelCount()*bytesPerSample))
	if err := EncodeTo(out, buf); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// EncodeTo writes the WAV container to w instead of returning bytes.
func EncodeTo(w io.Writer, buf *signal.Buffer) error {
	if buf == nil {
		return fmt.Errorf("%w: nil buffer", ErrEncoding)
	}
	channels := buf.ChannelCount()
	if channels == 0 {
		return fmt.Errorf("%w: buffer has no channels", ErrEncoding)
	}

	dataSize := buf.Frames() * channels * bytesPerSample
	if uint64(dataSize) > math.MaxUint32-36 {
		return fmt.Errorf("%w: payload of %d bytes exceeds the RIFF size field", ErrEncoding, dataSize)
	}

	header := riffHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + uint32(dataSize),
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   uint16(channels),
		SampleRate:    uint32(buf.SampleRate()),
		ByteRate:      uint32(buf.SampleRate() * channels * bytesPerSample),
		BlockAlign:    uint16(channels * bytesPerSample),
		BitsPerSample: 16,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: uint32(dataSize),
	}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("%w: writing header: %v", ErrEncoding, err)
	}

	flat := buf.Interleaved()
	pcm := make([]int16, len(flat))
	for i, f := range flat {
		pcm[i] = Quantize(f)
	}
	if err := binary.Write(w, binary.LittleEndian, pcm); err != nil {
		return fmt.Errorf("%w: writing samples: %v", ErrEncoding, err)
	}
	return nil
}
