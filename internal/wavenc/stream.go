// SPDX-License-Identifier: MIT
package wavenc

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// StreamWriter appends interleaved chunks to a WAV file as they arrive,
// so a crash mid-session still leaves a playable file on disk. The
// header is finalized on Close.
type StreamWriter struct {
	path     string
	file     *os.File
	enc      *wav.Encoder
	buf      *audio.IntBuffer // reused across chunks
	channels int
	frames   int
	closed   bool
}

// NewStreamWriter creates (or truncates) the file at path and prepares
// a 16-bit PCM encoder for it.
func NewStreamWriter(path string, sampleRate, channelCount int) (*StreamWriter, error) {
	if sampleRate <= 0 || channelCount <= 0 {
		return nil, fmt.Errorf("%w: rate %d, channels %d", ErrEncoding, sampleRate, channelCount)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}

	return &StreamWriter{
		path: path,
		file: file,
		enc:  wav.NewEncoder(file, sampleRate, 16, channelCount, 1),
		buf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: channelCount,
				SampleRate:  sampleRate,
			},
			SourceBitDepth: 16,
		},
		channels: channelCount,
	}, nil
}

// WriteChunk quantizes one interleaved chunk and appends it to the
// file. The chunk length must be a whole number of frames.
func (w *StreamWriter) WriteChunk(chunk []float64) error {
	if w.closed {
		return fmt.Errorf("%w: writer already closed", ErrEncoding)
	}
	if len(chunk)%w.channels != 0 {
		return fmt.Errorf("%w: chunk of %d samples is not a whole frame of %d channels", ErrEncoding, len(chunk), w.channels)
	}
	if len(chunk) == 0 {
		return nil
	}

	if cap(w.buf.Data) < len(chunk) {
		w.buf.Data = make([]int, len(chunk))
	}
	w.buf.Data = w.buf.Data[:len(chunk)]
	for i, f := range chunk {
		w.buf.Data[i] = int(Quantize(f))
	}

	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("writing %s: %w", w.path, err)
	}
	w.frames += len(chunk) / w.channels
	return nil
}

// Frames returns how many frames have been written so far.
func (w *StreamWriter) Frames() int { return w.frames }

// Path returns the destination file path.
func (w *StreamWriter) Path() string { return w.path }

// Close finalizes the WAV header and closes the file. Safe to call
// more than once.
func (w *StreamWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.enc.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("finalizing %s: %w", w.path, err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", w.path, err)
	}
	return nil
}
