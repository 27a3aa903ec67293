// SPDX-License-Identifier: MIT
/*
Package capture abstracts microphone access behind a small Device/Stream
pair so the recording session never touches PortAudio directly. Two
implementations exist: PortAudioDevice for real hardware and
SyntheticDevice, a deterministic tone generator used by tests, CI and
the --synthetic flag.

Chunk delivery is single-producer single-consumer over a channel and
never drops: when the consumer falls behind, the producer blocks until
the chunk is taken or the stream is released.
*/
package capture

import "errors"

var (
	// ErrPermission reports that device access was denied or no usable
	// input device exists. Raised at acquisition time; the session can
	// retry after the user fixes access.
	ErrPermission = errors.New("capture: device access denied or unavailable")

	// ErrDevice reports a device failing mid-session (unplugged, OS
	// error, stream ended). Any partial capture is discarded.
	ErrDevice = errors.New("capture: device failure")
)

// StreamConfig is the format a session requests from a device.
type StreamConfig struct {
	SampleRate      int
	ChannelCount    int
	FramesPerBuffer int
}

// Stream is one live capture. Chunks delivers interleaved samples in
// [-1, 1] in strict arrival order and is closed when the stream ends,
// fails, or is released.
type Stream interface {
	// Chunks is the delivery channel. Each chunk is a whole number of
	// frames and owned by the receiver.
	Chunks() <-chan []float64

	// Err reports why Chunks closed: nil after a clean Release, a
	// wrapped ErrDevice otherwise. Undefined while Chunks is open.
	Err() error

	// Release stops delivery and frees the device. Idempotent; safe on
	// an already-failed stream.
	Release() error
}

// Device is the injected capture dependency.
type Device interface {
	// Name identifies the device for logs and the picker UI.
	Name() string

	// Supported reports whether this runtime can capture at all, the
	// probe callers run before offering a record action.
	Supported() bool

	// Acquire opens a live stream, prompting for OS permission where
	// that applies. Fails with ErrPermission when access is denied or
	// no input device is usable.
	Acquire(cfg StreamConfig) (Stream, error)
}
