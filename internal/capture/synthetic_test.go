// SPDX-License-Identifier: MIT
package capture

import (
	"errors"
	"math"
	"testing"
)

func TestSyntheticDeviceChunks(t *testing.T) {
	dev := &SyntheticDevice{Frequency: 440, Amplitude: 0.5}
	cfg := StreamConfig{SampleRate: 8000, ChannelCount: 1, FramesPerBuffer: 64}

	stream, err := dev.Acquire(cfg)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer stream.Release()

	step := 2 * math.Pi * 440 / 8000.0

	first := <-stream.Chunks()
	if len(first) != 64 {
		t.Fatalf("chunk of %d samples, expected 64", len(first))
	}
	for i, v := range first {
		expected := 0.5 * math.Sin(float64(i)*step)
		if math.Abs(v-expected) > 1e-9 {
			t.Fatalf("sample %d: %v, expected %v", i, v, expected)
		}
	}

	// The second chunk continues the phase where the first left off.
	second := <-stream.Chunks()
	if expected := 0.5 * math.Sin(64 * step); math.Abs(second[0]-expected) > 1e-9 {
		t.Errorf("phase discontinuity: %v, expected %v", second[0], expected)
	}
}

func TestSyntheticDeviceStereo(t *testing.T) {
	dev := &SyntheticDevice{}
	cfg := StreamConfig{SampleRate: 8000, ChannelCount: 2, FramesPerBuffer: 32}

	stream, err := dev.Acquire(cfg)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer stream.Release()

	chunk := <-stream.Chunks()
	if len(chunk) != 64 {
		t.Fatalf("chunk of %d samples, expected 64", len(chunk))
	}
	for frame := 0; frame < 32; frame++ {
		if chunk[2*frame] != chunk[2*frame+1] {
			t.Fatalf("frame %d: channels differ: %v vs %v", frame, chunk[2*frame], chunk[2*frame+1])
		}
	}
}

func TestSyntheticDeviceDeniedAccess(t *testing.T) {
	dev := &SyntheticDevice{DenyAccess: true}

	_, err := dev.Acquire(StreamConfig{SampleRate: 8000, ChannelCount: 1, FramesPerBuffer: 64})
	if !errors.Is(err, ErrPermission) {
		t.Errorf("error = %v, expected ErrPermission", err)
	}
}

func TestSyntheticDeviceInvalidConfig(t *testing.T) {
	dev := &SyntheticDevice{}
	if _, err := dev.Acquire(StreamConfig{SampleRate: 0, ChannelCount: 1, FramesPerBuffer: 64}); !errors.Is(err, ErrPermission) {
		t.Errorf("error = %v, expected ErrPermission", err)
	}
}

func TestSyntheticDeviceFailAfter(t *testing.T) {
	dev := &SyntheticDevice{FailAfterChunks: 2}

	stream, err := dev.Acquire(StreamConfig{SampleRate: 8000, ChannelCount: 1, FramesPerBuffer: 16})
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	count := 0
	for range stream.Chunks() {
		count++
	}
	if count != 2 {
		t.Errorf("received %d chunks before failure, expected 2", count)
	}
	if err := stream.Err(); !errors.Is(err, ErrDevice) {
		t.Errorf("Err() = %v, expected ErrDevice", err)
	}
}

func TestSyntheticDeviceRelease(t *testing.T) {
	dev := &SyntheticDevice{}

	stream, err := dev.Acquire(StreamConfig{SampleRate: 8000, ChannelCount: 1, FramesPerBuffer: 16})
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	<-stream.Chunks()
	if err := stream.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	// Drain whatever was in flight; the channel must close.
	for range stream.Chunks() {
	}

	if err := stream.Err(); err != nil {
		t.Errorf("Err() = %v after clean release, expected nil", err)
	}
	if got := dev.ReleaseCount(); got != 1 {
		t.Errorf("ReleaseCount() = %d, expected 1", got)
	}

	// The counter tracks calls, so a double release is visible to
	// lifecycle tests.
	stream.Release()
	if got := dev.ReleaseCount(); got != 2 {
		t.Errorf("ReleaseCount() after second call = %d, expected 2", got)
	}
}
