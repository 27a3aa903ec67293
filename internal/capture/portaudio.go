// SPDX-License-Identifier: MIT
package capture

import (
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"leopold/internal/config"
)

// int32Scale converts PortAudio's int32 samples to [-1, 1].
const int32Scale = 2147483648.0 // 1 << 31

// chunkQueueDepth is the delivery channel capacity. Deep enough to ride
// out consumer jitter; when it fills, the producer blocks rather than
// dropping.
const chunkQueueDepth = 8

// paStreamHandle is the part of *portaudio.Stream the capture path
// uses, split out so tests can substitute a fake.
type paStreamHandle interface {
	Start() error
	Stop() error
	Close() error
}

// Indirection over the PortAudio library for testability.
var (
	paLibInitialize             = portaudio.Initialize
	paLibTerminate              = portaudio.Terminate
	paLibDevicesFunc            = portaudio.Devices
	paLibDefaultInputDeviceFunc = portaudio.DefaultInputDevice
	paLibOpenStreamFunc         = func(params portaudio.StreamParameters, callback func([]int32)) (paStreamHandle, error) {
		return portaudio.OpenStream(params, callback)
	}
)

// Initialize sets up the PortAudio subsystem. Must be called before any
// capture operation and paired with Terminate.
func Initialize() error {
	if err := paLibInitialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate shuts down the PortAudio subsystem. Defer it right after a
// successful Initialize.
func Terminate() error {
	if err := paLibTerminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// DeviceInfo describes one host audio device for pickers and logs.
type DeviceInfo struct {
	ID                int
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	LowInputLatency   time.Duration
	HighInputLatency  time.Duration
}

// HostDevices lists every device PortAudio can see, input or not.
func HostDevices() ([]DeviceInfo, error) {
	infos, err := paDevices()
	if err != nil {
		return nil, err
	}

	devices := make([]DeviceInfo, len(infos))
	for i, info := range infos {
		devices[i] = DeviceInfo{
			ID:                i,
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			MaxOutputChannels: info.MaxOutputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
			LowInputLatency:   info.DefaultLowInputLatency,
			HighInputLatency:  info.DefaultHighInputLatency,
		}
	}
	return devices, nil
}

// InputDevice resolves a device ID to PortAudio device info. The
// sentinel config.DefaultDeviceID selects the system default input.
func InputDevice(deviceID int) (*portaudio.DeviceInfo, error) {
	devices, err := paDevices()
	if err != nil {
		return nil, err
	}

	if deviceID == config.MinDeviceID {
		device, err := paLibDefaultInputDeviceFunc()
		if err != nil {
			return nil, err
		}
		return device, nil
	}

	if deviceID < 0 || deviceID >= len(devices) {
		return nil, fmt.Errorf("invalid device ID: %d", deviceID)
	}
	if devices[deviceID].MaxInputChannels == 0 {
		return nil, fmt.Errorf("device %d (%s) does not support input", deviceID, devices[deviceID].Name)
	}
	return devices[deviceID], nil
}

// paDevices returns all PortAudio devices, normalizing nil to an empty
// slice.
func paDevices() ([]*portaudio.DeviceInfo, error) {
	devices, err := paLibDevicesFunc()
	if err != nil {
		return nil, err
	}
	if devices == nil {
		devices = []*portaudio.DeviceInfo{}
	}
	return devices, nil
}

// PortAudioDevice captures from real hardware. The zero deviceID
// convention follows config: config.DefaultDeviceID means the system
// default input.
type PortAudioDevice struct {
	deviceID   int
	lowLatency bool
}

// NewPortAudioDevice returns a device bound to the given PortAudio
// device ID. Initialize must have been called before Acquire.
func NewPortAudioDevice(deviceID int, lowLatency bool) *PortAudioDevice {
	return &PortAudioDevice{deviceID: deviceID, lowLatency: lowLatency}
}

// Name returns the resolved hardware name, or a placeholder when the
// device cannot be resolved yet.
func (d *PortAudioDevice) Name() string {
	if info, err := InputDevice(d.deviceID); err == nil {
		return info.Name
	}
	return "portaudio (unresolved)"
}

// Supported reports whether any input-capable device exists.
func (d *PortAudioDevice) Supported() bool {
	devices, err := paDevices()
	if err != nil {
		return false
	}
	for _, info := range devices {
		if info.MaxInputChannels > 0 {
			return true
		}
	}
	return false
}

// Acquire opens and starts a capture stream on the bound device.
// Resolution and open failures wrap ErrPermission: at this point the
// problem is access or availability, not a mid-session fault.
func (d *PortAudioDevice) Acquire(cfg StreamConfig) (Stream, error) {
	info, err := InputDevice(d.deviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPermission, err)
	}
	if cfg.ChannelCount > info.MaxInputChannels {
		return nil, fmt.Errorf("%w: device %q has %d input channels, need %d",
			ErrPermission, info.Name, info.MaxInputChannels, cfg.ChannelCount)
	}

	latency := info.DefaultHighInputLatency
	if d.lowLatency {
		latency = info.DefaultLowInputLatency
	}

	s := &paStream{
		chunks: make(chan []float64, chunkQueueDepth),
		done:   make(chan struct{}),
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: cfg.ChannelCount,
			Device:   info,
			Latency:  latency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0,
			Device:   nil,
		},
		FramesPerBuffer: cfg.FramesPerBuffer,
		SampleRate:      float64(cfg.SampleRate),
	}

	handle, err := paLibOpenStreamFunc(params, s.deliver)
	if err != nil {
		return nil, fmt.Errorf("%w: opening stream on %q: %v", ErrPermission, info.Name, err)
	}
	s.handle = handle

	if err := handle.Start(); err != nil {
		handle.Close()
		return nil, fmt.Errorf("%w: starting stream on %q: %v", ErrPermission, info.Name, err)
	}
	return s, nil
}

// paStream adapts the PortAudio callback to the Stream contract.
type paStream struct {
	handle paStreamHandle
	chunks chan []float64
	done   chan struct{}

	releaseOnce sync.Once

	mu  sync.Mutex
	err error
}

func (s *paStream) Chunks() <-chan []float64 { return s.chunks }

func (s *paStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// deliver runs on the PortAudio callback thread. The chunk is copied
// out because the library reuses its buffer; the send blocks rather
// than dropping when the consumer lags.
func (s *paStream) deliver(in []int32) {
	chunk := make([]float64, len(in))
	for i, v := range in {
		chunk[i] = float64(v) / int32Scale
	}

	select {
	case s.chunks <- chunk:
	case <-s.done:
	}
}

// Release stops and closes the underlying stream. done closes first so
// a deliver blocked on a full channel returns before Stop waits on the
// callback.
func (s *paStream) Release() error {
	var err error
	s.releaseOnce.Do(func() {
		close(s.done)
		if e := s.handle.Stop(); e != nil {
			err = fmt.Errorf("%w: stopping stream: %v", ErrDevice, e)
		}
		if e := s.handle.Close(); e != nil && err == nil {
			err = fmt.Errorf("%w: closing stream: %v", ErrDevice, e)
		}
		close(s.chunks)

		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
	})
	return err
}
