package config

import (
	"fmt"
	"path/filepath"
	"time"

	"leopold/pkg/bitint"
)

// Core configuration constants that define the boundaries and defaults
// for the recording pipeline.
const (
	// Default values for a recording session
	DefaultSampleRate      = 44100  // CD-quality audio
	DefaultChannelCount    = 1      // Mono field recordings
	DefaultMaxDuration     = 60.0   // Seconds before auto-stop
	DefaultTickIntervalMS  = 100    // Elapsed/level update cadence
	DefaultWindow          = "hann" // Analysis window function
	DefaultFramesPerBuffer = 1024   // Capture buffer size in frames
	DefaultDeviceID        = MinDeviceID
	DefaultOutputDir       = "./recordings"
	DefaultWebSocketPort   = "8080"
	DefaultUDPTarget       = "127.0.0.1:9090"

	// Hardware and processing limits
	MinDeviceID     = -1     // -1 represents system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxChannels     = 8      // Sanity cap on channel count
	MaxBufferFrames = 8192   // Maximum frames per buffer (power of 2)
	MinTickMS       = 10     // Fastest allowed tick interval
	MaxTickMS       = 1000   // Slowest allowed tick interval
)

// Config is the full application configuration, loaded from YAML with
// environment overrides applied on top. See LoadConfig.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Verbose logging and debug behavior.
	LogLevel  string          `yaml:"log_level"` // Logging level ("debug", "info", "warn", "error").
	Audio     AudioConfig     `yaml:"audio"`     // Capture device settings.
	Recording RecordingConfig `yaml:"recording"` // Session and analysis settings.
	Transport TransportConfig `yaml:"transport"` // Live metering transport settings.
}

// AudioConfig holds capture device settings.
type AudioConfig struct {
	InputDevice     int  `yaml:"input_device"`      // Device index (-1 for system default).
	SampleRate      int  `yaml:"sample_rate"`       // Sample rate in Hz.
	ChannelCount    int  `yaml:"channel_count"`     // 1 for mono, 2 for stereo.
	FramesPerBuffer int  `yaml:"frames_per_buffer"` // Frames per capture chunk (power of 2).
	LowLatency      bool `yaml:"low_latency"`       // Request low latency from the device.
}

// RecordingConfig holds session lifecycle and feature-extraction settings.
type RecordingConfig struct {
	MaxDurationSeconds float64 `yaml:"max_duration_seconds"` // Auto-stop ceiling.
	TickIntervalMS     int     `yaml:"tick_interval_ms"`     // Elapsed/liveLevel update interval.
	Window             string  `yaml:"window"`               // hann, hamming or blackman.
	ComputeFeatures    bool    `yaml:"compute_features"`     // Extract acoustic descriptors on stop.
	OutputDir          string  `yaml:"output_dir"`           // Where the CLI writes WAV artifacts.
	MirrorToDisk       bool    `yaml:"mirror_to_disk"`       // Stream chunks to a WAV file while recording.
}

// TransportConfig holds settings for pushing live session events.
type TransportConfig struct {
	WebSocketEnabled bool          `yaml:"websocket_enabled"`  // Serve events over a websocket hub.
	WebSocketPort    string        `yaml:"websocket_port"`     // Port for the /events endpoint.
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Send binary meter packets over UDP.
	UDPTargetAddress string        `yaml:"udp_target_address"` // e.g. "127.0.0.1:9090".
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`  // Interval between UDP packets.
}

// Default returns a Config populated with every default value. LoadConfig
// unmarshals files on top of this, so omitted keys keep their defaults.
func Default() *Config {
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			ChannelCount:    DefaultChannelCount,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      false,
		},
		Recording: RecordingConfig{
			MaxDurationSeconds: DefaultMaxDuration,
			TickIntervalMS:     DefaultTickIntervalMS,
			Window:             DefaultWindow,
			ComputeFeatures:    true,
			OutputDir:          DefaultOutputDir,
			MirrorToDisk:       false,
		},
		Transport: TransportConfig{
			WebSocketEnabled: false,
			WebSocketPort:    DefaultWebSocketPort,
			UDPEnabled:       false,
			UDPTargetAddress: DefaultUDPTarget,
			UDPSendInterval:  33 * time.Millisecond, // ~30Hz
		},
	}
}

// Validate checks the configuration against the pipeline's limits.
func (c *Config) Validate() error {
	a := c.Audio
	if a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate %d outside [%d, %d]", a.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if a.ChannelCount < 1 || a.ChannelCount > MaxChannels {
		return fmt.Errorf("audio.channel_count %d outside [1, %d]", a.ChannelCount, MaxChannels)
	}
	if a.InputDevice < MinDeviceID {
		return fmt.Errorf("audio.input_device %d below %d", a.InputDevice, MinDeviceID)
	}
	if !bitint.IsPowerOfTwo(a.FramesPerBuffer) || a.FramesPerBuffer > MaxBufferFrames {
		return fmt.Errorf("audio.frames_per_buffer %d must be a power of 2 no larger than %d", a.FramesPerBuffer, MaxBufferFrames)
	}

	r := c.Recording
	if r.MaxDurationSeconds <= 0 {
		return fmt.Errorf("recording.max_duration_seconds %g must be positive", r.MaxDurationSeconds)
	}
	if r.TickIntervalMS < MinTickMS || r.TickIntervalMS > MaxTickMS {
		return fmt.Errorf("recording.tick_interval_ms %d outside [%d, %d]", r.TickIntervalMS, MinTickMS, MaxTickMS)
	}
	switch r.Window {
	case "hann", "hamming", "blackman":
	default:
		return fmt.Errorf("recording.window %q must be one of hann, hamming, blackman", r.Window)
	}

	t := c.Transport
	if t.WebSocketEnabled && t.WebSocketPort == "" {
		return fmt.Errorf("transport.websocket_port must be set when the websocket hub is enabled")
	}
	if t.UDPEnabled {
		if t.UDPTargetAddress == "" {
			return fmt.Errorf("transport.udp_target_address must be set when UDP is enabled")
		}
		if t.UDPSendInterval <= 0 {
			return fmt.Errorf("transport.udp_send_interval must be positive when UDP is enabled")
		}
	}

	return nil
}

// TickInterval returns the session tick cadence as a Duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Recording.TickIntervalMS) * time.Millisecond
}

// MaxDuration returns the auto-stop ceiling as a Duration.
func (c *Config) MaxDuration() time.Duration {
	return time.Duration(c.Recording.MaxDurationSeconds * float64(time.Second))
}

// OutputPath returns a timestamped WAV path under the configured output
// directory, e.g. recordings/recording-02-01-2006-150405.wav.
func (c *Config) OutputPath(now time.Time) string {
	name := fmt.Sprintf("recording-%s.wav", now.Format("02-01-2006-150405"))
	return filepath.Join(c.Recording.OutputDir, name)
}
