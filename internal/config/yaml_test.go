// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config, got nil")
	}
	if cfg.Audio.SampleRate != DefaultSampleRate {
		t.Errorf("default sample rate = %d, want %d", cfg.Audio.SampleRate, DefaultSampleRate)
	}
	if cfg.Recording.MaxDurationSeconds != DefaultMaxDuration {
		t.Errorf("default max duration = %g, want %g", cfg.Recording.MaxDurationSeconds, DefaultMaxDuration)
	}
	if !cfg.Recording.ComputeFeatures {
		t.Error("compute_features should default to true")
	}
	if cfg.Recording.Window != "hann" {
		t.Errorf("default window = %q, want hann", cfg.Recording.Window)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Error("expected unmarshal error, got nil or wrong error")
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
audio:
  sample_rate: 22050
  channel_count: 2
recording:
  max_duration_seconds: 30
  window: blackman
  compute_features: false
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Audio.SampleRate != 22050 {
		t.Errorf("sample_rate = %d, want 22050", cfg.Audio.SampleRate)
	}
	if cfg.Audio.ChannelCount != 2 {
		t.Errorf("channel_count = %d, want 2", cfg.Audio.ChannelCount)
	}
	if cfg.Recording.MaxDurationSeconds != 30 {
		t.Errorf("max_duration_seconds = %g, want 30", cfg.Recording.MaxDurationSeconds)
	}
	if cfg.Recording.Window != "blackman" {
		t.Errorf("window = %q, want blackman", cfg.Recording.Window)
	}
	if cfg.Recording.ComputeFeatures {
		t.Error("compute_features = true, want false")
	}

	// Keys the file omits keep their defaults.
	if cfg.Audio.FramesPerBuffer != DefaultFramesPerBuffer {
		t.Errorf("frames_per_buffer = %d, want default %d", cfg.Audio.FramesPerBuffer, DefaultFramesPerBuffer)
	}
}

func TestLoadConfig_InvalidConfigRejected(t *testing.T) {
	tests := []struct {
		desc    string
		yaml    string
		errPart string
	}{
		{
			desc:    "sample rate too low",
			yaml:    "audio:\n  sample_rate: 4000\n",
			errPart: "sample_rate",
		},
		{
			desc:    "zero channels",
			yaml:    "audio:\n  channel_count: 0\n  sample_rate: 44100\n",
			errPart: "channel_count",
		},
		{
			desc:    "frames per buffer not a power of two",
			yaml:    "audio:\n  frames_per_buffer: 1000\n",
			errPart: "frames_per_buffer",
		},
		{
			desc:    "negative max duration",
			yaml:    "recording:\n  max_duration_seconds: -5\n",
			errPart: "max_duration_seconds",
		},
		{
			desc:    "unknown window",
			yaml:    "recording:\n  window: kaiser\n",
			errPart: "window",
		},
		{
			desc:    "udp enabled without address",
			yaml:    "transport:\n  udp_enabled: true\n  udp_target_address: \"\"\n",
			errPart: "udp_target_address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			path := writeTempConfig(t, tt.yaml)
			_, err := LoadConfig(path)
			if err == nil {
				t.Fatalf("expected validation error containing %q, got nil", tt.errPart)
			}
			if !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("error = %v, want mention of %q", err, tt.errPart)
			}
		})
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("LEOPOLD_DEBUG", "true")
	t.Setenv("LEOPOLD_WS_PORT", "9999")
	t.Setenv("LEOPOLD_UDP_SEND_INTERVAL", "50ms")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if !cfg.Debug {
		t.Error("LEOPOLD_DEBUG override not applied")
	}
	if cfg.Transport.WebSocketPort != "9999" {
		t.Errorf("websocket_port = %q, want 9999", cfg.Transport.WebSocketPort)
	}
	if cfg.Transport.UDPSendInterval != 50*time.Millisecond {
		t.Errorf("udp_send_interval = %s, want 50ms", cfg.Transport.UDPSendInterval)
	}
}

func TestConfigDerivedValues(t *testing.T) {
	cfg := Default()
	cfg.Recording.TickIntervalMS = 250
	cfg.Recording.MaxDurationSeconds = 2.5

	if got := cfg.TickInterval(); got != 250*time.Millisecond {
		t.Errorf("TickInterval() = %s, want 250ms", got)
	}
	if got := cfg.MaxDuration(); got != 2500*time.Millisecond {
		t.Errorf("MaxDuration() = %s, want 2.5s", got)
	}

	now := time.Date(2026, 8, 21, 15, 4, 5, 0, time.UTC)
	path := cfg.OutputPath(now)
	if !strings.HasSuffix(path, "recording-21-08-2026-150405.wav") {
		t.Errorf("OutputPath() = %q, want timestamped wav name", path)
	}
	if !strings.HasPrefix(path, cfg.Recording.OutputDir) {
		t.Errorf("OutputPath() = %q, want under %q", path, cfg.Recording.OutputDir)
	}
}
