// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	applog "leopold/internal/log"
)

// LoadConfig loads configuration from a YAML file at path. If path is
// empty it searches default locations ("leopold.yaml", "config.yaml");
// when no file is found the built-in defaults are used. Environment
// variable overrides are applied after loading, and the final
// configuration is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		candidates := []string{
			"leopold.yaml",
			"config.yaml",
		}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment overrides win over file values.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies LEOPOLD_* environment variables on top of the
// loaded configuration. Malformed values are ignored.
func (cfg *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("LEOPOLD_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
			applog.Debugf("configuration: overriding debug from env: %v", bVal)
		}
	}

	if val, ok := os.LookupEnv("LEOPOLD_LOG_LEVEL"); ok {
		cfg.LogLevel = val
		applog.Debugf("configuration: overriding log_level from env: %s", val)
	}

	if val, ok := os.LookupEnv("LEOPOLD_WS_PORT"); ok {
		cfg.Transport.WebSocketPort = val
		applog.Debugf("configuration: overriding transport.websocket_port from env: %s", val)
	}

	if val, ok := os.LookupEnv("LEOPOLD_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.UDPEnabled = bVal
			applog.Debugf("configuration: overriding transport.udp_enabled from env: %v", bVal)
		}
	}

	if val, ok := os.LookupEnv("LEOPOLD_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
		applog.Debugf("configuration: overriding transport.udp_target_address from env: %s", val)
	}

	if val, ok := os.LookupEnv("LEOPOLD_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Transport.UDPSendInterval = dur
			applog.Debugf("configuration: overriding transport.udp_send_interval from env: %s", dur)
		}
	}
}
