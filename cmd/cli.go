// SPDX-License-Identifier: MIT
/*
Package cmd wires the command line: flag parsing, configuration
assembly and one run function per subcommand.
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"leopold/internal/config"
	applog "leopold/internal/log"
	"leopold/pkg/build"
)

// flagOverrides collects command line values. They are applied on top
// of the file configuration only when the user actually set the flag,
// so config files keep working alongside flags.
type flagOverrides struct {
	configPath string
	debug      bool
	synthetic  bool

	deviceID        int
	channels        int
	sampleRate      int
	framesPerBuffer int
	lowLatency      bool
	maxSeconds      float64
	window          string
	outputDir       string
	mirror          bool
	noFeatures      bool
	wsPort          string
	udpAddr         string
}

// Execute builds the command tree and runs it.
func Execute() error {
	info := build.Get()
	o := &flagOverrides{}

	rootCmd := &cobra.Command{
		Use:           info.Name,
		Short:         "Wildlife sound recorder and analyzer",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", info.Version, info.Commit, info.Time),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&o.configPath, "config", "",
		"Path to a YAML config file (default: leopold.yaml, config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&o.debug, "debug", false,
		"Enable debug logging")

	rootCmd.AddCommand(newRecordCmd(o))
	rootCmd.AddCommand(newDevicesCmd(o))
	rootCmd.AddCommand(newAnalyzeCmd(o))

	return rootCmd.Execute()
}

// resolveConfig loads the file configuration and applies flag
// overrides, then fixes the log level for the rest of the run.
func resolveConfig(cmd *cobra.Command, o *flagOverrides) (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("device") {
		cfg.Audio.InputDevice = o.deviceID
	}
	if flags.Changed("channels") {
		cfg.Audio.ChannelCount = o.channels
	}
	if flags.Changed("sample-rate") {
		cfg.Audio.SampleRate = o.sampleRate
	}
	if flags.Changed("frames-per-buffer") {
		cfg.Audio.FramesPerBuffer = o.framesPerBuffer
	}
	if flags.Changed("low-latency") {
		cfg.Audio.LowLatency = o.lowLatency
	}
	if flags.Changed("max-duration") {
		cfg.Recording.MaxDurationSeconds = o.maxSeconds
	}
	if flags.Changed("window") {
		cfg.Recording.Window = o.window
	}
	if flags.Changed("output-dir") {
		cfg.Recording.OutputDir = o.outputDir
	}
	if flags.Changed("mirror") {
		cfg.Recording.MirrorToDisk = o.mirror
	}
	if flags.Changed("no-features") {
		cfg.Recording.ComputeFeatures = !o.noFeatures
	}
	if flags.Changed("ws-port") {
		cfg.Transport.WebSocketEnabled = true
		cfg.Transport.WebSocketPort = o.wsPort
	}
	if flags.Changed("udp-addr") {
		cfg.Transport.UDPEnabled = true
		cfg.Transport.UDPTargetAddress = o.udpAddr
	}
	if o.debug {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, _ := applog.ParseLevel(cfg.LogLevel)
	if cfg.Debug {
		level = applog.LevelDebug
	}
	applog.SetLevel(level)

	return cfg, nil
}
