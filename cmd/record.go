// SPDX-License-Identifier: MIT
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"leopold/internal/capture"
	"leopold/internal/config"
	applog "leopold/internal/log"
	"leopold/internal/session"
	"leopold/internal/store"
	"leopold/internal/transport"
	"leopold/internal/transport/udp"
)

func newRecordCmd(o *flagOverrides) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record from the configured input until Ctrl-C or the duration ceiling",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, o)
			if err != nil {
				return err
			}
			return runRecord(cmd.OutOrStdout(), cfg, o.synthetic)
		},
	}

	cmd.Flags().IntVarP(&o.deviceID, "device", "d", config.DefaultDeviceID,
		"Input device ID; see the devices command")
	cmd.Flags().IntVarP(&o.channels, "channels", "c", config.DefaultChannelCount,
		"Channels to record (1=mono, 2=stereo)")
	cmd.Flags().IntVarP(&o.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate in Hz")
	cmd.Flags().IntVarP(&o.framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"Frames per capture buffer (power of 2, affects latency)")
	cmd.Flags().BoolVarP(&o.lowLatency, "low-latency", "l", false,
		"Request low latency from the device")
	cmd.Flags().Float64Var(&o.maxSeconds, "max-duration", config.DefaultMaxDuration,
		"Auto-stop after this many seconds")
	cmd.Flags().StringVar(&o.window, "window", config.DefaultWindow,
		"Analysis window: hann, hamming or blackman")
	cmd.Flags().StringVarP(&o.outputDir, "output-dir", "o", config.DefaultOutputDir,
		"Directory for WAV artifacts")
	cmd.Flags().BoolVar(&o.mirror, "mirror", false,
		"Stream audio to disk while recording")
	cmd.Flags().BoolVar(&o.noFeatures, "no-features", false,
		"Skip acoustic feature extraction on stop")
	cmd.Flags().BoolVar(&o.synthetic, "synthetic", false,
		"Record the built-in tone generator instead of a microphone")
	cmd.Flags().StringVar(&o.wsPort, "ws-port", config.DefaultWebSocketPort,
		"Serve live events on ws://:PORT/events")
	cmd.Flags().StringVar(&o.udpAddr, "udp-addr", config.DefaultUDPTarget,
		"Send binary meter packets to this UDP address")

	return cmd
}

// runRecord owns the headless record loop: wire device, store, session
// and transports, record until a signal or the auto-stop ceiling, then
// write the artifact.
func runRecord(w io.Writer, cfg *config.Config, synthetic bool) error {
	dev, cleanup, err := selectDevice(cfg, synthetic)
	if err != nil {
		return err
	}
	defer cleanup()

	st := store.New()
	ctrl := session.NewController(cfg, dev, st)
	defer ctrl.Close()

	sinks, err := buildTransports(cfg)
	if err != nil {
		return err
	}
	defer sinks.Close()

	// Every event goes to the sinks; the latest is kept for the
	// pull-based UDP meter.
	var evMu sync.Mutex
	var lastEvent session.Event
	removeForward := ctrl.AddListener(func(ev session.Event) {
		evMu.Lock()
		lastEvent = ev
		evMu.Unlock()
		sinks.Send(ev)
	})
	defer removeForward()

	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			return err
		}
		publisher, err := udp.NewPublisher(cfg.Transport.UDPSendInterval, sender, func() udp.Sample {
			evMu.Lock()
			ev := lastEvent
			evMu.Unlock()
			return udp.Sample{
				Status:  uint8(ev.Status),
				Elapsed: ev.ElapsedSeconds,
				Level:   ev.LiveLevel,
				Bands:   ev.Bands,
			}
		})
		if err != nil {
			sender.Close()
			return err
		}
		publisher.Start()
		defer func() {
			publisher.Stop()
			sender.Close()
		}()
	}

	// done fires when the session reaches a terminal state on its own:
	// auto-stop at the ceiling or a device failure.
	done := make(chan struct{})
	var doneOnce sync.Once
	removeDone := ctrl.AddListener(func(ev session.Event) {
		switch ev.Status {
		case session.StatusStopped, session.StatusError:
			doneOnce.Do(func() { close(done) })
		}
	})
	defer removeDone()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	if err := ctrl.Start(); err != nil {
		return err
	}
	fmt.Fprintf(w, "Recording from %s at %d Hz; Ctrl-C to stop (auto-stop at %gs)\n",
		dev.Name(), cfg.Audio.SampleRate, cfg.Recording.MaxDurationSeconds)

	select {
	case <-interrupt:
		applog.Infof("cmd: interrupt received, stopping")
		if err := ctrl.Stop(); err != nil && !errors.Is(err, session.ErrNotRecording) {
			return err
		}
	case <-done:
	}

	snap := ctrl.Snapshot()
	if snap.Status == session.StatusError {
		return fmt.Errorf("recording failed: %s", snap.Reason)
	}

	rec := st.Current()
	if rec == nil {
		return errors.New("no recording produced")
	}

	// The mirror already wrote the artifact; otherwise write it now.
	path := rec.Path
	if path == "" {
		if err := os.MkdirAll(cfg.Recording.OutputDir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
		path = cfg.OutputPath(rec.CreatedAt)
		if err := os.WriteFile(path, rec.WAV, 0o644); err != nil {
			return fmt.Errorf("writing artifact: %w", err)
		}
	}
	fmt.Fprintf(w, "Saved %.2fs to %s\n", rec.Duration, path)

	if rec.Features != nil {
		out, err := json.MarshalIndent(rec.Features, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(out))
	}
	return nil
}

// selectDevice picks the capture device: the synthetic tone when asked,
// otherwise the configured PortAudio input. The audio host runs only
// for the hardware path.
func selectDevice(cfg *config.Config, synthetic bool) (capture.Device, func(), error) {
	if synthetic {
		return &capture.SyntheticDevice{}, func() {}, nil
	}

	if err := capture.Initialize(); err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := capture.Terminate(); err != nil {
			applog.Warnf("cmd: terminating audio host: %v", err)
		}
	}

	dev := capture.NewPortAudioDevice(cfg.Audio.InputDevice, cfg.Audio.LowLatency)
	if !dev.Supported() {
		cleanup()
		return nil, nil, fmt.Errorf("device %d has no input channels; run the devices command", cfg.Audio.InputDevice)
	}
	return dev, cleanup, nil
}

// buildTransports assembles the event sinks: always the debug log, plus
// the WebSocket hub when enabled.
func buildTransports(cfg *config.Config) (transport.Fanout, error) {
	sinks := transport.Fanout{transport.NewLoggingTransport()}
	if cfg.Transport.WebSocketEnabled {
		hub, err := transport.NewWebSocketTransport(net.JoinHostPort("", cfg.Transport.WebSocketPort))
		if err != nil {
			sinks.Close()
			return nil, err
		}
		sinks = append(sinks, hub)
	}
	return sinks, nil
}
