// SPDX-License-Identifier: MIT
package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"leopold/internal/config"
	"leopold/internal/dsp"
	applog "leopold/internal/log"
	"leopold/internal/wavenc"
)

func newAnalyzeCmd(o *flagOverrides) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <file.wav>",
		Short: "Extract acoustic features from a WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, o)
			if err != nil {
				return err
			}
			return runAnalyze(cmd.OutOrStdout(), cfg, args[0])
		},
	}

	cmd.Flags().StringVar(&o.window, "window", config.DefaultWindow,
		"Analysis window: hann, hamming or blackman")
	return cmd
}

// runAnalyze loads a WAV from disk and prints its features as JSON.
func runAnalyze(w io.Writer, cfg *config.Config, path string) error {
	buf, err := wavenc.ReadFile(path)
	if err != nil {
		return err
	}
	applog.Infof("cmd: analyzing %s (%.2fs at %d Hz, %d channels)",
		path, buf.Duration(), buf.SampleRate(), buf.ChannelCount())

	wt, _ := dsp.ParseWindowType(cfg.Recording.Window)
	features, err := dsp.ExtractFeatures(buf.Mono(), buf.SampleRate(), wt)
	if err != nil {
		return fmt.Errorf("analyzing %s: %w", path, err)
	}

	out, err := json.MarshalIndent(features, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(out))
	return nil
}
