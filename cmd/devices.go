// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"leopold/internal/capture"
	applog "leopold/internal/log"
	"leopold/internal/tui"
)

func newDevicesCmd(o *flagOverrides) *cobra.Command {
	var pick bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List capture devices, or pick one interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := resolveConfig(cmd, o); err != nil {
				return err
			}

			if err := capture.Initialize(); err != nil {
				return err
			}
			defer func() {
				if err := capture.Terminate(); err != nil {
					applog.Warnf("cmd: terminating audio host: %v", err)
				}
			}()

			if pick {
				id, err := tui.PickInputDevice()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(),
					"Selected device %d. Persist it with audio.input_device: %d, or pass --device %d to record.\n",
					id, id, id)
				return nil
			}
			return listDevices(cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&pick, "pick", false, "Choose a device interactively")
	return cmd
}

// listDevices prints one line per host device, marking usable inputs.
func listDevices(w io.Writer) error {
	devices, err := capture.HostDevices()
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Fprintln(w, "No audio devices found.")
		return nil
	}

	for _, d := range devices {
		marker := " "
		if d.MaxInputChannels > 0 {
			marker = "*"
		}
		fmt.Fprintf(w, "%s [%2d] %-40s in:%-2d out:%-2d %6.0f Hz\n",
			marker, d.ID, d.Name, d.MaxInputChannels, d.MaxOutputChannels, d.DefaultSampleRate)
	}
	fmt.Fprintln(w, "\n* input-capable")
	return nil
}
