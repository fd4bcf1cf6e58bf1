package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/device"
)

func newDeviceCommand(o *options) *cobra.Command {
	var hardware bool

	cmd := &cobra.Command{
		Use:   "device-id",
		Short: "Print the device identifier stored with session reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if hardware {
				id, err := device.Hardware()
				if err != nil {
					return fmt.Errorf("hardware identifier: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), device.ID(o.config.DeviceID))
			return nil
		},
	}

	cmd.Flags().BoolVar(&hardware, "hardware", false, "Ignore overrides and query the hardware UUID")
	return cmd
}
