package host

import (
	"fmt"

	"github.com/spf13/cobra"
)

// StartMonitorCommand returns the "host start-monitor" command.
func StartMonitorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start-monitor",
		Short: "Launch the status monitor for a region",
		Long: `Launch the status monitor for the region in nova_config. Only the
region is read; no server lookup is performed.

Examples:
  oshost host start-monitor --nova-config web.yaml`,
		RunE:         runStartMonitor,
		SilenceUsage: true,
		Annotations:  map[string]string{"audit": "true"},
	}

	cmd.Flags().String("nova-config", "", "Path to the nova_config file, or - for stdin (required)")
	cmd.MarkFlagRequired("nova-config")

	return cmd
}

func runStartMonitor(cmd *cobra.Command, args []string) error {
	novaConfig, err := loadBag(cmd, "nova-config")
	if err != nil {
		return err
	}
	annotate(cmd, "", novaConfig)

	svc, err := newService(cmd)
	if err != nil {
		return err
	}

	if err := svc.StartMonitor(cmd.Context(), novaConfig); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Status monitor launched for region %q.\n", novaConfig["region"])
	return nil
}
