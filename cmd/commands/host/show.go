package host

import (
	"github.com/spf13/cobra"
)

// ShowCommand returns the "host show" command.
func ShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the server named in a nova_config",
		Long: `Look up the server named in nova_config and display it.

Examples:
  oshost host show --nova-config web.yaml
  oshost host show --nova-config web.yaml -o json`,
		RunE:         runShow,
		SilenceUsage: true,
	}

	cmd.Flags().String("nova-config", "", "Path to the nova_config file, or - for stdin (required)")
	addOutputFlag(cmd)
	cmd.MarkFlagRequired("nova-config")

	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	novaConfig, err := loadBag(cmd, "nova-config")
	if err != nil {
		return err
	}

	svc, err := newService(cmd)
	if err != nil {
		return err
	}

	server, err := svc.Show(cmd.Context(), novaConfig)
	if err != nil {
		return err
	}
	return printServer(cmd, server, format)
}
