package host

import (
	"fmt"

	"nathanbeddoewebdev/oshost/internal/domain"
	"nathanbeddoewebdev/oshost/internal/params"

	"github.com/spf13/cobra"
)

// ConnectNetworkCommand returns the "host connect-network" command.
func ConnectNetworkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connect-network",
		Short: "Attach a server to a network",
		Long: `Attach the server described by the target bag to the network named by
the source bag. The provider allocates the address.

Source bag:
  network:
    name: backend

Target bag:
  nova_config:
    region: RegionOne
    instance:
      name: web-1

Examples:
  oshost host connect-network --source net.yaml --target web.yaml`,
		RunE:         runConnectNetwork,
		SilenceUsage: true,
		Annotations:  map[string]string{"audit": "true"},
	}

	cmd.Flags().String("source", "", "Path to the source bag (network), or - for stdin (required)")
	cmd.Flags().String("target", "", "Path to the target bag (nova_config), or - for stdin (required)")
	addOutputFlag(cmd)
	cmd.MarkFlagRequired("source")
	cmd.MarkFlagRequired("target")

	return cmd
}

func runConnectNetwork(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	source, err := loadBag(cmd, "source")
	if err != nil {
		return err
	}
	target, err := loadBag(cmd, "target")
	if err != nil {
		return err
	}
	if novaConfig, ok := params.AsMap(target["nova_config"]); ok {
		annotate(cmd, "", novaConfig)
	}

	svc, err := newService(cmd)
	if err != nil {
		return err
	}

	server, network, err := svc.ConnectNetwork(cmd.Context(), source, target)
	if err != nil {
		return err
	}
	annotateServer(cmd, server)

	if format == "json" {
		return printJSON(cmd, struct {
			Server  *domain.Server  `json:"server"`
			Network *domain.Network `json:"network"`
		}{server, network})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Server %q attached to network %q (%s).\n", server.Name, network.Name, network.ID)
	return nil
}
