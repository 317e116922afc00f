package host

import (
	"fmt"
	"strings"

	"nathanbeddoewebdev/oshost/internal/config"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// ProvisionCommand returns the "host provision" command.
func ProvisionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create a server attached to the management network",
		Long: `Create a server from a nova_config and attach it to the management network.

The server is tagged with the correlation ID (meta.cloudify_id). The task
fails when a server with the same name already exists. Caller-supplied
nics are rejected; the management network is the only attachment.

Examples:
  oshost host provision --nova-config web.yaml --management-network mgmt
  oshost host provision --correlation-id 42 --nova-config - < web.json -o json`,
		RunE:         runProvision,
		SilenceUsage: true,
		Annotations:  map[string]string{"audit": "true"},
	}

	cmd.Flags().String("correlation-id", "", "Correlation ID stamped on the server (default: random UUID)")
	cmd.Flags().String("nova-config", "", "Path to the nova_config file, or - for stdin (required)")
	cmd.Flags().String("management-network", "", "Management network name (default: management-network config key)")
	addOutputFlag(cmd)
	cmd.MarkFlagRequired("nova-config")

	return cmd
}

func runProvision(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	correlationID, _ := cmd.Flags().GetString("correlation-id")
	if strings.TrimSpace(correlationID) == "" {
		correlationID = uuid.NewString()
	}

	managementNetwork, _ := cmd.Flags().GetString("management-network")
	if managementNetwork == "" {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		managementNetwork = cfg.ManagementNetwork
	}

	novaConfig, err := loadBag(cmd, "nova-config")
	if err != nil {
		return err
	}
	annotate(cmd, correlationID, novaConfig)

	svc, err := newService(cmd)
	if err != nil {
		return err
	}

	server, err := svc.Provision(cmd.Context(), correlationID, novaConfig, managementNetwork)
	if err != nil {
		return err
	}
	annotateServer(cmd, server)

	if format == "table" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Server %q provisioned (correlation ID %s).\n", server.Name, correlationID)
	}
	return printServer(cmd, server, format)
}
