package host

import (
	"context"
	"fmt"
	"strings"

	"nathanbeddoewebdev/oshost/internal/domain"
	"nathanbeddoewebdev/oshost/internal/params"
	"nathanbeddoewebdev/oshost/internal/provisioner"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// StartCommand returns the "host start" command.
func StartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a server and its region's status monitor",
		Long: `Bring a server to the running state.

An ACTIVE or building server is left alone. A SHUTOFF server is rebooted.
Any other status fails without touching the server. In both successful
cases the status monitor is launched for the server's region.

Examples:
  oshost host start --nova-config web.yaml`,
		RunE:         runStart,
		SilenceUsage: true,
		Annotations:  map[string]string{"audit": "true"},
	}

	cmd.Flags().String("correlation-id", "", "Correlation ID for logs (default: random UUID)")
	cmd.Flags().String("nova-config", "", "Path to the nova_config file, or - for stdin (required)")
	addOutputFlag(cmd)
	cmd.MarkFlagRequired("nova-config")

	return cmd
}

func runStart(cmd *cobra.Command, args []string) error {
	correlationID, _ := cmd.Flags().GetString("correlation-id")
	if strings.TrimSpace(correlationID) == "" {
		correlationID = uuid.NewString()
	}
	return runLifecycle(cmd, correlationID, "started", func(svc *provisioner.Service, ctx context.Context, novaConfig params.Bag) (*domain.Server, error) {
		return svc.Start(ctx, correlationID, novaConfig)
	})
}

// StopCommand returns the "host stop" command.
func StopCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop a server",
		Long: `Power off the server named in nova_config. The provider decides whether
the transition is valid for the server's current status.

Examples:
  oshost host stop --nova-config web.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLifecycle(cmd, "", "stopped", (*provisioner.Service).Stop)
		},
		SilenceUsage: true,
		Annotations:  map[string]string{"audit": "true"},
	}

	cmd.Flags().String("nova-config", "", "Path to the nova_config file, or - for stdin (required)")
	addOutputFlag(cmd)
	cmd.MarkFlagRequired("nova-config")

	return cmd
}

// TerminateCommand returns the "host terminate" command.
func TerminateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "terminate",
		Short: "Delete a server",
		Long: `Delete the server named in nova_config.

Examples:
  oshost host terminate --nova-config web.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLifecycle(cmd, "", "terminated", (*provisioner.Service).Terminate)
		},
		SilenceUsage: true,
		Annotations:  map[string]string{"audit": "true"},
	}

	cmd.Flags().String("nova-config", "", "Path to the nova_config file, or - for stdin (required)")
	addOutputFlag(cmd)
	cmd.MarkFlagRequired("nova-config")

	return cmd
}

// lifecycleFunc has the shape of a provisioner.Service method expression.
type lifecycleFunc func(svc *provisioner.Service, ctx context.Context, novaConfig params.Bag) (*domain.Server, error)

// runLifecycle loads nova_config, runs op and prints the server it acted on.
func runLifecycle(cmd *cobra.Command, correlationID, verb string, op lifecycleFunc) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
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

	server, err := op(svc, cmd.Context(), novaConfig)
	annotateServer(cmd, server)
	if err != nil {
		return err
	}

	if format == "json" {
		return printJSON(cmd, server)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Server %q (%s) %s.\n", server.Name, server.ID, verb)
	return nil
}
