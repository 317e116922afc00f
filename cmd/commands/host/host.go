package host

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"nathanbeddoewebdev/oshost/internal/auditlog"
	"nathanbeddoewebdev/oshost/internal/config"
	"nathanbeddoewebdev/oshost/internal/domain"
	"nathanbeddoewebdev/oshost/internal/logging"
	"nathanbeddoewebdev/oshost/internal/monitor"
	"nathanbeddoewebdev/oshost/internal/params"
	"nathanbeddoewebdev/oshost/internal/providers"
	"nathanbeddoewebdev/oshost/internal/provisioner"
	"nathanbeddoewebdev/oshost/internal/services/auth"
	"nathanbeddoewebdev/oshost/internal/userdata"

	"github.com/spf13/cobra"
)

// userdataTimeout bounds the userdata fetch.
const userdataTimeout = 60 * time.Second

// launcherFor picks the monitor launcher for the configured monitor mode.
// Tests replace it.
var launcherFor = func(cfg *config.Config, logger *slog.Logger) provisioner.MonitorLauncher {
	if cfg.Mode() == config.MonitorModeOff {
		return nil
	}
	return &monitor.ProcessLauncher{Logger: logger}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "host",
		Short: "Provision and manage OpenStack hosts",
		Long: `Run host lifecycle tasks against the configured cloud provider.

Each task reads its server description (nova_config) from a YAML or JSON
file, or from stdin when the file is "-". A nova_config carries the
region and an instance mapping with the server-create parameters:

  region: RegionOne
  instance:
    name: web-1
    image: 5d3c0f3e-...
    flavor: m1.small
    key_name: deploy
    userdata:
      type: http
      url: https://example.com/cloud-init.yaml`,
		PersistentPreRunE: resolveProvider,
	}

	cmd.AddCommand(ProvisionCommand())
	cmd.AddCommand(StartCommand())
	cmd.AddCommand(StopCommand())
	cmd.AddCommand(TerminateCommand())
	cmd.AddCommand(ConnectNetworkCommand())
	cmd.AddCommand(StartMonitorCommand())
	cmd.AddCommand(ShowCommand())

	cmd.PersistentFlags().String("provider", "", "Cloud provider to use (overrides default)")

	return cmd
}

// resolveProvider fills --provider from the configured default when the
// flag was not passed.
func resolveProvider(cmd *cobra.Command, args []string) error {
	if cmd.Flag("provider").Changed {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return cmd.Flag("provider").Value.Set(cfg.Provider())
}

// newService builds a provisioner bound to the selected provider.
func newService(cmd *cobra.Command) (*provisioner.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	providerName := cmd.Flag("provider").Value.String()
	logger := logging.FromContext(cmd.Context()).With("provider", providerName)

	clouds := func(ctx context.Context, region string) (domain.Cloud, error) {
		return providers.Get(ctx, providerName, region, auth.DefaultStore())
	}
	registry := userdata.Default(&http.Client{Timeout: userdataTimeout}, logger)

	return provisioner.NewService(clouds, registry, launcherFor(cfg, logger), logger), nil
}

// loadBag reads the property bag named by flag.
func loadBag(cmd *cobra.Command, flag string) (params.Bag, error) {
	path, _ := cmd.Flags().GetString(flag)
	if path == "" {
		return nil, fmt.Errorf("--%s is required", flag)
	}
	return params.LoadBag(path, cmd.InOrStdin())
}

// annotate records what the task acts on for the audit log. It reads the
// bag leniently; validation happens in the provisioner.
func annotate(cmd *cobra.Command, correlationID string, novaConfig params.Bag) {
	meta := auditlog.Metadata{
		Provider:      cmd.Flag("provider").Value.String(),
		CorrelationID: correlationID,
		ResourceType:  "server",
	}
	if region, ok := novaConfig["region"].(string); ok {
		meta.Region = region
	}
	if instance, ok := params.AsMap(novaConfig["instance"]); ok {
		if name, ok := instance["name"].(string); ok {
			meta.ResourceName = name
		}
	}
	cmd.SetContext(auditlog.WithMetadata(cmd.Context(), meta))
}

// annotateServer adds the resolved server to the audit metadata.
func annotateServer(cmd *cobra.Command, server *domain.Server) {
	if server == nil {
		return
	}
	cmd.SetContext(auditlog.WithMetadata(cmd.Context(), auditlog.Metadata{
		ResourceID:   server.ID,
		ResourceName: server.Name,
	}))
}
