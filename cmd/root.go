package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"nathanbeddoewebdev/oshost/cmd/commands/audit"
	"nathanbeddoewebdev/oshost/cmd/commands/auth"
	cfgcmd "nathanbeddoewebdev/oshost/cmd/commands/config"
	"nathanbeddoewebdev/oshost/cmd/commands/events"
	"nathanbeddoewebdev/oshost/cmd/commands/host"
	"nathanbeddoewebdev/oshost/cmd/commands/monitor"
	"nathanbeddoewebdev/oshost/internal/auditlog"
	"nathanbeddoewebdev/oshost/internal/config"
	"nathanbeddoewebdev/oshost/internal/logging"
	"nathanbeddoewebdev/oshost/internal/providers"

	"github.com/spf13/cobra"
)

// auditAnnotation marks commands whose invocations are written to the
// audit log.
const auditAnnotation = "audit"

// rootCmd represents the base command when called without any subcommands.
func rootCmd() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "oshost",
		Short: "Provision and manage OpenStack hosts",
		Long: `oshost runs host lifecycle tasks against an OpenStack cloud: provision a
server attached to a management network, start, stop and terminate it,
attach it to further networks, and monitor server state per region.

Credentials come from the standard OS_* environment variables. The
password may instead be stored in the system keychain.

Quick start:
  oshost auth login openstack                       # Store your password
  oshost config set management-network mgmt         # Default management network
  oshost host provision --nova-config web.yaml      # Create a server
  oshost events list                                # State changes seen by the monitor`,
		PersistentPreRunE: setupLogger,
	}

	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (default: log-level config key, else info)")
	cmd.PersistentFlags().String("log-format", logging.FormatText, "Log format: text or json")

	cmd.AddCommand(audit.NewCommand())
	cmd.AddCommand(auth.NewCommand())
	cmd.AddCommand(cfgcmd.NewCommand())
	cmd.AddCommand(events.NewCommand())
	cmd.AddCommand(host.NewCommand())
	cmd.AddCommand(monitor.NewCommand())

	return cmd
}

// setupLogger builds the process logger and stores it in the command
// context.
func setupLogger(cmd *cobra.Command, args []string) error {
	level, _ := cmd.Flags().GetString("log-level")
	if level == "" {
		if cfg, err := config.Load(); err == nil {
			level = cfg.LogLevel
		}
	}
	format, _ := cmd.Flags().GetString("log-format")

	logger, err := logging.New(cmd.ErrOrStderr(), level, format)
	if err != nil {
		return err
	}
	cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.EnableTraverseRunHooks = true
	providers.RegisterOpenStack()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	root := rootCmd()
	start := time.Now().UTC()
	executed, err := root.ExecuteContextC(ctx)
	recordAudit(executed, os.Args[1:], err, start)

	if err != nil {
		cancel()
		os.Exit(1)
	}
}

// recordAudit writes a best-effort audit entry for annotated commands.
// Errors opening the repository or saving the entry are discarded.
func recordAudit(executed *cobra.Command, args []string, runErr error, start time.Time) {
	if executed == nil || executed.Annotations[auditAnnotation] == "" {
		return
	}

	repo, err := auditlog.Open()
	if err != nil {
		return
	}
	defer repo.Close()

	_ = repo.Save(auditEntry(executed, args, runErr, start, time.Now().UTC()))
}

func auditEntry(executed *cobra.Command, args []string, runErr error, start, end time.Time) *auditlog.AuditEntry {
	meta := auditlog.MetadataFromContext(executed.Context())
	entry := &auditlog.AuditEntry{
		Timestamp:     start,
		Command:       executed.CommandPath(),
		Args:          strings.Join(auditlog.SanitizeArgs(args), " "),
		Provider:      meta.Provider,
		Region:        meta.Region,
		CorrelationID: meta.CorrelationID,
		ResourceType:  meta.ResourceType,
		ResourceID:    meta.ResourceID,
		ResourceName:  meta.ResourceName,
		DurationMs:    end.Sub(start).Milliseconds(),
		Outcome:       auditlog.OutcomeSuccess,
	}
	if runErr != nil {
		entry.Outcome = auditlog.OutcomeError
		entry.Detail = fmt.Sprint(runErr)
	}
	return entry
}
