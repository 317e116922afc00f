package monitor

import (
	"context"
	"fmt"

	"nathanbeddoewebdev/oshost/internal/config"
	"nathanbeddoewebdev/oshost/internal/eventstore"
	"nathanbeddoewebdev/oshost/internal/logging"
	"nathanbeddoewebdev/oshost/internal/monitor"
	"nathanbeddoewebdev/oshost/internal/providers"
	"nathanbeddoewebdev/oshost/internal/services/auth"

	"github.com/spf13/cobra"
)

// NewCommand returns the "monitor" command. It is what the process
// launcher spawns for each region.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Poll server status and report state changes",
		Long: `Run the status monitor in the foreground until interrupted.

Every interval the monitor lists the servers in each region and reports
servers that appear, change state, or disappear. Events are logged and
stored locally (see "oshost events list").

Without --region_name the provider's default region is polled.

Examples:
  oshost monitor --region_name=RegionOne
  oshost monitor --region_name=RegionOne --region_name=RegionTwo --interval 10s`,
		RunE:         runMonitor,
		SilenceUsage: true,
	}

	cmd.Flags().StringSlice("region_name", nil, "Region to monitor (repeatable)")
	cmd.Flags().Duration("interval", 0, "Delay between polls (default: monitor-interval config key, else 3s)")
	cmd.Flags().Bool("report-unchanged", false, "Report every server on every poll, not only changes")
	cmd.Flags().String("provider", "", "Cloud provider to use (overrides default)")

	return cmd
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	interval := cfg.Interval()
	if cmd.Flags().Changed("interval") {
		interval, _ = cmd.Flags().GetDuration("interval")
		if interval <= 0 {
			return fmt.Errorf("--interval must be positive")
		}
	}

	providerName, _ := cmd.Flags().GetString("provider")
	if providerName == "" {
		providerName = cfg.Provider()
	}

	regions, _ := cmd.Flags().GetStringSlice("region_name")
	if len(regions) == 0 {
		regions = []string{""}
	}
	reportUnchanged, _ := cmd.Flags().GetBool("report-unchanged")

	ctx := cmd.Context()
	logger := logging.FromContext(ctx).With("provider", providerName)

	sink := monitor.MultiSink{monitor.LogSink{Logger: logger}}
	repo, err := eventstore.Open()
	if err != nil {
		logger.Warn("event store unavailable, events are only logged", "error", err)
	} else {
		defer repo.Close()
		sink = append(sink, monitor.StoreSink{Repo: repo})
	}

	factory := func(ctx context.Context, region string) (*monitor.Monitor, error) {
		cloud, err := providers.Get(ctx, providerName, region, auth.DefaultStore())
		if err != nil {
			return nil, err
		}
		return &monitor.Monitor{
			Servers:         cloud.Compute(),
			Sink:            sink,
			Region:          region,
			Interval:        interval,
			Logger:          logger,
			ReportUnchanged: reportUnchanged,
		}, nil
	}

	sup := monitor.NewSupervisor(ctx, factory, logger)
	for _, region := range regions {
		if err := sup.Launch(ctx, region); err != nil {
			sup.Stop()
			return err
		}
	}

	return sup.Wait()
}
