package events

import (
	"fmt"
	"strings"

	"nathanbeddoewebdev/oshost/internal/eventstore"
	"nathanbeddoewebdev/oshost/internal/util"

	"github.com/spf13/cobra"
)

func PruneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete events older than a duration",
		Long: `Delete state-change events older than a duration.

Examples:
  oshost events prune --older-than 7d`,
		RunE:         runPrune,
		SilenceUsage: true,
	}

	cmd.Flags().String("older-than", "", "Remove events older than this duration (e.g. 7d, 12h)")

	return cmd
}

func runPrune(cmd *cobra.Command, args []string) error {
	raw, _ := cmd.Flags().GetString("older-than")
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("--older-than is required")
	}

	olderThan, err := util.ParseRetention(raw)
	if err != nil {
		return err
	}

	repo, err := eventstore.Open()
	if err != nil {
		return err
	}
	defer repo.Close()

	removed, err := repo.DeleteOlderThan(olderThan)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d event(s).\n", removed)
	return nil
}
