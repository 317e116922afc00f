package events

import "github.com/spf13/cobra"

// NewCommand returns the "events" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "View state changes reported by the status monitor",
		Long: "List and prune the server state changes recorded by the status monitor.\n\n" +
			"Events are stored locally in ~/.config/oshost/oshost.db.",
		SilenceUsage: true,
	}

	cmd.AddCommand(ListCommand())
	cmd.AddCommand(PruneCommand())

	return cmd
}
