package events

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"nathanbeddoewebdev/oshost/internal/eventstore"
	"nathanbeddoewebdev/oshost/internal/styles"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent state-change events",
		Long: `List recent state-change events, newest first.

Examples:
  oshost events list
  oshost events list --correlation-id 0b6f3c1e-9c1a-4c55-a7b4-5b1d0c2f8e11
  oshost events list --limit 100 -o json`,
		RunE:         runList,
		SilenceUsage: true,
	}

	cmd.Flags().Int("limit", 25, "Number of events to display")
	cmd.Flags().String("correlation-id", "", "Only show events for this correlation ID")
	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		return fmt.Errorf("limit must be greater than 0")
	}
	correlationID, _ := cmd.Flags().GetString("correlation-id")
	output, _ := cmd.Flags().GetString("output")
	if output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q", output)
	}

	repo, err := eventstore.Open()
	if err != nil {
		return err
	}
	defer repo.Close()

	var records []eventstore.EventRecord
	if correlationID != "" {
		records, err = repo.ListByCorrelationID(correlationID, limit)
	} else {
		records, err = repo.ListRecent(limit)
	}
	if err != nil {
		return err
	}

	if output == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No events found.")
		return nil
	}

	color := isTerminal(cmd)
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tREGION\tHOST\tSERVER ID\tSTATE\tSTATUS\tTAGS")
	fmt.Fprintln(w, "----\t------\t----\t---------\t-----\t------\t----")
	for _, r := range records {
		state := r.State
		if color {
			state = styles.StateStyle(r.State).Render(r.State)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ObservedAt.Local().Format("2006-01-02 15:04:05"),
			dash(r.Region),
			r.Host,
			r.ServerID,
			state,
			dash(r.Status),
			dash(strings.Join(r.Tags, ",")),
		)
	}
	return w.Flush()
}

func isTerminal(cmd *cobra.Command) bool {
	out, ok := cmd.OutOrStdout().(*os.File)
	return ok && term.IsTerminal(int(out.Fd()))
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
