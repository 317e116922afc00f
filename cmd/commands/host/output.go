package host

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"nathanbeddoewebdev/oshost/internal/domain"
	"nathanbeddoewebdev/oshost/internal/styles"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")
}

func outputFormat(cmd *cobra.Command) (string, error) {
	output, _ := cmd.Flags().GetString("output")
	switch output {
	case "", "table":
		return "table", nil
	case "json":
		return "json", nil
	}
	return "", fmt.Errorf("unsupported output format %q", output)
}

// printJSON encodes v as indented JSON to the command's stdout.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// styled reports whether stdout is an interactive terminal.
func styled(cmd *cobra.Command) bool {
	out, ok := cmd.OutOrStdout().(*os.File)
	return ok && term.IsTerminal(int(out.Fd()))
}

// printServer writes a server in the requested format. Terminals get a
// styled card; other writers get a key/value table.
func printServer(cmd *cobra.Command, server *domain.Server, format string) error {
	if format == "json" {
		return printJSON(cmd, server)
	}
	if styled(cmd) {
		fmt.Fprintln(cmd.OutOrStdout(), styles.DetailCard(server.Name, serverRows(server, styles.StatusIndicator(server.Status))...))
		return nil
	}
	return printServerDetail(cmd.OutOrStdout(), server)
}

// printServerDetail prints a vertical key-value table of the server.
func printServerDetail(out io.Writer, server *domain.Server) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	rows := serverRows(server, server.Status)
	for i := 0; i+1 < len(rows); i += 2 {
		fmt.Fprintf(w, "  %s:\t%s\n", rows[i], rows[i+1])
	}
	return w.Flush()
}

func serverRows(server *domain.Server, status string) []string {
	rows := []string{
		"ID", server.ID,
		"Name", server.Name,
		"Status", status,
	}
	if server.Region != "" {
		rows = append(rows, "Region", server.Region)
	}
	if server.Flavor != "" {
		rows = append(rows, "Flavor", server.Flavor)
	}
	if server.Image != "" {
		rows = append(rows, "Image", server.Image)
	}
	if server.KeyName != "" {
		rows = append(rows, "Key", server.KeyName)
	}
	if cid := server.CorrelationID(); cid != "" {
		rows = append(rows, "Correlation", cid)
	}
	networks := make([]string, 0, len(server.Addresses))
	for name := range server.Addresses {
		networks = append(networks, name)
	}
	sort.Strings(networks)
	for _, name := range networks {
		rows = append(rows, "Network "+name, strings.Join(server.Addresses[name], ", "))
	}
	if !server.CreatedAt.IsZero() {
		rows = append(rows, "Created", server.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	}
	return rows
}
