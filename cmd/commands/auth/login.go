package auth

import (
	"fmt"
	"os"
	"strings"

	"nathanbeddoewebdev/oshost/internal/services/auth"

	"golang.org/x/term"

	"github.com/spf13/cobra"
)

func LoginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <provider>",
		Short: "Store credentials for a provider",
		Long: `Store credentials for a provider using the local keychain.

Example:
  oshost auth login openstack
  oshost auth login openstack --password "$OS_PASSWORD"`,
		Args:         cobra.ExactArgs(1),
		RunE:         runLogin,
		SilenceUsage: true,
	}

	cmd.Flags().String("password", "", "Password (optional, overrides prompt)")

	return cmd
}

func runLogin(cmd *cobra.Command, args []string) error {
	spec := auth.LookupCredentials(args[0])
	if spec == nil {
		return fmt.Errorf("unknown provider %q", args[0])
	}

	flagValue, _ := cmd.Flags().GetString("password")
	store := storeFactory()

	for _, key := range spec.Keys {
		value := strings.TrimSpace(flagValue)
		if value == "" {
			read, err := prompt(cmd, key)
			if err != nil {
				return err
			}
			value = read
		}
		if value == "" {
			return fmt.Errorf("%s cannot be empty", strings.ToLower(key.Prompt))
		}
		if err := store.SetSecret(spec.KeychainKey(key), value); err != nil {
			return fmt.Errorf("failed to store %s: %w", key.Name, err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved credentials for provider %s\n", spec.DisplayName)
	return nil
}

func prompt(cmd *cobra.Command, key auth.CredentialKey) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("--%s is required when stdin is not a terminal", key.Name)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Enter %s: ", key.Prompt)
	if !key.Secret {
		var line string
		_, err := fmt.Fscanln(cmd.InOrStdin(), &line)
		return strings.TrimSpace(line), err
	}
	bytes, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(bytes)), nil
}
