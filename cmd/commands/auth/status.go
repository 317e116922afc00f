package auth

import (
	"errors"
	"fmt"

	"nathanbeddoewebdev/oshost/internal/services/auth"

	"github.com/spf13/cobra"
)

func StatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which providers have stored credentials",
		Long: `Show which providers have stored credentials.

Example:
  oshost auth status`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := storeFactory()
			specs := auth.AllCredentials()

			if len(specs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No providers registered.")
				return nil
			}

			for _, spec := range specs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", spec.Provider, status(store, spec))
			}
			return nil
		},
		SilenceUsage: true,
	}

	return cmd
}

func status(store auth.Store, spec auth.CredentialSpec) string {
	for _, key := range spec.Keys {
		_, err := store.GetSecret(spec.KeychainKey(key))
		switch {
		case err == nil:
		case errors.Is(err, auth.ErrSecretNotFound):
			return "not logged in"
		default:
			return fmt.Sprintf("error (%v)", err)
		}
	}
	return "logged in"
}
