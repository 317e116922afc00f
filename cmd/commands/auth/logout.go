package auth

import (
	"errors"
	"fmt"

	"nathanbeddoewebdev/oshost/internal/services/auth"

	"github.com/spf13/cobra"
)

func LogoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout <provider>",
		Short: "Remove stored credentials for a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := auth.LookupCredentials(args[0])
			if spec == nil {
				return fmt.Errorf("unknown provider %q", args[0])
			}

			store := storeFactory()
			for _, key := range spec.Keys {
				err := store.DeleteSecret(spec.KeychainKey(key))
				if err != nil && !errors.Is(err, auth.ErrSecretNotFound) {
					return fmt.Errorf("failed to remove %s: %w", key.Name, err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed credentials for provider %s\n", spec.DisplayName)
			return nil
		},
		SilenceUsage: true,
	}

	return cmd
}
