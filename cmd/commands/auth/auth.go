package auth

import (
	"nathanbeddoewebdev/oshost/internal/services/auth"

	"github.com/spf13/cobra"
)

// storeFactory returns the credential store; tests swap it for a mock.
var storeFactory = auth.DefaultStore

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored provider credentials",
		Long: `Manage stored provider credentials.

Secrets are kept in the system keychain. The rest of the OpenStack
identity (auth URL, user, project, domain) is read from the OS_*
environment variables; the stored password is used when OS_PASSWORD
is unset.`,
	}

	cmd.AddCommand(LoginCommand())
	cmd.AddCommand(LogoutCommand())
	cmd.AddCommand(StatusCommand())

	return cmd
}
