package config

import (
	"fmt"
	"strings"

	"nathanbeddoewebdev/oshost/internal/config"
	"nathanbeddoewebdev/oshost/internal/providers"
	"nathanbeddoewebdev/oshost/internal/util"

	"github.com/spf13/cobra"
)

// SetCommand returns the "config set" command.
func SetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: "Set a persistent configuration value.\n\n" +
			config.KeysHelp() +
			"\nExamples:\n" +
			"  oshost config set management-network mgmt-net\n" +
			"  oshost config set monitor-interval 5s",
		Args:         cobra.ExactArgs(2),
		RunE:         runSet,
		SilenceUsage: true,
	}

	return cmd
}

// validators run before the key's own Set validation.
var validators = map[string]func(value string) error{
	"default-provider": validateProvider,
}

// normalized keys are stored lowercased; the rest keep their case.
var normalized = map[string]bool{
	"default-provider": true,
	"monitor-mode":     true,
	"log-level":        true,
}

func runSet(cmd *cobra.Command, args []string) error {
	spec := config.Lookup(util.NormalizeKey(args[0]))
	if spec == nil {
		return fmt.Errorf("unknown configuration key %q (valid: %s)", args[0], strings.Join(config.KeyNames(), ", "))
	}

	value := strings.TrimSpace(args[1])
	if normalized[spec.Name] {
		value = util.NormalizeKey(value)
	}

	if validate, ok := validators[spec.Name]; ok {
		if err := validate(value); err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := spec.Set(cfg, value); err != nil {
		return fmt.Errorf("%s: %w", spec.Name, err)
	}
	if err := cfg.Save(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s set to %q\n", spec.Name, value)
	return nil
}

// validateProvider checks that the given name is a registered provider.
func validateProvider(name string) error {
	known := providers.List()
	for _, p := range known {
		if p == name {
			return nil
		}
	}
	return fmt.Errorf("unknown provider %q (registered: %s)", name, strings.Join(known, ", "))
}
