package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// KeySpec describes a single configuration key.
type KeySpec struct {
	// Name is the CLI-facing key name (e.g. "management-network").
	Name string

	// Description is a short human-readable explanation shown in help text.
	Description string

	// Get returns the current value for this key from a loaded Config.
	Get func(cfg *Config) string

	// Set validates and applies a value to cfg in memory; the caller
	// saves.
	Set func(cfg *Config, value string) error
}

// Keys is the authoritative list of all supported configuration keys.
// To add a new option: add a field to Config and append a KeySpec here.
var Keys = []KeySpec{
	{
		Name:        "default-provider",
		Description: "Cloud provider used when --provider is not specified",
		Get:         func(cfg *Config) string { return cfg.DefaultProvider },
		Set: func(cfg *Config, v string) error {
			cfg.DefaultProvider = v
			return nil
		},
	},
	{
		Name:        "management-network",
		Description: "Network attached to every provisioned host when --management-network is not given",
		Get:         func(cfg *Config) string { return cfg.ManagementNetwork },
		Set: func(cfg *Config, v string) error {
			cfg.ManagementNetwork = v
			return nil
		},
	},
	{
		Name:        "monitor-interval",
		Description: "Delay between status monitor polls (e.g. 3s)",
		Get:         func(cfg *Config) string { return cfg.MonitorInterval },
		Set: func(cfg *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil || d <= 0 {
				return fmt.Errorf("invalid duration %q", v)
			}
			cfg.MonitorInterval = v
			return nil
		},
	},
	{
		Name:        "monitor-mode",
		Description: "How start launches the status monitor: process or off",
		Get:         func(cfg *Config) string { return cfg.MonitorMode },
		Set: func(cfg *Config, v string) error {
			switch v {
			case MonitorModeProcess, MonitorModeOff:
				cfg.MonitorMode = v
				return nil
			}
			return fmt.Errorf("invalid monitor mode %q (want %s or %s)", v, MonitorModeProcess, MonitorModeOff)
		},
	},
	{
		Name:        "log-level",
		Description: "Default log level: debug, info, warn or error",
		Get:         func(cfg *Config) string { return cfg.LogLevel },
		Set: func(cfg *Config, v string) error {
			var level slog.Level
			if err := level.UnmarshalText([]byte(v)); err != nil {
				return fmt.Errorf("invalid log level %q", v)
			}
			cfg.LogLevel = v
			return nil
		},
	},
}

// Lookup returns the KeySpec for the given name, or nil if not found.
// The name is matched case-insensitively after trimming whitespace.
func Lookup(name string) *KeySpec {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for i := range Keys {
		if Keys[i].Name == normalized {
			return &Keys[i]
		}
	}
	return nil
}

// KeyNames returns the names of all registered keys.
func KeyNames() []string {
	names := make([]string, len(Keys))
	for i, k := range Keys {
		names[i] = k.Name
	}
	return names
}

// KeysHelp builds a formatted block listing all available keys and their
// descriptions, suitable for inclusion in Cobra Long help text.
func KeysHelp() string {
	if len(Keys) == 0 {
		return ""
	}

	maxLen := 0
	for _, k := range Keys {
		if len(k.Name) > maxLen {
			maxLen = len(k.Name)
		}
	}

	var b strings.Builder
	b.WriteString("Available keys:\n")
	for _, k := range Keys {
		fmt.Fprintf(&b, "  %-*s   %s\n", maxLen, k.Name, k.Description)
	}
	return b.String()
}
