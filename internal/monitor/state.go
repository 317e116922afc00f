package monitor

import (
	"strings"

	"nathanbeddoewebdev/oshost/internal/domain"
)

// StateFor maps a provider status to a machine state.
func StateFor(status string) string {
	s := strings.ToUpper(status)
	switch {
	case s == "ACTIVE":
		return domain.StateRunning
	case strings.HasPrefix(s, "BUILD"),
		s == "REBUILD", s == "REBOOT", s == "HARD_REBOOT",
		s == "RESIZE", s == "VERIFY_RESIZE", s == "MIGRATING":
		return domain.StatePending
	case s == "SHUTOFF", s == "STOPPED", s == "SUSPENDED", s == "PAUSED",
		strings.HasPrefix(s, "SHELVED"):
		return domain.StateStopped
	case s == "ERROR":
		return domain.StateError
	case s == "DELETED", s == "SOFT_DELETED":
		return domain.StateTerminated
	default:
		return domain.StateUnknown
	}
}
