package domain

import "time"

// Machine states reported by the status monitor.
const (
	StatePending    = "pending"
	StateRunning    = "running"
	StateStopped    = "stopped"
	StateError      = "error"
	StateTerminated = "terminated"
	StateUnknown    = "unknown"
)

// Event is a server state change observed by the status monitor.
type Event struct {
	Host          string    `json:"host"`
	ServerID      string    `json:"server_id"`
	Region        string    `json:"region,omitempty"`
	State         string    `json:"state"`
	Status        string    `json:"status,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	ObservedAt    time.Time `json:"observed_at"`
}
