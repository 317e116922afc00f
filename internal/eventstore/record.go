package eventstore

import (
	"strings"
	"time"

	"nathanbeddoewebdev/oshost/internal/domain"
)

// EventRecord is a persisted state-change event.
type EventRecord struct {
	ID            int64     `json:"id"`
	ObservedAt    time.Time `json:"observed_at"`
	Region        string    `json:"region,omitempty"`
	ServerID      string    `json:"server_id"`
	Host          string    `json:"host"`
	State         string    `json:"state"`
	Status        string    `json:"status,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
}

// FromEvent converts a monitor event to a record.
func FromEvent(e domain.Event) *EventRecord {
	return &EventRecord{
		ObservedAt:    e.ObservedAt,
		Region:        e.Region,
		ServerID:      e.ServerID,
		Host:          e.Host,
		State:         e.State,
		Status:        e.Status,
		CorrelationID: e.CorrelationID,
		Tags:          e.Tags,
	}
}

// tags are stored comma separated; tag values never contain commas.
func joinTags(tags []string) string { return strings.Join(tags, ",") }

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
