package domain

import (
	"strings"
	"time"
)

// Server status values reported by the compute API.
const (
	StatusActive  = "ACTIVE"
	StatusBuild   = "BUILD"
	StatusShutoff = "SHUTOFF"
	StatusError   = "ERROR"
	StatusDeleted = "DELETED"
)

// CorrelationMetaKey is the metadata key that carries the caller-supplied
// correlation id on every provisioned server.
const CorrelationMetaKey = "cloudify_id"

// Server is a remote compute instance as seen through the provider.
// It is never persisted locally; lookups always go back to the cloud.
type Server struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Status    string              `json:"status"`
	Region    string              `json:"region,omitempty"`
	Image     string              `json:"image,omitempty"`
	Flavor    string              `json:"flavor,omitempty"`
	KeyName   string              `json:"key_name,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	Metadata  map[string]string   `json:"metadata,omitempty"`
	Addresses map[string][]string `json:"addresses,omitempty"`
}

// CorrelationID returns the correlation id stamped at provision time, if any.
func (s *Server) CorrelationID() string {
	return s.Metadata[CorrelationMetaKey]
}

// IsBuilding reports whether the server is in any BUILD variant. Some
// providers report substatuses such as "BUILD(spawning)".
func (s *Server) IsBuilding() bool {
	return strings.HasPrefix(s.Status, StatusBuild)
}

// Network is a cloud network resolved by name.
type Network struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
}
