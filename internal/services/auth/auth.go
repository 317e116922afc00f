package auth

import (
	"errors"

	"nathanbeddoewebdev/oshost/internal/util"
)

const ServiceName = "oshost"

var ErrSecretNotFound = errors.New("auth secret not found")

// Store persists provider credentials keyed by SecretKey.
type Store interface {
	SetSecret(key string, value string) error
	GetSecret(key string) (string, error)
	DeleteSecret(key string) error
}

// DefaultStore returns the standard auth store backed by the OS keychain.
func DefaultStore() Store {
	return NewKeyringStore(ServiceName)
}

// NormalizeProvider normalizes a provider name for consistent key lookup.
func NormalizeProvider(provider string) string {
	return util.NormalizeKey(provider)
}

// SecretKey names one credential of a provider, e.g. "openstack/password".
func SecretKey(provider, name string) string {
	return NormalizeProvider(provider) + "/" + util.NormalizeKey(name)
}
