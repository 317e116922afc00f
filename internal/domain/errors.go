package domain

import "errors"

// Sentinel errors for classifying failures across the provisioner.
// Callers wrap these so the task worker can handle error categories
// uniformly without importing the cloud SDK.
//
//	return fmt.Errorf("lookup of server %q failed: %w", name, domain.ErrNotFound)
var (
	// ErrMissingParameter indicates a required configuration key is absent.
	ErrMissingParameter = errors.New("missing parameter")

	// ErrInvalidParameter indicates a disallowed, unrecognized or
	// malformed configuration value.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidUserdataType indicates a userdata descriptor whose type
	// has no registered resolver.
	ErrInvalidUserdataType = errors.New("invalid userdata type")

	// ErrAmbiguousName indicates more than one resource carries a name
	// that is expected to be unique.
	ErrAmbiguousName = errors.New("ambiguous name")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists indicates a server with the requested name exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidState indicates the server status does not support the
	// requested transition.
	ErrInvalidState = errors.New("invalid state")

	// ErrUnauthorized indicates the request was rejected due to
	// invalid, expired, or missing credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates the provider throttled the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrConflict indicates the provider refused the request because of
	// the resource's current state.
	ErrConflict = errors.New("conflict")
)
