package provisioner

import (
	"context"
	"fmt"

	"nathanbeddoewebdev/oshost/internal/domain"
)

// AmbiguousNameError reports that more than one server carries a name
// that must be unique.
type AmbiguousNameError struct {
	Count int
	Name  string
}

func (e *AmbiguousNameError) Error() string {
	return fmt.Sprintf("lookup of server by name failed: there are %d servers named %q", e.Count, e.Name)
}

func (e *AmbiguousNameError) Unwrap() error { return domain.ErrAmbiguousName }

// FindByName returns the server named name, or nil when there is none.
func FindByName(ctx context.Context, compute domain.Compute, name string) (*domain.Server, error) {
	matching, err := compute.ListServersByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("lookup of server %q failed: %w", name, err)
	}

	switch len(matching) {
	case 0:
		return nil, nil
	case 1:
		server := matching[0]
		return &server, nil
	default:
		return nil, &AmbiguousNameError{Count: len(matching), Name: name}
	}
}

// FindByNameOrFail is FindByName with the absent case reported as
// domain.ErrNotFound.
func FindByNameOrFail(ctx context.Context, compute domain.Compute, name string) (*domain.Server, error) {
	server, err := FindByName(ctx, compute, name)
	if err != nil {
		return nil, err
	}
	if server == nil {
		return nil, fmt.Errorf("could not find a server with name %q: %w", name, domain.ErrNotFound)
	}
	return server, nil
}
