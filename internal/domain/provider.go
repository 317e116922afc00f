package domain

import "context"

// Compute is the subset of the compute API the provisioner needs.
type Compute interface {
	// ListServers returns every server visible in the region.
	ListServers(ctx context.Context) ([]Server, error)

	// ListServersByName returns the servers whose name equals name.
	ListServersByName(ctx context.Context, name string) ([]Server, error)

	// CreateServer issues a single server-create request.
	CreateServer(ctx context.Context, opts CreateServerOpts) (*Server, error)

	// RebootServer soft-reboots a server. On a powered-off server this
	// powers it on.
	RebootServer(ctx context.Context, id string) error

	// StopServer powers a server off.
	StopServer(ctx context.Context, id string) error

	// DeleteServer deletes a server.
	DeleteServer(ctx context.Context, id string) error

	// AttachInterface attaches the server to a network and lets the
	// provider allocate addressing.
	AttachInterface(ctx context.Context, serverID, networkID string) error
}

// Networks resolves network objects by name.
type Networks interface {
	FindNetworkByName(ctx context.Context, name string) (*Network, error)
}

// Cloud bundles the region-scoped clients of one provider.
type Cloud interface {
	GetDisplayName() string
	Region() string
	Compute() Compute
	Networks() Networks
}
