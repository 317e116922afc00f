package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"regexp"

	"nathanbeddoewebdev/oshost/internal/domain"
	"nathanbeddoewebdev/oshost/internal/services/auth"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/gophercloud/gophercloud/v2/openstack"
	"github.com/gophercloud/gophercloud/v2/openstack/compute/v2/attachinterfaces"
	"github.com/gophercloud/gophercloud/v2/openstack/compute/v2/servers"
	"github.com/gophercloud/gophercloud/v2/openstack/networking/v2/networks"
)

// OpenStackName is the registry name of the OpenStack provider.
const OpenStackName = "openstack"

// OpenStackCloud implements domain.Cloud, domain.Compute and
// domain.Networks on top of gophercloud.
type OpenStackCloud struct {
	region  string
	compute *gophercloud.ServiceClient
	network *gophercloud.ServiceClient
}

// NewOpenStackCloud wraps already-authenticated service clients.
func NewOpenStackCloud(region string, compute, network *gophercloud.ServiceClient) *OpenStackCloud {
	return &OpenStackCloud{region: region, compute: compute, network: network}
}

// RegisterOpenStack registers the OpenStack provider factory with the
// global registry. Credentials come from the usual OS_* environment; when
// OS_PASSWORD is unset the password is read from the auth store.
func RegisterOpenStack() {
	Register(OpenStackName, func(ctx context.Context, region string, store auth.Store) (domain.Cloud, error) {
		opts, err := AuthOptionsFromEnv(os.Getenv, store)
		if err != nil {
			return nil, err
		}

		pc, err := openstack.AuthenticatedClient(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("openstack auth: %w", classify(err))
		}

		eo := gophercloud.EndpointOpts{Region: region}
		compute, err := openstack.NewComputeV2(pc, eo)
		if err != nil {
			return nil, fmt.Errorf("openstack: compute endpoint for region %q: %w", region, err)
		}
		network, err := openstack.NewNetworkV2(pc, eo)
		if err != nil {
			return nil, fmt.Errorf("openstack: network endpoint for region %q: %w", region, err)
		}

		return NewOpenStackCloud(region, compute, network), nil
	})
}

// AuthOptionsFromEnv builds identity options from OS_* variables read
// through getenv. The password falls back to the auth store.
func AuthOptionsFromEnv(getenv func(string) string, store auth.Store) (gophercloud.AuthOptions, error) {
	opts := gophercloud.AuthOptions{
		IdentityEndpoint: getenv("OS_AUTH_URL"),
		Username:         getenv("OS_USERNAME"),
		UserID:           getenv("OS_USERID"),
		Password:         getenv("OS_PASSWORD"),
		TenantID:         firstNonEmpty(getenv("OS_PROJECT_ID"), getenv("OS_TENANT_ID")),
		TenantName:       firstNonEmpty(getenv("OS_PROJECT_NAME"), getenv("OS_TENANT_NAME")),
		DomainID:         firstNonEmpty(getenv("OS_USER_DOMAIN_ID"), getenv("OS_DOMAIN_ID")),
		DomainName:       firstNonEmpty(getenv("OS_USER_DOMAIN_NAME"), getenv("OS_DOMAIN_NAME")),
		AllowReauth:      true,
	}

	if opts.IdentityEndpoint == "" {
		return opts, fmt.Errorf("openstack auth: OS_AUTH_URL is not set")
	}
	if opts.Username == "" && opts.UserID == "" {
		return opts, fmt.Errorf("openstack auth: one of OS_USERNAME or OS_USERID must be set")
	}

	if opts.Password == "" && store != nil {
		password, err := store.GetSecret(auth.SecretKey(OpenStackName, "password"))
		if err != nil && !errors.Is(err, auth.ErrSecretNotFound) {
			return opts, fmt.Errorf("openstack auth: %w", err)
		}
		opts.Password = password
	}
	if opts.Password == "" {
		return opts, fmt.Errorf("openstack auth: no password (set OS_PASSWORD or run 'oshost auth login openstack'): %w", domain.ErrUnauthorized)
	}

	return opts, nil
}

func (c *OpenStackCloud) GetDisplayName() string    { return "OpenStack" }
func (c *OpenStackCloud) Region() string            { return c.region }
func (c *OpenStackCloud) Compute() domain.Compute   { return c }
func (c *OpenStackCloud) Networks() domain.Networks { return c }

// ListServers returns every server in the region.
func (c *OpenStackCloud) ListServers(ctx context.Context) ([]domain.Server, error) {
	return c.listServers(ctx, servers.ListOpts{})
}

// ListServersByName returns servers named exactly name. The compute API
// treats the name filter as a regular expression, so it is anchored and
// the results are filtered again locally.
func (c *OpenStackCloud) ListServersByName(ctx context.Context, name string) ([]domain.Server, error) {
	all, err := c.listServers(ctx, servers.ListOpts{Name: "^" + regexp.QuoteMeta(name) + "$"})
	if err != nil {
		return nil, err
	}

	matching := all[:0]
	for _, s := range all {
		if s.Name == name {
			matching = append(matching, s)
		}
	}
	return matching, nil
}

func (c *OpenStackCloud) listServers(ctx context.Context, opts servers.ListOpts) ([]domain.Server, error) {
	pages, err := servers.List(c.compute, opts).AllPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", classify(err))
	}

	osServers, err := servers.ExtractServers(pages)
	if err != nil {
		return nil, fmt.Errorf("failed to decode servers: %w", err)
	}

	result := make([]domain.Server, 0, len(osServers))
	for _, s := range osServers {
		result = append(result, c.toDomainServer(s))
	}
	return result, nil
}

// CreateServer issues one server-create request.
func (c *OpenStackCloud) CreateServer(ctx context.Context, opts domain.CreateServerOpts) (*domain.Server, error) {
	created, err := servers.Create(ctx, c.compute, buildCreateOpts(opts), nil).Extract()
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", classify(err))
	}

	server := c.toDomainServer(*created)
	if server.Name == "" {
		server.Name = opts.Name
	}
	if server.Status == "" {
		server.Status = domain.StatusBuild
	}
	return &server, nil
}

// RebootServer issues a soft reboot.
func (c *OpenStackCloud) RebootServer(ctx context.Context, id string) error {
	err := servers.Reboot(ctx, c.compute, id, servers.RebootOpts{Type: servers.SoftReboot}).ExtractErr()
	if err != nil {
		return fmt.Errorf("failed to reboot server: %w", classify(err))
	}
	return nil
}

func (c *OpenStackCloud) StopServer(ctx context.Context, id string) error {
	if err := servers.Stop(ctx, c.compute, id).ExtractErr(); err != nil {
		return fmt.Errorf("failed to stop server: %w", classify(err))
	}
	return nil
}

func (c *OpenStackCloud) DeleteServer(ctx context.Context, id string) error {
	if err := servers.Delete(ctx, c.compute, id).ExtractErr(); err != nil {
		return fmt.Errorf("failed to delete server: %w", classify(err))
	}
	return nil
}

// AttachInterface attaches a new port on networkID. No fixed IP and no
// pre-created port are requested.
func (c *OpenStackCloud) AttachInterface(ctx context.Context, serverID, networkID string) error {
	_, err := attachinterfaces.Create(ctx, c.compute, serverID, attachinterfaces.CreateOpts{
		NetworkID: networkID,
	}).Extract()
	if err != nil {
		return fmt.Errorf("failed to attach interface: %w", classify(err))
	}
	return nil
}

// FindNetworkByName returns the single network called name.
func (c *OpenStackCloud) FindNetworkByName(ctx context.Context, name string) (*domain.Network, error) {
	pages, err := networks.List(c.network, networks.ListOpts{Name: name}).AllPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list networks: %w", classify(err))
	}
	all, err := networks.ExtractNetworks(pages)
	if err != nil {
		return nil, fmt.Errorf("failed to decode networks: %w", err)
	}

	var found []networks.Network
	for _, n := range all {
		if n.Name == name {
			found = append(found, n)
		}
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("network %q: %w", name, domain.ErrNotFound)
	case 1:
		return &domain.Network{ID: found[0].ID, Name: found[0].Name, Status: found[0].Status}, nil
	default:
		return nil, fmt.Errorf("there are %d networks named %q: %w", len(found), name, domain.ErrAmbiguousName)
	}
}

// classify wraps SDK errors with the matching domain sentinel while
// keeping the original error in the chain.
func classify(err error) error {
	switch {
	case gophercloud.ResponseCodeIs(err, http.StatusNotFound):
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	case gophercloud.ResponseCodeIs(err, http.StatusUnauthorized),
		gophercloud.ResponseCodeIs(err, http.StatusForbidden):
		return fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	case gophercloud.ResponseCodeIs(err, http.StatusConflict):
		return fmt.Errorf("%w: %w", domain.ErrConflict, err)
	case gophercloud.ResponseCodeIs(err, http.StatusTooManyRequests):
		return fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
	default:
		return err
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (c *OpenStackCloud) toDomainServer(s servers.Server) domain.Server {
	server := domain.Server{
		ID:        s.ID,
		Name:      s.Name,
		Status:    s.Status,
		Region:    c.region,
		KeyName:   s.KeyName,
		CreatedAt: s.Created,
		Metadata:  s.Metadata,
	}

	if id, ok := s.Image["id"].(string); ok {
		server.Image = id
	}
	if name, ok := s.Flavor["original_name"].(string); ok {
		server.Flavor = name
	} else if id, ok := s.Flavor["id"].(string); ok {
		server.Flavor = id
	}

	if len(s.Addresses) > 0 {
		server.Addresses = make(map[string][]string, len(s.Addresses))
		for network, raw := range s.Addresses {
			entries, _ := raw.([]any)
			for _, e := range entries {
				entry, _ := e.(map[string]any)
				if addr, ok := entry["addr"].(string); ok {
					server.Addresses[network] = append(server.Addresses[network], addr)
				}
			}
		}
	}

	return server
}
