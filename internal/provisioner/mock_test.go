package provisioner

import (
	"context"
	"sync"

	"nathanbeddoewebdev/oshost/internal/domain"
)

// mockCloud is an in-memory domain.Cloud that records every call.
type mockCloud struct {
	mu sync.Mutex

	servers  []domain.Server
	networks []domain.Network

	listErr   error
	createErr error
	rebootErr error

	calls    []string
	created  []domain.CreateServerOpts
	attached [][2]string
}

func (m *mockCloud) GetDisplayName() string    { return "Mock" }
func (m *mockCloud) Region() string            { return "r1" }
func (m *mockCloud) Compute() domain.Compute   { return m }
func (m *mockCloud) Networks() domain.Networks { return m }

func (m *mockCloud) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockCloud) ListServers(_ context.Context) ([]domain.Server, error) {
	m.record("list")
	return m.servers, m.listErr
}

func (m *mockCloud) ListServersByName(_ context.Context, name string) ([]domain.Server, error) {
	m.record("list:" + name)
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.Server
	for _, s := range m.servers {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockCloud) CreateServer(_ context.Context, opts domain.CreateServerOpts) (*domain.Server, error) {
	m.record("create:" + opts.Name)
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = append(m.created, opts)
	return &domain.Server{ID: "new-id", Name: opts.Name, Status: domain.StatusBuild, Metadata: opts.Metadata}, nil
}

func (m *mockCloud) RebootServer(_ context.Context, id string) error {
	m.record("reboot:" + id)
	return m.rebootErr
}

func (m *mockCloud) StopServer(_ context.Context, id string) error {
	m.record("stop:" + id)
	return nil
}

func (m *mockCloud) DeleteServer(_ context.Context, id string) error {
	m.record("delete:" + id)
	return nil
}

func (m *mockCloud) AttachInterface(_ context.Context, serverID, networkID string) error {
	m.record("attach:" + serverID + ":" + networkID)
	m.attached = append(m.attached, [2]string{serverID, networkID})
	return nil
}

func (m *mockCloud) FindNetworkByName(_ context.Context, name string) (*domain.Network, error) {
	m.record("network:" + name)
	var found []domain.Network
	for _, n := range m.networks {
		if n.Name == name {
			found = append(found, n)
		}
	}
	switch len(found) {
	case 0:
		return nil, domain.ErrNotFound
	case 1:
		return &found[0], nil
	default:
		return nil, domain.ErrAmbiguousName
	}
}

// mutations returns the recorded calls that change provider state.
func (m *mockCloud) mutations() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, c := range m.calls {
		for _, prefix := range []string{"create:", "reboot:", "stop:", "delete:", "attach:"} {
			if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
				out = append(out, c)
			}
		}
	}
	return out
}

// mockLauncher records monitor launches.
type mockLauncher struct {
	mu      sync.Mutex
	regions []string
	err     error
}

func (l *mockLauncher) Launch(_ context.Context, region string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.regions = append(l.regions, region)
	return l.err
}

// stubResolver returns a fixed payload for its tag.
type stubResolver struct {
	tag     string
	payload string
}

func (s stubResolver) Type() string { return s.tag }

func (s stubResolver) Resolve(context.Context, map[string]any) (string, error) {
	return s.payload, nil
}

func factoryFor(cloud *mockCloud, regions *[]string) CloudFactory {
	return func(_ context.Context, region string) (domain.Cloud, error) {
		if regions != nil {
			*regions = append(*regions, region)
		}
		return cloud, nil
	}
}
