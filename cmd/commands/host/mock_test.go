package host

import (
	"context"
	"strings"
	"sync"

	"nathanbeddoewebdev/oshost/internal/domain"
)

// mockCloud is an in-memory domain.Cloud that records mutations.
type mockCloud struct {
	mu sync.Mutex

	servers  []domain.Server
	networks []domain.Network

	calls   []string
	created []domain.CreateServerOpts
}

func (m *mockCloud) GetDisplayName() string    { return "Mock" }
func (m *mockCloud) Region() string            { return "RegionOne" }
func (m *mockCloud) Compute() domain.Compute   { return m }
func (m *mockCloud) Networks() domain.Networks { return m }

func (m *mockCloud) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockCloud) ListServers(context.Context) ([]domain.Server, error) {
	return m.servers, nil
}

func (m *mockCloud) ListServersByName(_ context.Context, name string) ([]domain.Server, error) {
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
	m.created = append(m.created, opts)
	return &domain.Server{ID: "srv-new", Name: opts.Name, Status: domain.StatusBuild, Metadata: opts.Metadata}, nil
}

func (m *mockCloud) RebootServer(_ context.Context, id string) error {
	m.record("reboot:" + id)
	return nil
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
	return nil
}

func (m *mockCloud) FindNetworkByName(_ context.Context, name string) (*domain.Network, error) {
	for _, n := range m.networks {
		if n.Name == name {
			return &n, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockCloud) mutations() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// recordingLauncher records monitor launches.
type recordingLauncher struct {
	mu      sync.Mutex
	regions []string
}

func (l *recordingLauncher) Launch(_ context.Context, region string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.regions = append(l.regions, region)
	return nil
}

func (l *recordingLauncher) launched() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.regions, ",")
}
