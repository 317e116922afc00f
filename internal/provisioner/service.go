// Package provisioner implements the host lifecycle tasks: provision,
// start, stop, terminate, network attachment and monitor bootstrap.
package provisioner

import (
	"context"
	"fmt"
	"log/slog"

	"nathanbeddoewebdev/oshost/internal/domain"
	"nathanbeddoewebdev/oshost/internal/nova"
	"nathanbeddoewebdev/oshost/internal/params"
	"nathanbeddoewebdev/oshost/internal/userdata"
)

const (
	novaConfigWhere = "nova_config"
	sourceWhere     = "source"
	targetWhere     = "target"
)

// CloudFactory returns authenticated clients for region.
type CloudFactory func(ctx context.Context, region string) (domain.Cloud, error)

// MonitorLauncher starts a status monitor for a region.
type MonitorLauncher interface {
	Launch(ctx context.Context, region string) error
}

// InvalidStateError reports a server status that does not support the
// requested transition.
type InvalidStateError struct {
	Name      string
	Status    string
	Operation string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s server %q: unsupported status %q", e.Operation, e.Name, e.Status)
}

func (e *InvalidStateError) Unwrap() error { return domain.ErrInvalidState }

// Service runs lifecycle operations against one cloud provider.
type Service struct {
	clouds   CloudFactory
	userdata *userdata.Registry
	monitors MonitorLauncher
	logger   *slog.Logger
}

// NewService creates a provisioner. monitors may be nil, in which case
// monitor bootstrap is skipped.
func NewService(clouds CloudFactory, registry *userdata.Registry, monitors MonitorLauncher, logger *slog.Logger) *Service {
	if registry == nil {
		registry = userdata.NewRegistry()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		clouds:   clouds,
		userdata: registry,
		monitors: monitors,
		logger:   logger,
	}
}

// Provision creates a server from novaConfig attached to the management
// network and tagged with correlationID.
//
// The existence check and the create call are separate requests, so two
// concurrent provisions of the same name can both succeed.
func (s *Service) Provision(ctx context.Context, correlationID string, novaConfig params.Bag, managementNetwork string) (*domain.Server, error) {
	if err := params.Require(novaConfig, []string{"region", "instance"}, novaConfigWhere); err != nil {
		return nil, err
	}
	region, err := params.String(novaConfig, "region", novaConfigWhere)
	if err != nil {
		return nil, err
	}
	instance, err := params.Map(novaConfig, "instance", novaConfigWhere)
	if err != nil {
		return nil, err
	}
	instance = params.Clone(instance)

	if _, ok := instance["nics"]; ok {
		return nil, params.Invalid("nics", nova.Where, "network interfaces are computed from the management network and must not be supplied")
	}
	if err := params.Require(instance, nova.RequiredInstanceKeys, nova.Where); err != nil {
		return nil, err
	}
	if managementNetwork == "" {
		return nil, &params.MissingParameterError{
			Key:      "management_network_name",
			Where:    "provision",
			Required: []string{"management_network_name"},
		}
	}

	merged, err := nova.Merge(instance)
	if err != nil {
		return nil, err
	}
	if err := s.userdata.Resolve(ctx, merged); err != nil {
		return nil, err
	}

	meta := params.Bag{}
	if raw := merged["meta"]; raw != nil {
		m, ok := params.AsMap(raw)
		if !ok {
			return nil, params.Invalid("meta", nova.Where, fmt.Sprintf("expected a mapping, got %T", raw))
		}
		meta = m
	}
	meta[domain.CorrelationMetaKey] = correlationID
	merged["meta"] = meta

	cloud, err := s.clouds(ctx, region)
	if err != nil {
		return nil, err
	}

	network, err := cloud.Networks().FindNetworkByName(ctx, managementNetwork)
	if err != nil {
		return nil, fmt.Errorf("management network %q: %w", managementNetwork, err)
	}
	merged["nics"] = []domain.NetworkAttachment{{NetID: network.ID}}

	opts, err := nova.ToCreateOpts(merged)
	if err != nil {
		return nil, err
	}

	existing, err := FindByName(ctx, cloud.Compute(), opts.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("can not provision server with name %q because a server with this name already exists: %w", opts.Name, domain.ErrAlreadyExists)
	}

	s.logger.Info("creating server",
		"name", opts.Name,
		"image", opts.Image,
		"flavor", opts.Flavor,
		"region", region,
		"network_id", network.ID,
		"correlation_id", correlationID,
	)
	s.logger.Debug("server create parameters", "params", createParamsForLog(opts))

	server, err := cloud.Compute().CreateServer(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("create server %q: %w", opts.Name, err)
	}
	return server, nil
}

// Start brings a server to the running state. A server that is already
// active or building is left alone; a powered-off server is rebooted.
// Both paths bootstrap the status monitor for the region.
func (s *Service) Start(ctx context.Context, correlationID string, novaConfig params.Bag) (*domain.Server, error) {
	region, cloud, server, err := s.target(ctx, novaConfig)
	if err != nil {
		return nil, err
	}

	switch {
	case server.Status == domain.StatusActive || server.IsBuilding():
		s.logger.Info("server already started", "name", server.Name, "status", server.Status, "correlation_id", correlationID)
	case server.Status == domain.StatusShutoff:
		s.logger.Info("rebooting server", "name", server.Name, "id", server.ID, "correlation_id", correlationID)
		if err := cloud.Compute().RebootServer(ctx, server.ID); err != nil {
			return nil, fmt.Errorf("reboot server %q: %w", server.Name, err)
		}
	default:
		return nil, &InvalidStateError{Name: server.Name, Status: server.Status, Operation: "start"}
	}

	if err := s.launchMonitor(ctx, region); err != nil {
		return server, err
	}
	return server, nil
}

// Stop issues a stop command. The provider decides whether the
// transition is valid.
func (s *Service) Stop(ctx context.Context, novaConfig params.Bag) (*domain.Server, error) {
	_, cloud, server, err := s.target(ctx, novaConfig)
	if err != nil {
		return nil, err
	}

	s.logger.Info("stopping server", "name", server.Name, "id", server.ID)
	if err := cloud.Compute().StopServer(ctx, server.ID); err != nil {
		return nil, fmt.Errorf("stop server %q: %w", server.Name, err)
	}
	return server, nil
}

// Terminate deletes the server.
func (s *Service) Terminate(ctx context.Context, novaConfig params.Bag) (*domain.Server, error) {
	_, cloud, server, err := s.target(ctx, novaConfig)
	if err != nil {
		return nil, err
	}

	s.logger.Info("deleting server", "name", server.Name, "id", server.ID)
	if err := cloud.Compute().DeleteServer(ctx, server.ID); err != nil {
		return nil, fmt.Errorf("delete server %q: %w", server.Name, err)
	}
	return server, nil
}

// ConnectNetwork attaches the server described by target.nova_config to
// the network named by source.network.name. Addressing is left to the
// provider.
func (s *Service) ConnectNetwork(ctx context.Context, source, target params.Bag) (*domain.Server, *domain.Network, error) {
	network, err := params.Map(source, "network", sourceWhere)
	if err != nil {
		return nil, nil, err
	}
	networkName, err := params.String(network, "name", sourceWhere+".network")
	if err != nil {
		return nil, nil, err
	}
	novaConfig, err := params.Map(target, "nova_config", targetWhere)
	if err != nil {
		return nil, nil, err
	}

	_, cloud, server, err := s.target(ctx, novaConfig)
	if err != nil {
		return nil, nil, err
	}

	net, err := cloud.Networks().FindNetworkByName(ctx, networkName)
	if err != nil {
		return nil, nil, fmt.Errorf("network %q: %w", networkName, err)
	}

	s.logger.Info("attaching interface", "server", server.Name, "server_id", server.ID, "network", net.Name, "network_id", net.ID)
	if err := cloud.Compute().AttachInterface(ctx, server.ID, net.ID); err != nil {
		return nil, nil, fmt.Errorf("attach server %q to network %q: %w", server.Name, networkName, err)
	}
	return server, net, nil
}

// StartMonitor bootstraps the status monitor for the region in
// novaConfig.
func (s *Service) StartMonitor(ctx context.Context, novaConfig params.Bag) error {
	region, err := params.String(novaConfig, "region", novaConfigWhere)
	if err != nil {
		return err
	}
	return s.launchMonitor(ctx, region)
}

// Show looks up the server described by novaConfig.
func (s *Service) Show(ctx context.Context, novaConfig params.Bag) (*domain.Server, error) {
	_, _, server, err := s.target(ctx, novaConfig)
	return server, err
}

func (s *Service) launchMonitor(ctx context.Context, region string) error {
	if s.monitors == nil {
		return nil
	}
	s.logger.Debug("launching status monitor", "region", region)
	if err := s.monitors.Launch(ctx, region); err != nil {
		return fmt.Errorf("launch status monitor for region %q: %w", region, err)
	}
	return nil
}

// target validates novaConfig and resolves the existing server it names.
func (s *Service) target(ctx context.Context, novaConfig params.Bag) (string, domain.Cloud, *domain.Server, error) {
	region, err := params.String(novaConfig, "region", novaConfigWhere)
	if err != nil {
		return "", nil, nil, err
	}
	instance, err := params.Map(novaConfig, "instance", novaConfigWhere)
	if err != nil {
		return "", nil, nil, err
	}
	name, err := params.String(instance, "name", nova.Where)
	if err != nil {
		return "", nil, nil, err
	}

	cloud, err := s.clouds(ctx, region)
	if err != nil {
		return "", nil, nil, err
	}

	server, err := FindByNameOrFail(ctx, cloud.Compute(), name)
	if err != nil {
		return "", nil, nil, err
	}
	return region, cloud, server, nil
}

// createParamsForLog summarizes opts for debug output. Userdata is
// reduced to its size.
func createParamsForLog(opts domain.CreateServerOpts) map[string]any {
	return map[string]any{
		"name":              opts.Name,
		"image":             opts.Image,
		"flavor":            opts.Flavor,
		"key_name":          opts.KeyName,
		"meta":              opts.Metadata,
		"nics":              opts.Networks,
		"security_groups":   opts.SecurityGroups,
		"availability_zone": opts.AvailabilityZone,
		"min_count":         opts.MinCount,
		"max_count":         opts.MaxCount,
		"userdata_bytes":    len(opts.UserData),
		"scheduler_hints":   opts.SchedulerHints,
		"disk_config":       opts.DiskConfig,
	}
}
