package host

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nathanbeddoewebdev/oshost/internal/config"
	"nathanbeddoewebdev/oshost/internal/domain"
	"nathanbeddoewebdev/oshost/internal/providers"
	"nathanbeddoewebdev/oshost/internal/provisioner"
	"nathanbeddoewebdev/oshost/internal/services/auth"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

type fixture struct {
	cloud    *mockCloud
	launcher *recordingLauncher
	regions  []string
}

// setup registers a mock provider, points the config at a temp file with
// a management network, and records monitor launches.
func setup(t *testing.T, servers ...domain.Server) *fixture {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	config.SetPath(path)
	t.Cleanup(config.ResetPath)
	cfg := &config.Config{ManagementNetwork: "mgmt"}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("save config: %v", err)
	}

	f := &fixture{
		cloud: &mockCloud{
			servers:  servers,
			networks: []domain.Network{{ID: "net-mgmt", Name: "mgmt"}, {ID: "net-backend", Name: "backend"}},
		},
		launcher: &recordingLauncher{},
	}

	providers.Reset()
	t.Cleanup(providers.Reset)
	providers.Register("openstack", func(_ context.Context, region string, _ auth.Store) (domain.Cloud, error) {
		f.regions = append(f.regions, region)
		return f.cloud, nil
	})

	orig := launcherFor
	launcherFor = func(*config.Config, *slog.Logger) provisioner.MonitorLauncher { return f.launcher }
	t.Cleanup(func() { launcherFor = orig })

	return f
}

func execHost(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	cmd := NewCommand()
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const webConfig = `
region: RegionOne
instance:
  name: web-1
  image: img-1
  flavor: m1.small
  key_name: deploy
`

func TestProvision_FromStdin(t *testing.T) {
	f := setup(t)

	stdout, _, err := execHost(t, webConfig, "provision", "--nova-config", "-", "--correlation-id", "cid-42", "-o", "json")
	if err != nil {
		t.Fatalf("provision: %v", err)
	}

	var got domain.Server
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, stdout)
	}
	if got.CorrelationID() != "cid-42" {
		t.Errorf("correlation id = %q, want cid-42", got.CorrelationID())
	}

	if len(f.cloud.created) != 1 {
		t.Fatalf("expected one create call, got %d", len(f.cloud.created))
	}
	wantNICs := []domain.NetworkAttachment{{NetID: "net-mgmt"}}
	if diff := cmp.Diff(wantNICs, f.cloud.created[0].Networks); diff != "" {
		t.Errorf("networks mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"RegionOne"}, f.regions); diff != "" {
		t.Errorf("regions mismatch (-want +got):\n%s", diff)
	}
}

func TestProvision_DefaultCorrelationID(t *testing.T) {
	f := setup(t)

	path := writeFile(t, "web.yaml", webConfig)
	if _, _, err := execHost(t, "", "provision", "--nova-config", path); err != nil {
		t.Fatalf("provision: %v", err)
	}

	cid := f.cloud.created[0].Metadata[domain.CorrelationMetaKey]
	if _, err := uuid.Parse(cid); err != nil {
		t.Errorf("default correlation id %q is not a UUID: %v", cid, err)
	}
}

func TestProvision_ManagementNetworkFlagOverridesConfig(t *testing.T) {
	f := setup(t)

	_, _, err := execHost(t, webConfig, "provision", "--nova-config", "-", "--management-network", "backend")
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if got := f.cloud.created[0].Networks[0].NetID; got != "net-backend" {
		t.Errorf("net id = %q, want net-backend", got)
	}
}

func TestProvision_RejectsNICs(t *testing.T) {
	f := setup(t)

	bag := webConfig + "  nics:\n    - net-id: other\n"
	_, _, err := execHost(t, bag, "provision", "--nova-config", "-")
	if !errors.Is(err, domain.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	if m := f.cloud.mutations(); len(m) != 0 {
		t.Errorf("unexpected mutations: %v", m)
	}
}

func TestProvision_AlreadyExists(t *testing.T) {
	setup(t, domain.Server{ID: "srv-1", Name: "web-1", Status: domain.StatusActive})

	_, _, err := execHost(t, webConfig, "provision", "--nova-config", "-")
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestProvision_RequiresNovaConfig(t *testing.T) {
	setup(t)

	if _, _, err := execHost(t, "", "provision"); err == nil {
		t.Fatal("expected error without --nova-config")
	}
}

func TestStart_RebootsShutoffAndLaunchesMonitor(t *testing.T) {
	f := setup(t, domain.Server{ID: "srv-1", Name: "web-1", Status: domain.StatusShutoff})

	stdout, _, err := execHost(t, webConfig, "start", "--nova-config", "-")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !strings.Contains(stdout, `Server "web-1" (srv-1) started.`) {
		t.Errorf("unexpected output: %s", stdout)
	}
	if diff := cmp.Diff([]string{"reboot:srv-1"}, f.cloud.mutations()); diff != "" {
		t.Errorf("mutations mismatch (-want +got):\n%s", diff)
	}
	if got := f.launcher.launched(); got != "RegionOne" {
		t.Errorf("launched = %q, want RegionOne", got)
	}
}

func TestStart_InvalidState(t *testing.T) {
	f := setup(t, domain.Server{ID: "srv-1", Name: "web-1", Status: domain.StatusError})

	_, _, err := execHost(t, webConfig, "start", "--nova-config", "-")
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if m := f.cloud.mutations(); len(m) != 0 {
		t.Errorf("unexpected mutations: %v", m)
	}
	if got := f.launcher.launched(); got != "" {
		t.Errorf("monitor launched for invalid state: %q", got)
	}
}

func TestStopAndTerminate(t *testing.T) {
	tests := []struct {
		command string
		want    string
	}{
		{command: "stop", want: "stop:srv-1"},
		{command: "terminate", want: "delete:srv-1"},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			f := setup(t, domain.Server{ID: "srv-1", Name: "web-1", Status: domain.StatusActive})

			if _, _, err := execHost(t, webConfig, tt.command, "--nova-config", "-"); err != nil {
				t.Fatalf("%s: %v", tt.command, err)
			}
			if diff := cmp.Diff([]string{tt.want}, f.cloud.mutations()); diff != "" {
				t.Errorf("mutations mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStop_NotFound(t *testing.T) {
	setup(t)

	_, _, err := execHost(t, webConfig, "stop", "--nova-config", "-")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConnectNetwork(t *testing.T) {
	f := setup(t, domain.Server{ID: "srv-1", Name: "web-1", Status: domain.StatusActive})

	source := writeFile(t, "source.yaml", "network:\n  name: backend\n")
	target := writeFile(t, "target.json", `{"nova_config": {"region": "RegionOne", "instance": {"name": "web-1"}}}`)

	stdout, _, err := execHost(t, "", "connect-network", "--source", source, "--target", target)
	if err != nil {
		t.Fatalf("connect-network: %v", err)
	}
	if !strings.Contains(stdout, `attached to network "backend" (net-backend)`) {
		t.Errorf("unexpected output: %s", stdout)
	}
	if diff := cmp.Diff([]string{"attach:srv-1:net-backend"}, f.cloud.mutations()); diff != "" {
		t.Errorf("mutations mismatch (-want +got):\n%s", diff)
	}
}

func TestStartMonitor(t *testing.T) {
	f := setup(t)

	stdout, _, err := execHost(t, "region: RegionTwo\n", "start-monitor", "--nova-config", "-")
	if err != nil {
		t.Fatalf("start-monitor: %v", err)
	}
	if got := f.launcher.launched(); got != "RegionTwo" {
		t.Errorf("launched = %q, want RegionTwo", got)
	}
	if !strings.Contains(stdout, "RegionTwo") {
		t.Errorf("unexpected output: %s", stdout)
	}
	if len(f.regions) != 0 {
		t.Errorf("start-monitor should not authenticate, got regions %v", f.regions)
	}
}

func TestShow_Table(t *testing.T) {
	setup(t, domain.Server{
		ID:        "srv-1",
		Name:      "web-1",
		Status:    domain.StatusActive,
		Flavor:    "m1.small",
		Metadata:  map[string]string{domain.CorrelationMetaKey: "cid-7"},
		Addresses: map[string][]string{"mgmt": {"10.0.0.5"}},
	})

	stdout, _, err := execHost(t, webConfig, "show", "--nova-config", "-")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"srv-1", "web-1", "ACTIVE", "m1.small", "cid-7", "Network mgmt:", "10.0.0.5"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
}

func TestUnknownProvider(t *testing.T) {
	setup(t)

	_, _, err := execHost(t, webConfig, "show", "--nova-config", "-", "--provider", "nope")
	if err == nil || !strings.Contains(err.Error(), "unknown provider") {
		t.Fatalf("expected unknown provider error, got %v", err)
	}
}

func TestInvalidOutputFormat(t *testing.T) {
	setup(t)

	if _, _, err := execHost(t, webConfig, "show", "--nova-config", "-", "-o", "yaml"); err == nil {
		t.Fatal("expected error for unsupported output")
	}
}
