package providers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gophercloud/gophercloud/v2"

	"nathanbeddoewebdev/oshost/internal/domain"
	"nathanbeddoewebdev/oshost/internal/services/auth"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
}

// fakeOpenStack serves canned responses keyed by "METHOD path" and records
// every request it sees.
type fakeOpenStack struct {
	t         *testing.T
	mu        sync.Mutex
	requests  []recordedRequest
	responses map[string]fakeResponse
}

type fakeResponse struct {
	status int
	body   any
}

func newFakeOpenStack(t *testing.T, responses map[string]fakeResponse) (*fakeOpenStack, *OpenStackCloud) {
	t.Helper()
	f := &fakeOpenStack{t: t, responses: responses}

	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)

	provider := &gophercloud.ProviderClient{TokenID: "test-token"}
	compute := &gophercloud.ServiceClient{ProviderClient: provider, Endpoint: srv.URL + "/compute/"}
	network := &gophercloud.ServiceClient{
		ProviderClient: provider,
		Endpoint:       srv.URL + "/network/",
		ResourceBase:   srv.URL + "/network/v2.0/",
	}
	return f, NewOpenStackCloud("RegionOne", compute, network)
}

func (f *fakeOpenStack) serve(w http.ResponseWriter, r *http.Request) {
	if got := r.Header.Get("X-Auth-Token"); got != "test-token" {
		f.t.Errorf("X-Auth-Token = %q, want %q", got, "test-token")
	}

	rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		if err := json.Unmarshal(data, &rec.Body); err != nil {
			f.t.Errorf("request body is not JSON: %v", err)
		}
	}
	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()

	resp, ok := f.responses[r.Method+" "+r.URL.Path]
	if !ok {
		f.t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusNotImplemented)
		return
	}
	if resp.body == nil {
		w.WriteHeader(resp.status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	json.NewEncoder(w).Encode(resp.body)
}

func (f *fakeOpenStack) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		f.t.Fatal("no requests recorded")
	}
	return f.requests[len(f.requests)-1]
}

func serverJSON(id, name, status string, meta map[string]string) map[string]any {
	return map[string]any{
		"id":       id,
		"name":     name,
		"status":   status,
		"key_name": "ops",
		"created":  "2026-03-01T10:00:00Z",
		"updated":  "2026-03-01T10:00:00Z",
		"image":    map[string]any{"id": "img-1"},
		"flavor":   map[string]any{"id": "flv-1"},
		"metadata": meta,
		"addresses": map[string]any{
			"mgmt": []any{map[string]any{"addr": "10.0.0.5", "version": 4}},
		},
	}
}

func TestListServersByName_ExactMatchOnly(t *testing.T) {
	t.Parallel()

	f, cloud := newFakeOpenStack(t, map[string]fakeResponse{
		"GET /compute/servers/detail": {status: http.StatusOK, body: map[string]any{
			"servers": []any{
				serverJSON("s-1", "web", "ACTIVE", map[string]string{"cloudify_id": "web"}),
				serverJSON("s-2", "web-2", "ACTIVE", nil),
			},
		}},
	})

	got, err := cloud.ListServersByName(context.Background(), "web")
	if err != nil {
		t.Fatalf("ListServersByName() error = %v", err)
	}

	want := []domain.Server{{
		ID:        "s-1",
		Name:      "web",
		Status:    "ACTIVE",
		Region:    "RegionOne",
		Image:     "img-1",
		Flavor:    "flv-1",
		KeyName:   "ops",
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Metadata:  map[string]string{"cloudify_id": "web"},
		Addresses: map[string][]string{"mgmt": {"10.0.0.5"}},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ListServersByName() mismatch (-want +got):\n%s", diff)
	}

	if q := f.last().Query; !strings.Contains(q, "name=%5Eweb%24") {
		t.Errorf("query = %q, want anchored name filter", q)
	}
}

func TestCreateServer_RequestBody(t *testing.T) {
	t.Parallel()

	f, cloud := newFakeOpenStack(t, map[string]fakeResponse{
		"POST /compute/servers": {status: http.StatusAccepted, body: map[string]any{
			"server": map[string]any{"id": "new-1", "adminPass": "x"},
		}},
	})

	drive := true
	opts := domain.CreateServerOpts{
		Name:               "web",
		Image:              "img-1",
		Flavor:             "flv-1",
		KeyName:            "ops",
		Metadata:           map[string]string{"cloudify_id": "web"},
		UserData:           "#!/bin/sh\necho hi\n",
		MinCount:           1,
		Networks:           []domain.NetworkAttachment{{NetID: "net-123"}},
		SchedulerHints:     map[string]any{"group": "g-1"},
		ConfigDrive:        &drive,
		DiskConfig:         "AUTO",
		BlockDeviceMapping: map[string]string{"vda": "vol-1:::1"},
	}

	server, err := cloud.CreateServer(context.Background(), opts)
	if err != nil {
		t.Fatalf("CreateServer() error = %v", err)
	}
	if server.ID != "new-1" || server.Name != "web" || server.Status != domain.StatusBuild {
		t.Errorf("CreateServer() = %+v, want id new-1, name web, status BUILD", server)
	}

	body := f.last().Body
	s, ok := body["server"].(map[string]any)
	if !ok {
		t.Fatalf("request body has no server object: %v", body)
	}

	checks := map[string]any{
		"name":              "web",
		"imageRef":          "img-1",
		"flavorRef":         "flv-1",
		"key_name":          "ops",
		"min_count":         float64(1),
		"config_drive":      true,
		"OS-DCF:diskConfig": "AUTO",
		"user_data":         base64.StdEncoding.EncodeToString([]byte(opts.UserData)),
	}
	for key, want := range checks {
		if diff := cmp.Diff(want, s[key]); diff != "" {
			t.Errorf("server[%q] mismatch (-want +got):\n%s", key, diff)
		}
	}

	wantNets := []any{map[string]any{"uuid": "net-123"}}
	if diff := cmp.Diff(wantNets, s["networks"]); diff != "" {
		t.Errorf("networks mismatch (-want +got):\n%s", diff)
	}
	wantBDM := []any{map[string]any{"device_name": "vda", "volume_id": "vol-1", "delete_on_termination": true}}
	if diff := cmp.Diff(wantBDM, s["block_device_mapping"]); diff != "" {
		t.Errorf("block_device_mapping mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"group": "g-1"}, body["os:scheduler_hints"]); diff != "" {
		t.Errorf("scheduler hints mismatch (-want +got):\n%s", diff)
	}
}

func TestServerActions(t *testing.T) {
	t.Parallel()

	f, cloud := newFakeOpenStack(t, map[string]fakeResponse{
		"POST /compute/servers/s-1/action":       {status: http.StatusAccepted},
		"DELETE /compute/servers/s-1":            {status: http.StatusNoContent},
		"POST /compute/servers/s-1/os-interface": {status: http.StatusOK, body: map[string]any{"interfaceAttachment": map[string]any{"net_id": "net-9"}}},
	})
	ctx := context.Background()

	if err := cloud.RebootServer(ctx, "s-1"); err != nil {
		t.Fatalf("RebootServer() error = %v", err)
	}
	if diff := cmp.Diff(map[string]any{"reboot": map[string]any{"type": "SOFT"}}, f.last().Body); diff != "" {
		t.Errorf("reboot body mismatch (-want +got):\n%s", diff)
	}

	if err := cloud.StopServer(ctx, "s-1"); err != nil {
		t.Fatalf("StopServer() error = %v", err)
	}
	if _, ok := f.last().Body["os-stop"]; !ok {
		t.Errorf("stop body = %v, want os-stop action", f.last().Body)
	}

	if err := cloud.AttachInterface(ctx, "s-1", "net-9"); err != nil {
		t.Fatalf("AttachInterface() error = %v", err)
	}
	wantAttach := map[string]any{"interfaceAttachment": map[string]any{"net_id": "net-9"}}
	if diff := cmp.Diff(wantAttach, f.last().Body); diff != "" {
		t.Errorf("attach body mismatch (-want +got):\n%s", diff)
	}

	if err := cloud.DeleteServer(ctx, "s-1"); err != nil {
		t.Fatalf("DeleteServer() error = %v", err)
	}
	if got := f.last().Method; got != http.MethodDelete {
		t.Errorf("last method = %s, want DELETE", got)
	}
}

func TestDeleteServer_NotFoundIsClassified(t *testing.T) {
	t.Parallel()

	_, cloud := newFakeOpenStack(t, map[string]fakeResponse{
		"DELETE /compute/servers/gone": {status: http.StatusNotFound, body: map[string]any{"itemNotFound": map[string]any{"code": 404}}},
	})

	err := cloud.DeleteServer(context.Background(), "gone")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("DeleteServer() error = %v, want ErrNotFound", err)
	}
}

func TestFindNetworkByName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		networks []any
		wantID   string
		wantErr  error
	}{
		{
			name:     "single match",
			networks: []any{map[string]any{"id": "net-123", "name": "mgmt", "status": "ACTIVE"}},
			wantID:   "net-123",
		},
		{
			name:    "no match",
			wantErr: domain.ErrNotFound,
		},
		{
			name: "ambiguous",
			networks: []any{
				map[string]any{"id": "net-1", "name": "mgmt"},
				map[string]any{"id": "net-2", "name": "mgmt"},
			},
			wantErr: domain.ErrAmbiguousName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			nets := tt.networks
			if nets == nil {
				nets = []any{}
			}
			_, cloud := newFakeOpenStack(t, map[string]fakeResponse{
				"GET /network/v2.0/networks": {status: http.StatusOK, body: map[string]any{"networks": nets}},
			})

			got, err := cloud.FindNetworkByName(context.Background(), "mgmt")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("FindNetworkByName() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("FindNetworkByName() error = %v", err)
			}
			if got.ID != tt.wantID {
				t.Errorf("FindNetworkByName().ID = %q, want %q", got.ID, tt.wantID)
			}
		})
	}
}

func TestAuthOptionsFromEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		"OS_AUTH_URL":         "https://keystone.example:5000/v3",
		"OS_USERNAME":         "admin",
		"OS_PROJECT_NAME":     "ops",
		"OS_USER_DOMAIN_NAME": "Default",
	}
	getenv := func(k string) string { return env[k] }

	t.Run("password from store", func(t *testing.T) {
		t.Parallel()
		store := auth.NewMockStore()
		store.SetSecret(auth.SecretKey(OpenStackName, "password"), "from-keyring")

		opts, err := AuthOptionsFromEnv(getenv, store)
		if err != nil {
			t.Fatalf("AuthOptionsFromEnv() error = %v", err)
		}
		if opts.Password != "from-keyring" || opts.TenantName != "ops" || opts.DomainName != "Default" {
			t.Errorf("AuthOptionsFromEnv() = %+v", opts)
		}
	})

	t.Run("no password anywhere", func(t *testing.T) {
		t.Parallel()
		_, err := AuthOptionsFromEnv(getenv, auth.NewMockStore())
		if !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("AuthOptionsFromEnv() error = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("missing auth url", func(t *testing.T) {
		t.Parallel()
		_, err := AuthOptionsFromEnv(func(string) string { return "" }, nil)
		if err == nil || !strings.Contains(err.Error(), "OS_AUTH_URL") {
			t.Fatalf("AuthOptionsFromEnv() error = %v, want OS_AUTH_URL complaint", err)
		}
	})
}

func TestLegacyBlockDeviceMapping(t *testing.T) {
	t.Parallel()

	got := legacyBlockDeviceMapping(map[string]string{
		"vdb": "snap-1:snap:20:0",
		"vda": "vol-1",
	})
	want := []map[string]any{
		{"device_name": "vda", "volume_id": "vol-1"},
		{"device_name": "vdb", "snapshot_id": "snap-1", "volume_size": 20, "delete_on_termination": false},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("legacyBlockDeviceMapping() mismatch (-want +got):\n%s", diff)
	}
}
