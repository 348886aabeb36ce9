package homey

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newTestHub starts a fake hub and returns a client pointed at it.
func newTestHub(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	conn := &Connection{
		IP:    strings.TrimPrefix(srv.URL, "http://"),
		Token: "test-token",
	}
	return NewClient(conn, Options{}), srv
}

func TestConfigured(t *testing.T) {
	tests := []struct {
		name string
		conn *Connection
		want bool
	}{
		{"nil connection", nil, false},
		{"empty ip", &Connection{Token: "t"}, false},
		{"empty token", &Connection{IP: "192.168.1.10"}, false},
		{"complete", &Connection{IP: "192.168.1.10", Token: "t"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(tt.conn, Options{})
			if got := client.Configured(); got != tt.want {
				t.Errorf("Configured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnconfiguredShortCircuits(t *testing.T) {
	client := NewClient(nil, Options{})
	ctx := context.Background()

	if got := client.Devices(ctx); len(got) != 0 {
		t.Errorf("Devices() = %v, want empty", got)
	}
	if got := client.Device(ctx, "abc"); got != nil {
		t.Errorf("Device() = %v, want nil", got)
	}
	if client.SetCapability(ctx, "abc", "onoff", true) {
		t.Error("SetCapability() = true, want false")
	}
	if got := client.DeviceStates(ctx, []string{"abc"}); len(got) != 0 {
		t.Errorf("DeviceStates() = %v, want empty", got)
	}
	if got := client.Flows(ctx); len(got) != 0 {
		t.Errorf("Flows() = %v, want empty", got)
	}
	if client.TriggerFlow(ctx, "f1") {
		t.Error("TriggerFlow() = true, want false")
	}
}

func TestDevices(t *testing.T) {
	client, _ := newTestHub(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/manager/devices/device" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]Device{ //nolint:errcheck
			"dev-1": {
				Name: "Living Room Light",
				Capabilities: map[string]Capability{
					"onoff": {Value: true},
					"dim":   {Value: 0.5},
				},
			},
		})
	})

	devices := client.Devices(context.Background())
	if len(devices) != 1 {
		t.Fatalf("got %d devices, want 1", len(devices))
	}

	dev, ok := devices["dev-1"]
	if !ok {
		t.Fatal("device dev-1 missing")
	}
	if dev.ID != "dev-1" {
		t.Errorf("ID = %q, want dev-1 (filled from map key)", dev.ID)
	}
	if dev.Name != "Living Room Light" {
		t.Errorf("Name = %q", dev.Name)
	}
	if len(dev.Capabilities) != 2 {
		t.Errorf("got %d capabilities, want 2", len(dev.Capabilities))
	}
}

func TestDevicesHubDown(t *testing.T) {
	client, srv := newTestHub(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	if got := client.Devices(context.Background()); len(got) != 0 {
		t.Errorf("Devices() after hub down = %v, want empty", got)
	}
}

func TestDevicesHubError(t *testing.T) {
	client, _ := newTestHub(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if got := client.Devices(context.Background()); len(got) != 0 {
		t.Errorf("Devices() on 500 = %v, want empty", got)
	}
}

func TestDevice(t *testing.T) {
	client, _ := newTestHub(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/manager/devices/device/dev-1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(Device{Name: "Kitchen Plug"}) //nolint:errcheck
	})

	dev := client.Device(context.Background(), "dev-1")
	if dev == nil {
		t.Fatal("Device() = nil")
	}
	if dev.ID != "dev-1" {
		t.Errorf("ID = %q, want dev-1", dev.ID)
	}
	if dev.Name != "Kitchen Plug" {
		t.Errorf("Name = %q", dev.Name)
	}

	if got := client.Device(context.Background(), "missing"); got != nil {
		t.Errorf("Device(missing) = %v, want nil", got)
	}
}

func TestSetCapability(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]any

	client, _ := newTestHub(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody) //nolint:errcheck
		w.WriteHeader(http.StatusOK)
	})

	ok := client.SetCapability(context.Background(), "dev-1", "dim", 0.75)
	if !ok {
		t.Fatal("SetCapability() = false, want true")
	}
	if gotMethod != http.MethodPut {
		t.Errorf("method = %s, want PUT", gotMethod)
	}
	if want := "/api/manager/devices/device/dev-1/capability/dim"; gotPath != want {
		t.Errorf("path = %s, want %s", gotPath, want)
	}
	if gotBody["value"] != 0.75 {
		t.Errorf("body value = %v, want 0.75", gotBody["value"])
	}
}

func TestDeviceStates(t *testing.T) {
	client, _ := newTestHub(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/manager/devices/device/dev-1":
			json.NewEncoder(w).Encode(Device{ //nolint:errcheck
				Capabilities: map[string]Capability{"onoff": {Value: true}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	states := client.DeviceStates(context.Background(), []string{"dev-1", "gone"})
	if len(states) != 1 {
		t.Fatalf("got %d states, want 1 (unknown id dropped)", len(states))
	}
	caps, ok := states["dev-1"]
	if !ok {
		t.Fatal("dev-1 missing from states")
	}
	if caps["onoff"].Value != true {
		t.Errorf("onoff value = %v, want true", caps["onoff"].Value)
	}
}

func TestFlows(t *testing.T) {
	client, _ := newTestHub(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/manager/flow/flow" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]Flow{ //nolint:errcheck
			"flow-1": {Name: "Good Morning", Enabled: true},
		})
	})

	flows := client.Flows(context.Background())
	if len(flows) != 1 {
		t.Fatalf("got %d flows, want 1", len(flows))
	}
	if flows["flow-1"].ID != "flow-1" {
		t.Errorf("ID = %q, want flow-1", flows["flow-1"].ID)
	}
	if flows["flow-1"].Name != "Good Morning" {
		t.Errorf("Name = %q", flows["flow-1"].Name)
	}
}

func TestTriggerFlow(t *testing.T) {
	var gotMethod, gotPath string
	client, _ := newTestHub(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	})

	if !client.TriggerFlow(context.Background(), "flow-1") {
		t.Fatal("TriggerFlow() = false, want true")
	}
	if gotMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", gotMethod)
	}
	if want := "/api/manager/flow/flow/flow-1/trigger"; gotPath != want {
		t.Errorf("path = %s, want %s", gotPath, want)
	}
}
