package api

import (
	"net/http"
	"strings"
	"testing"
)

func TestMaskToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"long token", "abcdefgh1234", "********1234"},
		{"exactly four", "1234", "****"},
		{"short token", "ab", "**"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := maskToken(tt.token); got != tt.want {
				t.Errorf("maskToken(%q) = %q, want %q", tt.token, got, tt.want)
			}
		})
	}
}

func TestGetSettings_Unconfigured(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	w := doRequest(t, router, http.MethodGet, "/api/v1/settings", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	resp := decodeBody(t, w)
	if resp["configured"] != false {
		t.Errorf("configured = %v, want false", resp["configured"])
	}
}

func TestSaveSettings(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	w := doRequest(t, router, http.MethodPut, "/api/v1/settings", map[string]any{
		"name":       "My Homey",
		"ip_address": "192.168.1.50",
		"token":      "secret-token-abcd",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d\nbody: %s", w.Code, http.StatusOK, w.Body.String())
	}

	resp := decodeBody(t, w)
	if resp["success"] != true {
		t.Errorf("success = %v, want true", resp["success"])
	}
	token := resp["token"].(string)
	if strings.Contains(token, "secret") {
		t.Errorf("token %q not masked", token)
	}
	if !strings.HasSuffix(token, "abcd") {
		t.Errorf("token %q should keep last four characters", token)
	}
}

func TestSaveSettings_Validation(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	w := doRequest(t, router, http.MethodPut, "/api/v1/settings", map[string]any{
		"name": "Only Name",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	resp := decodeBody(t, w)
	fields := resp["fields"].(map[string]any)
	for _, field := range []string{"ip_address", "token"} {
		if _, ok := fields[field]; !ok {
			t.Errorf("expected field error for %s, got %v", field, fields)
		}
	}
}

func TestGetSettings_AfterSave(t *testing.T) {
	srv := testServer(t)
	hub := fakeHub(t)
	configureHub(t, srv, hub.URL)
	router := srv.buildRouter()

	w := doRequest(t, router, http.MethodGet, "/api/v1/settings", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	resp := decodeBody(t, w)
	if resp["configured"] != true {
		t.Errorf("configured = %v, want true", resp["configured"])
	}
	if resp["name"] != "Test Homey" {
		t.Errorf("name = %v, want Test Homey", resp["name"])
	}
	token := resp["token"].(string)
	if !strings.HasPrefix(token, "*") {
		t.Errorf("token %q not masked", token)
	}

	conn, ok := resp["connection"].(map[string]any)
	if !ok {
		t.Fatalf("connection missing from response: %v", resp)
	}
	if conn["success"] != true {
		t.Errorf("connection success = %v, want true", conn["success"])
	}
	if conn["device_count"] != float64(2) {
		t.Errorf("device_count = %v, want 2", conn["device_count"])
	}
}

func TestTestSettings_Unconfigured(t *testing.T) {
	srv := testServer(t)
	router := srv.buildRouter()

	w := doRequest(t, router, http.MethodPost, "/api/v1/settings/test", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	resp := decodeBody(t, w)
	if resp["success"] != false {
		t.Errorf("success = %v, want false", resp["success"])
	}
	if resp["message"] != "Homey not configured" {
		t.Errorf("message = %v, want 'Homey not configured'", resp["message"])
	}
}

func TestTestSettings_Connected(t *testing.T) {
	srv := testServer(t)
	hub := fakeHub(t)
	configureHub(t, srv, hub.URL)
	router := srv.buildRouter()

	w := doRequest(t, router, http.MethodPost, "/api/v1/settings/test", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	resp := decodeBody(t, w)
	if resp["success"] != true {
		t.Errorf("success = %v, want true", resp["success"])
	}
	if resp["device_count"] != float64(2) {
		t.Errorf("device_count = %v, want 2", resp["device_count"])
	}
	if resp["flow_count"] != float64(1) {
		t.Errorf("flow_count = %v, want 1", resp["flow_count"])
	}
}

func TestTestSettings_HubDown(t *testing.T) {
	srv := testServer(t)
	hub := fakeHub(t)
	configureHub(t, srv, hub.URL)
	hub.Close()
	router := srv.buildRouter()

	w := doRequest(t, router, http.MethodPost, "/api/v1/settings/test", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	resp := decodeBody(t, w)
	if resp["success"] != false {
		t.Errorf("success = %v, want false", resp["success"])
	}
	if resp["device_count"] != float64(0) {
		t.Errorf("device_count = %v, want 0", resp["device_count"])
	}
}
