package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleListDevices returns every device the hub knows about.
// Unlike the fail-soft dashboard paths, the raw listing reports an
// unconfigured hub explicitly so the setup UI can prompt for settings.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	hub := s.hubClient(ctx)
	if !hub.Configured() {
		writeHubNotConfigured(w)
		return
	}

	writeJSON(w, http.StatusOK, hub.Devices(ctx))
}

// handleGetDevice returns one device by hub id.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	hub := s.hubClient(ctx)
	if !hub.Configured() {
		writeHubNotConfigured(w)
		return
	}

	id := chi.URLParam(r, "id")
	device := hub.Device(ctx, id)
	if device == nil {
		writeNotFound(w, "device not found")
		return
	}

	writeJSON(w, http.StatusOK, device)
}

type controlRequest struct {
	Capability string `json:"capability"`
	Value      any    `json:"value"`
}

// handleControlDevice sets a capability value on a device. A hub that
// rejects or never receives the command yields success=false, not an
// HTTP error; the dashboard shows the tile unchanged.
func (s *Server) handleControlDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req controlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Capability == "" {
		writeValidationError(w, map[string]string{"capability": "capability is required"})
		return
	}

	id := chi.URLParam(r, "id")
	success := s.hubClient(ctx).SetCapability(ctx, id, req.Capability, req.Value)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    success,
		"device_id":  id,
		"capability": req.Capability,
		"value":      req.Value,
	})
}

type statesRequest struct {
	Devices []string `json:"devices"`
}

// handleDeviceStates returns current capabilities for a batch of
// device ids. The dashboard polls this to keep tiles live.
func (s *Server) handleDeviceStates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req statesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Devices == nil {
		writeValidationError(w, map[string]string{"devices": "devices is required"})
		return
	}

	writeJSON(w, http.StatusOK, s.hubClient(ctx).DeviceStates(ctx, req.Devices))
}
