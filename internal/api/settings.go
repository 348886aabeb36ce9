package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/vstoms/homeydash/internal/hubsettings"
)

// maskToken hides all but the last four characters of a token. Short
// tokens are fully masked.
func maskToken(token string) string {
	const visible = 4
	if len(token) <= visible {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", len(token)-visible) + token[len(token)-visible:]
}

// handleGetSettings returns the stored hub settings with the token
// masked, plus a live connection check when the hub is configured.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	settings, err := s.hubSettings.First(ctx)
	if errors.Is(err, hubsettings.ErrNotConfigured) {
		writeJSON(w, http.StatusOK, map[string]any{
			"configured": false,
		})
		return
	}
	if err != nil {
		s.logger.Error("loading hub settings", "error", err)
		writeInternalError(w, "failed to load settings")
		return
	}

	payload := map[string]any{
		"configured": true,
		"name":       settings.Name,
		"ip_address": settings.IPAddress,
		"token":      maskToken(settings.Token),
		"is_active":  settings.IsActive,
	}

	if hub := s.hubClient(ctx); hub.Configured() {
		devices := hub.Devices(ctx)
		flows := hub.Flows(ctx)
		payload["connection"] = map[string]any{
			"success":      len(devices) > 0,
			"device_count": len(devices),
			"flow_count":   len(flows),
		}
	}

	writeJSON(w, http.StatusOK, payload)
}

type saveSettingsRequest struct {
	Name      string `json:"name"`
	IPAddress string `json:"ip_address"`
	Token     string `json:"token"`
}

// handleSaveSettings saves hub connection details and invalidates the
// listing cache so the next device fetch hits the new hub.
func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var req saveSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	fields := map[string]string{}
	if req.Name == "" {
		fields["name"] = "name is required"
	}
	if req.IPAddress == "" {
		fields["ip_address"] = "ip_address is required"
	}
	if req.Token == "" {
		fields["token"] = "token is required"
	}
	if len(fields) > 0 {
		writeValidationError(w, fields)
		return
	}

	settings, err := s.hubSettings.Save(r.Context(), req.Name, req.IPAddress, req.Token)
	if err != nil {
		s.logger.Error("saving hub settings", "error", err)
		writeInternalError(w, "failed to save settings")
		return
	}

	s.cache.Invalidate()
	s.logger.Info("hub settings saved", "name", settings.Name, "ip", settings.IPAddress)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"name":       settings.Name,
		"ip_address": settings.IPAddress,
		"token":      maskToken(settings.Token),
	})
}

// handleTestSettings checks connectivity to the configured hub by
// fetching device and flow counts.
func (s *Server) handleTestSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	hub := s.hubClient(ctx)
	if !hub.Configured() {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"message": "Homey not configured",
		})
		return
	}

	devices := hub.Devices(ctx)
	flows := hub.Flows(ctx)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      len(devices) > 0,
		"device_count": len(devices),
		"flow_count":   len(flows),
	})
}
