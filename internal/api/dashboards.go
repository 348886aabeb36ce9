package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vstoms/homeydash/internal/dashboard"
)

// maxNameLength bounds user-supplied names.
const maxNameLength = 255

// handleListDashboards returns all dashboards.
func (s *Server) handleListDashboards(w http.ResponseWriter, r *http.Request) {
	dashboards, err := s.dashboards.List(r.Context())
	if err != nil {
		s.logger.Error("listing dashboards", "error", err)
		writeInternalError(w, "failed to list dashboards")
		return
	}
	if dashboards == nil {
		dashboards = []dashboard.Dashboard{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"dashboards": dashboards})
}

type createDashboardRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Settings    map[string]any `json:"settings"`
}

// handleCreateDashboard creates a new dashboard and returns it with
// its generated UUID.
func (s *Server) handleCreateDashboard(w http.ResponseWriter, r *http.Request) {
	var req createDashboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if fields := validateName(req.Name); fields != nil {
		writeValidationError(w, fields)
		return
	}

	d := &dashboard.Dashboard{
		Name:        req.Name,
		Description: req.Description,
		Settings:    req.Settings,
	}
	if err := s.dashboards.Create(r.Context(), d); err != nil {
		s.logger.Error("creating dashboard", "error", err)
		writeInternalError(w, "failed to create dashboard")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":   true,
		"dashboard": d,
	})
}

// handleGetDashboard returns the full view payload for one dashboard:
// its active items in sort order and its groups with live device
// projections. This is the endpoint the wall-mounted dashboard polls.
func (s *Server) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	d, ok := s.findDashboard(w, r)
	if !ok {
		return
	}

	items, err := s.dashboards.ListItems(ctx, d.ID)
	if err != nil {
		s.logger.Error("listing items", "error", err, "dashboard", d.UUID)
		writeInternalError(w, "failed to load dashboard items")
		return
	}

	groups, err := s.groups.List(ctx, d.ID)
	if err != nil {
		s.logger.Error("listing groups", "error", err, "dashboard", d.UUID)
		writeInternalError(w, "failed to load device groups")
		return
	}

	hub := s.hubClient(ctx)

	viewItems := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if !item.IsActive {
			continue
		}
		viewItems = append(viewItems, map[string]any{
			"id":           item.ID,
			"type":         item.Type,
			"homey_id":     item.HomeyID,
			"name":         item.Name,
			"icon":         item.Icon,
			"capabilities": item.Capabilities,
			"settings":     item.Settings.Effective(),
			"grid_x":       item.Grid.X,
			"grid_y":       item.Grid.Y,
			"grid_w":       item.Grid.W,
			"grid_h":       item.Grid.H,
			"sort_order":   item.SortOrder,
		})
	}

	viewGroups := make([]map[string]any, 0, len(groups))
	for i := range groups {
		group := &groups[i]
		if !group.IsActive {
			continue
		}
		viewGroups = append(viewGroups, map[string]any{
			"id":         group.ID,
			"name":       group.Name,
			"device_ids": group.DeviceIDs,
			"devices":    dashboard.DevicesForGroup(ctx, hub, group),
			"settings":   group.Settings,
			"grid_x":     group.Grid.X,
			"grid_y":     group.Grid.Y,
			"grid_w":     group.Grid.W,
			"grid_h":     group.Grid.H,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"uuid":        d.UUID,
		"name":        d.Name,
		"description": d.Description,
		"settings":    d.Settings,
		"items":       viewItems,
		"groups":      viewGroups,
	})
}

type updateDashboardRequest struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Settings    *map[string]any `json:"settings"`
	IsActive    *bool           `json:"is_active"`
}

// handleUpdateDashboard applies a partial update to a dashboard.
func (s *Server) handleUpdateDashboard(w http.ResponseWriter, r *http.Request) {
	d, ok := s.findDashboard(w, r)
	if !ok {
		return
	}

	var req updateDashboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Name != nil {
		if fields := validateName(*req.Name); fields != nil {
			writeValidationError(w, fields)
			return
		}
		d.Name = *req.Name
	}
	if req.Description != nil {
		d.Description = *req.Description
	}
	if req.Settings != nil {
		d.Settings = *req.Settings
	}
	if req.IsActive != nil {
		d.IsActive = *req.IsActive
	}

	if err := s.dashboards.Update(r.Context(), d); err != nil {
		s.logger.Error("updating dashboard", "error", err, "dashboard", d.UUID)
		writeInternalError(w, "failed to update dashboard")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"dashboard": d,
	})
}

// handleDeleteDashboard removes a dashboard and everything on it.
func (s *Server) handleDeleteDashboard(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")

	err := s.dashboards.Delete(r.Context(), uuid)
	if errors.Is(err, dashboard.ErrNotFound) {
		writeNotFound(w, "dashboard not found")
		return
	}
	if err != nil {
		s.logger.Error("deleting dashboard", "error", err, "dashboard", uuid)
		writeInternalError(w, "failed to delete dashboard")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// findDashboard resolves the {uuid} URL parameter, writing a 404 when
// it does not exist. The second return value reports success.
func (s *Server) findDashboard(w http.ResponseWriter, r *http.Request) (*dashboard.Dashboard, bool) {
	uuid := chi.URLParam(r, "uuid")

	d, err := s.dashboards.GetByUUID(r.Context(), uuid)
	if errors.Is(err, dashboard.ErrNotFound) {
		writeNotFound(w, "dashboard not found")
		return nil, false
	}
	if err != nil {
		s.logger.Error("loading dashboard", "error", err, "dashboard", uuid)
		writeInternalError(w, "failed to load dashboard")
		return nil, false
	}
	return d, true
}

// validateName checks a user-supplied name, returning field errors or nil.
func validateName(name string) map[string]string {
	if name == "" {
		return map[string]string{"name": "name is required"}
	}
	if len(name) > maxNameLength {
		return map[string]string{"name": "name must be at most 255 characters"}
	}
	return nil
}
