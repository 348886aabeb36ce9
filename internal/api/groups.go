package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vstoms/homeydash/internal/dashboard"
)

// handleListGroups returns all groups on a dashboard with live device
// projections.
func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	d, ok := s.findDashboard(w, r)
	if !ok {
		return
	}

	groups, err := s.groups.List(ctx, d.ID)
	if err != nil {
		s.logger.Error("listing groups", "error", err, "dashboard", d.UUID)
		writeInternalError(w, "failed to load device groups")
		return
	}

	payload := make([]map[string]any, 0, len(groups))
	for i := range groups {
		group := &groups[i]
		payload = append(payload, map[string]any{
			"id":           group.ID,
			"name":         group.Name,
			"device_ids":   group.DeviceIDs,
			"device_count": len(group.DeviceIDs),
			"settings":     group.Settings,
			"grid_x":       group.Grid.X,
			"grid_y":       group.Grid.Y,
			"grid_w":       group.Grid.W,
			"grid_h":       group.Grid.H,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"groups": payload})
}

type createGroupRequest struct {
	Name      string   `json:"name"`
	DeviceIDs []string `json:"device_ids"`
}

// handleCreateGroup creates a group, placing it with the grid
// allocator over both items and existing groups.
func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	d, ok := s.findDashboard(w, r)
	if !ok {
		return
	}

	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if fields := validateName(req.Name); fields != nil {
		writeValidationError(w, fields)
		return
	}

	items, err := s.dashboards.ListItems(ctx, d.ID)
	if err != nil {
		s.logger.Error("listing items", "error", err, "dashboard", d.UUID)
		writeInternalError(w, "failed to load dashboard items")
		return
	}
	existing, err := s.groups.List(ctx, d.ID)
	if err != nil {
		s.logger.Error("listing groups", "error", err, "dashboard", d.UUID)
		writeInternalError(w, "failed to load device groups")
		return
	}

	itemRects := make([]dashboard.GridRect, len(items))
	for i, item := range items {
		itemRects[i] = item.Grid
	}
	groupRects := make([]dashboard.GridRect, len(existing))
	for i, g := range existing {
		groupRects[i] = g.Grid
	}

	group := &dashboard.DeviceGroup{
		DashboardID: d.ID,
		Name:        req.Name,
		DeviceIDs:   req.DeviceIDs,
		Grid:        dashboard.NextGroupCell(itemRects, groupRects),
	}
	if err := s.groups.Create(ctx, group); err != nil {
		s.logger.Error("creating group", "error", err, "dashboard", d.UUID)
		writeInternalError(w, "failed to create group")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"group": map[string]any{
			"id":         group.ID,
			"name":       group.Name,
			"device_ids": group.DeviceIDs,
			"devices":    dashboard.DevicesForGroup(ctx, s.hubClient(ctx), group),
			"grid_x":     group.Grid.X,
			"grid_y":     group.Grid.Y,
			"grid_w":     group.Grid.W,
			"grid_h":     group.Grid.H,
		},
	})
}

// handleGetGroup returns one group with live device projections.
func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	_, group, ok := s.findGroup(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":         group.ID,
		"name":       group.Name,
		"device_ids": group.DeviceIDs,
		"devices":    dashboard.DevicesForGroup(ctx, s.hubClient(ctx), group),
		"settings":   group.Settings,
		"grid_x":     group.Grid.X,
		"grid_y":     group.Grid.Y,
		"grid_w":     group.Grid.W,
		"grid_h":     group.Grid.H,
	})
}

type updateGroupRequest struct {
	Name      *string         `json:"name"`
	DeviceIDs *[]string       `json:"device_ids"`
	Settings  *map[string]any `json:"settings"`
}

// handleUpdateGroup applies a partial update to a group.
func (s *Server) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	_, group, ok := s.findGroup(w, r)
	if !ok {
		return
	}

	var req updateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Name != nil {
		if fields := validateName(*req.Name); fields != nil {
			writeValidationError(w, fields)
			return
		}
		group.Name = *req.Name
	}
	if req.DeviceIDs != nil {
		group.DeviceIDs = *req.DeviceIDs
	}
	if req.Settings != nil {
		group.Settings = *req.Settings
	}

	if err := s.groups.Update(r.Context(), group); err != nil {
		s.logger.Error("updating group", "error", err, "group", group.ID)
		writeInternalError(w, "failed to update group")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"group": map[string]any{
			"id":         group.ID,
			"name":       group.Name,
			"device_ids": group.DeviceIDs,
			"settings":   group.Settings,
		},
	})
}

// handleDeleteGroup removes a group.
func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	d, ok := s.findDashboard(w, r)
	if !ok {
		return
	}
	groupID, ok := parseID(w, r, "groupID")
	if !ok {
		return
	}

	err := s.groups.Delete(r.Context(), d.ID, groupID)
	if errors.Is(err, dashboard.ErrGroupNotFound) {
		writeNotFound(w, "group not found")
		return
	}
	if err != nil {
		s.logger.Error("deleting group", "error", err, "group", groupID)
		writeInternalError(w, "failed to delete group")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type groupDeviceRequest struct {
	DeviceID string `json:"device_id"`
}

// handleGroupAddDevice appends a hub device to the group membership.
func (s *Server) handleGroupAddDevice(w http.ResponseWriter, r *http.Request) {
	d, group, ok := s.findGroup(w, r)
	if !ok {
		return
	}

	var req groupDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.DeviceID == "" {
		writeValidationError(w, map[string]string{"device_id": "device_id is required"})
		return
	}

	ids, err := s.groups.AddDevice(r.Context(), d.ID, group.ID, req.DeviceID)
	if err != nil {
		s.logger.Error("adding group device", "error", err, "group", group.ID)
		writeInternalError(w, "failed to add device")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"device_ids": ids,
	})
}

// handleGroupRemoveDevice removes a hub device from the group membership.
func (s *Server) handleGroupRemoveDevice(w http.ResponseWriter, r *http.Request) {
	d, group, ok := s.findGroup(w, r)
	if !ok {
		return
	}

	var req groupDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.DeviceID == "" {
		writeValidationError(w, map[string]string{"device_id": "device_id is required"})
		return
	}

	ids, err := s.groups.RemoveDevice(r.Context(), d.ID, group.ID, req.DeviceID)
	if err != nil {
		s.logger.Error("removing group device", "error", err, "group", group.ID)
		writeInternalError(w, "failed to remove device")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"device_ids": ids,
	})
}

type positionRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// handleGroupPosition overwrites a group's grid rectangle.
func (s *Server) handleGroupPosition(w http.ResponseWriter, r *http.Request) {
	d, group, ok := s.findGroup(w, r)
	if !ok {
		return
	}

	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if fields := validatePosition("", req.X, req.Y, req.W, req.H); fields != nil {
		writeValidationError(w, fields)
		return
	}

	rect := dashboard.GridRect{X: req.X, Y: req.Y, W: req.W, H: req.H}
	if err := s.groups.UpdatePosition(r.Context(), d.ID, group.ID, rect); err != nil {
		s.logger.Error("updating group position", "error", err, "group", group.ID)
		writeInternalError(w, "failed to update position")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// findGroup resolves the dashboard and group from the URL, writing
// 404s as needed. The final return value reports success.
func (s *Server) findGroup(w http.ResponseWriter, r *http.Request) (*dashboard.Dashboard, *dashboard.DeviceGroup, bool) {
	d, ok := s.findDashboard(w, r)
	if !ok {
		return nil, nil, false
	}
	groupID, ok := parseID(w, r, "groupID")
	if !ok {
		return nil, nil, false
	}

	group, err := s.groups.GetByID(r.Context(), d.ID, groupID)
	if errors.Is(err, dashboard.ErrGroupNotFound) {
		writeNotFound(w, "group not found")
		return nil, nil, false
	}
	if err != nil {
		s.logger.Error("loading group", "error", err, "group", groupID)
		writeInternalError(w, "failed to load group")
		return nil, nil, false
	}
	return d, group, true
}
