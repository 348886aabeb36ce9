package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vstoms/homeydash/internal/dashboard"
	"github.com/vstoms/homeydash/internal/homey"
)

type savePositionRequest struct {
	ID int64 `json:"id"`
	X  int   `json:"x"`
	Y  int   `json:"y"`
	W  int   `json:"w"`
	H  int   `json:"h"`
}

type saveLayoutRequest struct {
	Items []savePositionRequest `json:"items"`
}

// handleSaveLayout overwrites grid positions for the submitted items.
// The editor sends the whole layout on every save; ids that don't
// belong to this dashboard are silently skipped.
func (s *Server) handleSaveLayout(w http.ResponseWriter, r *http.Request) {
	d, ok := s.findDashboard(w, r)
	if !ok {
		return
	}

	var req saveLayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Items == nil {
		writeValidationError(w, map[string]string{"items": "items is required"})
		return
	}

	positions := make([]dashboard.ItemPosition, 0, len(req.Items))
	for i, p := range req.Items {
		if fields := validatePosition("items."+strconv.Itoa(i)+".", p.X, p.Y, p.W, p.H); fields != nil {
			writeValidationError(w, fields)
			return
		}
		positions = append(positions, dashboard.ItemPosition{ID: p.ID, X: p.X, Y: p.Y, W: p.W, H: p.H})
	}

	if err := s.dashboards.SaveLayout(r.Context(), d.ID, positions); err != nil {
		s.logger.Error("saving layout", "error", err, "dashboard", d.UUID)
		writeInternalError(w, "failed to save layout")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleAvailableItems lists hub devices and flows not yet on this
// dashboard. Listings come from the cache; a hub that is down simply
// yields empty lists here.
func (s *Server) handleAvailableItems(w http.ResponseWriter, r *http.Request) {
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

	addedDevices := make(map[string]bool)
	addedFlows := make(map[string]bool)
	for _, item := range items {
		switch item.Type {
		case dashboard.ItemTypeDevice:
			addedDevices[item.HomeyID] = true
		case dashboard.ItemTypeFlow:
			addedFlows[item.HomeyID] = true
		}
	}

	hub := s.hubClient(ctx)

	type listing struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	devices := []listing{}
	for id, device := range s.cache.Devices(ctx, hub) {
		if addedDevices[id] {
			continue
		}
		name := device.Name
		if name == "" {
			name = "Unknown"
		}
		devices = append(devices, listing{ID: id, Name: name})
	}

	flows := []listing{}
	for id, flow := range s.cache.Flows(ctx, hub) {
		if addedFlows[id] {
			continue
		}
		name := flow.Name
		if name == "" {
			name = "Unknown"
		}
		flows = append(flows, listing{ID: id, Name: name})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"flows":   flows,
	})
}

type addItemRequest struct {
	Type    string `json:"type"`
	HomeyID string `json:"homey_id"`
	Name    string `json:"name"`
}

// handleAddItem pins a device or flow onto the dashboard. Devices get
// a capability snapshot from the hub, and the grid allocator picks the
// next free cell.
func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	d, ok := s.findDashboard(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	fields := map[string]string{}
	itemType := dashboard.ItemType(req.Type)
	if !itemType.Valid() {
		fields["type"] = "type must be device or flow"
	}
	if req.HomeyID == "" {
		fields["homey_id"] = "homey_id is required"
	}
	for k, v := range validateName(req.Name) {
		fields[k] = v
	}
	if len(fields) > 0 {
		writeValidationError(w, fields)
		return
	}

	// Snapshot device capabilities; the hub being unreachable just
	// leaves the snapshot empty.
	var capabilities map[string]homey.Capability
	if itemType == dashboard.ItemTypeDevice {
		if device := s.hubClient(ctx).Device(ctx, req.HomeyID); device != nil {
			capabilities = device.Capabilities
		}
	}

	items, err := s.dashboards.ListItems(ctx, d.ID)
	if err != nil {
		s.logger.Error("listing items", "error", err, "dashboard", d.UUID)
		writeInternalError(w, "failed to load dashboard items")
		return
	}

	rects := make([]dashboard.GridRect, len(items))
	for i, existing := range items {
		rects[i] = existing.Grid
	}

	item := &dashboard.Item{
		DashboardID:  d.ID,
		Type:         itemType,
		HomeyID:      req.HomeyID,
		Name:         req.Name,
		Capabilities: capabilities,
		Grid:         dashboard.NextItemCell(rects),
	}
	if err := s.dashboards.CreateItem(ctx, item); err != nil {
		s.logger.Error("creating item", "error", err, "dashboard", d.UUID)
		writeInternalError(w, "failed to add item")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"item": map[string]any{
			"id":       item.ID,
			"type":     item.Type,
			"name":     item.Name,
			"homey_id": item.HomeyID,
			"grid_x":   item.Grid.X,
			"grid_y":   item.Grid.Y,
			"grid_w":   item.Grid.W,
			"grid_h":   item.Grid.H,
		},
	})
}

// handleGetItem returns one item, refreshing the capability snapshot
// from the hub for device items.
func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	d, item, ok := s.findItem(w, r)
	if !ok {
		return
	}

	if item.Type == dashboard.ItemTypeDevice {
		if device := s.hubClient(ctx).Device(ctx, item.HomeyID); device != nil && device.Capabilities != nil {
			item.Capabilities = device.Capabilities
			if err := s.dashboards.UpdateItem(ctx, item); err != nil {
				s.logger.Warn("refreshing item capabilities", "error", err, "dashboard", d.UUID)
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":           item.ID,
		"type":         item.Type,
		"name":         item.Name,
		"homey_id":     item.HomeyID,
		"capabilities": item.Capabilities,
		"settings":     item.Settings,
		"grid_x":       item.Grid.X,
		"grid_y":       item.Grid.Y,
		"grid_w":       item.Grid.W,
		"grid_h":       item.Grid.H,
	})
}

// updateItemRequest carries the rename and the display settings as
// flat top-level keys; the settings fields are promoted from the
// embedded struct.
type updateItemRequest struct {
	Name *string `json:"name"`
	dashboard.ItemSettings
}

// handleUpdateItem renames an item and/or merges display settings.
// Settings fields absent from the request are left untouched.
func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	_, item, ok := s.findItem(w, r)
	if !ok {
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Name != nil {
		if fields := validateName(*req.Name); fields != nil {
			writeValidationError(w, fields)
			return
		}
		item.Name = *req.Name
	}
	item.Settings = item.Settings.Merge(req.ItemSettings)

	if err := s.dashboards.UpdateItem(r.Context(), item); err != nil {
		s.logger.Error("updating item", "error", err, "item", item.ID)
		writeInternalError(w, "failed to update item")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"item": map[string]any{
			"id":       item.ID,
			"name":     item.Name,
			"settings": item.Settings,
		},
	})
}

// handleDeleteItem removes an item from the dashboard.
func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	d, ok := s.findDashboard(w, r)
	if !ok {
		return
	}
	itemID, ok := parseID(w, r, "itemID")
	if !ok {
		return
	}

	err := s.dashboards.DeleteItem(r.Context(), d.ID, itemID)
	if errors.Is(err, dashboard.ErrItemNotFound) {
		writeNotFound(w, "item not found")
		return
	}
	if err != nil {
		s.logger.Error("deleting item", "error", err, "item", itemID)
		writeInternalError(w, "failed to delete item")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type reorderRequest struct {
	Items []int64 `json:"items"`
}

// handleReorderItems rewrites sort_order from the submitted id order.
func (s *Server) handleReorderItems(w http.ResponseWriter, r *http.Request) {
	d, ok := s.findDashboard(w, r)
	if !ok {
		return
	}

	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Items == nil {
		writeValidationError(w, map[string]string{"items": "items is required"})
		return
	}

	if err := s.dashboards.ReorderItems(r.Context(), d.ID, req.Items); err != nil {
		s.logger.Error("reordering items", "error", err, "dashboard", d.UUID)
		writeInternalError(w, "failed to reorder items")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// findItem resolves the dashboard and item from the URL, writing 404s
// as needed. The final return value reports success.
func (s *Server) findItem(w http.ResponseWriter, r *http.Request) (*dashboard.Dashboard, *dashboard.Item, bool) {
	d, ok := s.findDashboard(w, r)
	if !ok {
		return nil, nil, false
	}
	itemID, ok := parseID(w, r, "itemID")
	if !ok {
		return nil, nil, false
	}

	item, err := s.dashboards.GetItem(r.Context(), d.ID, itemID)
	if errors.Is(err, dashboard.ErrItemNotFound) {
		writeNotFound(w, "item not found")
		return nil, nil, false
	}
	if err != nil {
		s.logger.Error("loading item", "error", err, "item", itemID)
		writeInternalError(w, "failed to load item")
		return nil, nil, false
	}
	return d, item, true
}

// parseID parses a numeric URL parameter, writing a 400 on failure.
func parseID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil {
		writeBadRequest(w, "invalid "+param)
		return 0, false
	}
	return id, true
}

// validatePosition checks a grid rectangle, returning field errors
// keyed under prefix, or nil when valid.
func validatePosition(prefix string, x, y, w, h int) map[string]string {
	fields := map[string]string{}
	if x < 0 {
		fields[prefix+"x"] = "x must be at least 0"
	}
	if y < 0 {
		fields[prefix+"y"] = "y must be at least 0"
	}
	if w < 1 {
		fields[prefix+"w"] = "w must be at least 1"
	}
	if h < 1 {
		fields[prefix+"h"] = "h must be at least 1"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
