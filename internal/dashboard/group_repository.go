package dashboard

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// GroupRepository defines persistence operations for device groups.
// All lookups are scoped to a dashboard id, mirroring the URL shape
// /dashboards/{uuid}/groups/{id}.
type GroupRepository interface {
	// Create inserts a new device group.
	Create(ctx context.Context, group *DeviceGroup) error
	// GetByID retrieves a group scoped to the dashboard.
	// Returns ErrGroupNotFound when absent.
	GetByID(ctx context.Context, dashboardID, groupID int64) (*DeviceGroup, error)
	// List retrieves all groups on a dashboard ordered by sort_order.
	List(ctx context.Context, dashboardID int64) ([]DeviceGroup, error)
	// Update modifies a group's name, membership and settings.
	Update(ctx context.Context, group *DeviceGroup) error
	// Delete removes a group scoped to the dashboard.
	Delete(ctx context.Context, dashboardID, groupID int64) error

	// AddDevice appends a device id to the group's membership.
	// Adding an id that is already a member is a no-op.
	AddDevice(ctx context.Context, dashboardID, groupID int64, deviceID string) ([]string, error)
	// RemoveDevice removes every occurrence of a device id.
	RemoveDevice(ctx context.Context, dashboardID, groupID int64, deviceID string) ([]string, error)
	// UpdatePosition overwrites the group's grid rectangle.
	UpdatePosition(ctx context.Context, dashboardID, groupID int64, rect GridRect) error
}

// SQLiteGroupRepository implements GroupRepository using SQLite.
type SQLiteGroupRepository struct {
	db *sql.DB
}

// NewSQLiteGroupRepository creates a new SQLite-backed group repository.
func NewSQLiteGroupRepository(db *sql.DB) *SQLiteGroupRepository {
	return &SQLiteGroupRepository{db: db}
}

const groupColumns = `id, dashboard_id, name, device_ids, settings,
	grid_x, grid_y, grid_w, grid_h, sort_order, is_active, created_at, updated_at`

// Create inserts a new device group.
func (r *SQLiteGroupRepository) Create(ctx context.Context, group *DeviceGroup) error {
	if group == nil {
		return fmt.Errorf("group is required")
	}
	if group.DeviceIDs == nil {
		group.DeviceIDs = []string{}
	}

	deviceIDs, err := marshalDeviceIDs(group.DeviceIDs)
	if err != nil {
		return fmt.Errorf("encoding device ids: %w", err)
	}
	settings, err := marshalJSONMap(group.Settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	now := time.Now().UTC()
	group.CreatedAt = now
	group.UpdatedAt = now
	group.IsActive = true

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO device_groups (dashboard_id, name, device_ids, settings,
		   grid_x, grid_y, grid_w, grid_h, sort_order, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		group.DashboardID, group.Name, deviceIDs, settings,
		group.Grid.X, group.Grid.Y, group.Grid.W, group.Grid.H, group.SortOrder,
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting group: %w", err)
	}

	group.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading group id: %w", err)
	}
	return nil
}

// GetByID retrieves a group scoped to the dashboard.
func (r *SQLiteGroupRepository) GetByID(ctx context.Context, dashboardID, groupID int64) (*DeviceGroup, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM device_groups WHERE id = ? AND dashboard_id = ?`,
		groupID, dashboardID)

	group, err := scanGroup(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("querying group: %w", err)
	}
	return group, nil
}

// List retrieves all groups on a dashboard.
func (r *SQLiteGroupRepository) List(ctx context.Context, dashboardID int64) ([]DeviceGroup, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+groupColumns+` FROM device_groups
		 WHERE dashboard_id = ? ORDER BY sort_order, id`,
		dashboardID)
	if err != nil {
		return nil, fmt.Errorf("querying groups: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var groups []DeviceGroup
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning group: %w", err)
		}
		groups = append(groups, *group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating groups: %w", err)
	}
	return groups, nil
}

// Update modifies a group's name, membership and settings.
func (r *SQLiteGroupRepository) Update(ctx context.Context, group *DeviceGroup) error {
	if group == nil {
		return fmt.Errorf("group is required")
	}

	deviceIDs, err := marshalDeviceIDs(group.DeviceIDs)
	if err != nil {
		return fmt.Errorf("encoding device ids: %w", err)
	}
	settings, err := marshalJSONMap(group.Settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	group.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE device_groups SET name = ?, device_ids = ?, settings = ?,
		   is_active = ?, updated_at = ?
		 WHERE id = ? AND dashboard_id = ?`,
		group.Name, deviceIDs, settings, boolToInt(group.IsActive),
		group.UpdatedAt.Format(time.RFC3339), group.ID, group.DashboardID,
	)
	if err != nil {
		return fmt.Errorf("updating group: %w", err)
	}
	return requireRow(result, ErrGroupNotFound)
}

// Delete removes a group scoped to the dashboard.
func (r *SQLiteGroupRepository) Delete(ctx context.Context, dashboardID, groupID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM device_groups WHERE id = ? AND dashboard_id = ?`,
		groupID, dashboardID)
	if err != nil {
		return fmt.Errorf("deleting group: %w", err)
	}
	return requireRow(result, ErrGroupNotFound)
}

// AddDevice appends a device id to the group's membership and persists
// immediately. Idempotent: an id that is already a member leaves the
// list untouched. Returns the resulting membership in order.
func (r *SQLiteGroupRepository) AddDevice(ctx context.Context, dashboardID, groupID int64, deviceID string) ([]string, error) {
	group, err := r.GetByID(ctx, dashboardID, groupID)
	if err != nil {
		return nil, err
	}

	for _, id := range group.DeviceIDs {
		if id == deviceID {
			return group.DeviceIDs, nil
		}
	}

	group.DeviceIDs = append(group.DeviceIDs, deviceID)
	if err := r.saveDeviceIDs(ctx, dashboardID, groupID, group.DeviceIDs); err != nil {
		return nil, err
	}
	return group.DeviceIDs, nil
}

// RemoveDevice removes every occurrence of a device id and persists
// immediately. Removing an id that is not a member is a no-op.
// Returns the resulting membership in order.
func (r *SQLiteGroupRepository) RemoveDevice(ctx context.Context, dashboardID, groupID int64, deviceID string) ([]string, error) {
	group, err := r.GetByID(ctx, dashboardID, groupID)
	if err != nil {
		return nil, err
	}

	remaining := make([]string, 0, len(group.DeviceIDs))
	for _, id := range group.DeviceIDs {
		if id != deviceID {
			remaining = append(remaining, id)
		}
	}

	if len(remaining) == len(group.DeviceIDs) {
		return group.DeviceIDs, nil
	}

	if err := r.saveDeviceIDs(ctx, dashboardID, groupID, remaining); err != nil {
		return nil, err
	}
	return remaining, nil
}

// UpdatePosition overwrites the group's grid rectangle. Dragging a
// group in the editor goes through here, independent of the allocator.
func (r *SQLiteGroupRepository) UpdatePosition(ctx context.Context, dashboardID, groupID int64, rect GridRect) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE device_groups SET grid_x = ?, grid_y = ?, grid_w = ?, grid_h = ?, updated_at = ?
		 WHERE id = ? AND dashboard_id = ?`,
		rect.X, rect.Y, rect.W, rect.H,
		time.Now().UTC().Format(time.RFC3339), groupID, dashboardID,
	)
	if err != nil {
		return fmt.Errorf("updating group position: %w", err)
	}
	return requireRow(result, ErrGroupNotFound)
}

func (r *SQLiteGroupRepository) saveDeviceIDs(ctx context.Context, dashboardID, groupID int64, ids []string) error {
	deviceIDs, err := marshalDeviceIDs(ids)
	if err != nil {
		return fmt.Errorf("encoding device ids: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE device_groups SET device_ids = ?, updated_at = ?
		 WHERE id = ? AND dashboard_id = ?`,
		deviceIDs, time.Now().UTC().Format(time.RFC3339), groupID, dashboardID,
	)
	if err != nil {
		return fmt.Errorf("saving device ids: %w", err)
	}
	return requireRow(result, ErrGroupNotFound)
}

func scanGroup(s scanner) (*DeviceGroup, error) {
	var group DeviceGroup
	var deviceIDs, settings sql.NullString
	var isActive int
	var createdAt, updatedAt string

	err := s.Scan(&group.ID, &group.DashboardID, &group.Name, &deviceIDs,
		&settings, &group.Grid.X, &group.Grid.Y, &group.Grid.W, &group.Grid.H,
		&group.SortOrder, &isActive, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	group.IsActive = isActive != 0
	group.DeviceIDs = []string{}
	if deviceIDs.Valid && deviceIDs.String != "" {
		if err := json.Unmarshal([]byte(deviceIDs.String), &group.DeviceIDs); err != nil {
			return nil, fmt.Errorf("decoding device ids: %w", err)
		}
	}
	if settings.Valid && settings.String != "" {
		if err := json.Unmarshal([]byte(settings.String), &group.Settings); err != nil {
			return nil, fmt.Errorf("decoding settings: %w", err)
		}
	}
	group.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // Format is controlled
	group.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // Format is controlled

	return &group, nil
}

func marshalDeviceIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
