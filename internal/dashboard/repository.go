package dashboard

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vstoms/homeydash/internal/homey"
)

// Repository defines persistence operations for dashboards and their
// items. Dashboards are addressed by UUID, items by numeric id scoped
// to their dashboard.
type Repository interface {
	// Create inserts a new dashboard, generating its UUID.
	Create(ctx context.Context, d *Dashboard) error
	// GetByUUID retrieves a dashboard by UUID.
	// Returns ErrNotFound if the UUID does not exist.
	GetByUUID(ctx context.Context, uuid string) (*Dashboard, error)
	// List retrieves all dashboards ordered by sort_order, then name.
	List(ctx context.Context) ([]Dashboard, error)
	// Update modifies a dashboard's name, description, settings and flags.
	Update(ctx context.Context, d *Dashboard) error
	// Delete removes a dashboard by UUID. Items and groups cascade.
	Delete(ctx context.Context, uuid string) error

	// CreateItem inserts a new item on a dashboard.
	CreateItem(ctx context.Context, item *Item) error
	// GetItem retrieves one item, scoped to the dashboard.
	// Returns ErrItemNotFound when the id is absent or belongs elsewhere.
	GetItem(ctx context.Context, dashboardID, itemID int64) (*Item, error)
	// ListItems retrieves all items on a dashboard ordered by sort_order.
	ListItems(ctx context.Context, dashboardID int64) ([]Item, error)
	// UpdateItem persists an item's name, settings and capabilities.
	UpdateItem(ctx context.Context, item *Item) error
	// DeleteItem removes one item, scoped to the dashboard.
	DeleteItem(ctx context.Context, dashboardID, itemID int64) error

	// SaveLayout overwrites grid positions for the given items.
	// Rows whose id does not belong to the dashboard are skipped.
	SaveLayout(ctx context.Context, dashboardID int64, positions []ItemPosition) error
	// ReorderItems sets each item's sort_order to its index in ids.
	ReorderItems(ctx context.Context, dashboardID int64, ids []int64) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed dashboard repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const dashboardColumns = `id, uuid, name, description, settings, sort_order,
	is_active, created_at, updated_at`

const itemColumns = `id, dashboard_id, type, homey_id, name, icon, capabilities,
	settings, sort_order, is_active, grid_x, grid_y, grid_w, grid_h,
	created_at, updated_at`

// Create inserts a new dashboard. The UUID is generated here and never
// chosen by callers; it is the dashboard's public identity.
func (r *SQLiteRepository) Create(ctx context.Context, d *Dashboard) error {
	if d == nil {
		return fmt.Errorf("dashboard is required")
	}

	if d.UUID == "" {
		d.UUID = uuid.NewString()
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	d.IsActive = true

	settings, err := marshalJSONMap(d.Settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO dashboards (uuid, name, description, settings, sort_order, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
		d.UUID, d.Name, nullString(d.Description), settings, d.SortOrder,
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting dashboard: %w", err)
	}

	d.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading dashboard id: %w", err)
	}
	return nil
}

// GetByUUID retrieves a dashboard by UUID.
func (r *SQLiteRepository) GetByUUID(ctx context.Context, id string) (*Dashboard, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+dashboardColumns+` FROM dashboards WHERE uuid = ?`, id)

	d, err := scanDashboard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying dashboard by uuid: %w", err)
	}
	return d, nil
}

// List retrieves all dashboards.
func (r *SQLiteRepository) List(ctx context.Context) ([]Dashboard, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+dashboardColumns+` FROM dashboards ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("querying dashboards: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var dashboards []Dashboard
	for rows.Next() {
		d, err := scanDashboard(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning dashboard: %w", err)
		}
		dashboards = append(dashboards, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dashboards: %w", err)
	}
	return dashboards, nil
}

// Update modifies an existing dashboard.
func (r *SQLiteRepository) Update(ctx context.Context, d *Dashboard) error {
	if d == nil {
		return fmt.Errorf("dashboard is required")
	}

	settings, err := marshalJSONMap(d.Settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	d.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE dashboards SET name = ?, description = ?, settings = ?,
		   sort_order = ?, is_active = ?, updated_at = ?
		 WHERE uuid = ?`,
		d.Name, nullString(d.Description), settings, d.SortOrder,
		boolToInt(d.IsActive), d.UpdatedAt.Format(time.RFC3339), d.UUID,
	)
	if err != nil {
		return fmt.Errorf("updating dashboard: %w", err)
	}
	return requireRow(result, ErrNotFound)
}

// Delete removes a dashboard by UUID. Items and device groups are
// removed by the foreign key cascade.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM dashboards WHERE uuid = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting dashboard: %w", err)
	}
	return requireRow(result, ErrNotFound)
}

// CreateItem inserts a new item on a dashboard.
func (r *SQLiteRepository) CreateItem(ctx context.Context, item *Item) error {
	if item == nil {
		return fmt.Errorf("item is required")
	}
	if !item.Type.Valid() {
		return ErrInvalidItemType
	}

	capabilities, err := marshalCapabilities(item.Capabilities)
	if err != nil {
		return fmt.Errorf("encoding capabilities: %w", err)
	}
	settings, err := marshalSettings(item.Settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	item.IsActive = true

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO dashboard_items (dashboard_id, type, homey_id, name, icon,
		   capabilities, settings, sort_order, is_active, grid_x, grid_y, grid_w, grid_h,
		   created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?, ?, ?, ?, ?)`,
		item.DashboardID, string(item.Type), item.HomeyID, item.Name,
		nullString(item.Icon), capabilities, settings, item.SortOrder,
		item.Grid.X, item.Grid.Y, item.Grid.W, item.Grid.H,
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting item: %w", err)
	}

	item.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading item id: %w", err)
	}
	return nil
}

// GetItem retrieves one item, scoped to the dashboard so an id from
// another dashboard cannot be read through the wrong URL.
func (r *SQLiteRepository) GetItem(ctx context.Context, dashboardID, itemID int64) (*Item, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM dashboard_items WHERE id = ? AND dashboard_id = ?`,
		itemID, dashboardID)

	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("querying item: %w", err)
	}
	return item, nil
}

// ListItems retrieves all items on a dashboard.
func (r *SQLiteRepository) ListItems(ctx context.Context, dashboardID int64) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM dashboard_items
		 WHERE dashboard_id = ? ORDER BY sort_order, id`,
		dashboardID)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}
	return items, nil
}

// UpdateItem persists an item's mutable fields: name, icon, settings
// and the capability snapshot. Grid position changes go through
// SaveLayout instead.
func (r *SQLiteRepository) UpdateItem(ctx context.Context, item *Item) error {
	if item == nil {
		return fmt.Errorf("item is required")
	}

	capabilities, err := marshalCapabilities(item.Capabilities)
	if err != nil {
		return fmt.Errorf("encoding capabilities: %w", err)
	}
	settings, err := marshalSettings(item.Settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	item.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE dashboard_items SET name = ?, icon = ?, capabilities = ?,
		   settings = ?, is_active = ?, updated_at = ?
		 WHERE id = ? AND dashboard_id = ?`,
		item.Name, nullString(item.Icon), capabilities, settings,
		boolToInt(item.IsActive), item.UpdatedAt.Format(time.RFC3339),
		item.ID, item.DashboardID,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return requireRow(result, ErrItemNotFound)
}

// DeleteItem removes one item, scoped to the dashboard.
func (r *SQLiteRepository) DeleteItem(ctx context.Context, dashboardID, itemID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM dashboard_items WHERE id = ? AND dashboard_id = ?`,
		itemID, dashboardID)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return requireRow(result, ErrItemNotFound)
}

// SaveLayout overwrites grid positions for the submitted items, one
// UPDATE per row. Ids that don't belong to the dashboard match zero
// rows and are skipped without error, so a stale editor tab cannot
// move tiles on someone else's dashboard. There is no wrapping
// transaction: a mid-save failure keeps the rows already written,
// and the next save from the editor reconciles the rest.
func (r *SQLiteRepository) SaveLayout(ctx context.Context, dashboardID int64, positions []ItemPosition) error {
	now := time.Now().UTC().Format(time.RFC3339)
	for _, p := range positions {
		_, err := r.db.ExecContext(ctx,
			`UPDATE dashboard_items SET grid_x = ?, grid_y = ?, grid_w = ?, grid_h = ?, updated_at = ?
			 WHERE id = ? AND dashboard_id = ?`,
			p.X, p.Y, p.W, p.H, now, p.ID, dashboardID,
		)
		if err != nil {
			return fmt.Errorf("saving position for item %d: %w", p.ID, err)
		}
	}
	return nil
}

// ReorderItems sets each item's sort_order to its index in ids.
// Unknown ids are skipped like in SaveLayout.
func (r *SQLiteRepository) ReorderItems(ctx context.Context, dashboardID int64, ids []int64) error {
	now := time.Now().UTC().Format(time.RFC3339)
	for i, id := range ids {
		_, err := r.db.ExecContext(ctx,
			`UPDATE dashboard_items SET sort_order = ?, updated_at = ?
			 WHERE id = ? AND dashboard_id = ?`,
			i, now, id, dashboardID,
		)
		if err != nil {
			return fmt.Errorf("reordering item %d: %w", id, err)
		}
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for the scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanDashboard(s scanner) (*Dashboard, error) {
	var d Dashboard
	var description, settings sql.NullString
	var isActive int
	var createdAt, updatedAt string

	err := s.Scan(&d.ID, &d.UUID, &d.Name, &description, &settings,
		&d.SortOrder, &isActive, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	d.Description = description.String
	d.IsActive = isActive != 0
	if settings.Valid && settings.String != "" {
		if err := json.Unmarshal([]byte(settings.String), &d.Settings); err != nil {
			return nil, fmt.Errorf("decoding settings: %w", err)
		}
	}
	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // Format is controlled
	d.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // Format is controlled

	return &d, nil
}

func scanItem(s scanner) (*Item, error) {
	var item Item
	var itemType string
	var icon, capabilities, settings sql.NullString
	var isActive int
	var createdAt, updatedAt string

	err := s.Scan(&item.ID, &item.DashboardID, &itemType, &item.HomeyID,
		&item.Name, &icon, &capabilities, &settings, &item.SortOrder,
		&isActive, &item.Grid.X, &item.Grid.Y, &item.Grid.W, &item.Grid.H,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	item.Type = ItemType(itemType)
	item.Icon = icon.String
	item.IsActive = isActive != 0
	if capabilities.Valid && capabilities.String != "" {
		if err := json.Unmarshal([]byte(capabilities.String), &item.Capabilities); err != nil {
			return nil, fmt.Errorf("decoding capabilities: %w", err)
		}
	}
	if settings.Valid && settings.String != "" {
		if err := json.Unmarshal([]byte(settings.String), &item.Settings); err != nil {
			return nil, fmt.Errorf("decoding settings: %w", err)
		}
	}
	item.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // Format is controlled
	item.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // Format is controlled

	return &item, nil
}

func marshalJSONMap(m map[string]any) (sql.NullString, error) {
	if m == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func marshalCapabilities(caps map[string]homey.Capability) (sql.NullString, error) {
	if caps == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(caps)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func marshalSettings(s ItemSettings) (sql.NullString, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// requireRow converts a zero-row update or delete into notFound.
func requireRow(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
