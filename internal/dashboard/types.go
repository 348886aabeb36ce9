package dashboard

import (
	"time"

	"github.com/vstoms/homeydash/internal/homey"
)

// ItemType distinguishes the two kinds of dashboard tiles.
type ItemType string

// Valid item types.
const (
	ItemTypeDevice ItemType = "device"
	ItemTypeFlow   ItemType = "flow"
)

// Valid reports whether t is a recognised item type.
func (t ItemType) Valid() bool {
	return t == ItemTypeDevice || t == ItemTypeFlow
}

// GridRect is a tile's position and size on the 6 column grid.
type GridRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Dashboard is a named collection of items and device groups.
// UUID is the only identifier exposed over the API.
type Dashboard struct {
	ID          int64          `json:"-"`
	UUID        string         `json:"uuid"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Settings    map[string]any `json:"settings,omitempty"`
	SortOrder   int            `json:"sort_order"`
	IsActive    bool           `json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Item is a single tile: a device or a flow pinned to a dashboard.
// Capabilities is a snapshot taken from the hub when the item was
// added or last viewed; live values come from the hub at render time.
type Item struct {
	ID           int64                       `json:"id"`
	DashboardID  int64                       `json:"-"`
	Type         ItemType                    `json:"type"`
	HomeyID      string                      `json:"homey_id"`
	Name         string                      `json:"name"`
	Icon         string                      `json:"icon,omitempty"`
	Capabilities map[string]homey.Capability `json:"capabilities,omitempty"`
	Settings     ItemSettings                `json:"settings"`
	SortOrder    int                         `json:"sort_order"`
	IsActive     bool                        `json:"is_active"`
	Grid         GridRect                    `json:"grid"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

// DeviceGroup is a tile showing several hub devices together, such as
// all lights in one room. DeviceIDs is an ordered list of hub device
// ids; membership order is display order.
type DeviceGroup struct {
	ID          int64          `json:"id"`
	DashboardID int64          `json:"-"`
	Name        string         `json:"name"`
	DeviceIDs   []string       `json:"device_ids"`
	Settings    map[string]any `json:"settings,omitempty"`
	Grid        GridRect       `json:"grid"`
	SortOrder   int            `json:"sort_order"`
	IsActive    bool           `json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ItemPosition is one entry in a layout save payload.
type ItemPosition struct {
	ID int64 `json:"id"`
	X  int   `json:"x"`
	Y  int   `json:"y"`
	W  int   `json:"w"`
	H  int   `json:"h"`
}

// GroupDevice is the live projection of one group member, shaped for
// the group tile: dimmers show a 0-100 level, switches just on/off.
type GroupDevice struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value int    `json:"value"`
	On    bool   `json:"on"`
}
