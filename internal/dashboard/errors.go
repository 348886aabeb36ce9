package dashboard

import "errors"

// Domain errors for the dashboard package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, dashboard.ErrNotFound) {
//	    // handle not found case
//	}
var (
	// ErrNotFound is returned when a dashboard UUID does not exist.
	ErrNotFound = errors.New("dashboard: not found")

	// ErrItemNotFound is returned when an item id does not exist on the
	// given dashboard.
	ErrItemNotFound = errors.New("dashboard: item not found")

	// ErrGroupNotFound is returned when a group id does not exist on the
	// given dashboard.
	ErrGroupNotFound = errors.New("dashboard: group not found")

	// ErrInvalidItemType is returned when an item type is not recognised.
	ErrInvalidItemType = errors.New("dashboard: invalid item type")
)
