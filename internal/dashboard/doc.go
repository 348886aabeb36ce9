// Package dashboard holds the core domain of homeydash: dashboards,
// the items and device groups placed on them, the grid allocator that
// picks cells for new tiles, and the projection of live hub devices
// into group tiles.
//
// Dashboards are addressed externally by UUID only; the numeric id is
// an internal key that never leaves the database layer. Items and
// groups use their numeric ids, matching the payloads the layout
// editor sends.
//
// Persistence follows the repository pattern: Repository and
// GroupRepository interfaces with SQLite implementations. Grid
// placement (NextItemCell, NextGroupCell) is pure and takes the
// occupied rectangles as input, so it is testable without a database.
package dashboard
