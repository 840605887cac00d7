// Package cube owns the in-memory state of the LED voxel cube and the
// plane-level transforms applied to it.
//
// Responsibilities: bounds-checked voxel access, whole-plane set/clear,
// plane extraction and insertion along each axis, rotation, mirroring,
// symmetry and shifting.
// Key types: Grid, Plane, Axis, Direction, Reflection, Point.
//
// Dependency rule: cube depends on nothing else in this module. Rasterisation
// lives in cube/raster and the wire format in cube/codec; both import cube,
// never the other way round.
//
// Grid is not safe for concurrent use. Callers that flush frames from a
// background goroutine should go through display.Display, which snapshots
// the grid under a lock.
package cube
