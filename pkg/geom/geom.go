// Package geom provides integer axis-aligned bounding box primitives used
// throughout the grouping pipeline.
//
// Boxes follow the raster convention: (X0, Y0) is the top-left corner and
// (X1, Y1) the bottom-right corner, exclusive on the high edge. All
// operations are pure functions over values; a malformed box (X1 <= X0 or
// Y1 <= Y0) is never an error here - callers decide whether to repair or
// drop it.
package geom
