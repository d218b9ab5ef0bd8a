// Package tilegeom implements pure tile-addressing and bounding-box
// arithmetic for the Web-Mercator quad-tree: coverage enumeration,
// parent/child/descendant relationships, the bordered-children halo grid
// used by overview construction, and Morton ordering for job scheduling.
package tilegeom

import "fmt"

// BBox is an axis-aligned rectangle in Web-Mercator meters.
type BBox struct {
	MinX, MinY, MaxX, MaxY float64
}

// NewBBox validates min < max on both axes.
func NewBBox(minX, minY, maxX, maxY float64) (BBox, error) {
	if minX >= maxX || minY >= maxY {
		return BBox{}, fmt.Errorf("tilegeom: inverted bbox (%g,%g,%g,%g)", minX, minY, maxX, maxY)
	}
	return BBox{minX, minY, maxX, maxY}, nil
}

// Width returns the bbox extent along X in meters.
func (b BBox) Width() float64 { return b.MaxX - b.MinX }

// Height returns the bbox extent along Y in meters.
func (b BBox) Height() float64 { return b.MaxY - b.MinY }

// Contains reports whether (x, y) lies within the box, inclusive of the
// lower edge and exclusive of the upper edge — so that a point on a shared
// border between two adjacent boxes belongs to exactly one of them.
func (b BBox) Contains(x, y float64) bool {
	return x >= b.MinX && x < b.MaxX && y >= b.MinY && y < b.MaxY
}

// Intersects reports whether two boxes overlap (open intersection; touching
// edges do not count, matching the half-open Contains semantics).
func (b BBox) Intersects(o BBox) bool {
	return b.MinX < o.MaxX && o.MinX < b.MaxX && b.MinY < o.MaxY && o.MinY < b.MaxY
}

// Touches reports whether two boxes overlap or merely share a boundary
// (closed intersection). Used for tile coverage enumeration, where a bbox
// pinned to a tile corner must still be considered to cover every tile
// meeting at that corner.
func (b BBox) Touches(o BBox) bool {
	return b.MinX <= o.MaxX && o.MinX <= b.MaxX && b.MinY <= o.MaxY && o.MinY <= b.MaxY
}

// ExtendBy grows the box by meters on every side.
func (b BBox) ExtendBy(meters float64) BBox {
	return BBox{b.MinX - meters, b.MinY - meters, b.MaxX + meters, b.MaxY + meters}
}
