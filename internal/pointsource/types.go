// Package pointsource abstracts over the two ways points are supplied to
// the rasterizer: an indexed collection of LAS/LAZ files queried by bbox,
// or a container of files pre-sliced into per-tile chunks.
package pointsource

import (
	"sync"

	"github.com/freemapslovakia/lazdem/internal/tilegeom"
)

// PointWithHeight is a single LiDAR return in Web-Mercator meters and
// meters above datum.
type PointWithHeight struct {
	X, Y, Z float64
}

// Classification mirrors the ASPRS LAS point classification codes this
// system filters on.
type Classification uint8

const (
	ClassGround         Classification = 2
	ClassLowVegetation  Classification = 3
	ClassMediumVeg      Classification = 4
	ClassHighVegetation Classification = 5
	ClassWater          Classification = 9
)

// ClassifyFilter controls which classified points are dropped during
// ingestion. Water is always dropped; low vegetation is configurable,
// matching the two behaviors observed across the source prototypes.
type ClassifyFilter struct {
	SkipLowVegetation bool
}

// Keep reports whether a point with the given classification should be
// kept.
func (f ClassifyFilter) Keep(c Classification) bool {
	if c == ClassWater {
		return false
	}
	if f.SkipLowVegetation && c == ClassLowVegetation {
		return false
	}
	return true
}

// PointBucket accumulates points for one unit tile under a single mutex.
// It is filled during ingestion and drained exactly once by the
// rasterizer; a second Drain returns nil, enforcing the "moved, not
// copied" ownership transfer the data model calls for.
type PointBucket struct {
	mu     sync.Mutex
	points []PointWithHeight
}

// Add appends a point, taking the bucket's lock. Safe for concurrent use
// across multiple ingestion workers writing into different (or the same)
// buckets.
func (b *PointBucket) Add(p PointWithHeight) {
	b.mu.Lock()
	b.points = append(b.points, p)
	b.mu.Unlock()
}

// Len returns the current number of accumulated points.
func (b *PointBucket) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.points)
}

// Drain returns the accumulated points and clears the bucket. Only the
// first call after ingestion returns data; subsequent calls return nil,
// since the TileMeta is meant to be consumed exactly once.
func (b *PointBucket) Drain() []PointWithHeight {
	b.mu.Lock()
	defer b.mu.Unlock()
	pts := b.points
	b.points = nil
	return pts
}

// TileMeta is the unit-job descriptor: a unit tile, its halo-extended
// bounding box, and the point bucket ingestion fills before the
// rasterizer consumes it.
type TileMeta struct {
	Tile         tilegeom.Tile
	BufferedBBox tilegeom.BBox
	Bucket       *PointBucket
}

// NewTileMeta builds an empty TileMeta for the given unit tile, with its
// buffered bbox extended by bufferMeters on every side.
func NewTileMeta(tile tilegeom.Tile, tileSize int, bufferMeters float64) *TileMeta {
	return &TileMeta{
		Tile:         tile,
		BufferedBBox: tile.Bounds(tileSize).ExtendBy(bufferMeters),
		Bucket:       &PointBucket{},
	}
}
