package raster

import (
	"log"
	"math"

	"github.com/freemapslovakia/lazdem/internal/pointsource"
	"github.com/freemapslovakia/lazdem/internal/tilegeom"
)

// TileSlice is one output tile cut from a rasterized unit tile's grid.
type TileSlice struct {
	Tile tilegeom.Tile
	Grid *Grid
}

// Params configures a Rasterize call.
type Params struct {
	PixelsPerMeter   float64
	TileSize         int
	OverlapHalo      int // payload-level halo, e.g. 2
	BufferPx         int // ingestion-level halo, e.g. 40 (the --buffer flag)
	SupertileOffset  int // zoom_level - unit_zoom_level
}

// Rasterize builds a Delaunay triangulation + natural-neighbor-style
// interpolant over a unit tile's accumulated points, evaluates it on the
// buffered pixel grid, and slices the result into 4^SupertileOffset
// output tiles in tilegeom.Tile.Descendants order. A true return for the
// third result means the unit tile had no qualifying points (or too few to
// triangulate); callers must mark every descendant Finished without
// producing a payload.
//
// The second return is the unit tile's own footprint cropped out of the
// full-resolution grid at (tile_size<<SupertileOffset + 2·overlap_halo<<
// SupertileOffset) pixels: the raw material callers downsample (when
// SupertileOffset > 0) into the unit-zoom-resolution grid the overview
// pyramid builds on top of. At SupertileOffset 0 it already has the exact
// output size and needs no further resampling.
func Rasterize(meta *pointsource.TileMeta, p Params) ([]TileSlice, *Grid, bool, error) {
	points := meta.Bucket.Drain()
	if len(points) == 0 {
		return nil, nil, true, nil
	}

	interp, err := NewInterpolant(points)
	if err != nil {
		log.Printf("raster: %v (tile %s, %d points), treating as empty", err, meta.Tile, len(points))
		return nil, nil, true, nil
	}

	bbox := meta.BufferedBBox
	cols := int(math.Round(bbox.Width() * p.PixelsPerMeter))
	rows := int(math.Round(bbox.Height() * p.PixelsPerMeter))
	grid := NewGrid(cols, rows)

	for r := 0; r < rows; r++ {
		y := bbox.MaxY - (float64(r)+0.5)/p.PixelsPerMeter
		for c := 0; c < cols; c++ {
			x := bbox.MinX + (float64(c)+0.5)/p.PixelsPerMeter
			grid.Set(c, r, interp.Eval(x, y))
		}
	}

	descendants := meta.Tile.Descendants(p.SupertileOffset)
	side := 1 << p.SupertileOffset
	mask := side - 1
	subSize := p.TileSize + 2*p.OverlapHalo

	slices := make([]TileSlice, 0, len(descendants))
	for s, dtile := range descendants {
		dx := s & mask
		dy := s >> p.SupertileOffset
		col0 := p.BufferPx - p.OverlapHalo + dx*p.TileSize
		row0 := p.BufferPx - p.OverlapHalo + dy*p.TileSize
		slices = append(slices, TileSlice{Tile: dtile, Grid: grid.SubGrid(col0, row0, subSize, subSize)})
	}

	cropSize := p.TileSize*side + 2*p.OverlapHalo*side
	cropOrigin := p.BufferPx - p.OverlapHalo*side
	unitCrop := grid.SubGrid(cropOrigin, cropOrigin, cropSize, cropSize)

	return slices, unitCrop, false, nil
}
