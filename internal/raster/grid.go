// Package raster builds per-tile elevation grids from bucketed LiDAR
// points: Delaunay triangulation followed by a natural-neighbor-style
// interpolant, sliced into output sub-tiles with an overlap halo.
package raster

import "math"

// Grid is a dense row-major 2D array of 64-bit floats. NaN denotes "outside
// the convex hull of the input points" (or, for assembled overview grids,
// "no contributing child data").
type Grid struct {
	Cols, Rows int
	Data       []float64
}

// NewGrid allocates a cols x rows grid filled with NaN.
func NewGrid(cols, rows int) *Grid {
	g := &Grid{Cols: cols, Rows: rows, Data: make([]float64, cols*rows)}
	for i := range g.Data {
		g.Data[i] = math.NaN()
	}
	return g
}

// At returns the value at (col, row).
func (g *Grid) At(col, row int) float64 {
	return g.Data[row*g.Cols+col]
}

// Set assigns the value at (col, row).
func (g *Grid) Set(col, row int, v float64) {
	g.Data[row*g.Cols+col] = v
}

// IsConstant reports whether every cell holds the same value (including the
// all-NaN case, which counts as constant).
func (g *Grid) IsConstant() (float64, bool) {
	if len(g.Data) == 0 {
		return math.NaN(), true
	}
	first := g.Data[0]
	firstIsNaN := math.IsNaN(first)
	for _, v := range g.Data[1:] {
		if math.IsNaN(v) != firstIsNaN {
			return 0, false
		}
		if !firstIsNaN && v != first {
			return 0, false
		}
	}
	return first, true
}

// SubGrid extracts a cols x rows region starting at (col0, row0). Indices
// outside the source grid are filled with NaN. Rasterize uses it to cut
// the output tile slices and the unit-tile crop out of the buffered grid.
func (g *Grid) SubGrid(col0, row0, cols, rows int) *Grid {
	out := NewGrid(cols, rows)
	for r := 0; r < rows; r++ {
		sr := row0 + r
		if sr < 0 || sr >= g.Rows {
			continue
		}
		for c := 0; c < cols; c++ {
			sc := col0 + c
			if sc < 0 || sc >= g.Cols {
				continue
			}
			out.Set(c, r, g.At(sc, sr))
		}
	}
	return out
}

// Blit copies src into g at destination offset (col0, row0), clipping to
// g's bounds.
func (g *Grid) Blit(src *Grid, col0, row0 int) {
	for r := 0; r < src.Rows; r++ {
		dr := row0 + r
		if dr < 0 || dr >= g.Rows {
			continue
		}
		for c := 0; c < src.Cols; c++ {
			dc := col0 + c
			if dc < 0 || dc >= g.Cols {
				continue
			}
			g.Set(dc, dr, src.At(c, r))
		}
	}
}
