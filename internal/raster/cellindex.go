package raster

import (
	"math"

	"github.com/fogleman/delaunay"
)

// cellIndex buckets triangles into a uniform grid over the point set's
// bounding box, so Eval can test a handful of candidate triangles per
// pixel instead of scanning the full triangulation.
type cellIndex struct {
	triVerts               []int // flat, 3 per triangle (copy of delaunay.Triangulation.Triangles)
	minX, minY             float64
	cellSize               float64
	cols, rows             int
	cells                  [][]int
}

func buildCellIndex(points []delaunay.Point, triVerts []int) *cellIndex {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	width := math.Max(maxX-minX, 1e-6)
	height := math.Max(maxY-minY, 1e-6)
	numTriangles := len(triVerts) / 3

	// Aim for roughly one triangle per cell on average.
	cellSize := math.Sqrt((width * height) / math.Max(float64(numTriangles), 1))
	if cellSize <= 0 || math.IsNaN(cellSize) {
		cellSize = math.Max(width, height)
	}

	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1
	idx := &cellIndex{
		triVerts: triVerts,
		minX:     minX, minY: minY,
		cellSize: cellSize,
		cols:     cols, rows: rows,
		cells: make([][]int, cols*rows),
	}

	for t := 0; t < numTriangles; t++ {
		a, b, c := points[triVerts[3*t]], points[triVerts[3*t+1]], points[triVerts[3*t+2]]
		tMinX := math.Min(a.X, math.Min(b.X, c.X))
		tMaxX := math.Max(a.X, math.Max(b.X, c.X))
		tMinY := math.Min(a.Y, math.Min(b.Y, c.Y))
		tMaxY := math.Max(a.Y, math.Max(b.Y, c.Y))

		c0 := idx.colOf(tMinX)
		c1 := idx.colOf(tMaxX)
		r0 := idx.rowOf(tMinY)
		r1 := idx.rowOf(tMaxY)
		for r := r0; r <= r1; r++ {
			for col := c0; col <= c1; col++ {
				i := r*cols + col
				idx.cells[i] = append(idx.cells[i], t)
			}
		}
	}
	return idx
}

func (idx *cellIndex) colOf(x float64) int {
	c := int((x - idx.minX) / idx.cellSize)
	return idx.clampCol(c)
}

func (idx *cellIndex) rowOf(y float64) int {
	r := int((y - idx.minY) / idx.cellSize)
	return idx.clampRow(r)
}

func (idx *cellIndex) clampCol(c int) int {
	if c < 0 {
		return 0
	}
	if c >= idx.cols {
		return idx.cols - 1
	}
	return c
}

func (idx *cellIndex) clampRow(r int) int {
	if r < 0 {
		return 0
	}
	if r >= idx.rows {
		return idx.rows - 1
	}
	return r
}

// maxRadius bounds the ring search so Eval eventually gives up (NaN) for
// points genuinely outside the hull rather than scanning forever.
func (idx *cellIndex) maxRadius() int {
	if idx.cols > idx.rows {
		return idx.cols
	}
	return idx.rows
}

// candidates returns the triangle indices in the ring of cells at the
// given Chebyshev radius around (x, y)'s home cell. radius 0 is the home
// cell itself.
func (idx *cellIndex) candidates(x, y float64, radius int) []int {
	homeCol := int((x - idx.minX) / idx.cellSize)
	homeRow := int((y - idx.minY) / idx.cellSize)

	var out []int
	add := func(col, row int) {
		if col < 0 || row < 0 || col >= idx.cols || row >= idx.rows {
			return
		}
		out = append(out, idx.cells[row*idx.cols+col]...)
	}

	if radius == 0 {
		add(homeCol, homeRow)
		return out
	}
	for col := homeCol - radius; col <= homeCol+radius; col++ {
		add(col, homeRow-radius)
		add(col, homeRow+radius)
	}
	for row := homeRow - radius + 1; row <= homeRow+radius-1; row++ {
		add(homeCol-radius, row)
		add(homeCol+radius, row)
	}
	return out
}
