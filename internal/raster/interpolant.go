package raster

import (
	"errors"
	"fmt"
	"math"

	"github.com/fogleman/delaunay"
	"github.com/freemapslovakia/lazdem/internal/pointsource"
)

// ErrInsufficientPoints is returned by NewInterpolant when fewer than 3
// points are supplied — no triangulation, and therefore no interpolant,
// can be built.
var ErrInsufficientPoints = errors.New("raster: at least 3 points are required to triangulate")

// Interpolant evaluates a barycentric-linear field over the Delaunay
// triangulation of a point set. This approximates Sibson natural-neighbor
// interpolation: both exactly reproduce affine fields and both return NaN
// outside the triangulation's convex hull (see DESIGN.md Open Question 1).
type Interpolant struct {
	points  []delaunay.Point
	heights []float64
	index   *cellIndex
}

// NewInterpolant triangulates points and builds the spatial index backing
// Eval.
func NewInterpolant(points []pointsource.PointWithHeight) (*Interpolant, error) {
	if len(points) < 3 {
		return nil, ErrInsufficientPoints
	}
	pts := make([]delaunay.Point, len(points))
	heights := make([]float64, len(points))
	for i, p := range points {
		pts[i] = delaunay.Point{X: p.X, Y: p.Y}
		heights[i] = p.Z
	}
	tri, err := delaunay.Triangulate(pts)
	if err != nil {
		return nil, fmt.Errorf("raster: triangulating %d points: %w", len(points), err)
	}
	if len(tri.Triangles) == 0 {
		return nil, fmt.Errorf("raster: triangulation of %d points produced no triangles (degenerate input)", len(points))
	}
	return &Interpolant{
		points:  pts,
		heights: heights,
		index:   buildCellIndex(pts, tri.Triangles),
	}, nil
}

// Eval returns the interpolated height at (x, y), or NaN if the point lies
// outside the convex hull of the input points.
func (ip *Interpolant) Eval(x, y float64) float64 {
	for radius := 0; radius <= ip.index.maxRadius(); radius++ {
		for _, triIdx := range ip.index.candidates(x, y, radius) {
			if v, ok := ip.evalTriangle(triIdx, x, y); ok {
				return v
			}
		}
	}
	return math.NaN()
}

func (ip *Interpolant) evalTriangle(triIdx int, x, y float64) (float64, bool) {
	const eps = 1e-9
	i0 := ip.index.triVerts[3*triIdx]
	i1 := ip.index.triVerts[3*triIdx+1]
	i2 := ip.index.triVerts[3*triIdx+2]
	p0, p1, p2 := ip.points[i0], ip.points[i1], ip.points[i2]

	det := (p1.Y-p2.Y)*(p0.X-p2.X) + (p2.X-p1.X)*(p0.Y-p2.Y)
	if math.Abs(det) < 1e-12 {
		return 0, false
	}
	l1 := ((p1.Y-p2.Y)*(x-p2.X) + (p2.X-p1.X)*(y-p2.Y)) / det
	l2 := ((p2.Y-p0.Y)*(x-p2.X) + (p0.X-p2.X)*(y-p2.Y)) / det
	l3 := 1 - l1 - l2
	if l1 < -eps || l2 < -eps || l3 < -eps {
		return 0, false
	}
	return l1*ip.heights[i0] + l2*ip.heights[i1] + l3*ip.heights[i2], true
}
