package pointsource

import (
	"math"

	"github.com/freemapslovakia/lazdem/internal/coord"
	"github.com/freemapslovakia/lazdem/internal/tilegeom"
)

var webMercator = &coord.WebMercatorProj{}

// sourceToMercator converts a point from proj's CRS into Web Mercator
// meters, via WGS84. A nil proj means the source data is already in Web
// Mercator.
func sourceToMercator(proj coord.Projection, x, y float64) (mx, my float64) {
	return SourceToMercator(proj, x, y)
}

// SourceToMercator converts a point from proj's CRS into Web Mercator
// meters, via WGS84. A nil proj means the source data is already in Web
// Mercator. Exported so tools outside this package (laztile's
// pre-bucketing pass) can reproject points the same way the online
// ingestion path does.
func SourceToMercator(proj coord.Projection, x, y float64) (mx, my float64) {
	if proj == nil {
		return x, y
	}
	lon, lat := proj.ToWGS84(x, y)
	return webMercator.FromWGS84(lon, lat)
}

// mercatorToSource is sourceToMercator's inverse, used to pre-filter a
// file's own bounding box against the query region before paying the cost
// of reprojecting every point in it.
func mercatorToSource(proj coord.Projection, x, y float64) (sx, sy float64) {
	if proj == nil {
		return x, y
	}
	lon, lat := webMercator.ToWGS84(x, y)
	return proj.FromWGS84(lon, lat)
}

// ReprojectBBoxPerimeter reprojects bbox (in Web Mercator meters) into
// proj's CRS by sampling n evenly spaced points along each of its four
// edges (corners included) and taking their axis-aligned bounding box:
// more robust under a nonlinear projection than reprojecting just the four
// corners. n=11 matches the sampling density the point-reading path was
// built around.
func ReprojectBBoxPerimeter(proj coord.Projection, bbox tilegeom.BBox, n int) tilegeom.BBox {
	if proj == nil {
		return bbox
	}
	if n < 4 {
		n = 4
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	w, h := bbox.Width(), bbox.Height()
	// Perimeter distances at which the four edges start (and the last ends).
	starts := [5]float64{0, w, w + h, 2*w + h, 2*w + 2*h}

	for side := 0; side < 4; side++ {
		for i := 0; i < n; i++ {
			d := starts[side] + (starts[side+1]-starts[side])*float64(i)/float64(n-1)
			x, y := pointOnPerimeter(bbox, d)
			sx, sy := mercatorToSource(proj, x, y)
			minX = math.Min(minX, sx)
			minY = math.Min(minY, sy)
			maxX = math.Max(maxX, sx)
			maxY = math.Max(maxY, sy)
		}
	}
	return tilegeom.BBox{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

// pointOnPerimeter walks distance d clockwise from (MinX, MinY) around
// bbox's perimeter, starting along the bottom edge.
func pointOnPerimeter(bbox tilegeom.BBox, d float64) (x, y float64) {
	w, h := bbox.Width(), bbox.Height()
	switch {
	case d < w:
		return bbox.MinX + d, bbox.MinY
	case d < w+h:
		return bbox.MaxX, bbox.MinY + (d - w)
	case d < 2*w+h:
		return bbox.MaxX - (d - w - h), bbox.MaxY
	default:
		return bbox.MinX, bbox.MaxY - (d - 2*w - h)
	}
}
