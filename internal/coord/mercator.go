package coord

import (
	"math"

	"github.com/freemapslovakia/lazdem/internal/tilegeom"
)

const (
	// EarthCircumference is the equatorial circumference in meters.
	EarthCircumference = 40075016.685578488
	// OriginShift is half the earth's circumference, matching
	// tilegeom.WebMercatorExtent.
	OriginShift = EarthCircumference / 2.0
)

// WebMercatorProj implements Projection for EPSG:3857 (the identity
// projection for this system's own coordinate space).
type WebMercatorProj struct{}

func (w *WebMercatorProj) EPSG() int { return 3857 }

func (w *WebMercatorProj) ToWGS84(x, y float64) (lon, lat float64) {
	lon = (x / OriginShift) * 180.0
	lat = (y / OriginShift) * 180.0
	lat = 180.0 / math.Pi * (2.0*math.Atan(math.Exp(lat*math.Pi/180.0)) - math.Pi/2.0)
	return
}

func (w *WebMercatorProj) FromWGS84(lon, lat float64) (x, y float64) {
	x = lon * OriginShift / 180.0
	y = math.Log(math.Tan((90.0+lat)*math.Pi/360.0)) / (math.Pi / 180.0)
	y = y * OriginShift / 180.0
	return
}

// LonLatBounds converts a Web-Mercator bbox to WGS84 degrees, for writing
// the container's optional metadata.bounds entry.
func LonLatBounds(bbox tilegeom.BBox) (minLon, minLat, maxLon, maxLat float64) {
	proj := &WebMercatorProj{}
	minLon, minLat = proj.ToWGS84(bbox.MinX, bbox.MinY)
	maxLon, maxLat = proj.ToWGS84(bbox.MaxX, bbox.MaxY)
	return
}
