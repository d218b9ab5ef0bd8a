package coord

import (
	"math"
	"testing"

	"github.com/freemapslovakia/lazdem/internal/tilegeom"
)

func TestWebMercatorRoundTrip(t *testing.T) {
	proj := &WebMercatorProj{}
	cases := []struct{ lon, lat float64 }{
		{0, 0}, {8.5417, 47.3769}, {-74.0060, 40.7128}, {139.6917, 35.6895},
	}
	for _, c := range cases {
		x, y := proj.FromWGS84(c.lon, c.lat)
		lon, lat := proj.ToWGS84(x, y)
		if math.Abs(lon-c.lon) > 1e-6 || math.Abs(lat-c.lat) > 1e-6 {
			t.Errorf("round trip (%v,%v) -> (%v,%v) -> (%v,%v)", c.lon, c.lat, x, y, lon, lat)
		}
	}
}

func TestWebMercatorEPSG(t *testing.T) {
	if (&WebMercatorProj{}).EPSG() != 3857 {
		t.Error("expected EPSG 3857")
	}
}

func TestLonLatBounds(t *testing.T) {
	bbox := tilegeom.BBox{MinX: -OriginShift, MinY: -OriginShift, MaxX: OriginShift, MaxY: OriginShift}
	minLon, minLat, maxLon, maxLat := LonLatBounds(bbox)
	if math.Abs(minLon-(-180)) > 1e-6 || math.Abs(maxLon-180) > 1e-6 {
		t.Errorf("lon bounds = (%v,%v), want (-180,180)", minLon, maxLon)
	}
	if minLat > -85.0 || maxLat < 85.0 {
		t.Errorf("lat bounds = (%v,%v), want ~(-85.05,85.05)", minLat, maxLat)
	}
}
