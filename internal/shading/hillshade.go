package shading

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/freemapslovakia/lazdem/internal/raster"
)

// Options configures a Shade call.
type Options struct {
	PixelSizeMeters float64
	ZFactor         float64 // vertical exaggeration, 1.0 = none
	Background      color.RGBA
}

// Shade composites the given layers over an elevation grid and returns a
// tileSize x tileSize image. grid must carry a halo of at least one pixel
// on every side beyond tileSize (i.e. (tileSize+2*halo)^2) so slope/aspect
// can be computed at the tile's edges with a proper 3x3 neighborhood; the
// halo ring itself is not part of the returned image.
func Shade(grid *raster.Grid, tileSize, halo int, opt Options, layers Shadings) (*image.RGBA, error) {
	if halo < 1 {
		return nil, fmt.Errorf("shading: halo must be >= 1, got %d", halo)
	}
	if grid.Cols != tileSize+2*halo || grid.Rows != tileSize+2*halo {
		return nil, fmt.Errorf("shading: grid is %dx%d, want %dx%d", grid.Cols, grid.Rows, tileSize+2*halo, tileSize+2*halo)
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("shading: no layers given")
	}

	img := image.NewRGBA(image.Rect(0, 0, tileSize, tileSize))
	for row := 0; row < tileSize; row++ {
		for col := 0; col < tileSize; col++ {
			gc, gr := col+halo, row+halo
			out := opt.Background
			if !allFinite(grid, gc, gr) {
				img.SetRGBA(col, row, out)
				continue
			}
			slope, aspect := aspectSlope(grid, gc, gr, opt.PixelSizeMeters, opt.ZFactor)
			for _, layer := range layers {
				intensity := layer.Method.intensity(slope, aspect)
				out = blend(out, layer.Color, intensity)
			}
			img.SetRGBA(col, row, out)
		}
	}
	return img, nil
}

// allFinite reports whether the 3x3 neighborhood of (c, r) is free of NaN,
// i.e. a slope/aspect can be computed there.
func allFinite(g *raster.Grid, c, r int) bool {
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if math.IsNaN(g.At(c+dc, r+dr)) {
				return false
			}
		}
	}
	return true
}

// aspectSlope computes slope (radians from horizontal) and aspect (radians
// clockwise from north) at (c, r) via Horn's 3x3 method.
func aspectSlope(g *raster.Grid, c, r int, pixelSize, zFactor float64) (slope, aspect float64) {
	z1 := g.At(c-1, r-1)
	z2 := g.At(c, r-1)
	z3 := g.At(c+1, r-1)
	z4 := g.At(c-1, r)
	z6 := g.At(c+1, r)
	z7 := g.At(c-1, r+1)
	z8 := g.At(c, r+1)
	z9 := g.At(c+1, r+1)

	dzdx := ((z3 + 2*z6 + z9) - (z1 + 2*z4 + z7)) / (8 * pixelSize) * zFactor
	dzdy := ((z7 + 2*z8 + z9) - (z1 + 2*z2 + z3)) / (8 * pixelSize) * zFactor

	slope = math.Atan(math.Hypot(dzdx, dzdy))
	aspect = math.Atan2(dzdy, -dzdx)
	if aspect < 0 {
		aspect += 2 * math.Pi
	}
	return slope, aspect
}

// intensity returns a [0,1] shading weight for the given slope/aspect
// under this method's parameters.
func (m Method) intensity(slope, aspect float64) float64 {
	switch m.Kind {
	case Igor:
		// Soft, azimuth-biased slope shading with no true sun angle — the
		// style used by igor-hillshades-style maps. Steeper slopes facing
		// away from the azimuth darken; the rest stay close to neutral.
		az := toRadians(m.Azimuth)
		facing := math.Cos(aspect - az)
		return clamp01(0.5 - 0.5*facing*math.Sin(slope))
	case Oblique:
		az := toRadians(m.Azimuth)
		alt := toRadians(m.Altitude)
		cosZenith := math.Sin(alt)
		sinZenith := math.Cos(alt)
		v := cosZenith*math.Cos(slope) + sinZenith*math.Sin(slope)*math.Cos(az-aspect)
		return clamp01(v)
	case Slope:
		alt := toRadians(m.Altitude)
		// Pure steepness visualization: flat ground is fully lit, ground
		// steeper than the altitude threshold is fully shaded.
		return clamp01(1 - slope/alt)
	default:
		return 0
	}
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// blend alpha-composites c over bg, scaling c's own alpha by intensity.
func blend(bg, c color.RGBA, intensity float64) color.RGBA {
	a := (float64(c.A) / 255) * intensity
	if a <= 0 {
		return bg
	}
	if a > 1 {
		a = 1
	}
	mix := func(b, f uint8) uint8 {
		return uint8(float64(f)*a + float64(b)*(1-a))
	}
	return color.RGBA{
		R: mix(bg.R, c.R),
		G: mix(bg.G, c.G),
		B: mix(bg.B, c.B),
		A: 255,
	}
}
