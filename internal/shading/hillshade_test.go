package shading

import (
	"image/color"
	"math"
	"testing"

	"github.com/freemapslovakia/lazdem/internal/raster"
)

func flatGrid(n int, z float64) *raster.Grid {
	g := raster.NewGrid(n, n)
	for i := range g.Data {
		g.Data[i] = z
	}
	return g
}

func TestShadeFlatGridIsUniform(t *testing.T) {
	grid := flatGrid(6, 100)
	layers, err := ParseShadings("oblique,ffffffff,315,45")
	if err != nil {
		t.Fatalf("ParseShadings: %v", err)
	}
	img, err := Shade(grid, 4, 1, Options{PixelSizeMeters: 1, ZFactor: 1}, layers)
	if err != nil {
		t.Fatalf("Shade: %v", err)
	}
	first := img.RGBAAt(0, 0)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if got := img.RGBAAt(x, y); got != first {
				t.Errorf("pixel (%d,%d) = %v, want uniform %v (flat terrain, no slope)", x, y, got, first)
			}
		}
	}
}

func TestShadeRejectsWrongGridSize(t *testing.T) {
	grid := flatGrid(4, 0)
	layers, _ := ParseShadings("igor,ffffffff,120")
	if _, err := Shade(grid, 4, 1, Options{PixelSizeMeters: 1, ZFactor: 1}, layers); err == nil {
		t.Fatal("expected size mismatch error")
	}
}

func TestShadeNaNPixelUsesBackground(t *testing.T) {
	grid := flatGrid(6, 100)
	grid.Set(3, 3, math.NaN())
	bg := color.RGBA{R: 1, G: 2, B: 3, A: 255}
	layers, _ := ParseShadings("igor,ffffffff,120")
	img, err := Shade(grid, 4, 1, Options{PixelSizeMeters: 1, ZFactor: 1, Background: bg}, layers)
	if err != nil {
		t.Fatalf("Shade: %v", err)
	}
	// grid (3,3) sits at image pixel (2,2); its 3x3 neighborhood includes
	// the NaN center so it must fall back to background.
	if got := img.RGBAAt(2, 2); got != bg {
		t.Errorf("pixel over NaN neighborhood = %v, want background %v", got, bg)
	}
}
