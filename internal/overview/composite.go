package overview

import (
	"math"

	"github.com/freemapslovakia/lazdem/internal/raster"
)

// ChildGrids holds one parent tile's 4x4 bordered-children grid of
// already-rasterized grids, row-major as returned by
// tilegeom.Tile.ChildrenBuffered(1). A nil entry means that child tile has
// no payload (either outside the pyramid, or genuinely missing/empty).
type ChildGrids [16]*raster.Grid

// interiorMissing reports whether one of the four true children (grid
// positions (1,1),(2,1),(1,2),(2,2) in the 4x4 layout) has no payload.
func (g ChildGrids) interiorMissing() bool {
	for _, pos := range [][2]int{{1, 1}, {2, 1}, {1, 2}, {2, 2}} {
		if g.at(pos[0], pos[1]) == nil {
			return true
		}
	}
	return false
}

func (g ChildGrids) at(col, row int) *raster.Grid {
	return g[row*4+col]
}

// composite assembles the 4x4 bordered-children grid into one
// 2*(tileSize+2*halo) square grid, per the c=0..3 axis mapping: c=0/c=3 are
// the outer neighbors, each contributing the 2*halo interior columns/rows
// nearest the parent, and c=1/c=2 are the two true children, each
// contributing its tileSize interior columns/rows.
func composite(g ChildGrids, tileSize, halo int) *raster.Grid {
	childSize := tileSize + 2*halo
	strip := 2 * halo
	out := raster.NewGrid(2*childSize, 2*childSize)

	// colSpan/rowSpan return the [lo,hi) slice of a child's own grid that
	// contributes, and the [lo,hi) slice of the composite it lands in.
	colSpan := func(c int) (srcLo, srcHi, dstLo, dstHi int) {
		switch c {
		case 0:
			return tileSize - halo, tileSize + halo, 0, strip
		case 1:
			return halo, tileSize + halo, strip, strip + tileSize
		case 2:
			return halo, tileSize + halo, strip + tileSize, strip + 2*tileSize
		default: // 3
			return halo, halo + strip, strip + 2*tileSize, 2 * childSize
		}
	}

	for cr := 0; cr < 4; cr++ {
		srcRowLo, srcRowHi, dstRowLo, _ := colSpan(cr)
		for cc := 0; cc < 4; cc++ {
			srcColLo, srcColHi, dstColLo, _ := colSpan(cc)
			child := g.at(cc, cr)
			for sr := srcRowLo; sr < srcRowHi; sr++ {
				dr := dstRowLo + (sr - srcRowLo)
				for sc := srcColLo; sc < srcColHi; sc++ {
					dc := dstColLo + (sc - srcColLo)
					if child == nil {
						out.Set(dc, dr, math.NaN())
						continue
					}
					out.Set(dc, dr, child.At(sc, sr))
				}
			}
		}
	}
	return out
}
