package overview

import "github.com/freemapslovakia/lazdem/internal/raster"

// BuildOverview assembles a parent tile's grid from its 4x4
// bordered-children grid. The second return is true when the parent has no
// payload: one of its four true children is missing, so there is nothing
// meaningful to downsample into it. A missing outer halo neighbor is not
// fatal — that region is filled with NaN in the composite and simply
// propagates as missing data into the resized result.
func BuildOverview(children ChildGrids, tileSize, halo int) (*raster.Grid, bool) {
	if children.interiorMissing() {
		return nil, true
	}
	comp := composite(children, tileSize, halo)
	return resample2D(comp, tileSize+2*halo, tileSize+2*halo), false
}

// ResampleGrid exposes the separable Lanczos-3 resize for callers outside
// this package that need to downsample a raster grid to a given pixel size
// without going through the bordered-children composite, such as collapsing
// a supertile unit-tile rasterization down to single-tile resolution before
// it enters the overview cache.
func ResampleGrid(src *raster.Grid, dstCols, dstRows int) *raster.Grid {
	return resample2D(src, dstCols, dstRows)
}

// resample2D applies the separable Lanczos-3 filter first along rows, then
// along columns.
func resample2D(src *raster.Grid, dstCols, dstRows int) *raster.Grid {
	rowResized := raster.NewGrid(dstCols, src.Rows)
	rowBuf := make([]float64, src.Cols)
	for r := 0; r < src.Rows; r++ {
		for c := 0; c < src.Cols; c++ {
			rowBuf[c] = src.At(c, r)
		}
		out := resample1D(rowBuf, dstCols)
		for c := 0; c < dstCols; c++ {
			rowResized.Set(c, r, out[c])
		}
	}

	dst := raster.NewGrid(dstCols, dstRows)
	colBuf := make([]float64, src.Rows)
	for c := 0; c < dstCols; c++ {
		for r := 0; r < src.Rows; r++ {
			colBuf[r] = rowResized.At(c, r)
		}
		out := resample1D(colBuf, dstRows)
		for r := 0; r < dstRows; r++ {
			dst.Set(c, r, out[r])
		}
	}
	return dst
}
