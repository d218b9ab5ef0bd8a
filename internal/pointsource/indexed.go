package pointsource

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/freemapslovakia/lazdem/internal/coord"
	"github.com/freemapslovakia/lazdem/internal/lasio"
	"github.com/freemapslovakia/lazdem/internal/tilegeom"
	"github.com/freemapslovakia/lazdem/internal/tilestore"
)

// IndexedFileSource reads points from the LAZ/LAS files a laz_index
// database points at, reprojecting each point into Web Mercator and
// distributing it across every tile whose buffered bbox contains it.
type IndexedFileSource struct {
	Index       *tilestore.LazIndex
	Concurrency int // files read in parallel; 0 or less means 8
}

// FetchAll implements Source.
func (s *IndexedFileSource) FetchAll(ctx context.Context, metas []*TileMeta, proj coord.Projection, filter ClassifyFilter) error {
	if len(metas) == 0 {
		return nil
	}

	region := unionBBox(metas)
	sourceRegion := ReprojectBBoxPerimeter(proj, region, 11)

	files, err := s.Index.FilesOverlapping(sourceRegion.MinX, sourceRegion.MinY, sourceRegion.MaxX, sourceRegion.MaxY)
	if err != nil {
		return fmt.Errorf("pointsource: querying laz_index: %w", err)
	}
	log.Printf("pointsource: reading %d files", len(files))

	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = 8
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, file := range files {
		file := file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := s.readFile(file, metas, proj, filter, region, sourceRegion); err != nil {
				// A single unreadable file is a transient ingestion
				// error, not fatal to the whole run.
				log.Printf("pointsource: skipping %s: %v", file, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *IndexedFileSource) readFile(path string, metas []*TileMeta, proj coord.Projection, filter ClassifyFilter, region, sourceRegion tilegeom.BBox) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	points, err := lasio.Decode(f)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}

	for _, p := range points {
		if !filter.Keep(Classification(p.Classification)) {
			continue
		}
		// Quick reject in source CRS before paying for a reprojection:
		// sourceRegion is the perimeter-sampled bbox already used to pick
		// this file out of the laz_index, so most out-of-region points
		// fail here without ever calling sourceToMercator.
		if !sourceRegion.Contains(p.X, p.Y) {
			continue
		}
		mx, my := sourceToMercator(proj, p.X, p.Y)
		if !region.Contains(mx, my) {
			continue
		}
		distribute(metas, PointWithHeight{X: mx, Y: my, Z: p.Z})
	}
	return nil
}

// distribute appends pt to every tile whose buffered bbox contains it —
// a point near a unit-tile boundary lands in more than one bucket, which
// is what lets each tile's rasterizer see a consistent halo of its
// neighbors' points.
func distribute(metas []*TileMeta, pt PointWithHeight) {
	for _, m := range metas {
		if m.BufferedBBox.Contains(pt.X, pt.Y) {
			m.Bucket.Add(pt)
		}
	}
}

func unionBBox(metas []*TileMeta) tilegeom.BBox {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, m := range metas {
		b := m.BufferedBBox
		minX = math.Min(minX, b.MinX)
		minY = math.Min(minY, b.MinY)
		maxX = math.Max(maxX, b.MaxX)
		maxY = math.Max(maxY, b.MaxY)
	}
	return tilegeom.BBox{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}
