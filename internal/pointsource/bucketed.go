package pointsource

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/freemapslovakia/lazdem/internal/coord"
	"github.com/freemapslovakia/lazdem/internal/lasio"
	"github.com/freemapslovakia/lazdem/internal/tilestore"
)

// BucketedTileSource reads points from a database pre-sliced per unit
// tile by cmd/laztile. Points are already reprojected into Web Mercator
// at bucketing time, so proj is accepted only for interface symmetry with
// IndexedFileSource and is otherwise unused here.
type BucketedTileSource struct {
	DB          *tilestore.BucketDB
	Concurrency int
}

// FetchAll implements Source.
func (s *BucketedTileSource) FetchAll(ctx context.Context, metas []*TileMeta, _ coord.Projection, filter ClassifyFilter) error {
	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = 8
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, meta := range metas {
		meta := meta
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := s.fetchTile(meta, filter); err != nil {
				log.Printf("pointsource: skipping tile %s: %v", meta.Tile, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *BucketedTileSource) fetchTile(meta *TileMeta, filter ClassifyFilter) error {
	chunks, err := s.DB.ChunksFor(meta.Tile.X, meta.Tile.Y)
	if err != nil {
		return fmt.Errorf("reading chunks for tile %s: %w", meta.Tile, err)
	}
	for _, chunk := range chunks {
		points, err := lasio.Decode(bytes.NewReader(chunk))
		if err != nil {
			return fmt.Errorf("decoding chunk for tile %s: %w", meta.Tile, err)
		}
		for _, p := range points {
			if !filter.Keep(Classification(p.Classification)) {
				continue
			}
			meta.Bucket.Add(PointWithHeight{X: p.X, Y: p.Y, Z: p.Z})
		}
	}
	return nil
}
