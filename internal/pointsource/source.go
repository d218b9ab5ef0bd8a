package pointsource

import (
	"context"

	"github.com/freemapslovakia/lazdem/internal/coord"
)

// Source fills every TileMeta's bucket with the points that fall inside
// its buffered bbox. Implementations decide how to find candidate points
// (scanning indexed files vs. looking up pre-bucketed chunks) but share
// the same bulk, all-tiles-at-once shape: a single ingestion pass is
// naturally structured around "for each file/chunk, distribute its points
// across every tile whose bbox contains them", not "for each tile, fetch
// its points" — the former reads each source file once no matter how many
// tiles it overlaps.
type Source interface {
	FetchAll(ctx context.Context, metas []*TileMeta, proj coord.Projection, filter ClassifyFilter) error
}
