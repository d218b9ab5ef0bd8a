// Command lazdem converts a collection of LiDAR point sources into a
// pyramidal Web-Mercator tileset: either raw elevation (DEM) tiles or
// pre-shaded hillshade images, stored in a single sqlite container.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/freemapslovakia/lazdem/internal/coord"
	"github.com/freemapslovakia/lazdem/internal/overview"
	"github.com/freemapslovakia/lazdem/internal/payload"
	"github.com/freemapslovakia/lazdem/internal/pipeline"
	"github.com/freemapslovakia/lazdem/internal/pointsource"
	"github.com/freemapslovakia/lazdem/internal/progress"
	"github.com/freemapslovakia/lazdem/internal/raster"
	"github.com/freemapslovakia/lazdem/internal/shading"
	"github.com/freemapslovakia/lazdem/internal/tilegeom"
	"github.com/freemapslovakia/lazdem/internal/tilestore"
)

// overlapHalo is the fixed per-tile payload halo (distinct from --buffer,
// the much larger ingestion halo): just enough for a 3x3 slope/aspect
// stencil at a tile's edge and for overview seams to agree exactly.
const overlapHalo = 2

func main() {
	var (
		bboxStr            string
		zoomLevel          int
		unitZoomLevel      int
		tileSize           int
		bufferPx           int
		lazTileDB          string
		lazIndexDB         string
		sourceProjection   string
		existingFileAction string
		lruSize            int
		shadingsSpec       string
		zFactor            float64
		format             string
		jpegQuality        int
		backgroundColor    string
		skipLowVegetation  bool
		concurrency        int
		writeBuffer        int
		pauseFile          string
		verbose            bool
	)

	flag.StringVar(&bboxStr, "bbox", "", "Web-Mercator extent \"min_x,min_y,max_x,max_y\" (required)")
	flag.IntVar(&zoomLevel, "zoom-level", -1, "Maximum (finest) output zoom (required)")
	flag.IntVar(&unitZoomLevel, "unit-zoom-level", 16, "Zoom at which point ingestion is partitioned")
	flag.IntVar(&tileSize, "tile-size", 256, "Pixels per side of an output tile")
	flag.IntVar(&bufferPx, "buffer", 40, "Unit-tile halo in pixels used during ingestion to avoid interpolation artifacts at tile borders")
	flag.StringVar(&lazTileDB, "laz-tile-db", "", "Pre-bucketed point tile database (xor --laz-index-db)")
	flag.StringVar(&lazIndexDB, "laz-index-db", "", "laz_index spatial file index (xor --laz-tile-db)")
	flag.StringVar(&sourceProjection, "source-projection", "EPSG:3857", "Source CRS of the input points")
	flag.StringVar(&existingFileAction, "existing-file-action", "", "Required when output exists: overwrite or continue")
	flag.IntVar(&lruSize, "lru-size", 4096, "Capacity, in tiles, of the overview grid cache")
	flag.StringVar(&shadingsSpec, "shadings", "", "Hillshade layer spec, e.g. \"igor,ffffffff,315\"; empty means raw DEM output")
	flag.Float64Var(&zFactor, "z-factor", 1, "Vertical exaggeration applied before shading")
	flag.StringVar(&format, "format", "jpeg", "Shaded tile format: jpeg, png, or webp (ignored for DEM output)")
	flag.IntVar(&jpegQuality, "jpeg-quality", 85, "JPEG/WebP quality 1-100")
	flag.StringVar(&backgroundColor, "background-color", "ffffff", "Background RRGGBB composited under shaded layers")
	flag.BoolVar(&skipLowVegetation, "skip-low-vegetation", false, "Also drop low-vegetation classified points")
	flag.IntVar(&concurrency, "concurrency", runtime.NumCPU(), "Number of parallel rasterize/overview workers")
	flag.IntVar(&writeBuffer, "write-buffer", 256, "Buffered channel depth between workers and the writer goroutine")
	flag.StringVar(&pauseFile, "pause-file", "", "Workers pause between jobs while this sentinel file exists")
	flag.BoolVar(&verbose, "verbose", false, "Verbose progress output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: lazdem [flags] <output.sqlite>\n\n")
		fmt.Fprintf(os.Stderr, "Produce a pyramidal Web-Mercator DEM/hillshade tileset from LiDAR points.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if bboxStr == "" || zoomLevel < 0 {
		flag.Usage()
		os.Exit(1)
	}
	if (lazTileDB == "") == (lazIndexDB == "") {
		log.Fatal("exactly one of --laz-tile-db or --laz-index-db is required")
	}
	args := flag.Args()
	if len(args) != 1 {
		flag.Usage()
		os.Exit(1)
	}
	outputPath := args[0]

	bbox, err := parseBBox(bboxStr)
	if err != nil {
		log.Fatalf("bbox: %v", err)
	}
	if unitZoomLevel > zoomLevel {
		log.Fatalf("--unit-zoom-level (%d) cannot exceed --zoom-level (%d)", unitZoomLevel, zoomLevel)
	}
	supertileOffset := zoomLevel - unitZoomLevel

	epsg, err := parseEPSG(sourceProjection)
	if err != nil {
		log.Fatalf("source-projection: %v", err)
	}
	var srcProj coord.Projection
	if epsg != 3857 {
		srcProj = coord.ForEPSG(epsg)
		if srcProj == nil {
			log.Fatalf("source-projection: EPSG:%d is not supported", epsg)
		}
	}

	shaded := shadingsSpec != ""
	var shadingLayers shading.Shadings
	var imgEncoder *payload.ImageEncoder
	var bgColor color.RGBA
	if shaded {
		shadingLayers, err = shading.ParseShadings(shadingsSpec)
		if err != nil {
			log.Fatalf("shadings: %v", err)
		}
		imgEncoder, err = payload.NewImageEncoder(format, jpegQuality)
		if err != nil {
			log.Fatalf("format: %v", err)
		}
		bgColor, err = parseRGB(backgroundColor)
		if err != nil {
			log.Fatalf("background-color: %v", err)
		}
	}

	switch existingFileAction {
	case "overwrite":
		if err := os.Remove(outputPath); err != nil && !os.IsNotExist(err) {
			log.Fatalf("removing existing output: %v", err)
		}
	case "continue":
		// Resume handled below via the container's own HasTile check.
	case "":
		if _, err := os.Stat(outputPath); err == nil {
			log.Fatalf("%s already exists; pass --existing-file-action overwrite or continue", outputPath)
		}
	default:
		log.Fatalf("--existing-file-action must be overwrite or continue, got %q", existingFileAction)
	}

	container, err := tilestore.OpenContainer(outputPath)
	if err != nil {
		log.Fatalf("opening output container: %v", err)
	}
	defer container.Close()

	outFormat := "demf32zstd"
	if shaded {
		outFormat = string(imgEncoder.Format)
	}
	minLon, minLat, maxLon, maxLat := coord.LonLatBounds(bbox)
	for _, kv := range [][2]string{
		{"format", outFormat},
		{"minzoom", "0"},
		{"maxzoom", strconv.Itoa(zoomLevel)},
		{"bounds", fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", minLon, minLat, maxLon, maxLat)},
	} {
		if err := container.SetMetadata(kv[0], kv[1]); err != nil {
			log.Fatalf("%v", err)
		}
	}

	unitTiles := tilegeom.BBoxCoveredTiles(bbox, uint8(unitZoomLevel))
	if len(unitTiles) == 0 {
		log.Fatal("bbox covers no tiles at --unit-zoom-level")
	}
	log.Printf("lazdem: %d unit tile(s) at zoom %d, output zoom %d (supertile offset %d)",
		len(unitTiles), unitZoomLevel, zoomLevel, supertileOffset)

	ppm := float64(tileSize) / tileEdgeMeters(uint8(zoomLevel))
	bufferMeters := float64(bufferPx) / ppm

	metaByTile := make(map[tilegeom.Tile]*pointsource.TileMeta, len(unitTiles))
	metas := make([]*pointsource.TileMeta, 0, len(unitTiles))
	for _, t := range unitTiles {
		m := pointsource.NewTileMeta(t, tileSize, bufferMeters)
		metaByTile[t] = m
		metas = append(metas, m)
	}

	var source pointsource.Source
	if lazTileDB != "" {
		db, err := tilestore.OpenBucketDB(lazTileDB)
		if err != nil {
			log.Fatalf("opening --laz-tile-db: %v", err)
		}
		defer db.Close()
		source = &pointsource.BucketedTileSource{Concurrency: concurrency, DB: db}
	} else {
		idx, err := tilestore.OpenLazIndex(lazIndexDB)
		if err != nil {
			log.Fatalf("opening --laz-index-db: %v", err)
		}
		defer idx.Close()
		source = &pointsource.IndexedFileSource{Concurrency: concurrency, Index: idx}
	}

	filter := pointsource.ClassifyFilter{SkipLowVegetation: skipLowVegetation}
	ctx := context.Background()
	ingestStart := time.Now()
	if err := source.FetchAll(ctx, metas, srcProj, filter); err != nil {
		log.Fatalf("ingesting points: %v", err)
	}
	if verbose {
		log.Printf("lazdem: ingested points for %d unit tile(s) in %v", len(metas), time.Since(ingestStart).Round(time.Millisecond))
	}

	tracker := progress.NewTracker(unitTiles)
	cache := pipeline.NewGridCache(lruSize)
	reporter := progress.NewReporter(tracker, time.Now())

	params := raster.Params{
		PixelsPerMeter:  ppm,
		TileSize:        tileSize,
		OverlapHalo:     overlapHalo,
		BufferPx:        bufferPx,
		SupertileOffset: supertileOffset,
	}
	shadeOpt := shading.Options{
		PixelSizeMeters: 1 / ppm,
		ZFactor:         zFactor,
		Background:      bgColor,
	}

	encodeGrid := func(grid *raster.Grid) ([]byte, error) {
		if !shaded {
			return payload.EncodeDEM(grid)
		}
		img, err := shading.Shade(grid, tileSize, overlapHalo, shadeOpt, shadingLayers)
		if err != nil {
			return nil, err
		}
		return imgEncoder.Encode(img)
	}

	warnedLossyChild := false

	process := func(ctx context.Context, job progress.Job) ([]pipeline.Record, error) {
		switch job.Kind {
		case progress.Rasterize:
			meta := metaByTile[job.Tile]
			slices, unitCrop, empty, err := raster.Rasterize(meta, params)
			if err != nil {
				return nil, fmt.Errorf("rasterizing %s: %w", job.Tile, err)
			}
			if empty {
				return nil, nil
			}

			unitGrid := unitCrop
			if supertileOffset > 0 {
				unitGrid = overview.ResampleGrid(unitCrop, tileSize+2*overlapHalo, tileSize+2*overlapHalo)
			}
			cache.Put(job.Tile, unitGrid)

			records := make([]pipeline.Record, 0, len(slices))
			for _, s := range slices {
				data, err := encodeGrid(s.Grid)
				if err != nil {
					log.Printf("lazdem: encoding tile %s: %v", s.Tile, err)
					continue
				}
				records = append(records, pipeline.Record{Tile: s.Tile, Data: data})
			}
			return records, nil

		case progress.Overview:
			var children overview.ChildGrids
			for i, bt := range job.Tile.ChildrenBuffered(1) {
				if bt.Outside {
					continue
				}
				if g, ok := cache.Get(bt.Tile); ok {
					children[i] = g
					continue
				}
				// Cache miss: fall back to the container, which only
				// holds a reconstructable elevation grid in DEM mode.
				// In shaded mode the stored payload is already a
				// rendered image and cannot feed the overview chain, so
				// a miss there is treated like a genuinely missing child.
				if shaded {
					if !warnedLossyChild {
						log.Printf("lazdem: grid cache miss for %s in shaded mode; increase --lru-size to avoid losing overview context", bt.Tile)
						warnedLossyChild = true
					}
					continue
				}
				data, present, err := container.GetTile(bt.Tile)
				if err != nil {
					return nil, fmt.Errorf("reading cached child %s: %w", bt.Tile, err)
				}
				if !present {
					continue
				}
				grid, err := payload.DecodeDEM(data)
				if err != nil {
					return nil, fmt.Errorf("decoding cached child %s: %w", bt.Tile, err)
				}
				children[i] = grid
			}

			grid, empty := overview.BuildOverview(children, tileSize, overlapHalo)
			if empty {
				return nil, nil
			}
			cache.Put(job.Tile, grid)

			data, err := encodeGrid(grid)
			if err != nil {
				return nil, fmt.Errorf("encoding overview %s: %w", job.Tile, err)
			}
			return []pipeline.Record{{Tile: job.Tile, Data: data}}, nil
		}
		return nil, fmt.Errorf("lazdem: unknown job kind for tile %s", job.Tile)
	}

	var throttle pipeline.ThrottleFunc
	if pauseFile != "" {
		throttle = func() bool {
			_, err := os.Stat(pauseFile)
			return err == nil
		}
	}

	stopReporting := make(chan struct{})
	reportingDone := make(chan struct{})
	go func() {
		defer close(reportingDone)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				reporter.Tick(time.Now())
			case <-stopReporting:
				return
			}
		}
	}()

	runStart := time.Now()
	runErr := pipeline.Run(ctx, tracker, concurrency, writeBuffer, process, containerWriter{container}, container, throttle)
	close(stopReporting)
	<-reportingDone
	if runErr != nil {
		log.Fatalf("pipeline: %v", runErr)
	}

	_, _, _, finished := tracker.Counts()
	fi, statErr := os.Stat(outputPath)
	var size string
	if statErr == nil {
		size = humanize.Bytes(uint64(fi.Size()))
	} else {
		size = "unknown size"
	}
	fmt.Printf("Done: %s tiles produced, %s, %v -> %s\n",
		humanize.Comma(int64(finished)), size, time.Since(runStart).Round(time.Millisecond), outputPath)
}

// containerWriter adapts *tilestore.Container to pipeline.Writer.
type containerWriter struct {
	c *tilestore.Container
}

func (w containerWriter) Write(r pipeline.Record) error {
	return w.c.PutTile(r.Tile, r.Data)
}

// tileEdgeMeters returns the Web-Mercator edge length of a tile at zoom.
func tileEdgeMeters(zoom uint8) float64 {
	return tilegeom.Tile{Zoom: zoom}.Bounds(0).Width()
}

func parseBBox(s string) (tilegeom.BBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return tilegeom.BBox{}, fmt.Errorf("expected \"min_x,min_y,max_x,max_y\", got %q", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return tilegeom.BBox{}, fmt.Errorf("invalid number %q: %w", p, err)
		}
		v[i] = f
	}
	return tilegeom.NewBBox(v[0], v[1], v[2], v[3])
}

func parseEPSG(s string) (int, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.ToUpper(s), "EPSG:")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("expected \"EPSG:xxxx\", got %q", s)
	}
	return n, nil
}

func parseRGB(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("expected RRGGBB, got %q", s)
	}
	r, err1 := strconv.ParseUint(s[0:2], 16, 8)
	g, err2 := strconv.ParseUint(s[2:4], 16, 8)
	b, err3 := strconv.ParseUint(s[4:6], 16, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 255}, nil
}
