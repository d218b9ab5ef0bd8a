// Command laztile pre-buckets a directory of point cloud files into a
// sqlite database keyed by unit tile, so a production run can read each
// tile's points with one indexed query instead of re-scanning every
// source file on every run.
package main

import (
	"archive/zip"
	"context"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/freemapslovakia/lazdem/internal/coord"
	"github.com/freemapslovakia/lazdem/internal/lasio"
	"github.com/freemapslovakia/lazdem/internal/pointsource"
	"github.com/freemapslovakia/lazdem/internal/tilegeom"
	"github.com/freemapslovakia/lazdem/internal/tilestore"
)

func main() {
	var (
		directory        string
		database         string
		resume           bool
		sourceProjection string
		zoomLevel        int
		buffer           float64
		concurrency      int
		stopFile         string
	)
	flag.StringVar(&directory, "directory", "", "directory to walk for point cloud files (required)")
	flag.StringVar(&database, "database", "", "output bucket database path (required)")
	flag.BoolVar(&resume, "continue", false, "resume into an existing database, skipping already-processed files")
	flag.StringVar(&sourceProjection, "source-projection", "EPSG:3857", "source CRS of the input points")
	flag.IntVar(&zoomLevel, "zoom-level", 16, "unit tile zoom level to bucket points into")
	flag.Float64Var(&buffer, "buffer", 30.0, "halo distance in Web Mercator meters a point is duplicated across neighboring tiles for")
	flag.IntVar(&concurrency, "concurrency", 4, "source files read in parallel")
	flag.StringVar(&stopFile, "stop-file", "STOP", "if this file appears, finish in-flight files and exit without processing more")
	flag.Parse()

	if directory == "" || database == "" {
		fmt.Fprintln(os.Stderr, "usage: laztile --directory DIR --database FILE")
		os.Exit(2)
	}

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

	if err := run(directory, database, resume, srcProj, uint8(zoomLevel), buffer, concurrency, stopFile); err != nil {
		log.Fatalf("laztile: %v", err)
	}
}

func run(directory, database string, resume bool, proj coord.Projection, zoom uint8, buffer float64, concurrency int, stopFile string) error {
	var db *tilestore.BucketDB
	var err error
	if resume {
		db, err = tilestore.OpenBucketDB(database)
	} else {
		db, err = tilestore.CreateBucketDB(database)
	}
	if err != nil {
		return err
	}
	defer db.Close()

	var files []string
	err = filepath.WalkDir(directory, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".zip" || ext == ".las" || ext == ".laz" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	var dbMu sync.Mutex
	g, gctx := errgroup.WithContext(context.Background())
	g.SetLimit(max(concurrency, 1))

	var processed, skipped atomic.Int64
	for _, path := range files {
		if _, err := os.Stat(stopFile); err == nil {
			log.Printf("laztile: %s present, stopping before %s", stopFile, path)
			break
		}

		if resume {
			done, err := db.IsProcessed(path)
			if err != nil {
				return err
			}
			if done {
				continue
			}
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			buckets, err := bucketFile(path, proj, zoom, buffer)
			if err != nil {
				log.Printf("laztile: skipping %s: %v", path, err)
				skipped.Add(1)
				return nil
			}

			dbMu.Lock()
			defer dbMu.Unlock()
			for tile, points := range buckets {
				data := lasio.EncodeLAS(points)
				if err := db.InsertChunk(tile.X, tile.Y, data); err != nil {
					return err
				}
			}
			if err := db.MarkProcessed(path); err != nil {
				return err
			}
			processed.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Printf("laztile: processed %d files, skipped %d", processed.Load(), skipped.Load())
	return nil
}

// bucketFile reads one source file (a bare .las/.laz, or the first such
// member of a .zip) and groups its points by destination unit
// tile, duplicating a point into every tile within buffer meters of it.
func bucketFile(path string, proj coord.Projection, zoom uint8, buffer float64) (map[tilegeom.Tile][]lasio.RawPoint, error) {
	r, err := openMember(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	points, err := lasio.Decode(r)
	if err != nil {
		return nil, err
	}

	buckets := make(map[tilegeom.Tile][]lasio.RawPoint)
	for _, p := range points {
		mx, my := pointsource.SourceToMercator(proj, p.X, p.Y)
		for _, sx := range [2]float64{-1, 1} {
			for _, sy := range [2]float64{-1, 1} {
				t := tilegeom.TileContaining(mx+sx*buffer, my+sy*buffer, zoom)
				buckets[t] = append(buckets[t], lasio.RawPoint{X: mx, Y: my, Z: p.Z, Classification: p.Classification})
			}
		}
	}
	return dedupBucketPoints(buckets), nil
}

// dedupBucketPoints collapses the up-to-4 corner probes per point back
// down to one copy per distinct destination tile.
func dedupBucketPoints(buckets map[tilegeom.Tile][]lasio.RawPoint) map[tilegeom.Tile][]lasio.RawPoint {
	out := make(map[tilegeom.Tile][]lasio.RawPoint, len(buckets))
	for tile, pts := range buckets {
		seen := make(map[lasio.RawPoint]bool, len(pts))
		dedup := pts[:0:0]
		for _, p := range pts {
			if seen[p] {
				continue
			}
			seen[p] = true
			dedup = append(dedup, p)
		}
		out[tile] = dedup
	}
	return out
}

// openMember opens path directly if it is a bare .las/.laz file, or
// unwraps the first .las/.laz entry found inside it if path is a zip
// archive, mirroring how these point clouds are distributed on disk.
func openMember(path string) (io.ReadCloser, error) {
	if strings.ToLower(filepath.Ext(path)) != ".zip" {
		return os.Open(path)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening zip: %w", err)
	}
	for _, f := range zr.File {
		ext := strings.ToLower(filepath.Ext(f.Name))
		if ext != ".las" && ext != ".laz" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			zr.Close()
			return nil, fmt.Errorf("opening zip member %s: %w", f.Name, err)
		}
		return zipMemberReader{rc, zr}, nil
	}
	zr.Close()
	return nil, fmt.Errorf("no .las/.laz member found in zip")
}

// zipMemberReader closes both the member's reader and the archive it
// came from, so openMember's caller only has one Close to call.
type zipMemberReader struct {
	io.ReadCloser
	archive *zip.ReadCloser
}

func (z zipMemberReader) Close() error {
	memberErr := z.ReadCloser.Close()
	if err := z.archive.Close(); err != nil {
		return err
	}
	return memberErr
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
