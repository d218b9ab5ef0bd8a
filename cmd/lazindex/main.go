// Command lazindex walks a directory of point cloud files and records each
// file's bounding box in a sqlite database, so lazdem's indexed point
// source can find which files overlap a given tile without opening every
// file on every run.
package main

import (
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/freemapslovakia/lazdem/internal/lasio"
	"github.com/freemapslovakia/lazdem/internal/tilestore"
)

func main() {
	var directory, database string
	flag.StringVar(&directory, "directory", "", "directory to walk for .las/.laz files (required)")
	flag.StringVar(&database, "database", "", "output laz_index database path (required, must not exist)")
	flag.Parse()

	if directory == "" || database == "" {
		fmt.Fprintln(os.Stderr, "usage: lazindex --directory DIR --database FILE")
		os.Exit(2)
	}

	if err := run(directory, database); err != nil {
		log.Fatalf("lazindex: %v", err)
	}
}

func run(directory, database string) error {
	idx, err := tilestore.CreateLazIndex(database)
	if err != nil {
		return err
	}
	defer idx.Close()

	indexed, skipped := 0, 0
	err = filepath.WalkDir(directory, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".las" && ext != ".laz" {
			return nil
		}

		minX, minY, maxX, maxY, err := boundsOf(path)
		if err != nil {
			log.Printf("lazindex: skipping %s: %v", path, err)
			skipped++
			return nil
		}
		if err := idx.Insert(tilestore.LazIndexEntry{
			MinX: minX, MaxX: maxX, MinY: minY, MaxY: maxY, File: path,
		}); err != nil {
			return err
		}
		indexed++
		return nil
	})
	if err != nil {
		return err
	}

	if err := idx.Finalize(); err != nil {
		return err
	}
	log.Printf("lazindex: indexed %d files, skipped %d", indexed, skipped)
	return nil
}

func boundsOf(path string) (minX, minY, maxX, maxY float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	defer f.Close()
	return lasio.Bounds(f)
}
