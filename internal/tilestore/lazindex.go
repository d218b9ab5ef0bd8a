package tilestore

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// LazIndexEntry is one row of the laz_index table: a source file's
// bounding box in source-projection coordinates.
type LazIndexEntry struct {
	MinX, MaxX, MinY, MaxY float64
	File                   string
}

// LazIndex wraps a laz_index database, which cmd/lazindex creates and fills
// and production runs query: a bounding-box spatial index over a directory
// of point cloud files.
type LazIndex struct {
	db *sql.DB
}

// CreateLazIndex creates a fresh laz_index database at path. It fails if a
// file already exists there.
func CreateLazIndex(path string) (*LazIndex, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("tilestore: opening %s: %w", path, err)
	}
	if _, err := db.Exec(`
		CREATE TABLE laz_index (min_x NUMBER, max_x NUMBER, min_y NUMBER, max_y NUMBER, file VARCHAR)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("tilestore: creating laz_index schema: %w", err)
	}
	return &LazIndex{db: db}, nil
}

// OpenLazIndex opens an existing laz_index database for querying.
func OpenLazIndex(path string) (*LazIndex, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("tilestore: opening %s: %w", path, err)
	}
	return &LazIndex{db: db}, nil
}

// Close closes the underlying database handle.
func (idx *LazIndex) Close() error { return idx.db.Close() }

// Insert adds one file's bounding box to the index.
func (idx *LazIndex) Insert(e LazIndexEntry) error {
	_, err := idx.db.Exec(
		`INSERT INTO laz_index (min_x, max_x, min_y, max_y, file) VALUES (?, ?, ?, ?, ?)`,
		e.MinX, e.MaxX, e.MinY, e.MaxY, e.File,
	)
	if err != nil {
		return fmt.Errorf("tilestore: inserting laz_index row for %s: %w", e.File, err)
	}
	return nil
}

// Finalize builds the indexes a freshly populated laz_index needs for fast
// range queries; call once after all Insert calls complete.
func (idx *LazIndex) Finalize() error {
	stmts := []string{
		`CREATE UNIQUE INDEX laz_file_unique ON laz_index (file)`,
		`CREATE INDEX laz_min_x_index ON laz_index (min_x)`,
		`CREATE INDEX laz_max_x_index ON laz_index (max_x)`,
		`CREATE INDEX laz_min_y_index ON laz_index (min_y)`,
		`CREATE INDEX laz_max_y_index ON laz_index (max_y)`,
	}
	for _, s := range stmts {
		if _, err := idx.db.Exec(s); err != nil {
			return fmt.Errorf("tilestore: finalizing laz_index: %w", err)
		}
	}
	return nil
}

// FilesOverlapping returns the files whose indexed bounding box intersects
// the given rectangle (in the same coordinate system the index was built
// with — typically the source point clouds' native CRS).
func (idx *LazIndex) FilesOverlapping(minX, minY, maxX, maxY float64) ([]string, error) {
	rows, err := idx.db.Query(`
		SELECT file FROM laz_index
		WHERE max_x >= ? AND min_x <= ? AND max_y >= ? AND min_y <= ?
	`, minX, maxX, minY, maxY)
	if err != nil {
		return nil, fmt.Errorf("tilestore: querying laz_index: %w", err)
	}
	defer rows.Close()

	var files []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("tilestore: scanning laz_index row: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}
