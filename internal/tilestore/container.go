// Package tilestore wraps the sqlite containers this system reads and
// writes: the output tile container, the input laz_index, and the input
// pre-bucketed point tile database.
package tilestore

import (
	"database/sql"
	"fmt"
	"log"

	_ "modernc.org/sqlite"

	"github.com/freemapslovakia/lazdem/internal/tilegeom"
)

// Container is the output sqlite database: a metadata key/value table
// plus a tiles table addressed by (zoom, column, TMS row).
type Container struct {
	db *sql.DB
}

// OpenContainer opens (creating if necessary) the output container at
// path, applies the pragmas appropriate for a single-writer bulk-insert
// workload, and ensures its schema exists.
func OpenContainer(path string) (*Container, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("tilestore: opening %s: %w", path, err)
	}
	if _, err := db.Exec(`PRAGMA synchronous=OFF; PRAGMA journal_mode=WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("tilestore: setting pragmas: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			name  TEXT NOT NULL,
			value TEXT NOT NULL,
			UNIQUE(name)
		);
		CREATE TABLE IF NOT EXISTS tiles (
			zoom_level  INTEGER NOT NULL,
			tile_column INTEGER NOT NULL,
			tile_row    INTEGER NOT NULL,
			tile_data   BLOB NOT NULL
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_tiles
			ON tiles (zoom_level, tile_column, tile_row);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("tilestore: creating schema: %w", err)
	}
	return &Container{db: db}, nil
}

// Close closes the underlying database handle.
func (c *Container) Close() error { return c.db.Close() }

// SetMetadata upserts a metadata key.
func (c *Container) SetMetadata(name, value string) error {
	_, err := c.db.Exec(`
		INSERT INTO metadata (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value
	`, name, value)
	if err != nil {
		return fmt.Errorf("tilestore: setting metadata %s: %w", name, err)
	}
	return nil
}

// Metadata reads a single metadata value.
func (c *Container) Metadata(name string) (string, bool, error) {
	var value string
	err := c.db.QueryRow(`SELECT value FROM metadata WHERE name = ?`, name).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("tilestore: reading metadata %s: %w", name, err)
	}
	return value, true, nil
}

// PutTile inserts a tile's payload, addressed by TMS row. A duplicate
// insert for a tile already present is treated as benign, not an error —
// the existing row is left untouched and the duplicate is logged.
func (c *Container) PutTile(tile tilegeom.Tile, data []byte) error {
	row := tile.ReversedY()
	res, err := c.db.Exec(`
		INSERT INTO tiles (zoom_level, tile_column, tile_row, tile_data)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(zoom_level, tile_column, tile_row) DO NOTHING
	`, tile.Zoom, tile.X, row, data)
	if err != nil {
		return fmt.Errorf("tilestore: writing tile %s: %w", tile, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		log.Printf("tilestore: tile %s already present, keeping the stored copy", tile)
	}
	return nil
}

// HasTile reports whether a tile's payload is already present, for
// resume-on-restart skip checks.
func (c *Container) HasTile(tile tilegeom.Tile) (bool, error) {
	row := tile.ReversedY()
	var n int
	err := c.db.QueryRow(`
		SELECT 1 FROM tiles WHERE zoom_level = ? AND tile_column = ? AND tile_row = ? LIMIT 1
	`, tile.Zoom, tile.X, row).Scan(&n)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("tilestore: checking tile %s: %w", tile, err)
	}
	return true, nil
}

// GetTile reads a tile's payload back, or ok=false if absent.
func (c *Container) GetTile(tile tilegeom.Tile) (data []byte, ok bool, err error) {
	row := tile.ReversedY()
	err = c.db.QueryRow(`
		SELECT tile_data FROM tiles WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?
	`, tile.Zoom, tile.X, row).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("tilestore: reading tile %s: %w", tile, err)
	}
	return data, true, nil
}
