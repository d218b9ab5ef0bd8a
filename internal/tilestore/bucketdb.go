package tilestore

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// BucketRow is one pre-bucketed chunk of point data for a single tile.
type BucketRow struct {
	X, Y uint32
	Data []byte
}

// BucketDB is a pre-bucketed point tile database, as produced by
// cmd/laztile: point cloud files are read once, split into per-tile
// chunks, and written here so a production run can read each tile's
// points with a single indexed query instead of re-scanning source files.
type BucketDB struct {
	db *sql.DB
}

// CreateBucketDB creates a fresh bucket database at path. It fails if a
// file already exists there.
func CreateBucketDB(path string) (*BucketDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("tilestore: opening %s: %w", path, err)
	}
	if _, err := setupBucketDB(db); err != nil {
		db.Close()
		return nil, err
	}
	return &BucketDB{db: db}, nil
}

// OpenBucketDB opens an existing bucket database, for resuming an
// interrupted laztile run or for reading during production.
func OpenBucketDB(path string) (*BucketDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("tilestore: opening %s: %w", path, err)
	}
	return &BucketDB{db: db}, nil
}

func setupBucketDB(db *sql.DB) (sql.Result, error) {
	return db.Exec(`
		PRAGMA synchronous=OFF;
		PRAGMA journal_mode=WAL;
		CREATE TABLE tiles (x NUMBER, y NUMBER, laz_id INTEGER PRIMARY KEY AUTOINCREMENT, data BLOB);
		CREATE INDEX tiles_xy ON tiles (x, y);
		CREATE TABLE processed_file (name VARCHAR PRIMARY KEY);
	`)
}

// Close closes the underlying database handle.
func (b *BucketDB) Close() error { return b.db.Close() }

// InsertChunk adds one tile's worth of encoded point data.
func (b *BucketDB) InsertChunk(x, y uint32, data []byte) error {
	_, err := b.db.Exec(`INSERT INTO tiles (x, y, data) VALUES (?, ?, ?)`, x, y, data)
	if err != nil {
		return fmt.Errorf("tilestore: inserting bucket chunk (%d,%d): %w", x, y, err)
	}
	return nil
}

// ChunksFor returns every chunk recorded for tile (x, y).
func (b *BucketDB) ChunksFor(x, y uint32) ([][]byte, error) {
	rows, err := b.db.Query(`SELECT data FROM tiles WHERE x = ? AND y = ?`, x, y)
	if err != nil {
		return nil, fmt.Errorf("tilestore: querying bucket chunks (%d,%d): %w", x, y, err)
	}
	defer rows.Close()

	var chunks [][]byte
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("tilestore: scanning bucket chunk: %w", err)
		}
		chunks = append(chunks, data)
	}
	return chunks, rows.Err()
}

// IsProcessed reports whether a source file has already been ingested,
// for laztile's --continue resume mode.
func (b *BucketDB) IsProcessed(name string) (bool, error) {
	var n int
	err := b.db.QueryRow(`SELECT COUNT(*) FROM processed_file WHERE name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("tilestore: checking processed_file for %s: %w", name, err)
	}
	return n > 0, nil
}

// MarkProcessed records a source file as fully ingested.
func (b *BucketDB) MarkProcessed(name string) error {
	_, err := b.db.Exec(`INSERT INTO processed_file (name) VALUES (?)`, name)
	if err != nil {
		return fmt.Errorf("tilestore: marking %s processed: %w", name, err)
	}
	return nil
}
