package tilestore

import (
	"path/filepath"
	"testing"
)

func TestBucketDBInsertAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buckets.sqlite")
	b, err := CreateBucketDB(path)
	if err != nil {
		t.Fatalf("CreateBucketDB: %v", err)
	}
	defer b.Close()

	if err := b.InsertChunk(5, 5, []byte("chunk1")); err != nil {
		t.Fatalf("InsertChunk: %v", err)
	}
	if err := b.InsertChunk(5, 5, []byte("chunk2")); err != nil {
		t.Fatalf("InsertChunk: %v", err)
	}

	chunks, err := b.ChunksFor(5, 5)
	if err != nil {
		t.Fatalf("ChunksFor: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("len(chunks) = %d, want 2", len(chunks))
	}

	if chunks, err := b.ChunksFor(9, 9); err != nil || len(chunks) != 0 {
		t.Fatalf("ChunksFor empty tile = (%v,%v), want (nil,nil)", chunks, err)
	}
}

func TestBucketDBProcessedFileLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buckets.sqlite")
	b, err := CreateBucketDB(path)
	if err != nil {
		t.Fatalf("CreateBucketDB: %v", err)
	}
	defer b.Close()

	done, err := b.IsProcessed("tile1.zip")
	if err != nil || done {
		t.Fatalf("IsProcessed before mark = (%v,%v), want (false,nil)", done, err)
	}
	if err := b.MarkProcessed("tile1.zip"); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}
	done, err = b.IsProcessed("tile1.zip")
	if err != nil || !done {
		t.Fatalf("IsProcessed after mark = (%v,%v), want (true,nil)", done, err)
	}
}
