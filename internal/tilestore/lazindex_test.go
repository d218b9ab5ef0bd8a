package tilestore

import (
	"path/filepath"
	"sort"
	"testing"
)

func TestLazIndexFilesOverlapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.sqlite")
	idx, err := CreateLazIndex(path)
	if err != nil {
		t.Fatalf("CreateLazIndex: %v", err)
	}
	defer idx.Close()

	entries := []LazIndexEntry{
		{MinX: 0, MaxX: 100, MinY: 0, MaxY: 100, File: "a.laz"},
		{MinX: 200, MaxX: 300, MinY: 200, MaxY: 300, File: "b.laz"},
		{MinX: 50, MaxX: 150, MinY: 50, MaxY: 150, File: "c.laz"},
	}
	for _, e := range entries {
		if err := idx.Insert(e); err != nil {
			t.Fatalf("Insert(%s): %v", e.File, err)
		}
	}
	if err := idx.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	files, err := idx.FilesOverlapping(10, 10, 90, 90)
	if err != nil {
		t.Fatalf("FilesOverlapping: %v", err)
	}
	sort.Strings(files)
	if len(files) != 2 || files[0] != "a.laz" || files[1] != "c.laz" {
		t.Fatalf("files = %v, want [a.laz c.laz]", files)
	}
}

func TestLazIndexFinalizeRejectsDuplicateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.sqlite")
	idx, err := CreateLazIndex(path)
	if err != nil {
		t.Fatalf("CreateLazIndex: %v", err)
	}
	defer idx.Close()

	e := LazIndexEntry{MinX: 0, MaxX: 1, MinY: 0, MaxY: 1, File: "dup.laz"}
	if err := idx.Insert(e); err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	if err := idx.Insert(e); err != nil {
		t.Fatalf("second Insert (no unique index yet): %v", err)
	}
	if err := idx.Finalize(); err == nil {
		t.Fatal("expected Finalize to fail on the duplicate file unique index")
	}
}
