package tilestore

import (
	"path/filepath"
	"testing"

	"github.com/freemapslovakia/lazdem/internal/tilegeom"
)

func TestContainerPutGetTile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.sqlite")
	c, err := OpenContainer(path)
	if err != nil {
		t.Fatalf("OpenContainer: %v", err)
	}
	defer c.Close()

	tile := tilegeom.Tile{Zoom: 10, X: 3, Y: 4}
	if err := c.PutTile(tile, []byte("payload")); err != nil {
		t.Fatalf("PutTile: %v", err)
	}

	data, ok, err := c.GetTile(tile)
	if err != nil {
		t.Fatalf("GetTile: %v", err)
	}
	if !ok || string(data) != "payload" {
		t.Fatalf("GetTile = (%q,%v), want (payload,true)", data, ok)
	}
}

func TestContainerDuplicateInsertIsBenign(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.sqlite")
	c, err := OpenContainer(path)
	if err != nil {
		t.Fatalf("OpenContainer: %v", err)
	}
	defer c.Close()

	tile := tilegeom.Tile{Zoom: 5, X: 1, Y: 1}
	if err := c.PutTile(tile, []byte("first")); err != nil {
		t.Fatalf("PutTile: %v", err)
	}
	if err := c.PutTile(tile, []byte("second")); err != nil {
		t.Fatalf("PutTile duplicate: %v", err)
	}
	data, _, err := c.GetTile(tile)
	if err != nil {
		t.Fatalf("GetTile: %v", err)
	}
	if string(data) != "first" {
		t.Fatalf("GetTile = %q, want the first insert to win", data)
	}
}

func TestContainerHasTile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.sqlite")
	c, err := OpenContainer(path)
	if err != nil {
		t.Fatalf("OpenContainer: %v", err)
	}
	defer c.Close()

	tile := tilegeom.Tile{Zoom: 1, X: 0, Y: 0}
	if present, err := c.HasTile(tile); err != nil || present {
		t.Fatalf("HasTile before insert = (%v,%v), want (false,nil)", present, err)
	}
	if err := c.PutTile(tile, []byte("x")); err != nil {
		t.Fatalf("PutTile: %v", err)
	}
	if present, err := c.HasTile(tile); err != nil || !present {
		t.Fatalf("HasTile after insert = (%v,%v), want (true,nil)", present, err)
	}
}

func TestContainerMetadataRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.sqlite")
	c, err := OpenContainer(path)
	if err != nil {
		t.Fatalf("OpenContainer: %v", err)
	}
	defer c.Close()

	if err := c.SetMetadata("format", "dem"); err != nil {
		t.Fatalf("SetMetadata: %v", err)
	}
	if err := c.SetMetadata("format", "dem-v2"); err != nil {
		t.Fatalf("SetMetadata overwrite: %v", err)
	}
	v, ok, err := c.Metadata("format")
	if err != nil || !ok || v != "dem-v2" {
		t.Fatalf("Metadata = (%q,%v,%v), want (dem-v2,true,nil)", v, ok, err)
	}
}
