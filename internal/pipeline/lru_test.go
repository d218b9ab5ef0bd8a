package pipeline

import (
	"testing"

	"github.com/freemapslovakia/lazdem/internal/raster"
	"github.com/freemapslovakia/lazdem/internal/tilegeom"
)

func TestGridCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewGridCache(2)
	tA := tilegeom.Tile{Zoom: 5, X: 1, Y: 1}
	tB := tilegeom.Tile{Zoom: 5, X: 2, Y: 1}
	tC := tilegeom.Tile{Zoom: 5, X: 3, Y: 1}

	c.Put(tA, raster.NewGrid(1, 1))
	c.Put(tB, raster.NewGrid(1, 1))
	c.Get(tA) // touch A, making B the LRU entry
	c.Put(tC, raster.NewGrid(1, 1))

	if _, ok := c.Get(tB); ok {
		t.Error("expected B to have been evicted")
	}
	if _, ok := c.Get(tA); !ok {
		t.Error("expected A to still be cached")
	}
	if _, ok := c.Get(tC); !ok {
		t.Error("expected C to be cached")
	}
}

func TestGridCacheZeroCapacityAlwaysMisses(t *testing.T) {
	c := NewGridCache(0)
	tile := tilegeom.Tile{Zoom: 1, X: 0, Y: 0}
	c.Put(tile, raster.NewGrid(1, 1))
	if _, ok := c.Get(tile); ok {
		t.Error("zero-capacity cache should never hit")
	}
}

func TestGridCacheRemove(t *testing.T) {
	c := NewGridCache(4)
	tile := tilegeom.Tile{Zoom: 1, X: 0, Y: 0}
	c.Put(tile, raster.NewGrid(1, 1))
	c.Remove(tile)
	if _, ok := c.Get(tile); ok {
		t.Error("expected tile to be gone after Remove")
	}
}
