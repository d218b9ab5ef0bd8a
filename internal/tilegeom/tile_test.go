package tilegeom

import "testing"

func TestTileBoundsRoundTrip(t *testing.T) {
	tile := Tile{Zoom: 4, X: 3, Y: 5}
	b := tile.Bounds(256)
	if b.MinX >= b.MaxX || b.MinY >= b.MaxY {
		t.Fatalf("degenerate bounds: %+v", b)
	}
	parent, ok := tile.Parent()
	if !ok {
		t.Fatal("expected a parent at zoom 4")
	}
	pb := parent.Bounds(256)
	if !(pb.MinX <= b.MinX && pb.MaxX >= b.MaxX && pb.MinY <= b.MinY && pb.MaxY >= b.MaxY) {
		t.Fatalf("child bounds %+v not contained in parent bounds %+v", b, pb)
	}
}

func TestTileParentAtZeroZoom(t *testing.T) {
	if _, ok := (Tile{Zoom: 0}).Parent(); ok {
		t.Fatal("expected no parent at zoom 0")
	}
}

func TestReversedY(t *testing.T) {
	tile := Tile{Zoom: 3, X: 2, Y: 1}
	if got, want := tile.ReversedY(), uint32(6); got != want {
		t.Fatalf("ReversedY() = %d, want %d", got, want)
	}
}

func TestDescendantsOrdering(t *testing.T) {
	root := Tile{Zoom: 2, X: 1, Y: 1}
	d := root.Descendants(2)
	if len(d) != 16 {
		t.Fatalf("len(Descendants(2)) = %d, want 16", len(d))
	}
	// sector 0 -> (0,0) offset, sector 1 -> (1,0), sector 4 -> (0,1)
	want := []struct{ dx, dy uint32 }{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {0, 1}}
	for i, w := range want {
		got := d[i]
		if got.X != root.X*4+w.dx || got.Y != root.Y*4+w.dy {
			t.Errorf("descendant[%d] = %v, want dx=%d dy=%d", i, got, w.dx, w.dy)
		}
	}
	for _, tile := range d {
		if tile.Zoom != root.Zoom+2 {
			t.Errorf("descendant zoom = %d, want %d", tile.Zoom, root.Zoom+2)
		}
	}
}

func TestChildrenBufferedShapeAndOutside(t *testing.T) {
	corner := Tile{Zoom: 2, X: 0, Y: 0}
	grid := corner.ChildrenBuffered(1)
	if len(grid) != 16 {
		t.Fatalf("len = %d, want 16", len(grid))
	}
	// top-left ring cell is off the pyramid for a corner tile.
	if !grid[0].Outside {
		t.Error("expected top-left halo cell to be outside the pyramid")
	}
	// the four true children (rows/cols 1,2) must all be present.
	for _, idx := range []int{5, 6, 9, 10} {
		if grid[idx].Outside {
			t.Errorf("grid[%d] unexpectedly outside", idx)
		}
		if grid[idx].Tile.Zoom != corner.Zoom+1 {
			t.Errorf("grid[%d] zoom = %d, want %d", idx, grid[idx].Tile.Zoom, corner.Zoom+1)
		}
	}
}

func TestMortonCodeLocality(t *testing.T) {
	codes := map[uint64]bool{}
	for x := uint32(0); x < 8; x++ {
		for y := uint32(0); y < 8; y++ {
			c := (Tile{Zoom: 3, X: x, Y: y}).MortonCode()
			if codes[c] {
				t.Fatalf("duplicate morton code %d for (%d,%d)", c, x, y)
			}
			codes[c] = true
		}
	}
	a := (Tile{Zoom: 3, X: 0, Y: 0}).MortonCode()
	b := (Tile{Zoom: 3, X: 1, Y: 0}).MortonCode()
	if b-a != 1 {
		t.Errorf("adjacent tiles (0,0),(1,0) should have consecutive morton codes, got %d,%d", a, b)
	}
}

func TestSectorInParent(t *testing.T) {
	cases := []struct {
		tile   Tile
		sx, sy int
	}{
		{Tile{Zoom: 1, X: 0, Y: 0}, 0, 0},
		{Tile{Zoom: 1, X: 1, Y: 0}, 1, 0},
		{Tile{Zoom: 1, X: 0, Y: 1}, 0, 1},
		{Tile{Zoom: 1, X: 3, Y: 5}, 1, 1},
	}
	for _, c := range cases {
		sx, sy := c.tile.SectorInParent()
		if sx != c.sx || sy != c.sy {
			t.Errorf("SectorInParent(%v) = (%d,%d), want (%d,%d)", c.tile, sx, sy, c.sx, c.sy)
		}
	}
}

func TestBBoxCoveredTilesQuadrants(t *testing.T) {
	// A small bbox straddling the world center at zoom 1 must intersect
	// all four quadrant tiles, enumerated row-major by (y, x).
	bbox := BBox{MinX: -10, MinY: -10, MaxX: 10, MaxY: 10}
	tiles := BBoxCoveredTiles(bbox, 1)
	want := []Tile{
		{Zoom: 1, X: 0, Y: 0}, {Zoom: 1, X: 1, Y: 0},
		{Zoom: 1, X: 0, Y: 1}, {Zoom: 1, X: 1, Y: 1},
	}
	if len(tiles) != len(want) {
		t.Fatalf("got %d tiles, want %d: %v", len(tiles), len(want), tiles)
	}
	for i, w := range want {
		if tiles[i] != w {
			t.Errorf("tiles[%d] = %v, want %v", i, tiles[i], w)
		}
	}
}

func TestBBoxCoveredTilesWorldCenterCorner(t *testing.T) {
	// A bbox pinned entirely inside one quadrant, but whose corner sits
	// exactly on the world-center point, must still be reported as
	// covering all four zoom-1 tiles meeting at that corner.
	bbox := BBox{MinX: 0, MinY: 0, MaxX: 512, MaxY: 512}
	tiles := BBoxCoveredTiles(bbox, 1)
	want := []Tile{
		{Zoom: 1, X: 0, Y: 0}, {Zoom: 1, X: 1, Y: 0},
		{Zoom: 1, X: 0, Y: 1}, {Zoom: 1, X: 1, Y: 1},
	}
	if len(tiles) != len(want) {
		t.Fatalf("got %d tiles, want %d: %v", len(tiles), len(want), tiles)
	}
	for i, w := range want {
		if tiles[i] != w {
			t.Errorf("tiles[%d] = %v, want %v", i, tiles[i], w)
		}
	}
}

func TestBBoxCoveredTilesSingle(t *testing.T) {
	bbox := BBox{MinX: 100, MinY: 100, MaxX: 200, MaxY: 200}
	tiles := BBoxCoveredTiles(bbox, 10)
	if len(tiles) == 0 {
		t.Fatal("expected at least one covered tile")
	}
	for _, tile := range tiles {
		if !tile.Bounds(256).Intersects(bbox) {
			t.Errorf("tile %v does not actually intersect bbox", tile)
		}
	}
}
