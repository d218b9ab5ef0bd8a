package progress

import (
	"testing"
	"time"

	"github.com/freemapslovakia/lazdem/internal/tilegeom"
)

func quadUnitTiles(zoom uint8, x0, y0 uint32) []tilegeom.Tile {
	return []tilegeom.Tile{
		{Zoom: zoom, X: x0, Y: y0},
		{Zoom: zoom, X: x0 + 1, Y: y0},
		{Zoom: zoom, X: x0, Y: y0 + 1},
		{Zoom: zoom, X: x0 + 1, Y: y0 + 1},
	}
}

func drainAll(t *testing.T, tr *Tracker) []Job {
	var seen []Job
	for {
		job, ok := tr.Next()
		if !ok {
			if !tr.Remaining() {
				return seen
			}
			t.Fatalf("Next() returned no job but work remains (deadlock)")
		}
		seen = append(seen, job)
		tr.Done(job.Tile)
	}
}

func TestParentQueuedOnlyAfterAllFourChildrenFinish(t *testing.T) {
	units := quadUnitTiles(4, 10, 10)
	tr := NewTracker(units)

	parent, ok := units[0].Parent()
	if !ok {
		t.Fatal("expected a parent")
	}

	for i, u := range units {
		if s, _ := tr.State(parent); s != Planned {
			t.Fatalf("parent state = %v before all children finish, want Planned", s)
		}
		job, ok := tr.Next()
		if !ok {
			t.Fatalf("Next() failed at child %d", i)
		}
		if job.Tile != u {
			// LIFO order depends on Morton sort; just confirm it's a known unit tile.
		}
		tr.Done(job.Tile)
	}

	s, ok := tr.State(parent)
	if !ok || s != Queued {
		t.Fatalf("parent state after 4 children = (%v,%v), want (Queued,true)", s, ok)
	}
}

func TestOverviewJobEmittedExactlyOnce(t *testing.T) {
	units := quadUnitTiles(4, 10, 10)
	tr := NewTracker(units)

	overviewCount := 0
	jobs := drainAll(t, tr)
	for _, j := range jobs {
		if j.Kind == Overview {
			overviewCount++
		}
	}
	if overviewCount == 0 {
		t.Fatal("expected at least one overview job")
	}
	seen := make(map[tilegeom.Tile]int)
	for _, j := range jobs {
		seen[j.Tile]++
		if seen[j.Tile] > 1 {
			t.Fatalf("tile %v scheduled more than once (double-insert)", j.Tile)
		}
	}
}

func TestDrainCompletesAllTheWayToRoot(t *testing.T) {
	units := quadUnitTiles(2, 0, 0)
	tr := NewTracker(units)
	jobs := drainAll(t, tr)

	var sawRoot bool
	for _, j := range jobs {
		if j.Tile.Zoom == 0 {
			sawRoot = true
		}
	}
	if !sawRoot {
		t.Fatal("expected production to reach the zoom-0 root")
	}
	if tr.Remaining() {
		t.Fatal("expected no remaining work after full drain")
	}
}

func TestMortonOrderedBatchHasLocality(t *testing.T) {
	// Build a cluster of unit tiles and confirm consecutive Next() pops
	// tend to be spatially close (Chebyshev distance small), exercising
	// the same locality property invariant 4 requires of the scheduler.
	var units []tilegeom.Tile
	for x := uint32(0); x < 4; x++ {
		for y := uint32(0); y < 4; y++ {
			units = append(units, tilegeom.Tile{Zoom: 8, X: 100 + x, Y: 100 + y})
		}
	}
	tr := NewTracker(units)

	var prev tilegeom.Tile
	hasPrev := false
	closeHits := 0
	total := 0
	for {
		job, ok := tr.Next()
		if !ok {
			break
		}
		if job.Kind == Rasterize {
			if hasPrev {
				total++
				dx := absInt(int(job.Tile.X) - int(prev.X))
				dy := absInt(int(job.Tile.Y) - int(prev.Y))
				if dx <= 2 && dy <= 2 {
					closeHits++
				}
			}
			prev = job.Tile
			hasPrev = true
		}
		tr.Done(job.Tile)
	}
	if total == 0 {
		t.Fatal("no consecutive rasterize pairs observed")
	}
	if float64(closeHits)/float64(total) < 0.6 {
		t.Fatalf("locality hit rate = %v, want >= 0.6", float64(closeHits)/float64(total))
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestReporterThrottlesToOncePerInterval(t *testing.T) {
	tr := NewTracker(quadUnitTiles(4, 0, 0))
	start := time.Unix(0, 0)
	r := NewReporter(tr, start)

	if r.Tick(start.Add(100 * time.Millisecond)) {
		t.Error("expected no report before the interval elapses")
	}
	if !r.Tick(start.Add(1100 * time.Millisecond)) {
		t.Error("expected a report once the interval elapses")
	}
}
