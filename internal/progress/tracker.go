package progress

import (
	"sort"
	"sync"

	"github.com/freemapslovakia/lazdem/internal/tilegeom"
)

// Tracker holds the full job schedule for a production run: a LIFO stack
// of runnable jobs plus the state of every tile in the pyramid, from the
// unit (leaf) zoom down to zoom 0. Jobs are popped in Morton order within
// each batch so a worker pool's concurrent tiles stay spatially close,
// which keeps the grid cache's hit rate high (see internal/pipeline's LRU).
//
// All exported methods are safe for concurrent use.
type Tracker struct {
	mu sync.Mutex

	state map[tilegeom.Tile]State
	stack []Job

	// childDone counts, per parent tile, how many members of its 4x4
	// bordered-children window (ChildrenBuffered(1)) that are actually
	// scheduled by this run have finished. childRequired holds the target:
	// the count of window members that are either in-pyramid and scheduled,
	// computed once the full tile set is known. A window member that's
	// geometrically outside the pyramid, or simply never scheduled because
	// it falls outside this run's bbox, contributes to neither map and so
	// never blocks admission.
	childDone     map[tilegeom.Tile]int
	childRequired map[tilegeom.Tile]int

	queuedN, processingN, finishedN, plannedN int
}

// NewTracker seeds the schedule from the set of unit tiles that will be
// rasterized directly from point data. Every ancestor of every unit tile,
// up to and including zoom 0, is marked Planned.
func NewTracker(unitTiles []tilegeom.Tile) *Tracker {
	t := &Tracker{
		state:         make(map[tilegeom.Tile]State),
		childDone:     make(map[tilegeom.Tile]int),
		childRequired: make(map[tilegeom.Tile]int),
	}

	sorted := append([]tilegeom.Tile(nil), unitTiles...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MortonCode() < sorted[j].MortonCode() })

	for _, tile := range sorted {
		t.state[tile] = Queued
		t.queuedN++
		t.stack = append(t.stack, Job{Kind: Rasterize, Tile: tile})

		for cur := tile; ; {
			parent, ok := cur.Parent()
			if !ok {
				break
			}
			if _, seen := t.state[parent]; !seen {
				t.state[parent] = Planned
				t.plannedN++
			}
			cur = parent
		}
	}

	// The full tile set is now fixed, so each ancestor's window requirement
	// can be computed once: how many of its 16 bordered-children cells will
	// actually be produced by this run.
	for p, st := range t.state {
		if st != Planned {
			continue
		}
		required := 0
		for _, bt := range p.ChildrenBuffered(1) {
			if bt.Outside {
				continue
			}
			if _, scheduled := t.state[bt.Tile]; scheduled {
				required++
			}
		}
		t.childRequired[p] = required
	}
	return t
}

// Next pops the next runnable job, or ok=false if the stack is currently
// empty (callers should treat this as "wait for in-flight jobs to finish
// and call Done", not necessarily "the run is complete").
func (t *Tracker) Next() (Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.stack) == 0 {
		return Job{}, false
	}
	n := len(t.stack) - 1
	job := t.stack[n]
	t.stack = t.stack[:n]
	t.state[job.Tile] = Processing
	t.queuedN--
	t.processingN++
	return job, true
}

// Done marks a tile Finished and notifies every parent whose 4x4
// bordered-children window contains it — not just its true parent, but
// also the up to 3 diagonal/orthogonal neighbor parents whose halo ring
// overlaps this tile, mirroring the exact window internal/overview
// assembles from. A parent's overview job is queued once every window
// member this run will ever schedule has finished.
func (t *Tracker) Done(tile tilegeom.Tile) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state[tile] = Finished
	t.processingN--
	t.finishedN++

	if tile.Zoom == 0 {
		return
	}
	trueParent, ok := tile.Parent()
	if !ok {
		return
	}

	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			candidate, ok := neighborTile(trueParent, dx, dy)
			if !ok || !inBufferedWindow(candidate, tile) {
				continue
			}
			required, tracked := t.childRequired[candidate]
			if !tracked {
				continue
			}
			t.childDone[candidate]++
			if t.childDone[candidate] < required {
				continue
			}
			if t.state[candidate] != Planned {
				continue
			}
			t.state[candidate] = Queued
			t.plannedN--
			t.queuedN++
			t.stack = append(t.stack, Job{Kind: Overview, Tile: candidate})
		}
	}
}

// neighborTile offsets base by (dx, dy) tiles at its own zoom, reporting
// false if the result falls outside the valid coordinate range.
func neighborTile(base tilegeom.Tile, dx, dy int) (tilegeom.Tile, bool) {
	n := int64(1) << base.Zoom
	x := int64(base.X) + int64(dx)
	y := int64(base.Y) + int64(dy)
	if x < 0 || y < 0 || x >= n || y >= n {
		return tilegeom.Tile{}, false
	}
	return tilegeom.Tile{Zoom: base.Zoom, X: uint32(x), Y: uint32(y)}, true
}

// inBufferedWindow reports whether child falls inside parent's
// ChildrenBuffered(1) window, without allocating that 16-element slice.
func inBufferedWindow(parent, child tilegeom.Tile) bool {
	baseX := int64(parent.X) * 2
	baseY := int64(parent.Y) * 2
	cx, cy := int64(child.X), int64(child.Y)
	return cx >= baseX-1 && cx <= baseX+2 && cy >= baseY-1 && cy <= baseY+2
}

// DoneEmpty advances a tile that will never receive a payload (an empty
// rasterize result, or an overview whose interior children are missing)
// without treating it as a real production — it still occupies its slot
// in every parent window's completion count.
func (t *Tracker) DoneEmpty(tile tilegeom.Tile) { t.Done(tile) }

// State reports a tile's current lifecycle state.
func (t *Tracker) State(tile tilegeom.Tile) (State, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.state[tile]
	return s, ok
}

// Remaining reports whether any job is queued, processing, or merely
// planned (i.e. the run is not yet complete).
func (t *Tracker) Remaining() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.queuedN > 0 || t.processingN > 0 || t.plannedN > 0
}

// Counts returns a snapshot of how many tiles sit in each state, for
// progress reporting.
func (t *Tracker) Counts() (planned, queued, processing, finished int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.plannedN, t.queuedN, t.processingN, t.finishedN
}
