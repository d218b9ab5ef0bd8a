// Package progress tracks the dependency-ordered production schedule for a
// pyramid: unit-level rasterize jobs feed upward into overview jobs once
// every tile in a parent's 4x4 bordered-children window has either
// finished or will never be produced by this run.
package progress

import "github.com/freemapslovakia/lazdem/internal/tilegeom"

// State is a tile's position in the Planned -> Queued -> Processing ->
// Finished lifecycle.
type State int

const (
	Planned State = iota
	Queued
	Processing
	Finished
)

func (s State) String() string {
	switch s {
	case Planned:
		return "planned"
	case Queued:
		return "queued"
	case Processing:
		return "processing"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Kind distinguishes how a job should be produced: by rasterizing point
// data directly, or by downsampling four already-finished children.
type Kind int

const (
	Rasterize Kind = iota
	Overview
)

// Job is one unit of production work handed out by Tracker.Next.
type Job struct {
	Kind Kind
	Tile tilegeom.Tile
}
