package pipeline

import (
	"container/list"
	"sync"

	"github.com/freemapslovakia/lazdem/internal/raster"
	"github.com/freemapslovakia/lazdem/internal/tilegeom"
)

// GridCache is a bounded, mutex-guarded LRU cache of rasterized tile
// grids. Overview production pulls its 4x4 bordered children back out of this
// cache rather than re-rasterizing or re-reading them from the output
// container, which is what gives the scheduler's spatial-locality
// ordering (internal/progress) its payoff: a worker pool draining jobs in
// Morton order keeps recently-finished siblings hot.
//
// Eviction is never a correctness error — a cache miss just means the
// caller falls back to loading the tile from the output container.
type GridCache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List // front = most recently used
	items    map[tilegeom.Tile]*list.Element
}

type cacheEntry struct {
	tile tilegeom.Tile
	grid *raster.Grid
}

// NewGridCache creates a cache holding at most capacity grids. A capacity
// of 0 disables the cache (Get always misses, Put is a no-op).
func NewGridCache(capacity int) *GridCache {
	return &GridCache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[tilegeom.Tile]*list.Element),
	}
}

// Get returns the cached grid for tile, promoting it to most-recently-used.
func (c *GridCache) Get(tile tilegeom.Tile) (*raster.Grid, bool) {
	if c.capacity <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[tile]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*cacheEntry).grid, true
}

// Put inserts or replaces the cached grid for tile, evicting the least
// recently used entry if the cache is at capacity.
func (c *GridCache) Put(tile tilegeom.Tile, grid *raster.Grid) {
	if c.capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[tile]; ok {
		el.Value.(*cacheEntry).grid = grid
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&cacheEntry{tile: tile, grid: grid})
	c.items[tile] = el

	for c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.ll.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).tile)
	}
}

// Remove drops tile from the cache, if present.
func (c *GridCache) Remove(tile tilegeom.Tile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[tile]; ok {
		c.ll.Remove(el)
		delete(c.items, tile)
	}
}

// Len reports the number of grids currently cached.
func (c *GridCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
