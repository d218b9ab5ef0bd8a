package pipeline

import (
	"log"
	"runtime"
)

// DefaultMemoryPressurePercent is the fraction of total RAM the grid cache
// is allowed to target when its capacity isn't set explicitly.
const DefaultMemoryPressurePercent = 0.90

// ComputeMemoryLimit returns the number of bytes the LRU grid cache should
// target: fraction of total system RAM, minus current Go heap overhead plus
// a fixed headroom, so other allocations (worker scratch buffers, the
// sqlite driver, OS page cache) still have room to breathe.
//
// Returns 0 if RAM detection fails or the computed limit is unreasonably
// small, in which case callers should fall back to a fixed tile-count cap.
func ComputeMemoryLimit(fraction float64, verbose bool) int64 {
	totalRAM, err := totalSystemRAM()
	if err != nil {
		if verbose {
			log.Printf("cannot detect system RAM: %v; using fixed LRU capacity", err)
		}
		return 0
	}

	if verbose {
		log.Printf("system RAM: %.1f GB", float64(totalRAM)/(1024*1024*1024))
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	overhead := m.Sys + 1*1024*1024*1024 // current usage + 1 GB headroom

	limit := int64(float64(totalRAM)*fraction) - int64(overhead)
	if limit < 64*1024*1024 { // minimum 64 MB
		if verbose {
			log.Printf("computed memory limit too small (%.0f MB); using fixed LRU capacity",
				float64(limit)/(1024*1024))
		}
		return 0
	}

	if verbose {
		log.Printf("grid cache memory target: %.2f GB (%.0f%% of RAM minus %.1f GB overhead)",
			float64(limit)/(1024*1024*1024), fraction*100, float64(overhead)/(1024*1024*1024))
	}

	return limit
}

// CapacityForGridSize converts a memory budget in bytes into a tile count,
// given the byte size of one cached ElevationGrid (tileSize+2*halo)^2 * 8.
func CapacityForGridSize(budgetBytes int64, gridBytes int64) int {
	if budgetBytes <= 0 || gridBytes <= 0 {
		return 0
	}
	n := budgetBytes / gridBytes
	if n < 1 {
		return 1
	}
	if n > 1<<20 {
		n = 1 << 20
	}
	return int(n)
}
