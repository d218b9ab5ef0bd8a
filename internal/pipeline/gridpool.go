package pipeline

import "sync"

// gridPools maps a grid's element count to a *sync.Pool of []float64
// buffers. Using sync.Map avoids a mutex on the hot path; in practice only
// one or two distinct grid sizes exist per run (rasterizer grids and
// overview assembly grids), so the map stays tiny.
var gridPools sync.Map

// GetGrid returns a zeroed []float64 of length n from the pool, or
// allocates a new one.
func GetGrid(n int) []float64 {
	if p, ok := gridPools.Load(n); ok {
		if v := p.(*sync.Pool).Get(); v != nil {
			buf := v.([]float64)
			clear(buf)
			return buf
		}
	}
	return make([]float64, n)
}

// PutGrid returns a []float64 to the pool for reuse, filed under its own
// length so GetGrid only ever hands it out for that same length. A nil
// slice is ignored.
func PutGrid(buf []float64) {
	if buf == nil {
		return
	}
	p, _ := gridPools.LoadOrStore(len(buf), &sync.Pool{})
	p.(*sync.Pool).Put(buf)
}
