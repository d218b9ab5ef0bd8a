// Package overview builds pyramid parent tiles from their four immediate
// children plus a one-tile halo, via Lanczos-3 half-scale resampling.
package overview

import (
	"math"
	"sync"
)

const lanczosA = 3

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

func lanczos3(x float64) float64 {
	if x < -lanczosA || x > lanczosA {
		return 0
	}
	return sinc(x) * sinc(x/lanczosA)
}

// tap is one source-index/weight pair contributing to a destination pixel.
type tap struct {
	idx    int
	weight float64
}

// weightTable holds, for every destination index, the taps (clamped to the
// source range) that contribute to it.
type weightTable struct {
	taps [][]tap
}

var tableCache sync.Map // key: [2]int{srcLen,dstLen} -> *weightTable

func getWeightTable(srcLen, dstLen int) *weightTable {
	key := [2]int{srcLen, dstLen}
	if v, ok := tableCache.Load(key); ok {
		return v.(*weightTable)
	}
	wt := buildWeightTable(srcLen, dstLen)
	actual, _ := tableCache.LoadOrStore(key, wt)
	return actual.(*weightTable)
}

func buildWeightTable(srcLen, dstLen int) *weightTable {
	scale := float64(srcLen) / float64(dstLen)
	filterScale := math.Max(scale, 1)
	support := lanczosA * filterScale

	taps := make([][]tap, dstLen)
	for i := 0; i < dstLen; i++ {
		center := (float64(i)+0.5)*scale - 0.5
		lo := int(math.Floor(center - support))
		hi := int(math.Ceil(center + support))

		var row []tap
		var sum float64
		for s := lo; s <= hi; s++ {
			w := lanczos3((float64(s) - center) / filterScale)
			if w == 0 {
				continue
			}
			row = append(row, tap{idx: clampIndex(s, srcLen), weight: w})
		}
		// Multiple out-of-range source indices clamp to the same edge
		// pixel; merge their weights so it isn't double-counted.
		row = mergeTaps(row)
		for _, t := range row {
			sum += t.weight
		}
		if sum != 0 {
			for j := range row {
				row[j].weight /= sum
			}
		}
		taps[i] = row
	}
	return &weightTable{taps: taps}
}

func mergeTaps(in []tap) []tap {
	byIdx := make(map[int]float64, len(in))
	order := make([]int, 0, len(in))
	for _, t := range in {
		if _, seen := byIdx[t.idx]; !seen {
			order = append(order, t.idx)
		}
		byIdx[t.idx] += t.weight
	}
	out := make([]tap, len(order))
	for i, idx := range order {
		out[i] = tap{idx: idx, weight: byIdx[idx]}
	}
	return out
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// resample1D applies the cached weight table for (srcLen -> dstLen) to one
// row/column of samples. NaN taps are dropped and the remaining weights
// renormalized; a destination sample with no finite taps is NaN.
func resample1D(src []float64, dstLen int) []float64 {
	wt := getWeightTable(len(src), dstLen)
	dst := make([]float64, dstLen)
	for i, row := range wt.taps {
		var sum, wsum float64
		for _, t := range row {
			v := src[t.idx]
			if math.IsNaN(v) {
				continue
			}
			sum += v * t.weight
			wsum += t.weight
		}
		if wsum == 0 {
			dst[i] = math.NaN()
		} else {
			dst[i] = sum / wsum
		}
	}
	return dst
}
