package metadata

import (
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
)

// LevelIndex maps MS levels to the set of spectrum ids at that level.
// It is immutable after construction and safe for concurrent use.
type LevelIndex struct {
	levels map[int32]*roaring.Bitmap
}

// BuildLevelIndex indexes the MS level of every spectrum in src.
func BuildLevelIndex(src Source) *LevelIndex {
	x := &LevelIndex{levels: make(map[int32]*roaring.Bitmap)}
	for i := 0; i < src.NumSpectra(); i++ {
		level := src.SpectrumMeta(i).MSLevel
		rb, ok := x.levels[level]
		if !ok {
			rb = roaring.New()
			x.levels[level] = rb
		}
		rb.Add(uint32(i))
	}
	for _, rb := range x.levels {
		rb.RunOptimize()
	}
	return x
}

// Spectra returns the ascending ids of the spectra at level.
func (x *LevelIndex) Spectra(level int32) []int {
	rb, ok := x.levels[level]
	if !ok {
		return nil
	}
	return toInts(rb)
}

// Count returns the number of spectra at level.
func (x *LevelIndex) Count(level int32) int {
	rb, ok := x.levels[level]
	if !ok {
		return 0
	}
	return int(rb.GetCardinality())
}

// Levels returns the distinct MS levels in ascending order.
func (x *LevelIndex) Levels() []int32 {
	levels := make([]int32, 0, len(x.levels))
	for l := range x.levels {
		levels = append(levels, l)
	}
	slices.Sort(levels)
	return levels
}

// Between returns the ids at level within [lo, hi).
func (x *LevelIndex) Between(level int32, lo, hi int) []int {
	rb, ok := x.levels[level]
	if lo < 0 {
		lo = 0
	}
	if !ok || lo >= hi {
		return nil
	}
	window := roaring.New()
	window.AddRange(uint64(lo), uint64(hi))
	window.And(rb)
	return toInts(window)
}

func toInts(rb *roaring.Bitmap) []int {
	ids := make([]int, 0, rb.GetCardinality())
	it := rb.Iterator()
	for it.HasNext() {
		ids = append(ids, int(it.Next()))
	}
	return ids
}
