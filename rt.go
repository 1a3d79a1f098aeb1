package mzcache

import (
	"fmt"
	"math"
	"sort"

	"github.com/hupe1980/mzcache/metadata"
)

// rtIndex holds the retention times of all spectra in ascending order.
type rtIndex []float64

func newRTIndex(src metadata.Source) rtIndex {
	rts := make(rtIndex, src.NumSpectra())
	for i := range rts {
		rts[i] = src.SpectrumMeta(i).RT
	}
	return rts
}

func checkRTWindow(rt, deltaRT float64) error {
	if math.IsNaN(rt) || math.IsInf(rt, 0) || math.IsNaN(deltaRT) || math.IsInf(deltaRT, 0) || deltaRT < 0 {
		return fmt.Errorf("%w: rt=%v delta=%v", ErrInvalidRTWindow, rt, deltaRT)
	}
	return nil
}

// span returns the id range [start, end) with rt-deltaRT <= RT < rt+deltaRT.
// A zero deltaRT selects at most one spectrum, the first whose RT equals rt.
func (x rtIndex) span(rt, deltaRT float64) (int, int, error) {
	if err := checkRTWindow(rt, deltaRT); err != nil {
		return 0, 0, err
	}

	start := sort.SearchFloat64s(x, rt-deltaRT)
	if deltaRT == 0 {
		if start < len(x) && x[start] == rt {
			return start, start + 1, nil
		}
		return start, start, nil
	}
	return start, max(sort.SearchFloat64s(x, rt+deltaRT), start), nil
}

// window returns the ids of span in ascending order.
func (x rtIndex) window(rt, deltaRT float64) ([]int, error) {
	start, end, err := x.span(rt, deltaRT)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		ids = append(ids, i)
	}
	return ids, nil
}

// windowAtLevel is window restricted to spectra at level.
func (x rtIndex) windowAtLevel(levels *metadata.LevelIndex, rt, deltaRT float64, level int32) ([]int, error) {
	start, end, err := x.span(rt, deltaRT)
	if err != nil {
		return nil, err
	}
	ids := levels.Between(level, start, end)
	if ids == nil {
		ids = []int{}
	}
	return ids, nil
}
