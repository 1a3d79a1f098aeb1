package mzcache

import (
	"math"
	"testing"

	"github.com/hupe1980/mzcache/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckRTWindow(t *testing.T) {
	valid := [][2]float64{{0, 0}, {-3, 1}, {1e300, 1e300}, {2, math.SmallestNonzeroFloat64}}
	for _, w := range valid {
		assert.NoError(t, checkRTWindow(w[0], w[1]), "%v", w)
	}

	invalid := [][2]float64{
		{0, -1},
		{0, math.Copysign(math.SmallestNonzeroFloat64, -1)},
		{math.NaN(), 0},
		{math.Inf(1), 0},
		{math.Inf(-1), 1},
		{0, math.NaN()},
		{0, math.Inf(1)},
	}
	for _, w := range invalid {
		assert.ErrorIs(t, checkRTWindow(w[0], w[1]), ErrInvalidRTWindow, "%v", w)
	}
}

func TestRTIndex_Window(t *testing.T) {
	x := rtIndex{1, 2, 2, 3, 5, 8}

	tests := []struct {
		rt, d float64
		want  []int
	}{
		{rt: 2, d: 0, want: []int{1}},
		{rt: 2, d: 1, want: []int{0, 1, 2}},
		{rt: 4, d: 1, want: []int{3}},
		{rt: 4, d: 0.5, want: []int{}},
		{rt: 6.5, d: 1.5, want: []int{4}},
		{rt: 8, d: 0, want: []int{5}},
		{rt: 0, d: 0, want: []int{}},
		{rt: 9, d: 0, want: []int{}},
	}
	for _, tt := range tests {
		got, err := x.window(tt.rt, tt.d)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "rt=%v d=%v", tt.rt, tt.d)
	}
}

func TestRTIndex_WindowAtLevel(t *testing.T) {
	meta := &metadata.Experiment{Spectra: []metadata.SpectrumMeta{
		{MSLevel: 1, RT: 1},
		{MSLevel: 2, RT: 2},
		{MSLevel: 1, RT: 2},
		{MSLevel: 2, RT: 3},
	}}
	x := newRTIndex(meta)
	levels := metadata.BuildLevelIndex(meta)

	got, err := x.windowAtLevel(levels, 2, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got)

	got, err = x.windowAtLevel(levels, 2, 0, 1)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)

	got, err = x.windowAtLevel(levels, 2, 5, 7)
	require.NoError(t, err)
	assert.Equal(t, []int{}, got)
}

func TestRTIndex_Empty(t *testing.T) {
	x := newRTIndex(&metadata.Experiment{})
	got, err := x.window(1, 1)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRTIndex_FromMetadata(t *testing.T) {
	meta := &metadata.Experiment{Spectra: []metadata.SpectrumMeta{
		{NativeID: "a", RT: 0.5},
		{NativeID: "b", RT: 1.5},
	}}
	assert.Equal(t, rtIndex{0.5, 1.5}, newRTIndex(meta))
}
