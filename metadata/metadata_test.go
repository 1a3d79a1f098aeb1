package metadata

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mzcache/codec"
	"github.com/hupe1980/mzcache/persistence"
	"github.com/hupe1980/mzcache/testutil"
)

func TestFromModel(t *testing.T) {
	exp := testutil.NewRNG(5).Experiment(testutil.ExperimentConfig{Spectra: 10, Chromatograms: 2, MaxPeaks: 3, MS2Ratio: 0.5})

	m := FromModel(exp)
	require.Equal(t, 10, m.NumSpectra())
	require.Equal(t, 2, m.NumChromatograms())
	for i, s := range exp.Spectra {
		assert.Equal(t, SpectrumMeta{NativeID: s.NativeID, MSLevel: s.MSLevel, RT: s.RT}, m.SpectrumMeta(i))
	}
	assert.Equal(t, "chrom=1", m.ChromatogramMeta(1).NativeID)
	assert.NoError(t, Validate(m))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		rts  []float64
		ok   bool
	}{
		{"empty", nil, true},
		{"sorted with ties", []float64{1, 2, 2, 3}, true},
		{"unsorted", []float64{1, 3, 2}, false},
		{"nan", []float64{1, math.NaN()}, false},
		{"inf", []float64{math.Inf(1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Experiment{}
			for _, rt := range tt.rts {
				m.Spectra = append(m.Spectra, SpectrumMeta{RT: rt})
			}
			if tt.ok {
				assert.NoError(t, Validate(m))
			} else {
				assert.Error(t, Validate(m))
			}
		})
	}
}

func TestLevelIndex(t *testing.T) {
	m := &Experiment{Spectra: []SpectrumMeta{
		{MSLevel: 1}, {MSLevel: 2}, {MSLevel: 2}, {MSLevel: 1}, {MSLevel: 3}, {MSLevel: 2},
	}}
	x := BuildLevelIndex(m)

	assert.Equal(t, []int32{1, 2, 3}, x.Levels())
	assert.Equal(t, []int{0, 3}, x.Spectra(1))
	assert.Equal(t, []int{1, 2, 5}, x.Spectra(2))
	assert.Nil(t, x.Spectra(4))
	assert.Equal(t, 3, x.Count(2))
	assert.Zero(t, x.Count(7))

	assert.Equal(t, []int{2, 5}, x.Between(2, 2, 6))
	assert.Equal(t, []int{1}, x.Between(2, -5, 2))
	assert.Nil(t, x.Between(2, 4, 4))
	assert.Empty(t, x.Between(1, 1, 3))
}

func TestSidecar_RoundTrip(t *testing.T) {
	m := FromModel(testutil.NewRNG(8).Experiment(testutil.ExperimentConfig{Spectra: 25, Chromatograms: 3, MS2Ratio: 0.2}))

	for _, c := range []codec.Codec{nil, codec.JSON{}, codec.GoJSON{}} {
		path := filepath.Join(t.TempDir(), "run")
		require.NoError(t, SaveSidecar(path, m, c))

		got, err := LoadSidecar(path)
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
}

func TestLoadSidecar_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadSidecar(filepath.Join(dir, "missing"))
	require.Error(t, err)
	assert.True(t, persistence.IsIOError(err))

	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}

	_, err = LoadSidecar(write("garbage", "{not json"))
	assert.Error(t, err)

	_, err = LoadSidecar(write("version", `{"version":99,"codec":"json"}`))
	assert.ErrorContains(t, err, "unsupported version")

	_, err = LoadSidecar(write("codec", `{"version":1,"codec":"xml"}`))
	assert.ErrorContains(t, err, "unknown codec")

	_, err = LoadSidecar(write("unsorted", `{"version":1,"codec":"json","spectra":[{"rt":2},{"rt":1}]}`))
	assert.ErrorContains(t, err, "precedes")
}

func TestEncodeDecodeSidecar(t *testing.T) {
	m := FromModel(testutil.ExperimentWithRTs(1, 2, 3))

	data, err := EncodeSidecar(m, codec.JSON{})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"codec":"json"`)

	got, err := DecodeSidecar(data)
	require.NoError(t, err)
	assert.Equal(t, m, got)

	_, err = DecodeSidecar([]byte(`{"version":1,"codec":"json","spectra":[{"rt":"NaN"}]}`))
	assert.Error(t, err)
}
