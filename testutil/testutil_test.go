package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExperiment(t *testing.T) {
	rng := NewRNG(4711)

	exp := rng.Experiment(ExperimentConfig{Spectra: 50, Chromatograms: 3, MaxPeaks: 20, MaxPoints: 10, MS2Ratio: 0.5})

	require.Len(t, exp.Spectra, 50)
	require.Len(t, exp.Chromatograms, 3)
	for i := 1; i < len(exp.Spectra); i++ {
		assert.Greater(t, exp.Spectra[i].RT, exp.Spectra[i-1].RT)
		assert.LessOrEqual(t, len(exp.Spectra[i].Peaks), 20)
	}
	assert.Equal(t, "scan=1", exp.Spectra[0].NativeID)
}

func TestExperiment_Deterministic(t *testing.T) {
	a := NewRNG(1).Experiment(ExperimentConfig{Spectra: 5, MaxPeaks: 5})
	b := NewRNG(1).Experiment(ExperimentConfig{Spectra: 5, MaxPeaks: 5})
	assert.Equal(t, a, b)
}

func TestExperimentWithRTs(t *testing.T) {
	exp := ExperimentWithRTs(1, 2, 3)
	require.Len(t, exp.Spectra, 3)
	assert.Equal(t, 2.0, exp.Spectra[1].RT)
	assert.Len(t, exp.Spectra[2].Peaks, 3)
}

func TestFillUniform(t *testing.T) {
	rng := NewRNG(4711)
	v := make([]float64, 32)
	rng.FillUniform(v, -1, 1)
	for _, x := range v {
		assert.GreaterOrEqual(t, x, -1.0)
		assert.Less(t, x, 1.0)
	}
}
