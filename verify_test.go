package mzcache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/mzcache/index"
	"github.com/hupe1980/mzcache/persistence"
	"github.com/hupe1980/mzcache/resource"
	"github.com/hupe1980/mzcache/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify(t *testing.T) {
	exp, basename := newRun(t)

	for _, workers := range []int{1, 3, 64} {
		report, err := Verify(context.Background(), CachePath(basename), WithWorkers(workers))
		require.NoError(t, err)
		assert.Equal(t, exp.NumSpectra(), report.Spectra)
		assert.Equal(t, exp.NumChromatograms(), report.Chromatograms)
		assert.Equal(t, int64(exp.NumPeaks()), report.Peaks)

		var points int64
		for _, c := range exp.Chromatograms {
			points += int64(c.Len())
		}
		assert.Equal(t, points, report.Points)

		info, err := os.Stat(CachePath(basename))
		require.NoError(t, err)
		assert.Equal(t, info.Size(), report.Size)
	}
}

func TestVerify_Empty(t *testing.T) {
	basename := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, Save(testutil.ExperimentWithRTs(), basename))

	report, err := Verify(context.Background(), CachePath(basename))
	require.NoError(t, err)
	assert.Zero(t, report.Spectra)
	assert.Equal(t, int64(persistence.FileHeaderSize), report.Size)
}

func TestVerify_Truncated(t *testing.T) {
	_, basename := newRun(t)
	path := CachePath(basename)

	idx, err := index.BuildFile(path)
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, info.Size()/2))

	_, err = Verify(context.Background(), path, WithIndex(idx), WithWorkers(4))
	assert.ErrorIs(t, err, ErrFormat)

	_, err = Verify(context.Background(), path, WithRegistry(index.NewRegistry()))
	assert.ErrorIs(t, err, ErrFormat)
}

func TestVerify_Cancelled(t *testing.T) {
	_, basename := newRun(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Verify(ctx, CachePath(basename), WithRegistry(index.NewRegistry()))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVerify_ResourceController(t *testing.T) {
	_, basename := newRun(t)
	rc := resource.NewController(resource.Config{MaxWorkers: 2, IOLimitBytesPerSec: 64 << 20})

	report, err := Verify(context.Background(), CachePath(basename), WithResourceController(rc))
	require.NoError(t, err)
	assert.Equal(t, 60, report.Spectra)
}

func TestSplit(t *testing.T) {
	assert.Nil(t, split(KindSpectrum, 0, 4))

	jobs := split(KindChromatogram, 10, 4)
	require.Len(t, jobs, 4)
	assert.Equal(t, verifyJob{kind: KindChromatogram, lo: 0, hi: 3}, jobs[0])
	assert.Equal(t, verifyJob{kind: KindChromatogram, lo: 9, hi: 10}, jobs[3])

	jobs = split(KindSpectrum, 2, 8)
	assert.Len(t, jobs, 2)
}
