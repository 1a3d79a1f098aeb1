package s3

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/hupe1980/mzcache/blobstore"
	"github.com/hupe1980/mzcache/index"
	"github.com/hupe1980/mzcache/reader"
	"github.com/hupe1980/mzcache/testutil"
	"github.com/hupe1980/mzcache/writer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requires S3_BUCKET and AWS credentials; AWS_ENDPOINT_URL_S3 selects a
// local S3-compatible endpoint.
func TestIntegration_S3Store(t *testing.T) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		t.Skip("S3_BUCKET not set")
	}
	ctx := context.Background()

	opts := []Option{WithPrefix(fmt.Sprintf("mzcache-test-%d", time.Now().UnixNano()))}
	if endpoint := os.Getenv("AWS_ENDPOINT_URL_S3"); endpoint != "" {
		opts = append(opts, WithEndpoint(endpoint))
	}
	store, err := New(ctx, bucket, opts...)
	require.NoError(t, err)

	exp := testutil.NewRNG(3).Experiment(testutil.ExperimentConfig{Spectra: 50, Chromatograms: 2, MaxPeaks: 500, MaxPoints: 100})
	var buf bytes.Buffer
	_, err = writer.New().WriteTo(&buf, exp)
	require.NoError(t, err)

	t.Run("RandomAccess", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "run.cached", buf.Bytes()))
		defer func() { _ = store.Delete(ctx, "run.cached") }()

		names, err := store.List(ctx, "")
		require.NoError(t, err)
		assert.Contains(t, names, "run.cached")

		blob, err := store.Open(ctx, "run.cached")
		require.NoError(t, err)
		defer blob.Close()
		assert.Equal(t, int64(buf.Len()), blob.Size())

		idx, err := index.Build(blobstore.NewReadSeeker(ctx, blob))
		require.NoError(t, err)
		rd, err := reader.New(blobstore.NewReadSeeker(ctx, blob))
		require.NoError(t, err)

		for _, id := range []int{49, 0, 25} {
			off, ok := idx.SpectrumOffset(id)
			require.True(t, ok)
			s, err := rd.SpectrumAt(off)
			require.NoError(t, err)
			assert.Equal(t, exp.Spectra[id].Peaks, s.Peaks)
		}
	})

	t.Run("StreamingCreate", func(t *testing.T) {
		w, err := store.Create(ctx, "streamed.cached")
		require.NoError(t, err)
		_, err = w.Write(buf.Bytes())
		require.NoError(t, err)
		require.NoError(t, w.Close())
		defer func() { _ = store.Delete(ctx, "streamed.cached") }()

		blob, err := store.Open(ctx, "streamed.cached")
		require.NoError(t, err)
		defer blob.Close()
		_, err = index.Build(blobstore.NewReadSeeker(ctx, blob))
		require.NoError(t, err)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := store.Open(ctx, "missing.cached")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})
}
