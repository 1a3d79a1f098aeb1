package minio

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hupe1980/mzcache"
	"github.com/hupe1980/mzcache/blobstore"
	"github.com/hupe1980/mzcache/testutil"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requires a MinIO server at MINIO_ENDPOINT with the default credentials
// unless MINIO_ACCESS_KEY and MINIO_SECRET_KEY are set.
func TestIntegration_MinioStore(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINIO_ENDPOINT not set")
	}
	access, secret := os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY")
	if access == "" {
		access, secret = "minioadmin", "minioadmin"
	}
	ctx := context.Background()

	const bucket = "mzcache-test"
	store, err := Dial(endpoint, access, secret, false, bucket, fmt.Sprintf("run-%d/", time.Now().UnixNano()))
	require.NoError(t, err)
	if _, err := store.client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not reachable: %v", err)
	}
	ok, err := store.client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !ok {
		require.NoError(t, store.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	exp := testutil.NewRNG(11).Experiment(testutil.ExperimentConfig{Spectra: 40, Chromatograms: 2, MaxPeaks: 200, MaxPoints: 50})
	basename := filepath.Join(t.TempDir(), "run01")
	require.NoError(t, mzcache.Save(exp, basename))

	sidecar, err := os.ReadFile(basename)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "run01", sidecar))

	// The cache file goes up through the streaming writer.
	f, err := os.Open(mzcache.CachePath(basename))
	require.NoError(t, err)
	defer f.Close()
	w, err := store.Create(ctx, "run01.cached")
	require.NoError(t, err)
	_, err = io.Copy(w, f)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	names, err := store.List(ctx, "run01")
	require.NoError(t, err)
	assert.Equal(t, []string{"run01", "run01.cached"}, names)

	c, err := mzcache.OpenStore(ctx, store, "run01")
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, 40, c.NumSpectra())

	for _, id := range []int{39, 0, 17} {
		s, err := c.Spectrum(id)
		require.NoError(t, err)
		assert.Equal(t, exp.Spectra[id].Peaks, s.Peaks)
	}
	ch, err := c.Chromatogram(1)
	require.NoError(t, err)
	assert.Equal(t, exp.Chromatograms[1].Points, ch.Points)

	blob, err := store.Open(ctx, "run01.cached")
	require.NoError(t, err)
	rc, err := blob.ReadRange(ctx, 0, 4)
	require.NoError(t, err)
	magic, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.NoError(t, blob.Close())
	assert.Equal(t, []byte{0x9d, 0x1f, 0, 0}, magic)

	for _, name := range names {
		require.NoError(t, store.Delete(ctx, name))
	}
	_, err = store.Open(ctx, "run01.cached")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStore_Keys(t *testing.T) {
	s := NewStore(nil, "b", "runs/")
	assert.Equal(t, "runs/a.cached", s.key("a.cached"))
	assert.Equal(t, "a.cached", s.relName("runs/a.cached"))

	s = NewStore(nil, "b", "")
	assert.Equal(t, "a.cached", s.key("a.cached"))
	assert.Equal(t, "x/a", s.relName("x/a"))
}

func TestWritableBlob_DoubleClose(t *testing.T) {
	pr, pw := io.Pipe()
	b := &minioWritableBlob{pw: pw, done: make(chan error, 1)}
	go func() {
		_, err := io.ReadAll(pr)
		b.done <- err
	}()

	_, err := b.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, b.Close())
	assert.ErrorIs(t, b.Close(), ErrClosed)

	_, err = b.Write([]byte("y"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, b.Abort())
}

func TestTranslate(t *testing.T) {
	err := translate("run01.cached", minio.ErrorResponse{Code: "NoSuchKey"})
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	err = translate("run01.cached", minio.ErrorResponse{Code: "PreconditionFailed"})
	assert.ErrorIs(t, err, ErrChanged)

	other := minio.ErrorResponse{Code: "AccessDenied"}
	assert.Equal(t, error(other), translate("run01.cached", other))
}

func TestBlob_LocalEdges(t *testing.T) {
	b := &minioBlob{name: "run01.cached", size: 10}
	ctx := context.Background()

	_, err := b.ReadAt(ctx, make([]byte, 1), -1)
	assert.Error(t, err)
	n, err := b.ReadAt(ctx, nil, 3)
	assert.Zero(t, n)
	assert.NoError(t, err)
	_, err = b.ReadAt(ctx, make([]byte, 1), 10)
	assert.ErrorIs(t, err, io.EOF)

	rc, err := b.ReadRange(ctx, 10, 5)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = b.ReadRange(ctx, 11, 1)
	assert.ErrorIs(t, err, io.EOF)
}
