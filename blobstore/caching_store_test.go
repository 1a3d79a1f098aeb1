package blobstore

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/hupe1980/mzcache/internal/cache"
	"github.com/hupe1980/mzcache/testutil"
	"github.com/hupe1980/mzcache/writer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// remoteStore stands in for a network store: a MemoryStore whose blobs count
// the backend requests and bytes they serve.
type remoteStore struct {
	*MemoryStore
	mu       sync.Mutex
	requests int
	bytes    int
}

func newRemoteStore() *remoteStore { return &remoteStore{MemoryStore: NewMemoryStore()} }

func (s *remoteStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.MemoryStore.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &remoteBlob{Blob: b, store: s}, nil
}

func (s *remoteStore) counts() (requests, bytes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests, s.bytes
}

type remoteBlob struct {
	Blob
	store *remoteStore
}

func (b *remoteBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	n, err := b.Blob.ReadAt(ctx, p, off)
	b.store.mu.Lock()
	b.store.requests++
	b.store.bytes += n
	b.store.mu.Unlock()
	return n, err
}

func sequence(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func TestCachingStore_ReadAt(t *testing.T) {
	ctx := context.Background()
	data := sequence(1024)
	inner := newRemoteStore()
	require.NoError(t, inner.Put(ctx, "run01.cached", data))

	store := NewCachingStore(inner, cache.NewLRU(1<<20, nil), 256)
	blob, err := store.Open(ctx, "run01.cached")
	require.NoError(t, err)
	assert.Equal(t, int64(1024), blob.Size())

	header := make([]byte, 20)
	_, err = blob.ReadAt(ctx, header, 0)
	require.NoError(t, err)
	assert.Equal(t, data[:20], header)
	requests, n := inner.counts()
	assert.Equal(t, 1, requests)
	assert.Equal(t, 256, n, "whole block fetched")

	_, err = blob.ReadAt(ctx, header, 100)
	require.NoError(t, err)
	requests, _ = inner.counts()
	assert.Equal(t, 1, requests, "served from block 0")

	// [200, 300) spans cached block 0 and block 1.
	rec := make([]byte, 100)
	_, err = blob.ReadAt(ctx, rec, 200)
	require.NoError(t, err)
	assert.Equal(t, data[200:300], rec)
	requests, n = inner.counts()
	assert.Equal(t, 2, requests)
	assert.Equal(t, 512, n)
}

func TestCachingStore_CoalescesMissingRun(t *testing.T) {
	ctx := context.Background()
	inner := newRemoteStore()
	require.NoError(t, inner.Put(ctx, "run01.cached", sequence(1024)))
	store := NewCachingStore(inner, cache.NewLRU(1<<20, nil), 128)

	blob, err := store.Open(ctx, "run01.cached")
	require.NoError(t, err)
	n, err := blob.ReadAt(ctx, make([]byte, 1024), 0)
	require.NoError(t, err)
	assert.Equal(t, 1024, n)

	requests, _ := inner.counts()
	assert.Equal(t, 1, requests, "eight missing blocks in one request")
}

func TestCachingStore_ShortBlob(t *testing.T) {
	ctx := context.Background()
	inner := newRemoteStore()
	require.NoError(t, inner.Put(ctx, "run01", []byte("{}")))
	store := NewCachingStore(inner, cache.NewLRU(1024, nil), 256)

	blob, err := store.Open(ctx, "run01")
	require.NoError(t, err)

	buf := make([]byte, 10)
	n, err := blob.ReadAt(ctx, buf, 0)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "{}", string(buf[:n]))

	_, err = blob.ReadAt(ctx, buf, 2)
	assert.ErrorIs(t, err, io.EOF)
}

func TestCachingStore_RewriteDropsBlocks(t *testing.T) {
	ctx := context.Background()
	inner := newRemoteStore()
	c := cache.NewLRU(1<<20, nil)
	store := NewCachingStore(inner, c, 4)

	require.NoError(t, store.Put(ctx, "run01.cached", []byte("aaaaaaaa")))
	blob, err := store.Open(ctx, "run01.cached")
	require.NoError(t, err)
	buf := make([]byte, 8)
	_, err = blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Stats().Blocks)

	require.NoError(t, store.Put(ctx, "run01.cached", []byte("bbbbbbbb")))
	assert.Zero(t, c.Stats().Blocks)

	blob, err = store.Open(ctx, "run01.cached")
	require.NoError(t, err)
	_, err = blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "bbbbbbbb", string(buf))

	w, err := store.Create(ctx, "run01.cached")
	require.NoError(t, err)
	assert.Zero(t, c.Stats().Blocks)
	require.NoError(t, Abort(ctx, w))

	_, err = blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, "run01.cached"))
	assert.Zero(t, c.Stats().Blocks)
}

func TestCachingStore_ReadRange(t *testing.T) {
	ctx := context.Background()
	inner := newRemoteStore()
	require.NoError(t, inner.Put(ctx, "b", []byte("0123456789abcdef")))
	store := NewCachingStore(inner, cache.NewSharded(1<<20, 8, nil), 4)

	blob, err := store.Open(ctx, "b")
	require.NoError(t, err)

	rc, err := blob.ReadRange(ctx, 3, 10)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "3456789abc", string(got))

	rc, err = blob.ReadRange(ctx, 12, 100)
	require.NoError(t, err)
	got, err = io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "cdef", string(got))
}

// A cache file read record by record through the block cache matches the
// bytes written, and repeated passes cost no further requests.
func TestCachingStore_CacheFile(t *testing.T) {
	ctx := context.Background()
	exp := testutil.NewRNG(5).Experiment(testutil.ExperimentConfig{Spectra: 30, Chromatograms: 2, MaxPeaks: 120, MaxPoints: 40})
	var buf bytes.Buffer
	_, err := writer.New().WriteTo(&buf, exp)
	require.NoError(t, err)

	inner := newRemoteStore()
	require.NoError(t, inner.Put(ctx, "run01.cached", buf.Bytes()))
	store := NewCachingStore(inner, cache.NewSharded(1<<20, 4, nil), 1024)

	blob, err := store.Open(ctx, "run01.cached")
	require.NoError(t, err)
	defer blob.Close()

	for pass := range 2 {
		got, err := io.ReadAll(NewReadSeeker(ctx, blob))
		require.NoError(t, err)
		assert.Equal(t, buf.Bytes(), got, "pass %d", pass)
	}
	requests, n := inner.counts()
	assert.Equal(t, buf.Len(), n)
	assert.LessOrEqual(t, requests, (buf.Len()+1023)/1024)
}

func TestCachingStore_Cancelled(t *testing.T) {
	inner := newRemoteStore()
	require.NoError(t, inner.Put(context.Background(), "b", []byte("abc")))
	store := NewCachingStore(inner, cache.NewLRU(1024, nil), 4)

	blob, err := store.Open(context.Background(), "b")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = blob.ReadAt(ctx, make([]byte, 2), 0)
	assert.ErrorIs(t, err, context.Canceled)
}
