package blobstore

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Open(ctx, "x")
	require.ErrorIs(t, err, ErrNotFound)

	src := []byte("0123456789")
	require.NoError(t, store.Put(ctx, "x", src))
	src[0] = 'z'

	w, err := store.Create(ctx, "y")
	require.NoError(t, err)
	_, err = w.Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, names)

	blob, err := store.Open(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, int64(10), blob.Size())

	buf := make([]byte, 4)
	n, err := blob.ReadAt(ctx, buf, 8)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "89", string(buf[:n]))

	n, err = blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "0123", string(buf[:n]))

	rc, err := blob.ReadRange(ctx, 2, 3)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "234", string(got))

	m, ok := blob.(Mappable)
	require.True(t, ok)
	b, err := m.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(b))

	require.NoError(t, store.Put(ctx, "x", []byte("new")))
	assert.Equal(t, int64(10), blob.Size(), "open blob keeps its version")

	require.NoError(t, store.Delete(ctx, "x"))
	_, err = store.Open(ctx, "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_WritableLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	w, err := store.Create(ctx, "empty")
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Error(t, w.Close())
	_, err = w.Write([]byte("x"))
	assert.Error(t, err)

	blob, err := store.Open(ctx, "empty")
	require.NoError(t, err)
	assert.Zero(t, blob.Size())

	w, err = store.Create(ctx, "aborted")
	require.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, Abort(ctx, w))
	_, err = store.Open(ctx, "aborted")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewCursor(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "b", []byte("abcdef")))
	blob, err := store.Open(ctx, "b")
	require.NoError(t, err)

	_, direct := NewCursor(ctx, blob).(*bytes.Reader)
	assert.True(t, direct)

	wrapped := struct{ Blob }{blob}
	cur := NewCursor(ctx, wrapped)
	_, generic := cur.(*ReadSeeker)
	assert.True(t, generic)

	got, err := io.ReadAll(cur)
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(got))
}

func TestReadSeeker(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "b", []byte("abcdefgh")))

	blob, err := store.Open(ctx, "b")
	require.NoError(t, err)

	rs := NewReadSeeker(ctx, blob)
	assert.Equal(t, int64(8), rs.Size())

	buf := make([]byte, 3)
	_, err = io.ReadFull(rs, buf)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(buf))

	pos, err := rs.Seek(2, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(5), pos)

	rest, err := io.ReadAll(rs)
	require.NoError(t, err)
	assert.Equal(t, "fgh", string(rest))

	end, err := rs.Seek(0, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(8), end)

	_, err = rs.Seek(-1, io.SeekStart)
	assert.Error(t, err)

	n, err := rs.ReadAt(buf, 1)
	require.NoError(t, err)
	assert.Equal(t, "bcd", string(buf[:n]))

	// ReadAt does not move the cursor.
	_, err = rs.Read(buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadSeeker_Independent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "b", []byte("abcdefgh")))
	blob, err := store.Open(ctx, "b")
	require.NoError(t, err)

	a := NewReadSeeker(ctx, blob)
	b := NewReadSeeker(ctx, blob)
	_, err = a.Seek(4, io.SeekStart)
	require.NoError(t, err)

	buf := make([]byte, 2)
	_, err = io.ReadFull(b, buf)
	require.NoError(t, err)
	assert.Equal(t, "ab", string(buf))

	_, err = io.ReadFull(a, buf)
	require.NoError(t, err)
	assert.Equal(t, "ef", string(buf))
}
