package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
)

// ReadSeeker is a private cursor over a Blob. Each reader of a cache gets
// its own ReadSeeker, while the Blob itself may be shared.
type ReadSeeker struct {
	ctx  context.Context
	blob Blob
	off  int64
}

var (
	_ io.ReadSeeker = (*ReadSeeker)(nil)
	_ io.ReaderAt   = (*ReadSeeker)(nil)
)

// NewReadSeeker returns a cursor positioned at the start of blob. ctx is
// used for every read issued through the cursor.
func NewReadSeeker(ctx context.Context, blob Blob) *ReadSeeker {
	return &ReadSeeker{ctx: ctx, blob: blob}
}

// Read implements io.Reader.
func (r *ReadSeeker) Read(p []byte) (int, error) {
	if r.off >= r.blob.Size() {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	if rem := r.blob.Size() - r.off; int64(len(p)) > rem {
		p = p[:rem]
	}
	n, err := r.blob.ReadAt(r.ctx, p, r.off)
	r.off += int64(n)
	if errors.Is(err, io.EOF) && n > 0 {
		err = nil
	}
	return n, err
}

// ReadAt implements io.ReaderAt without moving the cursor.
func (r *ReadSeeker) ReadAt(p []byte, off int64) (int, error) {
	return r.blob.ReadAt(r.ctx, p, off)
}

// Seek implements io.Seeker.
func (r *ReadSeeker) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.off + offset
	case io.SeekEnd:
		abs = r.blob.Size() + offset
	default:
		return 0, errors.New("blobstore: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("blobstore: negative position")
	}
	r.off = abs
	return abs, nil
}

// Size returns the size of the underlying blob.
func (r *ReadSeeker) Size() int64 { return r.blob.Size() }

// NewCursor returns a cursor over blob. Mappable blobs are read straight
// from their bytes; every other blob goes through a ReadSeeker.
func NewCursor(ctx context.Context, blob Blob) io.ReadSeeker {
	if m, ok := blob.(Mappable); ok {
		if data, err := m.Bytes(); err == nil {
			return bytes.NewReader(data)
		}
	}
	return NewReadSeeker(ctx, blob)
}
