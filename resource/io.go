package resource

import (
	"context"
	"io"
)

// meter charges every transfer to a Controller's I/O budget.
type meter struct {
	ctx context.Context
	rc  *Controller
}

func (m meter) charge(n int) error { return m.rc.AcquireIO(m.ctx, n) }

// RateLimitedWriter is an io.Writer that waits for I/O budget before each
// write.
type RateLimitedWriter struct {
	meter
	w io.Writer
}

func NewRateLimitedWriter(ctx context.Context, w io.Writer, rc *Controller) *RateLimitedWriter {
	return &RateLimitedWriter{meter: meter{ctx, rc}, w: w}
}

func (w *RateLimitedWriter) Write(p []byte) (int, error) {
	if err := w.charge(len(p)); err != nil {
		return 0, err
	}
	return w.w.Write(p)
}

// RateLimitedReader is an io.Reader that waits for I/O budget before each
// read. It charges len(p), the most one read can return.
type RateLimitedReader struct {
	meter
	r io.Reader
}

func NewRateLimitedReader(ctx context.Context, r io.Reader, rc *Controller) *RateLimitedReader {
	return &RateLimitedReader{meter: meter{ctx, rc}, r: r}
}

func (r *RateLimitedReader) Read(p []byte) (int, error) {
	if err := r.charge(len(p)); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// RateLimitedReadSeeker is a RateLimitedReader whose seeks are free, which
// suits record-at-offset access.
type RateLimitedReadSeeker struct {
	RateLimitedReader
	s io.Seeker
}

func NewRateLimitedReadSeeker(ctx context.Context, rs io.ReadSeeker, rc *Controller) *RateLimitedReadSeeker {
	return &RateLimitedReadSeeker{RateLimitedReader: *NewRateLimitedReader(ctx, rs, rc), s: rs}
}

func (r *RateLimitedReadSeeker) Seek(offset int64, whence int) (int64, error) {
	return r.s.Seek(offset, whence)
}
