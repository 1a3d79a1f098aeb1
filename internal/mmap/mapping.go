package mmap

import (
	"io"
	"math"
	"os"
	"sync/atomic"
)

// Mapping is a read-only view of a whole cache file.
type Mapping struct {
	data   []byte
	unmap  func([]byte) error
	closed atomic.Bool
}

// Open maps path. Empty files yield an empty Mapping without a system
// mapping behind it.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	// Closing the descriptor leaves the mapping intact.
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	switch n := info.Size(); {
	case n == 0:
		return &Mapping{}, nil
	case n > math.MaxInt:
		return nil, ErrInvalidSize
	default:
		data, unmap, err := osMap(f, int(n))
		if err != nil {
			return nil, &os.PathError{Op: "mmap", Path: path, Err: err}
		}
		return &Mapping{data: data, unmap: unmap}, nil
	}
}

// Bytes returns the mapped file, or nil once closed.
func (m *Mapping) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// Size is the file size at the time of Open.
func (m *Mapping) Size() int64 { return int64(len(m.data)) }

// Range returns the mapped bytes [off, off+n), clipped to the file end.
func (m *Mapping) Range(off, n int64) ([]byte, error) {
	data := m.Bytes()
	switch {
	case data == nil && m.closed.Load():
		return nil, ErrClosed
	case off < 0 || n < 0:
		return nil, ErrInvalidOffset
	case off > int64(len(data)):
		return nil, io.EOF
	}
	return data[off:min(off+n, int64(len(data)))], nil
}

// ReadAt copies from the mapping with io.ReaderAt semantics.
func (m *Mapping) ReadAt(p []byte, off int64) (int, error) {
	src, err := m.Range(off, int64(len(p)))
	if err != nil {
		if err == io.EOF && len(p) == 0 {
			return 0, nil
		}
		return 0, err
	}
	n := copy(p, src)
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *Mapping) Advise(hint Hint) error {
	if m.closed.Load() {
		return ErrClosed
	}
	return osAdvise(m.data, hint)
}

// Close unmaps the file. Later calls are no-ops.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) || m.unmap == nil {
		return nil
	}
	return m.unmap(m.data)
}
