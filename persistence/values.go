package persistence

import (
	"encoding/binary"
	"io"
	"math"
	"unsafe"
)

// nativeLittleEndian is true when []float64 memory already has the on-disk
// byte order, which enables the zero-copy paths below.
var nativeLittleEndian = isLittleEndian()

func isLittleEndian() bool {
	var test uint16 = 0x0001
	return *(*byte)(unsafe.Pointer(&test)) == 1
}

// chunkValues bounds the stack buffer used by the portable fallback.
const chunkValues = 512

// float64Bytes views v as raw bytes. The result aliases v.
func float64Bytes(v []float64) []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(v))), len(v)*ValueSize)
}

// WriteValues writes v as consecutive little-endian f64 values.
func WriteValues(w io.Writer, v []float64) error {
	if len(v) == 0 {
		return nil
	}
	if nativeLittleEndian {
		_, err := w.Write(float64Bytes(v))
		return err
	}
	var buf [chunkValues * ValueSize]byte
	for len(v) > 0 {
		n := min(len(v), chunkValues)
		for i := 0; i < n; i++ {
			binary.LittleEndian.PutUint64(buf[i*ValueSize:], math.Float64bits(v[i]))
		}
		if _, err := w.Write(buf[:n*ValueSize]); err != nil {
			return err
		}
		v = v[n:]
	}
	return nil
}

// ReadValues fills v with consecutive little-endian f64 values from r.
// A stream that ends early yields io.ErrUnexpectedEOF (or io.EOF when nothing
// was read).
func ReadValues(r io.Reader, v []float64) error {
	if len(v) == 0 {
		return nil
	}
	if nativeLittleEndian {
		_, err := io.ReadFull(r, float64Bytes(v))
		return err
	}
	var buf [chunkValues * ValueSize]byte
	read := 0
	for len(v) > 0 {
		n := min(len(v), chunkValues)
		if _, err := io.ReadFull(r, buf[:n*ValueSize]); err != nil {
			if err == io.EOF && read > 0 {
				err = io.ErrUnexpectedEOF
			}
			return err
		}
		for i := 0; i < n; i++ {
			v[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*ValueSize:]))
		}
		read += n
		v = v[n:]
	}
	return nil
}

// resize returns s with length n, reusing its capacity when possible.
func resize(s []float64, n int) []float64 {
	if cap(s) >= n {
		return s[:n]
	}
	return make([]float64, n)
}
