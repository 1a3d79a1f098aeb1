package persistence

import "io"

// CountingWriter counts the bytes its underlying writer accepts. While a
// cache file is written, N is the offset of the next record.
type CountingWriter struct {
	W io.Writer
	N int64
}

func NewCountingWriter(w io.Writer) *CountingWriter { return &CountingWriter{W: w} }

func (c *CountingWriter) Write(p []byte) (int, error) {
	n, err := c.W.Write(p)
	c.N += int64(n)
	return n, err
}
