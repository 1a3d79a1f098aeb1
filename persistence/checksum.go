package persistence

import (
	"fmt"
	"hash/crc32"
	"io"
)

// Transferred cache files carry an IEEE CRC32 of their plain bytes. It
// catches corruption in transit, not tampering.

var ieee = crc32.MakeTable(crc32.IEEE)

// ComputeChecksum returns the CRC32 of data.
func ComputeChecksum(data []byte) uint32 { return crc32.Checksum(data, ieee) }

// tally is the running CRC32 and byte count shared by ChecksumWriter and
// ChecksumReader.
type tally struct {
	sum uint32
	n   int64
}

func (t *tally) add(p []byte) {
	t.sum = crc32.Update(t.sum, ieee, p)
	t.n += int64(len(p))
}

// Sum is the CRC32 of the bytes seen so far.
func (t *tally) Sum() uint32 { return t.sum }

// ChecksumWriter tallies the bytes its underlying writer accepts.
type ChecksumWriter struct {
	tally
	w io.Writer
}

func NewChecksumWriter(w io.Writer) *ChecksumWriter { return &ChecksumWriter{w: w} }

func (cw *ChecksumWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.add(p[:n])
	return n, err
}

// Written is the number of bytes accepted so far.
func (cw *ChecksumWriter) Written() int64 { return cw.n }

// ChecksumReader tallies the bytes read through it.
type ChecksumReader struct {
	tally
	r io.Reader
}

func NewChecksumReader(r io.Reader) *ChecksumReader { return &ChecksumReader{r: r} }

func (cr *ChecksumReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.add(p[:n])
	return n, err
}

// Count is the number of bytes read so far.
func (cr *ChecksumReader) Count() int64 { return cr.n }

// Verify compares the running checksum with expected.
func (cr *ChecksumReader) Verify(expected uint32) error {
	if got := cr.Sum(); got != expected {
		return &ChecksumMismatchError{Expected: expected, Actual: got}
	}
	return nil
}

// ChecksumMismatchError reports a payload whose CRC32 differs from the one
// recorded for it. It matches ErrFormat.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
}

func (e *ChecksumMismatchError) Is(target error) bool { return target == ErrFormat }
