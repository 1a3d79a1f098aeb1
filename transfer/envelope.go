package transfer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hupe1980/mzcache/internal/conv"
	"github.com/hupe1980/mzcache/persistence"
)

// EnvelopeSize is the size of the envelope header in bytes.
const EnvelopeSize = 24

// EnvelopeVersion is the only envelope version written and accepted.
const EnvelopeVersion = 1

var envelopeMagic = [4]byte{'M', 'Z', 'C', 'T'}

// ErrInvalidEnvelope is the cause of a FormatError raised for a blob that
// does not start with a valid envelope.
var ErrInvalidEnvelope = errors.New("invalid transfer envelope")

// Compression selects the payload compression.
type Compression uint8

const (
	// CompressionNone stores the payload as is.
	CompressionNone Compression = 0
	// CompressionLZ4 uses the lz4 frame format (fast).
	CompressionLZ4 Compression = 1
	// CompressionZstd uses zstd (better ratio).
	CompressionZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	}
	return fmt.Sprintf("compression(%d)", uint8(c))
}

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd", "zst":
		return CompressionZstd, nil
	}
	return 0, fmt.Errorf("transfer: unknown compression %q", s)
}

func (c Compression) valid() bool {
	return c <= CompressionZstd
}

// Envelope is the decoded envelope header.
type Envelope struct {
	Compression Compression
	Size        uint64
	Checksum    uint32
}

// MarshalBinary encodes the envelope header.
func (e Envelope) MarshalBinary() ([]byte, error) {
	var b [EnvelopeSize]byte
	copy(b[0:4], envelopeMagic[:])
	b[4] = EnvelopeVersion
	b[5] = byte(e.Compression)
	binary.LittleEndian.PutUint64(b[8:16], e.Size)
	binary.LittleEndian.PutUint32(b[16:20], e.Checksum)
	return b[:], nil
}

// ReadEnvelope reads and validates an envelope header from r.
func ReadEnvelope(r io.Reader) (Envelope, error) {
	var b [EnvelopeSize]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Envelope{}, persistence.NewFormatError(0, "envelope", EnvelopeSize, nil, ErrInvalidEnvelope)
		}
		return Envelope{}, persistence.WrapIO("read", 0, err)
	}
	if [4]byte(b[0:4]) != envelopeMagic {
		return Envelope{}, persistence.NewFormatError(0, "magic", string(envelopeMagic[:]), fmt.Sprintf("%q", b[0:4]), ErrInvalidEnvelope)
	}
	if b[4] != EnvelopeVersion {
		return Envelope{}, persistence.NewFormatError(4, "version", EnvelopeVersion, b[4], ErrInvalidEnvelope)
	}
	e := Envelope{
		Compression: Compression(b[5]),
		Size:        binary.LittleEndian.Uint64(b[8:16]),
		Checksum:    binary.LittleEndian.Uint32(b[16:20]),
	}
	if !e.Compression.valid() {
		return Envelope{}, persistence.NewFormatError(5, "compression", "0..2", b[5], ErrInvalidEnvelope)
	}
	if _, err := conv.Uint64ToInt64(e.Size); err != nil {
		return Envelope{}, persistence.NewFormatError(8, "size", "< 2^63-1", e.Size, ErrInvalidEnvelope)
	}
	return e, nil
}
