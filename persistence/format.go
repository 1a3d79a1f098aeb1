package persistence

import "math"

const (
	// MagicNumber identifies a spectrum cache file.
	MagicNumber int32 = 8093

	// ValueSize is the on-disk width of every value (f64).
	ValueSize = 8

	// FileHeaderSize is magic(i32) + spectrum_count(u64) + chromatogram_count(u64).
	FileHeaderSize = 4 + 8 + 8
	// SpectrumHeaderSize is peak_count(u64) + ms_level(i32) + retention_time(f64).
	SpectrumHeaderSize = 8 + 4 + 8
	// ChromatogramHeaderSize is point_count(u64).
	ChromatogramHeaderSize = 8

	// MaxValueCount is the largest peak or point count whose record size
	// still fits into an int64 offset.
	MaxValueCount = (math.MaxInt64 - SpectrumHeaderSize) / (2 * ValueSize)
)

// FileHeader is the fixed header at the start of every cache file.
type FileHeader struct {
	Magic             int32
	SpectrumCount     uint64
	ChromatogramCount uint64
}

// SpectrumHeader is the fixed part of a spectrum record.
type SpectrumHeader struct {
	PeakCount uint64
	MSLevel   int32
	RT        float64
}

// ChromatogramHeader is the fixed part of a chromatogram record.
type ChromatogramHeader struct {
	PointCount uint64
}

// SpectrumRecordSize returns the encoded size of a spectrum record with n peaks.
func SpectrumRecordSize(n uint64) int64 {
	return SpectrumHeaderSize + valuesSize(n)
}

// ChromatogramRecordSize returns the encoded size of a chromatogram record
// with n points.
func ChromatogramRecordSize(n uint64) int64 {
	return ChromatogramHeaderSize + valuesSize(n)
}

// valuesSize is the size of the two parallel value arrays.
func valuesSize(n uint64) int64 {
	return int64(n) * 2 * ValueSize
}

// MinFileSize returns the smallest file that can hold the given counts, that
// is, every record with zero values.
func MinFileSize(h FileHeader) (int64, bool) {
	const maxRecords = (math.MaxInt64 - FileHeaderSize) / SpectrumHeaderSize
	if h.SpectrumCount > maxRecords || h.ChromatogramCount > maxRecords {
		return 0, false
	}
	size := int64(FileHeaderSize) +
		int64(h.SpectrumCount)*SpectrumHeaderSize +
		int64(h.ChromatogramCount)*ChromatogramHeaderSize
	if size < 0 {
		return 0, false
	}
	return size, true
}
