// Package index scans a cache file and records the byte offset of every
// spectrum and chromatogram record.
//
// Building an index reads only the fixed record headers: after each header
// the scan skips the value arrays using persistence.SpectrumRecordSize and
// persistence.ChromatogramRecordSize, the same arithmetic the codec uses.
// The scan fails with a *persistence.FormatError when a record reaches past
// the end of the file or when bytes remain after the last record.
//
// An OffsetIndex is immutable once built and may be shared between any
// number of readers. Registry caches indices per file so that each file is
// scanned at most once per process.
package index
