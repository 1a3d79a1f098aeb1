package mmap

import "errors"

// Hint tells the kernel how a mapped cache file is going to be read.
type Hint uint8

const (
	// HintNormal drops any earlier hint.
	HintNormal Hint = iota
	// HintRecords suits lookups of single records by offset. Readahead is
	// wasted on them since neighbouring records are rarely wanted next.
	HintRecords
	// HintScan suits a front-to-back pass such as a full verification.
	HintScan
)

var (
	// ErrClosed is returned by reads on an unmapped file.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize is returned when a file is too large for the address space.
	ErrInvalidSize = errors.New("mmap: file too large to map")
	// ErrInvalidOffset is returned for negative read offsets.
	ErrInvalidOffset = errors.New("mmap: negative offset")
)
