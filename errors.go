package mzcache

import (
	"errors"
	"fmt"

	"github.com/hupe1980/mzcache/persistence"
)

var (
	// ErrFormat marks malformed cache files. See persistence.FormatError.
	ErrFormat = persistence.ErrFormat

	// ErrIO marks read failures. See persistence.IOError.
	ErrIO = persistence.ErrIO

	// ErrIndexOutOfRange marks an id outside the valid range. See IndexError.
	ErrIndexOutOfRange = errors.New("id out of range")

	// ErrInvalidRTWindow is returned for a negative or non-finite RT window.
	ErrInvalidRTWindow = errors.New("invalid retention time window")

	// ErrMetadataMismatch is returned when metadata and cache file disagree
	// on the number of records.
	ErrMetadataMismatch = errors.New("metadata does not match cache file")

	// ErrClosed is returned when using a closed Cache.
	ErrClosed = errors.New("cache closed")
)

// RecordKind names a record type in errors and logs.
type RecordKind string

const (
	KindSpectrum     RecordKind = "spectrum"
	KindChromatogram RecordKind = "chromatogram"
)

// IndexError reports an id outside [0, Count). It is raised before the
// cache file is touched.
type IndexError struct {
	Kind  RecordKind
	ID    int
	Count int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s id %d out of range [0, %d)", e.Kind, e.ID, e.Count)
}

// Is makes every IndexError match ErrIndexOutOfRange.
func (e *IndexError) Is(target error) bool { return target == ErrIndexOutOfRange }

// MismatchError details ErrMetadataMismatch.
type MismatchError struct {
	Kind     RecordKind
	Metadata int
	Cache    int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("metadata has %d %s records, cache file has %d", e.Metadata, e.Kind, e.Cache)
}

func (e *MismatchError) Unwrap() error { return ErrMetadataMismatch }

// recordError attaches the record id to a read error.
func recordError(kind RecordKind, id int, err error) error {
	return fmt.Errorf("%s %d: %w", kind, id, err)
}
