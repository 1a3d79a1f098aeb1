package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat marks every format error. Use errors.Is(err, ErrFormat).
	ErrFormat = errors.New("invalid cache format")

	// ErrIO marks every I/O error. Use errors.Is(err, ErrIO).
	ErrIO = errors.New("cache i/o failure")

	// ErrInvalidMagic is the cause of a FormatError raised for a bad magic number.
	ErrInvalidMagic = errors.New("invalid magic number")

	// ErrLengthMismatch is the cause of a FormatError raised when parallel
	// value arrays differ in length.
	ErrLengthMismatch = errors.New("array length mismatch")

	// ErrTruncated is the cause of a FormatError raised when a record reaches
	// past the end of the file.
	ErrTruncated = errors.New("record extends past end of file")
)

// FormatError reports a cache file whose bytes do not follow the layout.
// The whole file must be treated as unusable.
type FormatError struct {
	// Offset is the byte offset of the offending record or field (-1 if unknown).
	Offset   int64
	Field    string
	Expected any
	Actual   any
	cause    error
}

// NewFormatError returns a FormatError for field at offset.
func NewFormatError(offset int64, field string, expected, actual any, cause error) *FormatError {
	return &FormatError{Offset: offset, Field: field, Expected: expected, Actual: actual, cause: cause}
}

func (e *FormatError) Error() string {
	msg := "invalid cache format"
	if e.cause != nil {
		msg = e.cause.Error()
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Field)
	}
	if e.Offset >= 0 {
		msg = fmt.Sprintf("%s at offset %d", msg, e.Offset)
	}
	if e.Expected != nil || e.Actual != nil {
		msg = fmt.Sprintf("%s (expected %v, got %v)", msg, e.Expected, e.Actual)
	}
	return msg
}

// Is makes every FormatError match ErrFormat.
func (e *FormatError) Is(target error) bool { return target == ErrFormat }

func (e *FormatError) Unwrap() error { return e.cause }

// IOError reports a failed read, write, seek or open. Short reads are
// reported as IOError wrapping io.ErrUnexpectedEOF.
type IOError struct {
	Op     string
	Path   string
	Offset int64 // -1 if unknown
	Err    error
}

func (e *IOError) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg = fmt.Sprintf("%s %s", msg, e.Path)
	}
	if e.Offset >= 0 {
		msg = fmt.Sprintf("%s at offset %d", msg, e.Offset)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

// Is makes every IOError match ErrIO.
func (e *IOError) Is(target error) bool { return target == ErrIO }

func (e *IOError) Unwrap() error { return e.Err }

// WrapIO annotates err with the operation and offset at which it happened.
// Format and I/O errors pass through unchanged so that the innermost, most
// precise context wins.
func WrapIO(op string, offset int64, err error) error {
	if err == nil {
		return nil
	}
	var fe *FormatError
	if errors.As(err, &fe) {
		return err
	}
	var ie *IOError
	if errors.As(err, &ie) {
		return err
	}
	return &IOError{Op: op, Offset: offset, Err: err}
}

// IsFormatError reports whether err is, or wraps, a FormatError.
func IsFormatError(err error) bool { return errors.Is(err, ErrFormat) }

// IsIOError reports whether err is, or wraps, an IOError.
func IsIOError(err error) bool { return errors.Is(err, ErrIO) }
