package persistence

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/hupe1980/mzcache/internal/fs"
)

// DefaultBufferSize is the write buffer used by SaveToFile.
const DefaultBufferSize = 256 * 1024

var tmpSeq atomic.Uint64

// SaveOptions controls SaveToFile.
type SaveOptions struct {
	FS         fs.FileSystem
	BufferSize int
}

// SaveToFile writes a file atomically: the content goes to a temporary file in
// the same directory which is synced and then renamed over filename. On error
// the temporary file is removed and any existing filename is left untouched.
//
// Errors are returned as *IOError unless writeFunc itself returned a format
// error.
func SaveToFile(filename string, opts SaveOptions, writeFunc func(io.Writer) error) (err error) {
	fsys := opts.FS
	if fsys == nil {
		fsys = fs.Default
	}
	size := opts.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}

	dir := filepath.Dir(filename)
	tmpName := filepath.Join(dir, fmt.Sprintf("%s.tmp-%d-%d", filepath.Base(filename), time.Now().UnixNano(), tmpSeq.Add(1)))

	tmp, err := fsys.OpenFile(tmpName, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return &IOError{Op: "create", Path: filename, Offset: -1, Err: err}
	}
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = fsys.Remove(tmpName)
		}
	}()

	buf := bufio.NewWriterSize(tmp, size)
	cw := NewCountingWriter(buf)
	if err := writeFunc(cw); err != nil {
		if IsFormatError(err) {
			return err
		}
		return &IOError{Op: "write", Path: filename, Offset: cw.N, Err: unwrapIO(err)}
	}
	if err := buf.Flush(); err != nil {
		return &IOError{Op: "write", Path: filename, Offset: -1, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return &IOError{Op: "sync", Path: filename, Offset: -1, Err: err}
	}
	if err := tmp.Close(); err != nil {
		committed = true
		_ = fsys.Remove(tmpName)
		return &IOError{Op: "close", Path: filename, Offset: -1, Err: err}
	}
	committed = true
	if err := fsys.Rename(tmpName, filename); err != nil {
		_ = fsys.Remove(tmpName)
		return &IOError{Op: "rename", Path: filename, Offset: -1, Err: err}
	}

	if err := fsys.SyncDir(dir); err != nil {
		return &IOError{Op: "sync", Path: dir, Offset: -1, Err: err}
	}
	return nil
}

func unwrapIO(err error) error {
	if ie, ok := err.(*IOError); ok {
		return ie.Err
	}
	return err
}
