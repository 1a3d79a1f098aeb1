package fs

import (
	"io"
	"os"
)

// File is the write side of a cache file under construction.
type File interface {
	io.WriteCloser
	Name() string
	Sync() error
}

// FileSystem holds the operations an atomic cache save performs: create the
// temporary file, then rename it into place or remove it.
type FileSystem interface {
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
	Rename(oldpath, newpath string) error
	Remove(name string) error
	// SyncDir makes a completed rename inside dir durable.
	SyncDir(dir string) error
}

// LocalFS is the FileSystem backed by package os.
type LocalFS struct{}

func (LocalFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	f, err := os.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (LocalFS) Rename(oldpath, newpath string) error { return os.Rename(oldpath, newpath) }

func (LocalFS) Remove(name string) error { return os.Remove(name) }

// SyncDir fsyncs the directory. Platforms that cannot open a directory for
// syncing report success.
func (LocalFS) SyncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return nil
	}
	defer d.Close()
	return d.Sync()
}

// Default is the file system used unless a caller injects another.
var Default FileSystem = LocalFS{}
