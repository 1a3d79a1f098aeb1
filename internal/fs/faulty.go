package fs

import (
	"errors"
	"os"
	"strings"
	"sync"
)

// ErrInjected is the error returned by a Fault that does not set Err.
var ErrInjected = errors.New("fs: injected fault")

// Step names the operation of an atomic save a Fault breaks.
type Step uint8

const (
	StepOpen Step = iota
	StepWrite
	StepSync
	StepClose
	StepRename
	StepSyncDir
)

func (s Step) String() string {
	return [...]string{"open", "write", "sync", "close", "rename", "syncdir"}[s]
}

// Fault makes Step fail. A StepWrite fault lets the first AfterBytes bytes
// through and fails the write that would exceed them.
type Fault struct {
	Step       Step
	AfterBytes int64
	Err        error
}

func (f Fault) error() error {
	if f.Err != nil {
		return f.Err
	}
	return ErrInjected
}

type rule struct {
	pattern string
	fault   Fault
}

// FaultyFS wraps a FileSystem and fails the steps its rules name for every
// path containing the rule pattern.
type FaultyFS struct {
	FS FileSystem

	mu    sync.Mutex
	rules []rule
}

// NewFaultyFS wraps fsys, or Default when fsys is nil.
func NewFaultyFS(fsys FileSystem) *FaultyFS {
	if fsys == nil {
		fsys = Default
	}
	return &FaultyFS{FS: fsys}
}

// AddRule arms fault for paths containing pattern.
func (f *FaultyFS) AddRule(pattern string, fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, rule{pattern: pattern, fault: fault})
}

// lookup returns the armed fault for step on name.
func (f *FaultyFS) lookup(name string, step Step) (Fault, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rules {
		if r.fault.Step == step && strings.Contains(name, r.pattern) {
			return r.fault, true
		}
	}
	return Fault{}, false
}

func (f *FaultyFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	if fault, ok := f.lookup(name, StepOpen); ok {
		return nil, &os.PathError{Op: "open", Path: name, Err: fault.error()}
	}
	file, err := f.FS.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return &faultyFile{File: file, fs: f}, nil
}

func (f *FaultyFS) Rename(oldpath, newpath string) error {
	if fault, ok := f.lookup(newpath, StepRename); ok {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: fault.error()}
	}
	return f.FS.Rename(oldpath, newpath)
}

func (f *FaultyFS) Remove(name string) error { return f.FS.Remove(name) }

func (f *FaultyFS) SyncDir(dir string) error {
	if fault, ok := f.lookup(dir, StepSyncDir); ok {
		return fault.error()
	}
	return f.FS.SyncDir(dir)
}

type faultyFile struct {
	File
	fs      *FaultyFS
	written int64
}

func (ff *faultyFile) Write(p []byte) (int, error) {
	if fault, ok := ff.fs.lookup(ff.Name(), StepWrite); ok && ff.written+int64(len(p)) > fault.AfterBytes {
		return 0, fault.error()
	}
	n, err := ff.File.Write(p)
	ff.written += int64(n)
	return n, err
}

func (ff *faultyFile) Sync() error {
	if fault, ok := ff.fs.lookup(ff.Name(), StepSync); ok {
		return fault.error()
	}
	return ff.File.Sync()
}

func (ff *faultyFile) Close() error {
	err := ff.File.Close()
	if fault, ok := ff.fs.lookup(ff.Name(), StepClose); ok {
		return fault.error()
	}
	return err
}
