// Package mmap maps cache files read-only into memory.
//
// A mapped cache serves random record reads straight from the page cache
// without a seek plus read system call per record:
//
//	m, err := mmap.Open("run.cached")
//	if err != nil { ... }
//	defer m.Close()
//	m.Advise(mmap.HintRecords)
//
// Unix systems use mmap(2) and madvise(2); Windows uses
// CreateFileMapping/MapViewOfFile, where Advise is a no-op.
//
// A Mapping is safe for concurrent reads. Close is idempotent; callers must
// not use slices obtained from Bytes after Close returns.
package mmap
