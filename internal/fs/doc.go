// Package fs provides the filesystem seam used by the cache writer.
//
//   - [FileSystem]: create, rename, remove and directory sync
//   - [LocalFS]: production implementation on top of package os
//   - [FaultyFS]: test wrapper that injects failures into any of those steps
//
// Production code uses fs.Default. Tests inject a FaultyFS to prove that I/O
// failures surface as errors and never leave a half-written cache behind:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".cached", fs.Fault{Step: fs.StepWrite, AfterBytes: 64})
//
// The package has no context.Context parameters: local file operations are
// not interruptible at the syscall level.
package fs
