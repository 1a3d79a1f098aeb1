// Package blobstore provides storage for binary cache files and their
// metadata sidecars.
//
// BlobStore is the interface for reading and writing immutable blobs.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local directory, blobs opened as memory mappings
//   - MemoryStore: in-process map
//   - CachingStore: block cache in front of another store
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible servers
//
// A Blob is positioned with NewReadSeeker, which gives each reader a private
// cursor so that one open Blob can back many readers:
//
//	blob, _ := store.Open(ctx, "run01.cached")
//	rs := blobstore.NewReadSeeker(ctx, blob)
//	idx, _ := index.Build(rs)
package blobstore
