// Package s3 stores cache files in Amazon S3 or an S3-compatible service.
//
//	store, err := s3.New(ctx, "spectra", s3.WithPrefix("runs"), s3.WithRegion("eu-central-1"))
//	c, err := mzcache.OpenStore(ctx, store, "run01")
//
// Blob reads are ranged GETs, so a Cache fetches only the records it decodes.
// Wrap the store in a blobstore.CachingStore to serve repeated reads of the
// same region from memory. Put sends a CRC32C checksum that S3 verifies, and
// switches to multipart uploads above UploadConfig.PartSize. Create streams
// through a multipart upload that is aborted, not committed, on Abort.
package s3
