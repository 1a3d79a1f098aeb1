// Package transfer moves cache files between the local filesystem and a
// blobstore.BlobStore.
//
// Uploaded blobs carry a 24-byte envelope followed by the payload, which is
// optionally compressed with zstd or lz4:
//
//	magic        [4]byte  "MZCT"
//	version      uint8
//	compression  uint8
//	reserved     [2]byte
//	size         uint64   uncompressed payload size
//	checksum     uint32   CRC32 (IEEE) of the uncompressed payload
//	reserved     [4]byte
//
// With WithRaw, Upload stores the plain file instead, which is what
// mzcache.OpenStore reads.
//
// All integers are little-endian. Download verifies size and checksum before
// the file is renamed into place, and by default checks that the result is a
// well-formed cache file.
package transfer
