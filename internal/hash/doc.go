// Package hash computes the CRC32-Castagnoli checksum sent with S3 uploads.
//
// S3 checks the x-amz-checksum-crc32c header on arrival and rejects a
// payload corrupted on the way to the bucket instead of storing it.
//
//	in.ChecksumCRC32C = aws.String(hash.CRC32CHeader(data))
package hash
