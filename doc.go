// Package mzcache provides random access to mass spectrometry runs stored in
// a compact binary cache file.
//
// A run is stored as two files: the cache file "<basename>.cached" holding
// peak arrays, and a metadata sidecar "<basename>" holding native IDs, MS
// levels and retention times. The cache file is written once and then read
// many times, by id or by retention-time window.
//
// # Quick Start
//
//	// Write a run.
//	err := mzcache.Save(exp, "data/run01")
//
//	// Read it back.
//	c, err := mzcache.Open("data/run01")
//	defer c.Close()
//
//	s, err := c.Spectrum(42)
//	ids, err := c.SpectraByRT(1200.0, 5.0) // RT in [1195, 1205)
//
// # Fast Path
//
// SpectrumInto and ChromatogramInto decode into caller-owned buffers and
// reuse their capacity, so a scan over a whole run allocates only once:
//
//	var buf reader.SpectrumBuffer
//	for id := 0; id < c.NumSpectra(); id++ {
//	    if err := c.SpectrumInto(id, &buf); err != nil { ... }
//	}
//
// # Remote Storage
//
// OpenStore reads both files from any blobstore.BlobStore (local mmap, S3,
// MinIO), optionally behind a CachingStore block cache.
//
// # Concurrency
//
// A Cache owns one read cursor and is not safe for concurrent use. Clone
// returns an independent handle that shares the offset index and metadata.
// Verify decodes a whole file with a bounded worker pool.
package mzcache
