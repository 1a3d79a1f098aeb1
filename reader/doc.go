// Package reader decodes individual records of a cache file at known byte
// offsets.
//
// A Reader owns one cursor over the underlying stream and is therefore not
// safe for concurrent use; open one Reader per goroutine. Offsets usually come
// from an index.OffsetIndex.
//
// Two decode paths exist. SpectrumAt materializes a model.Spectrum with one
// Peak per value pair. SpectrumInto fills caller-owned parallel slices,
// reusing their capacity, and is the path to use in tight loops. Both paths
// yield identical values.
package reader
