// Package metadata describes the per-record information that the binary
// cache does not carry: native IDs for spectra and chromatograms, and the MS
// level and retention time of each spectrum.
//
// The cache facade consumes metadata through the Source interface. Experiment
// is the concrete implementation; it can be derived from a model.Experiment
// or loaded from a JSON sidecar file written next to the cache.
//
// Spectra in a Source are expected in non-decreasing retention-time order,
// which is what retention-time range queries rely on.
//
// # MS Levels
//
// LevelIndex groups spectrum ids by MS level in Roaring bitmaps:
//
//	levels := metadata.BuildLevelIndex(src)
//	ms2 := levels.Spectra(2)
package metadata
