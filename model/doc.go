// Package model defines the domain types shared by every mzcache package.
//
// # Spectra
//
//   - Peak: one (m/z, intensity) pair
//   - Spectrum: ordered peaks tagged with an MS level and a retention time
//
// # Chromatograms
//
//   - ChromatogramPeak: one (retention time, intensity) pair
//   - Chromatogram: ordered points of a single trace
//
// # Experiments
//
// Experiment is the in-memory collection that the writer serializes: an ordered
// list of spectra followed by an ordered list of chromatograms. The order of
// both lists defines the numeric ids used by the random-access layer.
package model
