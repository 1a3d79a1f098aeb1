// Package writer serializes an in-memory experiment into a cache file.
//
// Spectra are written first, in order, followed by chromatograms. Peaks are
// split into parallel m/z and intensity arrays without reordering, so a
// reader sees exactly the peak order of the source. Files are replaced
// atomically: a failed write never leaves a half-written cache behind.
package writer
