package mzcache

import (
	"github.com/hupe1980/mzcache/metadata"
	"github.com/hupe1980/mzcache/model"
)

// SpectrumAccess is the read interface shared by file-backed and in-memory
// runs.
type SpectrumAccess interface {
	// Spectrum decodes spectrum id.
	Spectrum(id int) (*model.Spectrum, error)
	// SpectrumMeta returns the metadata of spectrum id without decoding peaks.
	SpectrumMeta(id int) (metadata.SpectrumMeta, error)
	// SpectraByRT returns the ids of spectra with rt-deltaRT <= RT < rt+deltaRT.
	SpectraByRT(rt, deltaRT float64) ([]int, error)
	// Chromatogram decodes chromatogram id.
	Chromatogram(id int) (*model.Chromatogram, error)
	// ChromatogramNativeID returns the native ID of chromatogram id.
	ChromatogramNativeID(id int) (string, error)
	NumSpectra() int
	NumChromatograms() int
}

var (
	_ SpectrumAccess = (*Cache)(nil)
	_ SpectrumAccess = (*InMemory)(nil)
)
