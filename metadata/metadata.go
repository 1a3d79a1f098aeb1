package metadata

import (
	"fmt"
	"math"

	"github.com/hupe1980/mzcache/model"
)

// SpectrumMeta is the metadata of one spectrum.
type SpectrumMeta struct {
	NativeID string  `json:"id"`
	MSLevel  int32   `json:"ms_level"`
	RT       float64 `json:"rt"`
}

// ChromatogramMeta is the metadata of one chromatogram.
type ChromatogramMeta struct {
	NativeID string `json:"id"`
}

// Source provides metadata by record id.
// Implementations must be safe for concurrent reads.
type Source interface {
	NumSpectra() int
	NumChromatograms() int
	// SpectrumMeta returns the metadata of spectrum i; i must be in range.
	SpectrumMeta(i int) SpectrumMeta
	// ChromatogramMeta returns the metadata of chromatogram i; i must be in range.
	ChromatogramMeta(i int) ChromatogramMeta
}

// Experiment is an in-memory Source.
type Experiment struct {
	Spectra       []SpectrumMeta     `json:"spectra"`
	Chromatograms []ChromatogramMeta `json:"chromatograms"`
}

var _ Source = (*Experiment)(nil)

// FromModel extracts the metadata of exp.
func FromModel(exp *model.Experiment) *Experiment {
	m := &Experiment{
		Spectra:       make([]SpectrumMeta, len(exp.Spectra)),
		Chromatograms: make([]ChromatogramMeta, len(exp.Chromatograms)),
	}
	for i := range exp.Spectra {
		s := &exp.Spectra[i]
		m.Spectra[i] = SpectrumMeta{NativeID: s.NativeID, MSLevel: s.MSLevel, RT: s.RT}
	}
	for i := range exp.Chromatograms {
		m.Chromatograms[i] = ChromatogramMeta{NativeID: exp.Chromatograms[i].NativeID}
	}
	return m
}

// NumSpectra returns the number of spectra.
func (m *Experiment) NumSpectra() int { return len(m.Spectra) }

// NumChromatograms returns the number of chromatograms.
func (m *Experiment) NumChromatograms() int { return len(m.Chromatograms) }

// SpectrumMeta returns the metadata of spectrum i.
func (m *Experiment) SpectrumMeta(i int) SpectrumMeta { return m.Spectra[i] }

// ChromatogramMeta returns the metadata of chromatogram i.
func (m *Experiment) ChromatogramMeta(i int) ChromatogramMeta { return m.Chromatograms[i] }

// Validate checks that retention times are finite and sorted.
func Validate(src Source) error {
	prev := math.Inf(-1)
	for i := 0; i < src.NumSpectra(); i++ {
		rt := src.SpectrumMeta(i).RT
		if math.IsNaN(rt) || math.IsInf(rt, 0) {
			return fmt.Errorf("metadata: spectrum %d has non-finite retention time %v", i, rt)
		}
		if rt < prev {
			return fmt.Errorf("metadata: spectrum %d retention time %v precedes %v", i, rt, prev)
		}
		prev = rt
	}
	return nil
}
