package mzcache

import (
	"slices"

	"github.com/hupe1980/mzcache/metadata"
	"github.com/hupe1980/mzcache/model"
	"github.com/hupe1980/mzcache/reader"
)

// InMemory serves a decoded run from memory. It is safe for concurrent use
// as long as the wrapped experiment is not modified.
type InMemory struct {
	exp    *model.Experiment
	meta   *metadata.Experiment
	rts    rtIndex
	levels *metadata.LevelIndex
}

// NewInMemory wraps exp. Spectra must be sorted by retention time.
func NewInMemory(exp *model.Experiment) (*InMemory, error) {
	meta := metadata.FromModel(exp)
	if err := metadata.Validate(meta); err != nil {
		return nil, err
	}
	return &InMemory{
		exp:    exp,
		meta:   meta,
		rts:    newRTIndex(meta),
		levels: metadata.BuildLevelIndex(meta),
	}, nil
}

// Load reads a whole run into memory.
func Load(basename string) (*InMemory, error) {
	meta, err := metadata.LoadSidecar(basename)
	if err != nil {
		return nil, err
	}
	f, err := openCacheFile(CachePath(basename))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	exp, err := reader.ReadAll(f)
	if err != nil {
		return nil, err
	}
	if meta.NumSpectra() != exp.NumSpectra() {
		return nil, &MismatchError{Kind: KindSpectrum, Metadata: meta.NumSpectra(), Cache: exp.NumSpectra()}
	}
	if meta.NumChromatograms() != exp.NumChromatograms() {
		return nil, &MismatchError{Kind: KindChromatogram, Metadata: meta.NumChromatograms(), Cache: exp.NumChromatograms()}
	}
	for i := range exp.Spectra {
		m := meta.Spectra[i]
		exp.Spectra[i].NativeID = m.NativeID
	}
	for i := range exp.Chromatograms {
		exp.Chromatograms[i].NativeID = meta.Chromatograms[i].NativeID
	}
	return NewInMemory(exp)
}

// Experiment returns the wrapped experiment.
func (m *InMemory) Experiment() *model.Experiment { return m.exp }

// NumSpectra returns the number of spectra.
func (m *InMemory) NumSpectra() int { return len(m.exp.Spectra) }

// NumChromatograms returns the number of chromatograms.
func (m *InMemory) NumChromatograms() int { return len(m.exp.Chromatograms) }

// Spectrum returns a copy of spectrum id.
func (m *InMemory) Spectrum(id int) (*model.Spectrum, error) {
	if id < 0 || id >= m.NumSpectra() {
		return nil, &IndexError{Kind: KindSpectrum, ID: id, Count: m.NumSpectra()}
	}
	s := m.exp.Spectra[id]
	s.Peaks = slices.Clone(s.Peaks)
	return &s, nil
}

// SpectrumMeta returns the metadata of spectrum id.
func (m *InMemory) SpectrumMeta(id int) (metadata.SpectrumMeta, error) {
	if id < 0 || id >= m.NumSpectra() {
		return metadata.SpectrumMeta{}, &IndexError{Kind: KindSpectrum, ID: id, Count: m.NumSpectra()}
	}
	return m.meta.Spectra[id], nil
}

// SpectraByRT returns the ids of all spectra with rt-deltaRT <= RT < rt+deltaRT.
// With deltaRT == 0 at most one exact match is returned.
func (m *InMemory) SpectraByRT(rt, deltaRT float64) ([]int, error) {
	return m.rts.window(rt, deltaRT)
}

// SpectraByRTAtLevel is SpectraByRT restricted to spectra at level.
func (m *InMemory) SpectraByRTAtLevel(rt, deltaRT float64, level int32) ([]int, error) {
	return m.rts.windowAtLevel(m.levels, rt, deltaRT, level)
}

// SpectraByMSLevel returns the ids of all spectra with the given MS level.
func (m *InMemory) SpectraByMSLevel(level int32) []int {
	return m.levels.Spectra(level)
}

// NumSpectraAtLevel returns the number of spectra with the given MS level.
func (m *InMemory) NumSpectraAtLevel(level int32) int {
	return m.levels.Count(level)
}

// Chromatogram returns a copy of chromatogram id.
func (m *InMemory) Chromatogram(id int) (*model.Chromatogram, error) {
	if id < 0 || id >= m.NumChromatograms() {
		return nil, &IndexError{Kind: KindChromatogram, ID: id, Count: m.NumChromatograms()}
	}
	ch := m.exp.Chromatograms[id]
	ch.Points = slices.Clone(ch.Points)
	return &ch, nil
}

// ChromatogramNativeID returns the native ID of chromatogram id.
func (m *InMemory) ChromatogramNativeID(id int) (string, error) {
	if id < 0 || id >= m.NumChromatograms() {
		return "", &IndexError{Kind: KindChromatogram, ID: id, Count: m.NumChromatograms()}
	}
	return m.exp.Chromatograms[id].NativeID, nil
}
