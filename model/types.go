package model

import "fmt"

// Peak is a single centroid or profile point of a spectrum.
type Peak struct {
	MZ        float64
	Intensity float64
}

// Spectrum is an ordered list of peaks acquired at one retention time.
type Spectrum struct {
	// NativeID is the instrument-assigned identifier. It is not part of the
	// binary cache and is filled from metadata when available.
	NativeID string
	MSLevel  int32
	// RT is the retention time in seconds.
	RT    float64
	Peaks []Peak
}

// Len returns the number of peaks.
func (s *Spectrum) Len() int { return len(s.Peaks) }

// Arrays splits the peaks into parallel m/z and intensity slices, preserving
// peak order.
func (s *Spectrum) Arrays() (mz, intensity []float64) {
	mz = make([]float64, len(s.Peaks))
	intensity = make([]float64, len(s.Peaks))
	for i, p := range s.Peaks {
		mz[i] = p.MZ
		intensity[i] = p.Intensity
	}
	return mz, intensity
}

// SpectrumFromArrays builds a spectrum from parallel m/z and intensity slices.
func SpectrumFromArrays(msLevel int32, rt float64, mz, intensity []float64) (*Spectrum, error) {
	if len(mz) != len(intensity) {
		return nil, fmt.Errorf("array length mismatch: %d m/z values, %d intensities", len(mz), len(intensity))
	}
	peaks := make([]Peak, len(mz))
	for i := range mz {
		peaks[i] = Peak{MZ: mz[i], Intensity: intensity[i]}
	}
	return &Spectrum{MSLevel: msLevel, RT: rt, Peaks: peaks}, nil
}

// ChromatogramPeak is a single point of a chromatographic trace.
type ChromatogramPeak struct {
	RT        float64
	Intensity float64
}

// Chromatogram is an ordered trace of intensities over retention time.
type Chromatogram struct {
	NativeID string
	Points   []ChromatogramPeak
}

// Len returns the number of points.
func (c *Chromatogram) Len() int { return len(c.Points) }

// Arrays splits the points into parallel retention time and intensity slices.
func (c *Chromatogram) Arrays() (rt, intensity []float64) {
	rt = make([]float64, len(c.Points))
	intensity = make([]float64, len(c.Points))
	for i, p := range c.Points {
		rt[i] = p.RT
		intensity[i] = p.Intensity
	}
	return rt, intensity
}

// ChromatogramFromArrays builds a chromatogram from parallel slices.
func ChromatogramFromArrays(rt, intensity []float64) (*Chromatogram, error) {
	if len(rt) != len(intensity) {
		return nil, fmt.Errorf("array length mismatch: %d retention times, %d intensities", len(rt), len(intensity))
	}
	points := make([]ChromatogramPeak, len(rt))
	for i := range rt {
		points[i] = ChromatogramPeak{RT: rt[i], Intensity: intensity[i]}
	}
	return &Chromatogram{Points: points}, nil
}

// Experiment is an ordered collection of spectra and chromatograms.
type Experiment struct {
	Spectra       []Spectrum
	Chromatograms []Chromatogram
}

// NumSpectra returns the number of spectra.
func (e *Experiment) NumSpectra() int { return len(e.Spectra) }

// NumChromatograms returns the number of chromatograms.
func (e *Experiment) NumChromatograms() int { return len(e.Chromatograms) }

// NumPeaks returns the total number of spectrum peaks.
func (e *Experiment) NumPeaks() int {
	n := 0
	for i := range e.Spectra {
		n += len(e.Spectra[i].Peaks)
	}
	return n
}
