package testutil

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/hupe1980/mzcache/model"
)

// RNG encapsulates a seeded random number generator. It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// FillUniform fills dst with values in [lo, hi).
func (r *RNG) FillUniform(dst []float64, lo, hi float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = lo + r.rand.Float64()*(hi-lo)
	}
}

// ExperimentConfig controls Experiment.
type ExperimentConfig struct {
	Spectra       int
	Chromatograms int
	// MaxPeaks bounds the peaks per spectrum (inclusive). Zero-peak spectra
	// are generated too.
	MaxPeaks int
	// MaxPoints bounds the points per chromatogram (inclusive).
	MaxPoints int
	// MS2Ratio is the fraction of spectra with MS level 2.
	MS2Ratio float64
}

// Experiment generates a random experiment. Retention times increase
// monotonically and native IDs follow the "scan=N" convention.
func (r *RNG) Experiment(cfg ExperimentConfig) *model.Experiment {
	exp := &model.Experiment{
		Spectra:       make([]model.Spectrum, cfg.Spectra),
		Chromatograms: make([]model.Chromatogram, cfg.Chromatograms),
	}

	rt := 0.0
	for i := range exp.Spectra {
		rt += 0.05 + r.Float64()
		level := int32(1)
		if r.Float64() < cfg.MS2Ratio {
			level = 2
		}
		n := 0
		if cfg.MaxPeaks > 0 {
			n = r.Intn(cfg.MaxPeaks + 1)
		}
		peaks := make([]model.Peak, n)
		mz := 100.0
		for j := range peaks {
			mz += r.Float64() * 5
			peaks[j] = model.Peak{MZ: mz, Intensity: r.Float64() * 1e6}
		}
		exp.Spectra[i] = model.Spectrum{
			NativeID: fmt.Sprintf("scan=%d", i+1),
			MSLevel:  level,
			RT:       rt,
			Peaks:    peaks,
		}
	}

	for i := range exp.Chromatograms {
		n := 0
		if cfg.MaxPoints > 0 {
			n = r.Intn(cfg.MaxPoints + 1)
		}
		points := make([]model.ChromatogramPeak, n)
		t := 0.0
		for j := range points {
			t += r.Float64()
			points[j] = model.ChromatogramPeak{RT: t, Intensity: r.Float64() * 1e5}
		}
		exp.Chromatograms[i] = model.Chromatogram{
			NativeID: fmt.Sprintf("chrom=%d", i),
			Points:   points,
		}
	}
	return exp
}

// ExperimentWithRTs returns an experiment with one MS1 spectrum per
// retention time. Spectrum i has i+1 peaks so records differ in size.
func ExperimentWithRTs(rts ...float64) *model.Experiment {
	exp := &model.Experiment{Spectra: make([]model.Spectrum, len(rts))}
	for i, rt := range rts {
		peaks := make([]model.Peak, i+1)
		for j := range peaks {
			peaks[j] = model.Peak{MZ: 100 + float64(j), Intensity: float64(10 * (i + 1))}
		}
		exp.Spectra[i] = model.Spectrum{
			NativeID: fmt.Sprintf("scan=%d", i+1),
			MSLevel:  1,
			RT:       rt,
			Peaks:    peaks,
		}
	}
	return exp
}
