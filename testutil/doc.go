// Package testutil builds synthetic runs for tests and benchmarks.
//
// It imports only model, so any package can use it from its tests.
//
//	rng := testutil.NewRNG(seed)
//	exp := rng.Experiment(testutil.ExperimentConfig{Spectra: 100, MaxPeaks: 500})
//
// Generated spectra have non-decreasing retention times and m/z-sorted
// peaks. ExperimentWithRTs builds a run with exactly the given retention
// times, one peak per spectrum, for hand-checked RT window cases.
package testutil
