package mzcache

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems.
type MetricsCollector interface {
	// RecordOpen is called after each Open, OpenFile or OpenBlob.
	RecordOpen(duration time.Duration, err error)

	// RecordSpectrumRead is called after each spectrum decode.
	// peaks is the number of peaks decoded.
	RecordSpectrumRead(peaks int, duration time.Duration, err error)

	// RecordChromatogramRead is called after each chromatogram decode.
	RecordChromatogramRead(points int, duration time.Duration, err error)

	// RecordRTQuery is called after each SpectraByRT call.
	RecordRTQuery(results int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordOpen(time.Duration, error)                  {}
func (NoopMetricsCollector) RecordSpectrumRead(int, time.Duration, error)     {}
func (NoopMetricsCollector) RecordChromatogramRead(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordRTQuery(int, time.Duration, error)          {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	OpenCount              atomic.Int64
	OpenErrors             atomic.Int64
	SpectrumReads          atomic.Int64
	SpectrumErrors         atomic.Int64
	SpectrumPeaks          atomic.Int64
	SpectrumTotalNanos     atomic.Int64
	ChromatogramReads      atomic.Int64
	ChromatogramErrors     atomic.Int64
	ChromatogramPoints     atomic.Int64
	ChromatogramTotalNanos atomic.Int64
	RTQueryCount           atomic.Int64
	RTQueryErrors          atomic.Int64
	RTQueryResults         atomic.Int64
}

// RecordOpen implements MetricsCollector.
func (b *BasicMetricsCollector) RecordOpen(_ time.Duration, err error) {
	b.OpenCount.Add(1)
	if err != nil {
		b.OpenErrors.Add(1)
	}
}

// RecordSpectrumRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSpectrumRead(peaks int, duration time.Duration, err error) {
	b.SpectrumReads.Add(1)
	b.SpectrumTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SpectrumErrors.Add(1)
		return
	}
	b.SpectrumPeaks.Add(int64(peaks))
}

// RecordChromatogramRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordChromatogramRead(points int, duration time.Duration, err error) {
	b.ChromatogramReads.Add(1)
	b.ChromatogramTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ChromatogramErrors.Add(1)
		return
	}
	b.ChromatogramPoints.Add(int64(points))
}

// RecordRTQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRTQuery(results int, _ time.Duration, err error) {
	b.RTQueryCount.Add(1)
	if err != nil {
		b.RTQueryErrors.Add(1)
		return
	}
	b.RTQueryResults.Add(int64(results))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		OpenCount:            b.OpenCount.Load(),
		OpenErrors:           b.OpenErrors.Load(),
		SpectrumReads:        b.SpectrumReads.Load(),
		SpectrumErrors:       b.SpectrumErrors.Load(),
		SpectrumPeaks:        b.SpectrumPeaks.Load(),
		SpectrumAvgNanos:     avg(b.SpectrumTotalNanos.Load(), b.SpectrumReads.Load()),
		ChromatogramReads:    b.ChromatogramReads.Load(),
		ChromatogramErrors:   b.ChromatogramErrors.Load(),
		ChromatogramPoints:   b.ChromatogramPoints.Load(),
		ChromatogramAvgNanos: avg(b.ChromatogramTotalNanos.Load(), b.ChromatogramReads.Load()),
		RTQueryCount:         b.RTQueryCount.Load(),
		RTQueryErrors:        b.RTQueryErrors.Load(),
		RTQueryResults:       b.RTQueryResults.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	OpenCount            int64
	OpenErrors           int64
	SpectrumReads        int64
	SpectrumErrors       int64
	SpectrumPeaks        int64
	SpectrumAvgNanos     int64
	ChromatogramReads    int64
	ChromatogramErrors   int64
	ChromatogramPoints   int64
	ChromatogramAvgNanos int64
	RTQueryCount         int64
	RTQueryErrors        int64
	RTQueryResults       int64
}
