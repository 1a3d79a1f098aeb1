package mzcache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hupe1980/mzcache/index"
	"github.com/hupe1980/mzcache/reader"
	"github.com/hupe1980/mzcache/resource"
	"golang.org/x/sync/errgroup"
)

// VerifyReport summarizes a successful Verify.
type VerifyReport struct {
	Path          string
	Size          int64
	Spectra       int
	Chromatograms int
	Peaks         int64
	Points        int64
	Duration      time.Duration
}

type verifyJob struct {
	kind   RecordKind
	lo, hi int
}

// Verify decodes every record of the cache file at path. Records are split
// across a bounded pool of workers, each reading through its own file
// handle. The first failure cancels the remaining work and is returned.
func Verify(ctx context.Context, path string, optFns ...Option) (*VerifyReport, error) {
	o := applyOptions(optFns)
	start := time.Now()

	report, err := verify(ctx, path, o)
	records := 0
	if report != nil {
		report.Duration = time.Since(start)
		records = report.Spectra + report.Chromatograms
	}
	o.logger.LogVerify(ctx, path, records, time.Since(start), err)
	return report, err
}

func verify(ctx context.Context, path string, o options) (*VerifyReport, error) {
	idx := o.index
	if idx == nil {
		var err error
		if idx, err = o.registry.Get(path); err != nil {
			return nil, err
		}
	}

	workers := max(o.workers, 1)
	jobs := split(KindSpectrum, idx.NumSpectra(), workers)
	jobs = append(jobs, split(KindChromatogram, idx.NumChromatograms(), workers)...)

	var peaks, points atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, job := range jobs {
		g.Go(func() error {
			// Slots are shared with every other operation on the same controller.
			if err := o.rc.AcquireWorker(gctx); err != nil {
				return err
			}
			defer o.rc.ReleaseWorker()
			n, err := verifyRange(gctx, path, idx, job, o.rc)
			if job.kind == KindSpectrum {
				peaks.Add(n)
			} else {
				points.Add(n)
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &VerifyReport{
		Path:          path,
		Size:          idx.Size,
		Spectra:       idx.NumSpectra(),
		Chromatograms: idx.NumChromatograms(),
		Peaks:         peaks.Load(),
		Points:        points.Load(),
	}, nil
}

// split cuts [0, n) into at most parts contiguous ranges.
func split(kind RecordKind, n, parts int) []verifyJob {
	if n == 0 {
		return nil
	}
	size := (n + parts - 1) / parts
	jobs := make([]verifyJob, 0, parts)
	for lo := 0; lo < n; lo += size {
		jobs = append(jobs, verifyJob{kind: kind, lo: lo, hi: min(lo+size, n)})
	}
	return jobs
}

func verifyRange(ctx context.Context, path string, idx *index.OffsetIndex, job verifyJob, rc *resource.Controller) (int64, error) {
	f, err := openCacheFile(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	rd, err := reader.New(resource.NewRateLimitedReadSeeker(ctx, f, rc))
	if err != nil {
		return 0, err
	}

	var (
		total int64
		sbuf  reader.SpectrumBuffer
		cbuf  reader.ChromatogramBuffer
	)
	for id := job.lo; id < job.hi; id++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		switch job.kind {
		case KindSpectrum:
			off, _ := idx.SpectrumOffset(id)
			if err := rd.SpectrumInto(off, &sbuf); err != nil {
				return total, recordError(KindSpectrum, id, err)
			}
			total += int64(len(sbuf.MZ))
		case KindChromatogram:
			off, _ := idx.ChromatogramOffset(id)
			if err := rd.ChromatogramInto(off, &cbuf); err != nil {
				return total, recordError(KindChromatogram, id, err)
			}
			total += int64(len(cbuf.RT))
		}
	}
	return total, nil
}
