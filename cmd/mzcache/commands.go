package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/hupe1980/mzcache"
	"github.com/hupe1980/mzcache/reader"
	"github.com/hupe1980/mzcache/resource"
	"github.com/hupe1980/mzcache/transfer"
)

func usageOf(name string) string {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd.usage
		}
	}
	return name
}

// source selects where a command reads its run from.
type source struct {
	store      *string
	cacheBytes *int64
}

func addSourceFlags(fs *flag.FlagSet) source {
	return source{
		store:      fs.String("store", "", "read the run from this store URL instead of local files"),
		cacheBytes: fs.Int64("cache-bytes", 64<<20, "block cache for s3:// and minio:// stores (0 = off)"),
	}
}

func (s source) open(ctx context.Context, e *env, basename string) (*mzcache.Cache, error) {
	opts := []mzcache.Option{mzcache.WithLogger(e.logger)}
	if *s.store == "" {
		return mzcache.Open(basename, opts...)
	}
	store, err := openStore(ctx, *s.store)
	if err != nil {
		return nil, err
	}
	if isRemote(*s.store) && *s.cacheBytes > 0 {
		opts = append(opts, mzcache.WithBlockCache(*s.cacheBytes, 0))
	}
	return mzcache.OpenStore(ctx, store, basename, opts...)
}

func runInspect(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	src := addSourceFlags(fs)
	if err := parse(e, fs, usageOf("inspect"), args, 1); err != nil {
		return err
	}

	c, err := src.open(ctx, e, fs.Arg(0))
	if err != nil {
		return err
	}
	defer c.Close()

	tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "file\t%s\n", c.Name())
	fmt.Fprintf(tw, "size\t%d\n", c.Index().Size)
	fmt.Fprintf(tw, "spectra\t%d\n", c.NumSpectra())
	fmt.Fprintf(tw, "chromatograms\t%d\n", c.NumChromatograms())
	for _, level := range c.MSLevels() {
		fmt.Fprintf(tw, "ms%d\t%d\n", level, c.NumSpectraAtLevel(level))
	}
	if n := c.NumSpectra(); n > 0 {
		first, _ := c.SpectrumMeta(0)
		last, _ := c.SpectrumMeta(n - 1)
		fmt.Fprintf(tw, "rt range\t%g - %g\n", first.RT, last.RT)
	}
	return tw.Flush()
}

func runVerify(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	workers := fs.Int("workers", 0, "number of decode workers (default GOMAXPROCS)")
	ioRate := fs.Int64("rate", 0, "read limit in bytes per second (0 = unlimited)")
	if err := parse(e, fs, usageOf("verify"), args, 1); err != nil {
		return err
	}

	opts := []mzcache.Option{mzcache.WithLogger(e.logger), mzcache.WithWorkers(*workers)}
	if *ioRate > 0 {
		rc := resource.NewController(resource.Config{IOLimitBytesPerSec: *ioRate, MaxWorkers: int64(*workers)})
		opts = append(opts, mzcache.WithResourceController(rc))
	}

	report, err := mzcache.Verify(ctx, fs.Arg(0), opts...)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "ok %s: %d spectra (%d peaks), %d chromatograms (%d points), %d bytes in %s\n",
		report.Path, report.Spectra, report.Peaks, report.Chromatograms, report.Points, report.Size, report.Duration)
	return nil
}

func runSpectrum(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("spectrum", flag.ContinueOnError)
	id := fs.Int("id", 0, "spectrum id")
	maxPeaks := fs.Int("peaks", 10, "number of peaks to print (-1 = all)")
	src := addSourceFlags(fs)
	if err := parse(e, fs, usageOf("spectrum"), args, 1); err != nil {
		return err
	}

	c, err := src.open(ctx, e, fs.Arg(0))
	if err != nil {
		return err
	}
	defer c.Close()

	meta, err := c.SpectrumMeta(*id)
	if err != nil {
		return err
	}
	var buf reader.SpectrumBuffer
	if err := c.SpectrumInto(*id, &buf); err != nil {
		return err
	}

	fmt.Fprintf(e.stdout, "id=%d native_id=%s ms_level=%d rt=%g peaks=%d\n",
		*id, meta.NativeID, buf.MSLevel, buf.RT, len(buf.MZ))
	n := len(buf.MZ)
	if *maxPeaks >= 0 {
		n = min(n, *maxPeaks)
	}
	tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	for i := 0; i < n; i++ {
		fmt.Fprintf(tw, "%.5f\t%g\t\n", buf.MZ[i], buf.Intensity[i])
	}
	return tw.Flush()
}

func runRT(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("rt", flag.ContinueOnError)
	delta := fs.Float64("delta", 0, "half width of the window; 0 selects one exact match")
	level := fs.Int("level", 0, "only spectra with this MS level (0 = all)")
	src := addSourceFlags(fs)
	if err := parse(e, fs, usageOf("rt"), args, 2); err != nil {
		return err
	}
	rt, err := strconv.ParseFloat(fs.Arg(1), 64)
	if err != nil {
		return fmt.Errorf("invalid retention time %q", fs.Arg(1))
	}

	c, err := src.open(ctx, e, fs.Arg(0))
	if err != nil {
		return err
	}
	defer c.Close()

	var ids []int
	if *level > 0 {
		ids, err = c.SpectraByRTAtLevel(rt, *delta, int32(*level))
	} else {
		ids, err = c.SpectraByRT(rt, *delta)
	}
	if err != nil {
		return err
	}
	for _, id := range ids {
		meta, err := c.SpectrumMeta(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "%d\t%s\tms%d\t%g\n", id, meta.NativeID, meta.MSLevel, meta.RT)
	}
	return nil
}

func runUpload(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	storeURL := fs.String("store", ".", "target store URL")
	comp := fs.String("compression", "zstd", "payload compression (zstd, lz4, none)")
	if err := parse(e, fs, usageOf("upload"), args, 2); err != nil {
		return err
	}
	c, err := transfer.ParseCompression(*comp)
	if err != nil {
		return err
	}
	store, err := openStore(ctx, *storeURL)
	if err != nil {
		return err
	}

	st, err := transfer.Upload(ctx, store, fs.Arg(1), fs.Arg(0),
		transfer.WithCompression(c), transfer.WithLogger(e.logger.Logger))
	if err != nil {
		return err
	}
	printStats(e, "uploaded", st)
	return nil
}

func runPublish(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("publish", flag.ContinueOnError)
	storeURL := fs.String("store", ".", "target store URL")
	if err := parse(e, fs, usageOf("publish"), args, 2); err != nil {
		return err
	}
	store, err := openStore(ctx, *storeURL)
	if err != nil {
		return err
	}

	if err := mzcache.Publish(ctx, store, fs.Arg(0), fs.Arg(1), mzcache.WithLogger(e.logger)); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "published %s as %s\n", fs.Arg(0), fs.Arg(1))
	return nil
}

func runDownload(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	storeURL := fs.String("store", ".", "source store URL")
	if err := parse(e, fs, usageOf("download"), args, 2); err != nil {
		return err
	}
	store, err := openStore(ctx, *storeURL)
	if err != nil {
		return err
	}

	st, err := transfer.Download(ctx, store, fs.Arg(0), fs.Arg(1), transfer.WithLogger(e.logger.Logger))
	if err != nil {
		return err
	}
	printStats(e, "downloaded", st)
	return nil
}

func runStat(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("stat", flag.ContinueOnError)
	storeURL := fs.String("store", ".", "store URL")
	if err := parse(e, fs, usageOf("stat"), args, 1); err != nil {
		return err
	}
	store, err := openStore(ctx, *storeURL)
	if err != nil {
		return err
	}

	hdr, err := transfer.Stat(ctx, store, fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "%s: compression=%s size=%d crc32=%08x\n",
		fs.Arg(0), hdr.Compression, hdr.Size, hdr.Checksum)
	return nil
}

func printStats(e *env, verb string, st *transfer.Stats) {
	fmt.Fprintf(e.stdout, "%s %s: %d bytes, %d stored (%s, ratio %.2f), crc32=%08x\n",
		verb, st.Name, st.Size, st.Stored, st.Compression, st.Ratio(), st.Checksum)
}
