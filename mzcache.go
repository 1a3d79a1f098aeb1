package mzcache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/hupe1980/mzcache/blobstore"
	"github.com/hupe1980/mzcache/index"
	"github.com/hupe1980/mzcache/internal/cache"
	"github.com/hupe1980/mzcache/metadata"
	"github.com/hupe1980/mzcache/model"
	"github.com/hupe1980/mzcache/reader"
	"github.com/hupe1980/mzcache/resource"
)

// CacheSuffix is appended to a run's basename to name its cache file.
const CacheSuffix = ".cached"

// CachePath returns the cache file name of basename.
func CachePath(basename string) string { return basename + CacheSuffix }

// shared is the read-only state of all clones of one Cache.
type shared struct {
	name   string
	idx    *index.OffsetIndex
	meta   metadata.Source
	rts    rtIndex
	levels *metadata.LevelIndex

	// open creates a private cursor over the cache bytes.
	open func() (io.ReadSeeker, io.Closer, error)
	// release frees the backing storage after the last clone closes.
	release func() error
	refs    atomic.Int32
}

func (s *shared) unref() error {
	if s.refs.Add(-1) == 0 && s.release != nil {
		return s.release()
	}
	return nil
}

// Cache gives random access to a run stored in a cache file. It is not safe
// for concurrent use; use Clone to get one handle per goroutine.
type Cache struct {
	s      *shared
	rd     *reader.Reader
	closer io.Closer
	opts   options
	closed bool
}

// Open opens the run stored under basename: the metadata sidecar basename
// and the cache file basename+".cached".
func Open(basename string, optFns ...Option) (*Cache, error) {
	meta, err := metadata.LoadSidecar(basename)
	if err != nil {
		o := applyOptions(optFns)
		o.logger.LogOpen(context.Background(), basename, 0, 0, err)
		o.metricsCollector.RecordOpen(0, err)
		return nil, err
	}
	return OpenFile(CachePath(basename), meta, optFns...)
}

// OpenFile opens the cache file at path with metadata from meta. The offset
// index comes from the registry, so reopening an unchanged file does not
// rescan it.
func OpenFile(path string, meta metadata.Source, optFns ...Option) (*Cache, error) {
	o := applyOptions(optFns)
	start := time.Now()

	c, err := openFile(path, meta, o)
	o.metricsCollector.RecordOpen(time.Since(start), err)
	if err != nil {
		o.logger.LogOpen(context.Background(), path, 0, 0, err)
		return nil, err
	}
	o.logger.LogOpen(context.Background(), path, c.NumSpectra(), c.NumChromatograms(), nil)
	return c, nil
}

func openFile(path string, meta metadata.Source, o options) (*Cache, error) {
	idx := o.index
	if idx == nil {
		var err error
		if idx, err = o.registry.Get(path); err != nil {
			return nil, err
		}
	}
	s, err := newShared(path, idx, meta)
	if err != nil {
		return nil, err
	}
	s.open = func() (io.ReadSeeker, io.Closer, error) {
		f, err := openCacheFile(path)
		if err != nil {
			return nil, nil, err
		}
		return f, f, nil
	}
	return newCache(s, o)
}

// OpenBlob opens a cache stored as blob. On success the Cache takes
// ownership of blob and closes it when the last clone is closed; on error
// the caller keeps it. ctx is used for all reads.
func OpenBlob(ctx context.Context, blob blobstore.Blob, meta metadata.Source, optFns ...Option) (*Cache, error) {
	o := applyOptions(optFns)
	start := time.Now()

	c, err := openBlob(ctx, blob, meta, o)
	o.metricsCollector.RecordOpen(time.Since(start), err)
	if err != nil {
		o.logger.LogOpen(ctx, "blob", 0, 0, err)
		return nil, err
	}
	o.logger.LogOpen(ctx, "blob", c.NumSpectra(), c.NumChromatograms(), nil)
	return c, nil
}

func openBlob(ctx context.Context, blob blobstore.Blob, meta metadata.Source, o options) (*Cache, error) {
	idx := o.index
	if idx == nil {
		var err error
		rs := resource.NewRateLimitedReadSeeker(ctx, blobstore.NewCursor(ctx, blob), o.rc)
		if idx, err = index.Build(rs); err != nil {
			return nil, err
		}
	}
	s, err := newShared("blob", idx, meta)
	if err != nil {
		return nil, err
	}
	s.open = func() (io.ReadSeeker, io.Closer, error) {
		return resource.NewRateLimitedReadSeeker(ctx, blobstore.NewCursor(ctx, blob), o.rc), nil, nil
	}
	s.release = blob.Close
	return newCache(s, o)
}

// OpenStore opens the run stored under basename in store: the sidecar blob
// basename and the raw cache file blob basename+".cached", as written by
// Publish. Blobs written by transfer.Upload carry an envelope and must be
// downloaded first.
func OpenStore(ctx context.Context, store blobstore.BlobStore, basename string, optFns ...Option) (*Cache, error) {
	o := applyOptions(optFns)
	var blocks cache.BlockCache
	if o.cacheBytes > 0 {
		blocks = cache.NewSharded(o.cacheBytes, 0, o.rc)
		store = blobstore.NewCachingStore(store, blocks, o.blockSize)
	}

	c, err := openStore(ctx, store, basename, blocks, optFns)
	if err != nil && blocks != nil {
		_ = blocks.Close()
	}
	return c, err
}

func openStore(ctx context.Context, store blobstore.BlobStore, basename string, blocks cache.BlockCache, optFns []Option) (*Cache, error) {
	meta, err := loadSidecarBlob(ctx, store, basename)
	if err != nil {
		return nil, err
	}
	blob, err := store.Open(ctx, CachePath(basename))
	if err != nil {
		return nil, fmt.Errorf("mzcache: open %s: %w", CachePath(basename), err)
	}
	if blocks != nil {
		blob = &cachedBlob{Blob: blob, blocks: blocks}
	}
	c, err := OpenBlob(ctx, blob, meta, optFns...)
	if err != nil {
		if cb, ok := blob.(*cachedBlob); ok {
			_ = cb.Blob.Close()
		} else {
			_ = blob.Close()
		}
		return nil, err
	}
	return c, nil
}

// cachedBlob frees its block cache together with the blob.
type cachedBlob struct {
	blobstore.Blob
	blocks cache.BlockCache
}

func (b *cachedBlob) Close() error {
	return errors.Join(b.Blob.Close(), b.blocks.Close())
}

func loadSidecarBlob(ctx context.Context, store blobstore.BlobStore, basename string) (*metadata.Experiment, error) {
	blob, err := store.Open(ctx, basename)
	if err != nil {
		return nil, fmt.Errorf("mzcache: open sidecar %s: %w", basename, err)
	}
	defer blob.Close()

	rc, err := blob.ReadRange(ctx, 0, blob.Size())
	if err != nil {
		return nil, fmt.Errorf("mzcache: read sidecar %s: %w", basename, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("mzcache: read sidecar %s: %w", basename, err)
	}
	return metadata.DecodeSidecar(data)
}

func newShared(name string, idx *index.OffsetIndex, meta metadata.Source) (*shared, error) {
	if meta.NumSpectra() != idx.NumSpectra() {
		return nil, &MismatchError{Kind: KindSpectrum, Metadata: meta.NumSpectra(), Cache: idx.NumSpectra()}
	}
	if meta.NumChromatograms() != idx.NumChromatograms() {
		return nil, &MismatchError{Kind: KindChromatogram, Metadata: meta.NumChromatograms(), Cache: idx.NumChromatograms()}
	}
	if err := metadata.Validate(meta); err != nil {
		return nil, err
	}
	return &shared{
		name:   name,
		idx:    idx,
		meta:   meta,
		rts:    newRTIndex(meta),
		levels: metadata.BuildLevelIndex(meta),
	}, nil
}

func newCache(s *shared, o options) (*Cache, error) {
	rs, closer, err := s.open()
	if err != nil {
		return nil, err
	}
	if o.rc != nil && closer != nil {
		rs = resource.NewRateLimitedReadSeeker(context.Background(), rs, o.rc)
	}
	rd, err := reader.New(rs)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, err
	}
	s.refs.Add(1)
	return &Cache{s: s, rd: rd, closer: closer, opts: o}, nil
}

// Clone returns an independent handle with its own read cursor. The offset
// index and metadata are shared.
func (c *Cache) Clone() (*Cache, error) {
	if c.closed {
		return nil, ErrClosed
	}
	return newCache(c.s, c.opts)
}

// Close releases the handle. The backing blob is closed with the last clone.
func (c *Cache) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	var err error
	if c.closer != nil {
		err = c.closer.Close()
	}
	if rerr := c.s.unref(); err == nil {
		err = rerr
	}
	return err
}

// Name returns the cache file path, or "blob" for blob-backed caches.
func (c *Cache) Name() string { return c.s.name }

// Index returns the shared offset index. It must not be modified.
func (c *Cache) Index() *index.OffsetIndex { return c.s.idx }

// Metadata returns the shared metadata source.
func (c *Cache) Metadata() metadata.Source { return c.s.meta }

// NumSpectra returns the number of spectra.
func (c *Cache) NumSpectra() int { return c.s.idx.NumSpectra() }

// NumChromatograms returns the number of chromatograms.
func (c *Cache) NumChromatograms() int { return c.s.idx.NumChromatograms() }

func (c *Cache) spectrumOffset(id int) (int64, error) {
	if c.closed {
		return 0, ErrClosed
	}
	off, ok := c.s.idx.SpectrumOffset(id)
	if !ok {
		return 0, &IndexError{Kind: KindSpectrum, ID: id, Count: c.NumSpectra()}
	}
	return off, nil
}

func (c *Cache) chromatogramOffset(id int) (int64, error) {
	if c.closed {
		return 0, ErrClosed
	}
	off, ok := c.s.idx.ChromatogramOffset(id)
	if !ok {
		return 0, &IndexError{Kind: KindChromatogram, ID: id, Count: c.NumChromatograms()}
	}
	return off, nil
}

// Spectrum decodes spectrum id. The native ID is taken from the metadata.
func (c *Cache) Spectrum(id int) (*model.Spectrum, error) {
	start := time.Now()
	s, err := c.spectrum(id)
	peaks := 0
	if s != nil {
		peaks = s.Len()
	}
	c.opts.metricsCollector.RecordSpectrumRead(peaks, time.Since(start), err)
	c.opts.logger.LogRead(context.Background(), KindSpectrum, id, peaks, err)
	return s, err
}

func (c *Cache) spectrum(id int) (*model.Spectrum, error) {
	off, err := c.spectrumOffset(id)
	if err != nil {
		return nil, err
	}
	s, err := c.rd.SpectrumAt(off)
	if err != nil {
		return nil, recordError(KindSpectrum, id, err)
	}
	s.NativeID = c.s.meta.SpectrumMeta(id).NativeID
	return s, nil
}

// SpectrumInto decodes spectrum id into buf, reusing its capacity. On error
// buf.MZ and buf.Intensity have length zero.
func (c *Cache) SpectrumInto(id int, buf *reader.SpectrumBuffer) error {
	start := time.Now()
	err := c.spectrumInto(id, buf)
	c.opts.metricsCollector.RecordSpectrumRead(len(buf.MZ), time.Since(start), err)
	return err
}

func (c *Cache) spectrumInto(id int, buf *reader.SpectrumBuffer) error {
	off, err := c.spectrumOffset(id)
	if err != nil {
		buf.MZ, buf.Intensity = buf.MZ[:0], buf.Intensity[:0]
		return err
	}
	if err := c.rd.SpectrumInto(off, buf); err != nil {
		return recordError(KindSpectrum, id, err)
	}
	return nil
}

// SpectrumMeta returns the metadata of spectrum id without reading the file.
func (c *Cache) SpectrumMeta(id int) (metadata.SpectrumMeta, error) {
	if c.closed {
		return metadata.SpectrumMeta{}, ErrClosed
	}
	if id < 0 || id >= c.NumSpectra() {
		return metadata.SpectrumMeta{}, &IndexError{Kind: KindSpectrum, ID: id, Count: c.NumSpectra()}
	}
	return c.s.meta.SpectrumMeta(id), nil
}

// SpectraByRT returns the ids of all spectra with rt-deltaRT <= RT < rt+deltaRT
// in ascending order. With deltaRT == 0 at most one exact match is returned.
// A negative or non-finite window fails with ErrInvalidRTWindow.
func (c *Cache) SpectraByRT(rt, deltaRT float64) ([]int, error) {
	if c.closed {
		return nil, ErrClosed
	}
	start := time.Now()
	ids, err := c.s.rts.window(rt, deltaRT)
	c.opts.metricsCollector.RecordRTQuery(len(ids), time.Since(start), err)
	c.opts.logger.LogRTQuery(context.Background(), rt, deltaRT, len(ids), err)
	return ids, err
}

// SpectraByRTAtLevel is SpectraByRT restricted to spectra with the given
// MS level.
func (c *Cache) SpectraByRTAtLevel(rt, deltaRT float64, level int32) ([]int, error) {
	if c.closed {
		return nil, ErrClosed
	}
	start := time.Now()
	ids, err := c.s.rts.windowAtLevel(c.s.levels, rt, deltaRT, level)
	c.opts.metricsCollector.RecordRTQuery(len(ids), time.Since(start), err)
	c.opts.logger.LogRTQuery(context.Background(), rt, deltaRT, len(ids), err)
	return ids, err
}

// SpectraByMSLevel returns the ids of all spectra with the given MS level.
func (c *Cache) SpectraByMSLevel(level int32) []int {
	return c.s.levels.Spectra(level)
}

// NumSpectraAtLevel returns the number of spectra with the given MS level.
func (c *Cache) NumSpectraAtLevel(level int32) int {
	return c.s.levels.Count(level)
}

// MSLevels returns the distinct MS levels in ascending order.
func (c *Cache) MSLevels() []int32 {
	return c.s.levels.Levels()
}

// Chromatogram decodes chromatogram id.
func (c *Cache) Chromatogram(id int) (*model.Chromatogram, error) {
	start := time.Now()
	ch, err := c.chromatogram(id)
	points := 0
	if ch != nil {
		points = ch.Len()
	}
	c.opts.metricsCollector.RecordChromatogramRead(points, time.Since(start), err)
	c.opts.logger.LogRead(context.Background(), KindChromatogram, id, points, err)
	return ch, err
}

func (c *Cache) chromatogram(id int) (*model.Chromatogram, error) {
	off, err := c.chromatogramOffset(id)
	if err != nil {
		return nil, err
	}
	ch, err := c.rd.ChromatogramAt(off)
	if err != nil {
		return nil, recordError(KindChromatogram, id, err)
	}
	ch.NativeID = c.s.meta.ChromatogramMeta(id).NativeID
	return ch, nil
}

// ChromatogramInto decodes chromatogram id into buf, reusing its capacity.
// On error buf.RT and buf.Intensity have length zero.
func (c *Cache) ChromatogramInto(id int, buf *reader.ChromatogramBuffer) error {
	start := time.Now()
	err := c.chromatogramInto(id, buf)
	c.opts.metricsCollector.RecordChromatogramRead(len(buf.RT), time.Since(start), err)
	return err
}

func (c *Cache) chromatogramInto(id int, buf *reader.ChromatogramBuffer) error {
	off, err := c.chromatogramOffset(id)
	if err != nil {
		buf.RT, buf.Intensity = buf.RT[:0], buf.Intensity[:0]
		return err
	}
	if err := c.rd.ChromatogramInto(off, buf); err != nil {
		return recordError(KindChromatogram, id, err)
	}
	return nil
}

// ChromatogramNativeID returns the native ID of chromatogram id.
func (c *Cache) ChromatogramNativeID(id int) (string, error) {
	if c.closed {
		return "", ErrClosed
	}
	if id < 0 || id >= c.NumChromatograms() {
		return "", &IndexError{Kind: KindChromatogram, ID: id, Count: c.NumChromatograms()}
	}
	return c.s.meta.ChromatogramMeta(id).NativeID, nil
}
