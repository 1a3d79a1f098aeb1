package writer

import (
	"bufio"
	"io"
	"log/slog"

	"github.com/hupe1980/mzcache/internal/fs"
	"github.com/hupe1980/mzcache/model"
	"github.com/hupe1980/mzcache/persistence"
)

type options struct {
	logger     *slog.Logger
	fs         fs.FileSystem
	bufferSize int
}

// Option configures a Writer.
type Option func(*options)

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithFileSystem sets the file system used by Write.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		if fsys != nil {
			o.fs = fsys
		}
	}
}

// WithBufferSize sets the write buffer size in bytes.
func WithBufferSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.bufferSize = n
		}
	}
}

// Writer writes experiments in the cache format.
//
// A Writer holds configuration only; every call stages its data in locals, so
// one Writer may be used from several goroutines.
type Writer struct {
	opts options
}

// New creates a Writer.
func New(optFns ...Option) *Writer {
	opts := options{
		fs:         fs.Default,
		bufferSize: persistence.DefaultBufferSize,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Writer{opts: opts}
}

// Write serializes exp to path, creating or replacing the file.
// Failures to create or write the file are returned as *persistence.IOError.
func (w *Writer) Write(exp *model.Experiment, path string) error {
	var n int64
	err := persistence.SaveToFile(path, persistence.SaveOptions{
		FS:         w.opts.fs,
		BufferSize: w.bufferSize(exp),
	}, func(out io.Writer) error {
		var err error
		n, err = encode(out, exp)
		return err
	})
	if err != nil {
		if w.opts.logger != nil {
			w.opts.logger.Error("cache write failed", "path", path, "error", err)
		}
		return err
	}
	if w.opts.logger != nil {
		w.opts.logger.Info("cache written",
			"path", path,
			"spectra", exp.NumSpectra(),
			"chromatograms", exp.NumChromatograms(),
			"bytes", n)
	}
	return nil
}

// WriteTo serializes exp to out and returns the number of bytes written.
// Write errors are returned as *persistence.IOError.
func (w *Writer) WriteTo(out io.Writer, exp *model.Experiment) (int64, error) {
	bw := bufio.NewWriterSize(out, w.bufferSize(exp))
	n, err := encode(bw, exp)
	if err != nil {
		return n, err
	}
	if err := bw.Flush(); err != nil {
		return n, &persistence.IOError{Op: "write", Offset: -1, Err: err}
	}
	return n, nil
}

// bufferSize caps the configured buffer at the encoded size of exp, so small
// runs do not allocate a full buffer.
func (w *Writer) bufferSize(exp *model.Experiment) int {
	if size := Size(exp); size < int64(w.opts.bufferSize) {
		return int(max(size, minBufferSize))
	}
	return w.opts.bufferSize
}

// minBufferSize is the smallest buffer bufio hands out.
const minBufferSize = 16

// Size returns the exact encoded size of exp.
func Size(exp *model.Experiment) int64 {
	size := int64(persistence.FileHeaderSize)
	for i := range exp.Spectra {
		size += persistence.SpectrumRecordSize(uint64(len(exp.Spectra[i].Peaks)))
	}
	for i := range exp.Chromatograms {
		size += persistence.ChromatogramRecordSize(uint64(len(exp.Chromatograms[i].Points)))
	}
	return size
}

func encode(out io.Writer, exp *model.Experiment) (int64, error) {
	cw := persistence.NewCountingWriter(out)
	if err := persistence.WriteFileHeader(cw, uint64(exp.NumSpectra()), uint64(exp.NumChromatograms())); err != nil {
		return cw.N, persistence.WrapIO("write header", 0, err)
	}

	var rec persistence.SpectrumRecord
	for i := range exp.Spectra {
		s := &exp.Spectra[i]
		rec.MSLevel = s.MSLevel
		rec.RT = s.RT
		rec.MZ = grow(rec.MZ, len(s.Peaks))
		rec.Intensity = grow(rec.Intensity, len(s.Peaks))
		for j, p := range s.Peaks {
			rec.MZ[j] = p.MZ
			rec.Intensity[j] = p.Intensity
		}
		offset := cw.N
		if err := persistence.EncodeSpectrum(cw, &rec); err != nil {
			return cw.N, persistence.WrapIO("write spectrum", offset, err)
		}
	}

	var chrom persistence.ChromatogramRecord
	for i := range exp.Chromatograms {
		c := &exp.Chromatograms[i]
		chrom.RT = grow(chrom.RT, len(c.Points))
		chrom.Intensity = grow(chrom.Intensity, len(c.Points))
		for j, p := range c.Points {
			chrom.RT[j] = p.RT
			chrom.Intensity[j] = p.Intensity
		}
		offset := cw.N
		if err := persistence.EncodeChromatogram(cw, &chrom); err != nil {
			return cw.N, persistence.WrapIO("write chromatogram", offset, err)
		}
	}
	return cw.N, nil
}

func grow(s []float64, n int) []float64 {
	if cap(s) >= n {
		return s[:n]
	}
	return make([]float64, n, n+n/4)
}
