package reader

import (
	"bufio"
	"fmt"
	"io"

	"github.com/hupe1980/mzcache/model"
	"github.com/hupe1980/mzcache/persistence"
)

// SpectrumBuffer receives a spectrum through the fast path. MZ and Intensity
// are resized to the peak count, reusing their capacity.
type SpectrumBuffer = persistence.SpectrumRecord

// ChromatogramBuffer receives a chromatogram through the fast path.
type ChromatogramBuffer = persistence.ChromatogramRecord

// Reader decodes records from a cache stream.
type Reader struct {
	rs     io.ReadSeeker
	size   int64
	header persistence.FileHeader
}

// New creates a Reader over rs. It determines the stream size and verifies
// the magic number.
func New(rs io.ReadSeeker) (*Reader, error) {
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, persistence.WrapIO("seek", -1, err)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, persistence.WrapIO("seek", 0, err)
	}
	hdr, err := persistence.ReadFileHeader(rs)
	if err != nil {
		return nil, persistence.WrapIO("read header", 0, err)
	}
	return &Reader{rs: rs, size: size, header: hdr}, nil
}

// Header returns the file header.
func (r *Reader) Header() persistence.FileHeader { return r.header }

// Size returns the size of the underlying stream.
func (r *Reader) Size() int64 { return r.size }

// SpectrumAt decodes the spectrum record at offset.
func (r *Reader) SpectrumAt(offset int64) (*model.Spectrum, error) {
	var buf SpectrumBuffer
	if err := r.SpectrumInto(offset, &buf); err != nil {
		return nil, err
	}
	s := &model.Spectrum{MSLevel: buf.MSLevel, RT: buf.RT, Peaks: make([]model.Peak, len(buf.MZ))}
	for i := range buf.MZ {
		s.Peaks[i] = model.Peak{MZ: buf.MZ[i], Intensity: buf.Intensity[i]}
	}
	return s, nil
}

// SpectrumInto decodes the spectrum record at offset into buf. On error
// buf.MZ and buf.Intensity are truncated to zero length.
func (r *Reader) SpectrumInto(offset int64, buf *SpectrumBuffer) error {
	if err := r.seekRecord(offset, persistence.SpectrumHeaderSize, "spectrum offset"); err != nil {
		buf.MZ, buf.Intensity = buf.MZ[:0], buf.Intensity[:0]
		return err
	}
	h, err := persistence.ReadSpectrumHeader(r.rs)
	if err != nil {
		buf.MZ, buf.Intensity = buf.MZ[:0], buf.Intensity[:0]
		return wrapAt("read spectrum header", offset, err)
	}
	if err := r.fits(offset, persistence.SpectrumRecordSize(h.PeakCount), "spectrum record"); err != nil {
		buf.MZ, buf.Intensity = buf.MZ[:0], buf.Intensity[:0]
		return err
	}
	if err := persistence.DecodeSpectrumBody(r.rs, h, buf); err != nil {
		return wrapAt("read spectrum", offset, err)
	}
	return nil
}

// ChromatogramAt decodes the chromatogram record at offset.
func (r *Reader) ChromatogramAt(offset int64) (*model.Chromatogram, error) {
	var buf ChromatogramBuffer
	if err := r.ChromatogramInto(offset, &buf); err != nil {
		return nil, err
	}
	c := &model.Chromatogram{Points: make([]model.ChromatogramPeak, len(buf.RT))}
	for i := range buf.RT {
		c.Points[i] = model.ChromatogramPeak{RT: buf.RT[i], Intensity: buf.Intensity[i]}
	}
	return c, nil
}

// ChromatogramInto decodes the chromatogram record at offset into buf. On
// error buf.RT and buf.Intensity are truncated to zero length.
func (r *Reader) ChromatogramInto(offset int64, buf *ChromatogramBuffer) error {
	if err := r.seekRecord(offset, persistence.ChromatogramHeaderSize, "chromatogram offset"); err != nil {
		buf.RT, buf.Intensity = buf.RT[:0], buf.Intensity[:0]
		return err
	}
	h, err := persistence.ReadChromatogramHeader(r.rs)
	if err != nil {
		buf.RT, buf.Intensity = buf.RT[:0], buf.Intensity[:0]
		return wrapAt("read chromatogram header", offset, err)
	}
	if err := r.fits(offset, persistence.ChromatogramRecordSize(h.PointCount), "chromatogram record"); err != nil {
		buf.RT, buf.Intensity = buf.RT[:0], buf.Intensity[:0]
		return err
	}
	if err := persistence.DecodeChromatogramBody(r.rs, h, buf); err != nil {
		return wrapAt("read chromatogram", offset, err)
	}
	return nil
}

func (r *Reader) seekRecord(offset, headerSize int64, field string) error {
	if offset < persistence.FileHeaderSize || offset >= r.size {
		return persistence.NewFormatError(offset, field,
			fmt.Sprintf("[%d, %d)", persistence.FileHeaderSize, r.size), offset, nil)
	}
	if err := r.fits(offset, headerSize, field); err != nil {
		return err
	}
	if _, err := r.rs.Seek(offset, io.SeekStart); err != nil {
		return persistence.WrapIO("seek", offset, err)
	}
	return nil
}

func (r *Reader) fits(offset, n int64, field string) error {
	if n > r.size-offset {
		return persistence.NewFormatError(offset, field,
			fmt.Sprintf("%d bytes", n), fmt.Sprintf("%d bytes left", r.size-offset), persistence.ErrTruncated)
	}
	return nil
}

func wrapAt(op string, offset int64, err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	err = persistence.WrapIO(op, offset, err)
	if fe, ok := err.(*persistence.FormatError); ok && fe.Offset < 0 {
		fe.Offset = offset
	}
	return err
}

// ReadAll decodes every record of rs sequentially, starting at the
// beginning of the stream. Bytes after the last record are a format error.
func ReadAll(rs io.ReadSeeker) (*model.Experiment, error) {
	r, err := New(rs)
	if err != nil {
		return nil, err
	}
	minSize, ok := persistence.MinFileSize(r.header)
	if !ok || minSize > r.size {
		return nil, persistence.NewFormatError(0, "record counts",
			fmt.Sprintf("file of at least %d bytes", minSize), r.size, persistence.ErrTruncated)
	}

	exp := &model.Experiment{
		Spectra:       make([]model.Spectrum, r.header.SpectrumCount),
		Chromatograms: make([]model.Chromatogram, r.header.ChromatogramCount),
	}

	br := bufio.NewReaderSize(rs, persistence.DefaultBufferSize)
	pos := int64(persistence.FileHeaderSize)

	var sbuf SpectrumBuffer
	for i := range exp.Spectra {
		h, err := persistence.ReadSpectrumHeader(br)
		if err != nil {
			return nil, wrapAt("read spectrum header", pos, err)
		}
		n := persistence.SpectrumRecordSize(h.PeakCount)
		if err := r.fits(pos, n, "spectrum record"); err != nil {
			return nil, err
		}
		if err := persistence.DecodeSpectrumBody(br, h, &sbuf); err != nil {
			return nil, wrapAt("read spectrum", pos, err)
		}
		s := &exp.Spectra[i]
		s.MSLevel, s.RT = sbuf.MSLevel, sbuf.RT
		s.Peaks = make([]model.Peak, len(sbuf.MZ))
		for j := range sbuf.MZ {
			s.Peaks[j] = model.Peak{MZ: sbuf.MZ[j], Intensity: sbuf.Intensity[j]}
		}
		pos += n
	}

	var chrom ChromatogramBuffer
	for i := range exp.Chromatograms {
		h, err := persistence.ReadChromatogramHeader(br)
		if err != nil {
			return nil, wrapAt("read chromatogram header", pos, err)
		}
		n := persistence.ChromatogramRecordSize(h.PointCount)
		if err := r.fits(pos, n, "chromatogram record"); err != nil {
			return nil, err
		}
		if err := persistence.DecodeChromatogramBody(br, h, &chrom); err != nil {
			return nil, wrapAt("read chromatogram", pos, err)
		}
		c := &exp.Chromatograms[i]
		c.Points = make([]model.ChromatogramPeak, len(chrom.RT))
		for j := range chrom.RT {
			c.Points[j] = model.ChromatogramPeak{RT: chrom.RT[j], Intensity: chrom.Intensity[j]}
		}
		pos += n
	}

	if pos != r.size {
		return nil, persistence.NewFormatError(pos, "trailing bytes", pos, r.size, nil)
	}
	return exp, nil
}
