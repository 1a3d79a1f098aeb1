package index

import (
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/mzcache/internal/conv"
	"github.com/hupe1980/mzcache/persistence"
)

// OffsetIndex holds the start offset of every record in a cache file.
// Offsets are strictly increasing and lie in [FileHeaderSize, Size).
type OffsetIndex struct {
	Spectra       []int64
	Chromatograms []int64
	// Size is the size of the indexed file in bytes.
	Size int64
}

// NumSpectra returns the number of indexed spectra.
func (x *OffsetIndex) NumSpectra() int { return len(x.Spectra) }

// NumChromatograms returns the number of indexed chromatograms.
func (x *OffsetIndex) NumChromatograms() int { return len(x.Chromatograms) }

// SpectrumOffset returns the offset of spectrum i.
func (x *OffsetIndex) SpectrumOffset(i int) (int64, bool) {
	if i < 0 || i >= len(x.Spectra) {
		return 0, false
	}
	return x.Spectra[i], true
}

// ChromatogramOffset returns the offset of chromatogram i.
func (x *OffsetIndex) ChromatogramOffset(i int) (int64, bool) {
	if i < 0 || i >= len(x.Chromatograms) {
		return 0, false
	}
	return x.Chromatograms[i], true
}

// Validate checks the structural invariants of the index. Indices returned
// by Build always validate; this is for indices assembled by hand.
func (x *OffsetIndex) Validate() error {
	prev := int64(persistence.FileHeaderSize) - 1
	check := func(kind string, offsets []int64) error {
		for i, off := range offsets {
			if off <= prev || off >= x.Size {
				return fmt.Errorf("index: %s %d offset %d out of order or outside (%d, %d)", kind, i, off, prev, x.Size)
			}
			prev = off
		}
		return nil
	}
	if err := check("spectrum", x.Spectra); err != nil {
		return err
	}
	return check("chromatogram", x.Chromatograms)
}

// BuildFile opens path and builds its index.
func BuildFile(path string) (*OffsetIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &persistence.IOError{Op: "open", Path: path, Offset: -1, Err: err}
	}
	defer f.Close()

	x, err := Build(f)
	if err != nil {
		if ie, ok := err.(*persistence.IOError); ok && ie.Path == "" {
			ie.Path = path
		}
		return nil, err
	}
	return x, nil
}

// Build scans rs from the start and returns the offsets of all records.
// The stream position is unspecified afterwards.
func Build(rs io.ReadSeeker) (*OffsetIndex, error) {
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

	minSize, ok := persistence.MinFileSize(hdr)
	if !ok || minSize > size {
		return nil, persistence.NewFormatError(0, "record counts",
			fmt.Sprintf("file of at least %d bytes", minSize), size, persistence.ErrTruncated)
	}

	nSpectra, err := conv.Uint64ToInt(hdr.SpectrumCount)
	if err != nil {
		return nil, persistence.NewFormatError(4, "spectrum_count", "int", hdr.SpectrumCount, err)
	}
	nChroms, err := conv.Uint64ToInt(hdr.ChromatogramCount)
	if err != nil {
		return nil, persistence.NewFormatError(12, "chromatogram_count", "int", hdr.ChromatogramCount, err)
	}

	x := &OffsetIndex{
		Spectra:       make([]int64, nSpectra),
		Chromatograms: make([]int64, nChroms),
		Size:          size,
	}

	pos := int64(persistence.FileHeaderSize)
	for i := range x.Spectra {
		if err := fits(pos, persistence.SpectrumHeaderSize, size, "spectrum header"); err != nil {
			return nil, err
		}
		if _, err := rs.Seek(pos, io.SeekStart); err != nil {
			return nil, persistence.WrapIO("seek", pos, err)
		}
		h, err := persistence.ReadSpectrumHeader(rs)
		if err != nil {
			return nil, atOffset(persistence.WrapIO("read spectrum header", pos, err), pos)
		}
		recSize := persistence.SpectrumRecordSize(h.PeakCount)
		if err := fits(pos, recSize, size, "spectrum record"); err != nil {
			return nil, err
		}
		x.Spectra[i] = pos
		pos += recSize
	}

	for i := range x.Chromatograms {
		if err := fits(pos, persistence.ChromatogramHeaderSize, size, "chromatogram header"); err != nil {
			return nil, err
		}
		if _, err := rs.Seek(pos, io.SeekStart); err != nil {
			return nil, persistence.WrapIO("seek", pos, err)
		}
		h, err := persistence.ReadChromatogramHeader(rs)
		if err != nil {
			return nil, atOffset(persistence.WrapIO("read chromatogram header", pos, err), pos)
		}
		recSize := persistence.ChromatogramRecordSize(h.PointCount)
		if err := fits(pos, recSize, size, "chromatogram record"); err != nil {
			return nil, err
		}
		x.Chromatograms[i] = pos
		pos += recSize
	}

	if pos != size {
		return nil, persistence.NewFormatError(pos, "trailing bytes", pos, size, nil)
	}
	return x, nil
}

// fits reports a truncation error when [pos, pos+n) is not inside the file.
func fits(pos, n, size int64, field string) error {
	if n > size-pos {
		return persistence.NewFormatError(pos, field,
			fmt.Sprintf("%d bytes", n), fmt.Sprintf("%d bytes left", size-pos), persistence.ErrTruncated)
	}
	return nil
}

// atOffset fills in the offset of a format error raised by a header decoder.
func atOffset(err error, pos int64) error {
	if fe, ok := err.(*persistence.FormatError); ok && fe.Offset < 0 {
		fe.Offset = pos
	}
	return err
}
