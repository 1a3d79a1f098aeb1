package persistence

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// SpectrumRecord is the decoded form of one spectrum record.
// MZ and Intensity are parallel arrays in original peak order.
type SpectrumRecord struct {
	MSLevel   int32
	RT        float64
	MZ        []float64
	Intensity []float64
}

// ChromatogramRecord is the decoded form of one chromatogram record.
type ChromatogramRecord struct {
	RT        []float64
	Intensity []float64
}

// Size returns the encoded size of the record.
func (r *SpectrumRecord) Size() int64 { return SpectrumRecordSize(uint64(len(r.MZ))) }

// Size returns the encoded size of the record.
func (r *ChromatogramRecord) Size() int64 { return ChromatogramRecordSize(uint64(len(r.RT))) }

// WriteFileHeader writes the cache file header.
func WriteFileHeader(w io.Writer, spectra, chromatograms uint64) error {
	var buf [FileHeaderSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(MagicNumber))
	binary.LittleEndian.PutUint64(buf[4:12], spectra)
	binary.LittleEndian.PutUint64(buf[12:20], chromatograms)
	_, err := w.Write(buf[:])
	return err
}

// ReadFileHeader reads the cache file header and verifies the magic number.
func ReadFileHeader(r io.Reader) (FileHeader, error) {
	var buf [FileHeaderSize]byte
	if _, err := io.ReadFull(r, buf[:4]); err != nil {
		return FileHeader{}, err
	}
	h := FileHeader{Magic: int32(binary.LittleEndian.Uint32(buf[0:4]))}
	if h.Magic != MagicNumber {
		return h, NewFormatError(0, "magic", MagicNumber, h.Magic, ErrInvalidMagic)
	}
	if _, err := io.ReadFull(r, buf[4:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return h, err
	}
	h.SpectrumCount = binary.LittleEndian.Uint64(buf[4:12])
	h.ChromatogramCount = binary.LittleEndian.Uint64(buf[12:20])
	return h, nil
}

// ReadSpectrumHeader reads the fixed part of a spectrum record.
func ReadSpectrumHeader(r io.Reader) (SpectrumHeader, error) {
	var buf [SpectrumHeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return SpectrumHeader{}, err
	}
	h := SpectrumHeader{
		PeakCount: binary.LittleEndian.Uint64(buf[0:8]),
		MSLevel:   int32(binary.LittleEndian.Uint32(buf[8:12])),
		RT:        math.Float64frombits(binary.LittleEndian.Uint64(buf[12:20])),
	}
	if h.PeakCount > MaxValueCount {
		return h, NewFormatError(-1, "peak_count", fmt.Sprintf("<= %d", uint64(MaxValueCount)), h.PeakCount, nil)
	}
	return h, nil
}

// ReadChromatogramHeader reads the fixed part of a chromatogram record.
func ReadChromatogramHeader(r io.Reader) (ChromatogramHeader, error) {
	var buf [ChromatogramHeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return ChromatogramHeader{}, err
	}
	h := ChromatogramHeader{PointCount: binary.LittleEndian.Uint64(buf[:])}
	if h.PointCount > MaxValueCount {
		return h, NewFormatError(-1, "point_count", fmt.Sprintf("<= %d", uint64(MaxValueCount)), h.PointCount, nil)
	}
	return h, nil
}

func putSpectrumHeader(buf []byte, n uint64, msLevel int32, rt float64) {
	binary.LittleEndian.PutUint64(buf[0:8], n)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(msLevel))
	binary.LittleEndian.PutUint64(buf[12:20], math.Float64bits(rt))
}

// EncodeSpectrum writes one spectrum record.
func EncodeSpectrum(w io.Writer, rec *SpectrumRecord) error {
	if len(rec.MZ) != len(rec.Intensity) {
		return NewFormatError(-1, "intensity_values", len(rec.MZ), len(rec.Intensity), ErrLengthMismatch)
	}
	var hdr [SpectrumHeaderSize]byte
	putSpectrumHeader(hdr[:], uint64(len(rec.MZ)), rec.MSLevel, rec.RT)
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if err := WriteValues(w, rec.MZ); err != nil {
		return err
	}
	return WriteValues(w, rec.Intensity)
}

// DecodeSpectrum reads one spectrum record.
func DecodeSpectrum(r io.Reader) (*SpectrumRecord, error) {
	rec := &SpectrumRecord{}
	if err := DecodeSpectrumInto(r, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// DecodeSpectrumInto reads one spectrum record into rec, reusing the capacity
// of rec.MZ and rec.Intensity. On error both slices are truncated to zero
// length.
func DecodeSpectrumInto(r io.Reader, rec *SpectrumRecord) error {
	h, err := ReadSpectrumHeader(r)
	if err != nil {
		rec.MZ, rec.Intensity = rec.MZ[:0], rec.Intensity[:0]
		return err
	}
	return decodeSpectrumBody(r, h, rec)
}

// DecodeSpectrumBody reads the value arrays of a record whose header has
// already been consumed.
func DecodeSpectrumBody(r io.Reader, h SpectrumHeader, rec *SpectrumRecord) error {
	return decodeSpectrumBody(r, h, rec)
}

func decodeSpectrumBody(r io.Reader, h SpectrumHeader, rec *SpectrumRecord) error {
	n := int(h.PeakCount)
	rec.MSLevel = h.MSLevel
	rec.RT = h.RT
	rec.MZ = resize(rec.MZ, n)
	rec.Intensity = resize(rec.Intensity, n)
	if err := readPair(r, rec.MZ, rec.Intensity); err != nil {
		rec.MZ, rec.Intensity = rec.MZ[:0], rec.Intensity[:0]
		return err
	}
	return nil
}

// EncodeChromatogram writes one chromatogram record.
func EncodeChromatogram(w io.Writer, rec *ChromatogramRecord) error {
	if len(rec.RT) != len(rec.Intensity) {
		return NewFormatError(-1, "intensity_values", len(rec.RT), len(rec.Intensity), ErrLengthMismatch)
	}
	var hdr [ChromatogramHeaderSize]byte
	binary.LittleEndian.PutUint64(hdr[:], uint64(len(rec.RT)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if err := WriteValues(w, rec.RT); err != nil {
		return err
	}
	return WriteValues(w, rec.Intensity)
}

// DecodeChromatogram reads one chromatogram record.
func DecodeChromatogram(r io.Reader) (*ChromatogramRecord, error) {
	rec := &ChromatogramRecord{}
	if err := DecodeChromatogramInto(r, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// DecodeChromatogramInto reads one chromatogram record into rec, reusing slice
// capacity. On error both slices are truncated to zero length.
func DecodeChromatogramInto(r io.Reader, rec *ChromatogramRecord) error {
	h, err := ReadChromatogramHeader(r)
	if err != nil {
		rec.RT, rec.Intensity = rec.RT[:0], rec.Intensity[:0]
		return err
	}
	return DecodeChromatogramBody(r, h, rec)
}

// DecodeChromatogramBody reads the value arrays of a record whose header has
// already been consumed.
func DecodeChromatogramBody(r io.Reader, h ChromatogramHeader, rec *ChromatogramRecord) error {
	n := int(h.PointCount)
	rec.RT = resize(rec.RT, n)
	rec.Intensity = resize(rec.Intensity, n)
	if err := readPair(r, rec.RT, rec.Intensity); err != nil {
		rec.RT, rec.Intensity = rec.RT[:0], rec.Intensity[:0]
		return err
	}
	return nil
}

// readPair reads two arrays that follow a record header. Running out of
// input anywhere inside a record is a short read.
func readPair(r io.Reader, a, b []float64) error {
	if err := ReadValues(r, a); err != nil {
		return shortRead(err)
	}
	return shortRead(ReadValues(r, b))
}

func shortRead(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
