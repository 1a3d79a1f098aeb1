package transfer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/mzcache/blobstore"
	"github.com/hupe1980/mzcache/index"
	"github.com/hupe1980/mzcache/persistence"
	"github.com/hupe1980/mzcache/resource"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Stats describes a completed transfer.
type Stats struct {
	Name        string
	Compression Compression
	// Raw is set for blobs stored without an envelope.
	Raw bool
	// Size is the uncompressed payload size.
	Size int64
	// Stored is the blob size including the envelope.
	Stored   int64
	Checksum uint32
}

// Ratio returns Stored/Size, or 0 for an empty payload.
func (s *Stats) Ratio() float64 {
	if s.Size == 0 {
		return 0
	}
	return float64(s.Stored) / float64(s.Size)
}

// Upload stores the file at path in store under name.
func Upload(ctx context.Context, store blobstore.BlobStore, name, path string, opts ...Option) (*Stats, error) {
	o := applyOptions(opts)
	if !o.compression.valid() {
		return nil, fmt.Errorf("transfer: invalid compression %d", o.compression)
	}

	if o.validate {
		if _, err := index.BuildFile(path); err != nil {
			return nil, err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &persistence.IOError{Op: "open", Path: path, Offset: -1, Err: err}
	}
	defer f.Close()

	if o.raw {
		return uploadRaw(ctx, store, name, path, f, o)
	}

	// First pass: checksum and size for the envelope.
	cr := persistence.NewChecksumReader(resource.NewRateLimitedReader(ctx, f, o.rc))
	if _, err := io.Copy(io.Discard, cr); err != nil {
		return nil, &persistence.IOError{Op: "read", Path: path, Offset: cr.Count(), Err: err}
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, &persistence.IOError{Op: "seek", Path: path, Offset: 0, Err: err}
	}
	env := Envelope{Compression: o.compression, Size: uint64(cr.Count()), Checksum: cr.Sum()}

	wb, err := store.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("transfer: create %s: %w", name, err)
	}

	cw := persistence.NewCountingWriter(wb)
	if err := writePayload(ctx, cw, f, env, o); err != nil {
		_ = blobstore.Abort(ctx, wb)
		if o.logger != nil {
			o.logger.Error("upload failed", "name", name, "path", path, "error", err)
		}
		return nil, err
	}
	if err := wb.Close(); err != nil {
		return nil, fmt.Errorf("transfer: commit %s: %w", name, err)
	}

	stats := &Stats{
		Name:        name,
		Compression: env.Compression,
		Size:        int64(env.Size),
		Stored:      cw.N,
		Checksum:    env.Checksum,
	}
	if o.logger != nil {
		o.logger.Info("cache uploaded",
			"name", name,
			"compression", env.Compression.String(),
			"size", stats.Size,
			"stored", stats.Stored,
		)
	}
	return stats, nil
}

func uploadRaw(ctx context.Context, store blobstore.BlobStore, name, path string, f *os.File, o options) (*Stats, error) {
	wb, err := store.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("transfer: create %s: %w", name, err)
	}

	cr := persistence.NewChecksumReader(resource.NewRateLimitedReader(ctx, f, o.rc))
	if _, err := io.Copy(wb, cr); err != nil {
		_ = blobstore.Abort(ctx, wb)
		if o.logger != nil {
			o.logger.Error("upload failed", "name", name, "path", path, "error", err)
		}
		return nil, fmt.Errorf("transfer: write %s: %w", name, err)
	}
	if err := wb.Close(); err != nil {
		return nil, fmt.Errorf("transfer: commit %s: %w", name, err)
	}

	stats := &Stats{
		Name:        name,
		Compression: CompressionNone,
		Raw:         true,
		Size:        cr.Count(),
		Stored:      cr.Count(),
		Checksum:    cr.Sum(),
	}
	if o.logger != nil {
		o.logger.Info("cache uploaded", "name", name, "raw", true, "size", stats.Size)
	}
	return stats, nil
}

func writePayload(ctx context.Context, w io.Writer, src io.Reader, env Envelope, o options) error {
	hdr, _ := env.MarshalBinary()
	if _, err := w.Write(hdr); err != nil {
		return fmt.Errorf("transfer: write envelope: %w", err)
	}

	src = resource.NewRateLimitedReader(ctx, src, o.rc)

	var (
		dst io.WriteCloser
		err error
	)
	switch env.Compression {
	case CompressionZstd:
		dst, err = zstd.NewWriter(w, zstd.WithEncoderLevel(o.zstdLevel))
		if err != nil {
			return err
		}
	case CompressionLZ4:
		dst = lz4.NewWriter(w)
	default:
		dst = nopWriteCloser{w}
	}

	n, err := io.Copy(dst, src)
	if err != nil {
		_ = dst.Close()
		return fmt.Errorf("transfer: write payload: %w", err)
	}
	if uint64(n) != env.Size {
		_ = dst.Close()
		return fmt.Errorf("transfer: source changed during upload: read %d bytes, expected %d", n, env.Size)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("transfer: flush payload: %w", err)
	}
	return nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// Download fetches name from store and writes it atomically to path.
// Size and checksum are verified before path is replaced. If the structure
// check fails afterwards, path is removed.
func Download(ctx context.Context, store blobstore.BlobStore, name, path string, opts ...Option) (*Stats, error) {
	o := applyOptions(opts)

	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("transfer: open %s: %w", name, err)
	}
	defer blob.Close()

	rc, err := blob.ReadRange(ctx, 0, blob.Size())
	if err != nil {
		return nil, fmt.Errorf("transfer: read %s: %w", name, err)
	}
	defer rc.Close()

	env, err := ReadEnvelope(rc)
	if err != nil {
		return nil, err
	}

	var src io.Reader
	switch env.Compression {
	case CompressionZstd:
		dec, err := zstd.NewReader(rc)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		src = dec
	case CompressionLZ4:
		src = lz4.NewReader(rc)
	default:
		src = rc
	}

	err = persistence.SaveToFile(path, persistence.SaveOptions{FS: o.fs}, func(w io.Writer) error {
		cw := persistence.NewChecksumWriter(resource.NewRateLimitedWriter(ctx, w, o.rc))
		// Read one byte past the declared size to detect oversized payloads.
		n, err := io.Copy(cw, io.LimitReader(src, int64(env.Size)+1))
		if err != nil {
			return err
		}
		if uint64(n) != env.Size {
			return persistence.NewFormatError(-1, "payload size", env.Size, n, ErrInvalidEnvelope)
		}
		if sum := cw.Sum(); sum != env.Checksum {
			return &persistence.ChecksumMismatchError{Expected: env.Checksum, Actual: sum}
		}
		return nil
	})
	if err != nil {
		if o.logger != nil {
			o.logger.Error("download failed", "name", name, "path", path, "error", err)
		}
		return nil, err
	}

	if o.validate {
		if _, err := index.BuildFile(path); err != nil {
			_ = os.Remove(path)
			return nil, err
		}
	}

	stats := &Stats{
		Name:        name,
		Compression: env.Compression,
		Size:        int64(env.Size),
		Stored:      blob.Size(),
		Checksum:    env.Checksum,
	}
	if o.logger != nil {
		o.logger.Info("cache downloaded",
			"name", name,
			"compression", env.Compression.String(),
			"size", stats.Size,
			"stored", stats.Stored,
		)
	}
	return stats, nil
}

// Stat reads only the envelope of name.
func Stat(ctx context.Context, store blobstore.BlobStore, name string) (Envelope, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return Envelope{}, fmt.Errorf("transfer: open %s: %w", name, err)
	}
	defer blob.Close()

	return ReadEnvelope(io.NewSectionReader(blobstore.NewReadSeeker(ctx, blob), 0, EnvelopeSize))
}
