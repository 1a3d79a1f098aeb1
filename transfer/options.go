package transfer

import (
	"log/slog"

	"github.com/hupe1980/mzcache/internal/fs"
	"github.com/hupe1980/mzcache/resource"
	"github.com/klauspost/compress/zstd"
)

type options struct {
	compression Compression
	zstdLevel   zstd.EncoderLevel
	validate    bool
	raw         bool
	rc          *resource.Controller
	logger      *slog.Logger
	fs          fs.FileSystem
}

// Option configures Upload and Download.
type Option func(*options)

// WithCompression sets the payload compression used by Upload.
// Download reads it from the envelope.
func WithCompression(c Compression) Option {
	return func(o *options) { o.compression = c }
}

// WithZstdLevel sets the zstd level (1-22) used by Upload.
func WithZstdLevel(level int) Option {
	return func(o *options) { o.zstdLevel = zstd.EncoderLevelFromZstd(level) }
}

// WithRaw makes Upload store the file verbatim, without envelope or
// compression, so the blob can be read in place. Download and Stat reject
// raw blobs.
func WithRaw() Option {
	return func(o *options) { o.raw = true }
}

// WithoutValidation skips the cache structure check, e.g. for sidecars.
func WithoutValidation() Option {
	return func(o *options) { o.validate = false }
}

// WithResourceController throttles local file I/O.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) { o.rc = rc }
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithFileSystem sets the filesystem Download writes through.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) { o.fs = fsys }
}

func applyOptions(opts []Option) options {
	o := options{
		compression: CompressionZstd,
		zstdLevel:   zstd.SpeedDefault,
		validate:    true,
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
