package mzcache

import (
	"log/slog"

	"github.com/hupe1980/mzcache/codec"
	"github.com/hupe1980/mzcache/index"
	"github.com/hupe1980/mzcache/resource"
)

// Option configures Open, OpenBlob, OpenStore, Save and Verify. Options an
// operation has no use for are ignored.
type Option func(*options)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	codec            codec.Codec
	registry         *index.Registry
	index            *index.OffsetIndex
	rc               *resource.Controller
	workers          int
	cacheBytes       int64
	blockSize        int64
}

func defaultOptions() options {
	return options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		codec:            codec.Default,
		registry:         index.DefaultRegistry,
	}
}

func applyOptions(optFns []Option) options {
	o := defaultOptions()
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.workers <= 0 {
		o.workers = o.rc.Workers()
	}
	return o
}

// WithLogger sends operation logs to logger; nil silences them.
//
//	c, err := mzcache.Open("run01", mzcache.WithLogger(mzcache.NewJSONLogger(slog.LevelInfo)))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel is WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) { o.logger = NewTextLogger(level) }
}

// WithMetricsCollector reports opens, reads and RT queries to mc; nil
// disables reporting.
//
//	var m mzcache.BasicMetricsCollector
//	c, err := mzcache.Open("run01", mzcache.WithMetricsCollector(&m))
//	...
//	fmt.Println(m.GetStats().SpectrumReads)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithCodec selects the codec Save writes sidecars with; nil means
// codec.Default. Readers use whichever codec a sidecar names.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithRegistry replaces index.DefaultRegistry as the place offset indices of
// local files are shared and remembered.
func WithRegistry(r *index.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithIndex skips the offset scan and uses x, which must have been built
// from the same file.
func WithIndex(x *index.OffsetIndex) Option {
	return func(o *options) { o.index = x }
}

// WithResourceController charges reads to rc's I/O budget and Verify
// workers to its worker slots.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) { o.rc = rc }
}

// WithBlockCache makes OpenStore read through a block cache of up to
// capacity bytes, fetched from the store in blocks of blockSize bytes
// (blobstore.DefaultBlockSize when <= 0). Use it for remote stores, where
// every uncached read is a request. The cache belongs to the returned Cache
// and is freed when its last clone closes. When a resource controller is
// set, cached bytes are charged to its memory budget.
func WithBlockCache(capacity, blockSize int64) Option {
	return func(o *options) {
		o.cacheBytes = capacity
		o.blockSize = blockSize
	}
}

// WithWorkers sets how many ranges Verify checks in parallel. It defaults
// to the resource controller's worker count.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}
