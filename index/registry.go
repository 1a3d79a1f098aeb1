package index

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/mzcache/persistence"
)

// registryKey identifies one version of a file. A rewritten cache file gets
// a new key because its size or modification time changes.
type registryKey struct {
	path    string
	size    int64
	modTime time.Time
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger used to report index builds.
func WithRegistryLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithBuilder replaces the function used to build an index from a path.
func WithBuilder(fn func(path string) (*OffsetIndex, error)) RegistryOption {
	return func(r *Registry) {
		if fn != nil {
			r.build = fn
		}
	}
}

// Registry caches offset indices per file. Concurrent requests for the same
// file share one scan.
type Registry struct {
	mu      sync.RWMutex
	entries map[registryKey]*OffsetIndex
	group   singleflight.Group
	build   func(path string) (*OffsetIndex, error)
	logger  *slog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		entries: make(map[registryKey]*OffsetIndex),
		build:   BuildFile,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultRegistry is the process-wide registry.
var DefaultRegistry = NewRegistry()

// Get returns the index of the file at path, building it on first use.
// The returned index is shared and must not be modified.
func (r *Registry) Get(path string) (*OffsetIndex, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, &persistence.IOError{Op: "stat", Path: path, Offset: -1, Err: err}
	}
	key := registryKey{path: abs, size: info.Size(), modTime: info.ModTime()}

	r.mu.RLock()
	x, ok := r.entries[key]
	r.mu.RUnlock()
	if ok {
		return x, nil
	}

	v, err, shared := r.group.Do(fmt.Sprintf("%s\x00%d\x00%d", abs, key.size, key.modTime.UnixNano()), func() (any, error) {
		start := time.Now()
		x, err := r.build(abs)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		// drop stale versions of the same file
		for k := range r.entries {
			if k.path == abs {
				delete(r.entries, k)
			}
		}
		r.entries[key] = x
		r.mu.Unlock()
		if r.logger != nil {
			r.logger.Debug("cache indexed",
				"path", abs,
				"spectra", x.NumSpectra(),
				"chromatograms", x.NumChromatograms(),
				"duration", time.Since(start))
		}
		return x, nil
	})
	if err != nil {
		return nil, err
	}
	if shared && r.logger != nil {
		r.logger.Debug("cache index shared", "path", abs)
	}
	return v.(*OffsetIndex), nil
}

// Forget drops every cached index of path.
func (r *Registry) Forget(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.entries {
		if k.path == abs {
			delete(r.entries, k)
		}
	}
}

// Len returns the number of cached indices.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
