package resource

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config sets the budgets of a Controller. Zero values mean unlimited,
// except MaxWorkers which then defaults to GOMAXPROCS.
type Config struct {
	// MemoryLimitBytes caps the bytes held by block caches.
	MemoryLimitBytes int64
	// MaxWorkers caps record workers across all operations sharing the
	// Controller.
	MaxWorkers int64
	// IOLimitBytesPerSec caps cache file reads and writes.
	IOLimitBytesPerSec int64
}

// Controller hands out memory, worker and I/O budget. All methods accept a
// nil receiver, which imposes no limits.
type Controller struct {
	cfg     Config
	mem     *semaphore.Weighted
	memUsed atomic.Int64
	workers *semaphore.Weighted
	io      *rate.Limiter
}

func NewController(cfg Config) *Controller {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = int64(runtime.GOMAXPROCS(0))
	}
	c := &Controller{cfg: cfg, workers: semaphore.NewWeighted(cfg.MaxWorkers)}
	if cfg.MemoryLimitBytes > 0 {
		c.mem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}
	if cfg.IOLimitBytesPerSec > 0 {
		// One second of budget may be spent at once.
		c.io = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(min(cfg.IOLimitBytesPerSec, 1<<30)))
	}
	return c
}

// Config returns the effective configuration.
func (c *Controller) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.cfg
}

// Workers is the number of worker slots.
func (c *Controller) Workers() int {
	if c == nil {
		return runtime.GOMAXPROCS(0)
	}
	return int(c.cfg.MaxWorkers)
}

// AcquireWorker blocks until a worker slot is free or ctx ends.
func (c *Controller) AcquireWorker(ctx context.Context) error {
	if c == nil {
		return ctx.Err()
	}
	return c.workers.Acquire(ctx, 1)
}

func (c *Controller) ReleaseWorker() {
	if c != nil {
		c.workers.Release(1)
	}
}

// TryAcquireMemory reserves n bytes, or reports false if that would exceed
// the limit.
func (c *Controller) TryAcquireMemory(n int64) bool {
	if c == nil || n <= 0 {
		return true
	}
	if c.mem != nil && !c.mem.TryAcquire(n) {
		return false
	}
	c.memUsed.Add(n)
	return true
}

func (c *Controller) ReleaseMemory(n int64) {
	if c == nil || n <= 0 {
		return
	}
	if c.mem != nil {
		c.mem.Release(n)
	}
	c.memUsed.Add(-n)
}

// MemoryUsage is the number of bytes currently reserved.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// AcquireIO waits until n bytes of I/O are allowed. Requests above the
// limiter burst are charged in burst-sized pieces.
func (c *Controller) AcquireIO(ctx context.Context, n int) error {
	if c == nil || c.io == nil {
		return nil
	}
	for burst := c.io.Burst(); n > 0; n -= burst {
		if err := c.io.WaitN(ctx, min(n, burst)); err != nil {
			return err
		}
	}
	return nil
}
