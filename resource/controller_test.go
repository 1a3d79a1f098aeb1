package resource

import (
	"bytes"
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	assert.True(t, c.TryAcquireMemory(60))
	assert.True(t, c.TryAcquireMemory(40))
	assert.False(t, c.TryAcquireMemory(1))
	assert.Equal(t, int64(100), c.MemoryUsage())

	c.ReleaseMemory(60)
	assert.True(t, c.TryAcquireMemory(50))
	assert.Equal(t, int64(90), c.MemoryUsage())

	assert.True(t, c.TryAcquireMemory(0))
	c.ReleaseMemory(-5)
	assert.Equal(t, int64(90), c.MemoryUsage())
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{})
	assert.True(t, c.TryAcquireMemory(1<<40))
	c.ReleaseMemory(1 << 39)
	assert.Equal(t, int64(1<<39), c.MemoryUsage())
}

func TestController_Workers(t *testing.T) {
	c := NewController(Config{MaxWorkers: 2})
	assert.Equal(t, 2, c.Workers())
	assert.Equal(t, int64(2), c.Config().MaxWorkers)

	var busy, peak atomic.Int64
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !assert.NoError(t, c.AcquireWorker(context.Background())) {
				return
			}
			defer c.ReleaseWorker()
			n := busy.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			busy.Add(-1)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, peak.Load(), int64(2))

	require.NoError(t, c.AcquireWorker(context.Background()))
	require.NoError(t, c.AcquireWorker(context.Background()))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireWorker(ctx), context.DeadlineExceeded)
}

func TestController_Nil(t *testing.T) {
	var c *Controller
	assert.True(t, c.TryAcquireMemory(1<<40))
	c.ReleaseMemory(1)
	assert.Zero(t, c.MemoryUsage())
	assert.NoError(t, c.AcquireWorker(context.Background()))
	c.ReleaseWorker()
	assert.Positive(t, c.Workers())
	assert.Equal(t, Config{}, c.Config())
	assert.NoError(t, c.AcquireIO(context.Background(), 1<<30))
}

func TestController_IOSplitsLargeRequests(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})

	// Above the burst; WaitN alone would fail.
	require.NoError(t, c.AcquireIO(context.Background(), 1<<20+1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, c.AcquireIO(ctx, 1<<20))
}

func TestRateLimitedIO(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})
	ctx := context.Background()

	var out bytes.Buffer
	n, err := NewRateLimitedWriter(ctx, &out, c).Write([]byte("spectrum"))
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	rs := NewRateLimitedReadSeeker(ctx, bytes.NewReader(out.Bytes()), c)
	pos, err := rs.Seek(4, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(4), pos)

	rest, err := io.ReadAll(rs)
	require.NoError(t, err)
	assert.Equal(t, "trum", string(rest))

	all, err := io.ReadAll(NewRateLimitedReader(ctx, bytes.NewReader(out.Bytes()), nil))
	require.NoError(t, err)
	assert.Equal(t, "spectrum", string(all))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	slow := NewController(Config{IOLimitBytesPerSec: 1})
	require.NoError(t, slow.AcquireIO(ctx, 1))
	_, err = NewRateLimitedWriter(cancelled, &out, slow).Write([]byte("x"))
	assert.Error(t, err)
}
