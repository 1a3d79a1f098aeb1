package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mzcache/resource"
)

func key(blob string, block int64) BlockKey { return BlockKey{Blob: blob, Block: block} }

func TestLRU_Eviction(t *testing.T) {
	c := NewLRU(30, nil)
	for i := range int64(3) {
		c.Put(key("run.cached", i), make([]byte, 10))
	}
	// block 1 becomes the eviction candidate
	_, ok := c.Get(key("run.cached", 0))
	require.True(t, ok)

	c.Put(key("run.cached", 3), make([]byte, 10))
	st := c.Stats()
	assert.Equal(t, int64(30), st.Bytes)
	assert.Equal(t, 3, st.Blocks)

	_, ok = c.Get(key("run.cached", 1))
	assert.False(t, ok)
	_, ok = c.Get(key("run.cached", 0))
	assert.True(t, ok)
}

func TestLRU_Replace(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 100})
	c := NewLRU(50, rc)
	k := key("a", 1)

	c.Put(k, make([]byte, 60))
	_, ok := c.Get(k)
	assert.False(t, ok, "oversized block")

	c.Put(k, make([]byte, 10))
	c.Put(k, make([]byte, 20))
	assert.Equal(t, int64(20), c.Stats().Bytes)
	c.Put(k, make([]byte, 5))
	assert.Equal(t, int64(5), c.Stats().Bytes)
	assert.Equal(t, int64(5), rc.MemoryUsage())
	assert.Equal(t, 1, c.Stats().Blocks)
}

func TestLRU_ReplaceEvictsOthers(t *testing.T) {
	c := NewLRU(30, nil)
	c.Put(key("a", 0), make([]byte, 10))
	c.Put(key("a", 1), make([]byte, 10))
	c.Put(key("a", 0), make([]byte, 25))

	got, ok := c.Get(key("a", 0))
	require.True(t, ok)
	assert.Len(t, got, 25)
	_, ok = c.Get(key("a", 1))
	assert.False(t, ok)
	assert.Equal(t, int64(25), c.Stats().Bytes)
}

func TestLRU_MemoryBudget(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 10})
	c := NewLRU(50, rc)
	k := key("a", 1)
	c.Put(k, make([]byte, 8))
	c.Put(k, make([]byte, 12))

	got, ok := c.Get(k)
	assert.True(t, ok)
	assert.Len(t, got, 8, "growth beyond the budget keeps the old block")

	c.Put(key("b", 0), make([]byte, 4))
	_, ok = c.Get(key("b", 0))
	assert.False(t, ok)

	require.NoError(t, c.Close())
	assert.Zero(t, rc.MemoryUsage())
	assert.Zero(t, c.Stats().Blocks)
}

func TestLRU_DropBlob(t *testing.T) {
	c := NewLRU(100, nil)
	c.Put(key("a", 1), []byte("a"))
	c.Put(key("a", 2), []byte("b"))
	c.Put(key("b", 1), []byte("c"))

	c.DropBlob("a")
	c.DropBlob("missing")

	_, ok := c.Get(key("a", 1))
	assert.False(t, ok)
	_, ok = c.Get(key("b", 1))
	assert.True(t, ok)

	st := c.Stats()
	assert.Equal(t, Stats{Hits: 1, Misses: 1, Blocks: 1, Bytes: 1}, st)
}

func TestSharded_Concurrent(t *testing.T) {
	c := NewSharded(64<<20, 0, nil)
	data := make([]byte, 1024)

	const goroutines, ops = 32, 200
	var wg sync.WaitGroup
	for g := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			blob := fmt.Sprintf("run-%02d.cached", g)
			for i := range int64(ops) {
				c.Put(key(blob, i), data)
				_, ok := c.Get(key(blob, i))
				assert.True(t, ok)
			}
		}()
	}
	wg.Wait()

	st := c.Stats()
	assert.Equal(t, int64(goroutines*ops), st.Hits+st.Misses)
	assert.Equal(t, goroutines*ops, st.Blocks)
	assert.Equal(t, int64(goroutines*ops*len(data)), st.Bytes)

	c.DropBlob("run-00.cached")
	_, ok := c.Get(key("run-00.cached", 0))
	assert.False(t, ok)
	_, ok = c.Get(key("run-01.cached", 0))
	assert.True(t, ok)

	require.NoError(t, c.Close())
	assert.Zero(t, c.Stats().Bytes)
}

func BenchmarkSharded_Get(b *testing.B) {
	c := NewSharded(64<<20, 0, nil)
	k := key("run.cached", 0)
	c.Put(k, make([]byte, 4096))

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			c.Get(k)
		}
	})
}
