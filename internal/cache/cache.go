package cache

import (
	"container/list"
	"sync"

	"github.com/hupe1980/mzcache/resource"
)

// BlockKey identifies one block of one blob.
type BlockKey struct {
	Blob  string
	Block int64
}

// Stats is a point-in-time view of a cache.
type Stats struct {
	Hits   int64
	Misses int64
	Blocks int
	Bytes  int64
}

// BlockCache holds immutable blocks. Returned slices are shared and must not
// be modified.
type BlockCache interface {
	Get(key BlockKey) ([]byte, bool)
	// Put may retain b.
	Put(key BlockKey, b []byte)
	// DropBlob removes every block of blob.
	DropBlob(blob string)
	Stats() Stats
	Close() error
}

type entry struct {
	key  BlockKey
	data []byte
}

// LRU is a BlockCache bounded in bytes.
type LRU struct {
	mu       sync.Mutex
	capacity int64
	bytes    int64
	order    *list.List // front is most recent
	blobs    map[string]map[int64]*list.Element
	rc       *resource.Controller
	hits     int64
	misses   int64
}

// NewLRU returns an LRU holding at most capacity bytes. When rc is not nil
// cached bytes are also charged to its memory budget.
func NewLRU(capacity int64, rc *resource.Controller) *LRU {
	return &LRU{
		capacity: capacity,
		order:    list.New(),
		blobs:    make(map[string]map[int64]*list.Element),
		rc:       rc,
	}
}

func (c *LRU) Get(key BlockKey) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.blobs[key.Blob][key.Block]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.order.MoveToFront(el)
	return el.Value.(*entry).data, true
}

// Put caches b under key, replacing an older block. Blocks larger than the
// capacity, or that the memory budget refuses, are not cached; a refused
// replacement keeps the older block.
func (c *LRU) Put(key BlockKey, b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := int64(len(b))
	if n > c.capacity {
		return
	}
	if el, ok := c.blobs[key.Blob][key.Block]; ok {
		e := el.Value.(*entry)
		old := int64(len(e.data))
		if n > old && !c.rc.TryAcquireMemory(n-old) {
			return
		}
		c.rc.ReleaseMemory(max(old-n, 0))
		c.bytes += n - old
		e.data = b
		c.order.MoveToFront(el)
		c.shrink(el)
		return
	}

	c.shrinkTo(c.capacity - n)
	if !c.rc.TryAcquireMemory(n) {
		return
	}
	blocks := c.blobs[key.Blob]
	if blocks == nil {
		blocks = make(map[int64]*list.Element)
		c.blobs[key.Blob] = blocks
	}
	blocks[key.Block] = c.order.PushFront(&entry{key: key, data: b})
	c.bytes += n
}

func (c *LRU) DropBlob(blob string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, el := range c.blobs[blob] {
		c.remove(el)
	}
}

func (c *LRU) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses, Blocks: c.order.Len(), Bytes: c.bytes}
}

// Close empties the cache and returns its memory to the budget.
func (c *LRU) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shrinkTo(0)
	return nil
}

// shrink evicts from the back until the cache fits, never evicting keep.
func (c *LRU) shrink(keep *list.Element) {
	for c.bytes > c.capacity {
		el := c.order.Back()
		if el == nil || el == keep {
			return
		}
		c.remove(el)
	}
}

func (c *LRU) shrinkTo(limit int64) {
	for c.bytes > limit {
		el := c.order.Back()
		if el == nil {
			return
		}
		c.remove(el)
	}
}

func (c *LRU) remove(el *list.Element) {
	e := c.order.Remove(el).(*entry)
	blocks := c.blobs[e.key.Blob]
	delete(blocks, e.key.Block)
	if len(blocks) == 0 {
		delete(c.blobs, e.key.Blob)
	}
	n := int64(len(e.data))
	c.bytes -= n
	c.rc.ReleaseMemory(n)
}
