package cache

import (
	"errors"
	"hash/maphash"

	"github.com/hupe1980/mzcache/resource"
)

// DefaultShards is the shard count used by NewSharded when shards <= 0.
const DefaultShards = 64

// Sharded spreads blocks over independent LRUs. Consecutive blocks of one
// blob land on different shards, so a single hot cache file does not
// serialize its readers.
type Sharded struct {
	shards []*LRU
	seed   maphash.Seed
}

// NewSharded splits capacity evenly over shards LRUs.
func NewSharded(capacity int64, shards int, rc *resource.Controller) *Sharded {
	if shards <= 0 {
		shards = DefaultShards
	}
	s := &Sharded{shards: make([]*LRU, shards), seed: maphash.MakeSeed()}
	per := max(capacity/int64(shards), 1)
	for i := range s.shards {
		s.shards[i] = NewLRU(per, rc)
	}
	return s
}

func (s *Sharded) shard(key BlockKey) *LRU {
	return s.shards[maphash.Comparable(s.seed, key)%uint64(len(s.shards))]
}

func (s *Sharded) Get(key BlockKey) ([]byte, bool) { return s.shard(key).Get(key) }

func (s *Sharded) Put(key BlockKey, b []byte) { s.shard(key).Put(key, b) }

func (s *Sharded) DropBlob(blob string) {
	for _, sh := range s.shards {
		sh.DropBlob(blob)
	}
}

// Stats sums the shard statistics. Shards are sampled one after another, so
// the sum is not an atomic snapshot.
func (s *Sharded) Stats() Stats {
	var out Stats
	for _, sh := range s.shards {
		st := sh.Stats()
		out.Hits += st.Hits
		out.Misses += st.Misses
		out.Blocks += st.Blocks
		out.Bytes += st.Bytes
	}
	return out
}

func (s *Sharded) Close() error {
	var errs []error
	for _, sh := range s.shards {
		errs = append(errs, sh.Close())
	}
	return errors.Join(errs...)
}
