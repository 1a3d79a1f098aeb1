package blobstore

import (
	"context"
	"errors"
	"io"

	"github.com/hupe1980/mzcache/internal/cache"
	"golang.org/x/sync/errgroup"
)

// DefaultBlockSize is the cache block size used when none is given.
const DefaultBlockSize = 64 * 1024

// maxFetchConcurrency bounds parallel backend requests per read.
const maxFetchConcurrency = 16

// CachingStore puts a block cache in front of a BlobStore, typically a remote
// one where every ReadAt costs a round trip. Writes through the store drop
// the cached blocks of the blob they touch.
type CachingStore struct {
	backend BlobStore
	blocks  cache.BlockCache
	block   int64
}

// NewCachingStore returns a CachingStore over backend. A non-positive
// blockSize selects DefaultBlockSize.
func NewCachingStore(backend BlobStore, c cache.BlockCache, blockSize int64) *CachingStore {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &CachingStore{backend: backend, blocks: c, block: blockSize}
}

// Open opens name in the backend and routes its reads through the cache.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.backend.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &CachingBlob{backend: b, blocks: s.blocks, name: name, block: s.block}, nil
}

// Create drops cached blocks of name, then creates it in the backend.
func (s *CachingStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	s.blocks.DropBlob(name)
	return s.backend.Create(ctx, name)
}

// Put drops cached blocks of name, then writes it to the backend.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.blocks.DropBlob(name)
	return s.backend.Put(ctx, name, data)
}

// Delete drops cached blocks of name, then deletes it from the backend.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.blocks.DropBlob(name)
	return s.backend.Delete(ctx, name)
}

// List is not cached.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.backend.List(ctx, prefix)
}

// CachingBlob serves reads of one blob from the block cache.
type CachingBlob struct {
	backend Blob
	blocks  cache.BlockCache
	name    string
	block   int64
}

// Close closes the backend blob. Cached blocks stay valid.
func (b *CachingBlob) Close() error { return b.backend.Close() }

// Size is the backend blob size.
func (b *CachingBlob) Size() int64 { return b.backend.Size() }

func (b *CachingBlob) key(blk int64) cache.BlockKey {
	return cache.BlockKey{Blob: b.name, Block: blk}
}

// ReadAt follows io.ReaderAt semantics. Missing blocks are fetched in
// contiguous runs before the copy.
func (b *CachingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if off < 0 {
		return 0, errors.New("blobstore: negative offset")
	}
	size := b.Size()
	if off >= size {
		return 0, io.EOF
	}

	want := p
	if rem := size - off; int64(len(want)) > rem {
		want = want[:rem]
	}

	startBlock := off / b.block
	endBlock := (off + int64(len(want)) - 1) / b.block

	if err := b.fillCache(ctx, startBlock, endBlock); err != nil {
		return 0, err
	}

	total := 0
	for blk := startBlock; blk <= endBlock; blk++ {
		blkStart := blk * b.block
		lo := max(blkStart, off)
		hi := min(blkStart+b.block, off+int64(len(want)))

		data, err := b.fetchBlock(ctx, blk)
		if err != nil {
			return total, err
		}
		src := lo - blkStart
		if src >= int64(len(data)) {
			break
		}
		n := copy(want[lo-off:hi-off], data[src:])
		total += n
		if int64(n) < hi-lo {
			break
		}
	}

	if total < len(p) {
		return total, io.EOF
	}
	return total, nil
}

type blockRun struct {
	start, count int64
}

// fillCache loads the blocks in [startBlock, endBlock] that are not cached,
// issuing one backend request per contiguous run of missing blocks.
func (b *CachingBlob) fillCache(ctx context.Context, startBlock, endBlock int64) error {
	var runs []blockRun
	for blk := startBlock; blk <= endBlock; blk++ {
		if _, ok := b.blocks.Get(b.key(blk)); ok {
			continue
		}
		if n := len(runs); n > 0 && runs[n-1].start+runs[n-1].count == blk {
			runs[n-1].count++
			continue
		}
		runs = append(runs, blockRun{start: blk, count: 1})
	}
	if len(runs) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxFetchConcurrency)

	size := b.Size()
	for _, run := range runs {
		g.Go(func() error {
			byteStart := run.start * b.block
			if byteStart >= size {
				return nil
			}
			byteLen := min(run.count*b.block, size-byteStart)

			buf := make([]byte, byteLen)
			n, err := b.backend.ReadAt(gctx, buf, byteStart)
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			buf = buf[:n]

			for i := int64(0); i < run.count; i++ {
				lo := i * b.block
				if lo >= int64(len(buf)) {
					break
				}
				hi := min(lo+b.block, int64(len(buf)))
				// Copy so one cached block does not pin the whole run.
				block := make([]byte, hi-lo)
				copy(block, buf[lo:hi])
				b.blocks.Put(b.key(run.start+i), block)
			}
			return nil
		})
	}
	return g.Wait()
}

func (b *CachingBlob) fetchBlock(ctx context.Context, blk int64) ([]byte, error) {
	key := b.key(blk)
	if data, ok := b.blocks.Get(key); ok {
		return data, nil
	}

	// The cache may have evicted the block between fill and copy.
	buf := make([]byte, b.block)
	n, err := b.backend.ReadAt(ctx, buf, blk*b.block)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	data := buf[:n]
	if n > 0 {
		b.blocks.Put(key, data)
	}
	return data, nil
}

// ReadRange streams [off, off+length) through the block cache.
func (b *CachingBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	limit := min(off+length, b.Size())
	return io.NopCloser(&sectionReader{blob: b, ctx: ctx, off: off, limit: limit}), nil
}

type sectionReader struct {
	blob  Blob
	ctx   context.Context
	off   int64
	limit int64
}

func (r *sectionReader) Read(p []byte) (int, error) {
	if r.off >= r.limit {
		return 0, io.EOF
	}
	if remaining := r.limit - r.off; int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := r.blob.ReadAt(r.ctx, p, r.off)
	r.off += int64(n)
	if errors.Is(err, io.EOF) && n > 0 {
		err = nil
	}
	return n, err
}
