package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/hupe1980/mzcache/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrClosed is returned when writing to or closing a finished upload.
var ErrClosed = errors.New("minio: upload already closed")

// ErrChanged is returned by reads of a blob whose object was replaced after
// the blob was opened.
var ErrChanged = errors.New("minio: object changed since open")

const contentType = "application/octet-stream"

// Store is a blobstore.BlobStore on one bucket of an S3-compatible server.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

var _ blobstore.BlobStore = (*Store)(nil)

// NewStore returns a Store that keeps its blobs under prefix in bucket.
func NewStore(client *minio.Client, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: prefix}
}

// Dial connects to endpoint with static credentials.
func Dial(endpoint, accessKey, secretKey string, secure bool, bucket, prefix string) (*Store, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: connect %s: %w", endpoint, err)
	}
	return NewStore(client, bucket, prefix), nil
}

func (s *Store) key(name string) string { return path.Join(s.prefix, name) }

func (s *Store) relName(key string) string {
	return strings.TrimPrefix(strings.TrimPrefix(key, s.prefix), "/")
}

func translate(name string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return fmt.Errorf("minio: %s: %w", name, blobstore.ErrNotFound)
	case "PreconditionFailed":
		return fmt.Errorf("minio: %s: %w", name, ErrChanged)
	}
	return err
}

// Open stats the object. Reads through the returned blob are ranged GETs
// pinned to the ETag seen here.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, translate(name, err)
	}
	return &minioBlob{store: s, name: name, key: key, size: info.Size, etag: info.ETag}, nil
}

func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(name), bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	return err
}

// Create starts a streaming upload of unknown size. The object appears on
// Close; Abort or a cancelled ctx leave no object behind.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	ctx, cancel := context.WithCancel(ctx)
	pr, pw := io.Pipe()
	w := &minioWritableBlob{pw: pw, done: make(chan error, 1), cancel: cancel}
	go func() {
		_, err := s.client.PutObject(ctx, s.bucket, s.key(name), pr, -1, minio.PutObjectOptions{ContentType: contentType})
		_ = pr.CloseWithError(err)
		w.done <- err
	}()
	return w, nil
}

// Delete removes a blob. Missing blobs are not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{})
	if err != nil && !errors.Is(translate(name, err), blobstore.ErrNotFound) {
		return err
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: s.key(prefix), Recursive: true})
	for obj := range objects {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if name := s.relName(obj.Key); name != "" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

type minioBlob struct {
	store *Store
	name  string
	key   string
	size  int64
	etag  string
}

func (b *minioBlob) Size() int64 { return b.size }

func (b *minioBlob) Close() error { return nil }

// get fetches the inclusive byte range [first, last].
func (b *minioBlob) get(ctx context.Context, first, last int64) (*minio.Object, error) {
	var opts minio.GetObjectOptions
	if err := opts.SetRange(first, last); err != nil {
		return nil, err
	}
	if b.etag != "" {
		if err := opts.SetMatchETag(b.etag); err != nil {
			return nil, err
		}
	}
	return b.store.client.GetObject(ctx, b.store.bucket, b.key, opts)
}

func (b *minioBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	switch {
	case off < 0:
		return 0, fmt.Errorf("minio: %s: negative offset %d", b.name, off)
	case len(p) == 0:
		return 0, nil
	case off >= b.size:
		return 0, io.EOF
	}
	want := p[:min(int64(len(p)), b.size-off)]
	obj, err := b.get(ctx, off, off+int64(len(want))-1)
	if err != nil {
		return 0, translate(b.name, err)
	}
	defer obj.Close()

	n, err := io.ReadFull(obj, want)
	switch {
	case errors.Is(err, io.EOF):
		return n, io.ErrUnexpectedEOF
	case err != nil:
		return n, translate(b.name, err)
	case n < len(p):
		return n, io.EOF
	}
	return n, nil
}

// ReadRange streams a range clipped to the object size.
func (b *minioBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if off < 0 || off > b.size {
		return nil, io.EOF
	}
	last := min(off+length, b.size) - 1
	if last < off {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	obj, err := b.get(ctx, off, last)
	if err != nil {
		return nil, translate(b.name, err)
	}
	return obj, nil
}

// minioWritableBlob feeds a PutObject running in the background.
type minioWritableBlob struct {
	pw     *io.PipeWriter
	done   chan error
	cancel context.CancelFunc

	mu       sync.Mutex
	finished bool
}

func (b *minioWritableBlob) finish() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finished {
		return false
	}
	b.finished = true
	return true
}

func (b *minioWritableBlob) Write(p []byte) (int, error) {
	b.mu.Lock()
	finished := b.finished
	b.mu.Unlock()
	if finished {
		return 0, ErrClosed
	}
	return b.pw.Write(p)
}

func (b *minioWritableBlob) Sync() error { return nil }

// Close completes the upload and reports its outcome.
func (b *minioWritableBlob) Close() error {
	if !b.finish() {
		return ErrClosed
	}
	defer b.cancelUpload()
	if err := b.pw.Close(); err != nil {
		return err
	}
	return <-b.done
}

// Abort cancels the upload and waits for it to stop.
func (b *minioWritableBlob) Abort() error {
	if !b.finish() {
		return nil
	}
	b.cancelUpload()
	_ = b.pw.CloseWithError(context.Canceled)
	<-b.done
	return nil
}

func (b *minioWritableBlob) cancelUpload() {
	if b.cancel != nil {
		b.cancel()
	}
}
