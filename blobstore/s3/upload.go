package s3

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hupe1980/mzcache/internal/hash"
)

// UploadConfig configures multipart uploads.
type UploadConfig struct {
	// PartSize is the minimum part size for multipart uploads.
	// Default: 8MB.
	PartSize int64

	// Concurrency is the number of concurrent part uploads.
	// Default: 5.
	Concurrency int

	// EnableChecksum enables CRC32C integrity validation.
	// Default: true.
	EnableChecksum bool

	// LeavePartsOnError keeps the parts of a failed multipart upload.
	// Abort still removes them explicitly.
	// Default: false.
	LeavePartsOnError bool
}

// DefaultUploadConfig returns the default upload settings.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		PartSize:          8 * 1024 * 1024,
		Concurrency:       5,
		EnableChecksum:    true,
		LeavePartsOnError: false,
	}
}

// newUploader creates a configured S3 uploader.
func newUploader(client Client, cfg UploadConfig) *manager.Uploader {
	return manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = cfg.PartSize
		u.Concurrency = cfg.Concurrency
		u.LeavePartsOnError = cfg.LeavePartsOnError
	})
}

// computeCRC32C returns the x-amz-checksum-crc32c header value for data.
func computeCRC32C(data []byte) string {
	return hash.CRC32CHeader(data)
}

var errUploadAborted = errors.New("s3: upload aborted")

type uploadResult struct {
	uploadID string
	err      error
}

// streamingWritableBlob pipes writes into a background upload. The object
// becomes visible when Close returns nil.
type streamingWritableBlob struct {
	pw         *io.PipeWriter
	client     Client
	bucket     string
	key        string
	leaveParts bool
	done       chan uploadResult

	closed atomic.Bool
	mu     sync.Mutex
	result *uploadResult
}

func newStreamingWritableBlob(ctx context.Context, client Client, cfg UploadConfig, bucket, key string) *streamingWritableBlob {
	pr, pw := io.Pipe()
	b := &streamingWritableBlob{
		pw:         pw,
		client:     client,
		bucket:     bucket,
		key:        key,
		leaveParts: cfg.LeavePartsOnError,
		done:       make(chan uploadResult, 1),
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   pr,
	}
	if cfg.EnableChecksum {
		input.ChecksumAlgorithm = types.ChecksumAlgorithmCrc32c
	}
	uploader := newUploader(client, cfg)

	go func() {
		out, err := uploader.Upload(ctx, input)
		res := uploadResult{err: err}
		if out != nil {
			res.uploadID = out.UploadID
		}
		var failure manager.MultiUploadFailure
		if errors.As(err, &failure) {
			res.uploadID = failure.UploadID()
		}
		_ = pr.CloseWithError(err)
		b.done <- res
	}()
	return b
}

func (b *streamingWritableBlob) Write(p []byte) (int, error) {
	if b.closed.Load() {
		return 0, io.ErrClosedPipe
	}
	return b.pw.Write(p)
}

// finish ends the body stream with cause (nil for a clean EOF) and waits for
// the upload goroutine.
func (b *streamingWritableBlob) finish(cause error) uploadResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.result == nil {
		b.closed.Store(true)
		_ = b.pw.CloseWithError(cause)
		res := <-b.done
		b.result = &res
	}
	return *b.result
}

// Close completes the upload.
func (b *streamingWritableBlob) Close() error {
	return b.finish(nil).err
}

// Abort cancels the upload so that no object is created. Parts left behind
// by a failed multipart upload are removed when LeavePartsOnError is set;
// otherwise the uploader has already removed them.
func (b *streamingWritableBlob) Abort(ctx context.Context) error {
	res := b.finish(errUploadAborted)
	if res.uploadID == "" || !b.leaveParts {
		return nil
	}
	_, err := b.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(b.bucket),
		Key:      aws.String(b.key),
		UploadId: aws.String(res.uploadID),
	})
	return err
}

// Sync is a no-op. Data is committed on Close.
func (b *streamingWritableBlob) Sync() error {
	return nil
}
