package mzcache

import (
	"context"

	"github.com/hupe1980/mzcache/blobstore"
	"github.com/hupe1980/mzcache/transfer"
)

// Publish copies the run saved under basename into store as name, in the
// layout OpenStore reads: the raw cache file name+".cached" first, then the
// sidecar name. The cache file is checked before anything is written.
func Publish(ctx context.Context, store blobstore.BlobStore, basename, name string, optFns ...Option) error {
	o := applyOptions(optFns)
	topts := []transfer.Option{
		transfer.WithRaw(),
		transfer.WithResourceController(o.rc),
		transfer.WithLogger(o.logger.Logger),
	}

	st, err := transfer.Upload(ctx, store, CachePath(name), CachePath(basename), topts...)
	if err == nil {
		_, err = transfer.Upload(ctx, store, name, basename, append(topts, transfer.WithoutValidation())...)
	}
	size := int64(0)
	if st != nil {
		size = st.Size
	}
	o.logger.LogPublish(ctx, name, size, err)
	return err
}
