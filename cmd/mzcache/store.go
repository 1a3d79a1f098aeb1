package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/hupe1980/mzcache/blobstore"
	"github.com/hupe1980/mzcache/blobstore/minio"
	"github.com/hupe1980/mzcache/blobstore/s3"
)

// isRemote reports whether raw names a store where every read is a request.
func isRemote(raw string) bool {
	return strings.HasPrefix(raw, "s3://") || strings.HasPrefix(raw, "minio://")
}

// openStore resolves a store URL. Plain paths and file:// URLs are local
// directories. s3://bucket/prefix uses the default AWS credential chain and
// honors AWS_ENDPOINT_URL_S3. minio://host:port/bucket/prefix reads its
// credentials from MINIO_ACCESS_KEY and MINIO_SECRET_KEY; add ?secure=true
// for TLS.
func openStore(ctx context.Context, raw string) (blobstore.BlobStore, error) {
	if !strings.Contains(raw, "://") {
		return blobstore.NewLocalStore(raw), nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid store URL %q: %w", raw, err)
	}

	switch u.Scheme {
	case "file":
		return blobstore.NewLocalStore(u.Path), nil
	case "s3":
		if u.Host == "" {
			return nil, fmt.Errorf("store URL %q has no bucket", raw)
		}
		opts := []s3.Option{s3.WithPrefix(strings.Trim(u.Path, "/"))}
		if endpoint := os.Getenv("AWS_ENDPOINT_URL_S3"); endpoint != "" {
			opts = append(opts, s3.WithEndpoint(endpoint))
		}
		return s3.New(ctx, u.Host, opts...)
	case "minio":
		bucket, prefix, _ := strings.Cut(strings.Trim(u.Path, "/"), "/")
		if u.Host == "" || bucket == "" {
			return nil, fmt.Errorf("store URL %q needs host and bucket", raw)
		}
		secure := u.Query().Get("secure") == "true"
		return minio.Dial(u.Host, os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY"), secure, bucket, prefix)
	default:
		return nil, fmt.Errorf("unsupported store scheme %q", u.Scheme)
	}
}
