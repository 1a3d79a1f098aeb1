// Package minio stores cache runs on MinIO or another S3-compatible server
// (Ceph, SeaweedFS, Garage) through minio-go, for deployments that do not
// want the AWS SDK.
//
// Blob names are joined to an optional key prefix. Reads are ranged GETs, so
// opening a remote run only fetches the header and the records it indexes:
//
//	store, err := minio.Dial("localhost:9000", key, secret, false, "spectra", "runs/")
//	if err != nil {
//		return err
//	}
//	c, err := mzcache.OpenStore(ctx, store, "run01")
package minio
