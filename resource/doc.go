// Package resource bounds the memory, worker and I/O budget of cache
// operations that fan out, such as verification of a whole file or block
// caching of remote blobs.
//
// A nil *Controller imposes no limits, so callers can pass one through
// unconditionally.
package resource
