// Package cache keeps recently read blocks of remote cache files in memory.
//
// Blocks are keyed by blob name and block number. LRU is a single
// least-recently-used list guarded by one mutex and indexed per blob, so
// dropping a rewritten blob touches only its own blocks. Sharded spreads
// blocks over several LRUs to reduce contention when many readers share one
// cache. Both can charge their memory to a resource.Controller.
package cache
