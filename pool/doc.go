// Package pool
// Author: momentics <momentics@gmail.com>
//
// Object recycling for the reactor and its applications.
// FreeList is a single-goroutine stack used on the reactor thread, where
// sync.Pool's per-P caches buy nothing; SyncPool wraps sync.Pool for
// buffers shared across goroutines.
package pool
