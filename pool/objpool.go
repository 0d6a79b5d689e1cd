// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package pool

import "sync"

// ObjectPool is a generic object pool.
type ObjectPool[T any] interface {
	Get() T
	Put(T)
}

var (
	_ ObjectPool[[]byte] = (*SyncPool[[]byte])(nil)
	_ ObjectPool[[]byte] = (*FreeList[[]byte])(nil)
)

// SyncPool wraps sync.Pool for generic usage.
type SyncPool[T any] struct {
	pool *sync.Pool
}

// NewSyncPool creates a new SyncPool with a creator function.
func NewSyncPool[T any](creator func() T) *SyncPool[T] {
	return &SyncPool[T]{
		pool: &sync.Pool{New: func() any { return creator() }},
	}
}

func (sp *SyncPool[T]) Get() T {
	return sp.pool.Get().(T)
}

func (sp *SyncPool[T]) Put(obj T) {
	sp.pool.Put(obj)
}

// FreeList is a bounded LIFO of reusable objects. Not safe for concurrent use.
type FreeList[T any] struct {
	items   []T
	limit   int
	creator func() T
	reset   func(T)

	gets, misses uint64
}

// NewFreeList keeps at most limit idle objects; creator fills misses and
// reset, when non-nil, scrubs objects on Put.
func NewFreeList[T any](limit int, creator func() T, reset func(T)) *FreeList[T] {
	if limit <= 0 {
		limit = 64
	}
	return &FreeList[T]{
		items:   make([]T, 0, limit),
		limit:   limit,
		creator: creator,
		reset:   reset,
	}
}

// Get pops an idle object or creates one.
func (fl *FreeList[T]) Get() T {
	fl.gets++
	if n := len(fl.items); n > 0 {
		obj := fl.items[n-1]
		var zero T
		fl.items[n-1] = zero
		fl.items = fl.items[:n-1]
		return obj
	}
	fl.misses++
	return fl.creator()
}

// Put returns obj; it is dropped when the list is full.
func (fl *FreeList[T]) Put(obj T) {
	if fl.reset != nil {
		fl.reset(obj)
	}
	if len(fl.items) < fl.limit {
		fl.items = append(fl.items, obj)
	}
}

// Idle returns the number of pooled objects.
func (fl *FreeList[T]) Idle() int { return len(fl.items) }

// Stats returns the number of Get calls and how many of them allocated.
func (fl *FreeList[T]) Stats() (gets, misses uint64) { return fl.gets, fl.misses }
