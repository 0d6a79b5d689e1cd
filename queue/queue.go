// File: queue/queue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Intrusive double-ended queue. Link fields live inside the queued element,
// so enqueue and dequeue never allocate.

package queue

import "iter"

// Link is the embedded link block of a queueable element.
type Link[T comparable] struct {
	next, prev T
	linked     bool
}

// Linked reports whether the owning element currently sits in a queue.
func (l *Link[T]) Linked() bool { return l.linked }

// Node is implemented by pointer types that embed a Link to themselves.
type Node[T comparable] interface {
	comparable
	QueueLink() *Link[T]
}

// Queue is a FIFO with O(1) access at both ends and O(1) unlink.
// The zero value is an empty queue. Not safe for concurrent use.
type Queue[T Node[T]] struct {
	head, tail T
	size       int
}

// PushBack appends el at the tail.
func (q *Queue[T]) PushBack(el T) {
	l := q.mustLink(el)
	l.prev = q.tail
	if q.size == 0 {
		q.head = el
	} else {
		q.tail.QueueLink().next = el
	}
	q.tail = el
	q.size++
}

// PushFront inserts el at the head.
func (q *Queue[T]) PushFront(el T) {
	l := q.mustLink(el)
	l.next = q.head
	if q.size == 0 {
		q.tail = el
	} else {
		q.head.QueueLink().prev = el
	}
	q.head = el
	q.size++
}

// PopFront removes and returns the head; ok is false when empty.
func (q *Queue[T]) PopFront() (el T, ok bool) {
	if q.size == 0 {
		return el, false
	}
	el = q.head
	q.Remove(el)
	return el, true
}

// PopBack removes and returns the tail; ok is false when empty.
func (q *Queue[T]) PopBack() (el T, ok bool) {
	if q.size == 0 {
		return el, false
	}
	el = q.tail
	q.Remove(el)
	return el, true
}

// Front returns the head without removing it.
func (q *Queue[T]) Front() (el T, ok bool) {
	return q.head, q.size > 0
}

// Back returns the tail without removing it.
func (q *Queue[T]) Back() (el T, ok bool) {
	return q.tail, q.size > 0
}

// Remove unlinks el. It must be a member of q.
func (q *Queue[T]) Remove(el T) {
	var zero T
	l := el.QueueLink()
	if !l.linked {
		panic("queue: remove of unlinked element")
	}
	if l.prev == zero {
		q.head = l.next
	} else {
		l.prev.QueueLink().next = l.next
	}
	if l.next == zero {
		q.tail = l.prev
	} else {
		l.next.QueueLink().prev = l.prev
	}
	l.next, l.prev, l.linked = zero, zero, false
	q.size--
}

// Contains walks the queue looking for el.
func (q *Queue[T]) Contains(el T) bool {
	if !el.QueueLink().linked {
		return false
	}
	for cur := range q.All() {
		if cur == el {
			return true
		}
	}
	return false
}

// Len returns the number of queued elements.
func (q *Queue[T]) Len() int { return q.size }

// Empty reports whether the queue holds no elements.
func (q *Queue[T]) Empty() bool { return q.size == 0 }

// All iterates head to tail. The queue must not be modified during iteration.
func (q *Queue[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		var zero T
		for cur := q.head; cur != zero; cur = cur.QueueLink().next {
			if !yield(cur) {
				return
			}
		}
	}
}

func (q *Queue[T]) mustLink(el T) *Link[T] {
	var zero T
	if el == zero {
		panic("queue: nil element")
	}
	l := el.QueueLink()
	if l.linked {
		panic("queue: element already linked")
	}
	l.linked = true
	return l
}
