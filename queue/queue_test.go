package queue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-uring/queue"
)

type item struct {
	v    int
	link queue.Link[*item]
}

func (i *item) QueueLink() *queue.Link[*item] { return &i.link }

func collect(q *queue.Queue[*item]) []int {
	var out []int
	for it := range q.All() {
		out = append(out, it.v)
	}
	return out
}

func TestQueue_FIFO(t *testing.T) {
	var q queue.Queue[*item]
	require.True(t, q.Empty())

	for i := 1; i <= 5; i++ {
		q.PushBack(&item{v: i})
	}
	assert.Equal(t, 5, q.Len())
	assert.Equal(t, []int{1, 2, 3, 4, 5}, collect(&q))

	for i := 1; i <= 5; i++ {
		it, ok := q.PopFront()
		require.True(t, ok)
		assert.Equal(t, i, it.v)
		assert.False(t, it.QueueLink().Linked())
	}
	_, ok := q.PopFront()
	assert.False(t, ok)
	assert.True(t, q.Empty())
}

func TestQueue_DoubleEnded(t *testing.T) {
	var q queue.Queue[*item]
	q.PushBack(&item{v: 2})
	q.PushFront(&item{v: 1})
	q.PushBack(&item{v: 3})

	front, _ := q.Front()
	back, _ := q.Back()
	assert.Equal(t, 1, front.v)
	assert.Equal(t, 3, back.v)

	it, ok := q.PopBack()
	require.True(t, ok)
	assert.Equal(t, 3, it.v)
	assert.Equal(t, []int{1, 2}, collect(&q))
}

func TestQueue_RemoveMiddle(t *testing.T) {
	var q queue.Queue[*item]
	a, b, c := &item{v: 1}, &item{v: 2}, &item{v: 3}
	q.PushBack(a)
	q.PushBack(b)
	q.PushBack(c)

	q.Remove(b)
	assert.Equal(t, []int{1, 3}, collect(&q))
	assert.False(t, q.Contains(b))
	assert.True(t, q.Contains(c))

	q.Remove(a)
	q.Remove(c)
	assert.True(t, q.Empty())

	// removed elements can be queued again
	q.PushBack(b)
	assert.Equal(t, []int{2}, collect(&q))
}

func TestQueue_SingleMembership(t *testing.T) {
	var q1, q2 queue.Queue[*item]
	it := &item{v: 7}
	q1.PushBack(it)
	assert.Panics(t, func() { q2.PushBack(it) })
	assert.Panics(t, func() { q1.PushFront(it) })
	assert.Panics(t, func() { q1.PushBack(nil) })
}

func TestQueue_SwapPreservesOrder(t *testing.T) {
	var q queue.Queue[*item]
	for i := 0; i < 3; i++ {
		q.PushBack(&item{v: i})
	}
	swapped := q
	q = queue.Queue[*item]{}
	assert.True(t, q.Empty())
	assert.Equal(t, []int{0, 1, 2}, collect(&swapped))
}
