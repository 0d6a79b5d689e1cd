// File: reactor/run.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Run modes and the flush cycle: submit, reap and dispatch, deliver local
// results, retry the backlog.

package reactor

import (
	"errors"
	"fmt"
	"syscall"
	"time"

	"github.com/momentics/hioload-uring/queue"
	"github.com/momentics/hioload-uring/ring"
)

// RunOnce performs one flush, blocking until at least one completion is
// available when anything is in flight.
func (l *Loop) RunOnce() error {
	if err := l.usable(); err != nil {
		return err
	}
	if !l.Pending() {
		return nil
	}
	var wait uint32
	if l.active > 0 {
		wait = 1
	}
	if err := l.fail(l.flush(wait)); err != nil {
		return err
	}
	return l.usable()
}

// RunAll flushes until the loop owns no completion.
func (l *Loop) RunAll() error {
	for l.Pending() {
		if err := l.RunOnce(); err != nil {
			return err
		}
	}
	return l.usable()
}

// RunFor flushes until d has elapsed on the loop clock, then drains every
// outstanding deadline sentinel. It may be called from a callback; each
// nested call arms its own sentinel and returns once any sentinel expires.
// Sentinels already reaped by an enclosing call are dispatched from its
// batch, never waited for on the ring.
func (l *Loop) RunFor(d time.Duration) error {
	if err := l.usable(); err != nil {
		return err
	}
	// read by address at submit time; must not sit on a movable stack
	deadline := l.deadlines.Get()
	defer l.deadlines.Put(deadline)
	*deadline = l.clock.Now().Add(d)
	l.expired = false
	if err := l.armSentinel(deadline); err != nil {
		return l.fail(err)
	}
	for !l.expired {
		if l.sentinels == 0 {
			l.log.Debug("deadline sentinel superseded, re-arming")
			if err := l.armSentinel(deadline); err != nil {
				return l.fail(err)
			}
		}
		if err := l.flush(1); err != nil {
			return l.fail(err)
		}
	}
	for l.sentinels > 0 {
		if err := l.flushCompletions(1); err != nil {
			return l.fail(err)
		}
	}
	return l.usable()
}

func (l *Loop) fail(err error) error {
	if err != nil && l.err == nil {
		l.err = err
		l.log.Error("loop stopped", "err", err)
	}
	return err
}

func (l *Loop) armSentinel(deadline *ring.Timespec) error {
	sqe := l.ring.AcquireSlot()
	for i := 0; sqe == nil && i < l.sentinelRetries; i++ {
		if err := l.flushSubmissions(0); err != nil {
			return err
		}
		sqe = l.ring.AcquireSlot()
	}
	if sqe == nil {
		return ErrSentinelSlot
	}
	sqe.PrepTimeout(deadline, 0, ring.IORING_TIMEOUT_ABS)
	sqe.SetToken(sentinelToken)
	l.sentinels++
	return nil
}

func (l *Loop) flush(wait uint32) error {
	if l.carried() > 0 {
		// an enclosing call holds reaped entries the ring will not repeat
		wait = 0
	}
	if err := l.flushSubmissions(wait); err != nil {
		return err
	}
	if err := l.flushCompletions(0); err != nil {
		return err
	}
	if err := l.deliverLocal(); err != nil {
		return err
	}
	l.retryBacklog()
	l.metrics.SetDepth(l.active, l.backlog.Len())
	return nil
}

// flushSubmissions publishes acquired slots and waits for wait completions.
// A full completion queue is relieved by reaping one completion.
func (l *Loop) flushSubmissions(wait uint32) error {
	for {
		_, err := l.ring.SubmitAndWait(wait)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, syscall.EINTR):
			continue
		case errors.Is(err, syscall.EBUSY), errors.Is(err, syscall.EAGAIN):
			l.log.Debug("completion queue full, reaping", "err", err)
			if err := l.flushCompletions(1); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %w", ErrSubmit, err)
		}
	}
}

// reapBatch holds completions copied off the ring. next is the first
// entry not yet dispatched.
type reapBatch struct {
	cqes    []ring.CQE
	n, next int
}

// carried counts entries reaped by enclosing calls and not yet dispatched.
func (l *Loop) carried() int {
	n := 0
	for _, b := range l.reaping {
		n += b.n - b.next
	}
	return n
}

// dispatchReaped dispatches every reaped entry, outermost batch first.
// A callback may re-enter the loop and consume entries of the same batch,
// so the cursor lives in the batch. It stops as soon as the loop is
// poisoned.
func (l *Loop) dispatchReaped() (int, error) {
	done := 0
	for i := 0; i < len(l.reaping); i++ {
		b := l.reaping[i]
		for b.next < b.n {
			cqe := b.cqes[b.next]
			b.next++
			done++
			if err := l.dispatch(cqe); err != nil {
				return done, err
			}
			if l.err != nil {
				return done, l.err
			}
		}
	}
	return done, nil
}

// flushCompletions reaps in batches until a short batch, blocking for the
// first wait completions. Entries left over by enclosing calls count
// towards wait.
func (l *Loop) flushCompletions(wait uint32) error {
	done, err := l.dispatchReaped()
	if err != nil {
		return err
	}
	wait -= min(wait, uint32(done))

	b := l.batches.Get()
	l.reaping = append(l.reaping, b)
	defer func() {
		l.reaping = l.reaping[:len(l.reaping)-1]
		l.batches.Put(b)
	}()
	for {
		n, err := l.ring.Reap(b.cqes, wait)
		if err != nil {
			if errors.Is(err, syscall.EINTR) {
				continue
			}
			return fmt.Errorf("%w: %w", ErrReap, err)
		}
		wait -= min(wait, uint32(n))
		b.n, b.next = n, 0
		if _, err := l.dispatchReaped(); err != nil {
			return err
		}
		if n < len(b.cqes) {
			return nil
		}
	}
}

func (l *Loop) dispatch(cqe ring.CQE) error {
	if cqe.UserData == sentinelToken {
		l.sentinels--
		if cqe.Res == -ring.ETIME {
			l.expired = true
			l.metrics.OnSentinelExpired()
		}
		return nil
	}
	c := l.inflight[cqe.UserData]
	if c == nil {
		l.log.Error("completion for unknown token", "token", cqe.UserData, "res", cqe.Res)
		return fmt.Errorf("%w: %#x", ErrUnknownToken, cqe.UserData)
	}
	if cqe.Flags&ring.IORING_CQE_F_MORE != 0 {
		// multishot: the kernel keeps the request armed under the same token
		l.completed++
		l.metrics.OnComplete()
		c.complete(l, cqe.Res)
		return nil
	}
	delete(l.inflight, cqe.UserData)
	l.active--
	l.deliver(c, cqe.Res)
	return nil
}

func (l *Loop) deliver(c *Completion, res int32) {
	c.state = StateCompleting
	l.completed++
	l.metrics.OnComplete()
	again := c.complete(l, res)
	if c.state != StateCompleting {
		// the callback re-enqueued c itself
		return
	}
	c.state = StateIdle
	if again && c.Operation.Op() != OpCancel {
		l.resubmitted++
		l.metrics.OnResubmit()
		l.enqueue(c)
	}
}

func (l *Loop) deliverLocal() error {
	pending := l.local
	l.local = queue.Queue[*Completion]{}
	for c, ok := pending.PopFront(); ok; c, ok = pending.PopFront() {
		l.deliver(c, c.res)
		if l.err != nil {
			// undelivered entries stay owned by the loop
			for c, ok := pending.PopFront(); ok; c, ok = pending.PopFront() {
				l.local.PushBack(c)
			}
			return l.err
		}
	}
	return nil
}

// retryBacklog re-enqueues every backlogged completion once; those that
// still find no slot land in a fresh backlog.
func (l *Loop) retryBacklog() {
	if l.backlog.Empty() {
		return
	}
	pending := l.backlog
	l.backlog = queue.Queue[*Completion]{}
	for c, ok := pending.PopFront(); ok; c, ok = pending.PopFront() {
		l.enqueue(c)
	}
}
