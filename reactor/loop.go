// File: reactor/loop.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Loop owns one ring and every in-flight completion. It is single-threaded:
// all methods, including those called from callbacks, must run on the
// goroutine that drives the loop.

package reactor

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/momentics/hioload-uring/control"
	"github.com/momentics/hioload-uring/pool"
	"github.com/momentics/hioload-uring/queue"
	"github.com/momentics/hioload-uring/ring"
)

// sentinelToken marks deadline sentinels. Completions never carry it.
const sentinelToken uint64 = 0

const (
	defaultCQEBatch        = 128
	defaultSentinelRetries = 1
)

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the base logger. The loop adds a loop=<id> attribute.
func WithLogger(log *slog.Logger) Option {
	return func(l *Loop) { l.log = log }
}

// WithMetrics records loop activity into m.
func WithMetrics(m *control.Metrics) Option {
	return func(l *Loop) { l.metrics = m }
}

// WithClock sets the monotonic clock used for deadlines.
func WithClock(c ring.Clock) Option {
	return func(l *Loop) { l.clock = c }
}

// WithIDSource replaces the random token generator.
func WithIDSource(next func() uint64) Option {
	return func(l *Loop) { l.nextID = next }
}

// WithCQEBatch sets how many completions are copied per reap.
func WithCQEBatch(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.batch = n
		}
	}
}

// WithSentinelRetries bounds the submit-flushes tried to free a slot for
// a deadline sentinel.
func WithSentinelRetries(n int) Option {
	return func(l *Loop) {
		if n >= 0 {
			l.sentinelRetries = n
		}
	}
}

// WithID overrides the generated loop identifier.
func WithID(id string) Option {
	return func(l *Loop) { l.id = id }
}

// Stats is a point-in-time view of the loop.
type Stats struct {
	Active      int
	Backlog     int
	Local       int
	Sentinels   int
	Submitted   uint64
	Completed   uint64
	Resubmitted uint64
	Backlogged  uint64
}

// Loop is a completion-based event loop over a Ring.
type Loop struct {
	id      string
	ring    ring.Ring
	clock   ring.Clock
	nextID  func() uint64
	log     *slog.Logger
	metrics *control.Metrics

	inflight map[uint64]*Completion
	active   int
	backlog  queue.Queue[*Completion]
	local    queue.Queue[*Completion]

	sentinels       int
	expired         bool
	sentinelRetries int

	batch     int
	batches   *pool.FreeList[*reapBatch]
	reaping   []*reapBatch
	deadlines *pool.FreeList[*ring.Timespec]

	submitted, completed, resubmitted, backlogged uint64

	err    error
	closed bool
}

// New builds a loop over r. The loop takes ownership of r.
func New(r ring.Ring, opts ...Option) *Loop {
	l := &Loop{
		id:              uuid.NewString(),
		ring:            r,
		clock:           ring.Monotonic,
		nextID:          rand.Uint64,
		log:             slog.Default(),
		inflight:        make(map[uint64]*Completion),
		batch:           defaultCQEBatch,
		sentinelRetries: defaultSentinelRetries,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.With("loop", l.id)
	l.batches = pool.NewFreeList(4, func() *reapBatch {
		return &reapBatch{cqes: make([]ring.CQE, l.batch)}
	}, func(b *reapBatch) { b.n, b.next = 0, 0 })
	l.deadlines = pool.NewFreeList(64, func() *ring.Timespec {
		return new(ring.Timespec)
	}, func(ts *ring.Timespec) { *ts = ring.Timespec{} })
	return l
}

// Open creates a kernel ring sized by cfg and a loop over it.
// Options given here override the ones derived from cfg.
func Open(cfg control.Config, opts ...Option) (*Loop, error) {
	r, err := ring.NewURing(cfg.Ring.Entries, cfg.Ring.Flags)
	if err != nil {
		return nil, fmt.Errorf("open ring (%d entries): %w", cfg.Ring.Entries, err)
	}
	base := []Option{
		WithCQEBatch(cfg.Reactor.CQEBatch),
		WithSentinelRetries(cfg.Reactor.SentinelRetries),
	}
	return New(r, append(base, opts...)...), nil
}

// ID returns the loop identifier used in logs and metric labels.
func (l *Loop) ID() string { return l.id }

// Err returns the fatal error that stopped the loop, if any.
func (l *Loop) Err() error { return l.err }

// Stats returns current counters.
func (l *Loop) Stats() Stats {
	return Stats{
		Active:      l.active,
		Backlog:     l.backlog.Len(),
		Local:       l.local.Len(),
		Sentinels:   l.sentinels,
		Submitted:   l.submitted,
		Completed:   l.completed,
		Resubmitted: l.resubmitted,
		Backlogged:  l.backlogged,
	}
}

// Pending reports whether any completion is still owned by the loop.
func (l *Loop) Pending() bool {
	return l.active > 0 || !l.backlog.Empty() || !l.local.Empty()
}

// Enqueue hands c to the loop. It is placed in a submission slot when one
// is free, otherwise it waits in the backlog. Nothing reaches the kernel
// until the next run call.
func (l *Loop) Enqueue(c *Completion) error {
	if err := l.usable(); err != nil {
		return err
	}
	if err := validate(c.Operation); err != nil {
		return err
	}
	switch c.state {
	case StateBacklogged, StateSubmitted, StateLocal:
		return fmt.Errorf("%w: %s completion is %s", ErrBusy, c.Operation.Op(), c.state)
	}
	l.enqueue(c)
	return nil
}

func (l *Loop) enqueue(c *Completion) {
	sqe := l.ring.AcquireSlot()
	if sqe == nil {
		c.state = StateBacklogged
		l.backlog.PushBack(c)
		l.backlogged++
		l.metrics.OnBacklog()
		l.log.Debug("submission queue full, parked", "op", c.Operation.Op(), "backlog", l.backlog.Len())
		return
	}
	id := l.nextID()
	for id == sentinelToken || l.inflight[id] != nil {
		id = l.nextID()
	}
	c.id = id
	prep(sqe, c.Operation)
	sqe.SetToken(id)
	l.inflight[id] = c
	c.state = StateSubmitted
	l.active++
	l.submitted++
	l.metrics.OnSubmit()
}

// Cancel requests cancellation of target and returns the cancel
// completion, whose callback receives 0 on success or -ENOENT, -EALREADY.
// A backlogged target never reaches the kernel: on the next flush it
// completes with -ECANCELED and the cancel with 0. A target that was never
// submitted yields -ENOENT the same way. The cancel completion's context
// is the target.
func (l *Loop) Cancel(target *Completion, cb Callback) (*Completion, error) {
	if err := l.usable(); err != nil {
		return nil, err
	}
	cc := NewCompletion(Cancel{Target: target.id}, target, cb)
	switch {
	case target.state == StateBacklogged:
		l.backlog.Remove(target)
		l.deliverLater(target, -ring.ECANCELED)
		l.deliverLater(cc, 0)
	case target.id == 0:
		l.deliverLater(cc, -ring.ENOENT)
	default:
		l.enqueue(cc)
	}
	return cc, nil
}

// Timer enqueues a one-shot timer firing d from now on the loop clock.
// The returned completion must not be enqueued again.
func (l *Loop) Timer(d time.Duration, ctx any, cb Callback) (*Completion, error) {
	if err := l.usable(); err != nil {
		return nil, err
	}
	ts := l.deadlines.Get()
	*ts = l.clock.Now().Add(d)
	op := NewTimer(ts).WithFlags(TimerAbsolute)
	c := NewCompletion(op, ctx, func(ctx any, l *Loop, c *Completion, res int32) bool {
		if cb != nil {
			cb(ctx, l, c, res)
		}
		l.deadlines.Put(ts)
		return false
	})
	l.enqueue(c)
	return c, nil
}

// Close releases the ring. Completions still owned by the loop are
// abandoned without callbacks.
func (l *Loop) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	if l.Pending() {
		l.log.Warn("closing loop with pending completions",
			"active", l.active, "backlog", l.backlog.Len(), "local", l.local.Len())
	}
	if err := l.ring.Close(); err != nil {
		return fmt.Errorf("close ring: %w", err)
	}
	return nil
}

func (l *Loop) usable() error {
	if l.closed {
		return ErrClosed
	}
	return l.err
}

func (l *Loop) deliverLater(c *Completion, res int32) {
	c.res = res
	c.state = StateLocal
	l.local.PushBack(c)
}
