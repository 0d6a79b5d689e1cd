// File: ring/sim.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Deterministic in-memory ring. It honours the Ring contract on every
// platform: fixed submission capacity, token round-trip, timers on a
// virtual clock, async cancel. Socket and file kinds are delegated to a
// pluggable handler.

package ring

import (
	"sort"
	"time"
	"unsafe"

	"github.com/eapache/queue"
)

// SimHandler executes a submitted entry the simulator does not model
// itself. done=false parks the entry until it is canceled.
type SimHandler func(sqe *SQE) (res int32, done bool)

// SimOption configures a Sim.
type SimOption func(*Sim)

// WithSimHandler installs h for socket and file opcodes.
func WithSimHandler(h SimHandler) SimOption {
	return func(s *Sim) { s.handler = h }
}

// WithSimClock shares clock with the simulator.
func WithSimClock(c *SimClock) SimOption {
	return func(s *Sim) { s.clock = c }
}

// SimClock is a virtual monotonic clock. Time moves only when the
// simulator needs a timer to fire or when Advance is called.
type SimClock struct {
	now Timespec
}

// Now implements Clock.
func (c *SimClock) Now() Timespec { return c.now }

// Advance moves the clock forward by d.
func (c *SimClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type simTimer struct {
	token    uint64
	deadline Timespec
}

// Sim is a simulated ring. Not safe for concurrent use.
type Sim struct {
	entries  int
	slots    []SQE
	acquired int

	clock   *SimClock
	handler SimHandler

	cq     *queue.Queue // of CQE
	timers []simTimer   // sorted by deadline
	parked map[uint64]SQE

	submitErrs []error
	reapErrs   []error

	submitted uint64
	closed    bool
}

var _ Ring = (*Sim)(nil)

// NewSim creates a simulated ring with entries submission slots.
func NewSim(entries int, opts ...SimOption) *Sim {
	if entries <= 0 {
		entries = 1
	}
	s := &Sim{
		entries: entries,
		slots:   make([]SQE, entries),
		cq:      queue.New(),
		parked:  make(map[uint64]SQE),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = &SimClock{}
	}
	return s
}

// Clock returns the virtual clock timers are measured against.
func (s *Sim) Clock() *SimClock { return s.clock }

// FailSubmit queues errors returned, in order, by the next SubmitAndWait
// calls before any entry is consumed.
func (s *Sim) FailSubmit(errs ...error) { s.submitErrs = append(s.submitErrs, errs...) }

// FailReap queues errors returned by the next Reap calls.
func (s *Sim) FailReap(errs ...error) { s.reapErrs = append(s.reapErrs, errs...) }

// Inject posts a completion that no submission produced.
func (s *Sim) Inject(cqe CQE) { s.cq.Add(cqe) }

// Submitted returns the number of entries consumed so far.
func (s *Sim) Submitted() uint64 { return s.submitted }

// Pending returns the number of entries consumed but not yet completed.
func (s *Sim) Pending() int { return len(s.timers) + len(s.parked) }

// Ready returns the number of completions waiting to be reaped.
func (s *Sim) Ready() int { return s.cq.Length() }

// AcquireSlot implements Ring.
func (s *Sim) AcquireSlot() *SQE {
	if s.closed || s.acquired == s.entries {
		return nil
	}
	sqe := &s.slots[s.acquired]
	*sqe = SQE{}
	s.acquired++
	return sqe
}

// SubmitAndWait implements Ring.
func (s *Sim) SubmitAndWait(minComplete uint32) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if len(s.submitErrs) > 0 {
		err := s.submitErrs[0]
		s.submitErrs = s.submitErrs[1:]
		return 0, err
	}
	n := s.acquired
	for i := 0; i < n; i++ {
		s.execute(s.slots[i])
	}
	s.acquired = 0
	s.submitted += uint64(n)
	if err := s.waitFor(int(minComplete)); err != nil {
		return n, err
	}
	return n, nil
}

// Reap implements Ring.
func (s *Sim) Reap(cqes []CQE, minWait uint32) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if len(s.reapErrs) > 0 {
		err := s.reapErrs[0]
		s.reapErrs = s.reapErrs[1:]
		return 0, err
	}
	if s.cq.Length() == 0 {
		if err := s.waitFor(int(minWait)); err != nil {
			return 0, err
		}
	}
	n := min(len(cqes), s.cq.Length())
	for i := 0; i < n; i++ {
		cqes[i] = s.cq.Remove().(CQE)
	}
	return n, nil
}

// Close implements Ring.
func (s *Sim) Close() error {
	s.closed = true
	return nil
}

func (s *Sim) waitFor(want int) error {
	for s.cq.Length() < want {
		if !s.fireNextTimer() {
			return ErrStalled
		}
	}
	return nil
}

func (s *Sim) post(token uint64, res int32) {
	s.cq.Add(CQE{UserData: token, Res: res})
}

func (s *Sim) execute(sqe SQE) {
	switch sqe.Opcode {
	case IORING_OP_NOP:
		s.post(sqe.UserData, 0)
	case IORING_OP_TIMEOUT:
		ts := *(*Timespec)(unsafe.Pointer(uintptr(sqe.Addr)))
		if sqe.OpcodeFlags&IORING_TIMEOUT_ABS == 0 {
			ts = s.clock.now.Add(time.Duration(ts.Sec)*time.Second + time.Duration(ts.Nsec))
		}
		if !s.clock.now.Before(ts) {
			s.post(sqe.UserData, -ETIME)
			return
		}
		s.addTimer(simTimer{token: sqe.UserData, deadline: ts})
	case IORING_OP_ASYNC_CANCEL:
		s.post(sqe.UserData, s.cancel(sqe.Addr))
	default:
		if s.handler != nil {
			if res, done := s.handler(&sqe); done {
				s.post(sqe.UserData, res)
				return
			}
		}
		s.parked[sqe.UserData] = sqe
	}
}

func (s *Sim) cancel(target uint64) int32 {
	for i, t := range s.timers {
		if t.token == target {
			s.timers = append(s.timers[:i], s.timers[i+1:]...)
			s.post(target, -ECANCELED)
			return 0
		}
	}
	if _, ok := s.parked[target]; ok {
		delete(s.parked, target)
		s.post(target, -ECANCELED)
		return 0
	}
	return -ENOENT
}

func (s *Sim) addTimer(t simTimer) {
	i := sort.Search(len(s.timers), func(i int) bool {
		return t.deadline.Before(s.timers[i].deadline)
	})
	s.timers = append(s.timers, simTimer{})
	copy(s.timers[i+1:], s.timers[i:])
	s.timers[i] = t
}

// fireNextTimer advances the clock to the earliest deadline and expires
// every timer due by then.
func (s *Sim) fireNextTimer() bool {
	if len(s.timers) == 0 {
		return false
	}
	if s.clock.now.Before(s.timers[0].deadline) {
		s.clock.now = s.timers[0].deadline
	}
	for len(s.timers) > 0 && !s.clock.now.Before(s.timers[0].deadline) {
		s.post(s.timers[0].token, -ETIME)
		s.timers = s.timers[1:]
	}
	return true
}
