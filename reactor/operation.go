// File: reactor/operation.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Operation describes one I/O intent. The set of kinds is closed; each kind
// is a plain payload struct and the reactor dispatches on the concrete type.

package reactor

import (
	"fmt"

	"github.com/momentics/hioload-uring/ring"
)

// Op identifies an operation kind.
type Op uint8

const (
	OpNop Op = iota
	OpAccept
	OpConnect
	OpClose
	OpShutdown
	OpRead
	OpWrite
	OpRecv
	OpSend
	OpPoll
	OpTimer
	OpCancel
)

var opNames = [...]string{
	OpNop:      "nop",
	OpAccept:   "accept",
	OpConnect:  "connect",
	OpClose:    "close",
	OpShutdown: "shutdown",
	OpRead:     "read",
	OpWrite:    "write",
	OpRecv:     "recv",
	OpSend:     "send",
	OpPoll:     "poll",
	OpTimer:    "timer",
	OpCancel:   "cancel",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// Operation is implemented only by the payload types of this package.
// Payloads are treated as immutable once wrapped in a Completion; buffers
// they reference must stay untouched until the completion fires.
type Operation interface {
	Op() Op
	operation()
}

// Nop completes immediately with result 0.
type Nop struct{}

// Accept takes a connection from listening socket FD. Addr and AddrLen
// receive the peer address and may be nil.
type Accept struct {
	FD        int32
	Addr      []byte
	AddrLen   *uint32
	Flags     uint32
	Multishot bool
}

// Connect connects FD to the raw sockaddr in Addr.
type Connect struct {
	FD      int32
	Addr    []byte
	AddrLen uint32
}

// Close closes FD.
type Close struct {
	FD int32
}

// ShutdownHow selects the direction of a shutdown. The zero value shuts
// down both directions.
type ShutdownHow uint8

const (
	ShutdownBoth ShutdownHow = iota
	ShutdownRead
	ShutdownWrite
)

func (h ShutdownHow) raw() uint32 {
	switch h {
	case ShutdownRead:
		return ring.SHUT_RD
	case ShutdownWrite:
		return ring.SHUT_WR
	default:
		return ring.SHUT_RDWR
	}
}

// Shutdown shuts down part or all of a full-duplex connection on FD.
type Shutdown struct {
	FD  int32
	How ShutdownHow
}

// Read reads Len bytes into Buf at file Offset.
type Read struct {
	FD     int32
	Buf    []byte
	Len    uint32
	Offset uint64
}

// Write writes Len bytes from Buf at file Offset.
type Write struct {
	FD     int32
	Buf    []byte
	Len    uint32
	Offset uint64
}

// Recv receives up to Len bytes into Buf.
type Recv struct {
	FD    int32
	Buf   []byte
	Len   uint32
	Flags uint32
}

// Send sends Len bytes from Buf.
type Send struct {
	FD    int32
	Buf   []byte
	Len   uint32
	Flags uint32
}

// Poll waits for any event in Mask (POLLIN, POLLOUT, ...) on FD.
type Poll struct {
	FD   int32
	Mask uint32
}

// TimerFlags modify timer interpretation.
type TimerFlags uint32

// TimerAbsolute makes Deadline an absolute CLOCK_MONOTONIC time.
const TimerAbsolute TimerFlags = TimerFlags(ring.IORING_TIMEOUT_ABS)

// Timer fires at Deadline, or after Count other completions when Count > 0.
type Timer struct {
	Deadline *ring.Timespec
	Count    uint32
	Flags    TimerFlags
}

// Cancel requests cancellation of the in-flight operation carrying Target.
type Cancel struct {
	Target uint64
}

func (Nop) Op() Op      { return OpNop }
func (Accept) Op() Op   { return OpAccept }
func (Connect) Op() Op  { return OpConnect }
func (Close) Op() Op    { return OpClose }
func (Shutdown) Op() Op { return OpShutdown }
func (Read) Op() Op     { return OpRead }
func (Write) Op() Op    { return OpWrite }
func (Recv) Op() Op     { return OpRecv }
func (Send) Op() Op     { return OpSend }
func (Poll) Op() Op     { return OpPoll }
func (Timer) Op() Op    { return OpTimer }
func (Cancel) Op() Op   { return OpCancel }

func (Nop) operation()      {}
func (Accept) operation()   {}
func (Connect) operation()  {}
func (Close) operation()    {}
func (Shutdown) operation() {}
func (Read) operation()     {}
func (Write) operation()    {}
func (Recv) operation()     {}
func (Send) operation()     {}
func (Poll) operation()     {}
func (Timer) operation()    {}
func (Cancel) operation()   {}

// NewShutdown shuts down both directions of fd.
func NewShutdown(fd int32) Shutdown { return Shutdown{FD: fd, How: ShutdownBoth} }

// NewRead reads len(buf) bytes at offset.
func NewRead(fd int32, buf []byte, offset uint64) Read {
	return Read{FD: fd, Buf: buf, Len: uint32(len(buf)), Offset: offset}
}

// NewWrite writes all of buf at offset.
func NewWrite(fd int32, buf []byte, offset uint64) Write {
	return Write{FD: fd, Buf: buf, Len: uint32(len(buf)), Offset: offset}
}

// NewRecv receives into all of buf.
func NewRecv(fd int32, buf []byte) Recv {
	return Recv{FD: fd, Buf: buf, Len: uint32(len(buf))}
}

// NewSend sends all of buf.
func NewSend(fd int32, buf []byte) Send {
	return Send{FD: fd, Buf: buf, Len: uint32(len(buf))}
}

// NewConnect connects fd to the raw sockaddr addr.
func NewConnect(fd int32, addr []byte) Connect {
	return Connect{FD: fd, Addr: addr, AddrLen: uint32(len(addr))}
}

// NewTimer builds a relative timer firing at deadline.
func NewTimer(deadline *ring.Timespec) Timer { return Timer{Deadline: deadline} }

// WithCount returns a copy completing after count other completions.
func (t Timer) WithCount(count uint32) Timer {
	t.Count = count
	return t
}

// WithFlags returns a copy with flags set.
func (t Timer) WithFlags(flags TimerFlags) Timer {
	t.Flags = flags
	return t
}

// validate rejects operations that cannot be placed in a slot, including
// nil and pointers to payloads.
func validate(op Operation) error {
	switch o := op.(type) {
	case Timer:
		if o.Deadline == nil {
			return fmt.Errorf("%w: timer without deadline", ErrInvalidOperation)
		}
	case Nop, Accept, Connect, Close, Shutdown, Read, Write, Recv, Send, Poll, Cancel:
	default:
		return fmt.Errorf("%w: %T", ErrInvalidOperation, op)
	}
	return nil
}

// prep fills sqe from op using the kind's fill rule. op has passed validate.
func prep(sqe *ring.SQE, op Operation) {
	switch o := op.(type) {
	case Nop:
		sqe.PrepNop()
	case Accept:
		sqe.PrepAccept(o.FD, o.Addr, o.AddrLen, o.Flags, o.Multishot)
	case Connect:
		sqe.PrepConnect(o.FD, o.Addr, o.AddrLen)
	case Close:
		sqe.PrepClose(o.FD)
	case Shutdown:
		sqe.PrepShutdown(o.FD, o.How.raw())
	case Read:
		sqe.PrepRead(o.FD, o.Buf, o.Len, o.Offset)
	case Write:
		sqe.PrepWrite(o.FD, o.Buf, o.Len, o.Offset)
	case Recv:
		sqe.PrepRecv(o.FD, o.Buf, o.Len, o.Flags)
	case Send:
		sqe.PrepSend(o.FD, o.Buf, o.Len, o.Flags)
	case Poll:
		sqe.PrepPollAdd(o.FD, o.Mask)
	case Timer:
		sqe.PrepTimeout(o.Deadline, o.Count, uint32(o.Flags))
	case Cancel:
		sqe.PrepCancel(o.Target, 0)
	default:
		panic(fmt.Sprintf("reactor: no fill rule for %T", op))
	}
}
