//go:build linux
// +build linux

// File: ring/uring_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Kernel-backed io_uring. Pure Go, no cgo: io_uring_setup/io_uring_enter
// through x/sys/unix and the three shared mmaps.

package ring

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// sqringOffsets matches struct io_sqring_offsets.
type sqringOffsets struct {
	Head        uint32
	Tail        uint32
	RingMask    uint32
	RingEntries uint32
	Flags       uint32
	Dropped     uint32
	Array       uint32
	Resv1       uint32
	UserAddr    uint64
}

// cqringOffsets matches struct io_cqring_offsets.
type cqringOffsets struct {
	Head        uint32
	Tail        uint32
	RingMask    uint32
	RingEntries uint32
	Overflow    uint32
	CQEs        uint32
	Flags       uint32
	Resv1       uint32
	UserAddr    uint64
}

// params matches struct io_uring_params.
type params struct {
	SQEntries    uint32
	CQEntries    uint32
	Flags        uint32
	SQThreadCPU  uint32
	SQThreadIdle uint32
	Features     uint32
	WQFd         uint32
	Resv         [3]uint32
	SQOff        sqringOffsets
	CQOff        cqringOffsets
}

// URing is an io_uring instance. Not safe for concurrent use.
type URing struct {
	fd       int
	features uint32

	sqMem   []byte
	cqMem   []byte
	sqesMem []byte

	sqHead    *uint32
	sqTail    *uint32
	sqFlags   *uint32
	sqMask    uint32
	sqEntries uint32
	sqArray   unsafe.Pointer
	sqes      unsafe.Pointer

	// slots handed out by AcquireSlot but not yet published to the kernel
	sqeHead uint32
	sqeTail uint32

	cqHead *uint32
	cqTail *uint32
	cqMask uint32
	cqes   unsafe.Pointer

	closed bool
}

var _ Ring = (*URing)(nil)

// NewURing sets up a ring with the given number of submission entries.
func NewURing(entries uint32, flags uint32) (*URing, error) {
	p := params{Flags: flags}
	fd, _, errno := unix.RawSyscall(unix.SYS_IO_URING_SETUP,
		uintptr(entries), uintptr(unsafe.Pointer(&p)), 0)
	if errno != 0 {
		return nil, fmt.Errorf("io_uring_setup: %w", errno)
	}
	r := &URing{fd: int(fd), features: p.Features, sqEntries: p.SQEntries}
	if err := r.mmapRings(&p); err != nil {
		unix.Close(r.fd)
		return nil, err
	}
	return r, nil
}

func (r *URing) mmapRings(p *params) error {
	sqSize := int(p.SQOff.Array + p.SQEntries*4)
	cqSize := int(p.CQOff.CQEs + p.CQEntries*uint32(cqeSize))
	single := p.Features&IORING_FEAT_SINGLE_MMAP != 0
	if single && cqSize > sqSize {
		sqSize = cqSize
	}

	sqMem, err := unix.Mmap(r.fd, IORING_OFF_SQ_RING, sqSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		return fmt.Errorf("mmap sq ring: %w", err)
	}
	r.sqMem = sqMem

	if single {
		r.cqMem = sqMem
	} else {
		cqMem, err := unix.Mmap(r.fd, IORING_OFF_CQ_RING, cqSize,
			unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
		if err != nil {
			r.unmap()
			return fmt.Errorf("mmap cq ring: %w", err)
		}
		r.cqMem = cqMem
	}

	sqesMem, err := unix.Mmap(r.fd, IORING_OFF_SQES, int(p.SQEntries)*int(sqeSize),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		r.unmap()
		return fmt.Errorf("mmap sqes: %w", err)
	}
	r.sqesMem = sqesMem

	sq := unsafe.Pointer(&r.sqMem[0])
	r.sqHead = (*uint32)(unsafe.Add(sq, p.SQOff.Head))
	r.sqTail = (*uint32)(unsafe.Add(sq, p.SQOff.Tail))
	r.sqFlags = (*uint32)(unsafe.Add(sq, p.SQOff.Flags))
	r.sqMask = *(*uint32)(unsafe.Add(sq, p.SQOff.RingMask))
	r.sqArray = unsafe.Add(sq, p.SQOff.Array)
	r.sqes = unsafe.Pointer(&r.sqesMem[0])

	cq := unsafe.Pointer(&r.cqMem[0])
	r.cqHead = (*uint32)(unsafe.Add(cq, p.CQOff.Head))
	r.cqTail = (*uint32)(unsafe.Add(cq, p.CQOff.Tail))
	r.cqMask = *(*uint32)(unsafe.Add(cq, p.CQOff.RingMask))
	r.cqes = unsafe.Add(cq, p.CQOff.CQEs)

	r.sqeHead = atomic.LoadUint32(r.sqTail)
	r.sqeTail = r.sqeHead
	return nil
}

// Entries returns the submission queue size granted by the kernel.
func (r *URing) Entries() uint32 { return r.sqEntries }

// AcquireSlot implements Ring.
func (r *URing) AcquireSlot() *SQE {
	if r.closed {
		return nil
	}
	head := atomic.LoadUint32(r.sqHead)
	next := r.sqeTail + 1
	if next-head > r.sqEntries {
		return nil
	}
	sqe := (*SQE)(unsafe.Add(r.sqes, uintptr(r.sqeTail&r.sqMask)*sqeSize))
	*sqe = SQE{}
	r.sqeTail = next
	return sqe
}

// flushSQ publishes acquired slots and returns how many the kernel has
// not consumed yet.
func (r *URing) flushSQ() uint32 {
	tail := atomic.LoadUint32(r.sqTail)
	for ; r.sqeHead != r.sqeTail; r.sqeHead++ {
		*(*uint32)(unsafe.Add(r.sqArray, uintptr(tail&r.sqMask)*4)) = r.sqeHead & r.sqMask
		tail++
	}
	atomic.StoreUint32(r.sqTail, tail)
	return tail - atomic.LoadUint32(r.sqHead)
}

func (r *URing) cqNeedsFlush() bool {
	return atomic.LoadUint32(r.sqFlags)&IORING_SQ_CQ_OVERFLOW != 0
}

func (r *URing) enter(toSubmit, minComplete, flags uint32) (int, error) {
	n, _, errno := unix.Syscall6(unix.SYS_IO_URING_ENTER,
		uintptr(r.fd), uintptr(toSubmit), uintptr(minComplete), uintptr(flags), 0, 0)
	if errno != 0 {
		return 0, errno
	}
	return int(n), nil
}

// SubmitAndWait implements Ring.
func (r *URing) SubmitAndWait(minComplete uint32) (int, error) {
	if r.closed {
		return 0, ErrClosed
	}
	toSubmit := r.flushSQ()
	var flags uint32
	if minComplete > 0 || r.cqNeedsFlush() {
		flags |= IORING_ENTER_GETEVENTS
	}
	if toSubmit == 0 && flags == 0 {
		return 0, nil
	}
	return r.enter(toSubmit, minComplete, flags)
}

// Reap implements Ring. Ready entries are copied without a syscall; the
// kernel is entered only when nothing is ready and the caller wants to
// wait, or when completions overflowed the CQ ring.
func (r *URing) Reap(cqes []CQE, minWait uint32) (int, error) {
	if r.closed {
		return 0, ErrClosed
	}
	if n := r.copyReady(cqes); n > 0 {
		return n, nil
	}
	if minWait > 0 || r.cqNeedsFlush() {
		if _, err := r.enter(0, minWait, IORING_ENTER_GETEVENTS); err != nil {
			return 0, err
		}
		return r.copyReady(cqes), nil
	}
	return 0, nil
}

func (r *URing) copyReady(cqes []CQE) int {
	head := atomic.LoadUint32(r.cqHead)
	ready := atomic.LoadUint32(r.cqTail) - head
	n := min(int(ready), len(cqes))
	for i := 0; i < n; i++ {
		idx := (head + uint32(i)) & r.cqMask
		cqes[i] = *(*CQE)(unsafe.Add(r.cqes, uintptr(idx)*cqeSize))
	}
	atomic.StoreUint32(r.cqHead, head+uint32(n))
	return n
}

// Close implements Ring. It is idempotent.
func (r *URing) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.unmap()
	return unix.Close(r.fd)
}

func (r *URing) unmap() {
	if r.sqesMem != nil {
		unix.Munmap(r.sqesMem)
		r.sqesMem = nil
	}
	if r.cqMem != nil && (r.sqMem == nil || &r.cqMem[0] != &r.sqMem[0]) {
		unix.Munmap(r.cqMem)
	}
	r.cqMem = nil
	if r.sqMem != nil {
		unix.Munmap(r.sqMem)
		r.sqMem = nil
	}
}
