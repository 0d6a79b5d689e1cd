// File: ring/sqe.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-kind SQE fill routines, equivalent to liburing's io_uring_prep_*.
// Buffers are referenced by address; the caller keeps them reachable until
// the matching CQE has been reaped.

package ring

import "unsafe"

// SetToken stores the correlation token returned in the matching CQE.
func (s *SQE) SetToken(token uint64) { s.UserData = token }

// Token returns the correlation token.
func (s *SQE) Token() uint64 { return s.UserData }

func (s *SQE) prepRW(op Opcode, fd int32, addr uint64, n uint32, off uint64) {
	s.Opcode = op
	s.Fd = fd
	s.Addr = addr
	s.Len = n
	s.Off = off
}

// PrepNop fills a no-op.
func (s *SQE) PrepNop() {
	s.prepRW(IORING_OP_NOP, -1, 0, 0, 0)
}

// PrepAccept fills an accept; addr and addrLen may be nil.
func (s *SQE) PrepAccept(fd int32, addr []byte, addrLen *uint32, flags uint32, multishot bool) {
	s.prepRW(IORING_OP_ACCEPT, fd, sliceAddr(addr), 0, uint64(uintptr(unsafe.Pointer(addrLen))))
	s.OpcodeFlags = flags
	if multishot {
		s.IoPrio |= IORING_ACCEPT_MULTISHOT
	}
}

// PrepConnect fills a connect to the raw sockaddr in addr.
func (s *SQE) PrepConnect(fd int32, addr []byte, addrLen uint32) {
	s.prepRW(IORING_OP_CONNECT, fd, sliceAddr(addr), 0, uint64(addrLen))
}

// PrepClose fills a close.
func (s *SQE) PrepClose(fd int32) {
	s.prepRW(IORING_OP_CLOSE, fd, 0, 0, 0)
}

// PrepShutdown fills a shutdown; how is one of SHUT_RD, SHUT_WR, SHUT_RDWR.
func (s *SQE) PrepShutdown(fd int32, how uint32) {
	s.prepRW(IORING_OP_SHUTDOWN, fd, 0, how, 0)
}

// PrepRead fills a read of n bytes at offset.
func (s *SQE) PrepRead(fd int32, buf []byte, n uint32, offset uint64) {
	s.prepRW(IORING_OP_READ, fd, sliceAddr(buf), n, offset)
}

// PrepWrite fills a write of n bytes at offset.
func (s *SQE) PrepWrite(fd int32, buf []byte, n uint32, offset uint64) {
	s.prepRW(IORING_OP_WRITE, fd, sliceAddr(buf), n, offset)
}

// PrepRecv fills a recv.
func (s *SQE) PrepRecv(fd int32, buf []byte, n uint32, flags uint32) {
	s.prepRW(IORING_OP_RECV, fd, sliceAddr(buf), n, 0)
	s.OpcodeFlags = flags
}

// PrepSend fills a send.
func (s *SQE) PrepSend(fd int32, buf []byte, n uint32, flags uint32) {
	s.prepRW(IORING_OP_SEND, fd, sliceAddr(buf), n, 0)
	s.OpcodeFlags = flags
}

// PrepPollAdd fills a one-shot poll for mask.
func (s *SQE) PrepPollAdd(fd int32, mask uint32) {
	s.prepRW(IORING_OP_POLL_ADD, fd, 0, 0, 0)
	s.OpcodeFlags = mask
}

// PrepTimeout fills a timeout. count > 0 also completes the timeout after
// that many other completions.
func (s *SQE) PrepTimeout(ts *Timespec, count uint32, flags uint32) {
	s.prepRW(IORING_OP_TIMEOUT, -1, uint64(uintptr(unsafe.Pointer(ts))), 1, uint64(count))
	s.OpcodeFlags = flags
}

// PrepCancel fills an async cancel of the request carrying token.
func (s *SQE) PrepCancel(token uint64, flags uint32) {
	s.prepRW(IORING_OP_ASYNC_CANCEL, -1, token, 0, 0)
	s.OpcodeFlags = flags
}

func sliceAddr(b []byte) uint64 {
	if cap(b) == 0 {
		return 0
	}
	return uint64(uintptr(unsafe.Pointer(unsafe.SliceData(b))))
}
