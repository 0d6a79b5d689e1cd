// File: ring/uring_types.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Shared io_uring types and constants. Layouts match linux/io_uring.h and
// are used both by the kernel-backed ring and by the simulated ring.

package ring

import "unsafe"

// Opcode is an io_uring submission opcode.
type Opcode uint8

// io_uring opcodes, in uapi order.
const (
	IORING_OP_NOP Opcode = iota
	IORING_OP_READV
	IORING_OP_WRITEV
	IORING_OP_FSYNC
	IORING_OP_READ_FIXED
	IORING_OP_WRITE_FIXED
	IORING_OP_POLL_ADD
	IORING_OP_POLL_REMOVE
	IORING_OP_SYNC_FILE_RANGE
	IORING_OP_SENDMSG
	IORING_OP_RECVMSG
	IORING_OP_TIMEOUT
	IORING_OP_TIMEOUT_REMOVE
	IORING_OP_ACCEPT
	IORING_OP_ASYNC_CANCEL
	IORING_OP_LINK_TIMEOUT
	IORING_OP_CONNECT
	IORING_OP_FALLOCATE
	IORING_OP_OPENAT
	IORING_OP_CLOSE
	IORING_OP_FILES_UPDATE
	IORING_OP_STATX
	IORING_OP_READ
	IORING_OP_WRITE
	IORING_OP_FADVISE
	IORING_OP_MADVISE
	IORING_OP_SEND
	IORING_OP_RECV
	IORING_OP_OPENAT2
	IORING_OP_EPOLL_CTL
	IORING_OP_SPLICE
	IORING_OP_PROVIDE_BUFFERS
	IORING_OP_REMOVE_BUFFERS
	IORING_OP_TEE
	IORING_OP_SHUTDOWN
)

const (
	// setup flags
	IORING_SETUP_IOPOLL uint32 = 1 << 0
	IORING_SETUP_SQPOLL uint32 = 1 << 1
	IORING_SETUP_SQ_AFF uint32 = 1 << 2
	IORING_SETUP_CQSIZE uint32 = 1 << 3
	IORING_SETUP_CLAMP  uint32 = 1 << 4

	// sq ring flags
	IORING_SQ_NEED_WAKEUP uint32 = 1 << 0
	IORING_SQ_CQ_OVERFLOW uint32 = 1 << 1

	// enter flags
	IORING_ENTER_GETEVENTS uint32 = 1 << 0
	IORING_ENTER_SQ_WAKEUP uint32 = 1 << 1

	// params features
	IORING_FEAT_SINGLE_MMAP uint32 = 1 << 0
	IORING_FEAT_NODROP      uint32 = 1 << 1

	// cqe flags
	IORING_CQE_F_BUFFER uint32 = 1 << 0
	IORING_CQE_F_MORE   uint32 = 1 << 1

	// timeout flags
	IORING_TIMEOUT_ABS uint32 = 1 << 0

	// accept flags, carried in sqe->ioprio
	IORING_ACCEPT_MULTISHOT uint16 = 1 << 0

	// mmap offsets
	IORING_OFF_SQ_RING int64 = 0
	IORING_OFF_CQ_RING int64 = 0x8000000
	IORING_OFF_SQES    int64 = 0x10000000
)

// shutdown(2) directions.
const (
	SHUT_RD   = 0
	SHUT_WR   = 1
	SHUT_RDWR = 2
)

// SQE is a 64-byte submission queue entry matching struct io_uring_sqe.
type SQE struct {
	Opcode      Opcode
	Flags       uint8
	IoPrio      uint16
	Fd          int32
	Off         uint64 // file offset or addr2
	Addr        uint64 // buffer address, timespec address or cancel target
	Len         uint32
	OpcodeFlags uint32 // rw_flags, msg_flags, poll32_events, timeout_flags ...
	UserData    uint64
	BufIndex    uint16
	Personality uint16
	SpliceFdIn  int32
	Addr3       uint64
	_           uint64
}

// CQE is a 16-byte completion queue entry matching struct io_uring_cqe.
type CQE struct {
	UserData uint64
	Res      int32
	Flags    uint32
}

const (
	sqeSize = unsafe.Sizeof(SQE{})
	cqeSize = unsafe.Sizeof(CQE{})
)
