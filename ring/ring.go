// File: ring/ring.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Ring contract consumed by the reactor.

package ring

import "errors"

// Ring is a fixed-capacity submission/completion queue pair.
// Implementations are driven from a single goroutine.
type Ring interface {
	// AcquireSlot returns a zeroed submission slot, or nil when the
	// submission queue is full.
	AcquireSlot() *SQE

	// SubmitAndWait hands every filled slot to the kernel and blocks until
	// at least minComplete completions are ready. Failures are
	// syscall.Errno values.
	SubmitAndWait(minComplete uint32) (int, error)

	// Reap copies up to len(cqes) ready completions into cqes, waiting for
	// minWait of them if none are ready.
	Reap(cqes []CQE, minWait uint32) (int, error)

	// Close releases the ring.
	Close() error
}

// Completion result codes inspected by the reactor. Results are negated
// Linux errno values.
const (
	ENOENT    int32 = 2
	ETIME     int32 = 62
	EALREADY  int32 = 114
	ECANCELED int32 = 125
)

var (
	// ErrNotSupported is returned where io_uring is unavailable.
	ErrNotSupported = errors.New("ring: io_uring not supported on this platform")

	// ErrClosed is returned by operations on a closed ring.
	ErrClosed = errors.New("ring: closed")

	// ErrStalled is returned by the simulated ring when asked to wait for
	// completions that can never arrive.
	ErrStalled = errors.New("ring: wait would block forever")
)
