//go:build !linux
// +build !linux

// File: ring/uring_other.go
// Author: momentics <momentics@gmail.com>
//
// Stub for platforms without io_uring.

package ring

// URing is unavailable on this platform.
type URing struct{}

// NewURing always fails with ErrNotSupported.
func NewURing(entries uint32, flags uint32) (*URing, error) {
	return nil, ErrNotSupported
}

func (r *URing) Entries() uint32                   { return 0 }
func (r *URing) AcquireSlot() *SQE                 { return nil }
func (r *URing) SubmitAndWait(uint32) (int, error) { return 0, ErrNotSupported }
func (r *URing) Reap([]CQE, uint32) (int, error)   { return 0, ErrNotSupported }
func (r *URing) Close() error                      { return nil }
