// File: reactor/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package reactor

import "errors"

var (
	// ErrClosed is returned by every operation on a closed loop.
	ErrClosed = errors.New("reactor: loop closed")

	// ErrInvalidOperation rejects operations that cannot be placed in a slot.
	ErrInvalidOperation = errors.New("reactor: invalid operation")

	// ErrBusy is returned when enqueueing a completion that the loop
	// already owns.
	ErrBusy = errors.New("reactor: completion already queued")

	// ErrUnknownToken means the ring produced a completion whose token is
	// neither the sentinel nor in flight. It is fatal for the loop.
	ErrUnknownToken = errors.New("reactor: completion for unknown token")

	// ErrSentinelSlot means no submission slot could be freed for a
	// deadline sentinel.
	ErrSentinelSlot = errors.New("reactor: no submission slot for deadline sentinel")

	// ErrSubmit and ErrReap wrap unrecoverable ring errors.
	ErrSubmit = errors.New("reactor: submit")
	ErrReap   = errors.New("reactor: reap")
)
