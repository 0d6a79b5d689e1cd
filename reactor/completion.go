// File: reactor/completion.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package reactor

import (
	"fmt"

	"github.com/momentics/hioload-uring/queue"
)

// Callback receives the kernel result of a completion: a non-negative
// value on success, a negated errno on failure. Returning true resubmits
// the same operation, except for Cancel completions which never repeat.
type Callback func(ctx any, l *Loop, c *Completion, res int32) bool

// State tracks who owns a completion.
type State uint8

const (
	// StateIdle: owned by the caller.
	StateIdle State = iota
	// StateBacklogged: waiting for a submission slot.
	StateBacklogged
	// StateSubmitted: placed in a slot, awaiting its result.
	StateSubmitted
	// StateCompleting: its callback is running.
	StateCompleting
	// StateLocal: resolved by the loop itself, delivered on the next flush.
	StateLocal
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBacklogged:
		return "backlogged"
	case StateSubmitted:
		return "submitted"
	case StateCompleting:
		return "completing"
	case StateLocal:
		return "local"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Completion is the caller-owned record of one operation. The loop holds
// it by reference from Enqueue until its callback returns without asking
// for resubmission; the caller must keep it alive and unmodified meanwhile.
type Completion struct {
	Operation Operation
	Context   any
	Callback  Callback

	id    uint64
	state State
	res   int32
	link  queue.Link[*Completion]
}

// NewCompletion wraps op with its callback and opaque context.
func NewCompletion(op Operation, ctx any, cb Callback) *Completion {
	return &Completion{Operation: op, Context: ctx, Callback: cb}
}

// ID returns the token of the latest submission, 0 if never submitted.
// It is kept after completion, so a stale ID may be canceled harmlessly.
func (c *Completion) ID() uint64 { return c.id }

// State reports current ownership.
func (c *Completion) State() State { return c.state }

// QueueLink implements queue.Node.
func (c *Completion) QueueLink() *queue.Link[*Completion] { return &c.link }

func (c *Completion) complete(l *Loop, res int32) bool {
	if c.Callback == nil {
		return false
	}
	return c.Callback(c.Context, l, c, res)
}
