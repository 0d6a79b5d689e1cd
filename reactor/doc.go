// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor implements a single-threaded completion loop over an
// io_uring style ring.
//
// Callers describe work as a Completion: an Operation payload, an opaque
// context and a callback. Enqueue places it in a submission slot or, when
// the ring is full, in an intrusive backlog retried on every flush. Each
// submission carries a random non-zero token that maps the kernel result
// back to its Completion; token 0 is reserved for the deadline sentinels
// armed by RunFor.
//
// A callback returning true resubmits the same operation, which is how
// repeating accepts and reads are written. Cancel completions never repeat.
package reactor
