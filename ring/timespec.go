// File: ring/timespec.go
// Author: momentics <momentics@gmail.com>
//
// Kernel timespec and the monotonic clock collaborator.

package ring

import "time"

// Timespec matches struct __kernel_timespec.
type Timespec struct {
	Sec  int64
	Nsec int64
}

// Add returns t+d, normalized so 0 <= Nsec < 1e9.
func (t Timespec) Add(d time.Duration) Timespec {
	ns := t.Nsec + int64(d%time.Second)
	sec := t.Sec + int64(d/time.Second)
	if ns >= int64(time.Second) {
		sec++
		ns -= int64(time.Second)
	} else if ns < 0 {
		sec--
		ns += int64(time.Second)
	}
	return Timespec{Sec: sec, Nsec: ns}
}

// Before reports whether t is earlier than u.
func (t Timespec) Before(u Timespec) bool {
	return t.Sec < u.Sec || (t.Sec == u.Sec && t.Nsec < u.Nsec)
}

// Sub returns t-u.
func (t Timespec) Sub(u Timespec) time.Duration {
	return time.Duration(t.Sec-u.Sec)*time.Second + time.Duration(t.Nsec-u.Nsec)
}

// Clock yields monotonic timestamps on the timebase the ring's absolute
// timeouts are measured against.
type Clock interface {
	Now() Timespec
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() Timespec

// Now calls f.
func (f ClockFunc) Now() Timespec { return f() }

// Monotonic is the CLOCK_MONOTONIC clock.
var Monotonic Clock = ClockFunc(monotonicNow)
