//go:build !linux
// +build !linux

package ring

import "time"

var clockBase = time.Now()

// Runtime monotonic reading; off Linux only the simulated ring consumes it.
func monotonicNow() Timespec {
	return Timespec{}.Add(time.Since(clockBase))
}
