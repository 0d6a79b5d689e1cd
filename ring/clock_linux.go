//go:build linux
// +build linux

package ring

import "golang.org/x/sys/unix"

func monotonicNow() Timespec {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		panic("ring: clock_gettime(CLOCK_MONOTONIC): " + err.Error())
	}
	return Timespec{Sec: int64(ts.Sec), Nsec: int64(ts.Nsec)}
}
