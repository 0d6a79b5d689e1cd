// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral API for pinning the goroutine that drives a reactor
// loop. Platform-specific implementations live in build-tagged files.

package affinity

import "runtime"

// PinLoopThread locks the calling goroutine to its OS thread and, when
// cpuID is non-negative, binds that thread to the given logical CPU. The
// returned release undoes the lock.
func PinLoopThread(cpuID int) (release func(), err error) {
	runtime.LockOSThread()
	if cpuID >= 0 {
		if err := setAffinityPlatform(cpuID); err != nil {
			runtime.UnlockOSThread()
			return nil, err
		}
	}
	return runtime.UnlockOSThread, nil
}

// SetAffinity binds the current OS thread to cpuID without locking the
// goroutine to it.
func SetAffinity(cpuID int) error {
	return setAffinityPlatform(cpuID)
}
