//go:build !linux
// +build !linux

// File: affinity/affinity_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package affinity

import "errors"

// ErrUnsupported is returned where thread affinity cannot be set.
var ErrUnsupported = errors.New("affinity: not supported on this platform")

func setAffinityPlatform(cpuID int) error {
	return ErrUnsupported
}

// Allowed is unavailable on this platform.
func Allowed() ([]int, error) {
	return nil, ErrUnsupported
}
