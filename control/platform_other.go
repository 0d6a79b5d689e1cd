//go:build !linux
// +build !linux

package control

import "runtime"

// RegisterPlatformProbes registers the CPU count probe.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
}
