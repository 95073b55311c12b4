//go:build !linux

package rtsched

import "fmt"

// elevate changes nothing and returns an error on platforms without
// SCHED_FIFO support via this syscall surface.
func elevate(prio int) error {
	return fmt.Errorf("realtime scheduling not supported on this platform")
}

// pinToCPU changes nothing and returns an error on platforms without
// CPU-affinity syscall support via this surface.
func pinToCPU(cpuIndex int) error {
	return fmt.Errorf("cpu pinning not supported on this platform")
}
