//go:build linux

package rtsched

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// elevate sets the calling OS thread's scheduling policy to SCHED_FIFO
// at the given (clamped) priority. The caller must already be locked
// to its OS thread via runtime.LockOSThread.
func elevate(prio int) error {
	prio = ClampPriority(prio)
	param := &unix.SchedParam{Priority: int32(prio)}
	if err := unix.SchedSetscheduler(0, unix.SCHED_FIFO, param); err != nil {
		return fmt.Errorf("SCHED_FIFO priority %d: %w", prio, err)
	}
	return nil
}

// pinToCPU pins the calling OS thread to the given CPU index. The
// caller must already be locked to its OS thread.
func pinToCPU(cpuIndex int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuIndex)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("pin to cpu %d: %w", cpuIndex, err)
	}
	return nil
}
