// Package rtsched applies the realtime-scheduling and CPU-pinning
// configuration keys from spec.md §6 (rt_sched_enabled, rt_prio_<role>,
// cpu_<role>) to the calling OS thread; ftz_daz_enabled is not applied
// here. It degrades to best-effort everywhere these syscalls aren't
// meaningful.
package rtsched

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
)

// Role identifies a thread's scheduling role.
type Role string

const (
	RoleDemod  Role = "demod"
	RoleDongle Role = "dongle"
	RoleUSB    Role = "usb"
)

// Policy bounds the realtime priority range for the chosen scheduling
// policy (SCHED_FIFO on platforms that support it).
var Policy = struct{ Min, Max int }{
	Min: 1,
	Max: 99,
}

// ClampPriority clamps a requested realtime priority into the policy's
// valid range (spec.md §6: "clamped to [min, max] of the chosen
// policy").
func ClampPriority(p int) int {
	if p < Policy.Min {
		return Policy.Min
	}
	if p > Policy.Max {
		return Policy.Max
	}
	return p
}

// NumCores reports the number of logical CPU cores available, summed
// across sockets, falling back to runtime.NumCPU on query failure.
func NumCores() int {
	info, err := cpu.Info()
	if err != nil || len(info) == 0 {
		return runtime.NumCPU()
	}
	total := 0
	for _, c := range info {
		total += int(c.Cores)
	}
	if total == 0 {
		return runtime.NumCPU()
	}
	return total
}

// ApplyRole elevates and pins the calling OS thread according to the
// given role's configured priority/CPU, both optional (hasCPU false
// means "no pinning" per spec.md §6). Errors from either step are
// non-fatal: scheduling elevation is best-effort. The actual syscalls
// are platform-specific (elevate/pinToCPU, in rtsched_linux.go and
// rtsched_other.go).
func ApplyRole(role Role, enabled bool, prio int, cpuIndex int, hasCPU bool) []error {
	var errs []error
	if enabled {
		if err := elevate(prio); err != nil {
			errs = append(errs, fmt.Errorf("rtsched: role %s: %w", role, err))
		}
	}
	if hasCPU {
		if err := pinToCPU(cpuIndex); err != nil {
			errs = append(errs, fmt.Errorf("rtsched: role %s: %w", role, err))
		}
	}
	return errs
}
