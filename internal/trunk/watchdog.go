package trunk

import (
	"context"
	"sync/atomic"
	"time"
)

// ClampWatchdogCadence clamps a configured tick interval to [20, 2000]
// ms regardless of configuration (spec.md §4.6, §5).
func ClampWatchdogCadence(d time.Duration) time.Duration {
	min := 20 * time.Millisecond
	max := 2000 * time.Millisecond
	if d < min {
		return min
	}
	if d > max {
		return max
	}
	return d
}

// DefaultCadence returns the default watchdog cadence for UI vs
// headless mode (spec.md §6: 200ms UI / 400ms headless).
func DefaultCadence(uiMode bool) time.Duration {
	if uiMode {
		return 200 * time.Millisecond
	}
	return 400 * time.Millisecond
}

// tickLockFree/tickLockHeld are the two states of the CAS single-flight
// lock guarding Tick (spec.md §9 "watchdog single-flight").
const (
	tickLockFree uint32 = 0
	tickLockHeld uint32 = 1
)

// Tick runs one watchdog pass: release-timeout checks, CC rotation when
// idle on CC too long, and affiliation/group-affiliation aging. At most
// one Tick runs at a time across the watchdog goroutine and any
// on-demand callers; InTick lets nested callers detect a tick already
// in flight (spec.md §4.6, §9).
func (s *State) Tick(now time.Time, ccIdleTimeout, affiliationTTL time.Duration) (ran bool) {
	if !atomic.CompareAndSwapUint32(&s.tickLock, tickLockFree, tickLockHeld) {
		return false
	}
	defer atomic.StoreUint32(&s.tickLock, tickLockFree)

	s.mu.Lock()
	s.inTick = true
	state := s.SMState
	lastVC := s.LastVCSync
	lastCC := s.LastCCSync
	s.mu.Unlock()

	switch state {
	case Tuning:
		if now.Sub(lastVC) > ccIdleTimeout {
			// VC sync never arrived within the hold window: force a
			// release back to CC (spec.md §4.6 Failure semantics).
			s.mu.Lock()
			s.ForceRelease = true
			s.mu.Unlock()
			s.Release(ReleaseTimeout, now)
			s.mu.Lock()
			s.ForceRelease = false
			s.mu.Unlock()
		}
	case HangOnVC:
		if now.Sub(lastVC) >= s.Policy.Hangtime {
			s.doForcedRelease()
		}
	case OnCC:
		if now.Sub(lastCC) > ccIdleTimeout {
			if freq, ok := s.NextCcCandidate(now); ok {
				s.Hooks.TuneToCC(freq)
			}
		}
	}

	s.Affil.AgeOut(now.Add(-affiliationTTL))

	s.mu.Lock()
	s.inTick = false
	s.mu.Unlock()
	return true
}

// InTick reports whether a Tick call is currently in flight, for nested
// callers to detect re-entrancy (spec.md §9).
func (s *State) InTick() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inTick
}

// RunWatchdog runs Tick on the given cadence until ctx is canceled. The
// cadence is clamped to [20, 2000] ms regardless of the caller's input
// (spec.md §5 "The watchdog clamps its cadence ... regardless of
// configuration").
func (s *State) RunWatchdog(ctx context.Context, cadence, ccIdleTimeout, affiliationTTL time.Duration) {
	cadence = ClampWatchdogCadence(cadence)
	ticker := time.NewTicker(cadence)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			s.Tick(t, ccIdleTimeout, affiliationTTL)
		}
	}
}
