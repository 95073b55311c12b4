package trunk

import "time"

// GroupGrant implements spec.md §4.6's GroupGrant event: resolves the
// channel, applies block-list/allow-list and encryption-lockout policy,
// and on success tunes the SM onto the voice channel.
func (s *State) GroupGrant(ev Event, now time.Time) {
	s.groupOrIndividualGrant(ev, now, true)
}

// IndividualGrant implements spec.md §4.6's IndividualGrant event,
// gated by Policy.TunePrivateCalls instead of TuneGroupCalls.
func (s *State) IndividualGrant(ev Event, now time.Time) {
	s.groupOrIndividualGrant(ev, now, false)
}

func (s *State) groupOrIndividualGrant(ev Event, now time.Time, isGroup bool) {
	vc, ok := s.Resolver.Resolve(ev.Channel16, s.TDMASystem)
	if !ok {
		// Resolution failure: diagnostic only, the SM keeps searching
		// (spec.md §4.5 step 3, §7 "Resolution" kind).
		return
	}

	s.mu.Lock()
	policyEnabled := s.Policy.TuneGroupCalls
	if !isGroup {
		policyEnabled = s.Policy.TunePrivateCalls
	}
	s.mu.Unlock()
	if !policyEnabled {
		return
	}

	if isGroup && !s.groupGrantPolicyAllows(ev) {
		return
	}

	s.mu.Lock()
	s.SMTuneCount++
	s.VCFreq[0] = vc
	s.VCFreq[1] = vc
	s.IsTuned = true
	s.LastVCSync = now
	s.SMState = Tuning
	s.mu.Unlock()

	if err := s.Hooks.TuneToFreq(vc); err == nil {
		s.mu.Lock()
		s.SMState = OnVC
		s.mu.Unlock()
	}
	// A hook failure leaves the SM in Tuning; the watchdog tick
	// re-evaluates and force-releases if VC sync never arrives
	// (spec.md §4.6 Failure semantics).
}

// groupGrantPolicyAllows applies the block-list/allow-list and
// encryption-lockout gates from spec.md §4.6 GroupGrant.
func (s *State) groupGrantPolicyAllows(ev Event) bool {
	s.mu.RLock()
	p := s.Policy
	s.mu.RUnlock()

	tg := ev.TGOrDst

	if p.TgHold != 0 && p.TgHold == tg {
		// Force-unmute: explicit hold overrides block-list policy.
	} else if p.UseAllowList {
		if !p.AllowedTGs[tg] {
			return false
		}
	} else if p.BlockedTGs[tg] {
		return false
	}

	if ev.SvcBits&SvcBitEncrypted != 0 && !p.TuneEncCalls {
		if !s.Patches.TGKeyIsClear(tg) {
			return false
		}
	}

	return true
}

// Release implements spec.md §4.6's Release event: force-release always
// wins; otherwise active audio or live hangtime defers the release.
func (s *State) Release(reason ReleaseReason, now time.Time) {
	s.mu.Lock()
	s.SMReleaseCount++
	force := s.ForceRelease
	anyAudioActive := s.AudioAllowed[0] || s.AudioAllowed[1]
	hangtimeLive := now.Sub(s.LastVCSync) < s.Policy.Hangtime
	s.mu.Unlock()

	if force {
		s.doForcedRelease()
		return
	}

	if anyAudioActive {
		return // deferred: audio still active on a slot
	}

	if hangtimeLive {
		s.mu.Lock()
		s.SMState = HangOnVC
		s.mu.Unlock()
		return // deferred: within hangtime
	}

	s.doForcedRelease()
}

func (s *State) doForcedRelease() {
	s.mu.Lock()
	s.Enc[0] = EncState{}
	s.Enc[1] = EncState{}
	s.AudioAllowed[0] = false
	s.AudioAllowed[1] = false
	s.AudioRingCount[0] = 0
	s.AudioRingCount[1] = 0
	s.IsTuned = false
	s.VCFreq[0] = 0
	s.VCFreq[1] = 0
	s.SMState = OnCC
	s.mu.Unlock()

	s.Hooks.FlushPartialAudio(0)
	s.Hooks.FlushPartialAudio(1)
	s.Hooks.ReturnToCC()
}

// MidCallEncTransition implements spec.md §4.6's slot-level ENC mute and
// isolated flush: only the transitioning slot's audio ring is flushed,
// and a Release is raised only when the other slot is already idle.
func (s *State) MidCallEncTransition(slot int, now time.Time) {
	if slot != 0 && slot != 1 {
		return
	}
	other := 1 - slot

	s.mu.Lock()
	s.AudioAllowed[slot] = false
	s.AudioRingCount[slot] = 0
	otherActive := s.AudioAllowed[other]
	s.mu.Unlock()

	s.Hooks.FlushPartialAudio(slot)

	if !otherActive {
		s.Release(ReleaseEncLockout, now)
	}
}

// NeighborUpdate implements spec.md §4.6's NeighborUpdate event: insert
// each frequency into the CC candidate pool, skipping duplicates, and
// count new insertions in the Added counter only when bumpAdded is true.
func (s *State) NeighborUpdate(freqs []uint64, now time.Time, bumpAdded bool) {
	for _, f := range freqs {
		s.CC.Add(f, now, bumpAdded)
	}
}

// NextCcCandidate implements spec.md §4.6's NextCcCandidate event.
func (s *State) NextCcCandidate(now time.Time) (freqHz uint64, ok bool) {
	return s.CC.Next(now)
}
