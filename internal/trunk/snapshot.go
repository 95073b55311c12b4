package trunk

// Snapshot is a deep-copied, UI-safe read of the SM state (spec.md §5:
// "UI reads a deep-copied snapshot published after mutation").
type Snapshot struct {
	CCFreq         uint64
	VCFreq         [2]uint64
	IsTuned        bool
	AudioAllowed   [2]bool
	AudioRingCount [2]int
	SMReleaseCount uint64
	SMTuneCount    uint64
	SMState        SMState
}

// Snapshot returns a deep copy of the current SM state suitable for
// handing to a UI or telemetry publisher thread.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		CCFreq:         s.CCFreq,
		VCFreq:         s.VCFreq,
		IsTuned:        s.IsTuned,
		AudioAllowed:   s.AudioAllowed,
		AudioRingCount: s.AudioRingCount,
		SMReleaseCount: s.SMReleaseCount,
		SMTuneCount:    s.SMTuneCount,
		SMState:        s.SMState,
	}
}
