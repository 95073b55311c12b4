package trunk

import (
	"testing"
	"time"

	"github.com/arancormonk/dsd-neo-go/internal/chanplan"
	"github.com/arancormonk/dsd-neo-go/internal/hooks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T, h *hooks.Tables, policy Policy) *State {
	t.Helper()
	iden := &chanplan.IdenTable{}
	iden.Set(1, chanplan.IdenEntry{
		BaseFreqUnits: 851_000_000 / 5,
		Spacing125Hz:  100,
		TDMAFlag:      false,
		Trust:         chanplan.TrustAuthoritative,
	})
	r := chanplan.NewResolver(iden)
	if policy.BlockedTGs == nil {
		policy.BlockedTGs = map[uint32]bool{}
	}
	if policy.AllowedTGs == nil {
		policy.AllowedTGs = map[uint32]bool{}
	}
	policy.TuneGroupCalls = true
	policy.TunePrivateCalls = true
	return NewState(r, h, policy)
}

// Scenario 6: ENC override via patch clear.
func TestGroupGrantEncOverrideViaPatchClear(t *testing.T) {
	tuned := 0
	h := &hooks.Tables{TrunkTune: hooks.TrunkTune{
		TuneToFreq: func(uint64) error { tuned++; return nil },
	}}
	s := newTestState(t, h, Policy{TuneEncCalls: false, Hangtime: 3 * time.Second})

	s.Patches.Upsert(69, true, time.Now())
	s.Patches.SetKey(69, 0)
	s.Patches.AddWGID(69, 0x2345)

	before := s.Snapshot().SMTuneCount
	s.GroupGrant(Event{Channel16: 0x1000, TGOrDst: 0x2345, SvcBits: 0x40}, time.Now())
	after := s.Snapshot().SMTuneCount

	assert.Equal(t, before+1, after)
	assert.Equal(t, 1, tuned)
}

func TestGroupGrantBlockedWithoutPatchClear(t *testing.T) {
	h := &hooks.Tables{}
	s := newTestState(t, h, Policy{TuneEncCalls: false})

	before := s.Snapshot().SMTuneCount
	s.GroupGrant(Event{Channel16: 0x1000, TGOrDst: 0x9999, SvcBits: 0x40}, time.Now())
	after := s.Snapshot().SMTuneCount

	assert.Equal(t, before, after, "encrypted grant without clear override must not tune")
}

// Scenario 7: mid-call ENC flush isolation.
func TestMidCallEncFlushIsolation(t *testing.T) {
	returnCalls := 0
	h := &hooks.Tables{TrunkTune: hooks.TrunkTune{
		ReturnToCC: func() error { returnCalls++; return nil },
	}}
	s := newTestState(t, h, Policy{Hangtime: 3 * time.Second})

	s.AudioAllowed[0] = true
	s.AudioAllowed[1] = true
	s.AudioRingCount[0] = 2
	s.AudioRingCount[1] = 3
	s.IsTuned = true
	s.VCFreq[0], s.VCFreq[1] = 851_000_000, 851_000_000
	s.LastVCSync = time.Now()

	s.MidCallEncTransition(1, time.Now())

	snap := s.Snapshot()
	assert.False(t, snap.AudioAllowed[1])
	assert.Equal(t, 0, snap.AudioRingCount[1])
	assert.Equal(t, 2, snap.AudioRingCount[0])
	assert.Equal(t, 0, returnCalls)

	// Now slot 0 is idle: transitioning slot 1 again should trigger a
	// release and call ReturnToCC exactly once.
	s.mu.Lock()
	s.AudioAllowed[0] = false
	s.LastVCSync = time.Now().Add(-10 * time.Second) // outside hangtime
	s.mu.Unlock()

	s.MidCallEncTransition(1, time.Now())
	assert.Equal(t, 1, returnCalls)
}

// Scenario 8: release gating.
func TestReleaseGatingAndForceRelease(t *testing.T) {
	returnCalls := 0
	h := &hooks.Tables{TrunkTune: hooks.TrunkTune{
		ReturnToCC: func() error { returnCalls++; return nil },
	}}
	s := newTestState(t, h, Policy{Hangtime: 3 * time.Second})
	s.LastVCSync = time.Now()

	before := s.Snapshot().SMReleaseCount
	s.Release(ReleaseEndOfTransmission, time.Now())
	after := s.Snapshot().SMReleaseCount

	require.Equal(t, before+1, after)
	assert.Equal(t, 0, returnCalls, "deferred release must not call return_to_cc")

	s.mu.Lock()
	s.ForceRelease = true
	s.Enc[0] = EncState{AlgID: 1}
	s.mu.Unlock()

	s.Release(ReleaseForced, time.Now())
	assert.Equal(t, 1, returnCalls)

	snap := s.Snapshot()
	assert.False(t, snap.AudioAllowed[0])
	assert.False(t, snap.AudioAllowed[1])
	assert.Equal(t, uint64(0), snap.VCFreq[0])
}

func TestReleaseCountIncrementsExactlyOnce(t *testing.T) {
	s := newTestState(t, &hooks.Tables{}, Policy{Hangtime: time.Second})
	for i := 0; i < 5; i++ {
		before := s.Snapshot().SMReleaseCount
		s.Release(ReleaseEndOfTransmission, time.Now())
		after := s.Snapshot().SMReleaseCount
		assert.Equal(t, before+1, after)
	}
}

func TestCcCandidatesInsertAndRotate(t *testing.T) {
	c := &CcCandidates{}
	now := time.Now()
	freqs := []uint64{1, 2, 3, 4}
	for _, f := range freqs {
		c.Add(f, now, true)
	}
	assert.EqualValues(t, 4, c.Added())

	seen := map[uint64]bool{}
	for i := 0; i < len(freqs); i++ {
		f, ok := c.Next(now)
		require.True(t, ok)
		assert.False(t, seen[f], "candidate returned twice before wrap")
		seen[f] = true
	}
	for _, f := range freqs {
		assert.True(t, seen[f])
	}
}

func TestCcCandidateCooldownMonotonic(t *testing.T) {
	c := &CcCandidates{}
	now := time.Now()
	c.Add(100, now, true)
	c.Cool(100, now.Add(10*time.Second))
	c.Cool(100, now.Add(2*time.Second)) // must not shorten cooldown

	_, ok := c.Next(now.Add(5 * time.Second))
	assert.False(t, ok, "entry should still be cooled at +5s")

	_, ok = c.Next(now.Add(11 * time.Second))
	assert.True(t, ok, "entry should be eligible past the original cooldown")
}

func TestPatchAddRemoveRoundTrip(t *testing.T) {
	pt := NewPatchTable()
	pt.Upsert(5, true, time.Now())
	pt.AddWGID(5, 0x1111)
	assert.True(t, pt.Member(5, 0x1111))

	pt.RemoveWGID(5, 0x1111)
	assert.False(t, pt.Member(5, 0x1111))

	pt.AddWGID(5, 0x2222)
	pt.SetKey(5, 0)
	assert.True(t, pt.TGKeyIsClear(0x2222))
}

func TestIsTunedImpliesNonZeroVCFreq(t *testing.T) {
	h := &hooks.Tables{TrunkTune: hooks.TrunkTune{TuneToFreq: func(uint64) error { return nil }}}
	s := newTestState(t, h, Policy{Hangtime: time.Second})
	s.GroupGrant(Event{Channel16: 0x1000, TGOrDst: 1}, time.Now())

	snap := s.Snapshot()
	if snap.IsTuned {
		assert.NotZero(t, snap.VCFreq[0])
		assert.NotZero(t, snap.VCFreq[1])
	}
}
