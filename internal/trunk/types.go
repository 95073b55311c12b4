// Package trunk implements the P25 trunking state machine from
// spec.md §4.6: voice-channel grant acquisition, control-channel
// return, hangtime/force-release semantics, neighbor/CC candidate
// tracking with cooldown, patch/regroup (SGID) membership, affiliation
// tables, encryption lockout, and a watchdog tick thread.
package trunk

import (
	"sync"
	"time"

	"github.com/arancormonk/dsd-neo-go/internal/chanplan"
	"github.com/arancormonk/dsd-neo-go/internal/hooks"
)

// SMState is the trunking state machine's coarse state (spec.md §4.6).
type SMState int

const (
	OnCC SMState = iota
	Tuning
	OnVC
	HangOnVC
)

func (s SMState) String() string {
	switch s {
	case OnCC:
		return "OnCC"
	case Tuning:
		return "Tuning"
	case OnVC:
		return "OnVC"
	case HangOnVC:
		return "HangOnVC"
	default:
		return "Unknown"
	}
}

// EncState carries a slot's encryption metadata.
type EncState struct {
	AlgID byte
	KeyID uint16
	MI    uint64
}

// CcCandidate is one control-channel rotation candidate (spec.md §3).
type CcCandidate struct {
	FreqHz         uint64
	CoolUntilMono  time.Time
}

// CcCandidates tracks up to 16 control-channel candidates with cooldown
// and rotation (spec.md §3).
type CcCandidates struct {
	mu      sync.Mutex
	entries []CcCandidate
	idx     int
	added   uint64
	used    uint64
}

const maxCcCandidates = 16

// Policy carries the trunking-tune policy knobs from spec.md §6.
type Policy struct {
	TuneGroupCalls   bool
	TunePrivateCalls bool
	TuneEncCalls     bool
	UseAllowList     bool
	Hangtime         time.Duration
	BlockedTGs       map[uint32]bool
	AllowedTGs       map[uint32]bool
	TgHold           uint32 // 0 = none
}

// StateExtSlot identifies one opaque per-subsystem extension slot
// attached to State (spec.md §9 "state extension table").
type StateExtSlot int

// Fixed extension slot IDs for the per-protocol scratch state
// internal/dispatch handlers attach without widening State (spec.md
// §9, SPEC_FULL.md §4.6).
const (
	ExtSlotNXDNVertexKeys StateExtSlot = iota
	ExtSlotDMREmbeddedLC
)

// Cleanup is invoked when a state-extension slot is replaced or the
// table is freed at teardown.
type Cleanup func(v any)

type stateExt struct {
	value   any
	cleanup Cleanup
}

// State is the P25 trunking SM's mutable snapshot (spec.md §3
// "P25State snapshot"). All field mutation happens on the demod thread
// or the watchdog thread, guarded by mu; Tick is additionally
// single-flighted by the tick CAS lock (spec.md §5).
type State struct {
	mu sync.RWMutex

	CCFreq         uint64
	VCFreq         [2]uint64
	IsTuned        bool
	LastCCSync     time.Time
	LastVCSync     time.Time
	AudioAllowed   [2]bool
	AudioRingCount [2]int
	ForceRelease   bool
	SMReleaseCount uint64
	SMTuneCount    uint64
	Enc            [2]EncState
	SMState        SMState

	Resolver   *chanplan.Resolver
	Hooks      *hooks.Tables
	Policy     Policy
	TDMASystem bool

	CC         CcCandidates
	Patches    *PatchTable
	Affil      *AffiliationTable

	extMu sync.Mutex
	ext   map[StateExtSlot]stateExt

	tickLock  uint32 // CAS single-flight
	inTick    bool
}

// NewState constructs a trunking SM state with the given resolver, hook
// table, and policy.
func NewState(resolver *chanplan.Resolver, h *hooks.Tables, policy Policy) *State {
	if h == nil {
		h = &hooks.Tables{}
	}
	return &State{
		Resolver: resolver,
		Hooks:    h,
		Policy:   policy,
		Patches:  NewPatchTable(),
		Affil:    NewAffiliationTable(),
		ext:      make(map[StateExtSlot]stateExt),
		SMState:  OnCC,
	}
}

// SetExt installs a value in the given extension slot, invoking the
// previous occupant's cleanup (if any) first.
func (s *State) SetExt(slot StateExtSlot, value any, cleanup Cleanup) {
	s.extMu.Lock()
	defer s.extMu.Unlock()
	if prev, ok := s.ext[slot]; ok && prev.cleanup != nil {
		prev.cleanup(prev.value)
	}
	s.ext[slot] = stateExt{value: value, cleanup: cleanup}
}

// Ext returns the value installed in the given extension slot, if any.
func (s *State) Ext(slot StateExtSlot) (any, bool) {
	s.extMu.Lock()
	defer s.extMu.Unlock()
	e, ok := s.ext[slot]
	return e.value, ok
}

// FreeAllExt runs every installed extension's cleanup and empties the
// table (spec.md §4.8 teardown step).
func (s *State) FreeAllExt() {
	s.extMu.Lock()
	defer s.extMu.Unlock()
	for _, e := range s.ext {
		if e.cleanup != nil {
			e.cleanup(e.value)
		}
	}
	s.ext = make(map[StateExtSlot]stateExt)
}
