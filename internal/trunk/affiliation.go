package trunk

import (
	"sync"
	"time"
)

// AffiliationTable tracks {rid -> last_seen} and group-affiliation links
// {rid -> tg, last_seen}, aging entries out on a periodic tick (spec.md
// §3).
type AffiliationTable struct {
	mu       sync.Mutex
	rids     map[uint32]time.Time
	groupAff map[uint32]groupAffEntry
}

type groupAffEntry struct {
	tg       uint32
	lastSeen time.Time
}

// NewAffiliationTable constructs an empty affiliation table.
func NewAffiliationTable() *AffiliationTable {
	return &AffiliationTable{
		rids:     make(map[uint32]time.Time),
		groupAff: make(map[uint32]groupAffEntry),
	}
}

// SeenRID records that rid was observed at time t.
func (a *AffiliationTable) SeenRID(rid uint32, t time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rids[rid] = t
}

// Affiliate records that rid is currently affiliated with tg as of t.
func (a *AffiliationTable) Affiliate(rid, tg uint32, t time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.groupAff[rid] = groupAffEntry{tg: tg, lastSeen: t}
}

// GroupOf returns the talkgroup rid is currently affiliated with, if
// any.
func (a *AffiliationTable) GroupOf(rid uint32) (uint32, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.groupAff[rid]
	return e.tg, ok
}

// AgeOut drops RID and group-affiliation entries last seen before the
// given cutoff, implementing spec.md §4.6 Tick's "affiliation aging,
// group-affiliation aging" cleanups.
func (a *AffiliationTable) AgeOut(cutoff time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for rid, seen := range a.rids {
		if seen.Before(cutoff) {
			delete(a.rids, rid)
		}
	}
	for rid, e := range a.groupAff {
		if e.lastSeen.Before(cutoff) {
			delete(a.groupAff, rid)
		}
	}
}

// RIDCount returns the number of tracked RIDs, for metrics/tests.
func (a *AffiliationTable) RIDCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.rids)
}
