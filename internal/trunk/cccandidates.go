package trunk

import "time"

// Add inserts freqHz as a CC rotation candidate, de-duplicating and
// respecting cooldown monotonicity (spec.md §3: re-adding before
// cool_until does not reset the cooldown). A duplicate is rejected and
// never counted; bumpAdded controls whether a new insertion increments
// the Added counter (spec.md §4.6 NeighborUpdate).
func (c *CcCandidates) Add(freqHz uint64, now time.Time, bumpAdded bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.entries {
		if c.entries[i].FreqHz == freqHz {
			// Already present: cooldown monotonicity means we never
			// shorten an existing cooldown.
			return
		}
	}

	if len(c.entries) >= maxCcCandidates {
		return
	}

	c.entries = append(c.entries, CcCandidate{FreqHz: freqHz})
	if bumpAdded {
		c.added++
	}
}

// Cool sets freqHz's cooldown to expire at until, but only extends it —
// an earlier cool_until is never shortened by a later call with a
// smaller deadline (cooldown monotonicity, spec.md §3/§4.6).
func (c *CcCandidates) Cool(freqHz uint64, until time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.entries {
		if c.entries[i].FreqHz == freqHz {
			if until.After(c.entries[i].CoolUntilMono) {
				c.entries[i].CoolUntilMono = until
			}
			return
		}
	}
}

// Next scans from the rotating index, skipping cooled entries, and
// returns the first eligible candidate, advancing the index and
// bumping Used (spec.md §4.6 NextCcCandidate). ok is false after a full
// wrap with no eligible candidate.
func (c *CcCandidates) Next(now time.Time) (freqHz uint64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	if n == 0 {
		return 0, false
	}

	for i := 0; i < n; i++ {
		pos := (c.idx + i) % n
		e := c.entries[pos]
		if e.CoolUntilMono.After(now) {
			continue
		}
		c.idx = (pos + 1) % n
		c.used++
		return e.FreqHz, true
	}

	return 0, false
}

// Added returns the count of candidate insertions that bumped the
// counter.
func (c *CcCandidates) Added() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.added
}

// Used returns the count of successful Next calls.
func (c *CcCandidates) Used() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.used
}

// Len returns the number of tracked candidates.
func (c *CcCandidates) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
