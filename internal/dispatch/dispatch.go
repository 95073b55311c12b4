// Package dispatch implements the protocol dispatcher from spec.md
// §4.7: an ordered DispatchTable mapping detected sync-type identifiers
// to per-protocol frame handlers, the only coupling between the
// frame-sync layer and the protocol modules.
package dispatch

// Options carries whatever shared context a handler needs (hook tables,
// trunking SM, resolver, ...). It is defined here as an empty marker
// interface so protocol packages can pass their own concrete options
// type without this package importing every protocol package (which
// would create the import cycle spec.md §4.7 rules out: "the only
// coupling between the sync layer and protocol modules").
type Options any

// State is the decode-time mutable state a handler threads through
// successive calls (symbol history, partial-PDU reassembly buffers,
// etc). Like Options, it is intentionally opaque to this package.
type State any

// Entry is one row of the DispatchTable (spec.md §4.7).
type Entry struct {
	Name    string
	Matches func(syncID uint64) bool
	Handle  func(opts Options, state State)
	OnReset func(opts Options, state State)
}

// Table is an ordered, immutable-after-init sequence of dispatch
// entries.
type Table struct {
	entries []Entry
}

// NewTable constructs a dispatch table from the given entries, in match
// priority order.
func NewTable(entries ...Entry) *Table {
	return &Table{entries: append([]Entry(nil), entries...)}
}

// Dispatch scans the table in order for the first entry whose Matches
// returns true and invokes its Handle. It reports whether a match was
// found.
func (t *Table) Dispatch(syncID uint64, opts Options, state State) bool {
	for _, e := range t.entries {
		if e.Matches(syncID) {
			e.Handle(opts, state)
			return true
		}
	}
	return false
}

// Reset calls OnReset on every entry that defines one, after
// protocol-level error recovery (spec.md §4.7: "on_reset is called
// after protocol-level error recovery").
func (t *Table) Reset(opts Options, state State) {
	for _, e := range t.entries {
		if e.OnReset != nil {
			e.OnReset(opts, state)
		}
	}
}

// Names returns the dispatch table's entry names in order, mainly for
// diagnostics and tests.
func (t *Table) Names() []string {
	out := make([]string, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Name
	}
	return out
}
