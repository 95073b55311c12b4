// Package logbuf keeps an in-memory rolling window of P25 event
// history for the hooks.P25Event optional-event-log hook domain, the
// way the corpus's own HTTP access-log ring buffer works.
package logbuf

import (
	"sync"
	"time"
)

// Entry is one P25 event-history record.
type Entry struct {
	Timestamp time.Time
	Kind      string
	Detail    string
}

// Buffer is a fixed-capacity rolling window of Entry records.
type Buffer struct {
	mu      sync.RWMutex
	entries []Entry
	maxSize int
}

// New creates a Buffer holding at most maxSize entries.
func New(maxSize int) *Buffer {
	return &Buffer{
		entries: make([]Entry, 0, maxSize),
		maxSize: maxSize,
	}
}

// Add appends an entry, dropping the oldest once the buffer is full.
func (b *Buffer) Add(e Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append(b.entries, e)
	if len(b.entries) > b.maxSize {
		b.entries = b.entries[len(b.entries)-b.maxSize:]
	}
}

// All returns a copy of every entry currently held.
func (b *Buffer) All() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Recent returns the n most recent entries (or fewer, if the buffer
// holds less than n).
func (b *Buffer) Recent(n int) []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n > len(b.entries) {
		n = len(b.entries)
	}
	out := make([]Entry, n)
	copy(out, b.entries[len(b.entries)-n:])
	return out
}

// Len reports how many entries the buffer currently holds.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}
