// Package ring implements the lock-friendly single-producer/single-consumer
// sample rings that carry interleaved IQ samples into the demodulation
// stage and PCM16 samples out to the audio sink.
//
// A Ring is SPSC: exactly one goroutine may call the write-side methods
// (Reserve/Commit/Write) and exactly one goroutine may call the read-side
// methods (ReadBlock/ReadOne). Head and tail are tracked as atomic,
// ever-increasing counters (never wrapped at store time) so that
// head-tail is always the true count of samples queued regardless of
// len(buf); only indexing into the backing array wraps via %len(buf).
package ring

import (
	"sync"
	"sync/atomic"
)

// WriteSignal selects when Write wakes a blocked reader.
type WriteSignal int

const (
	// SignalAlways wakes the reader after every Write call.
	SignalAlways WriteSignal = iota
	// SignalNever never wakes the reader (caller signals separately).
	SignalNever
	// SignalOnEmptyTransition only wakes the reader when the ring went
	// from empty to non-empty, cutting wakeup storms under steady flow.
	SignalOnEmptyTransition
)

// exitSentinel is the concrete type behind ErrExit.
type exitSentinel struct{}

func (exitSentinel) Error() string { return "ring: shutdown" }

// ErrExit is the sentinel error for a shutdown-terminated blocking call.
// The Ring's own blocking methods do not return it; they report
// shutdown through their ok/exit results.
var ErrExit = error(exitSentinel{})

// Ring is a bounded SPSC sample queue. The zero value is not usable; use
// New.
type Ring struct {
	buf      []int16
	capacity int // number of usable slots = len(buf) - 1

	head atomic.Uint64 // next write position (producer-owned)
	tail atomic.Uint64 // next read position (consumer-owned)

	mu    sync.Mutex // guards the two condition variables only
	ready *sync.Cond // signaled when data becomes available
	space *sync.Cond // signaled when space becomes available

	shutdown atomic.Bool

	producerDrops atomic.Uint64
	readWaits     atomic.Uint64
	writeTimeouts atomic.Uint64
}

// New allocates a ring able to hold capacity usable samples (one extra
// sentinel slot is allocated internally). capacity must be > 0.
func New(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 1
	}
	r := &Ring{
		buf:      make([]int16, capacity+1),
		capacity: capacity,
	}
	r.ready = sync.NewCond(&r.mu)
	r.space = sync.NewCond(&r.mu)
	return r
}

// Capacity returns the number of usable slots.
func (r *Ring) Capacity() int { return r.capacity }

func (r *Ring) len() int {
	h := r.head.Load()
	t := r.tail.Load()
	return int(h - t)
}

// Used returns the number of samples currently queued. O(1), non-blocking.
func (r *Ring) Used() int { return r.len() }

// Free returns the number of samples that can be written without
// blocking. O(1), non-blocking.
func (r *Ring) Free() int { return r.capacity - r.len() }

// IsEmpty reports whether the ring currently holds no samples.
func (r *Ring) IsEmpty() bool { return r.head.Load() == r.tail.Load() }

// Clear resets the ring to empty. Safe only once a higher-level stop has
// quiesced both the producer and the consumer.
func (r *Ring) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tail.Store(r.head.Load())
	r.space.Broadcast()
}

// Shutdown sets the global exit condition for this ring and wakes any
// blocked reader/writer so they can observe it.
func (r *Ring) Shutdown() {
	r.shutdown.Store(true)
	r.mu.Lock()
	r.ready.Broadcast()
	r.space.Broadcast()
	r.mu.Unlock()
}

// ProducerDrops returns the count of samples dropped by non-blocking
// write variants due to lack of space.
func (r *Ring) ProducerDrops() uint64 { return r.producerDrops.Load() }

// ReadWaits returns the number of times a reader blocked waiting for
// data.
func (r *Ring) ReadWaits() uint64 { return r.readWaits.Load() }

// WriteTimeouts returns the number of times a writer's wait for space
// timed out without the shutdown flag being set.
func (r *Ring) WriteTimeouts() uint64 { return r.writeTimeouts.Load() }

// region describes one contiguous writable slice returned by Reserve.
type region struct {
	start int
	n     int
}

// Reserve blocks until at least min(minNeeded, capacity) samples of free
// space exist (or shutdown is observed), then returns up to two
// contiguous index regions spanning the wrap point. granted is the total
// number of slots reserved across both regions; ok is false only if
// shutdown was observed before any space became available.
func (r *Ring) Reserve(minNeeded int) (p1 []int16, p2 []int16, granted int, ok bool) {
	if minNeeded > r.capacity {
		minNeeded = r.capacity
	}

	r.mu.Lock()
	for r.Free() < minNeeded {
		if r.shutdown.Load() {
			r.mu.Unlock()
			return nil, nil, 0, false
		}
		r.space.Wait()
	}
	r.mu.Unlock()

	free := r.Free()
	if free <= 0 {
		return nil, nil, 0, true
	}

	head := int(r.head.Load() % uint64(len(r.buf)))
	n := len(r.buf)

	firstRun := n - head
	if firstRun > free {
		firstRun = free
	}
	p1 = r.buf[head : head+firstRun]
	remaining := free - firstRun
	if remaining > 0 {
		p2 = r.buf[0:remaining]
	}
	return p1, p2, free, true
}

// Commit publishes produced samples (produced <= the granted count from
// the matching Reserve) by advancing head. Only after Commit are samples
// visible to the consumer.
func (r *Ring) Commit(produced int) {
	if produced <= 0 {
		return
	}
	wasEmpty := r.IsEmpty()
	r.head.Store(r.head.Load() + uint64(produced))

	r.mu.Lock()
	if wasEmpty {
		r.ready.Broadcast()
	}
	r.mu.Unlock()
}

// Write copies data into the ring via Reserve, publishing each chunk by
// advancing head and then waking the reader as sig selects, looping as
// needed when data wraps past a single Reserve call's regions. It blocks
// until all of data has been written or shutdown is observed.
func (r *Ring) Write(data []int16, sig WriteSignal) (written int, ok bool) {
	for len(data) > 0 {
		p1, p2, granted, okRes := r.Reserve(1)
		if !okRes {
			return written, false
		}
		wasEmpty := r.IsEmpty()

		produced := 0
		n := copy(p1, data)
		produced += n
		data = data[n:]
		if len(data) > 0 && p2 != nil {
			n2 := copy(p2, data)
			produced += n2
			data = data[n2:]
		}
		_ = granted
		r.head.Store(r.head.Load() + uint64(produced))
		written += produced

		switch sig {
		case SignalAlways:
			r.mu.Lock()
			r.ready.Broadcast()
			r.mu.Unlock()
		case SignalOnEmptyTransition:
			if wasEmpty {
				r.mu.Lock()
				r.ready.Broadcast()
				r.mu.Unlock()
			}
		case SignalNever:
		}
	}
	return written, true
}

// ReadBlock blocks until at least one sample is available or shutdown is
// observed with no data remaining. It copies up to len(out) samples and
// returns the count read. A negative return indicates the shutdown
// sentinel was reached with nothing left to read.
func (r *Ring) ReadBlock(out []int16) (n int, exit bool) {
	r.mu.Lock()
	for r.IsEmpty() {
		if r.shutdown.Load() {
			r.mu.Unlock()
			return -1, true
		}
		r.readWaits.Add(1)
		r.ready.Wait()
	}
	r.mu.Unlock()

	tail := int(r.tail.Load() % uint64(len(r.buf)))
	avail := r.Used()
	want := len(out)
	if want > avail {
		want = avail
	}

	read := 0
	bufLen := len(r.buf)
	for read < want {
		out[read] = r.buf[tail]
		tail = (tail + 1) % bufLen
		read++
	}

	wasFull := r.Free() == 0
	r.tail.Store(r.tail.Load() + uint64(read))

	if wasFull {
		r.mu.Lock()
		r.space.Broadcast()
		r.mu.Unlock()
	}
	return read, false
}

// ReadOne is a convenience wrapper for a single-sample blocking read.
func (r *Ring) ReadOne() (sample int16, exit bool) {
	var buf [1]int16
	n, exit := r.ReadBlock(buf[:])
	if exit || n <= 0 {
		return 0, true
	}
	return buf[0], false
}
