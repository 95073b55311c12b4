package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func mustWrite(t *testing.T, r *Ring, data []int16) {
	t.Helper()
	n, ok := r.Write(data, SignalAlways)
	require.True(t, ok)
	require.Equal(t, len(data), n)
}

func mustRead(t *testing.T, r *Ring, n int) []int16 {
	t.Helper()
	out := make([]int16, n)
	got, exit := r.ReadBlock(out)
	require.False(t, exit)
	return out[:got]
}

// Scenario 1 from spec.md §8: ring FIFO under wrap.
func TestRingFIFOUnderWrap(t *testing.T) {
	r := New(8)

	mustWrite(t, r, []int16{1, 2, 3, 4, 5, 6, 7})
	got := mustRead(t, r, 4)
	assert.Equal(t, []int16{1, 2, 3, 4}, got)

	mustWrite(t, r, []int16{8, 9, 10, 11})
	got = mustRead(t, r, 7)
	assert.Equal(t, []int16{5, 6, 7, 8, 9, 10, 11}, got)

	assert.Equal(t, 0, r.Used())
}

func TestRingInvariantUsedFreeCapacity(t *testing.T) {
	r := New(16)
	assert.Equal(t, r.Used()+r.Free(), r.Capacity())

	mustWrite(t, r, []int16{1, 2, 3})
	assert.Equal(t, r.Used()+r.Free(), r.Capacity())

	mustRead(t, r, 2)
	assert.Equal(t, r.Used()+r.Free(), r.Capacity())
}

// Property: any interleaving of reserve/commit/read preserves write
// order and the used+free+1 = len(buf) invariant (spec.md §8).
func TestRingPreservesOrderUnderRandomOps(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(2, 64).Draw(t, "capacity")
		r := New(capacity)

		var written, read []int16
		nextVal := int16(0)
		ops := rapid.IntRange(1, 200).Draw(t, "ops")

		for i := 0; i < ops; i++ {
			doWrite := rapid.Bool().Draw(t, "doWrite")
			if doWrite || len(written) == len(read) {
				n := rapid.IntRange(1, capacity).Draw(t, "writeN")
				data := make([]int16, 0, n)
				for j := 0; j < n; j++ {
					data = append(data, nextVal)
					nextVal++
				}
				// Non-blocking best-effort: only write what fits so the
				// test never blocks.
				if r.Free() < len(data) {
					data = data[:r.Free()]
				}
				if len(data) == 0 {
					continue
				}
				mustWriteT(t, r, data)
				written = append(written, data...)
			} else {
				avail := r.Used()
				if avail == 0 {
					continue
				}
				n := rapid.IntRange(1, avail).Draw(t, "readN")
				out := make([]int16, n)
				got, exit := r.ReadBlock(out)
				if exit {
					continue
				}
				read = append(read, out[:got]...)
			}
			if r.Used()+r.Free() != r.Capacity() {
				t.Fatalf("invariant broken: used=%d free=%d capacity=%d", r.Used(), r.Free(), r.Capacity())
			}
		}

		if len(read) > len(written) {
			t.Fatalf("read more than written")
		}
		for i := range read {
			if read[i] != written[i] {
				t.Fatalf("out of order at %d: got %d want %d", i, read[i], written[i])
			}
		}
	})
}

func mustWriteT(t *rapid.T, r *Ring, data []int16) {
	n, ok := r.Write(data, SignalNever)
	if !ok || n != len(data) {
		t.Fatalf("write failed: n=%d ok=%v", n, ok)
	}
}

func TestReadBlockReturnsExitOnShutdown(t *testing.T) {
	r := New(4)
	r.Shutdown()
	n, exit := r.ReadBlock(make([]int16, 4))
	assert.True(t, exit)
	assert.Equal(t, -1, n)
}
