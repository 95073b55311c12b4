package ioring

import (
	"testing"

	"github.com/arancormonk/dsd-neo-go/internal/ring"
)

func TestPayloadToIQ(t *testing.T) {
	payload := []byte{0x01, 0x00, 0xff, 0xff, 0x34, 0x12}
	samples := payloadToIQ(payload)
	want := []int16{1, -1, 0x1234}
	if len(samples) != len(want) {
		t.Fatalf("len = %d, want %d", len(samples), len(want))
	}
	for i := range want {
		if samples[i] != want[i] {
			t.Errorf("sample[%d] = %d, want %d", i, samples[i], want[i])
		}
	}
}

func TestPayloadToIQOddLengthTruncates(t *testing.T) {
	samples := payloadToIQ([]byte{0x01, 0x00, 0x02})
	if len(samples) != 1 {
		t.Fatalf("len = %d, want 1", len(samples))
	}
}

func TestStreamForAssignsStableIDPerSSRC(t *testing.T) {
	r := NewReceiver(nil, ring.NewIqRing(16))

	first := r.streamFor(42)
	second := r.streamFor(42)
	other := r.streamFor(99)

	if first.ID != second.ID {
		t.Errorf("same SSRC got different stream IDs: %q vs %q", first.ID, second.ID)
	}
	if first.ID == other.ID {
		t.Errorf("different SSRCs got the same stream ID: %q", first.ID)
	}

	streams := r.Streams()
	if len(streams) != 2 {
		t.Errorf("Streams() len = %d, want 2", len(streams))
	}
}
