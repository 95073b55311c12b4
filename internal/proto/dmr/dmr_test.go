package dmr

import (
	"testing"

	"github.com/arancormonk/dsd-neo-go/internal/chanplan"
	"github.com/arancormonk/dsd-neo-go/internal/trunk"
)

func newTestState(t *testing.T) *trunk.State {
	t.Helper()
	return trunk.NewState(chanplan.NewResolver(&chanplan.IdenTable{}), nil, trunk.Policy{})
}

func TestDetectSync(t *testing.T) {
	if got := DetectSync(voiceSync); got != SyncVoice {
		t.Errorf("voice sync: got %v, want SyncVoice", got)
	}
	if got := DetectSync(dataSync); got != SyncData {
		t.Errorf("data sync: got %v, want SyncData", got)
	}
	if got := DetectSync([]byte{1, 2, 3, 4, 5, 6}); got != SyncNone {
		t.Errorf("garbage: got %v, want SyncNone", got)
	}
	if got := DetectSync([]byte{1, 2}); got != SyncNone {
		t.Errorf("short buffer: got %v, want SyncNone", got)
	}
}

func TestParseRoundTrip(t *testing.T) {
	raw := make([]byte, FrameLength)
	raw[0] = 2
	raw[1], raw[2], raw[3] = 0x00, 0x01, 0x02 // source 0x000102
	raw[4], raw[5], raw[6] = 0x00, 0x0A, 0x64 // dest 0x000A64
	raw[7] = FLCOGroupCall
	raw[8] = DataTypeVoiceFrameA
	raw[9] = 3

	b, err := Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.SlotNumber != 2 {
		t.Errorf("slot = %d, want 2", b.SlotNumber)
	}
	if b.SourceID != 0x000102 {
		t.Errorf("source = %#x, want 0x102", b.SourceID)
	}
	if b.DestinationID != 0x000A64 {
		t.Errorf("dest = %#x, want 0xA64", b.DestinationID)
	}
	if !b.IsGroupCall() {
		t.Error("expected group call")
	}
	if !b.IsVoice() {
		t.Error("expected voice data type")
	}
}

func TestParseRejectsShortFrame(t *testing.T) {
	if _, err := Parse(make([]byte, 10)); err == nil {
		t.Fatal("expected error for short frame")
	}
}

func TestParseRejectsBadSlot(t *testing.T) {
	raw := make([]byte, FrameLength)
	raw[0] = 5
	if _, err := Parse(raw); err == nil {
		t.Fatal("expected error for invalid slot number")
	}
}

func TestEmbeddedLCReassemblerAssemblesInOrder(t *testing.T) {
	r := NewEmbeddedLCReassembler()
	fragments := [][]byte{
		{0x01, 0x02, 0x03, 0x04},
		{0x05, 0x06, 0x07, 0x08},
		{0x09, 0x0A, 0x0B, 0x0C},
		{0x0D, 0x0E, 0x0F, 0x10},
	}
	for i, f := range fragments {
		complete, err := r.AddFragment(i, f)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		wantComplete := i == len(fragments)-1
		if complete != wantComplete {
			t.Errorf("fragment %d: complete = %v, want %v", i, complete, wantComplete)
		}
	}

	assembled, err := r.Assemble()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x10}
	if len(assembled) != len(want) {
		t.Fatalf("len = %d, want %d", len(assembled), len(want))
	}
	for i := range want {
		if assembled[i] != want[i] {
			t.Errorf("byte %d = %#x, want %#x", i, assembled[i], want[i])
		}
	}
}

func TestEmbeddedLCReassemblerAssembleFailsIncomplete(t *testing.T) {
	r := NewEmbeddedLCReassembler()
	if _, err := r.AddFragment(1, []byte{0, 0, 0, 0}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Assemble(); err == nil {
		t.Fatal("expected error for incomplete reassembly")
	}
}

func TestEmbeddedLCReassemblerRejectsBadIndex(t *testing.T) {
	r := NewEmbeddedLCReassembler()
	if _, err := r.AddFragment(4, []byte{0, 0, 0, 0}); err == nil {
		t.Fatal("expected error for out-of-range fragment index")
	}
}

func TestEmbeddedLCReassemblerReset(t *testing.T) {
	r := NewEmbeddedLCReassembler()
	_, _ = r.AddFragment(0, []byte{1, 2, 3, 4})
	r.Reset()
	if r.Complete() {
		t.Error("expected incomplete after reset")
	}
}

func TestAddEmbeddedLCFragmentTracksPerSlotState(t *testing.T) {
	st := newTestState(t)

	complete, err := AddEmbeddedLCFragment(st, 1, 0, []byte{0x01, 0x02, 0x03, 0x04})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if complete {
		t.Fatal("expected incomplete after first fragment")
	}

	if _, ok := EmbeddedLCFor(st, 2); ok {
		t.Error("slot 2 should have no reassembler yet")
	}

	for i := 1; i < 4; i++ {
		complete, err = AddEmbeddedLCFragment(st, 1, i, []byte{byte(i), byte(i), byte(i), byte(i)})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if !complete {
		t.Fatal("expected complete after fourth fragment")
	}

	r, ok := EmbeddedLCFor(st, 1)
	if !ok {
		t.Fatal("expected reassembler for slot 1")
	}
	if !r.Complete() {
		t.Error("expected slot 1 reassembler to be complete")
	}

	st.FreeAllExt()
	if _, ok := EmbeddedLCFor(st, 1); ok {
		t.Error("expected slot state cleared after FreeAllExt")
	}
}
