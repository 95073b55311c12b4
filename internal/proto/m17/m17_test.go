package m17

import "testing"

func TestClassifySync(t *testing.T) {
	cases := []struct {
		sync uint64
		want FrameKind
	}{
		{SyncPreamble, FramePreamble},
		{SyncLSF, FrameLSF},
		{SyncBRT, FrameBRT},
		{SyncPacket, FramePacket},
		{0x1234, FrameStream},
	}
	for _, c := range cases {
		if got := ClassifySync(c.sync); got != c.want {
			t.Errorf("ClassifySync(%#x) = %v, want %v", c.sync, got, c.want)
		}
	}
}

func TestDecodeCallsignReservedGuards(t *testing.T) {
	if _, ok := DecodeCallsign(0); ok {
		t.Error("encoded 0 must be guarded")
	}
	if _, ok := DecodeCallsign(0xFFFFFFFFFFFF); ok {
		t.Error("all-ones encoding must be guarded")
	}
	if _, ok := DecodeCallsign(reservedThreshold); ok {
		t.Error("value >= reserved threshold must be guarded")
	}
}

func TestDecodeCallsignRoundTrip(t *testing.T) {
	// "W1ABC" encoded manually via the base-40 alphabet.
	var v uint64
	for _, ch := range "W1ABC" {
		idx := -1
		for i, a := range base40Alphabet {
			if a == ch {
				idx = i
				break
			}
		}
		if idx < 0 {
			t.Fatalf("char %q not in alphabet", ch)
		}
		v = v*40 + uint64(idx)
	}

	got, ok := DecodeCallsign(v)
	if !ok {
		t.Fatal("expected successful decode")
	}
	if got != "W1ABC" {
		t.Errorf("got %q, want W1ABC", got)
	}
}

func TestParseLSFShortBlockErrors(t *testing.T) {
	_, err := ParseLSF(make([]byte, 10))
	if err == nil {
		t.Fatal("expected error for short LSF block")
	}
}
