package edacs

import "testing"

func TestDetectSync(t *testing.T) {
	if !DetectSync(syncWord) {
		t.Error("expected sync word to match")
	}
	if DetectSync([]byte{0, 0, 0, 0}) {
		t.Error("garbage should not match")
	}
}

func TestParseLCWVoiceGrant(t *testing.T) {
	v := uint32(LCWTypeVoiceChannel)<<30 | uint32(0x1234)<<14 | uint32(0x42)<<6
	raw := []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}

	l, err := ParseLCW(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.AFS != 0x1234 {
		t.Errorf("AFS = %#x, want 0x1234", l.AFS)
	}
	if l.Channel != 0x42 {
		t.Errorf("channel = %#x, want 0x42", l.Channel)
	}
	if !l.IsVoiceGrant() {
		t.Error("expected IsVoiceGrant true")
	}
}

func TestParseLCWRejectsShort(t *testing.T) {
	if _, err := ParseLCW([]byte{0, 0}); err == nil {
		t.Fatal("expected error for short lcw")
	}
}
