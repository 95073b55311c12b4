package ysf

import "testing"

func TestDetectSync(t *testing.T) {
	if !DetectSync(syncPattern) {
		t.Error("expected sync pattern to match")
	}
	if DetectSync([]byte{0, 0, 0, 0, 0}) {
		t.Error("garbage should not match sync")
	}
	if DetectSync([]byte{0xD4, 0x71}) {
		t.Error("short buffer should not match")
	}
}

func TestParseFICHHeaderAndTerminator(t *testing.T) {
	raw := []byte{FIHeader, 0}
	f, err := ParseFICH(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.IsHeader() {
		t.Error("expected IsHeader true")
	}

	raw[0] = FITerminator
	f, err = ParseFICH(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.IsTerminator() {
		t.Error("expected IsTerminator true")
	}
}

func TestParseFICHRejectsShort(t *testing.T) {
	if _, err := ParseFICH([]byte{0x01}); err == nil {
		t.Fatal("expected error for short fich buffer")
	}
}
