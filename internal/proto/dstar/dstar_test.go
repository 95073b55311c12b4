package dstar

import "testing"

func TestDetectSync(t *testing.T) {
	if !DetectSync(syncPattern) {
		t.Error("expected sync pattern to match")
	}
	if DetectSync([]byte{0, 0, 0}) {
		t.Error("garbage should not match")
	}
}

func TestParseHeader(t *testing.T) {
	raw := make([]byte, HeaderLength-2)
	copy(raw[3:11], "RPT1    ")
	copy(raw[11:19], "RPT2    ")
	copy(raw[19:27], "CALLYOU ")
	copy(raw[27:35], "CALLME  ")
	copy(raw[35:39], "A   ")

	h, err := ParseHeader(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.RPT1 != "RPT1" || h.RPT2 != "RPT2" {
		t.Errorf("unexpected repeaters: %+v", h)
	}
	if h.YourCall != "CALLYOU" || h.MyCall != "CALLME" {
		t.Errorf("unexpected callsigns: %+v", h)
	}
	if h.Suffix != "A" {
		t.Errorf("suffix = %q, want A", h.Suffix)
	}
}

func TestParseHeaderRejectsShort(t *testing.T) {
	if _, err := ParseHeader(make([]byte, 5)); err == nil {
		t.Fatal("expected error for short header")
	}
}
