package p25p1

import "testing"

func TestParseNID(t *testing.T) {
	// NAC 0x293, DUID TSBK (0x7) packed at bits [52:64) and [48:52).
	codeword := uint64(0x293) << 52
	codeword |= uint64(DUIDTSBK) << 48

	nid := ParseNID(codeword)
	if nid.NAC != 0x293 {
		t.Errorf("NAC = %#x, want 0x293", nid.NAC)
	}
	if nid.DUID != DUIDTSBK {
		t.Errorf("DUID = %#x, want TSBK", nid.DUID)
	}
	if !nid.IsTrunkingSignal() {
		t.Error("expected IsTrunkingSignal true")
	}
}

func TestParseTSBKGroupGrant(t *testing.T) {
	raw := make([]byte, 12)
	raw[0] = 0x80 | byte(TSBKGroupVoiceGrant) // last block, opcode 0x00
	raw[1] = 0x01                             // MFID standard

	tsbk, err := ParseTSBK(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tsbk.LastBlock {
		t.Error("expected LastBlock true")
	}
	if !tsbk.IsGroupGrant() {
		t.Error("expected IsGroupGrant true")
	}
}

func TestParseTSBKRejectsShort(t *testing.T) {
	if _, err := ParseTSBK(make([]byte, 4)); err == nil {
		t.Fatal("expected error for short TSBK")
	}
}
