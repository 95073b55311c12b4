package p25p2

import "testing"

func TestParseMACPDUGroupGrant(t *testing.T) {
	raw := make([]byte, 2+9)
	raw[0] = OpcodeGroupVoiceGrant
	raw[1] = 0x01 // MFID standard -> length 9 per mac2 table

	p, err := ParseMACPDU(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Length != 9 {
		t.Errorf("length = %d, want 9", p.Length)
	}
	if !p.IsGroupVoiceGrant() {
		t.Error("expected IsGroupVoiceGrant true")
	}
	if len(p.Payload) != 9 {
		t.Errorf("payload len = %d, want 9", len(p.Payload))
	}
}

func TestParseMACPDUZeroLength(t *testing.T) {
	raw := []byte{0x00, 0x01} // opcode 0x00 MFID 0x01 -> length 0 per table
	p, err := ParseMACPDU(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Length != 0 {
		t.Errorf("length = %d, want 0", p.Length)
	}
	if p.Payload != nil {
		t.Error("expected nil payload for zero length")
	}
}

func TestParseMACPDUTruncated(t *testing.T) {
	raw := []byte{OpcodeGroupVoiceGrant, 0x01, 0x00} // needs 9 bytes, has 1
	if _, err := ParseMACPDU(raw); err == nil {
		t.Fatal("expected error for truncated pdu")
	}
}

func TestParseMACPDURejectsTooShort(t *testing.T) {
	if _, err := ParseMACPDU([]byte{0x01}); err == nil {
		t.Fatal("expected error for 1-byte input")
	}
}
