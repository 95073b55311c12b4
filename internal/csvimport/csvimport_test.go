package csvimport

import (
	"strings"
	"testing"
)

func TestImportGroupPolicy(t *testing.T) {
	rows, err := ImportGroupPolicy(strings.NewReader("1,A\n2,b\n3,DE\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[1].Mode != GroupModeBlock {
		t.Errorf("expected mode normalized to upper-case, got %q", rows[1].Mode)
	}
}

func TestImportGroupPolicyRejectsUnknownMode(t *testing.T) {
	if _, err := ImportGroupPolicy(strings.NewReader("1,ZZZ\n")); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestImportChannelMap(t *testing.T) {
	rows, err := ImportChannelMap(strings.NewReader("1,851000000\n2,851012500\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 || rows[1].FreqHz != 851012500 {
		t.Errorf("unexpected rows: %+v", rows)
	}
}

func TestImportKeyTableDecimalAndHex(t *testing.T) {
	rows, err := ImportKeyTable(strings.NewReader("1,255\n2,0xFF\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows[0].Key != 255 || rows[1].Key != 255 {
		t.Errorf("expected both keys to decode to 255, got %+v", rows)
	}
}

func TestImportFailureReturnsNilNotPartial(t *testing.T) {
	rows, err := ImportKeyTable(strings.NewReader("1,255\n2,not-a-key\n"))
	if err == nil {
		t.Fatal("expected error")
	}
	if rows != nil {
		t.Error("expected nil rows on failure, not a partial import")
	}
}

func TestImportNXDNVertexKeys(t *testing.T) {
	rows, err := ImportNXDNVertexKeys(strings.NewReader("10,0x1A\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].Key != 0x1A {
		t.Errorf("unexpected rows: %+v", rows)
	}
}
