package freqstr

import (
	"testing"

	"pgregory.net/rapid"
)

func TestParseSuffixes(t *testing.T) {
	cases := map[string]uint64{
		"851.0125M": 851012500,
		"100k":      100000,
		"2.5G":      2500000000,
		"12345":     12345,
		"":          0,
		"garbage":   0,
		"-5":        0,
	}
	for in, want := range cases {
		if got := Parse(in); got != want {
			t.Errorf("Parse(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestParseOverflowClamps(t *testing.T) {
	got := Parse("100G")
	if got != MaxHz {
		t.Errorf("Parse(100G) = %d, want clamp %d", got, MaxHz)
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		hz := rapid.Uint64Range(0, MaxHz).Draw(rt, "hz")
		got := Parse(Format(hz))
		if got != hz {
			rt.Fatalf("round trip mismatch: Parse(Format(%d)) = %d", hz, got)
		}
	})
}
