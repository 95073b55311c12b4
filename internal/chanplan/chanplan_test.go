package chanplan

import "testing"

// Scenario 3: channel resolve FDMA.
func TestResolveFDMA(t *testing.T) {
	iden := &IdenTable{}
	iden.Set(1, IdenEntry{
		BaseFreqUnits: 851_000_000 / 5,
		Spacing125Hz:  100,
		ChannelType:   1,
		TDMAFlag:      false,
		Trust:         TrustAuthoritative,
	})
	r := NewResolver(iden)

	f, ok := r.Resolve(0x1000, false)
	if !ok || f != 851_000_000 {
		t.Fatalf("resolve(0x1000) = %d, %v, want 851000000, true", f, ok)
	}

	f, ok = r.Resolve(0x100A, false)
	if !ok || f != 851_125_000 {
		t.Fatalf("resolve(0x100A) = %d, %v, want 851125000, true", f, ok)
	}
}

// Scenario 4: channel resolve TDMA denominator fallback.
func TestResolveTDMADenomFallback(t *testing.T) {
	iden := &IdenTable{}
	iden.Set(1, IdenEntry{
		BaseFreqUnits: 851_000_000 / 5,
		Spacing125Hz:  100,
		ChannelType:   1,
		TDMAFlag:      false, // unknown per-IDEN TDMA flag
		Trust:         TrustAuthoritative,
	})
	r := NewResolver(iden)

	f, ok := r.Resolve(0x1007, true) // system-level TDMA, step=7
	if !ok {
		t.Fatal("expected resolution")
	}
	want := uint64(851_000_000 + 3*100*125)
	if f != want {
		t.Fatalf("resolve(0x1007, tdmaSystem) = %d, want %d", f, want)
	}
}

// Scenario 5: learned map survives IDEN clear.
func TestLearnedMapSurvivesIdenClear(t *testing.T) {
	iden := &IdenTable{}
	iden.Set(1, IdenEntry{
		BaseFreqUnits: 851_000_000 / 5,
		Spacing125Hz:  100,
		ChannelType:   1,
		TDMAFlag:      false,
		Trust:         TrustAuthoritative,
	})
	r := NewResolver(iden)

	f, ok := r.Resolve(0x100A, false)
	if !ok || f != 851_125_000 {
		t.Fatalf("initial resolve failed: %d %v", f, ok)
	}

	iden.Clear(1)

	f, ok = r.Resolve(0x100A, false)
	if !ok || f != 851_125_000 {
		t.Fatalf("post-clear resolve = %d, %v, want 851125000, true", f, ok)
	}
}

func TestUnresolvedChannelCountsMissing(t *testing.T) {
	iden := &IdenTable{}
	r := NewResolver(iden)

	_, ok := r.Resolve(0x2000, false)
	if ok {
		t.Fatal("expected unresolved channel")
	}
	if r.MissingCount(0x2000) != 1 {
		t.Fatalf("missing count = %d, want 1", r.MissingCount(0x2000))
	}
}
