package nxdn

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
	if !DetectSync(syncFSW48) {
		t.Error("expected FDMA sync to match")
	}
	if !DetectSync(syncFSW96) {
		t.Error("expected TDMA sync to match")
	}
	if DetectSync([]byte{0, 0, 0, 0}) {
		t.Error("garbage should not match")
	}
}

func TestParseLICH(t *testing.T) {
	l := ParseLICH(0b11_10_01_1_0)
	if l.RFCT != 0b11 || l.FCT != 0b10 || l.Opt != 0b01 || l.Dir != 1 {
		t.Errorf("unexpected decode: %+v", l)
	}
}

func TestVertexKeyCachePutGet(t *testing.T) {
	c := NewVertexKeyCache()
	if _, ok := c.Get(10); ok {
		t.Fatal("expected miss on empty cache")
	}
	c.Put(10, 0x1A)
	key, ok := c.Get(10)
	if !ok || key != 0x1A {
		t.Errorf("got (%#x, %v), want (0x1a, true)", key, ok)
	}
	if c.Len() != 1 {
		t.Errorf("len = %d, want 1", c.Len())
	}
}

func TestCacheVertexKeyUsesStateExtSlot(t *testing.T) {
	st := newTestState(t)

	if _, ok := LookupVertexKey(st, 7); ok {
		t.Fatal("expected miss before any key is cached")
	}

	CacheVertexKey(st, 7, 0xBEEF)
	key, ok := LookupVertexKey(st, 7)
	if !ok || key != 0xBEEF {
		t.Errorf("got (%#x, %v), want (0xbeef, true)", key, ok)
	}

	v, ok := st.Ext(trunk.ExtSlotNXDNVertexKeys)
	if !ok {
		t.Fatal("expected cache installed in trunk.State's extension slot")
	}
	if _, ok := v.(*VertexKeyCache); !ok {
		t.Errorf("unexpected extension slot type %T", v)
	}

	st.FreeAllExt()
	if _, ok := LookupVertexKey(st, 7); ok {
		t.Error("expected cache cleared after FreeAllExt")
	}
}
