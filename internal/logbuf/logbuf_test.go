package logbuf

import (
	"testing"
	"time"
)

func TestAddAndAllOrder(t *testing.T) {
	b := New(3)
	for i := 0; i < 3; i++ {
		b.Add(Entry{Timestamp: time.Unix(int64(i), 0), Kind: "tick"})
	}
	all := b.All()
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
}

func TestRollingWindowDropsOldest(t *testing.T) {
	b := New(2)
	b.Add(Entry{Kind: "a"})
	b.Add(Entry{Kind: "b"})
	b.Add(Entry{Kind: "c"})

	all := b.All()
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}
	if all[0].Kind != "b" || all[1].Kind != "c" {
		t.Errorf("expected oldest dropped, got %+v", all)
	}
}

func TestRecentClampsToLen(t *testing.T) {
	b := New(5)
	b.Add(Entry{Kind: "a"})
	recent := b.Recent(10)
	if len(recent) != 1 {
		t.Errorf("len = %d, want 1", len(recent))
	}
}

func TestLen(t *testing.T) {
	b := New(5)
	if b.Len() != 0 {
		t.Errorf("len = %d, want 0", b.Len())
	}
	b.Add(Entry{})
	if b.Len() != 1 {
		t.Errorf("len = %d, want 1", b.Len())
	}
}
