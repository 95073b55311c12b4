package trunkapi

import (
	"context"
	"testing"

	"github.com/arancormonk/dsd-neo-go/internal/chanplan"
	"github.com/arancormonk/dsd-neo-go/internal/hooks"
	"github.com/arancormonk/dsd-neo-go/internal/trunk"
)

func TestJSONCodecRoundTrip(t *testing.T) {
	c := jsonCodec{}
	in := SnapshotResponse{CCFreq: 851000000, SMState: "OnCC"}
	data, err := c.Marshal(in)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var out SnapshotResponse
	if err := c.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}
	if c.Name() != "json" {
		t.Errorf("name = %q, want json", c.Name())
	}
}

func newTestStateServer() *StateServer {
	var tuned uint64
	h := &hooks.Tables{TrunkTune: hooks.TrunkTune{
		TuneToFreq: func(freqHz uint64) error { tuned = freqHz; return nil },
	}}
	resolver := chanplan.NewResolver(&chanplan.IdenTable{})
	st := trunk.NewState(resolver, h, trunk.Policy{})
	_ = tuned
	return &StateServer{State: st}
}

func TestGetSnapshotReturnsCurrentState(t *testing.T) {
	srv := newTestStateServer()
	resp, err := srv.GetSnapshot(context.Background(), &SnapshotRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.SMState != "OnCC" {
		t.Errorf("sm state = %q, want OnCC", resp.SMState)
	}
}

func TestTuneOverrideRejectsZeroFreq(t *testing.T) {
	srv := newTestStateServer()
	resp, err := srv.TuneOverride(context.Background(), &TuneOverrideRequest{FreqHz: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Accepted {
		t.Error("expected rejection for zero freq")
	}
}

func TestTuneOverrideInvokesHook(t *testing.T) {
	var tuned uint64
	h := &hooks.Tables{TrunkTune: hooks.TrunkTune{
		TuneToFreq: func(freqHz uint64) error { tuned = freqHz; return nil },
	}}
	resolver := chanplan.NewResolver(&chanplan.IdenTable{})
	srv := &StateServer{State: trunk.NewState(resolver, h, trunk.Policy{})}

	resp, err := srv.TuneOverride(context.Background(), &TuneOverrideRequest{FreqHz: 851012500})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Accepted {
		t.Errorf("expected accepted, got %+v", resp)
	}
	if tuned != 851012500 {
		t.Errorf("tuned = %d, want 851012500", tuned)
	}
}

func TestServiceDescHandlersDecodeAndInvoke(t *testing.T) {
	srv := newTestStateServer()
	method := ServiceDesc.Methods[0] // GetSnapshot
	if method.MethodName != "GetSnapshot" {
		t.Fatalf("unexpected method order: %s", method.MethodName)
	}
	dec := func(v interface{}) error { return nil }
	resp, err := method.Handler(Server(srv), context.Background(), dec, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.(*SnapshotResponse).SMState != "OnCC" {
		t.Errorf("unexpected response: %+v", resp)
	}
}
