package runtime

import (
	"sync"
	"testing"
)

func TestRequestExitAndExitRequested(t *testing.T) {
	ResetForTest()
	defer ResetForTest()

	if ExitRequested() {
		t.Fatal("expected exit not requested initially")
	}
	RequestExit()
	if !ExitRequested() {
		t.Fatal("expected exit requested after RequestExit")
	}
}

func TestControlPumpDefaultNoOp(t *testing.T) {
	PumpControl() // must not panic with nothing installed
}

func TestControlPumpInvoked(t *testing.T) {
	var calls int
	InstallControlPump(func() { calls++ })
	PumpControl()
	PumpControl()
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestShutdownRunsSignalsWaitAndCleanupsInOrder(t *testing.T) {
	ResetForTest()
	defer ResetForTest()

	var signaled bool
	var wg sync.WaitGroup
	wg.Add(1)
	go func() { wg.Done() }()

	var order []string
	cleanups := []Cleanup{
		{Name: "a", Run: func() { order = append(order, "a") }},
		{Name: "b", Run: func() { order = append(order, "b") }},
	}
	var freed bool

	Shutdown([]func(){func() { signaled = true }}, &wg, cleanups, func() { freed = true })

	if !ExitRequested() {
		t.Error("expected exitflag set")
	}
	if !signaled {
		t.Error("expected ring signal called")
	}
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("cleanups ran out of order: %v", order)
	}
	if !freed {
		t.Error("expected freeExt called")
	}
}
