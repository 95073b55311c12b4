// Package runtime carries the engine's process-wide shutdown signal
// and control-pump hook (spec.md §4.8), and the ordered teardown
// sequence the main loop runs when a shutdown is requested.
package runtime

import (
	"log"
	"sync"
	"sync/atomic"
)

// exitflag is the process-wide graceful-shutdown signal every blocking
// primitive observes.
var exitflag atomic.Bool

// RequestExit sets the shutdown flag. Safe to call from any thread,
// including a signal handler goroutine.
func RequestExit() { exitflag.Store(true) }

// ExitRequested reports whether shutdown has been requested.
func ExitRequested() bool { return exitflag.Load() }

// ResetForTest clears the exit flag; only meaningful in tests that
// construct multiple runtimes in the same process.
func ResetForTest() { exitflag.Store(false) }

// ControlPump is invoked by long-running decoders to drain UI commands
// between frames. The default is a no-op (spec.md §4.8).
type ControlPump func()

var controlPump atomic.Pointer[ControlPump]

// InstallControlPump registers the control pump callback. Install
// happens once before consumer threads start, same discipline as the
// hook table.
func InstallControlPump(fn ControlPump) {
	controlPump.Store(&fn)
}

// PumpControl invokes the installed control pump, or does nothing if
// none is installed.
func PumpControl() {
	p := controlPump.Load()
	if p == nil || *p == nil {
		return
	}
	(*p)()
}

// Cleanup is one named per-domain teardown step.
type Cleanup struct {
	Name string
	Run  func()
}

// Shutdown runs the ordered shutdown sequence from spec.md §4.8: it
// sets the exitflag, signals the given ring wakeups, waits on wg until
// every tracked thread has finished (the WaitGroup imposes no join
// order), then runs cleanups in the order given, then runs freeExt.
func Shutdown(signalRings []func(), wg *sync.WaitGroup, cleanups []Cleanup, freeExt func()) {
	RequestExit()
	for _, signal := range signalRings {
		signal()
	}
	if wg != nil {
		wg.Wait()
	}
	for _, c := range cleanups {
		log.Printf("runtime: cleanup %q", c.Name)
		c.Run()
	}
	if freeExt != nil {
		freeExt()
	}
}
