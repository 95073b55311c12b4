// Package hooks implements the hook registry described in spec.md §4.2:
// a tagged collection of optional function pointers per IO/UI domain,
// installed once by the engine after construction and read from
// multiple threads thereafter. Unset fields are always callable through
// the Tables wrapper methods and behave as documented no-ops, which is
// what lets the protocol/SM layers compile and link headlessly.
package hooks

import (
	"sync/atomic"
)

// Telemetry publishes engine/SM state to external observers and requests
// a UI redraw.
type Telemetry struct {
	Publish        func(tag string, fields map[string]any)
	RequestRedraw  func()
}

// UDPAudio blasts decoded digital or analog audio to a UDP sink.
type UDPAudio struct {
	BlastDigital func(pcm []int16)
	BlastAnalog  func(pcm []int16)
}

// M17UDP carries M17 reflector-style UDP bind/connect/receive/send hooks.
type M17UDP struct {
	Bind     func(addr string) error
	Connect  func(addr string) error
	Receive  func() ([]byte, error)
	Blast    func(frame []byte) error
}

// PCMNet is the TCP/UDP PCM network-input hook domain.
type PCMNet struct {
	Open     func(addr string) error
	Close    func() error
	Read     func(buf []int16) (int, error)
	Validate func(addr string) bool
}

// Rigctl queries the currently tuned frequency from an external rig
// control daemon.
type Rigctl struct {
	CurrentFrequency func() uint64
}

// RTLStream reads raw samples and instantaneous power from an RTL-SDR
// style streaming source.
type RTLStream struct {
	Read  func(buf []int16) (int, error)
	Power func() float64
}

// TrunkTune is the trunking SM's tuning hook domain: tune to a specific
// voice-channel frequency, tune to a control channel, or return to the
// current control channel.
type TrunkTune struct {
	TuneToFreq  func(freqHz uint64) error
	TuneToCC    func(freqHz uint64) error
	ReturnToCC  func() error
}

// P25Event is the optional P25 event-history and partial-audio flush
// hook domain.
type P25Event struct {
	LogEvent    func(kind string, fields map[string]any)
	FlushAudio  func(slot int)
}

// FrameSync bridges DSP frame-sync detection to SM side effects.
type FrameSync struct {
	Tick           func()
	Release        func(reason string)
	EndOfTransmission func()
}

// Tables is the full hook table. The zero value is valid: every field is
// nil and every accessor below degrades to its documented no-op.
type Tables struct {
	Telemetry Telemetry
	UDPAudio  UDPAudio
	M17UDP    M17UDP
	PCMNet    PCMNet
	Rigctl    Rigctl
	RTL       RTLStream
	TrunkTune TrunkTune
	P25Event  P25Event
	FrameSync FrameSync
}

// registry holds the single published table, installed once by the
// engine before any consumer thread starts. Publication is a single
// atomic store, which given the "install once, read many times" lifecycle
// in spec.md §4.2 is sufficient to make the read side safe without a
// lock.
var registry atomic.Pointer[Tables]

// Install publishes t as the process-wide hook table. Calling Install a
// second time is a serialized, rare administrative action (e.g. test
// setup); it is not meant to happen concurrently with readers tearing
// down.
func Install(t *Tables) {
	if t == nil {
		t = &Tables{}
	}
	registry.Store(t)
}

// Current returns the installed table, or an empty Tables if none has
// been installed yet.
func Current() *Tables {
	t := registry.Load()
	if t == nil {
		return &Tables{}
	}
	return t
}

// PublishTelemetry calls the telemetry publish hook if installed.
func (t *Tables) PublishTelemetry(tag string, fields map[string]any) {
	if t == nil || t.Telemetry.Publish == nil {
		return
	}
	t.Telemetry.Publish(tag, fields)
}

// RequestRedraw calls the UI redraw-request hook if installed.
func (t *Tables) RequestRedraw() {
	if t == nil || t.Telemetry.RequestRedraw == nil {
		return
	}
	t.Telemetry.RequestRedraw()
}

// BlastDigitalAudio sends digital PCM to the UDP audio hook, silently
// dropping it if unset.
func (t *Tables) BlastDigitalAudio(pcm []int16) {
	if t == nil || t.UDPAudio.BlastDigital == nil {
		return
	}
	t.UDPAudio.BlastDigital(pcm)
}

// BlastAnalogAudio sends analog PCM to the UDP audio hook, silently
// dropping it if unset.
func (t *Tables) BlastAnalogAudio(pcm []int16) {
	if t == nil || t.UDPAudio.BlastAnalog == nil {
		return
	}
	t.UDPAudio.BlastAnalog(pcm)
}

// CurrentFrequency returns the rigctl-reported frequency, or 0 if no
// rigctl hook is installed.
func (t *Tables) CurrentFrequency() uint64 {
	if t == nil || t.Rigctl.CurrentFrequency == nil {
		return 0
	}
	return t.Rigctl.CurrentFrequency()
}

// RTLPower returns the RTL power hook's reading, or 0 if unset.
func (t *Tables) RTLPower() float64 {
	if t == nil || t.RTL.Power == nil {
		return 0
	}
	return t.RTL.Power()
}

// TuneToFreq invokes the trunk-tuning hook, returning nil (a silent
// success) if no tuning backend is installed — the SM treats an
// unconfigured backend the same as a best-effort tune that already
// happened (e.g. a test harness or a headless dry run).
func (t *Tables) TuneToFreq(freqHz uint64) error {
	if t == nil || t.TrunkTune.TuneToFreq == nil {
		return nil
	}
	return t.TrunkTune.TuneToFreq(freqHz)
}

// TuneToCC invokes the control-channel tuning hook.
func (t *Tables) TuneToCC(freqHz uint64) error {
	if t == nil || t.TrunkTune.TuneToCC == nil {
		return nil
	}
	return t.TrunkTune.TuneToCC(freqHz)
}

// ReturnToCC invokes the return-to-control-channel hook.
func (t *Tables) ReturnToCC() error {
	if t == nil || t.TrunkTune.ReturnToCC == nil {
		return nil
	}
	return t.TrunkTune.ReturnToCC()
}

// LogP25Event calls the optional P25 event-history hook.
func (t *Tables) LogP25Event(kind string, fields map[string]any) {
	if t == nil || t.P25Event.LogEvent == nil {
		return
	}
	t.P25Event.LogEvent(kind, fields)
}

// FlushPartialAudio calls the optional partial-audio flush hook for the
// given slot.
func (t *Tables) FlushPartialAudio(slot int) {
	if t == nil || t.P25Event.FlushAudio == nil {
		return
	}
	t.P25Event.FlushAudio(slot)
}

// SMTick calls the frame-sync→SM tick side effect.
func (t *Tables) SMTick() {
	if t == nil || t.FrameSync.Tick == nil {
		return
	}
	t.FrameSync.Tick()
}

// SMRelease calls the frame-sync→SM release side effect.
func (t *Tables) SMRelease(reason string) {
	if t == nil || t.FrameSync.Release == nil {
		return
	}
	t.FrameSync.Release(reason)
}

// EndOfTransmission calls the frame-sync end-of-transmission side effect.
func (t *Tables) EndOfTransmission() {
	if t == nil || t.FrameSync.EndOfTransmission == nil {
		return
	}
	t.FrameSync.EndOfTransmission()
}
