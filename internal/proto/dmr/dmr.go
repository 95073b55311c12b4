// Package dmr implements the DMR protocol dispatch entry point:
// sync-type detection and the voice/data burst header the trunking SM
// and FEC layer need. The AMBE vocoder and full PDU parsing are out of
// scope per spec.md §1.
package dmr

import (
	"fmt"

	"github.com/arancormonk/dsd-neo-go/internal/trunk"
)

const (
	FrameLength   = 33 // bytes
	PayloadLength = 23

	FLCOGroupCall   = 0x00
	FLCOUnitToUnit  = 0x03

	DataTypeVoiceHeader     = 0x01
	DataTypeVoiceFrameA     = 0x02
	DataTypeVoiceSync       = 0x04
	DataTypeVoiceTerminator = 0x09
	DataTypeDataHeader      = 0x0A
	DataTypeDataTerminator  = 0x0C
)

// SyncType identifies a detected DMR sync pattern.
type SyncType int

const (
	SyncNone SyncType = iota
	SyncVoice
	SyncData
)

var (
	voiceSync = []byte{0x75, 0x5F, 0xD7, 0xDF, 0x75, 0xF7}
	dataSync  = []byte{0xDF, 0xF5, 0x7D, 0x75, 0xDF, 0x5D}
)

// DetectSync classifies a 6-byte sync field.
func DetectSync(data []byte) SyncType {
	if len(data) < 6 {
		return SyncNone
	}
	if bytesEqual(data[0:6], voiceSync) {
		return SyncVoice
	}
	if bytesEqual(data[0:6], dataSync) {
		return SyncData
	}
	return SyncNone
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Burst is one parsed DMR burst header (slot/addressing/seq), enough
// for the dispatcher and SM to act on without needing the AMBE payload
// itself.
type Burst struct {
	SlotNumber    uint8
	SourceID      uint32
	DestinationID uint32
	FLCO          uint8
	DataType      uint8
	SeqNumber     uint8
	Payload       []byte
}

// Parse decodes a DMR burst header from raw bytes (spec.md §4.7's "DMR"
// dispatcher entry call contract).
func Parse(data []byte) (Burst, error) {
	if len(data) < FrameLength {
		return Burst{}, fmt.Errorf("dmr: frame too short: got %d bytes, need %d", len(data), FrameLength)
	}

	var b Burst
	b.SlotNumber = data[0]
	if b.SlotNumber != 1 && b.SlotNumber != 2 {
		return Burst{}, fmt.Errorf("dmr: invalid slot number %d", b.SlotNumber)
	}
	b.SourceID = uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3])
	b.DestinationID = uint32(data[4])<<16 | uint32(data[5])<<8 | uint32(data[6])
	b.FLCO = data[7]
	b.DataType = data[8]
	b.SeqNumber = data[9]
	b.Payload = append([]byte(nil), data[10:FrameLength]...)
	return b, nil
}

// IsVoice reports whether the burst carries voice frame data.
func (b Burst) IsVoice() bool {
	return b.DataType >= DataTypeVoiceHeader && b.DataType <= DataTypeVoiceTerminator
}

// IsGroupCall reports whether the burst is addressed to a talkgroup.
func (b Burst) IsGroupCall() bool { return b.FLCO == FLCOGroupCall }

// embeddedLCFragments is the number of 32-bit fragments (voice bursts
// B-E of a superframe) that make up one 128-bit embedded LC.
const embeddedLCFragments = 4

// EmbeddedLCReassembler accumulates the four embedded-LC fragments
// carried across a DMR voice superframe's B/C/D/E bursts into the full
// 128-bit link control word, the per-protocol scratch state
// trunk.State's extension slots exist to hold (spec.md §9).
type EmbeddedLCReassembler struct {
	fragments [embeddedLCFragments][]byte
	have      int
}

// NewEmbeddedLCReassembler creates an empty reassembler.
func NewEmbeddedLCReassembler() *EmbeddedLCReassembler {
	return &EmbeddedLCReassembler{}
}

// AddFragment installs the fragment for burst index idx (0=B, 1=C,
// 2=D, 3=E). It reports whether all four fragments are now present.
func (r *EmbeddedLCReassembler) AddFragment(idx int, data []byte) (bool, error) {
	if idx < 0 || idx >= embeddedLCFragments {
		return false, fmt.Errorf("dmr: embedded LC fragment index %d out of range", idx)
	}
	if r.fragments[idx] == nil {
		r.have++
	}
	r.fragments[idx] = append([]byte(nil), data...)
	return r.have == embeddedLCFragments, nil
}

// Complete reports whether every fragment has been received.
func (r *EmbeddedLCReassembler) Complete() bool { return r.have == embeddedLCFragments }

// Assemble concatenates the four fragments into the full embedded LC
// payload. It returns an error if any fragment is still missing.
func (r *EmbeddedLCReassembler) Assemble() ([]byte, error) {
	if !r.Complete() {
		return nil, fmt.Errorf("dmr: embedded LC incomplete: have %d/%d fragments", r.have, embeddedLCFragments)
	}
	out := make([]byte, 0, embeddedLCFragments*len(r.fragments[0]))
	for _, f := range r.fragments {
		out = append(out, f...)
	}
	return out, nil
}

// Reset clears all fragments, for reuse at the start of a new
// superframe.
func (r *EmbeddedLCReassembler) Reset() {
	for i := range r.fragments {
		r.fragments[i] = nil
	}
	r.have = 0
}

// reassemblersFor returns the per-slot EmbeddedLCReassembler map
// attached to st's ExtSlotDMREmbeddedLC slot, installing one on first
// use.
func reassemblersFor(st *trunk.State) map[uint8]*EmbeddedLCReassembler {
	if v, ok := st.Ext(trunk.ExtSlotDMREmbeddedLC); ok {
		return v.(map[uint8]*EmbeddedLCReassembler)
	}
	m := make(map[uint8]*EmbeddedLCReassembler)
	st.SetExt(trunk.ExtSlotDMREmbeddedLC, m, nil)
	return m
}

// AddEmbeddedLCFragment feeds one embedded-LC fragment (burst index
// 0=B..3=E) for the given TDMA slot into st's per-slot reassembler,
// creating it on first use. It reports whether the slot's embedded LC
// is now complete.
func AddEmbeddedLCFragment(st *trunk.State, slot uint8, burstIdx int, data []byte) (bool, error) {
	reassemblers := reassemblersFor(st)
	r, ok := reassemblers[slot]
	if !ok {
		r = NewEmbeddedLCReassembler()
		reassemblers[slot] = r
	}
	return r.AddFragment(burstIdx, data)
}

// EmbeddedLCFor returns the reassembler for the given TDMA slot, if
// one has been started.
func EmbeddedLCFor(st *trunk.State, slot uint8) (*EmbeddedLCReassembler, bool) {
	r, ok := reassemblersFor(st)[slot]
	return r, ok
}
