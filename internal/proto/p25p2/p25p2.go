// Package p25p2 implements the P25 Phase 2 dispatcher entry: MAC PDU
// framing over the mac2 opcode length table (spec.md §4.4). The TDMA
// burst demod and vocoder stay out of scope per spec.md §1.
package p25p2

import (
	"fmt"

	"github.com/arancormonk/dsd-neo-go/internal/mac2"
)

// MACPDU is one parsed MAC_SIGNAL or MAC_PTT/MAC_END PDU header.
type MACPDU struct {
	MFID    byte
	Opcode  byte
	Length  byte
	Payload []byte
}

const (
	OpcodeGroupVoiceGrant      = 0x40
	OpcodeUnitToUnitVoiceGrant = 0x48
	OpcodeEndOfStream          = 0x00
)

// ParseMACPDU reads the MFID+opcode header and slices the payload
// according to mac2.LenFor, rejecting truncated buffers.
func ParseMACPDU(raw []byte) (MACPDU, error) {
	if len(raw) < 2 {
		return MACPDU{}, fmt.Errorf("p25p2: mac pdu too short: got %d bytes, need >= 2", len(raw))
	}
	opcode := raw[0]
	mfid := raw[1]
	length := mac2.LenFor(mfid, opcode)

	p := MACPDU{MFID: mfid, Opcode: opcode, Length: length}
	if length == 0 {
		return p, nil
	}
	end := 2 + int(length)
	if end > len(raw) {
		return MACPDU{}, fmt.Errorf("p25p2: mac pdu truncated: opcode %#x needs %d bytes, got %d", opcode, end, len(raw))
	}
	p.Payload = append([]byte(nil), raw[2:end]...)
	return p, nil
}

// IsGroupVoiceGrant reports whether the PDU is a group voice channel
// grant (the trunk package's GroupGrant event source for Phase 2).
func (p MACPDU) IsGroupVoiceGrant() bool { return p.Opcode == OpcodeGroupVoiceGrant }

// IsIndividualGrant reports whether the PDU is a unit-to-unit voice
// channel grant.
func (p MACPDU) IsIndividualGrant() bool { return p.Opcode == OpcodeUnitToUnitVoiceGrant }
