// Package edacs implements the EDACS dispatcher entry: control-channel
// sync detection and the LCW (Logical Channel Word) fields the
// trunking state machine would act on. Analog voice and the
// Motorola-style FEC are out of scope per spec.md §1.
package edacs

import "fmt"

const WordLength = 4 // bytes per LCW

var syncWord = []byte{0x6B, 0x55, 0xA5, 0x96}

// DetectSync reports whether the leading bytes match the EDACS GETC/
// control-channel sync pattern.
func DetectSync(data []byte) bool {
	if len(data) < len(syncWord) {
		return false
	}
	for i, b := range syncWord {
		if data[i] != b {
			return false
		}
	}
	return true
}

// LCWType classifies a Logical Channel Word.
type LCWType byte

const (
	LCWTypeVoiceChannel LCWType = 0
	LCWTypeControl      LCWType = 1
	LCWTypeStatus       LCWType = 2
)

// LCW is a decoded Logical Channel Word.
type LCW struct {
	Type    LCWType
	AFS     uint16 // Agency/Fleet/Sub-fleet
	Channel byte
}

// ParseLCW decodes a 32-bit already-FEC-corrected LCW.
func ParseLCW(raw []byte) (LCW, error) {
	if len(raw) < WordLength {
		return LCW{}, fmt.Errorf("edacs: lcw too short: got %d bytes, need %d", len(raw), WordLength)
	}
	v := uint32(raw[0])<<24 | uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3])
	return LCW{
		Type:    LCWType((v >> 30) & 0x3),
		AFS:     uint16((v >> 14) & 0xFFFF),
		Channel: byte((v >> 6) & 0xFF),
	}, nil
}

// IsVoiceGrant reports whether this LCW assigns a voice channel (the
// trunk package's GroupGrant event source for EDACS).
func (l LCW) IsVoiceGrant() bool { return l.Type == LCWTypeVoiceChannel }
