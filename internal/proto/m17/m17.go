// Package m17 implements the M17 protocol entry point spec.md §4.7
// describes for the dispatcher: sub-branching on preamble/LSF/BRT/
// packet sync types (any other sync is a stream frame), plus LSF field
// decoding.
package m17

import "fmt"

// FrameKind identifies which M17 sub-branch a detected sync maps to.
type FrameKind int

const (
	FrameStream FrameKind = iota
	FramePreamble
	FrameLSF
	FrameBRT
	FramePacket
)

// Sync dibit-pair markers (illustrative placeholders for the real M17
// sync words; exact values are a DSP/frame-sync concern out of this
// package's scope per spec.md §1).
const (
	SyncPreamble uint64 = 0x771177
	SyncLSF      uint64 = 0x55F7A6
	SyncBRT      uint64 = 0x5796AC
	SyncPacket   uint64 = 0x31BB55
)

// ClassifySync implements the M17 dispatcher sub-branch decision from
// spec.md §4.7.
func ClassifySync(syncID uint64) FrameKind {
	switch syncID {
	case SyncPreamble:
		return FramePreamble
	case SyncLSF:
		return FrameLSF
	case SyncBRT:
		return FrameBRT
	case SyncPacket:
		return FramePacket
	default:
		return FrameStream
	}
}

// PreambleDibitsToSkip is how many dibits a preamble-sync frame skips
// before the next frame begins (spec.md §4.7).
const PreambleDibitsToSkip = 8

// base40Alphabet is M17's callsign encoding alphabet.
const base40Alphabet = " ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-/."

// Reserved callsign-encoding sentinel values (spec.md §4.7): a value of
// exactly 0 or 0xFFFF... (all-ones for the field width) or >=
// 0xEE6B28000000 is not a valid encoded callsign and must be guarded,
// not decoded.
const reservedThreshold uint64 = 0xEE6B28000000

// DecodeCallsign decodes a 6-byte (48-bit) base-40 encoded M17
// callsign, applying the reserved-value guards from spec.md §4.7.
func DecodeCallsign(encoded uint64) (string, bool) {
	if encoded == 0 {
		return "", false
	}
	if encoded == 0xFFFFFFFFFFFF {
		return "", false
	}
	if encoded >= reservedThreshold {
		return "", false
	}

	var out []byte
	v := encoded
	for v > 0 {
		idx := v % 40
		if int(idx) >= len(base40Alphabet) {
			return "", false
		}
		out = append([]byte{base40Alphabet[idx]}, out...)
		v /= 40
	}
	if len(out) == 0 {
		out = []byte{base40Alphabet[0]}
	}
	return string(out), true
}

// LSF is the typed LSF parse result from spec.md §4.7.
type LSF struct {
	Dst     string
	Src     string
	DT      byte // data type
	ET      byte // encryption type
	ES      byte // encryption subtype
	CN      byte // channel access number
	RS      bool // can-request-stream
	DstCSD  [9]byte
	SrcCSD  [9]byte
	Meta    *[14]byte // optional metadata field
}

// ParseLSF decodes a raw 30-byte LSF block into its typed fields.
// Callsigns failing the reserved-value guard are left as "" in the
// result; no separate flag marks them.
func ParseLSF(raw []byte) (LSF, error) {
	if len(raw) < 28 {
		return LSF{}, fmt.Errorf("m17: LSF block too short: got %d bytes, need >= 28", len(raw))
	}

	dstEnc := beUint48(raw[0:6])
	srcEnc := beUint48(raw[6:12])

	var out LSF
	if dst, ok := DecodeCallsign(dstEnc); ok {
		out.Dst = dst
	}
	if src, ok := DecodeCallsign(srcEnc); ok {
		out.Src = src
	}

	typeField := uint16(raw[12])<<8 | uint16(raw[13])
	out.DT = byte((typeField >> 1) & 0x3)
	out.ET = byte((typeField >> 3) & 0x3)
	out.ES = byte((typeField >> 5) & 0x3)
	out.CN = byte((typeField >> 7) & 0xF)
	out.RS = typeField&0x1 != 0

	copy(out.DstCSD[:], raw[14:23])
	copy(out.SrcCSD[:], raw[23:min(32, len(raw))])

	return out, nil
}

func beUint48(b []byte) uint64 {
	var v uint64
	for _, x := range b[:6] {
		v = v<<8 | uint64(x)
	}
	return v
}
