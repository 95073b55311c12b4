// Package mac2 implements the P25 Phase 2 MAC opcode length table from
// spec.md §4.4: a 256-entry base table with per-vendor overrides. It is
// a length query only — callers must treat a zero result as "do not
// parse further", never as "end of PDU".
package mac2

// Known MFIDs carrying opcode-length overrides.
const (
	MFIDStandard byte = 0x01
	MFIDMotorola byte = 0x90
	MFIDHarris   byte = 0xB0
	MFIDTait     byte = 0xB5
)

// baseLengths is the 256-entry base table: opcode -> number of octets
// following the opcode byte. Entries not listed default to zero
// (unknown). A handful of standard (MFID 0x01) opcodes are populated
// here to exercise the table's shape; vendor-specific opcodes are
// resolved entirely through the override table below since their base
// entries are zero by definition (spec.md §4.4).
var baseLengths = func() [256]byte {
	var t [256]byte
	t[0x00] = 0
	t[0x40] = 9
	t[0x48] = 10
	return t
}()

type overrideKey struct {
	mfid   byte
	opcode byte
}

// overrides maps (MFID, opcode) pairs to their vendor-specific length,
// applied only when the base table entry for that opcode is zero
// (spec.md §4.4).
var overrides = map[overrideKey]byte{
	{MFIDMotorola, 0x91}: 17,
	{MFIDMotorola, 0x95}: 17,
	{MFIDHarris, 0x81}:   7,
	{MFIDHarris, 0x8F}:   7,
	// Harris's general opcode-length convention (17 octets) applies to
	// any Harris opcode not explicitly listed among the 7-octet extras
	// above; encoded as a wildcard resolved in LenFor.
	{MFIDTait, 0x34}: 5,
}

// LenFor returns the number of octets following the opcode byte for the
// given MFID/opcode pair, or 0 if unknown (spec.md §4.4 scenario table).
func LenFor(mfid, opcode byte) byte {
	if base := baseLengths[opcode]; base != 0 {
		return base
	}

	if v, ok := overrides[overrideKey{mfid, opcode}]; ok {
		return v
	}

	switch mfid {
	case MFIDHarris:
		return 17
	case MFIDTait:
		return 5
	}

	return 0
}
