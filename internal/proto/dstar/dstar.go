// Package dstar implements the D-STAR dispatcher entry: frame sync
// detection and slow-data header fields. The AMBE vocoder stays out of
// scope per spec.md §1.
package dstar

import "fmt"

const (
	FrameLength = 12 // voice frame bytes, excludes slow-data nibble
	HeaderLength = 41
)

var syncPattern = []byte{0x55, 0x2D, 0x16}

// DetectSync reports whether the leading bytes match the D-STAR voice
// frame sync pattern.
func DetectSync(data []byte) bool {
	if len(data) < len(syncPattern) {
		return false
	}
	for i, b := range syncPattern {
		if data[i] != b {
			return false
		}
	}
	return true
}

// Header is the decoded D-STAR slow-data header (callsign fields).
type Header struct {
	RPT1     string
	RPT2     string
	YourCall string
	MyCall   string
	Suffix   string
}

// ParseHeader decodes the fixed-width callsign fields from a 41-byte
// D-STAR header. Its trailing CRC-CCITT is not checked.
func ParseHeader(raw []byte) (Header, error) {
	if len(raw) < HeaderLength-2 {
		return Header{}, fmt.Errorf("dstar: header too short: got %d bytes, need >= %d", len(raw), HeaderLength-2)
	}
	h := Header{
		RPT1:     trimField(raw[3:11]),
		RPT2:     trimField(raw[11:19]),
		YourCall: trimField(raw[19:27]),
		MyCall:   trimField(raw[27:35]),
		Suffix:   trimField(raw[35:39]),
	}
	return h, nil
}

func trimField(b []byte) string {
	end := len(b)
	for end > 0 && (b[end-1] == ' ' || b[end-1] == 0) {
		end--
	}
	return string(b[:end])
}
