// Package csvimport loads the CSV tables spec.md §6 lists as consumed
// file formats: group/TG policy, LCN map, channel map, key tables, and
// NXDN vertex keys. encoding/csv is used directly rather than a
// third-party CSV library: the corpus's own CSV consumers
// (dbehnke-dmr-nexus's bridge config and dmrhub's talkgroup importer)
// likewise reach straight for encoding/csv, so there is no ecosystem
// convention here to depart from.
package csvimport

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// GroupMode is a talkgroup policy mode.
type GroupMode string

const (
	GroupModeAllow          GroupMode = "A"
	GroupModeBlock          GroupMode = "B"
	GroupModeDigitalOnly    GroupMode = "D"
	GroupModeDigitalEncrypt GroupMode = "DE"
)

// GroupPolicy is one row of the group/TG policy CSV.
type GroupPolicy struct {
	GroupNumber uint32
	Mode        GroupMode
}

// ImportGroupPolicy parses the group/TG policy CSV format
// ("groupNumber,groupMode"). On any row error, it returns a nil slice
// and a non-zero error so the caller leaves its existing table
// untouched (spec.md §6: "import failure leaves target tables
// untouched").
func ImportGroupPolicy(r io.Reader) ([]GroupPolicy, error) {
	rows, err := readAllCSV(r)
	if err != nil {
		return nil, err
	}
	out := make([]GroupPolicy, 0, len(rows))
	for i, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("csvimport: group policy row %d: need 2 fields, got %d", i, len(row))
		}
		n, err := strconv.ParseUint(strings.TrimSpace(row[0]), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("csvimport: group policy row %d: bad group number %q: %w", i, row[0], err)
		}
		mode := GroupMode(strings.ToUpper(strings.TrimSpace(row[1])))
		switch mode {
		case GroupModeAllow, GroupModeBlock, GroupModeDigitalOnly, GroupModeDigitalEncrypt:
		default:
			return nil, fmt.Errorf("csvimport: group policy row %d: unknown mode %q", i, row[1])
		}
		out = append(out, GroupPolicy{GroupNumber: uint32(n), Mode: mode})
	}
	return out, nil
}

// ChannelEntry is one row of the channel map CSV: channel number to
// frequency in Hz.
type ChannelEntry struct {
	Channel uint16
	FreqHz  uint64
}

// ImportChannelMap parses "channel,freqHz" rows.
func ImportChannelMap(r io.Reader) ([]ChannelEntry, error) {
	rows, err := readAllCSV(r)
	if err != nil {
		return nil, err
	}
	out := make([]ChannelEntry, 0, len(rows))
	for i, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("csvimport: channel map row %d: need 2 fields, got %d", i, len(row))
		}
		ch, err := strconv.ParseUint(strings.TrimSpace(row[0]), 10, 16)
		if err != nil {
			return nil, fmt.Errorf("csvimport: channel map row %d: bad channel %q: %w", i, row[0], err)
		}
		freq, err := strconv.ParseUint(strings.TrimSpace(row[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("csvimport: channel map row %d: bad frequency %q: %w", i, row[1], err)
		}
		out = append(out, ChannelEntry{Channel: uint16(ch), FreqHz: freq})
	}
	return out, nil
}

// LCNEntry is one row of the logical-channel-number map CSV.
type LCNEntry struct {
	LCN     uint16
	Channel uint16
}

// ImportLCNMap parses "lcn,channel" rows.
func ImportLCNMap(r io.Reader) ([]LCNEntry, error) {
	rows, err := readAllCSV(r)
	if err != nil {
		return nil, err
	}
	out := make([]LCNEntry, 0, len(rows))
	for i, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("csvimport: lcn map row %d: need 2 fields, got %d", i, len(row))
		}
		lcn, err := strconv.ParseUint(strings.TrimSpace(row[0]), 10, 16)
		if err != nil {
			return nil, fmt.Errorf("csvimport: lcn map row %d: bad lcn %q: %w", i, row[0], err)
		}
		ch, err := strconv.ParseUint(strings.TrimSpace(row[1]), 10, 16)
		if err != nil {
			return nil, fmt.Errorf("csvimport: lcn map row %d: bad channel %q: %w", i, row[1], err)
		}
		out = append(out, LCNEntry{LCN: uint16(lcn), Channel: uint16(ch)})
	}
	return out, nil
}

// KeyEntry is one row of a key table: a talkgroup/unit ID mapped to an
// encryption key, accepted in either decimal or 0x-prefixed hex.
type KeyEntry struct {
	ID  uint32
	Key uint64
}

// ImportKeyTable parses "id,key" rows, accepting keys in decimal or
// hex (0x-prefixed) form.
func ImportKeyTable(r io.Reader) ([]KeyEntry, error) {
	rows, err := readAllCSV(r)
	if err != nil {
		return nil, err
	}
	out := make([]KeyEntry, 0, len(rows))
	for i, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("csvimport: key table row %d: need 2 fields, got %d", i, len(row))
		}
		id, err := strconv.ParseUint(strings.TrimSpace(row[0]), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("csvimport: key table row %d: bad id %q: %w", i, row[0], err)
		}
		key, err := parseDecimalOrHex(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("csvimport: key table row %d: bad key %q: %w", i, row[1], err)
		}
		out = append(out, KeyEntry{ID: uint32(id), Key: key})
	}
	return out, nil
}

// NXDNVertexKey is one row of the NXDN vertex-key table.
type NXDNVertexKey struct {
	VertexID uint16
	Key      uint64
}

// ImportNXDNVertexKeys parses "vertexId,key" rows, accepting keys in
// decimal or hex form.
func ImportNXDNVertexKeys(r io.Reader) ([]NXDNVertexKey, error) {
	rows, err := readAllCSV(r)
	if err != nil {
		return nil, err
	}
	out := make([]NXDNVertexKey, 0, len(rows))
	for i, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("csvimport: nxdn vertex key row %d: need 2 fields, got %d", i, len(row))
		}
		id, err := strconv.ParseUint(strings.TrimSpace(row[0]), 10, 16)
		if err != nil {
			return nil, fmt.Errorf("csvimport: nxdn vertex key row %d: bad vertex id %q: %w", i, row[0], err)
		}
		key, err := parseDecimalOrHex(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("csvimport: nxdn vertex key row %d: bad key %q: %w", i, row[1], err)
		}
		out = append(out, NXDNVertexKey{VertexID: uint16(id), Key: key})
	}
	return out, nil
}

func parseDecimalOrHex(s string) (uint64, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}

func readAllCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csvimport: failed to parse csv: %w", err)
	}
	return rows, nil
}
