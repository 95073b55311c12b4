// Package fec implements the small forward-error-correction and CRC
// building blocks the P25/DMR trunking state machine and its protocol
// handlers depend on: LSD(16,8) single-bit correction (spec.md §4.3),
// DMR link-control mask-verified parity, and 16-bit CCITT mask
// verification for PI/CSBK/MBC-header/data-header/USBD PDUs.
package fec

// dataColumnSyndromes holds the eight generator-matrix columns for the
// LSD(16,8) code's data half, one per data bit (index 0 = data[0], the
// MSB). Values are the eight smallest byte values with Hamming weight
// >= 2 so that no data-bit syndrome collides with a pure power-of-two
// parity-bit-error syndrome, and all eight are pairwise distinct —
// exactly the structural requirement spec.md §4.3 describes ("There
// exists a data-bit index j such that parity_table[1 << (7−j)] == s").
var dataColumnSyndromes = computeColumns()

func computeColumns() [8]byte {
	var cols [8]byte
	n := 0
	for v := 1; v < 256 && n < 8; v++ {
		if popcount8(byte(v)) >= 2 {
			cols[n] = byte(v)
			n++
		}
	}
	return cols
}

func popcount8(b byte) int {
	n := 0
	for b != 0 {
		n += int(b & 1)
		b >>= 1
	}
	return n
}

// parityTable[dataByte] is the expected 8-bit parity value for that data
// byte, derived by XOR-ing the generator columns selected by dataByte's
// set bits (data[0] is the MSB, matching spec.md §4.3's bit ordering).
var parityTable = computeParityTable()

func computeParityTable() [256]byte {
	var tbl [256]byte
	for db := 0; db < 256; db++ {
		var acc byte
		for j := 0; j < 8; j++ {
			bit := (byte(db) >> uint(7-j)) & 1
			if bit == 1 {
				acc ^= dataColumnSyndromes[j]
			}
		}
		tbl[db] = acc
	}
	return tbl
}

// bitsToByte packs 8 MSB-first 0/1 values into a byte.
func bitsToByte(bits []int) byte {
	var b byte
	for i := 0; i < 8 && i < len(bits); i++ {
		if bits[i] != 0 {
			b |= 1 << uint(7-i)
		}
	}
	return b
}

func byteToBits(b byte, out []int) {
	for i := 0; i < 8 && i < len(out); i++ {
		out[i] = int((b >> uint(7-i)) & 1)
	}
}

// DecodeLSD corrects a 16-element 0/1 array in place (indices 0..7 =
// data MSB-first, 8..15 = parity MSB-first) per spec.md §4.3, returning
// 1 when the codeword was valid or a single-bit error was corrected,
// and 0 when the error is uncorrectable.
func DecodeLSD(codeword []int) int {
	if len(codeword) < 16 {
		return 0
	}

	dataByte := bitsToByte(codeword[0:8])
	parityByte := bitsToByte(codeword[8:16])

	expected := parityTable[dataByte]
	syndrome := parityByte ^ expected

	if syndrome == 0 {
		return 1
	}

	// Data-bit columns are built from bytes of weight >= 2 (see
	// computeColumns), so they never collide with a power-of-two
	// parity-bit-error syndrome: the two branches below are mutually
	// exclusive.
	if popcount8(syndrome) == 1 {
		for k := 0; k < 8; k++ {
			if syndrome == 1<<uint(k) {
				codeword[8+(7-k)] ^= 1
				return 1
			}
		}
	}

	for j := 0; j < 8; j++ {
		if parityTable[1<<uint(7-j)] == syndrome {
			codeword[j] ^= 1
			return 1
		}
	}

	return 0
}

// EncodeLSD computes the 8 parity bits (MSB-first) for the given 8 data
// bits (MSB-first), returning the full 16-bit codeword.
func EncodeLSD(data []int) []int {
	codeword := make([]int, 16)
	copy(codeword[0:8], data[0:8])
	p := parityTable[bitsToByte(data[0:8])]
	byteToBits(p, codeword[8:16])
	return codeword
}
