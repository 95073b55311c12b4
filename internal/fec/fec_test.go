package fec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func byteToBitsSlice(b byte) []int {
	bits := make([]int, 8)
	for i := 0; i < 8; i++ {
		bits[i] = int((b >> uint(7-i)) & 1)
	}
	return bits
}

// spec.md §8: for any 8-bit data d and any single-bit flip of the 16-bit
// codeword, decode recovers d and returns 1.
func TestLSDSingleBitFlipAlwaysRecovers(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := byte(rapid.IntRange(0, 255).Draw(t, "data"))
		flip := rapid.IntRange(0, 15).Draw(t, "flip")

		cw := EncodeLSD(byteToBitsSlice(d))
		corrupted := append([]int(nil), cw...)
		corrupted[flip] ^= 1

		ok := DecodeLSD(corrupted)
		assert.Equal(t, 1, ok)
		assert.Equal(t, byteToBitsSlice(d), corrupted[0:8])
	})
}

func TestLSDValidCodewordDecodes(t *testing.T) {
	cw := EncodeLSD(byteToBitsSlice(0xA5))
	assert.Equal(t, 1, DecodeLSD(cw))
}

func TestLSDUncorrectableTwoBitFlip(t *testing.T) {
	// Flipping both data[0] and data[1] produces a syndrome equal to
	// the XOR of their two columns, which by construction (columns
	// chosen with weight >= 2, pairwise distinct) is neither zero nor
	// a single data/parity column on its own for most pairs; verify at
	// least one such combination is reported uncorrectable.
	found := false
	for a := 0; a < 8 && !found; a++ {
		for b := a + 1; b < 8; b++ {
			cw := EncodeLSD(byteToBitsSlice(0x00))
			cw[a] ^= 1
			cw[b] ^= 1
			if DecodeLSD(cw) == 0 {
				found = true
				break
			}
		}
	}
	assert.True(t, found, "expected at least one uncorrectable two-bit-flip combination")
}

func TestDMRLinkControlMaskRoundTrip(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}
	for _, mask := range []uint32{MaskVLC, MaskTLC} {
		cw := EncodeDMRLinkControl(data, mask)
		assert.True(t, CheckDMRLinkControl(cw, mask))

		corrupted := append([]byte(nil), cw...)
		corrupted[0] ^= 0xFF
		assert.False(t, CheckDMRLinkControl(corrupted, mask))
	}
}

func makeInfoBits(seed int) []int {
	bits := make([]int, 80)
	x := seed
	for i := range bits {
		x = (x*1103515245 + 12345) & 0x7fffffff
		bits[i] = x & 1
	}
	return bits
}

func TestCCITTMaskRoundTripAndBitFlipBreaksIt(t *testing.T) {
	masks := []uint16{MaskPI, MaskCSBK, MaskMBCHeader, MaskDataHeader, MaskUSBD}
	for _, mask := range masks {
		info := makeInfoBits(int(mask))
		crc := crcCCITT16Bits(info)
		masked := crc ^ mask

		block := make([]int, 96)
		copy(block[0:80], info)
		for i := 0; i < 16; i++ {
			block[80+i] = int((masked >> uint(15-i)) & 1)
		}

		assert.True(t, CheckCCITTMask(block, mask))

		block[0] ^= 1
		assert.False(t, CheckCCITTMask(block, mask))
	}
}
