package mac2

import "testing"

func TestLenForScenarios(t *testing.T) {
	cases := []struct {
		mfid, op byte
		want     byte
	}{
		{MFIDStandard, 0x40, 9},
		{MFIDStandard, 0x48, 10},
		{MFIDMotorola, 0x91, 17},
		{MFIDTait, 0x34, 5},
		{MFIDStandard, 0x00, 0},
		{MFIDHarris, 0x81, 7},
		{MFIDHarris, 0x8F, 7},
		{MFIDHarris, 0x20, 17},
	}
	for _, c := range cases {
		if got := LenFor(c.mfid, c.op); got != c.want {
			t.Errorf("LenFor(%#x, %#x) = %d, want %d", c.mfid, c.op, got, c.want)
		}
	}
}
