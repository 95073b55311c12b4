package ring

// IqRing carries interleaved 16-bit signed I/Q samples from the SDR
// producer thread to the demodulation consumer thread.
type IqRing struct {
	*Ring
}

// NewIqRing allocates an IQ ring with the given sample capacity (not
// required to be a power of two, though that is the common case).
func NewIqRing(capacity int) *IqRing {
	return &IqRing{Ring: New(capacity)}
}

// PcmRing carries mono PCM16 samples at a declared rate from the
// demodulation/decode consumer thread to the audio sink thread.
type PcmRing struct {
	*Ring
	SampleRateHz int
}

// NewPcmRing allocates a PCM ring for the given sample rate.
func NewPcmRing(capacity, sampleRateHz int) *PcmRing {
	return &PcmRing{Ring: New(capacity), SampleRateHz: sampleRateHz}
}
