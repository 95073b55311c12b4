package soapysrc

import "testing"

func TestParseFullForm(t *testing.T) {
	o := Parse("soapy:driver=rtlsdr:851.0125M:20:0.5:12.5k:3.0:0.8")
	if o.Args != "driver=rtlsdr" {
		t.Errorf("args = %q", o.Args)
	}
	if o.FreqHz != 851012500 {
		t.Errorf("freq = %d, want 851012500", o.FreqHz)
	}
	if !o.HasGain || o.Gain != 20 {
		t.Errorf("gain = %v/%v", o.HasGain, o.Gain)
	}
	if !o.HasPPM || o.PPM != 0.5 {
		t.Errorf("ppm = %v/%v", o.HasPPM, o.PPM)
	}
	if !o.HasSquelch || o.Squelch != 3.0 {
		t.Errorf("squelch = %v/%v", o.HasSquelch, o.Squelch)
	}
}

func TestParseBareForm(t *testing.T) {
	o := Parse("soapy")
	if o.Args != "" {
		t.Errorf("expected empty args, got %q", o.Args)
	}
}

func TestNormalizeAudioInDev(t *testing.T) {
	if got := NormalizeAudioInDev(Options{}); got != "soapy" {
		t.Errorf("got %q, want soapy", got)
	}
	if got := NormalizeAudioInDev(Options{Args: "driver=rtlsdr"}); got != "soapy:driver=rtlsdr" {
		t.Errorf("got %q", got)
	}
}

func TestParseAmbiguousTrailingFieldsTreatedAsOpaqueArgs(t *testing.T) {
	o := Parse("soapy:a:b:c:d:e:f:g:h:i")
	if o.FreqHz != 0 {
		t.Errorf("expected no freq parsed for ambiguous input, got %d", o.FreqHz)
	}
	if o.Args == "" {
		t.Error("expected opaque args to be preserved")
	}
}

func TestParseNonSoapyReturnsZeroValue(t *testing.T) {
	o := Parse("rtl:0")
	if o != (Options{}) {
		t.Errorf("expected zero-value Options, got %+v", o)
	}
}
