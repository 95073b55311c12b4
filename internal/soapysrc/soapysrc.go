// Package soapysrc parses the Soapy input device shorthand (spec.md
// §6): "soapy[:args]:freq[:gain[:ppm[:bw[:sql[:vol]]]]]".
package soapysrc

import (
	"strconv"
	"strings"

	"github.com/arancormonk/dsd-neo-go/internal/freqstr"
)

// Options is the parsed result of a Soapy shorthand string.
type Options struct {
	Args    string // device args, e.g. "driver=rtlsdr"
	FreqHz  uint64
	Gain    float64
	PPM     float64
	BwHz    uint64
	Squelch float64
	Volume  float64

	HasGain, HasPPM, HasBw, HasSquelch, HasVolume bool
}

// Parse decodes a soapy shorthand string into Options. Fields beyond
// freq are optional and positional; if the field count is ambiguous
// (more colon-separated tokens than the format defines, suggesting the
// args segment itself contained a colon), the whole remainder after
// "soapy:" is treated as opaque args with no freq/gain parsed —
// spec.md §6's "ambiguous trailing fields -> treat the whole string as
// opaque args".
func Parse(s string) Options {
	const maxFields = 7 // after "soapy": args : freq : gain : ppm : bw : sql : vol
	parts := strings.Split(s, ":")
	if len(parts) == 0 || !strings.EqualFold(parts[0], "soapy") {
		return Options{}
	}
	parts = parts[1:]

	if len(parts) > maxFields {
		return Options{Args: strings.Join(parts, ":")}
	}
	if len(parts) == 0 {
		return Options{}
	}

	opts := Options{Args: parts[0]}
	rest := parts[1:]
	if len(rest) > 0 {
		opts.FreqHz = freqstr.Parse(rest[0])
	}
	if len(rest) > 1 {
		if v, err := strconv.ParseFloat(rest[1], 64); err == nil {
			opts.Gain, opts.HasGain = v, true
		}
	}
	if len(rest) > 2 {
		if v, err := strconv.ParseFloat(rest[2], 64); err == nil {
			opts.PPM, opts.HasPPM = v, true
		}
	}
	if len(rest) > 3 {
		opts.BwHz = freqstr.Parse(rest[3])
		opts.HasBw = opts.BwHz != 0
	}
	if len(rest) > 4 {
		if v, err := strconv.ParseFloat(rest[4], 64); err == nil {
			opts.Squelch, opts.HasSquelch = v, true
		}
	}
	if len(rest) > 5 {
		if v, err := strconv.ParseFloat(rest[5], 64); err == nil {
			opts.Volume, opts.HasVolume = v, true
		}
	}
	return opts
}

// NormalizeAudioInDev renders the canonical "audio_in_dev" value for a
// parsed soapy source: "soapy" with no args, or "soapy:<args>"
// otherwise (spec.md §6).
func NormalizeAudioInDev(o Options) string {
	if o.Args == "" {
		return "soapy"
	}
	return "soapy:" + o.Args
}
