// Package config loads the runtime configuration that governs
// scheduling, trunking, and audio behavior. It follows the same
// YAML-unmarshal-then-apply-defaults pattern the rest of the corpus
// uses for its own configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root runtime configuration.
type Config struct {
	RealtimeScheduling RealtimeSchedulingConfig `yaml:"rt_scheduling"`
	Trunking           TrunkingConfig           `yaml:"trunking"`
	Audio              AudioConfig              `yaml:"audio"`
	DSP                DSPConfig                `yaml:"dsp"`
	IQSource           IQSourceConfig           `yaml:"iq_source"`
}

// IQSourceConfig controls an optional multicast-RTP IQ front end
// (internal/ioring), for SDR bridges that hand off RTP-framed samples
// instead of a raw socket.
type IQSourceConfig struct {
	Enable    bool   `yaml:"rtp_enable"`
	Addr      string `yaml:"rtp_addr"` // multicast group:port, e.g. 239.1.2.3:5004
	Interface string `yaml:"rtp_interface"`
}

// RealtimeSchedulingConfig controls the rtsched package's thread
// priority and CPU-affinity behavior.
type RealtimeSchedulingConfig struct {
	Enabled       bool           `yaml:"rt_sched_enabled"`
	PriorityByRole map[string]int `yaml:"rt_prio"` // role -> SCHED_FIFO priority
	CPUByRole      map[string]int `yaml:"cpu"`      // role -> pinned CPU index
}

// TrunkingConfig controls the trunk package's policy and watchdog
// cadence.
type TrunkingConfig struct {
	Enable           bool `yaml:"trunk_enable"`
	P25Trunk         bool `yaml:"p25_trunk"`
	TuneGroupCalls   bool `yaml:"trunk_tune_group_calls"`
	TunePrivateCalls bool `yaml:"trunk_tune_private_calls"`
	TuneEncCalls     bool `yaml:"trunk_tune_enc_calls"`
	HangtimeSeconds  int  `yaml:"trunk_hangtime"`
	UseAllowList     bool `yaml:"trunk_use_allow_list"`
	WatchdogMs       int  `yaml:"p25_watchdog_ms"`
}

// AudioConfig controls the audio output path.
type AudioConfig struct {
	PulseDigiOutChannels int  `yaml:"pulse_digi_out_channels"`
	UnicodeSupported     bool `yaml:"unicode_supported"`
}

// DSPConfig controls the floating-point/FTZ-DAZ DSP mode selection.
type DSPConfig struct {
	FloatingPoint bool `yaml:"floating_point"`
	FTZDAZEnabled bool `yaml:"ftz_daz_enabled"`
}

// Default cadence bounds from spec.md §6: tick cadence clamps to
// [20ms, 2000ms] with defaults of 200ms (UI) / 400ms (headless).
const (
	MinWatchdogMs     = 20
	MaxWatchdogMs     = 2000
	DefaultUIMs       = 200
	DefaultHeadlessMs = 400
)

// Load reads and parses a YAML configuration file, applying defaults
// for any field the file omits.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", filename, err)
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", filename, err)
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Trunking.WatchdogMs == 0 {
		c.Trunking.WatchdogMs = DefaultHeadlessMs
	} else if c.Trunking.WatchdogMs < MinWatchdogMs {
		c.Trunking.WatchdogMs = MinWatchdogMs
	} else if c.Trunking.WatchdogMs > MaxWatchdogMs {
		c.Trunking.WatchdogMs = MaxWatchdogMs
	}
	if c.Trunking.HangtimeSeconds == 0 {
		c.Trunking.HangtimeSeconds = 1
	}
	if c.RealtimeScheduling.PriorityByRole == nil {
		c.RealtimeScheduling.PriorityByRole = map[string]int{}
	}
	if c.RealtimeScheduling.CPUByRole == nil {
		c.RealtimeScheduling.CPUByRole = map[string]int{}
	}
}
