package fsm

import "fmt"

// Config holds one state machine's tunable parameters — the same
// vad_machine_config vector the original Zig/Python system optimized with a
// genetic algorithm over speech_min_freq/speech_max_freq/
// long_term_speech_avg_sec/short_term_speech_avg_sec/speech_threshold_factor
// (see _examples/original_source/optimize/optimize.py).
type Config struct {
	SpeechMinFreq            float64 `yaml:"speech_min_freq"`
	SpeechMaxFreq             float64 `yaml:"speech_max_freq"`
	LongTermSpeechAvgSec      float64 `yaml:"long_term_speech_avg_sec"`
	InitialLongTermAvg        float64 `yaml:"initial_long_term_avg"`
	ShortTermSpeechAvgSec     float64 `yaml:"short_term_speech_avg_sec"`
	SpeechThresholdFactor     float64 `yaml:"speech_threshold_factor"`
	ChannelVolRatioAvgSec     float64 `yaml:"channel_vol_ratio_avg_sec"`
	ChannelVolRatioThreshold  float64 `yaml:"channel_vol_ratio_threshold"`
	MinConsecutiveSecToOpen   float64 `yaml:"min_consecutive_sec_to_open"`
	MaxSpeechGapSec           float64 `yaml:"max_speech_gap_sec"`
	MinVADDurationSec         float64 `yaml:"min_vad_duration_sec"`
}

// DefaultConfig returns reasonable defaults for 48kHz onboard radio audio.
func DefaultConfig() Config {
	return Config{
		SpeechMinFreq:            100,
		SpeechMaxFreq:            1500,
		LongTermSpeechAvgSec:     180,
		InitialLongTermAvg:       0.005,
		ShortTermSpeechAvgSec:    0.2,
		SpeechThresholdFactor:    18,
		ChannelVolRatioAvgSec:    0.5,
		ChannelVolRatioThreshold: 0.5,
		MinConsecutiveSecToOpen:  0.2,
		MaxSpeechGapSec:          2.0,
		MinVADDurationSec:        0.7,
	}
}

// Validate checks the config for internally inconsistent values, mirroring
// the teacher's per-section Validate() idiom.
func (c Config) Validate() error {
	if c.SpeechMinFreq < 0 || c.SpeechMaxFreq <= c.SpeechMinFreq {
		return fmt.Errorf("fsm: speech_min_freq/speech_max_freq must satisfy 0 <= min < max, got [%v, %v]", c.SpeechMinFreq, c.SpeechMaxFreq)
	}
	if c.LongTermSpeechAvgSec <= 0 {
		return fmt.Errorf("fsm: long_term_speech_avg_sec must be positive, got %v", c.LongTermSpeechAvgSec)
	}
	if c.ShortTermSpeechAvgSec <= 0 {
		return fmt.Errorf("fsm: short_term_speech_avg_sec must be positive, got %v", c.ShortTermSpeechAvgSec)
	}
	if c.SpeechThresholdFactor <= 0 {
		return fmt.Errorf("fsm: speech_threshold_factor must be positive, got %v", c.SpeechThresholdFactor)
	}
	if c.ChannelVolRatioAvgSec <= 0 {
		return fmt.Errorf("fsm: channel_vol_ratio_avg_sec must be positive, got %v", c.ChannelVolRatioAvgSec)
	}
	if c.ChannelVolRatioThreshold < 0 || c.ChannelVolRatioThreshold > 1 {
		return fmt.Errorf("fsm: channel_vol_ratio_threshold must be within [0, 1], got %v", c.ChannelVolRatioThreshold)
	}
	if c.MinConsecutiveSecToOpen < 0 {
		return fmt.Errorf("fsm: min_consecutive_sec_to_open must be non-negative, got %v", c.MinConsecutiveSecToOpen)
	}
	if c.MaxSpeechGapSec < 0 {
		return fmt.Errorf("fsm: max_speech_gap_sec must be non-negative, got %v", c.MaxSpeechGapSec)
	}
	if c.MinVADDurationSec < 0 {
		return fmt.Errorf("fsm: min_vad_duration_sec must be non-negative, got %v", c.MinVADDurationSec)
	}
	return nil
}
