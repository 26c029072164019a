package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/theOehrly/Formula-VAD/internal/fsm"
)

// Config represents the complete pipeline configuration.
type Config struct {
	Audio    AudioConfig     `yaml:"audio"`
	Recorder RecorderConfig  `yaml:"recorder"`
	VAD      VADSectionConfig `yaml:"vad"`
	Logging  LoggingConfig   `yaml:"logging"`
}

// AudioConfig contains fixed audio format and spectral analysis parameters.
type AudioConfig struct {
	SampleRate  int  `yaml:"sample_rate"`
	NumChannels int  `yaml:"num_channels"`
	FFTSize     int  `yaml:"fft_size"`
	UseDenoiser bool `yaml:"use_denoiser"`
}

// RecorderConfig contains capture storage parameters.
type RecorderConfig struct {
	RingBufferSeconds float64 `yaml:"ring_buffer_seconds"`
	MaxCaptureSec     float64 `yaml:"max_capture_sec"`
}

// VADSectionConfig contains the primary and alternate state machine
// configs. Alternates are evaluated in parallel against the same stream but
// never drive the recorder (see SPEC_FULL.md §5).
type VADSectionConfig struct {
	Primary     fsm.Config   `yaml:"primary"`
	Alternates  []fsm.Config `yaml:"alternates"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate performs comprehensive validation of the configuration.
func (c *Config) Validate() error {
	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}
	if err := c.Recorder.Validate(); err != nil {
		return fmt.Errorf("recorder config: %w", err)
	}
	if err := c.VAD.Validate(); err != nil {
		return fmt.Errorf("vad config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

// Validate validates audio configuration.
func (a *AudioConfig) Validate() error {
	if a.SampleRate != 48000 {
		return fmt.Errorf("sample_rate must be 48000 Hz, got %d", a.SampleRate)
	}
	if a.NumChannels < 1 {
		return fmt.Errorf("num_channels must be at least 1, got %d", a.NumChannels)
	}
	if a.FFTSize <= 0 || a.FFTSize%2 != 0 {
		return fmt.Errorf("fft_size must be positive and even, got %d", a.FFTSize)
	}
	return nil
}

// Validate validates recorder configuration.
func (r *RecorderConfig) Validate() error {
	if r.RingBufferSeconds <= 0 {
		return fmt.Errorf("ring_buffer_seconds must be positive, got %f", r.RingBufferSeconds)
	}
	if r.MaxCaptureSec <= 0 {
		return fmt.Errorf("max_capture_sec must be positive, got %f", r.MaxCaptureSec)
	}
	return nil
}

// Validate validates the primary and every alternate VAD config.
func (v *VADSectionConfig) Validate() error {
	if err := v.Primary.Validate(); err != nil {
		return fmt.Errorf("primary: %w", err)
	}
	for i, alt := range v.Alternates {
		if err := alt.Validate(); err != nil {
			return fmt.Errorf("alternates[%d]: %w", i, err)
		}
	}
	return nil
}

// Validate validates logging configuration.
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// RingBufferDuration returns the ring buffer window as a time.Duration.
func (r *RecorderConfig) RingBufferDuration() time.Duration {
	return time.Duration(r.RingBufferSeconds * float64(time.Second))
}

// MaxCaptureDuration returns the capture watchdog ceiling as a time.Duration.
func (r *RecorderConfig) MaxCaptureDuration() time.Duration {
	return time.Duration(r.MaxCaptureSec * float64(time.Second))
}
