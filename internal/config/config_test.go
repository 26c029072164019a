package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/theOehrly/Formula-VAD/internal/fsm"
)

func validConfig() Config {
	return Config{
		Audio: AudioConfig{
			SampleRate:  48000,
			NumChannels: 2,
			FFTSize:     2048,
			UseDenoiser: true,
		},
		Recorder: RecorderConfig{
			RingBufferSeconds: 10,
			MaxCaptureSec:     120,
		},
		VAD: VADSectionConfig{
			Primary: fsm.DefaultConfig(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{
			name:        "valid configuration",
			mutate:      func(c *Config) {},
			expectError: false,
		},
		{
			name:        "wrong sample rate",
			mutate:      func(c *Config) { c.Audio.SampleRate = 8000 },
			expectError: true,
		},
		{
			name:        "zero channels",
			mutate:      func(c *Config) { c.Audio.NumChannels = 0 },
			expectError: true,
		},
		{
			name:        "odd fft size",
			mutate:      func(c *Config) { c.Audio.FFTSize = 2049 },
			expectError: true,
		},
		{
			name:        "negative ring buffer seconds",
			mutate:      func(c *Config) { c.Recorder.RingBufferSeconds = -1 },
			expectError: true,
		},
		{
			name:        "invalid primary vad config",
			mutate:      func(c *Config) { c.VAD.Primary.SpeechMaxFreq = 0 },
			expectError: true,
		},
		{
			name: "invalid alternate vad config",
			mutate: func(c *Config) {
				bad := fsm.DefaultConfig()
				bad.SpeechThresholdFactor = -1
				c.VAD.Alternates = []fsm.Config{bad}
			},
			expectError: true,
		},
		{
			name:        "invalid logging level",
			mutate:      func(c *Config) { c.Logging.Level = "verbose" },
			expectError: true,
		},
		{
			name:        "invalid logging format",
			mutate:      func(c *Config) { c.Logging.Format = "xml" },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.expectError && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestLoadReadsAndValidatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
audio:
  sample_rate: 48000
  num_channels: 1
  fft_size: 2048
  use_denoiser: true
recorder:
  ring_buffer_seconds: 10
  max_capture_sec: 120
vad:
  primary:
    speech_min_freq: 100
    speech_max_freq: 1500
    long_term_speech_avg_sec: 180
    initial_long_term_avg: 0.005
    short_term_speech_avg_sec: 0.2
    speech_threshold_factor: 18
    channel_vol_ratio_avg_sec: 0.5
    channel_vol_ratio_threshold: 0.5
    min_consecutive_sec_to_open: 0.2
    max_speech_gap_sec: 2.0
    min_vad_duration_sec: 0.7
logging:
  level: info
  format: text
  output: stdout
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Audio.NumChannels != 1 {
		t.Errorf("expected num_channels 1, got %d", cfg.Audio.NumChannels)
	}
}

func TestLoadErrorsOnMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading a nonexistent file")
	}
}
