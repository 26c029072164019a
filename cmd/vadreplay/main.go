package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/theOehrly/Formula-VAD/internal/capture"
	"github.com/theOehrly/Formula-VAD/internal/config"
	"github.com/theOehrly/Formula-VAD/internal/metrics"
	"github.com/theOehrly/Formula-VAD/internal/vadpipeline"
	"github.com/theOehrly/Formula-VAD/internal/wavcodec"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "vadreplay"
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	inputPath := flag.String("in", "", "Path to an input WAV file (required)")
	outDir := flag.String("out", "", "Directory to write recorded segments as WAV files (optional)")
	chunkFrames := flag.Int("chunk", 4096, "Samples per channel fed to Push at a time")
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "vadreplay: -in is required")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Logging)
	logger.Info("vadreplay starting",
		slog.String("service", serviceName),
		slog.String("config_path", *configPath),
		slog.String("input_path", *inputPath),
	)
	logger.Info("configuration loaded",
		slog.Int("sample_rate", cfg.Audio.SampleRate),
		slog.Int("num_channels", cfg.Audio.NumChannels),
		slog.Int("fft_size", cfg.Audio.FFTSize),
		slog.Bool("use_denoiser", cfg.Audio.UseDenoiser),
		slog.Float64("ring_buffer_seconds", cfg.Recorder.RingBufferSeconds),
		slog.Float64("max_capture_sec", cfg.Recorder.MaxCaptureSec),
	)

	appMetrics := metrics.New()
	logger.Info("prometheus metrics initialized")

	data, err := os.ReadFile(*inputPath)
	if err != nil {
		logger.Error("failed to read input file", slog.String("error", err.Error()))
		os.Exit(1)
	}
	channelPCM, sampleRate, err := wavcodec.Decode(data)
	if err != nil {
		logger.Error("failed to decode input WAV", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if sampleRate != cfg.Audio.SampleRate {
		logger.Error("input sample rate does not match configuration",
			slog.Int("input_sample_rate", sampleRate),
			slog.Int("configured_sample_rate", cfg.Audio.SampleRate),
		)
		os.Exit(1)
	}
	if len(channelPCM) != cfg.Audio.NumChannels {
		logger.Error("input channel count does not match configuration",
			slog.Int("input_channels", len(channelPCM)),
			slog.Int("configured_channels", cfg.Audio.NumChannels),
		)
		os.Exit(1)
	}

	recordingIndex := 0
	callbacks := vadpipeline.Callbacks{
		OnRecording: func(buf *capture.AudioBuffer) {
			recordingIndex++
			logger.Info("recording finalized",
				slog.String("id", buf.ID.String()),
				slog.Int("length_samples", buf.Length),
			)
			if *outDir == "" {
				return
			}
			if err := writeRecording(*outDir, recordingIndex, buf); err != nil {
				logger.Error("failed to write recording", slog.String("error", err.Error()))
			}
		},
	}

	pipeline, err := vadpipeline.New(cfg, logger, appMetrics, callbacks)
	if err != nil {
		logger.Error("failed to construct vad pipeline", slog.String("error", err.Error()))
		os.Exit(1)
	}

	total := len(channelPCM[0])
	for offset := 0; offset < total; offset += *chunkFrames {
		end := offset + *chunkFrames
		if end > total {
			end = total
		}
		chunk := make([][]float32, len(channelPCM))
		for ch := range channelPCM {
			chunk[ch] = channelPCM[ch][offset:end]
		}
		if _, err := pipeline.Push(chunk); err != nil {
			logger.Error("push failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	stats := pipeline.Stats()
	logger.Info("replay complete",
		slog.Uint64("samples_pushed", stats.SamplesPushed),
		slog.Uint64("fft_windows_analyzed", stats.FFTWindowsAnalyzed),
		slog.Uint64("segments_emitted", stats.Primary.SegmentsEmitted),
		slog.Uint64("segments_aborted", stats.Primary.Aborted),
	)
	for _, seg := range pipeline.Segments() {
		logger.Info("speech segment",
			slog.String("id", seg.ID.String()),
			slog.Uint64("sample_from", seg.SampleFrom),
			slog.Uint64("sample_to", seg.SampleTo),
			slog.Float64("avg_rnn_vad", float64(seg.DebugRNNVAD)),
			slog.Float64("avg_channel_vol_ratio", float64(seg.DebugAvgSpeechVolRatio)),
		)
	}
}

func writeRecording(dir string, index int, buf *capture.AudioBuffer) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	encoded, err := wavcodec.Encode(buf.ChannelPCM, buf.SampleRate)
	if err != nil {
		return fmt.Errorf("encoding recording: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("segment-%03d-%s.wav", index, buf.ID.String()))
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// initLogger builds a structured logger the way the config describes it:
// level and handler format are configurable, output defaults to stdout and
// otherwise falls back to it if the configured path cannot be opened.
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
