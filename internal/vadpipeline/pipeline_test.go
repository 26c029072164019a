package vadpipeline

import (
	"math"
	"testing"

	"github.com/theOehrly/Formula-VAD/internal/capture"
	"github.com/theOehrly/Formula-VAD/internal/config"
	"github.com/theOehrly/Formula-VAD/internal/fsm"
)

const testSampleRate = 48000
const testFFTSize = 2048

func testPipelineConfig() *config.Config {
	vadCfg := fsm.DefaultConfig()
	// Shrink the seconds-denominated windows so a few seconds of synthetic
	// audio exercise open/close transitions without a huge test fixture.
	vadCfg.LongTermSpeechAvgSec = 2
	vadCfg.ShortTermSpeechAvgSec = 0.1
	vadCfg.ChannelVolRatioAvgSec = 0.1
	vadCfg.MinConsecutiveSecToOpen = 0.05
	vadCfg.MaxSpeechGapSec = 0.5
	vadCfg.MinVADDurationSec = 0.1
	vadCfg.InitialLongTermAvg = 0.01
	vadCfg.SpeechThresholdFactor = 3
	vadCfg.ChannelVolRatioThreshold = 0.3

	return &config.Config{
		Audio: config.AudioConfig{
			SampleRate:  testSampleRate,
			NumChannels: 2,
			FFTSize:     testFFTSize,
			UseDenoiser: false,
		},
		Recorder: config.RecorderConfig{
			RingBufferSeconds: 10,
			MaxCaptureSec:     30,
		},
		VAD: config.VADSectionConfig{Primary: vadCfg},
		Logging: config.LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

func silence(n int) []float32 { return make([]float32, n) }

func tone(n int, freqHz float64, amplitude float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = amplitude * float32(math.Sin(2*math.Pi*freqHz*float64(i)/float64(testSampleRate)))
	}
	return out
}

func seconds(s float64) int { return int(s * testSampleRate) }

func newTestPipeline(t *testing.T, cfg *config.Config, callbacks Callbacks) *Pipeline {
	t.Helper()
	p, err := New(cfg, nil, nil, callbacks)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p
}

func TestPushIsNoOpForEmptyChannels(t *testing.T) {
	p := newTestPipeline(t, testPipelineConfig(), Callbacks{})
	before := p.TotalWriteCount()
	idx, err := p.Push([][]float32{{}, {}})
	if err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if idx != before {
		t.Errorf("expected returned index %d, got %d", before, idx)
	}
	if p.TotalWriteCount() != before {
		t.Errorf("expected total write count unchanged, got %d", p.TotalWriteCount())
	}
}

func TestPushRejectsChannelCountMismatch(t *testing.T) {
	p := newTestPipeline(t, testPipelineConfig(), Callbacks{})
	if _, err := p.Push([][]float32{{0, 0}}); err == nil {
		t.Error("expected error for channel count mismatch")
	}
}

func TestSilenceOnlyProducesNoSegments(t *testing.T) {
	p := newTestPipeline(t, testPipelineConfig(), Callbacks{})
	n := seconds(2)
	if _, err := p.Push([][]float32{silence(n), silence(n)}); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if got := p.TotalWriteCount(); got != uint64(n) {
		t.Errorf("expected total write count %d, got %d", n, got)
	}
	if segs := p.Segments(); len(segs) != 0 {
		t.Errorf("expected no segments for pure silence, got %d", len(segs))
	}
}

func TestAsymmetricBurstEmitsSegmentAndRecording(t *testing.T) {
	var captured *capture.AudioBuffer
	callbacks := Callbacks{OnRecording: func(buf *capture.AudioBuffer) {
		captured = buf
	}}
	p := newTestPipeline(t, testPipelineConfig(), callbacks)

	warmup := silence(seconds(0.5))
	burst := tone(seconds(1.0), 300, 0.5)
	quiet := silence(seconds(1.0))
	tail := silence(seconds(3.0))

	push := func(left, right []float32) {
		if _, err := p.Push([][]float32{left, right}); err != nil {
			t.Fatalf("Push failed: %v", err)
		}
	}
	// The burst is present on channel 0 only: a driver speaking into one
	// mic, not engine or road noise picked up evenly by every channel.
	push(warmup, warmup)
	push(burst, quiet)
	push(tail, tail)

	segs := p.Segments()
	if len(segs) != 1 {
		t.Fatalf("expected exactly one segment, got %d", len(segs))
	}
	seg := segs[0]
	if seg.SampleTo <= seg.SampleFrom {
		t.Errorf("expected segment end after start, got [%d, %d]", seg.SampleFrom, seg.SampleTo)
	}
	// The burst starts well within the 2-second lookbehind pad of the start
	// of the audio, so the padded segment start must clamp to 0.
	if seg.SampleFrom != 0 {
		t.Errorf("expected padded segment start to clamp to 0, got %d", seg.SampleFrom)
	}
	if seg.DebugAvgSpeechVolRatio > 0.1 {
		t.Errorf("expected a near-zero channel volume ratio for a single-channel burst, got %v", seg.DebugAvgSpeechVolRatio)
	}

	if captured == nil {
		t.Fatal("expected the recording callback to fire")
	}
	if captured.NumChannels != 2 {
		t.Errorf("expected a 2-channel recording, got %d", captured.NumChannels)
	}
	// The capture spans from the (clamped) segment start through the burst
	// plus its 2-second lookahead pad; bound loosely since the exact FFT
	// window at which VAD trips depends on threshold dynamics, not just the
	// nominal burst boundaries.
	minLen := seconds(2.0)
	maxLen := seconds(4.4)
	if captured.Length < minLen || captured.Length > maxLen {
		t.Errorf("expected recording length in [%d, %d], got %d", minLen, maxLen, captured.Length)
	}
}

func TestSymmetricNoiseNeverRecords(t *testing.T) {
	var callbackFired bool
	callbacks := Callbacks{OnRecording: func(buf *capture.AudioBuffer) { callbackFired = true }}
	p := newTestPipeline(t, testPipelineConfig(), callbacks)

	warmup := silence(seconds(0.5))
	// Identical loud tone on every channel: engine or road noise picked up
	// evenly, not directional speech. The ratio gate must reject this
	// outright even though it is loud enough to clear the volume threshold.
	noise := tone(seconds(3.0), 300, 0.5)

	push := func(left, right []float32) {
		if _, err := p.Push([][]float32{left, right}); err != nil {
			t.Fatalf("Push failed: %v", err)
		}
	}
	push(warmup, warmup)
	push(noise, noise)

	if segs := p.Segments(); len(segs) != 0 {
		t.Errorf("expected no segments for symmetric noise, got %d", len(segs))
	}
	if callbackFired {
		t.Error("expected no recording callback for symmetric noise")
	}
}

func TestTooShortBurstNeverRecords(t *testing.T) {
	cfg := testPipelineConfig()
	cfg.VAD.Primary.MinVADDurationSec = 5.0
	var callbackFired bool
	callbacks := Callbacks{OnRecording: func(buf *capture.AudioBuffer) { callbackFired = true }}
	p := newTestPipeline(t, cfg, callbacks)

	push := func(pcm []float32) {
		if _, err := p.Push([][]float32{pcm, pcm}); err != nil {
			t.Fatalf("Push failed: %v", err)
		}
	}
	push(silence(seconds(0.5)))
	push(tone(seconds(0.2), 300, 0.5))
	push(silence(seconds(3.0)))

	if segs := p.Segments(); len(segs) != 0 {
		t.Errorf("expected no segments for a too-short burst, got %d", len(segs))
	}
	if callbackFired {
		t.Error("expected no recording callback for a discarded capture")
	}
}

func TestStatsReflectProcessing(t *testing.T) {
	p := newTestPipeline(t, testPipelineConfig(), Callbacks{})
	n := seconds(1)
	if _, err := p.Push([][]float32{silence(n), silence(n)}); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	stats := p.Stats()
	if stats.SamplesPushed != uint64(n) {
		t.Errorf("expected %d samples pushed, got %d", n, stats.SamplesPushed)
	}
	if stats.FramesRead == 0 {
		t.Error("expected at least one frame read")
	}
	if stats.FFTWindowsAnalyzed == 0 {
		t.Error("expected at least one FFT window analyzed")
	}
	if stats.Primary.TotalEvaluations == 0 {
		t.Error("expected at least one primary evaluation")
	}
}

func TestManualCaptureRoundTrip(t *testing.T) {
	p := newTestPipeline(t, testPipelineConfig(), Callbacks{})
	n := seconds(1)
	if _, err := p.Push([][]float32{silence(n), silence(n)}); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if err := p.BeginCapture(0); err != nil {
		t.Fatalf("BeginCapture failed: %v", err)
	}
	if _, err := p.Push([][]float32{silence(n), silence(n)}); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	buf, err := p.EndCapture(uint64(2*n), true)
	if err != nil {
		t.Fatalf("EndCapture failed: %v", err)
	}
	if buf.Length != 2*n {
		t.Errorf("expected captured length %d, got %d", 2*n, buf.Length)
	}
}
