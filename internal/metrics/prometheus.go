package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the VAD pipeline.
type Metrics struct {
	// Ingress metrics
	FramesPushed  prometheus.Counter
	SamplesPushed prometheus.Counter
	PushDuration  prometheus.Histogram

	// Denoiser metrics
	DenoiserInvocations prometheus.Counter
	DenoiserVADScore    prometheus.Histogram

	// Spectral analysis metrics
	FFTWindowsAnalyzed prometheus.Counter
	FFTProcessingTime  prometheus.Histogram

	// State machine metrics
	StateTransitions *prometheus.CounterVec
	SegmentsEmitted  prometheus.Counter
	SegmentDuration  prometheus.Histogram

	// Recorder metrics
	RecordingsStarted   prometheus.Counter
	RecordingsCompleted prometheus.Counter
	RecordingsAborted   prometheus.Counter
	RecorderGrowthEvents prometheus.Counter
	RecorderBufferBytes prometheus.Gauge
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		FramesPushed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vad_frames_pushed_total",
			Help: "Total number of pipeline frames pushed",
		}),
		SamplesPushed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vad_samples_pushed_total",
			Help: "Total number of audio samples pushed per channel",
		}),
		PushDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vad_push_duration_seconds",
			Help:    "Time spent inside one Push call",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),

		DenoiserInvocations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vad_denoiser_invocations_total",
			Help: "Total number of denoiser frame evaluations",
		}),
		DenoiserVADScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vad_denoiser_score",
			Help:    "Per-frame denoiser speech score",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),

		FFTWindowsAnalyzed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vad_fft_windows_analyzed_total",
			Help: "Total number of FFT windows analyzed",
		}),
		FFTProcessingTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vad_fft_processing_duration_seconds",
			Help:    "Time spent transforming a single FFT window",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 12),
		}),

		StateTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vad_state_transitions_total",
			Help: "Total number of VAD state machine transitions",
		}, []string{"config", "from", "to"}),
		SegmentsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vad_segments_emitted_total",
			Help: "Total number of speech segments emitted",
		}),
		SegmentDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vad_segment_duration_seconds",
			Help:    "Duration of emitted speech segments",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		}),

		RecordingsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vad_recordings_started_total",
			Help: "Total number of recorder captures started",
		}),
		RecordingsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vad_recordings_completed_total",
			Help: "Total number of recorder captures finalized and kept",
		}),
		RecordingsAborted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vad_recordings_aborted_total",
			Help: "Total number of recorder captures finalized and discarded",
		}),
		RecorderGrowthEvents: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vad_recorder_growth_events_total",
			Help: "Total number of times the recorder grew its backing storage",
		}),
		RecorderBufferBytes: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vad_recorder_buffer_bytes",
			Help: "Current size of the recorder's backing storage in bytes",
		}),
	}
}

// RecordPush records one Push call.
func (m *Metrics) RecordPush(frames, samplesPerChannel int, durationSeconds float64) {
	m.FramesPushed.Add(float64(frames))
	m.SamplesPushed.Add(float64(samplesPerChannel))
	m.PushDuration.Observe(durationSeconds)
}

// RecordDenoiserInvocation records one denoiser frame evaluation.
func (m *Metrics) RecordDenoiserInvocation(vadScore float64) {
	m.DenoiserInvocations.Inc()
	m.DenoiserVADScore.Observe(vadScore)
}

// RecordFFTWindow records one completed FFT window transform.
func (m *Metrics) RecordFFTWindow(processingTimeSeconds float64) {
	m.FFTWindowsAnalyzed.Inc()
	m.FFTProcessingTime.Observe(processingTimeSeconds)
}

// RecordStateTransition records a state machine transition for a named
// config (e.g. "primary", or an alternate config's label).
func (m *Metrics) RecordStateTransition(config, from, to string) {
	m.StateTransitions.WithLabelValues(config, from, to).Inc()
}

// RecordSegmentEmitted records a finalized speech segment.
func (m *Metrics) RecordSegmentEmitted(durationSeconds float64) {
	m.SegmentsEmitted.Inc()
	m.SegmentDuration.Observe(durationSeconds)
}

// RecordRecordingStarted records a recorder capture starting.
func (m *Metrics) RecordRecordingStarted() {
	m.RecordingsStarted.Inc()
}

// RecordRecordingFinalized records a recorder capture ending, kept or discarded.
func (m *Metrics) RecordRecordingFinalized(kept bool) {
	if kept {
		m.RecordingsCompleted.Inc()
	} else {
		m.RecordingsAborted.Inc()
	}
}

// RecordRecorderGrowth records the recorder extending its backing storage.
func (m *Metrics) RecordRecorderGrowth(newSizeBytes int) {
	m.RecorderGrowthEvents.Inc()
	m.RecorderBufferBytes.Set(float64(newSizeBytes))
}
