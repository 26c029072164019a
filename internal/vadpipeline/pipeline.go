package vadpipeline

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/theOehrly/Formula-VAD/internal/capture"
	"github.com/theOehrly/Formula-VAD/internal/config"
	"github.com/theOehrly/Formula-VAD/internal/denoise"
	"github.com/theOehrly/Formula-VAD/internal/fsm"
	"github.com/theOehrly/Formula-VAD/internal/metrics"
	"github.com/theOehrly/Formula-VAD/internal/ring"
	"github.com/theOehrly/Formula-VAD/internal/spectrum"
)

// Callbacks holds the optional hooks a Pipeline invokes synchronously from
// within Push or EndCapture.
type Callbacks struct {
	// OnRecording fires when a completed speech segment's padded audio has
	// been fully collected. Ownership of buf passes to the callback; it
	// must copy anything it needs to retain.
	OnRecording func(buf *capture.AudioBuffer)
}

type pendingFinalize struct {
	active bool
	to     uint64
	keep   bool
}

// Stats is a snapshot of the pipeline's running counters, exposed so an
// external harness can reconstruct detection quality without this package
// computing a score itself.
type Stats struct {
	SamplesPushed       uint64
	FramesRead          uint64
	DenoiserInvocations uint64
	FFTWindowsAnalyzed  uint64
	Primary             fsm.Stats
	Alternates          []fsm.Stats
}

// Pipeline is one configured instance of the full VAD processing chain. It
// owns every sub-component and all of its heap allocations; nothing is
// shared with another Pipeline instance.
type Pipeline struct {
	logger    *slog.Logger
	metrics   *metrics.Metrics
	callbacks Callbacks

	sampleRate  int
	numChannels int
	fftSize     int
	useDenoiser bool
	readSize    int

	maxCaptureSamples uint64

	buffer    *ring.MultiRingBuffer[float32]
	readCount uint64

	rawSeg *ring.Segment[float32]

	denoiserBank *denoise.Bank
	denoisedBuf  [][]float32
	denoisedSeg  *ring.Segment[float32]

	fftEngine  *spectrum.Engine
	hannWindow []float32
	fftWriter  *ring.SegmentWriter[float32]
	fftResult  *spectrum.Result

	accumRNNVAD float64
	accumRatio  float64
	accumWeight float64

	bandVol []float32
	rms     []float64

	primary    *fsm.Machine
	alternates []*fsm.Machine

	recorder        *capture.Recorder
	pendingFinalize pendingFinalize

	samplesPushed       uint64
	framesRead          uint64
	denoiserInvocations uint64
	fftWindowsAnalyzed  uint64
}

// New constructs a Pipeline from a validated configuration. logger and met
// may be nil; a nil logger falls back to slog.Default(), and a nil met
// simply disables metrics recording (useful in tests, where constructing a
// fresh metrics.Metrics would attempt to re-register collectors against the
// default Prometheus registry).
func New(cfg *config.Config, logger *slog.Logger, met *metrics.Metrics, callbacks Callbacks) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("vadpipeline: invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	sampleRate := cfg.Audio.SampleRate
	numChannels := cfg.Audio.NumChannels
	fftSize := cfg.Audio.FFTSize

	capacity := int(cfg.Recorder.RingBufferSeconds * float64(sampleRate))
	if capacity < 2*sampleRate {
		return nil, fmt.Errorf("vadpipeline: ring_buffer_seconds too small: must hold at least 2 seconds of lookbehind")
	}

	fftEngine, err := spectrum.New(fftSize, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("vadpipeline: fft engine: %w", err)
	}

	primary, err := fsm.New(cfg.VAD.Primary, sampleRate, fftSize)
	if err != nil {
		return nil, fmt.Errorf("vadpipeline: primary vad config: %w", err)
	}
	alternates := make([]*fsm.Machine, len(cfg.VAD.Alternates))
	for i, altCfg := range cfg.VAD.Alternates {
		m, err := fsm.New(altCfg, sampleRate, fftSize)
		if err != nil {
			return nil, fmt.Errorf("vadpipeline: alternate vad config %d: %w", i, err)
		}
		alternates[i] = m
	}

	readSize := fftSize
	var bank *denoise.Bank
	var denoisedBuf [][]float32
	var denoisedSeg *ring.Segment[float32]
	if cfg.Audio.UseDenoiser {
		readSize = denoise.FrameSize
		bank = denoise.NewBank(numChannels)
		denoisedBuf = make([][]float32, numChannels)
		denoisedSeg = ring.NewSegment[float32](numChannels)
		denoisedSeg.Length = readSize
		for ch := 0; ch < numChannels; ch++ {
			denoisedBuf[ch] = make([]float32, readSize)
			denoisedSeg.Channels[ch] = ring.SplitSlice[float32]{First: denoisedBuf[ch]}
		}
	}

	fftResult := &spectrum.Result{FFTSize: fftSize, Bins: make([][]float32, numChannels)}
	for ch := 0; ch < numChannels; ch++ {
		fftResult.Bins[ch] = make([]float32, fftEngine.BinCount())
	}

	p := &Pipeline{
		logger:            logger,
		metrics:           met,
		callbacks:         callbacks,
		sampleRate:        sampleRate,
		numChannels:       numChannels,
		fftSize:           fftSize,
		useDenoiser:       cfg.Audio.UseDenoiser,
		readSize:          readSize,
		maxCaptureSamples: uint64(cfg.Recorder.MaxCaptureSec * float64(sampleRate)),
		buffer:            ring.NewMultiRingBuffer[float32](numChannels, capacity),
		rawSeg:            ring.NewSegment[float32](numChannels),
		denoiserBank:      bank,
		denoisedBuf:       denoisedBuf,
		denoisedSeg:       denoisedSeg,
		fftEngine:         fftEngine,
		hannWindow:        spectrum.HannWindow(fftSize),
		fftWriter:         ring.NewSegmentWriter[float32](numChannels, fftSize),
		fftResult:         fftResult,
		bandVol:           make([]float32, numChannels),
		rms:               make([]float64, numChannels),
		primary:           primary,
		alternates:        alternates,
		recorder:          capture.New(numChannels, sampleRate),
	}
	p.rawSeg.Length = readSize

	logger.Info("vad pipeline constructed",
		slog.Int("sample_rate", sampleRate),
		slog.Int("num_channels", numChannels),
		slog.Int("fft_size", fftSize),
		slog.Bool("use_denoiser", cfg.Audio.UseDenoiser),
		slog.Int("alternate_configs", len(alternates)),
	)
	return p, nil
}

// TotalWriteCount returns the absolute index one past the last sample
// admitted by Push.
func (p *Pipeline) TotalWriteCount() uint64 { return p.buffer.TotalWriteCount() }

// Segments returns every speech segment the primary state machine has
// emitted so far.
func (p *Pipeline) Segments() []fsm.Segment { return p.primary.Segments() }

// AlternateSegments returns the segments the i-th alternate configuration
// would have emitted, had it driven the recorder.
func (p *Pipeline) AlternateSegments(i int) []fsm.Segment { return p.alternates[i].Segments() }

// Stats returns a snapshot of the pipeline's running counters.
func (p *Pipeline) Stats() Stats {
	alt := make([]fsm.Stats, len(p.alternates))
	for i, m := range p.alternates {
		alt[i] = m.Stats()
	}
	return Stats{
		SamplesPushed:       p.samplesPushed,
		FramesRead:          p.framesRead,
		DenoiserInvocations: p.denoiserInvocations,
		FFTWindowsAnalyzed:  p.fftWindowsAnalyzed,
		Primary:             p.primary.Stats(),
		Alternates:          alt,
	}
}

// SliceSegment fills out with borrowed views over the ring buffer's
// [absFrom, absTo) range. See ring.MultiRingBuffer.ReadInto for the error
// conditions.
func (p *Pipeline) SliceSegment(out []ring.SplitSlice[float32], absFrom, absTo uint64) error {
	return p.buffer.ReadInto(out, absFrom, absTo)
}

// BeginCapture manually starts a recorder capture at an absolute sample
// index, independent of the state machine. Intended for an embedder driving
// recording decisions of its own rather than the primary VAD's.
func (p *Pipeline) BeginCapture(absFrom uint64) error {
	if err := p.recorder.Start(absFrom); err != nil {
		return fmt.Errorf("vadpipeline: begin capture: %w", err)
	}
	if p.metrics != nil {
		p.metrics.RecordRecordingStarted()
	}
	return nil
}

// EndCapture manually finalizes a capture started with BeginCapture,
// returning the collected AudioBuffer when keep is true.
func (p *Pipeline) EndCapture(absTo uint64, keep bool) (*capture.AudioBuffer, error) {
	buf, err := p.recorder.Finalize(absTo, keep)
	if err != nil {
		return nil, fmt.Errorf("vadpipeline: end capture: %w", err)
	}
	if p.metrics != nil {
		p.metrics.RecordRecordingFinalized(keep)
	}
	return buf, nil
}

// Push admits pcm (one equal-length slice per channel) into the pipeline,
// writing it into the ring buffer in chunks bounded by half the buffer's
// capacity, running one pass of analysis after each chunk, and returns the
// absolute sample index the first sample of pcm was written at. An empty
// push is a no-op.
func (p *Pipeline) Push(pcm [][]float32) (uint64, error) {
	if len(pcm) != p.numChannels {
		return 0, fmt.Errorf("vadpipeline: push has %d channels, pipeline has %d", len(pcm), p.numChannels)
	}
	firstIndex := p.buffer.TotalWriteCount()
	total := 0
	if len(pcm) > 0 {
		total = len(pcm[0])
	}
	for _, ch := range pcm {
		if len(ch) != total {
			return 0, fmt.Errorf("vadpipeline: channel length mismatch: %d vs %d", len(ch), total)
		}
	}
	if total == 0 {
		return firstIndex, nil
	}

	start := time.Now()
	chunkSize := p.buffer.Capacity() / 2
	if chunkSize <= 0 {
		chunkSize = p.buffer.Capacity()
	}

	offset := 0
	for offset < total {
		n := total - offset
		if n > chunkSize {
			n = chunkSize
		}
		p.buffer.Write(pcm, offset, n)
		offset += n

		p.runAvailableFrames()
		if err := p.copyToRecorder(); err != nil {
			return firstIndex, err
		}
		p.tryFinalize()
		p.checkCaptureWatchdog()
	}

	p.samplesPushed += uint64(total)
	if p.metrics != nil {
		p.metrics.RecordPush(1, total, time.Since(start).Seconds())
	}
	return firstIndex, nil
}

// runAvailableFrames drains every whole readSize-sample frame currently
// available in the ring buffer through pre-analysis, denoise and FFT
// windowing.
func (p *Pipeline) runAvailableFrames() {
	for p.buffer.TotalWriteCount()-p.readCount >= uint64(p.readSize) {
		p.runOnce()
	}
}

func (p *Pipeline) runOnce() {
	from := p.readCount
	to := from + uint64(p.readSize)
	if err := p.buffer.ReadInto(p.rawSeg.Channels, from, to); err != nil {
		p.logger.Error("failed to read frame from ring buffer", slog.String("error", err.Error()))
		p.readCount = to
		return
	}
	p.rawSeg.Index = from

	ratio := p.volumeRatio(p.rawSeg)

	var vad float32 = 1.0
	src := p.rawSeg
	if p.useDenoiser {
		vad = p.denoiserBank.DenoiseSegment(p.rawSeg, p.denoisedBuf)
		p.denoisedSeg.Index = from
		src = p.denoisedSeg
		p.denoiserInvocations++
		if p.metrics != nil {
			p.metrics.RecordDenoiserInvocation(float64(vad))
		}
	}

	p.feedFFTWindow(src, vad, float32(ratio))
	p.framesRead++
	p.readCount = to
}

// volumeRatio computes min-channel-RMS / max-channel-RMS over seg, the
// monaural-voice-versus-symmetric-noise hint computed pre-denoise from raw
// samples.
func (p *Pipeline) volumeRatio(seg *ring.Segment[float32]) float64 {
	for ch := range seg.Channels {
		p.rms[ch] = rms(seg.Channels[ch])
	}
	min, max := p.rms[0], p.rms[0]
	for _, v := range p.rms[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max == 0 {
		return 0
	}
	return min / max
}

func rms(s ring.SplitSlice[float32]) float64 {
	var sum float64
	for _, v := range s.First {
		sum += float64(v) * float64(v)
	}
	for _, v := range s.Second {
		sum += float64(v) * float64(v)
	}
	n := s.Len()
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}

// feedFFTWindow accumulates seg into the FFT window, splitting the write
// across window boundaries as needed and weighting the RNN-VAD/volume-ratio
// contribution of seg by the fraction of the current window it fills.
func (p *Pipeline) feedFFTWindow(seg *ring.Segment[float32], rnnVAD, ratio float32) {
	offset := 0
	for offset < seg.Length {
		n, err := p.fftWriter.Write(seg, offset)
		if err != nil {
			p.logger.Error("failed to accumulate fft window", slog.String("error", err.Error()))
			return
		}
		if n == 0 {
			return
		}
		weight := float64(n) / float64(p.fftSize)
		p.accumRNNVAD += float64(rnnVAD) * weight
		p.accumRatio += float64(ratio) * weight
		p.accumWeight += weight
		offset += n

		if p.fftWriter.Full() {
			p.analyzeCurrentWindow()
			nextIndex := p.fftWriter.Segment().Index + uint64(p.fftSize)
			p.fftWriter.Reset(nextIndex)
			p.accumRNNVAD, p.accumRatio, p.accumWeight = 0, 0, 0
		}
	}
}

func (p *Pipeline) analyzeCurrentWindow() {
	start := time.Now()
	windowSeg := p.fftWriter.Segment()
	for ch := 0; ch < p.numChannels; ch++ {
		if err := p.fftEngine.Transform(windowSeg.Channels[ch], p.hannWindow, p.fftResult.Bins[ch]); err != nil {
			p.logger.Error("fft transform failed", slog.String("error", err.Error()))
			return
		}
	}
	p.fftResult.Index = windowSeg.Index
	p.fftWindowsAnalyzed++
	if p.metrics != nil {
		p.metrics.RecordFFTWindow(time.Since(start).Seconds())
	}

	avgRNNVAD, avgRatio := 0.0, 0.0
	if p.accumWeight > 0 {
		avgRNNVAD = p.accumRNNVAD / p.accumWeight
		avgRatio = p.accumRatio / p.accumWeight
	}

	p.evaluate("primary", p.primary, windowSeg.Index, float32(avgRNNVAD), float32(avgRatio), true)
	for i, alt := range p.alternates {
		p.evaluate(fmt.Sprintf("alt%d", i), alt, windowSeg.Index, float32(avgRNNVAD), float32(avgRatio), false)
	}
}

// evaluate runs one state machine over the current window's band volumes,
// records its state transition and (for the machine driving the recorder)
// acts on its recording decision.
func (p *Pipeline) evaluate(name string, m *fsm.Machine, index uint64, rnnVAD, ratio float32, drivesRecorder bool) {
	cfg := m.Config()
	if err := p.fftEngine.AverageVolumeInBand(p.fftResult, cfg.SpeechMinFreq, cfg.SpeechMaxFreq, p.bandVol); err != nil {
		p.logger.Error("band average failed", slog.String("config", name), slog.String("error", err.Error()))
		return
	}

	prevState := m.State()
	dec := m.Evaluate(fsm.Input{
		Index:           index,
		VolumeByChannel: p.bandVol,
		VolumeRatio:     ratio,
		RNNVAD:          rnnVAD,
	})
	if next := m.State(); next != prevState && p.metrics != nil {
		p.metrics.RecordStateTransition(name, prevState.String(), next.String())
	}

	if drivesRecorder && dec.RecordingState == fsm.RecordingCompleted {
		if segs := m.Segments(); len(segs) > 0 {
			last := segs[len(segs)-1]
			if p.metrics != nil {
				p.metrics.RecordSegmentEmitted(float64(last.SampleTo-last.SampleFrom) / float64(p.sampleRate))
			}
		}
	}
	if !drivesRecorder {
		return
	}

	switch dec.RecordingState {
	case fsm.RecordingStarted:
		if err := p.recorder.Start(dec.SampleNumber); err != nil {
			p.logger.Error("recorder start failed", slog.String("error", err.Error()))
			return
		}
		if p.metrics != nil {
			p.metrics.RecordRecordingStarted()
		}
	case fsm.RecordingCompleted, fsm.RecordingAborted:
		p.pendingFinalize = pendingFinalize{
			active: true,
			to:     dec.SampleNumber,
			keep:   dec.RecordingState == fsm.RecordingCompleted,
		}
		p.tryFinalize()
	}
}

// copyToRecorder feeds every ring-buffer sample not yet handed to the
// recorder into it, keeping the recording ahead of overwrite regardless of
// how far offset_end's lookahead padding reaches into the future.
func (p *Pipeline) copyToRecorder() error {
	if p.recorder.Status() != capture.StatusRecording {
		return nil
	}
	from := p.recorder.LastEndIndex()
	to := p.buffer.TotalWriteCount()
	if to <= from {
		return nil
	}
	splits, err := p.buffer.ReadSlice(from, to)
	if err != nil {
		return fmt.Errorf("vadpipeline: reading samples for recorder: %w", err)
	}
	seg := &ring.Segment[float32]{Channels: splits, Index: from, Length: int(to - from)}
	prevCap := p.recorder.Capacity()
	if _, err := p.recorder.Write(seg); err != nil {
		return fmt.Errorf("vadpipeline: writing to recorder: %w", err)
	}
	if newCap := p.recorder.Capacity(); newCap != prevCap && p.metrics != nil {
		p.metrics.RecordRecorderGrowth(newCap * p.numChannels * 4)
	}
	return nil
}

// tryFinalize completes a pending recorder finalize once enough samples
// have arrived to satisfy it; offset_end may point past total_write_count
// at decision time, so this may take several Push calls to resolve.
func (p *Pipeline) tryFinalize() {
	if !p.pendingFinalize.active {
		return
	}
	if p.recorder.Status() != capture.StatusRecording {
		p.pendingFinalize = pendingFinalize{}
		return
	}
	if p.recorder.LastEndIndex() < p.pendingFinalize.to {
		return
	}
	buf, err := p.recorder.Finalize(p.pendingFinalize.to, p.pendingFinalize.keep)
	if err != nil {
		p.logger.Error("recorder finalize failed", slog.String("error", err.Error()))
		p.pendingFinalize = pendingFinalize{}
		return
	}
	keep := p.pendingFinalize.keep
	p.pendingFinalize = pendingFinalize{}
	if p.metrics != nil {
		p.metrics.RecordRecordingFinalized(keep)
	}
	if keep && buf != nil && p.callbacks.OnRecording != nil {
		p.callbacks.OnRecording(buf)
	}
}

// checkCaptureWatchdog forcibly aborts a capture that has been open longer
// than max_capture_sec, guarding against an FSM stuck open (e.g. by a
// mis-seeded initial_long_term_avg) holding recorder memory forever.
func (p *Pipeline) checkCaptureWatchdog() {
	if p.maxCaptureSamples == 0 {
		return
	}
	if p.recorder.Status() != capture.StatusRecording {
		return
	}
	if p.buffer.TotalWriteCount()-p.recorder.StartIndex() <= p.maxCaptureSamples {
		return
	}
	p.logger.Warn("capture exceeded max_capture_sec, aborting",
		slog.Uint64("start_index", p.recorder.StartIndex()))
	if _, err := p.recorder.Finalize(p.recorder.LastEndIndex(), false); err != nil {
		p.logger.Error("failed to abort overlong capture", slog.String("error", err.Error()))
		return
	}
	if p.metrics != nil {
		p.metrics.RecordRecordingFinalized(false)
	}
	p.pendingFinalize = pendingFinalize{}
}
