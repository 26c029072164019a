package fsm

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/theOehrly/Formula-VAD/internal/rollingavg"
)

// State is one of the four states the machine can be in.
type State int

const (
	StateClosed State = iota
	StateOpening
	StateOpen
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// RecordingState describes what a Decision asks the caller to do with the
// recorder.
type RecordingState int

const (
	RecordingNone RecordingState = iota
	RecordingStarted
	RecordingCompleted
	RecordingAborted
)

// Decision is the machine's verdict for one evaluation. SampleNumber's
// meaning depends on RecordingState: the padded start offset for Started,
// the padded end offset the caller must wait for before finalizing for
// Completed/Aborted.
type Decision struct {
	RecordingState RecordingState
	SampleNumber   uint64
}

// Input is one spectral evaluation's worth of pre-analysis results, already
// windowed and band-filtered by the orchestrator.
type Input struct {
	Index           uint64
	VolumeByChannel []float32
	VolumeRatio     float32
	RNNVAD          float32
}

// Segment is an emitted speech interval, padded with lookbehind/lookahead
// and tagged with debug accumulators averaged over its triggered span.
type Segment struct {
	ID                     uuid.UUID
	SampleFrom             uint64
	SampleTo               uint64
	DebugRNNVAD            float32
	DebugAvgSpeechVolRatio float32
}

// Stats are running per-config tallies, exposed so an external harness
// could reconstruct a detection quality score without this package
// computing one itself (see SPEC_FULL.md §5).
type Stats struct {
	TotalEvaluations     uint64
	TriggeredEvaluations uint64
	SegmentsEmitted      uint64
	Aborted              uint64
}

// Machine is one configured instance of the four-state speech detector.
type Machine struct {
	cfg        Config
	sampleRate int

	minConsecutiveSamples uint64
	maxGapSamples         uint64
	minVADDurationSamples uint64
	padSamples            uint64

	longTerm  *rollingavg.Average
	shortTerm *rollingavg.Average
	ratioAvg  *rollingavg.Average

	state       State
	speechStart uint64
	speechEnd   uint64

	accumRNNVAD float64
	accumRatio  float64
	accumCount  int

	segments []Segment
	stats    Stats
}

// New constructs a Machine for a given config, sample rate and fft_size
// (used to derive how many spectral evaluations correspond to each
// configured window-in-seconds).
func New(cfg Config, sampleRate, fftSize int) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("fsm: sample_rate must be positive, got %d", sampleRate)
	}
	if fftSize <= 0 {
		return nil, fmt.Errorf("fsm: fft_size must be positive, got %d", fftSize)
	}

	evalsPerSec := float64(sampleRate) / float64(fftSize)
	longWindow := windowSize(evalsPerSec, cfg.LongTermSpeechAvgSec)
	shortWindow := windowSize(evalsPerSec, cfg.ShortTermSpeechAvgSec)
	ratioWindow := windowSize(evalsPerSec, cfg.ChannelVolRatioAvgSec)

	var longTerm *rollingavg.Average
	if cfg.InitialLongTermAvg > 0 {
		longTerm = rollingavg.NewSeeded(longWindow, cfg.InitialLongTermAvg)
	} else {
		longTerm = rollingavg.New(longWindow)
	}

	return &Machine{
		cfg:                   cfg,
		sampleRate:            sampleRate,
		minConsecutiveSamples: uint64(cfg.MinConsecutiveSecToOpen * float64(sampleRate)),
		maxGapSamples:         uint64(cfg.MaxSpeechGapSec * float64(sampleRate)),
		minVADDurationSamples: uint64(cfg.MinVADDurationSec * float64(sampleRate)),
		padSamples:            uint64(2 * sampleRate),
		longTerm:              longTerm,
		shortTerm:             rollingavg.New(shortWindow),
		ratioAvg:              rollingavg.New(ratioWindow),
		state:                 StateClosed,
	}, nil
}

func windowSize(evalsPerSec, seconds float64) int {
	n := int(math.Floor(evalsPerSec * seconds))
	if n < 1 {
		n = 1
	}
	return n
}

// Config returns the configuration this machine was built with.
func (m *Machine) Config() Config { return m.cfg }

// State returns the machine's current state.
func (m *Machine) State() State { return m.state }

// Segments returns every speech segment emitted so far. The returned slice
// is a copy; callers may retain it freely.
func (m *Machine) Segments() []Segment {
	out := make([]Segment, len(m.segments))
	copy(out, m.segments)
	return out
}

// Stats returns a snapshot of the machine's running tallies.
func (m *Machine) Stats() Stats { return m.stats }

func (m *Machine) offsetStart(i uint64) uint64 {
	if i < m.padSamples {
		return 0
	}
	return i - m.padSamples
}

func (m *Machine) offsetEnd(i uint64) uint64 {
	return i + m.padSamples
}

func minMax(values []float32) (float32, float32) {
	if len(values) == 0 {
		return 0, 0
	}
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

func (m *Machine) resetAccum() {
	m.accumRNNVAD = 0
	m.accumRatio = 0
	m.accumCount = 0
}

func (m *Machine) accumulate(in Input) {
	m.accumRNNVAD += float64(in.RNNVAD)
	m.accumRatio += float64(in.VolumeRatio)
	m.accumCount++
}

// Evaluate advances the machine by one spectral evaluation and returns the
// Decision, if any, the caller should act on.
func (m *Machine) Evaluate(in Input) Decision {
	m.stats.TotalEvaluations++

	minVol, _ := minMax(in.VolumeByChannel)
	short := m.shortTerm.Push(float64(minVol))
	ratio := m.ratioAvg.Push(float64(in.VolumeRatio))

	base, ok := m.longTerm.LastAvg()
	if !ok {
		base = m.cfg.InitialLongTermAvg
		if base == 0 {
			base = short
		}
	}
	threshold := base * m.cfg.SpeechThresholdFactor
	// channel_vol_ratio_threshold is a ceiling, not a floor: a low ratio
	// means one channel dominates (the driver speaking into one mic), a
	// ratio near 1 means symmetric content (engine/road noise picked up
	// evenly by every channel). Only the former should open the gate.
	triggered := short > threshold && ratio < m.cfg.ChannelVolRatioThreshold

	// Self-suppressing: the long-term average is only updated while not
	// triggered, so a sustained loud signal cannot drag its own threshold
	// up and re-close the gate on itself.
	if !triggered {
		m.longTerm.Push(float64(minVol))
	}
	if triggered {
		m.stats.TriggeredEvaluations++
	}

	var decision Decision

	switch m.state {
	case StateClosed:
		if triggered {
			m.state = StateOpening
			m.speechStart = in.Index
			m.resetAccum()
			m.accumulate(in)
		}

	case StateOpening:
		if triggered {
			m.accumulate(in)
			if in.Index-m.speechStart >= m.minConsecutiveSamples {
				m.state = StateOpen
				decision.RecordingState = RecordingStarted
				decision.SampleNumber = m.offsetStart(m.speechStart)
			}
		} else {
			m.state = StateClosed
		}

	case StateOpen:
		if triggered {
			m.accumulate(in)
		} else {
			m.state = StateClosing
			m.speechEnd = in.Index
		}

	case StateClosing:
		if triggered {
			m.state = StateOpen
			m.accumulate(in)
		} else if in.Index-m.speechEnd >= m.maxGapSamples {
			decision = m.finalize()
			m.state = StateClosed
		}
	}

	return decision
}

func (m *Machine) finalize() Decision {
	duration := m.speechEnd - m.speechStart
	if float64(duration)/float64(m.sampleRate) >= m.cfg.MinVADDurationSec {
		seg := Segment{
			ID:         uuid.New(),
			SampleFrom: m.offsetStart(m.speechStart),
			SampleTo:   m.offsetEnd(m.speechEnd),
		}
		if m.accumCount > 0 {
			seg.DebugRNNVAD = float32(m.accumRNNVAD / float64(m.accumCount))
			seg.DebugAvgSpeechVolRatio = float32(m.accumRatio / float64(m.accumCount))
		}
		m.segments = append(m.segments, seg)
		m.stats.SegmentsEmitted++
		return Decision{RecordingState: RecordingCompleted, SampleNumber: seg.SampleTo}
	}
	m.stats.Aborted++
	return Decision{RecordingState: RecordingAborted, SampleNumber: m.offsetEnd(m.speechEnd)}
}
