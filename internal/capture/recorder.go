package capture

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/theOehrly/Formula-VAD/internal/ring"
)

var (
	// ErrAlreadyRecording is returned by Start when a capture is already open.
	ErrAlreadyRecording = errors.New("capture: already recording")

	// ErrNotRecording is returned by Write/Finalize when no capture is open.
	ErrNotRecording = errors.New("capture: no capture in progress")

	// ErrMissingData is returned by Finalize(keep=true) when the samples
	// up to `to` have not all been written yet.
	ErrMissingData = errors.New("capture: finalize requires samples not yet written")
)

// Status is the recorder's current lifecycle state.
type Status int

const (
	StatusIdle Status = iota
	StatusRecording
)

// AudioBuffer is a finished capture handed out with its own storage; the
// recorder never retains a reference to it after Finalize returns.
type AudioBuffer struct {
	ID          uuid.UUID
	SampleRate  int
	NumChannels int
	Length      int
	ChannelPCM  [][]float32
}

// Recorder accumulates samples for a single in-flight speech capture at a
// time. It grows its backing storage in chunks of at least growChunk
// samples rather than per write, and reuses storage across idle periods
// when a capture is discarded (Finalize(keep=false)).
type Recorder struct {
	sampleRate  int
	numChannels int
	growChunk   int

	status Status
	writer *ring.SegmentWriter[float32]

	startIndex   uint64
	lastEndIndex uint64
}

// New constructs a Recorder that grows in chunks of at least 10 seconds of
// audio at sampleRate, per spec.
func New(numChannels, sampleRate int) *Recorder {
	growChunk := sampleRate * 10
	return &Recorder{
		sampleRate:  sampleRate,
		numChannels: numChannels,
		growChunk:   growChunk,
		writer:      ring.NewSegmentWriter[float32](numChannels, growChunk),
	}
}

// Status returns the recorder's current lifecycle state.
func (r *Recorder) Status() Status { return r.status }

// StartIndex returns the absolute sample index the current (or most recent)
// capture began at.
func (r *Recorder) StartIndex() uint64 { return r.startIndex }

// LastEndIndex returns the absolute sample index up to which the current
// capture has actually received data.
func (r *Recorder) LastEndIndex() uint64 { return r.lastEndIndex }

// Capacity returns the number of samples per channel the backing storage
// currently holds, growing by at least growChunk at a time as Write demands
// more.
func (r *Recorder) Capacity() int { return r.writer.Segment().Length }

// Start begins a new capture at absolute sample index from.
func (r *Recorder) Start(from uint64) error {
	if r.status == StatusRecording {
		return ErrAlreadyRecording
	}
	r.writer.Reset(from)
	r.startIndex = from
	r.lastEndIndex = from
	r.status = StatusRecording
	return nil
}

// Write appends seg (assumed contiguous with the data already written, i.e.
// seg.Index == r.LastEndIndex()) to the in-flight capture, growing storage
// as needed, and returns the number of samples written.
func (r *Recorder) Write(seg *ring.Segment[float32]) (int, error) {
	if r.status != StatusRecording {
		return 0, ErrNotRecording
	}
	needed := r.writer.WriteIndex() + seg.Length
	if cap := r.writer.Segment().Length; needed > cap {
		grown := cap + r.growChunk
		if grown < needed {
			grown = needed
		}
		r.writer.Grow(grown)
	}
	written, err := r.writer.Write(seg, 0)
	if err != nil {
		return 0, err
	}
	r.lastEndIndex = r.startIndex + uint64(r.writer.WriteIndex())
	return written, nil
}

// Finalize ends the in-flight capture. When keep is false the captured
// audio is discarded and storage is reused for the next capture. When keep
// is true, all samples up to `to` must already have been written
// (ErrMissingData otherwise) and the recorder hands out ownership of an
// AudioBuffer covering [startIndex, to), allocating fresh storage for the
// next capture.
func (r *Recorder) Finalize(to uint64, keep bool) (*AudioBuffer, error) {
	if r.status != StatusRecording {
		return nil, ErrNotRecording
	}
	r.status = StatusIdle

	if !keep {
		return nil, nil
	}

	if to < r.startIndex || r.lastEndIndex < to {
		return nil, fmt.Errorf("%w: have [%d, %d), need up to %d", ErrMissingData, r.startIndex, r.lastEndIndex, to)
	}

	length := int(to - r.startIndex)
	seg := r.writer.Segment()
	buf := &AudioBuffer{
		ID:          uuid.New(),
		SampleRate:  r.sampleRate,
		NumChannels: r.numChannels,
		Length:      length,
		ChannelPCM:  make([][]float32, r.numChannels),
	}
	for ch := 0; ch < r.numChannels; ch++ {
		data := make([]float32, length)
		copy(data, seg.Channels[ch].First[:length])
		buf.ChannelPCM[ch] = data
	}

	r.writer = ring.NewSegmentWriter[float32](r.numChannels, r.growChunk)
	return buf, nil
}
