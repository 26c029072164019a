package denoise

import (
	"fmt"
	"math"

	"github.com/theOehrly/Formula-VAD/internal/ring"
)

const (
	// FrameSize is the fixed number of samples per channel the denoiser
	// consumes per call.
	FrameSize = 480
	// SampleRate is the fixed sample rate the frame size above assumes.
	SampleRate = 48000

	pcmScale = 32767.0
	// noiseFloorAlpha is the one-pole tracker's smoothing coefficient;
	// small so the floor estimate follows steady background noise without
	// chasing individual speech peaks.
	noiseFloorAlpha = 0.01
	// vadGain maps frame RMS (post-suppression, normalized) onto [0, 1];
	// picked so typical speech RMS saturates the score rather than
	// sitting in the middle of the range.
	vadGain = 12.0
)

// State holds one channel's noise floor estimate across calls. Instantiate
// one State per audio channel; never share a State across channels.
type State struct {
	noiseFloor  float64
	initialized bool
}

// NewState returns a fresh, unprimed denoiser state.
func NewState() *State { return &State{} }

// Reset clears the tracked noise floor, as if newly constructed.
func (s *State) Reset() {
	s.noiseFloor = 0
	s.initialized = false
}

// Denoise suppresses one 480-sample frame, writing the result into out, and
// returns a [0, 1] speech score for the frame. input and out length
// mismatches against FrameSize are a caller bug — internally impossible if
// the pipeline always reads FrameSize samples before calling in, so this
// asserts rather than returning an error.
func (s *State) Denoise(input ring.SplitSlice[float32], out []float32) float32 {
	if input.Len() != FrameSize {
		panic(fmt.Sprintf("denoise: expected %d input samples, got %d", FrameSize, input.Len()))
	}
	if len(out) != FrameSize {
		panic(fmt.Sprintf("denoise: expected output buffer of length %d, got %d", FrameSize, len(out)))
	}

	var energy float64
	idx := 0
	process := func(v float32) {
		x := float64(v) * pcmScale
		mag := math.Abs(x)
		if !s.initialized {
			s.noiseFloor = mag
			s.initialized = true
		} else {
			s.noiseFloor += noiseFloorAlpha * (mag - s.noiseFloor)
		}

		denoised := x
		if mag > 0 {
			suppressed := mag - s.noiseFloor
			if suppressed < 0 {
				suppressed = 0
			}
			denoised = x * (suppressed / mag)
		}
		out[idx] = float32(denoised / pcmScale)
		energy += denoised * denoised
		idx++
	}
	for _, v := range input.First {
		process(v)
	}
	for _, v := range input.Second {
		process(v)
	}

	rms := math.Sqrt(energy/float64(FrameSize)) / pcmScale
	vad := rms * vadGain
	if vad > 1 {
		vad = 1
	}
	if vad < 0 {
		vad = 0
	}
	return float32(vad)
}
