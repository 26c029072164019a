package denoise

import "github.com/theOehrly/Formula-VAD/internal/ring"

// Bank runs one State per channel and reports the conservative (minimum)
// VAD score across channels for a frame — a single noisy channel is enough
// to suppress the whole frame's speech score.
type Bank struct {
	states []*State
}

// NewBank allocates a bank of numChannels independent states.
func NewBank(numChannels int) *Bank {
	states := make([]*State, numChannels)
	for i := range states {
		states[i] = NewState()
	}
	return &Bank{states: states}
}

// NumChannels returns the channel count.
func (b *Bank) NumChannels() int { return len(b.states) }

// DenoiseSegment runs every channel's State.Denoise over one frame's worth
// of samples, writing results into outs (one reused []float32 per channel),
// and returns the minimum VAD score across channels. seg.Channels and outs
// must each have NumChannels entries and seg.Length must equal FrameSize.
func (b *Bank) DenoiseSegment(seg *ring.Segment[float32], outs [][]float32) float32 {
	minVAD := float32(1)
	for ch, state := range b.states {
		v := state.Denoise(seg.Channels[ch], outs[ch])
		if v < minVAD {
			minVAD = v
		}
	}
	return minVAD
}
