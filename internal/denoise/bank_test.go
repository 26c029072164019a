package denoise

import (
	"math"
	"testing"

	"github.com/theOehrly/Formula-VAD/internal/ring"
)

func silentFrame() []float32 {
	return make([]float32, FrameSize)
}

func toneFrame(amplitude float32) []float32 {
	out := make([]float32, FrameSize)
	for i := range out {
		out[i] = amplitude * float32(math.Sin(2*math.Pi*220*float64(i)/SampleRate))
	}
	return out
}

func TestStateDenoisePanicsOnFrameMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for mismatched frame size, got none")
		}
	}()
	s := NewState()
	out := make([]float32, FrameSize)
	s.Denoise(ring.SplitSlice[float32]{First: make([]float32, 10)}, out)
}

func TestStateDenoiseSilenceProducesLowVAD(t *testing.T) {
	s := NewState()
	out := make([]float32, FrameSize)
	var last float32
	for i := 0; i < 20; i++ {
		last = s.Denoise(ring.SplitSlice[float32]{First: silentFrame()}, out)
	}
	if last > 0.05 {
		t.Errorf("expected near-zero VAD score for silence, got %v", last)
	}
}

func TestStateDenoiseLoudToneProducesHigherVADThanQuietTone(t *testing.T) {
	s := NewState()
	out := make([]float32, FrameSize)

	var quiet, loud float32
	for i := 0; i < 20; i++ {
		quiet = s.Denoise(ring.SplitSlice[float32]{First: toneFrame(0.01)}, out)
	}
	s.Reset()
	for i := 0; i < 20; i++ {
		loud = s.Denoise(ring.SplitSlice[float32]{First: toneFrame(0.5)}, out)
	}
	if loud <= quiet {
		t.Errorf("expected loud tone VAD (%v) to exceed quiet tone VAD (%v)", loud, quiet)
	}
}

func TestBankReportsMinimumVADAcrossChannels(t *testing.T) {
	bank := NewBank(2)
	seg := ring.NewSegment[float32](2)
	seg.Length = FrameSize
	seg.Channels[0] = ring.SplitSlice[float32]{First: toneFrame(0.5)}
	seg.Channels[1] = ring.SplitSlice[float32]{First: silentFrame()}

	outs := [][]float32{make([]float32, FrameSize), make([]float32, FrameSize)}

	var v float32
	for i := 0; i < 20; i++ {
		v = bank.DenoiseSegment(seg, outs)
	}
	if v > 0.05 {
		t.Errorf("expected bank VAD to track the quieter (silent) channel, got %v", v)
	}
}
