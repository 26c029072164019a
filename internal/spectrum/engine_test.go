package spectrum

import (
	"math"
	"testing"

	"github.com/theOehrly/Formula-VAD/internal/ring"
)

func sineWave(n int, freq, sampleRate float64) []float32 {
	return sineWaveAmplitude(n, freq, sampleRate, 1.0)
}

func sineWaveAmplitude(n int, freq, sampleRate, amplitude float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amplitude * math.Sin(2*math.Pi*freq*float64(i)/sampleRate))
	}
	return out
}

func TestNewRejectsNonPowerOfTwo(t *testing.T) {
	if _, err := New(100, 48000); err == nil {
		t.Error("expected error for non-power-of-two fft_size, got nil")
	}
}

func TestNewRejectsOddSize(t *testing.T) {
	if _, err := New(63, 48000); err == nil {
		t.Error("expected error for odd fft_size, got nil")
	}
}

func TestBinCountAndWidth(t *testing.T) {
	e, err := New(1024, 48000)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if e.BinCount() != 513 {
		t.Errorf("expected bin count 513, got %d", e.BinCount())
	}
	wantWidth := 48000.0 / 1024.0
	if math.Abs(e.BinWidth()-wantWidth) > 1e-9 {
		t.Errorf("expected bin width %v, got %v", wantWidth, e.BinWidth())
	}
}

func TestFreqToBinRejectsOutOfRange(t *testing.T) {
	e, _ := New(1024, 48000)
	if _, err := e.FreqToBin(-1); err == nil {
		t.Error("expected error for negative frequency, got nil")
	}
	if _, err := e.FreqToBin(e.Nyquist() + 1); err == nil {
		t.Error("expected error for frequency above Nyquist, got nil")
	}
}

func TestTransformPureToneConcentratesEnergyAtExpectedBin(t *testing.T) {
	const fftSize = 1024
	const sampleRate = 48000.0
	e, err := New(fftSize, sampleRate)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	window := HannWindow(fftSize)

	// A bin-centered tone avoids spectral leakage complicating the assertion.
	toneBin := 40
	freq := e.BinToFreq(toneBin)
	const amplitude = 0.8
	samples := ring.SplitSlice[float32]{First: sineWaveAmplitude(fftSize, freq, sampleRate, amplitude)}

	out := make([]float32, e.BinCount())
	if err := e.Transform(samples, window, out); err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	peakBin := 0
	for b := 1; b < len(out); b++ {
		if out[b] > out[peakBin] {
			peakBin = b
		}
	}
	if peakBin != toneBin {
		t.Errorf("expected peak at bin %d, got bin %d", toneBin, peakBin)
	}
	if diff := math.Abs(float64(out[peakBin]) - amplitude); diff > 0.02 {
		t.Errorf("expected peak bin magnitude close to amplitude %v, got %v", amplitude, out[peakBin])
	}
}

func TestTransformRejectsLengthMismatch(t *testing.T) {
	e, _ := New(256, 48000)
	window := HannWindow(256)
	out := make([]float32, e.BinCount())

	bad := ring.SplitSlice[float32]{First: make([]float32, 100)}
	if err := e.Transform(bad, window, out); err == nil {
		t.Error("expected error for mismatched sample length, got nil")
	}
}

func TestAverageVolumeInBandSumsWithinRange(t *testing.T) {
	e, _ := New(8, 48000)
	result := &Result{
		FFTSize: 8,
		Bins:    [][]float32{{1, 2, 3, 4, 5}},
	}
	out := make([]float32, 1)

	lo := e.BinToFreq(1)
	hi := e.BinToFreq(3)
	if err := e.AverageVolumeInBand(result, lo, hi, out); err != nil {
		t.Fatalf("AverageVolumeInBand failed: %v", err)
	}
	want := float32(2 + 3 + 4)
	if out[0] != want {
		t.Errorf("expected sum %v, got %v", want, out[0])
	}
}
