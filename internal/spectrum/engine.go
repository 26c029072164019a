package spectrum

import (
	"fmt"
	"math"

	"github.com/theOehrly/Formula-VAD/internal/ring"
)

// Result holds one FFT evaluation's per-channel bin magnitudes, reused
// across windows by the caller rather than reallocated.
type Result struct {
	Index   uint64
	FFTSize int
	Bins    [][]float32 // Bins[channel][bin], len(Bins[c]) == BinCount
}

// Engine is a fixed-size, allocation-free real FFT transform: constructed
// once for a given fft_size/sample_rate pair, then reused for every window.
type Engine struct {
	fftSize    int
	sampleRate int
	binCount   int
	windowNorm float64

	re, im []float64 // scratch, length fftSize, reused across Transform calls
}

// New constructs an Engine for the given FFT size (must be positive, even
// and a power of two — required by the radix-2 transform, stricter than
// the bare "positive and even" check the pipeline also applies at the
// orchestrator level) and sample rate.
func New(fftSize, sampleRate int) (*Engine, error) {
	if fftSize <= 0 || fftSize%2 != 0 {
		return nil, fmt.Errorf("%w: fft_size must be positive and even, got %d", ErrConfigInvalid, fftSize)
	}
	if !isPowerOfTwo(fftSize) {
		return nil, fmt.Errorf("%w: fft_size must be a power of two, got %d", ErrConfigInvalid, fftSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample_rate must be positive, got %d", ErrConfigInvalid, sampleRate)
	}
	return &Engine{
		fftSize:    fftSize,
		sampleRate: sampleRate,
		binCount:   fftSize/2 + 1,
		windowNorm: 2.0, // amplitude correction for a periodic Hann window
		re:         make([]float64, fftSize),
		im:         make([]float64, fftSize),
	}, nil
}

func (e *Engine) FFTSize() int    { return e.fftSize }
func (e *Engine) SampleRate() int { return e.sampleRate }
func (e *Engine) BinCount() int   { return e.binCount }
func (e *Engine) BinWidth() float64 { return float64(e.sampleRate) / float64(e.fftSize) }
func (e *Engine) Nyquist() float64  { return float64(e.sampleRate) / 2 }

// FreqToBin maps a frequency in Hz to the nearest bin index, erroring if
// the frequency falls outside [0, Nyquist].
func (e *Engine) FreqToBin(f float64) (int, error) {
	if f < 0 || f > e.Nyquist() {
		return 0, fmt.Errorf("%w: %.2f Hz outside [0, %.2f]", ErrFrequencyOutOfRange, f, e.Nyquist())
	}
	return int(math.Round(f / e.BinWidth())), nil
}

// BinToFreq maps a bin index to the frequency in Hz at its center.
func (e *Engine) BinToFreq(bin int) float64 {
	return float64(bin) * e.BinWidth()
}

// Transform windows samples (exactly FFTSize per channel, possibly split
// across a ring buffer wrap), runs the FFT, and writes normalized bin
// magnitudes into out. Both window and out must already be sized for this
// engine (len(window) == FFTSize, len(out) == BinCount); samples.Len() must
// equal FFTSize.
func (e *Engine) Transform(samples ring.SplitSlice[float32], window []float32, out []float32) error {
	if samples.Len() != e.fftSize {
		return fmt.Errorf("%w: expected %d samples, got %d", ErrLengthMismatch, e.fftSize, samples.Len())
	}
	if len(window) != e.fftSize {
		return fmt.Errorf("%w: window length %d, expected %d", ErrLengthMismatch, len(window), e.fftSize)
	}
	if len(out) != e.binCount {
		return fmt.Errorf("%w: output length %d, expected %d", ErrLengthMismatch, len(out), e.binCount)
	}

	idx := 0
	for _, v := range samples.First {
		e.re[idx] = float64(v) * float64(window[idx])
		e.im[idx] = 0
		idx++
	}
	for _, v := range samples.Second {
		e.re[idx] = float64(v) * float64(window[idx])
		e.im[idx] = 0
		idx++
	}

	fftRadix2(e.re, e.im)

	normalizer := e.windowNorm / (float64(e.fftSize) / 2.0)
	for b := 0; b < e.binCount; b++ {
		out[b] = float32(math.Hypot(e.re[b], e.im[b]) * normalizer)
	}
	return nil
}

// AverageVolumeInBand sums (not averages, despite the name carried over
// from the algorithm it mirrors) each channel's bin magnitudes over
// [FreqToBin(fMin), FreqToBin(fMax)] into out, one entry per channel.
func (e *Engine) AverageVolumeInBand(result *Result, fMin, fMax float64, out []float32) error {
	loBin, err := e.FreqToBin(fMin)
	if err != nil {
		return err
	}
	hiBin, err := e.FreqToBin(fMax)
	if err != nil {
		return err
	}
	if hiBin < loBin {
		loBin, hiBin = hiBin, loBin
	}
	if len(out) != len(result.Bins) {
		return fmt.Errorf("%w: out has %d channels, result has %d", ErrLengthMismatch, len(out), len(result.Bins))
	}
	for ch, bins := range result.Bins {
		var sum float32
		for b := loBin; b <= hiBin && b < len(bins); b++ {
			sum += bins[b]
		}
		out[ch] = sum
	}
	return nil
}
