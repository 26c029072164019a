// Package rollingavg implements a fixed-window arithmetic mean computed in
// float64 regardless of the float32 precision used on the audio hot path,
// since it feeds threshold comparisons where drift would matter more than
// it does in DSP math. Complexity is O(window) per push, acceptable off
// the audio path where it runs once per FFT window rather than once per
// sample.
package rollingavg

// Average is a fixed-window rolling arithmetic mean.
type Average struct {
	window  []float64
	writeAt int
	filled  int
	lastAvg *float64
}

// New returns an empty rolling average over the given window size.
func New(size int) *Average {
	if size <= 0 {
		panic("rollingavg: window size must be positive")
	}
	return &Average{window: make([]float64, size)}
}

// NewSeeded returns a rolling average whose window is pre-filled with
// prior, so the first Push already reflects a full window rather than
// warming up from empty.
func NewSeeded(size int, prior float64) *Average {
	a := New(size)
	for i := range a.window {
		a.window[i] = prior
	}
	a.filled = size
	avg := prior
	a.lastAvg = &avg
	return a
}

// WindowSize returns the configured window length.
func (a *Average) WindowSize() int { return len(a.window) }

// Push records x and returns the mean over the current window contents
// (which is shorter than WindowSize until the window first fills).
func (a *Average) Push(x float64) float64 {
	a.window[a.writeAt] = x
	a.writeAt = (a.writeAt + 1) % len(a.window)
	if a.filled < len(a.window) {
		a.filled++
	}

	var sum float64
	for i := 0; i < a.filled; i++ {
		sum += a.window[i]
	}
	avg := sum / float64(a.filled)
	a.lastAvg = &avg
	return avg
}

// LastAvg returns the most recent Push's result, or (0, false) if Push has
// never been called and the average was not seeded.
func (a *Average) LastAvg() (float64, bool) {
	if a.lastAvg == nil {
		return 0, false
	}
	return *a.lastAvg, true
}
