package spectrum

import "math"

// HannWindow returns a periodic (not symmetric) Hann window of the given
// length: w[n] = 0.5 - 0.5*cos(2*pi*n/N). Periodic rather than symmetric so
// that consecutive, non-overlapping windows tile without a seam.
func HannWindow(n int) []float32 {
	w := make([]float32, n)
	for i := 0; i < n; i++ {
		w[i] = float32(0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n)))
	}
	return w
}
