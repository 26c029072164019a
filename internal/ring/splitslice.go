package ring

// Ownership describes which half, if any, of a SplitSlice's backing storage
// the holder is responsible for (as opposed to a view borrowed from a
// MultiRingBuffer that remains valid only until the next overwrite).
type Ownership uint8

const (
	// OwnsNone marks a borrowed view into someone else's storage (for
	// example, a slice returned by MultiRingBuffer.ReadInto).
	OwnsNone Ownership = iota
	// OwnsFirst marks a SplitSlice whose First field is its own backing
	// array, safe to retain past the call that produced it.
	OwnsFirst
	// OwnsSecond marks ownership of the Second field only.
	OwnsSecond
	// OwnsBoth marks ownership of both fields.
	OwnsBoth
)

// SplitSlice is a view over data that may be split across a ring buffer
// wrap boundary: First holds the leading run, Second the wrapped
// continuation (len(Second) == 0 when the view does not cross the
// boundary). It is the common currency threaded between the ring buffer,
// the FFT windower and the denoiser so that no stage needs to special-case
// wrap-around on its own.
type SplitSlice[T any] struct {
	First  []T
	Second []T
	Owns   Ownership
}

// Len returns the total number of elements across both parts.
func (s SplitSlice[T]) Len() int {
	return len(s.First) + len(s.Second)
}

// At returns the element at logical position i, panicking if i is out of
// range, the same contract a plain slice index gives.
func (s SplitSlice[T]) At(i int) T {
	if i < len(s.First) {
		return s.First[i]
	}
	return s.Second[i-len(s.First)]
}

// CopyInto copies up to len(dst) elements into dst in logical order,
// returning the number copied.
func (s SplitSlice[T]) CopyInto(dst []T) int {
	n := copy(dst, s.First)
	if n < len(dst) {
		n += copy(dst[n:], s.Second)
	}
	return n
}

// Flatten returns a single contiguous slice covering the same data. When
// the view does not actually cross a wrap boundary this is the existing
// First slice with no copy; otherwise it allocates.
func (s SplitSlice[T]) Flatten() []T {
	if len(s.Second) == 0 {
		return s.First
	}
	out := make([]T, s.Len())
	s.CopyInto(out)
	return out
}
