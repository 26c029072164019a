package ring

import "fmt"

// SegmentWriter accumulates variable-length writes into a fixed-length
// target Segment, reporting when the target becomes full. It is used both
// to assemble FFT windows from denoiser-frame-sized contributions and to
// grow the recorder's capture storage.
type SegmentWriter[T any] struct {
	segment    *Segment[T]
	writeIndex int
}

// NewSegmentWriter allocates a SegmentWriter whose target segment owns a
// contiguous, zero-valued backing array per channel of the given length.
func NewSegmentWriter[T any](numChannels, length int) *SegmentWriter[T] {
	seg := NewSegment[T](numChannels)
	seg.Length = length
	for ch := range seg.Channels {
		seg.Channels[ch] = SplitSlice[T]{First: make([]T, length), Owns: OwnsFirst}
	}
	return &SegmentWriter[T]{segment: seg}
}

// Segment returns the target segment. Its Length reflects the writer's
// current capacity (which Grow can increase); only the first WriteIndex
// samples of each channel hold written data.
func (w *SegmentWriter[T]) Segment() *Segment[T] { return w.segment }

// WriteIndex returns how many samples have been written since the last Reset.
func (w *SegmentWriter[T]) WriteIndex() int { return w.writeIndex }

// Remaining returns how many more samples the target can accept before Full.
func (w *SegmentWriter[T]) Remaining() int { return w.segment.Length - w.writeIndex }

// Full reports whether the target segment has been completely written.
func (w *SegmentWriter[T]) Full() bool { return w.writeIndex >= w.segment.Length }

// Write copies samples from src starting at srcOffset into the target at
// the current write position, advancing it, and returns the number of
// samples copied: min(src.Length-srcOffset, w.Remaining()). src may itself
// be a split (wrapped) view; the target is always contiguous.
func (w *SegmentWriter[T]) Write(src *Segment[T], srcOffset int) (int, error) {
	if len(src.Channels) != len(w.segment.Channels) {
		return 0, fmt.Errorf("ring: channel count mismatch: target has %d, source has %d", len(w.segment.Channels), len(src.Channels))
	}
	avail := src.Length - srcOffset
	if avail <= 0 {
		return 0, nil
	}
	n := avail
	if rem := w.Remaining(); n > rem {
		n = rem
	}
	if n <= 0 {
		return 0, nil
	}
	for ch := range w.segment.Channels {
		dst := w.segment.Channels[ch].First[w.writeIndex : w.writeIndex+n]
		copySplitRange(src.Channels[ch], srcOffset, n, dst)
	}
	w.writeIndex += n
	return n, nil
}

// Reset rewinds the writer to empty and relabels the target segment's
// absolute start index, ready to accumulate the next window.
func (w *SegmentWriter[T]) Reset(newIndex uint64) {
	w.writeIndex = 0
	w.segment.Index = newIndex
}

// Grow extends the target segment's capacity in place, preserving already
// written samples and the current write position. newLength must be
// greater than the current length; Grow is a no-op otherwise.
func (w *SegmentWriter[T]) Grow(newLength int) {
	if newLength <= w.segment.Length {
		return
	}
	for ch := range w.segment.Channels {
		old := w.segment.Channels[ch].First
		buf := make([]T, newLength)
		copy(buf, old[:w.writeIndex])
		w.segment.Channels[ch] = SplitSlice[T]{First: buf, Owns: OwnsFirst}
	}
	w.segment.Length = newLength
}

// copySplitRange copies the logical range [offset, offset+n) of a
// (possibly split) source view into a contiguous destination slice.
func copySplitRange[T any](s SplitSlice[T], offset, n int, dst []T) {
	firstLen := len(s.First)
	if offset < firstLen {
		fromFirst := firstLen - offset
		if fromFirst > n {
			fromFirst = n
		}
		copy(dst[:fromFirst], s.First[offset:offset+fromFirst])
		if fromFirst < n {
			copy(dst[fromFirst:n], s.Second[:n-fromFirst])
		}
	} else {
		secOffset := offset - firstLen
		copy(dst[:n], s.Second[secOffset:secOffset+n])
	}
}
