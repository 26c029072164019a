// Package ring implements the multichannel sample store shared by every
// stage of the VAD pipeline: a fixed-capacity circular buffer addressed by
// an absolute, monotonically increasing sample counter, the zero-copy
// SplitSlice/Segment views used to read out of it without wrapping logic
// leaking into callers, and SegmentWriter, which accumulates variable-length
// writes into a fixed-length target segment (used to assemble FFT windows
// and grow recorder storage).
package ring
