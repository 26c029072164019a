package ring

import "errors"

// Sentinel errors returned by MultiRingBuffer range operations. Wrapped with
// fmt.Errorf("...: %w", ...) at the call site so callers can errors.Is
// against these while still getting a descriptive message.
var (
	// ErrInvalidRange is returned when a requested [from, to) range is
	// empty or inverted (to <= from).
	ErrInvalidRange = errors.New("ring: invalid range")

	// ErrRangeTooLong is returned when a requested range spans more
	// samples than the buffer's capacity, so it can never be satisfied
	// regardless of how much history is retained.
	ErrRangeTooLong = errors.New("ring: range longer than buffer capacity")

	// ErrCapacityExceeded is returned when part of a requested range has
	// already been overwritten (its lower bound is older than what the
	// buffer currently retains) or has not been written yet.
	ErrCapacityExceeded = errors.New("ring: range outside retained window")
)
