package spectrum

import "errors"

var (
	// ErrConfigInvalid is returned by New when fft_size or sample_rate
	// cannot be used to construct a transform.
	ErrConfigInvalid = errors.New("spectrum: invalid configuration")

	// ErrFrequencyOutOfRange is returned by FreqToBin when the requested
	// frequency falls outside [0, Nyquist].
	ErrFrequencyOutOfRange = errors.New("spectrum: frequency outside representable range")

	// ErrLengthMismatch is returned by Transform/AverageVolumeInBand when
	// an argument's length does not match the engine's fixed sizes.
	ErrLengthMismatch = errors.New("spectrum: buffer length mismatch")
)
