//go:build rnnoise_cgo

package denoise

// This file is a placeholder for a real libRNNoise cgo binding, following
// richardtate's build-tag-gated RNNoiseProcessor. It is never compiled by
// default (no cgo toolchain in this environment) and intentionally
// contains no implementation — State.Denoise in state.go is the default,
// unconditionally-compiled suppressor.
