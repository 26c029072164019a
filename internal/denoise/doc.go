// Package denoise wraps a per-channel noise suppressor behind the fixed
// 480-sample/48kHz frame contract the pipeline drives at. Each channel gets
// its own independent State (mirroring an RNN's hidden state), and a Bank
// combines N channels' states, reporting the conservative minimum speech
// score across channels for a frame.
//
// The reference corpus shows this native-library-wrapper shape twice:
// richardtate's RNNoiseProcessor (build-tag-gated pass-through around a
// cgo binding that isn't available in this environment) and
// Uhm-J-notetaker's WebRTCVAD (try the native call, fall back to an
// RMS-based estimate on error or undersized input). This package follows
// the latter: State.Denoise is a pure-Go reference suppressor — a one-pole
// noise floor tracker driving spectral-subtraction-style gain — compiled
// unconditionally, with a //go:build rnnoise_cgo file reserved for a real
// libRNNoise binding that this exercise has no cgo toolchain to build.
package denoise
