// Package spectrum wraps a real-valued FFT behind a fixed-size,
// allocation-free transform: windowing, magnitude normalization and
// frequency-band lookups live here so the VAD orchestrator only ever deals
// in bin magnitudes and Hz.
//
// There is no FFT or DSP library anywhere in the reference corpus this
// package is grounded on, so the transform itself (an iterative radix-2
// Cooley-Tukey FFT) is implemented directly against the standard library;
// its public contract shape follows FFTResultProvider from
// rayboyd-audio-engine's processor package.
package spectrum
