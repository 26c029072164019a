// Package vadpipeline wires the ring buffer, denoiser, FFT engine, VAD state
// machines and recorder into the single synchronous pipeline an embedder
// drives by calling Push. Pipeline is not reentrant: callers must serialize
// every operation on a given instance.
package vadpipeline
