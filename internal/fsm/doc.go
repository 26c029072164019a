// Package fsm implements the four-state speech detector driven one
// spectral evaluation at a time: closed, opening, open, closing. It decides
// when a recording should start and end but does not touch sample storage
// itself — the caller (internal/vadpipeline) translates its Decisions into
// recorder operations.
//
// The state switch itself follows internal/audio/chunker.go's
// ProcessVADResult (Idle/Collecting/WaitingSilence driven by one VAD result
// at a time, tracking start/end positions and finalizing into an emitted
// unit); this package regrows that shape to four states, absolute-sample
// timing instead of wall-clock timestamps, and the self-suppressing
// long-term-average threshold spec.md describes.
package fsm
