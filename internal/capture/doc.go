// Package capture implements the lookbehind/lookahead-padded recorder: it
// accumulates samples the VAD state machine has decided belong to a speech
// segment, growing its storage in coarse chunks rather than per write, and
// hands finished captures out as an AudioBuffer owning its own storage.
//
// Grounded on internal/audio/chunker.go's finalize-then-reset-for-next-chunk
// shape and internal/audio/wav.go's AudioBuffer-shaped output (the WAV
// encode path itself lives in internal/wavcodec, adapted from wav.go for
// normalized float32 multichannel PCM).
package capture
