// Package wavcodec adapts the teacher's WAV encode/decode helpers
// (internal/audio/wav.go) from mono int16 PCM to the pipeline's
// multichannel, normalized [-1, 1] float32 AudioBuffer shape. It exists to
// serve one in-scope operation: handing a capture.AudioBuffer off as bytes
// an embedder can write to disk or a network socket, not general PCM file
// ingress (which spec.md leaves out of scope).
package wavcodec

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Header mirrors the canonical 44-byte PCM WAV header.
type Header struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

const bitsPerSample = 16
const fullScale = 32767.0

// Encode interleaves channelPCM (each entry a normalized [-1, 1] channel of
// equal length) into 16-bit PCM and wraps it in a WAV header.
func Encode(channelPCM [][]float32, sampleRate int) ([]byte, error) {
	if len(channelPCM) == 0 || len(channelPCM[0]) == 0 {
		return nil, fmt.Errorf("wavcodec: cannot encode empty audio")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("wavcodec: sample rate must be positive, got %d", sampleRate)
	}
	numChannels := uint16(len(channelPCM))
	numFrames := len(channelPCM[0])
	for ch, data := range channelPCM {
		if len(data) != numFrames {
			return nil, fmt.Errorf("wavcodec: channel %d has %d frames, expected %d", ch, len(data), numFrames)
		}
	}

	dataSize := uint32(numFrames * int(numChannels) * 2)
	header := Header{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   numChannels,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * uint32(numChannels) * bitsPerSample / 8,
		BlockAlign:    numChannels * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, 44+int(dataSize)))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("wavcodec: failed to write header: %w", err)
	}

	interleaved := make([]int16, numFrames*int(numChannels))
	for frame := 0; frame < numFrames; frame++ {
		for ch := 0; ch < int(numChannels); ch++ {
			interleaved[frame*int(numChannels)+ch] = quantize(channelPCM[ch][frame])
		}
	}
	if err := binary.Write(buf, binary.LittleEndian, interleaved); err != nil {
		return nil, fmt.Errorf("wavcodec: failed to write audio data: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reverses Encode, returning normalized [-1, 1] per-channel float32
// PCM and the sample rate stored in the header.
func Decode(data []byte) (channelPCM [][]float32, sampleRate int, err error) {
	if len(data) < 44 {
		return nil, 0, fmt.Errorf("wavcodec: data too short: need at least 44 bytes, got %d", len(data))
	}

	r := bytes.NewReader(data)
	var header Header
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, 0, fmt.Errorf("wavcodec: failed to read header: %w", err)
	}
	if string(header.ChunkID[:]) != "RIFF" {
		return nil, 0, fmt.Errorf("wavcodec: missing RIFF header")
	}
	if string(header.Format[:]) != "WAVE" {
		return nil, 0, fmt.Errorf("wavcodec: missing WAVE format")
	}
	if string(header.Subchunk1ID[:]) != "fmt " {
		return nil, 0, fmt.Errorf("wavcodec: missing fmt chunk")
	}
	if string(header.Subchunk2ID[:]) != "data" {
		return nil, 0, fmt.Errorf("wavcodec: missing data chunk")
	}
	if header.AudioFormat != 1 {
		return nil, 0, fmt.Errorf("wavcodec: unsupported audio format %d (only PCM is supported)", header.AudioFormat)
	}
	if header.BitsPerSample != bitsPerSample {
		return nil, 0, fmt.Errorf("wavcodec: unsupported bit depth %d (only 16-bit is supported)", header.BitsPerSample)
	}
	if header.NumChannels == 0 {
		return nil, 0, fmt.Errorf("wavcodec: invalid channel count 0")
	}

	numFrames := int(header.Subchunk2Size) / (int(header.NumChannels) * 2)
	if numFrames <= 0 {
		return nil, 0, fmt.Errorf("wavcodec: no audio data found")
	}
	interleaved := make([]int16, numFrames*int(header.NumChannels))
	if err := binary.Read(r, binary.LittleEndian, interleaved); err != nil {
		return nil, 0, fmt.Errorf("wavcodec: failed to read audio data: %w", err)
	}

	channelPCM = make([][]float32, header.NumChannels)
	for ch := range channelPCM {
		channelPCM[ch] = make([]float32, numFrames)
	}
	for frame := 0; frame < numFrames; frame++ {
		for ch := 0; ch < int(header.NumChannels); ch++ {
			channelPCM[ch][frame] = float32(interleaved[frame*int(header.NumChannels)+ch]) / fullScale
		}
	}
	return channelPCM, int(header.SampleRate), nil
}

func quantize(v float32) int16 {
	x := float64(v) * fullScale
	if x > fullScale {
		x = fullScale
	}
	if x < -fullScale-1 {
		x = -fullScale - 1
	}
	return int16(x)
}
