// Package pcm has small helpers for interleaved little-endian PCM buffers.
// Nothing here interprets audio beyond sample boundaries; payloads stay
// opaque everywhere else in the module.
package pcm

import (
	"encoding/binary"
	"math"
	"time"
)

// BytesPerSampleF32 is the width of one float32 sample.
const BytesPerSampleF32 = 4

// ChunkBytes returns the byte length of one chunk of duration d at the
// given rate and channel count, aligned down to a whole frame.
func ChunkBytes(sampleRate float64, channels, bytesPerSample int, d time.Duration) int {
	frames := int(sampleRate * d.Seconds())
	if frames < 1 {
		frames = 1
	}
	return frames * channels * bytesPerSample
}

// ApplyGainF32 scales every float32 sample in buf in place, clamping to
// [-1, 1]. Buffers whose length is not a multiple of 4 keep their trailing
// bytes untouched.
func ApplyGainF32(buf []byte, gain float32) {
	if gain == 1.0 {
		return
	}
	for i := 0; i+BytesPerSampleF32 <= len(buf); i += BytesPerSampleF32 {
		s := math.Float32frombits(binary.LittleEndian.Uint32(buf[i:])) * gain
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint32(buf[i:], math.Float32bits(s))
	}
}

// Float32s decodes buf into a fresh []float32. Trailing bytes that do not
// form a full sample are ignored.
func Float32s(buf []byte) []float32 {
	out := make([]float32, 0, len(buf)/BytesPerSampleF32)
	for i := 0; i+BytesPerSampleF32 <= len(buf); i += BytesPerSampleF32 {
		out = append(out, math.Float32frombits(binary.LittleEndian.Uint32(buf[i:])))
	}
	return out
}
