// Package audio provides the PCM primitives shared by the relay pipeline:
// the per-session frame buffer, int16 ↔ float32 sample conversion, and WAV
// encoding of staged speech artifacts.
//
// All audio in the system is little-endian signed 16-bit PCM at a single
// fixed sample rate (16 kHz mono by default). No resampling is performed
// anywhere; the capture side is expected to deliver audio in the configured
// format.
package audio

import "encoding/binary"

// FrameBuffer accumulates the raw binary audio frames of one connection-turn.
// Frames are treated as an undifferentiated byte stream — no message framing
// is assumed, so a sample may arrive split across two frames.
//
// A FrameBuffer is owned by exactly one session goroutine and is not safe for
// concurrent use.
type FrameBuffer struct {
	data []byte
}

// Append adds a raw frame to the buffer without any parsing.
func (b *FrameBuffer) Append(frame []byte) {
	b.data = append(b.data, frame...)
}

// Len returns the number of buffered bytes.
func (b *FrameBuffer) Len() int {
	return len(b.data)
}

// Drain decodes the accumulated bytes as little-endian int16 samples, clears
// the buffer, and returns the samples. If the accumulated byte count is odd,
// the trailing byte is dropped: a truncated final sample carries no usable
// signal and must never fault the turn.
func (b *FrameBuffer) Drain() []int16 {
	n := len(b.data) / 2
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		samples[i] = int16(binary.LittleEndian.Uint16(b.data[i*2:]))
	}
	b.data = nil
	return samples
}
