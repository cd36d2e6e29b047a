// Package vad defines the Detector interface for speech-activity detection
// backends.
//
// A Detector examines a complete utterance buffer and returns the sample
// ranges that contain speech. Detection runs once per turn over the full
// buffer rather than frame by frame — the relay buffers the whole capture
// before the pipeline starts, so a batch contract keeps backends simple and
// lets remote detectors amortise one round trip per turn.
//
// Implementations must be safe for concurrent use; one Detector instance is
// shared by all sessions.
package vad

import "context"

// Segment is a half-open sample-index range [Start, End) into the buffer
// passed to Detect.
type Segment struct {
	// Start is the index of the first speech sample.
	Start int

	// End is the index one past the last speech sample.
	End int
}

// Len returns the number of samples covered by the segment.
func (s Segment) Len() int {
	return s.End - s.Start
}

// Detector is the abstraction over any speech-activity detection backend.
//
// Detect returns the speech-bearing ranges of samples in ascending,
// non-overlapping order. samples are normalized mono PCM in [-1.0, 1.0] at
// the given sample rate. An empty result means no speech was found; that is
// a valid outcome, not an error.
//
// The ordering and bounds of the returned segments are a backend contract
// that callers should not rely on blindly — a misbehaving backend must not
// be able to crash the caller.
type Detector interface {
	Detect(ctx context.Context, samples []float32, sampleRate int) ([]Segment, error)
}
