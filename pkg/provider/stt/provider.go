// Package stt defines the Provider interface for speech-to-text backends.
//
// An STT provider transcribes one complete utterance in a single call. The
// relay stages each turn's trimmed speech as a WAV artifact before
// transcription, so the contract is deliberately batch-shaped rather than
// streaming: submit audio, get text back.
//
// Implementations must be safe for concurrent use; one Provider instance is
// shared by all sessions.
package stt

import (
	"context"
	"io"
)

// Provider is the abstraction over any speech-to-text backend.
type Provider interface {
	// Transcribe reads a complete WAV-encoded utterance from audio and
	// returns the recognized text. An empty string with a nil error means
	// the backend recognized nothing; callers decide how to treat that.
	//
	// Returns an error if the backend cannot be reached, rejects the audio,
	// or ctx is cancelled before the result arrives.
	Transcribe(ctx context.Context, audio io.Reader) (string, error)
}
